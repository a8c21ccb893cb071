package providers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/km-arc/go-injector/framework/config"
	"github.com/km-arc/go-injector/framework/container"
	gohttp "github.com/km-arc/go-injector/framework/http"
	"github.com/km-arc/go-injector/framework/logging"
	"github.com/km-arc/go-injector/framework/metrics"
	"github.com/km-arc/go-injector/framework/routing"
)

// Type ids of the framework services.
var (
	ConfigID  = container.TypeOf[*config.Config]()
	LoggerID  = container.TypeOf[*slog.Logger]()
	MetricsID = container.TypeOf[*metrics.Collector]()
	RouterID  = container.TypeOf[*routing.Router]()
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration.
//
// Bound ids:
//   - ConfigID  → *config.Config
//   - "config"  → alias of ConfigID
//
// A preset Config is shared as is; otherwise it is loaded from EnvFiles on
// first use.
type ConfigServiceProvider struct {
	container.BaseProvider
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app container.Registrar) error {
	if err := app.Alias("config", ConfigID); err != nil {
		return err
	}
	if p.Config != nil {
		return app.ShareInstance(ConfigID, p.Config)
	}
	envFiles := p.EnvFiles
	app.Share(ConfigID)
	return app.Delegate(ConfigID, func(*container.Builder) (any, error) {
		return config.Load(envFiles...)
	})
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application logger.
//
// Bound ids:
//   - LoggerID → *slog.Logger, built from config.LogConfig
//   - "log"    → alias of LoggerID
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *slog.Logger
	Writer io.Writer // default: stdout
}

func (p *LoggingServiceProvider) Register(app container.Registrar) error {
	if err := app.Alias("log", LoggerID); err != nil {
		return err
	}
	if p.Logger != nil {
		return app.ShareInstance(LoggerID, p.Logger)
	}
	w := p.Writer
	app.Share(LoggerID)
	return app.Delegate(LoggerID, func(b *container.Builder) (any, error) {
		cfg, err := b.Make(ConfigID)
		if err != nil {
			return nil, err
		}
		return logging.New(cfg.(*config.Config).Log, w), nil
	})
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider binds the Prometheus collector. It is deferred:
// nothing is registered until MetricsID or "metrics" is first resolved.
// Booting hooks the collector into the container.
type MetricsServiceProvider struct {
	container.BaseProvider
}

func (p *MetricsServiceProvider) IsDeferred() bool { return true }

func (p *MetricsServiceProvider) Provides() []container.TypeID {
	return []container.TypeID{MetricsID, "metrics"}
}

func (p *MetricsServiceProvider) Register(app container.Registrar) error {
	if err := app.Alias("metrics", MetricsID); err != nil {
		return err
	}
	app.Share(MetricsID)
	return app.Delegate(MetricsID, func(*container.Builder) (any, error) {
		return metrics.New(nil), nil
	})
}

func (p *MetricsServiceProvider) Boot(app *container.Container) error {
	m, err := container.Resolve[*metrics.Collector](app)
	if err != nil {
		return err
	}
	m.Observe(app)
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider binds the HTTP router and, on boot, mounts the
// framework endpoints:
//
//	GET /health        always
//	/_container/...    when injector.inspect is set
//	/metrics           when injector.metrics is set
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app container.Registrar) error {
	if err := app.Alias("router", RouterID); err != nil {
		return err
	}
	app.Share(RouterID)
	return app.Delegate(RouterID, func(b *container.Builder) (any, error) {
		logger, err := b.Make(LoggerID)
		if err != nil {
			return nil, err
		}
		return routing.New(logger.(*slog.Logger)), nil
	})
}

func (p *RoutingServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app)
	if err != nil {
		return err
	}
	router, err := container.Resolve[*routing.Router](app)
	if err != nil {
		return err
	}

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{
			"status":    "ok",
			"app":       cfg.App.Name,
			"env":       cfg.App.Env,
			"container": app.ID(),
		})
	})
	if cfg.Injector.Inspect {
		routing.Inspect(router, app)
	}
	if cfg.Injector.Metrics {
		m, err := container.Resolve[*metrics.Collector](app)
		if err != nil {
			return err
		}
		router.Handle("/metrics", m.Handler())
	}
	return nil
}
