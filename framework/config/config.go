package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// Config is the central typed configuration struct.
type Config struct {
	App      AppConfig      `config:"app"`
	Log      LogConfig      `config:"log"`
	Injector InjectorConfig `config:"injector"`
}

type AppConfig struct {
	Name  string `config:"name" validate:"required"`
	Env   string `config:"env" validate:"oneof=local production testing"` // local | production | testing
	Debug bool   `config:"debug"`
	URL   string `config:"url"`
	Port  string `config:"port" validate:"required,numeric"`
}

type LogConfig struct {
	Level  string `config:"level" validate:"oneof=debug info warn error"`
	Format string `config:"format" validate:"oneof=text json"`
}

// InjectorConfig tunes the container and its HTTP surfaces.
type InjectorConfig struct {
	MaxDepth int  `config:"max_depth" validate:"min=1"`
	Inspect  bool `config:"inspect"` // serve /_container
	Metrics  bool `config:"metrics"` // serve /metrics
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.App.Port }

// envKeys maps environment variables to their dotted config path.
var envKeys = map[string]string{
	"APP_NAME":           "app.name",
	"APP_ENV":            "app.env",
	"APP_DEBUG":          "app.debug",
	"APP_URL":            "app.url",
	"APP_PORT":           "app.port",
	"LOG_LEVEL":          "log.level",
	"LOG_FORMAT":         "log.format",
	"INJECTOR_MAX_DEPTH": "injector.max_depth",
	"INJECTOR_INSPECT":   "injector.inspect",
	"INJECTOR_METRICS":   "injector.metrics",
}

// BindError reports which stage of loading failed: "decode" or "validate".
type BindError struct {
	Stage string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("config %s error: %v", e.Stage, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:  "GoInjector",
			Env:   "local",
			Debug: true,
			URL:   "http://localhost",
			Port:  "8000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Injector: InjectorConfig{
			MaxDepth: 256,
			Inspect:  true,
			Metrics:  true,
		},
	}
}

// Load reads .env (if present) and populates a Config from environment
// variables over Default().
// Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return Bind(FromEnv(os.LookupEnv))
}

// FromEnv collects the known environment variables into a nested map.
func FromEnv(lookup func(string) (string, bool)) map[string]any {
	out := make(map[string]any)
	for key, path := range envKeys {
		if v, ok := lookup(key); ok && v != "" {
			setNested(out, strings.Split(path, "."), v)
		}
	}
	return out
}

// Bind decodes source over Default() and validates the result.
func Bind(source map[string]any) (*Config, error) {
	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		TagName: "config",
	})
	if err != nil {
		return nil, &BindError{Stage: "decode", Err: err}
	}
	if err := dec.Decode(source); err != nil {
		return nil, &BindError{Stage: "decode", Err: err}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, &BindError{Stage: "validate", Err: err}
	}
	return cfg, nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setNested(m map[string]any, path []string, v any) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}
