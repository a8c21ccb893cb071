// Package providers holds the framework service providers. Each one binds a
// framework service into the container under its type id and a short alias:
//
//	ConfigServiceProvider   "config"  *config.Config
//	LoggingServiceProvider  "log"     *slog.Logger
//	MetricsServiceProvider  "metrics" *metrics.Collector (deferred)
//	RoutingServiceProvider  "router"  *routing.Router
package providers
