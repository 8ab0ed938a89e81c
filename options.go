package gsg

import (
	"log/slog"

	"github.com/gogpu/gsg/stats"
)

// Option configures a Guardian during creation.
//
// Example:
//
//	// Defaults: package logger, no statistics, DefaultConfig
//	g, err := gsg.New(b)
//
//	// Prometheus statistics and a config file
//	sink, _ := stats.NewPrometheus(prometheus.DefaultRegisterer)
//	cfg, _ := gsg.LoadConfig("gsg.toml")
//	g, err := gsg.New(b, gsg.WithStatsSink(sink), gsg.WithConfig(cfg))
type Option func(*options)

// options holds optional configuration for Guardian creation.
type options struct {
	logger *slog.Logger
	sink   stats.Sink
	config Config
	strict *bool
}

// defaultOptions returns the default guardian options.
func defaultOptions() options {
	return options{
		sink:   stats.Nop{},
		config: DefaultConfig(),
	}
}

// WithLogger gives the guardian its own logger instead of the package
// logger set by SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStatsSink sets where the guardian reports statistics.
func WithStatsSink(s stats.Sink) Option {
	return func(o *options) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithConfig replaces DefaultConfig.
func WithConfig(c Config) Option {
	return func(o *options) {
		o.config = c
	}
}

// WithStrictProtocol makes protocol violations panic instead of returning
// false. It overrides the strict-protocol config key.
func WithStrictProtocol(strict bool) Option {
	return func(o *options) {
		o.strict = &strict
	}
}
