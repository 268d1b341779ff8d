package dfilter

import (
	"github.com/rs/zerolog"

	"github.com/packetlens/dfilter/compiler"
	"github.com/packetlens/dfilter/fields"
)

// Option configures a filter compilation.
type Option func(*config)

type config struct {
	optimize       bool
	returnValues   bool
	skipValidation bool
	registry       fields.Registry
	logger         *zerolog.Logger
}

func collectOptions(opts ...Option) *config {
	cfg := &config{optimize: true}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (cfg *config) compilerConfig() *compiler.Config {
	return &compiler.Config{
		Registry:       cfg.registry,
		Optimize:       cfg.optimize,
		ReturnValues:   cfg.returnValues,
		SkipValidation: cfg.skipValidation,
		Logger:         cfg.logger,
	}
}

// WithOptimize enables or disables the branch optimizer. It is enabled by
// default.
func WithOptimize(enabled bool) Option {
	return func(cfg *config) {
		cfg.optimize = enabled
	}
}

// WithReturnValues makes a filter consisting of a single field return that
// field's values rather than test for its presence.
func WithReturnValues(enabled bool) Option {
	return func(cfg *config) {
		cfg.returnValues = enabled
	}
}

// WithRegistry sets the registry used to resolve same-name field chains.
// By default the links stored in each fields.Info are followed.
func WithRegistry(r fields.Registry) Option {
	return func(cfg *config) {
		cfg.registry = r
	}
}

// WithLogger sets the logger that receives compile diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = &logger
	}
}

// WithoutValidation skips the tree validator. Invalid trees then fail on
// the first problem found during code generation.
func WithoutValidation() Option {
	return func(cfg *config) {
		cfg.skipValidation = true
	}
}
