package session

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"

	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/result"
)

// registryOptions holds configuration options for Registry creation.
type registryOptions struct {
	config     Config
	logger     *logiface.Logger[logiface.Event]
	exec       result.Executor
	runtime    engine.Runtime
	factory    engine.Factory
	userAgents *UserAgentTable
	now        func() time.Time
	store      SnapshotStore
}

// Option configures a Registry instance.
type Option interface {
	applyRegistry(*registryOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyRegistryFunc func(*registryOptions) error
}

func (o *optionImpl) applyRegistry(opts *registryOptions) error {
	return o.applyRegistryFunc(opts)
}

// WithConfig sets the configuration, unset fields take their defaults.
func WithConfig(config Config) Option {
	return &optionImpl{func(opts *registryOptions) error {
		config = config.withDefaults()
		if err := config.Validate(); err != nil {
			return err
		}
		opts.config = config
		return nil
	}}
}

// WithLogger sets the structured logger. A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *registryOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithExecutor sets the execution context that owns every session, and the
// results they hand to the engine. Defaults to [result.Inline].
func WithExecutor(exec result.Executor) Option {
	return &optionImpl{func(opts *registryOptions) error {
		if exec == nil {
			return errors.New(`session: nil executor`)
		}
		opts.exec = exec
		return nil
	}}
}

// WithRuntime sets the engine runtime that sessions are opened against.
func WithRuntime(runtime engine.Runtime) Option {
	return &optionImpl{func(opts *registryOptions) error {
		opts.runtime = runtime
		return nil
	}}
}

// WithEngineFactory sets the source of engine sessions. Required.
func WithEngineFactory(factory engine.Factory) Option {
	return &optionImpl{func(opts *registryOptions) error {
		if factory == nil {
			return errors.New(`session: nil engine factory`)
		}
		opts.factory = factory
		return nil
	}}
}

// WithUserAgentTable sets the user agent overrides, replacing those of the
// config.
func WithUserAgentTable(table *UserAgentTable) Option {
	return &optionImpl{func(opts *registryOptions) error {
		opts.userAgents = table
		return nil
	}}
}

// WithClock sets the time source, for keep-alive windows and last use.
func WithClock(now func() time.Time) Option {
	return &optionImpl{func(opts *registryOptions) error {
		if now == nil {
			return errors.New(`session: nil clock`)
		}
		opts.now = now
		return nil
	}}
}

// WithStore enables [Registry.Save] and [Registry.Restore].
func WithStore(store SnapshotStore) Option {
	return &optionImpl{func(opts *registryOptions) error {
		opts.store = store
		return nil
	}}
}

// resolveRegistryOptions applies Option instances to registryOptions.
func resolveRegistryOptions(opts []Option) (*registryOptions, error) {
	cfg := &registryOptions{
		config: DefaultConfig(),
		exec:   result.Inline,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyRegistry(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.factory == nil {
		return nil, errors.New(`session: an engine factory is required`)
	}
	if cfg.userAgents == nil {
		cfg.userAgents = LoadUserAgentTable(cfg.config.UserAgentOverridesFile, cfg.config.UserAgentOverrides)
	}
	return cfg, nil
}
