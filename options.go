package dispatch

// config holds configuration resolved from Options at New().
type config struct {
	waitingCapacity int
	logger          Logger
	selectorFactory func() (Selector, error)
	telemetry       bool
}

// Option configures a Dispatcher.
type Option interface {
	apply(*config) error
}

type optionFunc func(*config) error

func (f optionFunc) apply(cfg *config) error {
	return f(cfg)
}

// WithWaitingCapacity sets the initial capacity of the waiting table
// (spec's "integer compile-time flag"; default 64, see waiting.go).
func WithWaitingCapacity(n int) Option {
	return optionFunc(func(cfg *config) error {
		cfg.waitingCapacity = n
		return nil
	})
}

// WithLogger attaches a Logger for dispatcher diagnostics. The default
// is a NoOpLogger.
func WithLogger(logger Logger) Option {
	return optionFunc(func(cfg *config) error {
		cfg.logger = logger
		return nil
	})
}

// WithSelector injects a Selector factory, bypassing NewSelector. The
// dispatcher calls it twice per init() (once for the primary selector,
// once for the manager selector), so the factory must be able to
// produce independent instances. Primarily used by tests to substitute
// a fake selector.
func WithSelector(factory func() (Selector, error)) Option {
	return optionFunc(func(cfg *config) error {
		cfg.selectorFactory = factory
		return nil
	})
}

// WithTelemetry enables debug telemetry (per-continuation timing,
// registration tracing), routed through the configured Logger.
func WithTelemetry(enabled bool) Option {
	return optionFunc(func(cfg *config) error {
		cfg.telemetry = enabled
		return nil
	})
}

// resolveOptions applies Options to a config seeded with defaults.
func resolveOptions(opts []Option) (*config, error) {
	cfg := &config{
		waitingCapacity: defaultWaitingCapacity,
		logger:          NoOpLogger{},
		selectorFactory: NewSelector,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
