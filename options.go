package lowcard

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures ambient behavior of a Type and the sessions it creates.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for encode and decode sessions.
// Pass nil to disable metrics collection.
//
// Example:
//
//	metrics := &lowcard.BasicMetricsCollector{}
//	t, _ := lowcard.NewType(types.String(), lowcard.WithMetricsCollector(metrics))
//	// ... encode ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example:
//
//	logger := lowcard.NewJSONLogger(slog.LevelDebug)
//	t, _ := lowcard.NewType(types.String(), lowcard.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

func defaultOptions() options {
	return options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}
