package recovery

import "github.com/agentkit/agentkit/observe"

// Option configures a primitive's instrumentation.
type Option func(*instrumentation)

type instrumentation struct {
	log     observe.Logger
	metrics *observe.Metrics
}

func newInstrumentation(opts []Option) instrumentation {
	in := instrumentation{log: observe.NopLogger()}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

// WithPrimitiveLogger sets the logger on an individual primitive. The
// Recovery pipeline has its own WithLogger option.
func WithPrimitiveLogger(log observe.Logger) Option {
	return func(in *instrumentation) { in.log = log }
}

// WithPrimitiveMetrics sets the metrics recorder on an individual
// primitive.
func WithPrimitiveMetrics(m *observe.Metrics) Option {
	return func(in *instrumentation) { in.metrics = m }
}
