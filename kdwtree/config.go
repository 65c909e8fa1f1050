package kdwtree

import "go.uber.org/zap"

type config struct {
	logger *zap.Logger
}

// Option configures optional behavior of a tree constructor.
type Option func(*config)

// WithLogger attaches a zap logger that receives construction-time
// diagnostics — one Debug entry per dimension's wavelet matrix,
// recording its depth and the size in bits the bit-vector estimator
// settled on. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func newConfig(opts []Option) *config {
	c := &config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
