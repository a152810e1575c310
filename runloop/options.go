package runloop

// Option configures a Loop at construction time.
type Option interface {
	apply(*loopOptions)
}

type loopOptions struct {
	onOverload        func(pending int)
	overloadThreshold int
}

type optionFunc func(*loopOptions)

func (f optionFunc) apply(o *loopOptions) { f(o) }

// WithOverloadThreshold arranges for onOverload to be invoked (on the loop
// goroutine, once per tick) whenever a single drain observes more than n
// pending tasks. Engines use this to surface backpressure rather than let a
// wedged caller queue unboundedly.
func WithOverloadThreshold(n int, onOverload func(pending int)) Option {
	return optionFunc(func(o *loopOptions) {
		o.overloadThreshold = n
		o.onOverload = onOverload
	})
}

func resolveOptions(opts []Option) *loopOptions {
	cfg := &loopOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(cfg)
		}
	}
	return cfg
}
