package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of claims kept. Zero or negative means
// unbounded, which is what the metric pipeline uses.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithKeyFunc replaces teamname.Key as the identity of a claim.
func WithKeyFunc(fn func(string) string) Option {
	return func(d *inMemoryDeduper) {
		if fn != nil {
			d.keyFn = fn
		}
	}
}
