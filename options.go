package matconv

// Option configures a Converter during creation.
//
// Example:
//
//	// Wait for every kernel before returning
//	conv, err := matconv.NewConverter(rt, matconv.WithBlockingDispatch(true))
type Option func(*options)

// options holds optional configuration for Converter creation.
type options struct {
	blocking        bool
	initialCapacity uint64
}

// defaultOptions returns the default converter options.
func defaultOptions() options {
	return options{
		blocking:        false, // Map synchronizes the queue anyway
		initialCapacity: 0,     // staging buffer created on first Copy
	}
}

// WithBlockingDispatch makes every operation wait for its kernel to finish
// before returning. Copy to host is always synchronous because mapping the
// staging buffer drains the queue; this affects Copy from host, Resize and
// Crop.
func WithBlockingDispatch(blocking bool) Option {
	return func(o *options) {
		o.blocking = blocking
	}
}

// WithInitialStagingCapacity allocates a staging buffer of at least n bytes
// in NewConverter so early Copy calls do not grow it. Use StagingBytes to
// size it for the largest expected Mat.
func WithInitialStagingCapacity(n uint64) Option {
	return func(o *options) {
		o.initialCapacity = n
	}
}
