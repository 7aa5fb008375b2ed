package stash

import "time"

// Option applies a configuration option to the in-memory stash.
type Option func(*inMemoryStash)

// WithMaxSize sets how many files are kept. Values <= 0 are ignored.
func WithMaxSize(maxSize int) Option {
	return func(s *inMemoryStash) {
		if maxSize > 0 {
			s.maxSize = maxSize
		}
	}
}

// WithTTL sets how long a stored file stays retrievable.
func WithTTL(ttl time.Duration) Option {
	return func(s *inMemoryStash) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *inMemoryStash) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEvictionHook is called once per entry dropped for capacity or expiry.
func WithEvictionHook(fn func()) Option {
	return func(s *inMemoryStash) {
		if fn != nil {
			s.onEvict = fn
		}
	}
}
