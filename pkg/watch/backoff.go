package watch

import (
	"math/rand"
	"time"
)

// Backoff is the bounded exponential backoff with jitter used between
// reconnect attempts (spec.md §4.H point 5). The type is exported so
// callers and tests can use and observe the policy on its own; a Watcher
// creates its own instance with NewBackoff and does not expose it.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64

	current time.Duration
}

// NewBackoff returns a Backoff with sensible defaults: 500ms base,
// doubling, capped at 30s.
func NewBackoff() *Backoff {
	return &Backoff{Base: 500 * time.Millisecond, Max: 30 * time.Second, Factor: 2}
}

// Next returns the delay before the next reconnect attempt and advances
// the internal state. Jitter is applied uniformly in [0.5x, 1.5x) of the
// computed delay so many watchers reconnecting at once don't thunder.
func (b *Backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.Base
	} else {
		b.current = time.Duration(float64(b.current) * b.Factor)
	}
	if b.current > b.Max {
		b.current = b.Max
	}
	jittered := float64(b.current) * (0.5 + rand.Float64())
	return time.Duration(jittered)
}

// Reset clears accumulated backoff after a successful open.
func (b *Backoff) Reset() {
	b.current = 0
}
