package clock

import (
	"sync"
	"time"
)

// Recorder is a Clock for tests. After fires immediately, advances the
// recorder's notion of now by d, and records the requested duration.
//
// Recorder is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	current time.Time
	waits   []time.Duration
}

// NewRecorder returns a Recorder starting at initial.
func NewRecorder(initial time.Time) *Recorder {
	return &Recorder{current: initial}
}

func (r *Recorder) Now() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Recorder) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.current = r.current.Add(d)
	}
	r.waits = append(r.waits, d)
	ch := make(chan time.Time, 1)
	ch <- r.current
	return ch
}

// Waits returns every duration passed to After, in call order.
func (r *Recorder) Waits() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.waits))
	copy(out, r.waits)
	return out
}

// Elapsed returns the sum of all recorded waits.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, d := range r.waits {
		total += d
	}
	return total
}
