package streak

import (
	"sync"
	"time"
)

// Rollover fires a callback at each local midnight in a fixed timezone. It
// arms a one-shot timer for the next midnight, re-arms itself after firing,
// and releases the timer on Stop.
type Rollover struct {
	mu      sync.Mutex
	loc     *time.Location
	fn      func()
	timer   *time.Timer
	stopped bool
	// now is swappable for tests.
	now func() time.Time
}

// NewRollover creates a stopped rollover for the given timezone and callback.
func NewRollover(loc *time.Location, fn func()) *Rollover {
	if loc == nil {
		loc = time.UTC
	}
	return &Rollover{
		loc: loc,
		fn:  fn,
		now: time.Now,
	}
}

// Start arms the timer for the next local midnight. Starting an already
// started rollover is a no-op.
func (r *Rollover) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil || r.stopped {
		return
	}
	r.arm()
}

// arm schedules the next firing. Caller holds r.mu.
func (r *Rollover) arm() {
	now := r.now()
	next := NextMidnight(now, r.loc)
	r.timer = time.AfterFunc(next.Sub(now), r.fire)
}

func (r *Rollover) fire() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.arm()
	fn := r.fn
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop cancels the pending timer. The rollover cannot be restarted; callers
// create a new one if the timezone changes.
func (r *Rollover) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
