package live

import (
	"sync"
	"time"
)

// DefaultDebounce coalesces editor save bursts into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces triggers into at most one pending rebuild request.
// The request channel has capacity one; a request arriving while a rebuild
// is already queued is absorbed.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	req   chan struct{}
}

// NewDebouncer creates a debouncer with the given delay; zero or negative
// delays fall back to DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		delay: delay,
		req:   make(chan struct{}, 1),
	}
}

// Requests returns the channel that receives coalesced rebuild requests.
func (d *Debouncer) Requests() <-chan struct{} { return d.req }

// Trigger schedules a rebuild request after the debounce delay, resetting
// the delay if one is already scheduled.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.req <- struct{}{}:
		default:
		}
	})
}

// Stop cancels any scheduled request.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
