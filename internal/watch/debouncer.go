package watch

import (
	"sync"
	"time"
)

// debouncer collects file paths and flushes them as one batch after a
// quiet period, so editors that write a file several times in quick
// succession trigger a single incremental run.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending map[string]struct{}
	flush   func(paths []string)
	stopped bool
}

func newDebouncer(delay time.Duration, flush func(paths []string)) *debouncer {
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	return &debouncer{
		delay:   delay,
		pending: make(map[string]struct{}),
		flush:   flush,
	}
}

// add schedules path for the next batch, resetting the quiet-period
// timer.
func (d *debouncer) add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(d.pending))
	for p := range d.pending {
		batch = append(batch, p)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	d.flush(batch)
}

// stop cancels any scheduled flush. Pending paths are dropped.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
