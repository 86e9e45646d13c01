package changes

import (
	"sync"
	"time"

	"github.com/angelmondragon/shipbridge/pkg/enums"
)

// Debouncer coalesces bursts of notifications: fire runs once, window after
// the last Trigger, with every collection seen during the burst.
type Debouncer struct {
	window time.Duration
	fire   func([]enums.Kind)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[enums.Kind]struct{}
	stopped bool
}

func NewDebouncer(window time.Duration, fire func([]enums.Kind)) *Debouncer {
	return &Debouncer{window: window, fire: fire, pending: map[enums.Kind]struct{}{}}
}

func (d *Debouncer) Trigger(kind enums.Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending[kind] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	kinds := make([]enums.Kind, 0, len(d.pending))
	for _, k := range enums.AllKinds {
		if _, ok := d.pending[k]; ok {
			kinds = append(kinds, k)
		}
	}
	d.pending = map[enums.Kind]struct{}{}
	d.mu.Unlock()

	d.fire(kinds)
}

// Stop drops pending work; later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = map[enums.Kind]struct{}{}
}
