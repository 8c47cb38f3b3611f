package watch

import (
	"sync"
	"time"
)

// debouncer coalesces rapid file events so a burst of writes to the
// same policy file triggers one reprocess. Events for the same path
// within the window merge: a change followed by a remove is a remove,
// a remove followed by a change is a change, and a create followed by
// a remove cancels out.
type debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]Event
	created map[string]bool // path first appeared inside this window
	output  chan []Event
	timer   *time.Timer
	stopped bool
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window:  window,
		pending: make(map[string]Event),
		created: make(map[string]bool),
		output:  make(chan []Event, 8),
	}
}

// add records an event and schedules a flush.
func (d *debouncer) add(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	existing, seen := d.pending[event.Path]
	switch {
	case !seen:
		d.pending[event.Path] = event
		d.created[event.Path] = event.Created
	case event.Op == OpRemove && d.created[event.Path]:
		// Created and removed within one window: nothing happened.
		delete(d.pending, event.Path)
		delete(d.created, event.Path)
	case event.Op == OpRemove:
		d.pending[event.Path] = event
	case existing.Op == OpRemove:
		// The file came back; treat it as a plain change.
		event.Created = false
		d.pending[event.Path] = event
		d.created[event.Path] = false
	default:
		d.pending[event.Path] = event
	}

	if d.timer == nil {
		d.timer = time.AfterFunc(d.window, d.flush)
	} else {
		d.timer.Reset(d.window)
	}
}

// flush emits the coalesced batch.
func (d *debouncer) flush() {
	d.mu.Lock()

	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]Event, 0, len(d.pending))
	for _, event := range d.pending {
		batch = append(batch, event)
	}
	d.pending = make(map[string]Event)
	d.created = make(map[string]bool)
	d.mu.Unlock()

	select {
	case d.output <- batch:
	default:
		// The consumer is behind; drop rather than block the watch loop.
	}
}

// events returns the batch channel.
func (d *debouncer) events() <-chan []Event {
	return d.output
}

// stop prevents further batches. Pending events are discarded.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
