package watch

import (
	"sort"
	"sync"
	"time"
)

// eventDebouncer batches events per path and delivers the latest event for
// each path once no new event arrived for the debounce interval
type eventDebouncer struct {
	mu       sync.Mutex
	events   map[string]EventType
	debounce time.Duration
	timer    *time.Timer
	stopped  bool
	deliver  Handler
}

func newEventDebouncer(debounce time.Duration, deliver Handler) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]EventType),
		debounce: debounce,
		deliver:  deliver,
	}
}

func (d *eventDebouncer) addEvent(path string, event EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.events[path] = event
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.flush)
}

func (d *eventDebouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.events = make(map[string]EventType)
}

// flush delivers removals first, then changes, then creations
func (d *eventDebouncer) flush() {
	d.mu.Lock()
	events := d.events
	d.events = make(map[string]EventType)
	stopped := d.stopped
	d.mu.Unlock()

	if stopped || len(events) == 0 {
		return
	}

	var creates, removes, changes []string
	for path, event := range events {
		switch event {
		case EventCreate:
			creates = append(creates, path)
		case EventRemove:
			removes = append(removes, path)
		default:
			changes = append(changes, path)
		}
	}
	sort.Strings(creates)
	sort.Strings(removes)
	sort.Strings(changes)

	for _, path := range removes {
		d.deliver(path, EventRemove)
	}
	for _, path := range changes {
		d.deliver(path, events[path])
	}
	for _, path := range creates {
		d.deliver(path, EventCreate)
	}
}
