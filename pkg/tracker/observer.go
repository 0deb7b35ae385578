package tracker

import (
	"sort"
	"sync"
)

// Entry reports a change in whether an observed anchor intersects the zone
type Entry struct {
	ID           string
	Line         int
	Intersecting bool
}

// Callback receives the entries that changed since the previous delivery, in
// document order.
type Callback func(entries []Entry)

// Observer watches anchors and reports when they enter or leave the trigger zone
type Observer interface {
	Observe(id string, line int)
	Unobserve(id string)
	Update(v Viewport)
	Disconnect()
}

type target struct {
	id   string
	line int
	seq  int
}

// LineObserver is an Observer over source lines. Intersection changes are
// computed and delivered on a dedicated goroutine; several updates arriving
// before a delivery collapse into one batch against the latest viewport.
type LineObserver struct {
	band     Band
	callback Callback

	mu       sync.Mutex
	targets  []target
	last     map[string]bool // Last delivered intersection state per id
	viewport *Viewport
	seq      int
	closed   bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

var _ Observer = (*LineObserver)(nil)

// NewLineObserver starts an observer. Disconnect must be called to release it.
// The callback must not call Disconnect.
func NewLineObserver(band Band, callback Callback) *LineObserver {
	o := &LineObserver{
		band:     band,
		callback: callback,
		last:     make(map[string]bool),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	o.wg.Add(1)
	go o.run()
	return o
}

func (o *LineObserver) run() {
	defer o.wg.Done()
	for {
		select {
		case <-o.done:
			return
		case <-o.wake:
			if entries := o.collect(); len(entries) > 0 {
				o.callback(entries)
			}
		}
	}
}

// Observe starts watching id at line. Observing an id twice is a no-op.
func (o *LineObserver) Observe(id string, line int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	for _, t := range o.targets {
		if t.id == id {
			return
		}
	}
	o.seq++
	o.targets = append(o.targets, target{id: id, line: line, seq: o.seq})
	sort.SliceStable(o.targets, func(i, j int) bool {
		if o.targets[i].line != o.targets[j].line {
			return o.targets[i].line < o.targets[j].line
		}
		return o.targets[i].seq < o.targets[j].seq
	})
	if o.viewport != nil {
		o.signal()
	}
}

// Unobserve stops watching id
func (o *LineObserver) Unobserve(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, t := range o.targets {
		if t.id == id {
			o.targets = append(o.targets[:i], o.targets[i+1:]...)
			break
		}
	}
	delete(o.last, id)
}

// Update moves the viewport and schedules a delivery
func (o *LineObserver) Update(v Viewport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.viewport = &v
	o.signal()
}

// Disconnect drops every target and stops the delivery goroutine. No callback
// runs after Disconnect returns. Safe to call more than once.
func (o *LineObserver) Disconnect() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.targets = nil
	o.last = make(map[string]bool)
	close(o.done)
	o.mu.Unlock()

	o.wg.Wait()
}

// signal must be called with mu held
func (o *LineObserver) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// collect computes the entries whose state differs from the last delivery.
// A target seen for the first time always produces an entry.
func (o *LineObserver) collect() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.viewport == nil {
		return nil
	}
	var changed []Entry
	for _, t := range o.targets {
		in := o.band.Contains(*o.viewport, t.line)
		prev, seen := o.last[t.id]
		if seen && prev == in {
			continue
		}
		o.last[t.id] = in
		changed = append(changed, Entry{ID: t.id, Line: t.line, Intersecting: in})
	}
	return changed
}
