package tracker

import (
	"sync"

	"github.com/Sriram-PR/folio/pkg/models"
)

// ActiveStore holds the active heading id. *toc.State satisfies it.
type ActiveStore interface {
	SetActive(id string)
	Active() string
}

// ObserverFactory creates the Observer a Tracker uses for each heading set
type ObserverFactory func(band Band, callback Callback) Observer

// Options configures a Tracker
type Options struct {
	Band        Band
	Height      int          // Viewport height in lines
	Store       ActiveStore  // Receives active-heading updates; an internal store is used when nil
	NewObserver ObserverFactory
}

// Tracker determines which heading is active as the viewport moves over a post
type Tracker struct {
	band        Band
	store       ActiveStore
	newObserver ObserverFactory

	mu       sync.Mutex // Guards observer, layout and viewport; never held while the store is written
	observer Observer
	layout   Layout
	viewport Viewport
}

// New creates a Tracker with the viewport at the top of the post
func New(opts Options) *Tracker {
	store := opts.Store
	if store == nil {
		store = &memStore{}
	}
	factory := opts.NewObserver
	if factory == nil {
		factory = func(b Band, cb Callback) Observer { return NewLineObserver(b, cb) }
	}
	height := opts.Height
	if height <= 0 {
		height = 40
	}
	return &Tracker{
		band:        opts.Band,
		store:       store,
		newObserver: factory,
		viewport:    Viewport{Height: height},
	}
}

// Watch replaces the observed heading set. The previous observer is
// disconnected before the new one is created. Headings without an anchor in
// layout are skipped.
func (t *Tracker) Watch(headings []*models.Heading, layout Layout) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.observer != nil {
		t.observer.Disconnect()
		t.observer = nil
	}
	t.layout = layout

	obs := t.newObserver(t.band, t.handleEntries)
	models.WalkHeadings(headings, func(h *models.Heading) bool {
		if line, ok := layout.Line(h.ID); ok {
			obs.Observe(h.ID, line)
		}
		return true
	})
	obs.Update(t.viewport)
	t.observer = obs
}

// handleEntries applies a batch: every intersecting entry becomes active in
// turn, so the last one in the batch wins.
func (t *Tracker) handleEntries(entries []Entry) {
	for _, e := range entries {
		if e.Intersecting {
			t.store.SetActive(e.ID)
		}
	}
}

// Scroll moves the viewport so that offset is the first visible line
func (t *Tracker) Scroll(offset int) Viewport {
	if offset < 0 {
		offset = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewport.Offset = offset
	if t.observer != nil {
		t.observer.Update(t.viewport)
	}
	return t.viewport
}

// ScrollTo aligns the anchor of id with the top of the viewport and marks id
// active without waiting for the observer. It reports whether the anchor
// exists; the active id is set either way.
func (t *Tracker) ScrollTo(id string) bool {
	// Set before waking the observer so its deliveries for the new viewport win
	t.store.SetActive(id)

	t.mu.Lock()
	defer t.mu.Unlock()
	line, ok := t.layout.Line(id)
	if ok {
		t.viewport.Offset = line
		if t.observer != nil {
			t.observer.Update(t.viewport)
		}
	}
	return ok
}

// Active returns the active heading id, "" when none
func (t *Tracker) Active() string {
	return t.store.Active()
}

// Viewport returns the current viewport
func (t *Tracker) Viewport() Viewport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewport
}

// Close disconnects the current observer. The Tracker can be reused with Watch.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.observer != nil {
		t.observer.Disconnect()
		t.observer = nil
	}
}

type memStore struct {
	mu     sync.RWMutex
	active string
}

func (m *memStore) SetActive(id string) {
	m.mu.Lock()
	m.active = id
	m.mu.Unlock()
}

func (m *memStore) Active() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}
