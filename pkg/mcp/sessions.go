package mcp

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/toc"
	"github.com/Sriram-PR/folio/pkg/tracker"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// Session is one open post. It owns the collapse/active state of its table
// of contents and the tracker that moves the active heading as the agent scrolls.
type Session struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	OpenedAt time.Time `json:"opened_at"`

	rendered *models.RenderedPost
	lines    []string
	band     tracker.Band
	layout   tracker.Layout
	state    *toc.State
	tracker  *tracker.Tracker
}

// Headings returns the heading forest of the open post
func (s *Session) Headings() []*models.Heading {
	return s.rendered.Headings
}

// Outline renders the table of contents with the session's collapse and active state
func (s *Session) Outline() string {
	var b strings.Builder
	_ = toc.WriteOutline(&b, s.rendered.Headings, s.state)
	return b.String()
}

// Expanded lists the expanded heading ids
func (s *Session) Expanded() []string {
	return s.state.Expanded()
}

// ExpandAll expands every collapsible heading
func (s *Session) ExpandAll() {
	s.state.ExpandAll(s.rendered.Headings)
}

// ResetView collapses every heading, clears the active heading and scrolls back to the top
func (s *Session) ResetView() tracker.Viewport {
	s.state.Reset()
	return s.tracker.Scroll(0)
}

// Toggle flips the collapse state of a heading and returns the new state
func (s *Session) Toggle(id string) (bool, error) {
	if models.FindHeading(s.rendered.Headings, id) == nil {
		return false, fmt.Errorf("%w: '%s' in post '%s'", utils.ErrHeadingNotFound, id, s.Slug)
	}
	return s.state.Toggle(id), nil
}

// ScrollTo jumps to a heading and makes it active immediately
func (s *Session) ScrollTo(id string) (tracker.Viewport, error) {
	if models.FindHeading(s.rendered.Headings, id) == nil {
		return s.tracker.Viewport(), fmt.Errorf("%w: '%s' in post '%s'", utils.ErrHeadingNotFound, id, s.Slug)
	}
	s.tracker.ScrollTo(id)
	return s.tracker.Viewport(), nil
}

// Scroll moves the viewport. The active heading follows once the observer
// has processed the move.
func (s *Session) Scroll(offset int) tracker.Viewport {
	if last := len(s.lines) - 1; offset > last {
		offset = last
	}
	return s.tracker.Scroll(offset)
}

// Active returns the active heading id, "" when none
func (s *Session) Active() string {
	return s.state.Active()
}

// InZone lists the tracked headings whose anchors are inside the trigger
// zone of v, in document order
func (s *Session) InZone(v tracker.Viewport) []string {
	ids := make([]string, 0)
	models.WalkHeadings(s.rendered.Headings, func(h *models.Heading) bool {
		if line, ok := s.layout.Line(h.ID); ok && s.band.Contains(v, line) {
			ids = append(ids, h.ID)
		}
		return true
	})
	return ids
}

// Visible returns the source lines inside v
func (s *Session) Visible(v tracker.Viewport) string {
	start := min(v.Offset, len(s.lines))
	end := min(v.Offset+v.Height, len(s.lines))
	return strings.Join(s.lines[start:end], "\n")
}

// ReadSection returns the Markdown from the heading's line up to the next
// heading of the same or a higher level
func (s *Session) ReadSection(id string) (string, error) {
	anchors := s.rendered.Anchors
	start := -1
	for i, a := range anchors {
		if a.ID == id {
			start = i
			break
		}
	}
	if start < 0 {
		return "", fmt.Errorf("%w: '%s' in post '%s'", utils.ErrHeadingNotFound, id, s.Slug)
	}

	from := anchors[start].Line
	to := len(s.lines)
	for _, a := range anchors[start+1:] {
		if a.Level <= anchors[start].Level {
			to = a.Line
			break
		}
	}
	from = min(from, len(s.lines))
	to = max(min(to, len(s.lines)), from)
	return strings.TrimRight(strings.Join(s.lines[from:to], "\n"), "\n "), nil
}

// Close releases the session's observer
func (s *Session) Close() {
	s.tracker.Close()
}

// SessionOptions configures new sessions
type SessionOptions struct {
	Band   tracker.Band
	Height int
}

// SessionManager tracks open reading sessions
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	opts     SessionOptions
}

// NewSessionManager creates an empty session manager
func NewSessionManager(opts SessionOptions) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Open starts a session over a rendered post with the viewport at the top
// and every collapsible heading collapsed
func (m *SessionManager) Open(rp *models.RenderedPost) *Session {
	state := toc.NewState()
	tr := tracker.New(tracker.Options{
		Band:   m.opts.Band,
		Height: m.opts.Height,
		Store:  state,
	})
	layout := tracker.NewLayout(rp.Anchors)
	tr.Watch(rp.Headings, layout)

	sess := &Session{
		ID:       uuid.New().String(),
		Slug:     rp.Post.Slug,
		Title:    rp.Post.Metadata.Title,
		OpenedAt: time.Now(),
		rendered: rp,
		lines:    strings.Split(rp.Post.Source, "\n"),
		band:     m.opts.Band,
		layout:   layout,
		state:    state,
		tracker:  tr,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// Get returns a session by ID
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// List returns all open sessions, oldest first
func (m *SessionManager) List() []*Session {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].OpenedAt.Equal(list[j].OpenedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].OpenedAt.Before(list[j].OpenedAt)
	})
	return list
}

// Close ends a session. It reports whether the session existed.
func (m *SessionManager) Close(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		sess.Close()
	}
	return ok
}

// CloseAll ends every open session
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
