package toc

import (
	"slices"
	"sync"

	"github.com/Sriram-PR/folio/pkg/models"
)

// State is the per-view TOC state: which entries are expanded and which
// heading is active. It is safe for concurrent use.
type State struct {
	mu       sync.RWMutex
	expanded map[string]struct{}
	active   string
}

// NewState returns a State with nothing expanded and no active heading
func NewState() *State {
	return &State{expanded: make(map[string]struct{})}
}

// Toggle flips the expanded flag of id and returns the new value.
// No other entry is affected.
func (s *State) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expanded[id]; ok {
		delete(s.expanded, id)
		return false
	}
	s.expanded[id] = struct{}{}
	return true
}

// IsExpanded reports whether id is expanded
func (s *State) IsExpanded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.expanded[id]
	return ok
}

// Expanded returns the expanded ids in sorted order
func (s *State) Expanded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.expanded))
	for id := range s.expanded {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ExpandAll marks every heading that has subheadings as expanded
func (s *State) ExpandAll(headings []*models.Heading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	models.WalkHeadings(headings, func(h *models.Heading) bool {
		if len(h.Subheadings) > 0 {
			s.expanded[h.ID] = struct{}{}
		}
		return true
	})
}

// SetActive records id as the active heading; "" clears it
func (s *State) SetActive(id string) {
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
}

// Active returns the active heading id, or "" when none is active
func (s *State) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Reset clears the expanded set and the active heading.
// Called whenever the post being viewed changes.
func (s *State) Reset() {
	s.mu.Lock()
	s.expanded = make(map[string]struct{})
	s.active = ""
	s.mu.Unlock()
}
