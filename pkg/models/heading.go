package models

// Heading is one node of a post's table of contents
type Heading struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Level       int        `json:"level"`
	Subheadings []*Heading `json:"subheadings"`
}

// WalkHeadings visits every heading of the forest in document order.
// Returning false from fn stops the walk.
func WalkHeadings(forest []*Heading, fn func(h *Heading) bool) bool {
	for _, h := range forest {
		if !fn(h) {
			return false
		}
		if !WalkHeadings(h.Subheadings, fn) {
			return false
		}
	}
	return true
}

// FindHeading returns the first heading with the given id, or nil
func FindHeading(forest []*Heading, id string) *Heading {
	var found *Heading
	WalkHeadings(forest, func(h *Heading) bool {
		if h.ID == id {
			found = h
			return false
		}
		return true
	})
	return found
}

// CountHeadings returns the number of nodes in the forest
func CountHeadings(forest []*Heading) int {
	n := 0
	WalkHeadings(forest, func(*Heading) bool {
		n++
		return true
	})
	return n
}
