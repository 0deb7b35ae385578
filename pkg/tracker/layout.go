package tracker

import "github.com/Sriram-PR/folio/pkg/models"

// Layout maps heading ids to the source line of their anchor. When ids
// collide the first anchor wins, the way a document lookup by id returns the
// first matching element.
type Layout map[string]int

// NewLayout builds a Layout from anchors in document order
func NewLayout(anchors []models.Anchor) Layout {
	l := make(Layout, len(anchors))
	for _, a := range anchors {
		if _, exists := l[a.ID]; !exists {
			l[a.ID] = a.Line
		}
	}
	return l
}

// Line returns the anchor line of id
func (l Layout) Line(id string) (int, bool) {
	line, ok := l[id]
	return line, ok
}
