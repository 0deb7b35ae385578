package tracker

// edgeEpsilon absorbs float rounding in margin * height so a zero-height zone
// still contains the line it sits on
const edgeEpsilon = 1e-9

// Viewport is the visible window over a post, measured in source lines
type Viewport struct {
	Offset int // First visible line
	Height int // Number of visible lines
}

// Band shrinks the viewport to the trigger zone, like CSS rootMargin with
// negative percentages: TopMargin -0.20 moves the top edge down by 20% of the
// height and BottomMargin -0.80 moves the bottom edge up by 80%.
type Band struct {
	TopMargin    float64
	BottomMargin float64
}

// DefaultBand is the zone used by the blog pages: the line at 20% of the viewport
func DefaultBand() Band {
	return Band{TopMargin: -0.20, BottomMargin: -0.80}
}

// Zone returns the absolute top and bottom line of the trigger zone for v
func (b Band) Zone(v Viewport) (top, bottom float64) {
	h := float64(v.Height)
	top = float64(v.Offset) - b.TopMargin*h
	bottom = float64(v.Offset) + h + b.BottomMargin*h
	return top, bottom
}

// Contains reports whether an anchor on line intersects the zone. Both edges
// are inclusive.
func (b Band) Contains(v Viewport, line int) bool {
	top, bottom := b.Zone(v)
	l := float64(line)
	return l >= top-edgeEpsilon && l <= bottom+edgeEpsilon
}
