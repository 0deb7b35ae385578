package mcp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/tracker"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// testRendered builds a post with anchors on fixed lines:
//
//	0 # A   4 ## B   8 ### B1   12 ## C   16 # D
func testRendered() *models.RenderedPost {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = "text"
	}
	lines[0], lines[4], lines[8], lines[12], lines[16] = "# A", "## B", "### B1", "## C", "# D"

	b1 := &models.Heading{ID: "b1", Text: "B1", Level: 3, Subheadings: []*models.Heading{}}
	b := &models.Heading{ID: "b", Text: "B", Level: 2, Subheadings: []*models.Heading{b1}}
	c := &models.Heading{ID: "c", Text: "C", Level: 2, Subheadings: []*models.Heading{}}
	a := &models.Heading{ID: "a", Text: "A", Level: 1, Subheadings: []*models.Heading{b, c}}
	d := &models.Heading{ID: "d", Text: "D", Level: 1, Subheadings: []*models.Heading{}}

	return &models.RenderedPost{
		Post: models.Post{
			Slug:     "letters",
			Metadata: models.PostMetadata{Title: "Letters", PublishedAt: "2024-01-01"},
			Source:   strings.Join(lines, "\n"),
		},
		Headings: []*models.Heading{a, d},
		Anchors: []models.Anchor{
			{ID: "a", Level: 1, Line: 0},
			{ID: "b", Level: 2, Line: 4},
			{ID: "b1", Level: 3, Line: 8},
			{ID: "c", Level: 2, Line: 12},
			{ID: "d", Level: 1, Line: 16},
		},
	}
}

func newTestManager() *SessionManager {
	return NewSessionManager(SessionOptions{Band: tracker.DefaultBand(), Height: 10})
}

func TestSessionManager_OpenGetClose(t *testing.T) {
	m := newTestManager()
	defer m.CloseAll()

	sess := m.Open(testRendered())
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "letters", sess.Slug)
	assert.Equal(t, "Letters", sess.Title)
	assert.False(t, sess.OpenedAt.IsZero())

	assert.Same(t, sess, m.Get(sess.ID))
	assert.Nil(t, m.Get("unknown"))

	assert.True(t, m.Close(sess.ID))
	assert.False(t, m.Close(sess.ID))
	assert.Nil(t, m.Get(sess.ID))
}

func TestSessionManager_ListOrder(t *testing.T) {
	m := newTestManager()
	defer m.CloseAll()

	first := m.Open(testRendered())
	time.Sleep(time.Millisecond)
	second := m.Open(testRendered())

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	m.CloseAll()
	assert.Empty(t, m.List())
}

func TestSession_IndependentState(t *testing.T) {
	m := newTestManager()
	defer m.CloseAll()

	s1 := m.Open(testRendered())
	s2 := m.Open(testRendered())

	expanded, err := s1.Toggle("a")
	require.NoError(t, err)
	assert.True(t, expanded)

	_, err = s1.ScrollTo("d")
	require.NoError(t, err)

	assert.Contains(t, s1.Outline(), "[-] A")
	assert.Contains(t, s2.Outline(), "[+] A")
	assert.Equal(t, "d", s1.Active())
	assert.Empty(t, s2.Active())
}

func TestSession_ExpandAllAndReset(t *testing.T) {
	m := newTestManager()
	defer m.CloseAll()
	sess := m.Open(testRendered())

	sess.ExpandAll()
	outline := sess.Outline()
	assert.Contains(t, outline, "[-] A")
	assert.Contains(t, outline, "[-] B")
	assert.Contains(t, outline, "B1 (#b1)")

	_, err := sess.ScrollTo("c")
	require.NoError(t, err)

	v := sess.ResetView()
	assert.Equal(t, 0, v.Offset)
	assert.Contains(t, sess.Outline(), "[+] A")
	assert.Empty(t, sess.Active())
}

func TestSession_Toggle(t *testing.T) {
	m := newTestManager()
	defer m.CloseAll()
	sess := m.Open(testRendered())

	expanded, err := sess.Toggle("b")
	require.NoError(t, err)
	assert.True(t, expanded)

	expanded, err = sess.Toggle("b")
	require.NoError(t, err)
	assert.False(t, expanded)

	_, err = sess.Toggle("zzz")
	assert.ErrorIs(t, err, utils.ErrHeadingNotFound)
}

func TestSession_ScrollTo(t *testing.T) {
	m := newTestManager()
	defer m.CloseAll()
	sess := m.Open(testRendered())

	v, err := sess.ScrollTo("c")
	require.NoError(t, err)
	assert.Equal(t, tracker.Viewport{Offset: 12, Height: 10}, v)
	assert.Equal(t, "c", sess.Active())
	assert.True(t, strings.HasPrefix(sess.Visible(v), "## C\n"))

	_, err = sess.ScrollTo("zzz")
	assert.ErrorIs(t, err, utils.ErrHeadingNotFound)
	assert.Equal(t, "c", sess.Active())
}

func TestSession_ScrollMovesActive(t *testing.T) {
	m := newTestManager()
	defer m.CloseAll()
	sess := m.Open(testRendered())

	// Zone sits 2 lines below the offset
	v := sess.Scroll(6)
	assert.Equal(t, []string{"b1"}, sess.InZone(v))
	require.Eventually(t, func() bool { return sess.Active() == "b1" }, time.Second, 5*time.Millisecond)

	v = sess.Scroll(7)
	assert.Empty(t, sess.InZone(v))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "b1", sess.Active(), "leaving the zone keeps the last active heading")

	v = sess.Scroll(100)
	assert.Equal(t, 19, v.Offset)
	assert.Equal(t, "text", sess.Visible(v))
}

func TestSession_ReadSection(t *testing.T) {
	m := newTestManager()
	defer m.CloseAll()
	sess := m.Open(testRendered())

	tests := []struct {
		id        string
		wantFirst string
		wantLines int
	}{
		{id: "a", wantFirst: "# A", wantLines: 16},
		{id: "b", wantFirst: "## B", wantLines: 8},
		{id: "b1", wantFirst: "### B1", wantLines: 4},
		{id: "c", wantFirst: "## C", wantLines: 4},
		{id: "d", wantFirst: "# D", wantLines: 4},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			text, err := sess.ReadSection(tt.id)
			require.NoError(t, err)
			lines := strings.Split(text, "\n")
			assert.Equal(t, tt.wantFirst, lines[0])
			assert.Len(t, lines, tt.wantLines)
		})
	}

	_, err := sess.ReadSection("zzz")
	assert.ErrorIs(t, err, utils.ErrHeadingNotFound)
}

func TestSession_EmptyPost(t *testing.T) {
	m := newTestManager()
	defer m.CloseAll()

	sess := m.Open(&models.RenderedPost{
		Post:     models.Post{Slug: "empty", Metadata: models.PostMetadata{Title: "Empty"}},
		Headings: []*models.Heading{},
	})
	assert.Contains(t, sess.Outline(), "No headings found in this post.")
	v := sess.Scroll(5)
	assert.Equal(t, 0, v.Offset)
	assert.Empty(t, sess.InZone(v))
	assert.Empty(t, sess.Active())
}
