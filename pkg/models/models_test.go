package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPostDBEntry_OmitEmpty(t *testing.T) {
	entry := PostDBEntry{
		Status:      PostStatusPending,
		LastAttempt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, "error_type")
	assert.NotContains(t, raw, "content_hash")
}

func TestPostMetadata_Date(t *testing.T) {
	d, err := PostMetadata{PublishedAt: "2024-03-09"}.Date()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), d)

	_, err = PostMetadata{PublishedAt: "March 9"}.Date()
	assert.Error(t, err)
}

func TestPostMetadata_FrontMatterKeys(t *testing.T) {
	raw := "title: Hello\npublishedAt: \"2024-01-02\"\nsummary: Intro\nimage: /img/a.png\ntags: [go, web]\ndraft: true\nslug: custom\n"
	var meta PostMetadata
	require.NoError(t, yaml.Unmarshal([]byte(raw), &meta))

	assert.Equal(t, PostMetadata{
		Title:       "Hello",
		PublishedAt: "2024-01-02",
		Summary:     "Intro",
		Image:       "/img/a.png",
		Tags:        []string{"go", "web"},
		Draft:       true,
		Slug:        "custom",
	}, meta)
}

func TestHeading_JSONKeepsEmptySubheadings(t *testing.T) {
	data, err := json.Marshal(&Heading{ID: "a", Text: "A", Level: 1, Subheadings: []*Heading{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","text":"A","level":1,"subheadings":[]}`, string(data))
}

func TestSiteManifest_OmitEmpty(t *testing.T) {
	data, err := yaml.Marshal(SiteManifest{BuildID: "01H"})
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, "failed_posts")
	assert.NotContains(t, raw, "skipped_posts")
	assert.Contains(t, raw, "build_id: 01H")
}

func forest() []*Heading {
	c := &Heading{ID: "c", Level: 3}
	b := &Heading{ID: "b", Level: 2, Subheadings: []*Heading{c}}
	a := &Heading{ID: "a", Level: 1, Subheadings: []*Heading{b}}
	d := &Heading{ID: "d", Level: 1}
	return []*Heading{a, d}
}

func TestWalkHeadings_DocumentOrder(t *testing.T) {
	var ids []string
	WalkHeadings(forest(), func(h *Heading) bool {
		ids = append(ids, h.ID)
		return true
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestWalkHeadings_Stop(t *testing.T) {
	var ids []string
	completed := WalkHeadings(forest(), func(h *Heading) bool {
		ids = append(ids, h.ID)
		return h.ID != "b"
	})
	assert.False(t, completed)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFindHeading(t *testing.T) {
	f := forest()
	h := FindHeading(f, "c")
	require.NotNil(t, h)
	assert.Equal(t, 3, h.Level)
	assert.Nil(t, FindHeading(f, "missing"))
	assert.Nil(t, FindHeading(nil, "a"))
}

func TestCountHeadings(t *testing.T) {
	assert.Equal(t, 4, CountHeadings(forest()))
	assert.Equal(t, 0, CountHeadings(nil))
}
