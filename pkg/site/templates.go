package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Sriram-PR/folio/pkg/config"
	"github.com/Sriram-PR/folio/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// DisplayDateLayout formats publishedAt for readers ("January 2, 2006")
const DisplayDateLayout = "January 2, 2006"

type pageKind string

const (
	pageIndex pageKind = "index.html"
	pageBlog  pageKind = "blog.html"
	pagePost  pageKind = "post.html"
	pageAbout pageKind = "about.html"
)

// Templates holds one parsed template set per page kind, each sharing the layout
type Templates struct {
	sets map[pageKind]*template.Template
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*Templates, error) {
	base, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	t := &Templates{sets: make(map[pageKind]*template.Template)}
	for _, kind := range []pageKind{pageIndex, pageBlog, pagePost, pageAbout} {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+string(kind)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		t.sets[kind] = clone
	}
	return t, nil
}

func (t *Templates) render(kind pageKind, page layoutData) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.sets[kind].ExecuteTemplate(&buf, "layout", page); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	return buf.Bytes(), nil
}

// layoutData is shared by every page; Body carries the page-specific view
type layoutData struct {
	Title       string
	Description string
	Canonical   string
	SiteName    string
	JSONLD      template.JS
	Script      bool
	Body        any
}

type postLink struct {
	Title       string
	Path        string
	PublishedAt string
	DateText    string
	Summary     string
}

type postView struct {
	Title          string
	PublishedAt    string
	DateText       string
	ReadingMinutes int
	Tags           []string
	TOC            template.HTML
	Content        template.HTML
	Unavailable    bool
	Newer          *postLink
	Older          *postLink
}

type listView struct {
	Heading     string
	SiteName    string
	Description string
	Posts       []postLink
}

type contactView struct {
	Label     string
	URL       string
	AriaLabel string
	External  bool
}

type aboutView struct {
	Name     string
	Headline string
	Avatar   string
	Bio      []string
	Body     template.HTML // Rendered about.md, replaces Bio when present
	Skills   []string
	Contacts []contactView
}

// FormatDate renders a YYYY-MM-DD date for display. Unparseable input is returned unchanged.
func FormatDate(publishedAt string) string {
	t, err := time.Parse(models.PublishedAtLayout, publishedAt)
	if err != nil {
		return publishedAt
	}
	return t.Format(DisplayDateLayout)
}

func linkFor(p *models.Post) *postLink {
	if p == nil {
		return nil
	}
	return &postLink{
		Title:       p.Metadata.Title,
		Path:        PostPath(p.Slug),
		PublishedAt: p.Metadata.PublishedAt,
		DateText:    FormatDate(p.Metadata.PublishedAt),
		Summary:     p.Metadata.Summary,
	}
}

func contactViews(contacts []config.Contact) []contactView {
	views := make([]contactView, 0, len(contacts))
	for _, c := range contacts {
		if c.URL == "" {
			continue
		}
		label := c.Label
		if label == "" {
			label = c.URL
		}
		v := contactView{Label: label, URL: c.URL, External: true, AriaLabel: label + " Profile"}
		if strings.HasPrefix(strings.ToLower(c.URL), "mailto:") {
			v.External = false
			v.AriaLabel = "Email Me"
		}
		views = append(views, v)
	}
	return views
}
