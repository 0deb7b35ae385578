package toc

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Sriram-PR/folio/pkg/models"
)

// EmptyMessage is shown in place of the TOC for a post without headings
const EmptyMessage = "No headings found in this post."

// Options controls RenderHTML
type Options struct {
	// KeepCollapsed emits collapsed subtrees with the hidden attribute instead
	// of omitting them, so a client script can expand them without a reload.
	KeepCollapsed bool
}

type tocList struct {
	Nested bool
	Hidden bool
	Items  []tocItem
}

type tocItem struct {
	ID          string
	Text        string
	HasChildren bool
	Expanded    bool
	Active      bool
	Children    *tocList
}

var tocTemplate = template.Must(template.New("toc").Parse(`
{{- define "list" -}}
<ul class="toc-list{{if .Nested}} toc-nested{{end}}"{{if .Hidden}} hidden{{end}}>
{{- range .Items}}
<li>
<div class="toc-row">
{{- if .HasChildren}}
<button type="button" class="toc-toggle" data-toggle="{{.ID}}" aria-expanded="{{.Expanded}}" aria-label="{{if .Expanded}}Collapse section{{else}}Expand section{{end}}"><span aria-hidden="true">{{if .Expanded}}&#9652;{{else}}&#9662;{{end}}</span></button>
{{- end}}
<button type="button" class="toc-link{{if .Active}} active{{end}}" data-target="{{.ID}}">{{.Text}}</button>
</div>
{{- if .Children}}{{template "list" .Children}}{{end}}
</li>
{{- end}}
</ul>
{{- end -}}
{{- if .Items}}{{template "list" .}}{{else}}<p class="toc-empty">{{.Empty}}</p>{{end -}}
`))

// RenderHTML renders the heading forest as nested lists. Entries with
// subheadings get a toggle button; subheadings of a collapsed entry are left
// out (or hidden with KeepCollapsed). The entry matching the active id gets
// the "active" class.
func RenderHTML(headings []*models.Heading, state *State, opts Options) (template.HTML, error) {
	if state == nil {
		state = NewState()
	}
	root := buildList(headings, state, opts, false, false)

	var buf bytes.Buffer
	data := struct {
		*tocList
		Empty string
	}{root, EmptyMessage}
	if err := tocTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render toc: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func buildList(headings []*models.Heading, state *State, opts Options, nested, hidden bool) *tocList {
	active := state.Active()
	list := &tocList{Nested: nested, Hidden: hidden, Items: make([]tocItem, 0, len(headings))}
	for _, h := range headings {
		item := tocItem{
			ID:          h.ID,
			Text:        h.Text,
			HasChildren: len(h.Subheadings) > 0,
			Expanded:    state.IsExpanded(h.ID),
			Active:      active != "" && h.ID == active,
		}
		if item.HasChildren && (item.Expanded || opts.KeepCollapsed) {
			item.Children = buildList(h.Subheadings, state, opts, true, !item.Expanded)
		}
		list.Items = append(list.Items, item)
	}
	return list
}
