package process

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"

	"github.com/Sriram-PR/folio/pkg/models"
)

// MaxTOCLevel is the deepest heading level that enters the table of contents
const MaxTOCLevel = 3

// ExtractHeadings walks a parsed document and returns its level 1-3 headings
// in document order. Ids are the ones assigned by the converter's heading
// transformer; a document parsed without it yields Slugify of the text.
func ExtractHeadings(doc ast.Node, source []byte) []*models.Heading {
	var headings []*models.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level <= MaxTOCLevel {
			txt := headingText(heading, source)
			headings = append(headings, &models.Heading{
				ID:          headingID(heading, txt),
				Text:        txt,
				Level:       heading.Level,
				Subheadings: []*models.Heading{},
			})
		}
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// BuildHeadingTree nests a flat, document-ordered heading list. Each heading
// becomes a child of the nearest preceding heading with a smaller level, or a
// root when there is none. The input is not modified.
func BuildHeadingTree(flat []*models.Heading) []*models.Heading {
	roots := []*models.Heading{}
	var stack []*models.Heading

	for _, h := range flat {
		node := &models.Heading{ID: h.ID, Text: h.Text, Level: h.Level, Subheadings: []*models.Heading{}}

		for len(stack) > 0 && stack[len(stack)-1].Level >= node.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.Subheadings = append(parent.Subheadings, node)
		} else {
			roots = append(roots, node)
		}

		stack = append(stack, node)
	}
	return roots
}

// headingText returns the plain text of a heading's inline content, the same
// string a browser reports as textContent for the rendered element.
func headingText(heading *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.CodeSpan:
			// Code span text is literal: no escapes or entities
			for c := t.FirstChild(); c != nil; c = c.NextSibling() {
				if seg, ok := c.(*ast.Text); ok {
					buf.Write(seg.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(inlineText(t.Segment.Value(source)))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.Label(source))
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// inlineText drops backslash escapes and resolves character references the
// way the HTML renderer does
func inlineText(v []byte) []byte {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	return util.ResolveEntityNames(v)
}

func headingID(heading *ast.Heading, txt string) string {
	if v, ok := heading.AttributeString("id"); ok {
		if b, ok := v.([]byte); ok {
			return string(b)
		}
	}
	return Slugify(txt)
}
