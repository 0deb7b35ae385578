package process

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// ConverterOptions configures the Markdown engine
type ConverterOptions struct {
	Extensions []string // Names from extensionRegistry; unknown names are ignored
	HardWraps  bool
	UnsafeHTML bool
	MaxLevel   int // Deepest level kept in the heading tree (1-3, 0 means 3)
}

// Result is the output of a single conversion
type Result struct {
	HTML     string
	Headings []*models.Heading // Nested, levels 1..MaxLevel
	Anchors  []models.Anchor   // Every heading, document order
}

// Converter renders Markdown to HTML with slug ids on every heading.
// A Converter is safe for concurrent use.
type Converter struct {
	md       goldmark.Markdown
	maxLevel int
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":             extension.GFM,
	"table":           extension.Table,
	"tables":          extension.Table,
	"strikethrough":   extension.Strikethrough,
	"linkify":         extension.Linkify,
	"autolink":        extension.Linkify,
	"tasklist":        extension.TaskList,
	"definition":      extension.DefinitionList,
	"definition_list": extension.DefinitionList,
	"footnote":        extension.Footnote,
	"typographer":     extension.Typographer,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}

// NewConverter builds a Converter from opts
func NewConverter(opts ConverterOptions) *Converter {
	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.UnsafeHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	rendererOptions = append(rendererOptions, renderer.WithNodeRenderers(util.Prioritized(&headingRenderer{}, 100)))

	md := goldmark.New(
		goldmark.WithExtensions(collectExtensions(opts.Extensions)...),
		goldmark.WithParserOptions(parser.WithASTTransformers(util.Prioritized(&headingIDTransformer{}, 100))),
		goldmark.WithRendererOptions(rendererOptions...),
	)

	maxLevel := opts.MaxLevel
	if maxLevel <= 0 || maxLevel > MaxTOCLevel {
		maxLevel = MaxTOCLevel
	}
	return &Converter{md: md, maxLevel: maxLevel}
}

// Render parses source once and returns the HTML together with the heading
// tree and anchors read from the same AST.
func (c *Converter) Render(source []byte) (*Result, error) {
	doc := c.md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrMarkdownConversion, err)
	}

	var flat []*models.Heading
	for _, h := range ExtractHeadings(doc, source) {
		if h.Level <= c.maxLevel {
			flat = append(flat, h)
		}
	}

	return &Result{
		HTML:     buf.String(),
		Headings: BuildHeadingTree(flat),
		Anchors:  collectAnchors(doc, source),
	}, nil
}

// collectAnchors records the source line of every heading
func collectAnchors(doc ast.Node, source []byte) []models.Anchor {
	anchors := []models.Anchor{}
	line, offset := 0, 0
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		// Empty headings carry no segment and inherit the previous position
		if heading.Lines().Len() > 0 {
			start := heading.Lines().At(0).Start
			if start >= offset {
				line += bytes.Count(source[offset:start], []byte("\n"))
				offset = start
			}
		}
		anchors = append(anchors, models.Anchor{
			ID:    headingID(heading, ""),
			Level: heading.Level,
			Line:  line,
		})
		return ast.WalkSkipChildren, nil
	})
	return anchors
}

// headingIDTransformer assigns id="slug" to every heading
type headingIDTransformer struct{}

func (t *headingIDTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			heading.SetAttributeString("id", []byte(Slugify(headingText(heading, source))))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

// headingRenderer writes <hN id="..."> without the default renderer's extra attributes
type headingRenderer struct{}

func (r *headingRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
}

func (r *headingRenderer) renderHeading(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	if entering {
		var id []byte
		if v, ok := n.AttributeString("id"); ok {
			id, _ = v.([]byte)
		}
		_, _ = fmt.Fprintf(w, `<h%d id="%s">`, n.Level, util.EscapeHTML(id))
	} else {
		_, _ = fmt.Fprintf(w, "</h%d>\n", n.Level)
	}
	return ast.WalkContinue, nil
}
