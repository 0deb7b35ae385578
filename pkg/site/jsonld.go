package site

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/utils"
)

//go:embed schema/blogposting.json
var blogPostingSchemaJSON []byte

// BlogPosting is the schema.org structured data embedded in every post page
type BlogPosting struct {
	Context       string   `json:"@context"`
	Type          string   `json:"@type"`
	Headline      string   `json:"headline"`
	DatePublished string   `json:"datePublished"`
	DateModified  string   `json:"dateModified"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	URL           string   `json:"url"`
	Keywords      []string `json:"keywords,omitempty"`
	Author        Person   `json:"author"`
}

// Person is a schema.org author
type Person struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// NewBlogPosting builds the structured data for post
func NewBlogPosting(siteURL, author string, post models.Post) BlogPosting {
	meta := post.Metadata
	return BlogPosting{
		Context:       "https://schema.org",
		Type:          "BlogPosting",
		Headline:      meta.Title,
		DatePublished: meta.PublishedAt,
		DateModified:  meta.PublishedAt,
		Description:   meta.Summary,
		Image:         ImageURL(siteURL, meta.Image, meta.Title),
		URL:           PostURL(siteURL, post.Slug),
		Keywords:      meta.Tags,
		Author:        Person{Type: "Person", Name: author},
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func blogPostingSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("blogposting.json", bytes.NewReader(blogPostingSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("blogposting.json")
	})
	return compiledSchema, schemaErr
}

// MarshalJSONLD validates bp against the BlogPosting schema and returns it
// ready for a <script type="application/ld+json"> element
func MarshalJSONLD(bp BlogPosting) (template.JS, error) {
	schema, err := blogPostingSchema()
	if err != nil {
		return "", fmt.Errorf("%w: compiling schema: %w", utils.ErrStructuredData, err)
	}

	// json.Marshal escapes <, > and & so the payload cannot close the script element
	encoded, err := json.Marshal(bp)
	if err != nil {
		return "", fmt.Errorf("%w: encoding JSON-LD: %w", utils.ErrStructuredData, err)
	}

	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return "", fmt.Errorf("%w: decoding JSON-LD: %w", utils.ErrStructuredData, err)
	}
	if err := schema.Validate(doc); err != nil {
		return "", fmt.Errorf("%w: %s", utils.ErrStructuredData, validationMessage(err))
	}
	return template.JS(encoded), nil
}

// validationMessage flattens a schema validation error into "location: message" pairs
func validationMessage(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	var parts []string
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			loc := node.InstanceLocation
			if loc == "" {
				loc = "#"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", loc, node.Message))
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return strings.Join(parts, "; ")
}
