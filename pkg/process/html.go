package process

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/folio/pkg/models"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// ExtractHeadingsFromHTML scans rendered HTML for h1, h2 and h3 elements in
// document order. Malformed markup is tolerated; only an empty input is an error.
func ExtractHeadingsFromHTML(htmlContent string) ([]*models.Heading, error) {
	if htmlContent == "" {
		return nil, fmt.Errorf("%w: no HTML to scan for headings", utils.ErrContentUnavailable)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("%w: HTML heading scan: %v", utils.ErrParsing, err)
	}

	headings := []*models.Heading{}
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		headings = append(headings, &models.Heading{
			ID:          id,
			Text:        s.Text(),
			Level:       int(goquery.NodeName(s)[1] - '0'),
			Subheadings: []*models.Heading{},
		})
	})
	return headings, nil
}

// ExtractHeadingTree extracts headings from rendered HTML and nests them
func ExtractHeadingTree(htmlContent string) ([]*models.Heading, error) {
	flat, err := ExtractHeadingsFromHTML(htmlContent)
	if err != nil {
		return nil, err
	}
	return BuildHeadingTree(flat), nil
}
