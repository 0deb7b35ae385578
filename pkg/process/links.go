package process

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/folio/pkg/utils"
)

// BrokenFragmentLinks returns the in-page links ("#id") of a rendered post
// whose target id does not exist in the document. Each missing target is
// reported once, in document order.
func BrokenFragmentLinks(htmlContent string) ([]string, error) {
	if htmlContent == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("%w: HTML link scan: %v", utils.ErrParsing, err)
	}

	ids := make(map[string]struct{})
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		ids[id] = struct{}{}
	})

	var broken []string
	reported := make(map[string]struct{})
	doc.Find("a[href^='#']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		target := strings.TrimPrefix(href, "#")
		if target == "" {
			return // "#" is back-to-top
		}
		if _, ok := ids[target]; ok {
			return
		}
		if _, ok := reported[target]; ok {
			return
		}
		reported[target] = struct{}{}
		broken = append(broken, target)
	})
	return broken, nil
}
