package process

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/folio/pkg/parse"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// importSelectors are tried in order to find the main content of an exported HTML page
var importSelectors = []string{"article", "main", "body"}

// HTMLImporter converts HTML-authored posts to Markdown so they go through the
// same converter as every other post
type HTMLImporter struct {
	siteURL *url.URL
	log     *logrus.Entry
}

// NewHTMLImporter creates an HTMLImporter. Absolute links into siteURL are
// rewritten to site-relative paths during import.
func NewHTMLImporter(siteURL string, log *logrus.Entry) *HTMLImporter {
	u, _ := parse.ParseSiteURL(siteURL)
	return &HTMLImporter{siteURL: u, log: log}
}

// Import extracts the main content of htmlSrc, cleans it and converts it to Markdown
func (im *HTMLImporter) Import(htmlSrc string) (string, error) {
	if strings.TrimSpace(htmlSrc) == "" {
		return "", fmt.Errorf("%w: empty HTML post", utils.ErrContentUnavailable)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrHTMLImport, err)
	}

	var content *goquery.Selection
	for _, sel := range importSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			content = found.Clone()
			break
		}
	}
	if content == nil {
		return "", fmt.Errorf("%w: no article, main or body element", utils.ErrHTMLImport)
	}

	cleanupHTML(content)
	rewritten := im.rewriteSiteLinks(content)
	im.log.Debugf("Rewrote %d site links to relative paths.", rewritten)

	inner, err := content.Html()
	if err != nil {
		return "", fmt.Errorf("%w: serialising content: %w", utils.ErrHTMLImport, err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(inner)
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrMarkdownConversion, err)
	}
	return markdown, nil
}

// cleanupHTML removes elements that would otherwise leak into the Markdown:
// scripts, styles and heading permalink decorations
func cleanupHTML(content *goquery.Selection) {
	content.Find("script, style, noscript").Remove()

	content.Find("a.headerlink").Remove()
	content.Find("a.permalink").Remove()
	content.Find("a[title='Permalink to this heading']").Remove()
	content.Find("a[title='Link to this heading']").Remove()

	content.Find("a").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		if text == "¶" || text == "#" || (text == "" && strings.HasPrefix(href, "#")) {
			s.Remove()
		}
	})
}

// rewriteSiteLinks turns absolute links into the site into root-relative ones
func (im *HTMLImporter) rewriteSiteLinks(content *goquery.Selection) int {
	if im.siteURL == nil {
		return 0
	}
	count := 0
	content.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		linkURL, err := url.Parse(href)
		if err != nil || !parse.SameSite(im.siteURL, linkURL) {
			return
		}
		rel := linkURL.EscapedPath()
		if rel == "" {
			rel = "/"
		}
		if linkURL.RawQuery != "" {
			rel += "?" + linkURL.RawQuery
		}
		if linkURL.Fragment != "" {
			rel += "#" + linkURL.EscapedFragment()
		}
		s.SetAttr("href", rel)
		count++
	})
	return count
}
