package parse

import (
	"encoding/xml"
	"fmt"

	"github.com/Sriram-PR/folio/pkg/utils"
)

// SitemapNamespace is the xmlns of a sitemaps.org urlset
const SitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// --- XML Structs for Sitemaps ---

// XMLURL represents a <url> element in a sitemap
type XMLURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// XMLURLSet represents a <urlset> element in a sitemap
type XMLURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	URLs    []XMLURL `xml:"url"`
}

// ParseURLSet decodes a sitemap urlset document
func ParseURLSet(data []byte) (*XMLURLSet, error) {
	var set XMLURLSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: sitemap XML: %w", utils.ErrParsing, err)
	}
	return &set, nil
}
