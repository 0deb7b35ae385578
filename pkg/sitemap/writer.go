package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/Sriram-PR/folio/pkg/parse"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// Page is one entry of the generated sitemap
type Page struct {
	Path     string // Site-relative path, e.g. "/blog/hello"
	LastMod  string // YYYY-MM-DD, optional
	Priority string // optional
}

// Build renders a sitemaps.org urlset for pages under siteURL. Entries are
// canonicalized with parse.NormalizeURL, deduplicated and sorted by location.
func Build(siteURL string, pages []Page) ([]byte, error) {
	if _, ok := parse.ParseSiteURL(siteURL); !ok {
		return nil, fmt.Errorf("%w: sitemap base '%s' is not an absolute URL", utils.ErrParsing, siteURL)
	}

	seen := make(map[string]int, len(pages))
	set := parse.XMLURLSet{Xmlns: parse.SitemapNamespace}
	for _, p := range pages {
		loc := Loc(siteURL, p.Path)
		if idx, dup := seen[loc]; dup {
			// Keep the most recent lastmod for duplicates
			if p.LastMod > set.URLs[idx].LastMod {
				set.URLs[idx].LastMod = p.LastMod
			}
			continue
		}
		seen[loc] = len(set.URLs)
		set.URLs = append(set.URLs, parse.XMLURL{Loc: loc, LastMod: p.LastMod, Priority: p.Priority})
	}
	sort.SliceStable(set.URLs, func(i, j int) bool { return set.URLs[i].Loc < set.URLs[j].Loc })

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("%w: encoding sitemap XML: %w", utils.ErrParsing, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Loc returns the canonical absolute URL of a site-relative path
func Loc(siteURL, path string) string {
	u, ok := parse.ParseSiteURL(parse.JoinURL(siteURL, path))
	if !ok {
		return parse.JoinURL(siteURL, path)
	}
	return parse.NormalizeURL(u)
}
