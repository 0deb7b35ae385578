package site

import (
	"fmt"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/Sriram-PR/folio/pkg/parse"
	"github.com/Sriram-PR/folio/pkg/utils"
)

// RobotsTxt returns the robots.txt body: custom when set, otherwise one that
// allows everything and points at the sitemap
func RobotsTxt(siteURL, custom string, withSitemap bool) string {
	if strings.TrimSpace(custom) != "" {
		if !strings.HasSuffix(custom, "\n") {
			custom += "\n"
		}
		return custom
	}
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\n")
	if withSitemap {
		fmt.Fprintf(&b, "\nSitemap: %s\n", parse.JoinURL(siteURL, "/sitemap.xml"))
	}
	return b.String()
}

// DisallowedPaths parses body and returns the paths a generic crawler ("*")
// may not fetch
func DisallowedPaths(body string, paths []string) ([]string, error) {
	data, err := robotstxt.FromString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: robots.txt: %w", utils.ErrParsing, err)
	}
	var blocked []string
	for _, p := range paths {
		if !data.TestAgent(p, "*") {
			blocked = append(blocked, p)
		}
	}
	return blocked, nil
}
