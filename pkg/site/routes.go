package site

import (
	"net/url"
	"path"
	"strings"

	"github.com/Sriram-PR/folio/pkg/parse"
)

// Site-relative routes of the generated pages
const (
	HomePath  = "/"
	BlogPath  = "/blog/"
	AboutPath = "/about/"
	TOCScript = "/assets/toc.js"
)

// PostPath is the site-relative route of a post page
func PostPath(slug string) string {
	return BlogPath + slug + "/"
}

// PostURL is the canonical absolute URL of a post, without a trailing slash
func PostURL(siteURL, slug string) string {
	return parse.JoinURL(siteURL, "/blog/"+slug)
}

// OutputFile maps a route to the file that serves it under the output directory
func OutputFile(route string) string {
	if strings.HasSuffix(route, "/") {
		return path.Join(strings.TrimPrefix(route, "/"), "index.html")
	}
	return strings.TrimPrefix(route, "/")
}

// ImageURL resolves the structured-data image of a post: the front matter
// image on the site, or the generated Open Graph card for the title.
func ImageURL(siteURL, image, title string) string {
	if image == "" {
		return parse.JoinURL(siteURL, "/og?title="+url.QueryEscape(title))
	}
	if u, ok := parse.ParseSiteURL(image); ok {
		return u.String()
	}
	return parse.JoinURL(siteURL, image)
}
