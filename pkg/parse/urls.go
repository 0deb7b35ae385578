package parse

import (
	"net"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL for canonical links and comparison.
// It lowercases the scheme and host, removes default ports (80 for http, 443 for https), removes trailing slashes from paths (unless root "/"), ensures empty path becomes "/", and removes fragments and query strings
// Does not modify the input *url.URL
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = canonicalHost(normalized.Scheme, normalized.Host)

	if normalized.Path == "" {
		normalized.Path = "/"
	} else if len(normalized.Path) > 1 && strings.HasSuffix(normalized.Path, "/") {
		normalized.Path = strings.TrimRight(normalized.Path, "/")
		if normalized.Path == "" {
			normalized.Path = "/"
		}
	}
	normalized.RawPath = ""

	normalized.Fragment = ""
	normalized.RawFragment = ""
	normalized.RawQuery = ""

	return normalized.String()
}

// canonicalHost lowercases host and drops the scheme's default port
func canonicalHost(scheme, host string) string {
	host = strings.ToLower(host)
	h, port, err := net.SplitHostPort(host)
	if err == nil {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			return h
		}
	}
	return host
}

// ParseSiteURL parses an absolute http(s) URL. ok is false for anything else.
func ParseSiteURL(raw string) (u *url.URL, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}
	return u, true
}

// SameSite reports whether link is an absolute URL on site's host. Case, scheme
// and default ports are ignored.
func SameSite(site, link *url.URL) bool {
	if site == nil || link == nil || !link.IsAbs() {
		return false
	}
	return canonicalHost(strings.ToLower(site.Scheme), site.Host) == canonicalHost(strings.ToLower(link.Scheme), link.Host)
}

// JoinURL appends a site-relative path to base. base is expected without a
// trailing slash; p gets a leading slash if it lacks one.
func JoinURL(base, p string) string {
	base = strings.TrimRight(base, "/")
	if p == "" || p == "/" {
		return base + "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}
