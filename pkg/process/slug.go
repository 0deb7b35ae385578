package process

import (
	"regexp"
	"strings"
)

var nonWordRun = regexp.MustCompile(`[^\w]+`)

// Slugify derives a heading id from its text: lowercase, then every run of
// characters outside [0-9A-Za-z_] collapses to a single '-'. Leading and
// trailing dashes are kept and equal texts give equal ids.
func Slugify(text string) string {
	return nonWordRun.ReplaceAllString(strings.ToLower(text), "-")
}
