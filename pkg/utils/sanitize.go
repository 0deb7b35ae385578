package utils

import (
	"regexp"
	"strings"
)

// --- Filename Sanitization ---
var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`) // Characters invalid in Windows/Unix filenames
var consecutiveUnderscores = regexp.MustCompile(`_+`)
const maxFilenameLength = 100

// SanitizeFilename cleans a string to be safe for use as a path component.
// Used for output directories derived from post slugs and for the cache directory name.
func SanitizeFilename(name string) string {
	sanitized := invalidFilenameChars.ReplaceAllString(name, "_")
	sanitized = consecutiveUnderscores.ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "_ ")

	if len(sanitized) > maxFilenameLength {
		sanitized = sanitized[:maxFilenameLength]
		sanitized = strings.Trim(sanitized, "_ ")
	}

	if sanitized == "" || sanitized == "." || sanitized == ".." {
		sanitized = "untitled"
	}
	return sanitized
}
