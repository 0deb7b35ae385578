package utils

import (
	"context"
	"errors"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrContentUnavailable = errors.New("post content unavailable")
	ErrPostNotFound       = errors.New("post not found")
	ErrHeadingNotFound    = errors.New("heading not found")
	ErrDraftSkipped       = errors.New("draft post skipped")
	ErrFrontMatter        = errors.New("invalid front matter")
	ErrParsing            = errors.New("parsing error")    // Wraps specific parsing error (HTML, YAML, JSON, XML)
	ErrFilesystem         = errors.New("filesystem error") // Wraps os/afero errors
	ErrDatabase           = errors.New("database error")   // Wraps badger errors
	ErrMarkdownConversion = errors.New("failed to convert markdown")
	ErrHTMLImport         = errors.New("failed to convert HTML post to markdown")
	ErrStructuredData     = errors.New("structured data failed schema validation")
	ErrConfigValidation   = errors.New("configuration validation error")
)

// CategorizeError maps an error to a predefined category string for logging and the build cache.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrContentUnavailable):
		return "Content_Unavailable"
	case errors.Is(err, ErrPostNotFound):
		return "Content_PostNotFound"
	case errors.Is(err, ErrHeadingNotFound):
		return "Content_HeadingNotFound"
	case errors.Is(err, ErrDraftSkipped):
		return "Content_Draft"
	case errors.Is(err, ErrFrontMatter):
		return "Content_FrontMatter"
	case errors.Is(err, ErrMarkdownConversion):
		return "Content_Markdown"
	case errors.Is(err, ErrHTMLImport):
		return "Content_HTMLImport"
	case errors.Is(err, ErrStructuredData):
		return "Output_StructuredData"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "YAML") {
			return "Content_ParsingYAML"
		}
		if strings.Contains(errMsg, "JSON") {
			return "Content_ParsingJSON"
		}
		if strings.Contains(errMsg, "XML") {
			return "Content_ParsingXML"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// --- Fallback checks for common underlying error types ---
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}
	if errors.Is(err, os.ErrNotExist) {
		return "Filesystem_NotExist"
	}
	if errors.Is(err, os.ErrPermission) {
		return "Filesystem_Permission"
	}

	return "Unknown"
}
