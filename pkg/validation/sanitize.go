package validation

import (
	"regexp"
	"strings"
)

// SanitizeOptions toggle the individual sanitization transforms.
type SanitizeOptions struct {
	Trim               bool `json:"trim"`
	StripTags          bool `json:"strip_tags"`
	EscapeHTML         bool `json:"escape_html"`
	CollapseWhitespace bool `json:"collapse_whitespace"`
	Lowercase          bool `json:"lowercase"`
}

// DefaultSanitizeOptions enables trimming only, matching the engine's
// default treatment of submitted values.
func DefaultSanitizeOptions() SanitizeOptions {
	return SanitizeOptions{Trim: true}
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Sanitize applies the enabled string transforms in a fixed order. It is a
// pure function and a no-op for non-string input. With only Trim enabled
// it is idempotent.
func Sanitize(value any, opts SanitizeOptions) any {
	s, ok := value.(string)
	if !ok {
		return value
	}

	if opts.StripTags {
		s = htmlTagPattern.ReplaceAllString(s, "")
	}

	if opts.EscapeHTML {
		s = htmlEscaper.Replace(s)
	}

	if opts.CollapseWhitespace {
		s = whitespacePattern.ReplaceAllString(s, " ")
	}

	if opts.Trim {
		s = strings.TrimSpace(s)
	}

	if opts.Lowercase {
		s = strings.ToLower(s)
	}

	return s
}
