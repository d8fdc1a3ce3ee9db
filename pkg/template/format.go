package template

import (
	"regexp"
	"strings"
)

// unescapeFormatting reverses the narrow escape set templates are stored
// with: literal \n and \t sequences plus the three HTML entities. This is
// deliberately not general HTML decoding.
var formattingUnescaper = strings.NewReplacer(
	`\n`, "\n",
	`\t`, "\t",
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
)

func unescapeFormatting(content string) string {
	return formattingUnescaper.Replace(content)
}

// PreviewPlaceholder replaces any token the preview passes could not resolve.
const PreviewPlaceholder = "[unresolved]"

var (
	leftoverTokenPattern = regexp.MustCompile(`\{\{[^}]*\}\}`)
	blankRunPattern      = regexp.MustCompile(`\n{4,}`)
)

// previewCleanup finalizes a preview render: leftover {{...}} tokens get a
// fixed placeholder and runs of three or more blank lines collapse to one.
func previewCleanup(content string) string {
	content = leftoverTokenPattern.ReplaceAllString(content, PreviewPlaceholder)

	return blankRunPattern.ReplaceAllString(content, "\n\n")
}
