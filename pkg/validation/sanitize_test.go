package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_TrimIsIdempotent(t *testing.T) {
	opts := DefaultSanitizeOptions()

	inputs := []string{"  hello  ", "hello", "", "  a  b  ", "\t\nx\n"}
	for _, input := range inputs {
		once := Sanitize(input, opts)
		twice := Sanitize(once, opts)
		assert.Equal(t, once, twice, "sanitize(sanitize(%q)) != sanitize(%q)", input, input)
	}
}

func TestSanitize_StripTags(t *testing.T) {
	result := Sanitize("<b>bold</b> text", SanitizeOptions{StripTags: true})
	assert.Equal(t, "bold text", result)
}

func TestSanitize_EscapeHTML(t *testing.T) {
	result := Sanitize(`<a href="x">&'`, SanitizeOptions{EscapeHTML: true})
	assert.Equal(t, "&lt;a href=&quot;x&quot;&gt;&amp;&#39;", result)
}

func TestSanitize_CollapseWhitespace(t *testing.T) {
	result := Sanitize("a  \t b\n\nc", SanitizeOptions{CollapseWhitespace: true})
	assert.Equal(t, "a b c", result)
}

func TestSanitize_Lowercase(t *testing.T) {
	result := Sanitize("MiXeD", SanitizeOptions{Lowercase: true})
	assert.Equal(t, "mixed", result)
}

func TestSanitize_NonStringPassesThrough(t *testing.T) {
	assert.Equal(t, 42, Sanitize(42, DefaultSanitizeOptions()))
	assert.Nil(t, Sanitize(nil, DefaultSanitizeOptions()))
}

func TestSanitize_CombinedTransforms(t *testing.T) {
	result := Sanitize("  <i>Hello   World</i>  ", SanitizeOptions{
		Trim:               true,
		StripTags:          true,
		CollapseWhitespace: true,
		Lowercase:          true,
	})
	assert.Equal(t, "hello world", result)
}
