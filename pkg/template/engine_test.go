package template

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/models"
)

type stubOptions struct{}

func (stubOptions) ChannelOptions() []models.Option {
	return []models.Option{{Value: "email", Label: "Email"}, {Value: "phone", Label: "Phone"}}
}

func (stubOptions) StatusOptions(workflowType models.WorkflowType) []models.Option {
	if workflowType == models.WorkflowTypeMisreview {
		return []models.Option{{Value: "open", Label: "Open"}}
	}

	return nil
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	return NewEngine(slog.Default(), Config{Options: stubOptions{}})
}

func TestRender_VariableSubstitutionRoundTrip(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("Hello {{name}}, your case {{caseId}} is ready.", map[string]any{
		"name":   "Dana",
		"caseId": 42,
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Hello Dana, your case 42 is ready.", out)
}

func TestRender_MissingVariablesBecomeEmpty(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("a{{missing}}b", map[string]any{}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestRender_MissingVariablesMarkedInPreview(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("a {{missing}} b", nil, RenderOptions{Preview: true})
	require.NoError(t, err)
	assert.Equal(t, "a [missing] b", out)
}

func TestRender_DotPathResolution(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{user.contact.email}}", map[string]any{
		"user": map[string]any{
			"contact": map[string]any{"email": "dana@example.com"},
		},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", out)
}

func TestRender_NonScalarStringification(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{tags}} | {{meta}}", map[string]any{
		"tags": []any{"a", "b", "c"},
		"meta": map[string]any{"k": "v"},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Equal(t, `a, b, c | {"k":"v"}`, out)
}

func TestRender_ConditionalTruthiness(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{#if x}}A{{/if}}", map[string]any{}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "", out, "unset condition drops the block")

	out, err = e.Render("{{#if x}}A{{/if}}", map[string]any{"x": true}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "A", out)

	out, err = e.Render("{{#if x}}A{{/if}}", map[string]any{"x": ""}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "", out, "empty string is falsy")
}

func TestRender_ConditionalComparisons(t *testing.T) {
	e := newTestEngine(t)

	vars := map[string]any{"count": 3, "status": "open"}

	cases := []struct {
		template string
		want     string
	}{
		{"{{#if count > 2}}yes{{/if}}", "yes"},
		{"{{#if count >= 3}}yes{{/if}}", "yes"},
		{"{{#if count < 2}}yes{{/if}}", ""},
		{"{{#if status == 'open'}}yes{{/if}}", "yes"},
		{"{{#if status != 'closed'}}yes{{/if}}", "yes"},
		{"{{#if missing == ''}}yes{{/if}}", "yes", // absent operands compare as empty
		},
	}

	for _, tc := range cases {
		out, err := e.Render(tc.template, vars, RenderOptions{})
		require.NoError(t, err)
		assert.Equal(t, tc.want, out, "template %s", tc.template)
	}
}

func TestRender_ConditionalBodyStillProcessed(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{#if ok}}Hello {{name}}{{/if}}", map[string]any{
		"ok":   true,
		"name": "Dana",
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Hello Dana", out, "later passes see conditional output")
}

func TestRender_LoopBlock(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{#each items}}{{this}}-{{@index}}{{/each}}", map[string]any{
		"items": []any{"a", "b"},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Equal(t, "a-0b-1", out)
}

func TestRender_LoopFirstLastMarkers(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{#each items}}[{{@first}}/{{@last}}]{{/each}}", map[string]any{
		"items": []string{"x", "y", "z"},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Equal(t, "[true/false][false/false][false/true]", out)
}

func TestRender_TwoLoopsShareNoState(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{#each a}}{{@index}}{{/each}}|{{#each b}}{{@index}}{{/each}}", map[string]any{
		"a": []any{"x", "y"},
		"b": []any{"z"},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Equal(t, "01|0", out)
}

func TestRender_LoopOverNonSequence(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{#each items}}x{{/each}}", map[string]any{"items": 7}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = e.Render("{{#each items}}x{{/each}}", map[string]any{"items": 7}, RenderOptions{Preview: true})
	require.NoError(t, err)
	assert.Contains(t, out, "#each items")
}

func TestRender_FunctionCalls(t *testing.T) {
	e := newTestEngine(t)

	vars := map[string]any{"name": "dana", "long": "abcdefghij"}

	out, err := e.Render("{{upper(name)}}", vars, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "DANA", out)

	out, err = e.Render("{{capitalize(name)}}", vars, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Dana", out)

	out, err = e.Render("{{truncate(long, 4)}}", vars, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "abcd…", out)

	out, err = e.Render("{{default(missing, 'fallback')}}", vars, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", out)

	out, err = e.Render("{{join(items, ' / ')}}", map[string]any{"items": []any{"a", "b"}}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a / b", out)
}

func TestRender_FormatNumberLocaleAware(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{formatNumber(n)}}", map[string]any{"n": 1234567.5}, RenderOptions{Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "1,234,567.5", out)
}

func TestRender_FormatDate(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{formatDate(d, 'short')}}", map[string]any{"d": "2026-03-05T10:00:00Z"}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", out)

	out, err = e.Render("{{formatDate(d)}}", map[string]any{"d": "2026-03-05"}, RenderOptions{Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "March 5, 2026", out)
}

func TestRender_DomainLookupFunctions(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("{{channelOptions()}}", nil, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Email, Phone", out)

	out, err = e.Render("{{statusOptions('misreview')}}", nil, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Open", out)
}

func TestRender_UnknownFunctionDegrades(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("a{{mystery(1)}}b", nil, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)

	out, err = e.Render("a{{mystery(1)}}b", nil, RenderOptions{Preview: true})
	require.NoError(t, err)
	assert.Contains(t, out, "unknown function mystery")
}

func TestRender_PanickingFunctionIsContained(t *testing.T) {
	e := newTestEngine(t)
	e.RegisterFunc("boom", func([]any, RenderOptions) (string, error) {
		panic("kaboom")
	})

	out, err := e.Render("a{{boom()}}b", nil, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestRender_FormattingUnescape(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render(`line1\nline2\t&lt;tag&gt; &amp; done`, nil, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\t<tag> & done", out)
}

func TestRender_PreviewCleanup(t *testing.T) {
	e := newTestEngine(t)

	out, err := e.Render("a\n\n\n\n\nb {{#broken}}", nil, RenderOptions{Preview: true})
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb "+PreviewPlaceholder, out)
}

func TestRender_EmptyContent(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Render("", nil, RenderOptions{})
	assert.ErrorIs(t, err, ErrEmptyContent)

	out, err := e.Render("", nil, RenderOptions{Preview: true})
	require.NoError(t, err)
	assert.NotEmpty(t, out, "preview renders a marker instead of failing")
}

func TestValidateTemplate(t *testing.T) {
	e := newTestEngine(t)

	result := e.ValidateTemplate("Hello {{name}}, {{#if x}}ok{{/if}}")
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)

	result = e.ValidateTemplate("{{#if x}}never closed")
	assert.False(t, result.IsValid)

	result = e.ValidateTemplate("{{#each items}}a{{/each}}{{/each}}")
	assert.False(t, result.IsValid)

	result = e.ValidateTemplate("{{broken")
	assert.False(t, result.IsValid)

	result = e.ValidateTemplate("{{mystery(1)}}")
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "mystery")
}
