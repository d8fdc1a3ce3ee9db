package template

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var loopPattern = regexp.MustCompile(`(?s)\{\{#each\s+([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_]+)*)\s*\}\}(.*?)\{\{/each\}\}`)

// renderLoops expands single-level {{#each var}} blocks. The body's
// {{this}}, {{@index}}, {{@first}} and {{@last}} tokens are rebound per
// iteration; no loop state survives an iteration or leaks into another
// {{#each}} block in the same render.
func (e *Engine) renderLoops(content string, vars map[string]any, opts RenderOptions) string {
	return loopPattern.ReplaceAllStringFunc(content, func(block string) string {
		groups := loopPattern.FindStringSubmatch(block)
		name, body := groups[1], groups[2]

		items, ok := resolveSequence(vars, name)
		if !ok {
			if opts.Preview {
				return previewMarker("#each " + name + ": not a list")
			}

			return ""
		}

		var out strings.Builder

		for i, item := range items {
			iteration := body
			iteration = strings.ReplaceAll(iteration, "{{this}}", stringify(item))
			iteration = strings.ReplaceAll(iteration, "{{@index}}", strconv.Itoa(i))
			iteration = strings.ReplaceAll(iteration, "{{@first}}", strconv.FormatBool(i == 0))
			iteration = strings.ReplaceAll(iteration, "{{@last}}", strconv.FormatBool(i == len(items)-1))

			out.WriteString(iteration)
		}

		return out.String()
	})
}

func resolveSequence(vars map[string]any, name string) ([]any, bool) {
	value, ok := resolvePath(vars, name)
	if !ok {
		return nil, false
	}

	return asSequence(value)
}

func asSequence(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}

	return items, true
}
