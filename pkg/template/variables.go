package template

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_]+)*)\s*\}\}`)

// renderVariables substitutes {{name}} and {{a.b.c}} tokens. Missing
// values become the empty string, or a bracketed name in preview mode.
func (e *Engine) renderVariables(content string, vars map[string]any, opts RenderOptions) string {
	return variablePattern.ReplaceAllStringFunc(content, func(token string) string {
		name := variablePattern.FindStringSubmatch(token)[1]

		value, ok := resolvePath(vars, name)
		if !ok || value == nil {
			if opts.Preview {
				return "[" + name + "]"
			}

			return ""
		}

		return stringify(value)
	})
}

// resolvePath walks a dot-path into nested maps. Map keys are matched as
// strings; any missing segment resolves to absent.
func resolvePath(vars map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")

	var current any = vars

	for _, segment := range segments {
		asMap, ok := toStringMap(current)
		if !ok {
			return nil, false
		}

		current, ok = asMap[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func toStringMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[string]string:
		converted := make(map[string]any, len(v))
		for key, item := range v {
			converted[key] = item
		}

		return converted, true
	default:
		return nil, false
	}
}

// stringify renders a resolved value as template output: scalars via
// Sprintf, sequences joined with ", ", anything else JSON-encoded.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = stringify(rv.Index(i).Interface())
		}

		return strings.Join(parts, ", ")
	case reflect.Map, reflect.Struct:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}

		return string(encoded)
	default:
		return fmt.Sprintf("%v", value)
	}
}
