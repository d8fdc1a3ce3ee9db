package template

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Blocks are single-level: the scan pairs each {{#if}} with the nearest
// {{/if}}. Nesting is not part of the grammar.
var conditionalPattern = regexp.MustCompile(`(?s)\{\{#if\s+([^}]+?)\s*\}\}(.*?)\{\{/if\}\}`)

var comparisonOperators = []string{"==", "!=", ">=", "<=", ">", "<"}

func (e *Engine) renderConditionals(content string, vars map[string]any, opts RenderOptions) string {
	return conditionalPattern.ReplaceAllStringFunc(content, func(block string) string {
		groups := conditionalPattern.FindStringSubmatch(block)
		expr, body := groups[1], groups[2]

		keep, err := evalCondition(expr, vars)
		if err != nil {
			if opts.Preview {
				return previewMarker(fmt.Sprintf("#if %s: %v", expr, err))
			}

			return ""
		}

		if keep {
			return body
		}

		return ""
	})
}

// evalCondition evaluates an #if expression: the truthiness of a resolved
// variable, or one binary comparison between two operands. Missing
// operands compare as empty rather than erroring.
func evalCondition(expr string, vars map[string]any) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false, errors.New("empty condition")
	}

	if value, ok := resolvePath(vars, expr); ok {
		return truthy(value), nil
	}

	for _, op := range comparisonOperators {
		idx := strings.Index(expr, op)
		if idx < 0 {
			continue
		}

		left := resolveOperand(strings.TrimSpace(expr[:idx]), vars)
		right := resolveOperand(strings.TrimSpace(expr[idx+len(op):]), vars)

		return compare(left, right, op), nil
	}

	// Not a known variable and not a comparison: a falsy expression, by
	// the engine's missing-means-false rule.
	if isIdentifierPath(expr) {
		return false, nil
	}

	return false, fmt.Errorf("unparseable condition %q", expr)
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_]+)*$`)

func isIdentifierPath(expr string) bool {
	return identifierPattern.MatchString(expr)
}

// resolveOperand interprets a comparison side: a quoted string, numeric or
// boolean literal, or a variable reference (missing references resolve to nil).
func resolveOperand(token string, vars map[string]any) any {
	if len(token) >= 2 {
		if (token[0] == '\'' && token[len(token)-1] == '\'') ||
			(token[0] == '"' && token[len(token)-1] == '"') {
			return token[1 : len(token)-1]
		}
	}

	if number, err := strconv.ParseFloat(token, 64); err == nil {
		return number
	}

	if token == "true" {
		return true
	}

	if token == "false" {
		return false
	}

	value, _ := resolvePath(vars, token)

	return value
}

func compare(left, right any, op string) bool {
	leftNum, leftOK := operandFloat(left)
	rightNum, rightOK := operandFloat(right)

	if leftOK && rightOK {
		switch op {
		case "==":
			return leftNum == rightNum
		case "!=":
			return leftNum != rightNum
		case ">":
			return leftNum > rightNum
		case "<":
			return leftNum < rightNum
		case ">=":
			return leftNum >= rightNum
		case "<=":
			return leftNum <= rightNum
		}
	}

	leftStr := operandString(left)
	rightStr := operandString(right)

	switch op {
	case "==":
		return leftStr == rightStr
	case "!=":
		return leftStr != rightStr
	case ">":
		return leftStr > rightStr
	case "<":
		return leftStr < rightStr
	case ">=":
		return leftStr >= rightStr
	case "<=":
		return leftStr <= rightStr
	}

	return false
}

func operandFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}

func operandString(value any) string {
	if value == nil {
		return ""
	}

	return stringify(value)
}

// truthy maps a resolved value to its conditional weight: nil, false,
// empty strings, zero numbers and empty collections are false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "false"
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
