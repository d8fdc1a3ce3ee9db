package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/replyforge/replyforge/pkg/models"
)

// Func is one template function. Args arrive resolved: literals as their
// parsed values, variable references as looked-up values (nil if absent).
type Func func(args []any, opts RenderOptions) (string, error)

var functionPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\(([^)]*)\)\s*\}\}`)

// renderFunctions evaluates {{fn(arg, ...)}} tokens. Unknown functions and
// function failures degrade to empty output, or to an inline marker in
// preview mode; they never abort the render.
func (e *Engine) renderFunctions(content string, vars map[string]any, opts RenderOptions) string {
	return functionPattern.ReplaceAllStringFunc(content, func(token string) string {
		groups := functionPattern.FindStringSubmatch(token)
		name, rawArgs := groups[1], groups[2]

		fn, ok := e.functions[name]
		if !ok {
			if opts.Preview {
				return previewMarker("unknown function " + name)
			}

			return ""
		}

		args := make([]any, 0)

		for _, raw := range splitArgs(rawArgs) {
			args = append(args, resolveOperand(raw, vars))
		}

		result, err := e.callFunc(fn, name, args, opts)
		if err != nil {
			if opts.Preview {
				return previewMarker(fmt.Sprintf("%s: %v", name, err))
			}

			return ""
		}

		return result
	})
}

// callFunc isolates a function invocation so a panicking extension cannot
// take down the render.
func (e *Engine) callFunc(fn Func, name string, args []any, opts RenderOptions) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Template function panicked", "function", name, "panic", r)

			err = fmt.Errorf("function %s panicked", name)
		}
	}()

	return fn(args, opts)
}

// splitArgs splits a raw argument list on commas outside quotes.
func splitArgs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var (
		args    []string
		current strings.Builder
		quote   rune
	)

	for _, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}

			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r

			current.WriteRune(r)
		case r == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	args = append(args, strings.TrimSpace(current.String()))

	return args
}

func registerBuiltins(e *Engine, options OptionSource) {
	e.RegisterFunc("formatDate", fnFormatDate)
	e.RegisterFunc("formatNumber", fnFormatNumber)
	e.RegisterFunc("upper", fnUpper)
	e.RegisterFunc("lower", fnLower)
	e.RegisterFunc("capitalize", fnCapitalize)
	e.RegisterFunc("truncate", fnTruncate)
	e.RegisterFunc("default", fnDefault)
	e.RegisterFunc("join", fnJoin)

	e.RegisterFunc("channelOptions", func(_ []any, _ RenderOptions) (string, error) {
		if options == nil {
			return "", nil
		}

		return joinOptionLabels(options.ChannelOptions()), nil
	})

	e.RegisterFunc("statusOptions", func(args []any, _ RenderOptions) (string, error) {
		if options == nil {
			return "", nil
		}

		if len(args) < 1 {
			return "", fmt.Errorf("statusOptions requires a workflow type")
		}

		workflowType := models.WorkflowType(argString(args[0]))

		return joinOptionLabels(options.StatusOptions(workflowType)), nil
	})
}

func joinOptionLabels(opts []models.Option) string {
	labels := make([]string, len(opts))
	for i, opt := range opts {
		labels[i] = opt.Label
	}

	return strings.Join(labels, ", ")
}

// localeDateLayouts maps locale prefixes to their long date layout. The
// fallback is day-first, which covers most non-US locales.
var localeDateLayouts = map[string]string{
	"en": "January 2, 2006",
	"de": "2. January 2006",
}

func fnFormatDate(args []any, opts RenderOptions) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("formatDate requires a date argument")
	}

	parsed, ok := argDate(args[0])
	if !ok {
		return "", fmt.Errorf("formatDate: %q is not a date", argString(args[0]))
	}

	layout := ""
	if len(args) > 1 {
		layout = argString(args[1])
	}

	switch layout {
	case "", "long":
		base := language.Make(opts.Locale)
		tag, _ := base.Base()

		localeLayout, ok := localeDateLayouts[tag.String()]
		if !ok {
			localeLayout = "2 January 2006"
		}

		return parsed.Format(localeLayout), nil
	case "short":
		return parsed.Format("2006-01-02"), nil
	default:
		return parsed.Format(layout), nil
	}
}

func fnFormatNumber(args []any, opts RenderOptions) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("formatNumber requires a number argument")
	}

	value, ok := operandFloat(args[0])
	if !ok {
		return "", fmt.Errorf("formatNumber: %q is not a number", argString(args[0]))
	}

	printer := message.NewPrinter(language.Make(opts.Locale))

	return printer.Sprint(number.Decimal(value)), nil
}

func fnUpper(args []any, _ RenderOptions) (string, error) {
	if len(args) < 1 {
		return "", nil
	}

	return strings.ToUpper(argString(args[0])), nil
}

func fnLower(args []any, _ RenderOptions) (string, error) {
	if len(args) < 1 {
		return "", nil
	}

	return strings.ToLower(argString(args[0])), nil
}

func fnCapitalize(args []any, _ RenderOptions) (string, error) {
	if len(args) < 1 {
		return "", nil
	}

	runes := []rune(strings.ToLower(argString(args[0])))
	if len(runes) == 0 {
		return "", nil
	}

	runes[0] = unicode.ToUpper(runes[0])

	return string(runes), nil
}

func fnTruncate(args []any, _ RenderOptions) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("truncate requires a value and a length")
	}

	limit, ok := operandFloat(args[1])
	if !ok || limit < 0 {
		return "", fmt.Errorf("truncate: invalid length")
	}

	runes := []rune(argString(args[0]))
	if len(runes) <= int(limit) {
		return string(runes), nil
	}

	return string(runes[:int(limit)]) + "…", nil
}

func fnDefault(args []any, _ RenderOptions) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("default requires a value and a fallback")
	}

	if args[0] == nil || argString(args[0]) == "" {
		return argString(args[1]), nil
	}

	return argString(args[0]), nil
}

func fnJoin(args []any, _ RenderOptions) (string, error) {
	if len(args) < 1 {
		return "", nil
	}

	separator := ", "
	if len(args) > 1 {
		separator = argString(args[1])
	}

	items, ok := asSequence(args[0])
	if !ok {
		return argString(args[0]), nil
	}

	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = stringify(item)
	}

	return strings.Join(parts, separator), nil
}

func argString(value any) string {
	if value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}

	return stringify(value)
}

func argDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			parsed, err := time.Parse(layout, v)
			if err == nil {
				return parsed, true
			}
		}
	}

	return time.Time{}, false
}
