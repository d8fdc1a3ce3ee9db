package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/replyforge/replyforge/pkg/models"
)

func (e *Engine) evaluate(fieldName string, value any, rule RuleSpec) models.ValidationResult {
	// Every rule but "required" treats an absent value as valid; emptiness
	// is only ever an error for the required rule itself.
	if rule.Type != RuleRequired && isEmpty(value) {
		return models.ValidationResult{IsValid: true}
	}

	switch rule.Type {
	case RuleRequired:
		return e.evaluateRequired(fieldName, value, rule.Options)
	case RuleEmail:
		return e.evaluateEmail(value, rule.Options)
	case RuleURL:
		return e.evaluateURL(value, rule.Options)
	case RuleLength:
		return e.evaluateLength(value, rule.Options)
	case RuleRange:
		return e.evaluateRange(value, rule.Options)
	case RulePattern:
		return e.evaluatePattern(value, rule.Options)
	case RuleDate:
		return e.evaluateDate(value, rule.Options)
	case RuleNumber:
		return e.evaluateNumber(value, rule.Options)
	case RuleChoice:
		return e.evaluateChoice(value, rule.Options)
	case RuleCustom:
		return e.evaluateCustom(value, rule.Options)
	default:
		// Unknown rule kinds pass with a warning so newer rule sets keep
		// working against older engines.
		return models.ValidationResult{
			IsValid:  true,
			Warnings: []string{fmt.Sprintf("unknown validation rule type %q", rule.Type)},
		}
	}
}

func (e *Engine) evaluateRequired(fieldName string, value any, opts RuleOptions) models.ValidationResult {
	if isEmpty(value) {
		return failure(opts.Message, fieldName+" is required")
	}

	return models.ValidationResult{IsValid: true}
}

func (e *Engine) evaluateEmail(value any, opts RuleOptions) models.ValidationResult {
	err := e.checker.Var(toString(value), "email")
	if err != nil {
		return failure(opts.Message, "must be a valid email address")
	}

	return models.ValidationResult{IsValid: true}
}

func (e *Engine) evaluateURL(value any, opts RuleOptions) models.ValidationResult {
	err := e.checker.Var(toString(value), "url")
	if err != nil {
		return failure(opts.Message, "must be a valid absolute URL")
	}

	return models.ValidationResult{IsValid: true}
}

func (e *Engine) evaluateLength(value any, opts RuleOptions) models.ValidationResult {
	length := len([]rune(toString(value)))

	if opts.Min != nil && length < int(*opts.Min) {
		message := opts.MinMessage
		if message == "" {
			message = opts.Message
		}

		return failure(message, fmt.Sprintf("must be at least %d characters", int(*opts.Min)))
	}

	if opts.Max != nil && length > int(*opts.Max) {
		message := opts.MaxMessage
		if message == "" {
			message = opts.Message
		}

		return failure(message, fmt.Sprintf("must be at most %d characters", int(*opts.Max)))
	}

	return models.ValidationResult{IsValid: true}
}

func (e *Engine) evaluateRange(value any, opts RuleOptions) models.ValidationResult {
	number, ok := toFloat(value)
	if !ok {
		return failure(opts.Message, "must be a number")
	}

	if opts.Min != nil && number < *opts.Min {
		message := opts.MinMessage
		if message == "" {
			message = opts.Message
		}

		return failure(message, fmt.Sprintf("must be at least %v", *opts.Min))
	}

	if opts.Max != nil && number > *opts.Max {
		message := opts.MaxMessage
		if message == "" {
			message = opts.Message
		}

		return failure(message, fmt.Sprintf("must be at most %v", *opts.Max))
	}

	return models.ValidationResult{IsValid: true}
}

func (e *Engine) evaluatePattern(value any, opts RuleOptions) models.ValidationResult {
	pattern := opts.Pattern
	if strings.Contains(opts.Flags, "i") {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		// A broken pattern is its own validation failure, distinct from a
		// non-matching value.
		return failure("", fmt.Sprintf("invalid validation pattern %q", opts.Pattern))
	}

	if !re.MatchString(toString(value)) {
		return failure(opts.Message, "does not match the expected format")
	}

	return models.ValidationResult{IsValid: true}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (e *Engine) evaluateDate(value any, opts RuleOptions) models.ValidationResult {
	parsed, ok := toDate(value)
	if !ok {
		return failure(opts.Message, "must be a valid date")
	}

	now := e.now()

	if opts.Future && !parsed.After(now) {
		return failure(opts.FutureMessage, "must be a future date")
	}

	if opts.Past && !parsed.Before(now) {
		return failure(opts.PastMessage, "must be a past date")
	}

	if opts.MinDate != nil && parsed.Before(*opts.MinDate) {
		message := opts.MinMessage
		if message == "" {
			message = opts.Message
		}

		return failure(message, fmt.Sprintf("must not be before %s", opts.MinDate.Format("2006-01-02")))
	}

	if opts.MaxDate != nil && parsed.After(*opts.MaxDate) {
		message := opts.MaxMessage
		if message == "" {
			message = opts.Message
		}

		return failure(message, fmt.Sprintf("must not be after %s", opts.MaxDate.Format("2006-01-02")))
	}

	return models.ValidationResult{IsValid: true}
}

func (e *Engine) evaluateNumber(value any, opts RuleOptions) models.ValidationResult {
	number, ok := toFloat(value)
	if !ok {
		return failure(opts.Message, "must be a number")
	}

	result := models.ValidationResult{IsValid: true}

	if opts.Integer && number != math.Trunc(number) {
		result.Merge(failure(opts.IntegerMessage, "must be an integer"))
	}

	if opts.Positive && number <= 0 {
		result.Merge(failure(opts.PositiveMessage, "must be positive"))
	}

	if opts.Negative && number >= 0 {
		result.Merge(failure(opts.NegativeMessage, "must be negative"))
	}

	return result
}

func (e *Engine) evaluateChoice(value any, opts RuleOptions) models.ValidationResult {
	candidate := toString(value)

	for _, choice := range opts.Choices {
		if candidate == choice {
			return models.ValidationResult{IsValid: true}
		}
	}

	return failure(opts.Message, "must be one of the allowed choices")
}

func (e *Engine) evaluateCustom(value any, opts RuleOptions) models.ValidationResult {
	if opts.Validator != nil {
		return opts.Validator(value)
	}

	if opts.Predicate != nil {
		if opts.Predicate(value) {
			return models.ValidationResult{IsValid: true}
		}

		return failure(opts.Message, "failed custom validation")
	}

	return models.ValidationResult{
		IsValid:  true,
		Warnings: []string{"custom rule has no validator configured"},
	}
}

func failure(message, fallback string) models.ValidationResult {
	if message == "" {
		message = fallback
	}

	return models.ValidationResult{IsValid: false, Errors: []string{message}}
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}

func toDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range dateLayouts {
			parsed, err := time.Parse(layout, strings.TrimSpace(v))
			if err == nil {
				return parsed, true
			}
		}
	}

	return time.Time{}, false
}
