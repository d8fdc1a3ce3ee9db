package validation

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/replyforge/replyforge/pkg/models"
)

// Engine validates field values against rule lists. The per-field default
// registry is explicit per-instance state, not a process-wide global.
type Engine struct {
	fieldRules map[string][]RuleSpec
	checker    *validator.Validate
	logger     *slog.Logger

	now func() time.Time
}

// NewEngine creates a validation engine with an empty field-rule registry.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		fieldRules: make(map[string][]RuleSpec),
		checker:    validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger.With("module", "validation"),
		now:        time.Now,
	}
}

// AddFieldRules registers (or overwrites) the default rule list for a
// field name. Each spec is structurally checked at registration so a
// malformed rule fails loudly here rather than silently at evaluation.
func (e *Engine) AddFieldRules(fieldName string, rules ...RuleSpec) error {
	for i, rule := range rules {
		err := e.checker.Struct(rule)
		if err != nil {
			return fmt.Errorf("invalid rule %d for field %s: %w", i, fieldName, err)
		}
	}

	e.fieldRules[fieldName] = rules

	return nil
}

// Validate runs the caller-supplied rules and then the field's registered
// default rules over value. Errors and warnings concatenate in evaluation
// order; the field fails if any rule fails.
func (e *Engine) Validate(fieldName string, value any, rules ...RuleSpec) models.ValidationResult {
	result := models.ValidationResult{IsValid: true}

	applied := make([]RuleSpec, 0, len(rules)+len(e.fieldRules[fieldName]))
	applied = append(applied, rules...)
	applied = append(applied, e.fieldRules[fieldName]...)

	for _, rule := range applied {
		result.Merge(e.evaluate(fieldName, value, rule))
	}

	return result
}

// MultiResult aggregates validation over a whole submitted record. Errors
// and Warnings only hold entries for fields that produced any.
type MultiResult struct {
	IsValid  bool                `json:"is_valid"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Warnings map[string][]string `json:"warnings,omitempty"`
}

// ValidateMultiple validates every key of record, using perFieldRules when
// present and the registered defaults otherwise.
func (e *Engine) ValidateMultiple(record map[string]any, perFieldRules map[string][]RuleSpec) MultiResult {
	result := MultiResult{
		IsValid:  true,
		Errors:   make(map[string][]string),
		Warnings: make(map[string][]string),
	}

	for fieldName, value := range record {
		fieldResult := e.Validate(fieldName, value, perFieldRules[fieldName]...)

		if !fieldResult.IsValid {
			result.IsValid = false
			result.Errors[fieldName] = fieldResult.Errors
		}

		if len(fieldResult.Warnings) > 0 {
			result.Warnings[fieldName] = fieldResult.Warnings
		}
	}

	return result
}

// isEmpty reports whether value counts as absent for the empty-value
// short-circuit: nil, whitespace-only strings and empty collections.
// Zero numbers and false are present values.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
