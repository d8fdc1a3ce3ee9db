// Package validation implements rule-based field validation with a named
// rule registry, per-field default rules and string sanitization.
package validation

import (
	"time"

	"github.com/replyforge/replyforge/pkg/models"
)

// RuleKind names a built-in validation rule.
type RuleKind string

const (
	RuleRequired RuleKind = "required"
	RuleEmail    RuleKind = "email"
	RuleURL      RuleKind = "url"
	RuleLength   RuleKind = "length"
	RuleRange    RuleKind = "range"
	RulePattern  RuleKind = "pattern"
	RuleDate     RuleKind = "date"
	RuleNumber   RuleKind = "number"
	RuleChoice   RuleKind = "choice"
	RuleCustom   RuleKind = "custom"
)

// PredicateFunc is a boolean custom validator; its result is wrapped into
// a full ValidationResult.
type PredicateFunc func(value any) bool

// ResultFunc is a rich custom validator; its result is passed through unchanged.
type ResultFunc func(value any) models.ValidationResult

// RuleOptions carries the parameters of a rule. Which fields apply depends
// on the rule kind; unused fields are ignored.
type RuleOptions struct {
	Message    string `json:"message,omitempty"`
	MinMessage string `json:"min_message,omitempty"`
	MaxMessage string `json:"max_message,omitempty"`

	// Numeric or length bounds, inclusive. Either side may be absent.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// Pattern rule.
	Pattern string `json:"pattern,omitempty"`
	Flags   string `json:"flags,omitempty"`

	// Date rule.
	Future        bool       `json:"future,omitempty"`
	Past          bool       `json:"past,omitempty"`
	MinDate       *time.Time `json:"min_date,omitempty"`
	MaxDate       *time.Time `json:"max_date,omitempty"`
	FutureMessage string     `json:"future_message,omitempty"`
	PastMessage   string     `json:"past_message,omitempty"`

	// Number rule sub-checks, each independent.
	Integer         bool   `json:"integer,omitempty"`
	Positive        bool   `json:"positive,omitempty"`
	Negative        bool   `json:"negative,omitempty"`
	IntegerMessage  string `json:"integer_message,omitempty"`
	PositiveMessage string `json:"positive_message,omitempty"`
	NegativeMessage string `json:"negative_message,omitempty"`

	// Choice rule.
	Choices []string `json:"choices,omitempty"`

	// Custom rule. Exactly one of the two should be set.
	Predicate PredicateFunc `json:"-"`
	Validator ResultFunc    `json:"-"`
}

// RuleSpec is the tagged union of a rule kind and its options, validated
// once at registration time.
type RuleSpec struct {
	Type    RuleKind    `json:"type" validate:"required"`
	Options RuleOptions `json:"options"`
}

// Rule builds an options-less rule spec from a bare kind.
func Rule(kind RuleKind) RuleSpec {
	return RuleSpec{Type: kind}
}
