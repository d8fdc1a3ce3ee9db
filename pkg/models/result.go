package models

import (
	"fmt"
	"strings"
	"time"
)

// ValidationResult is the outcome of running one or more rules over a field.
// Errors and warnings keep the order in which rules were evaluated.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Merge folds other into r, preserving evaluation order.
func (r *ValidationResult) Merge(other ValidationResult) {
	if !other.IsValid {
		r.IsValid = false
	}

	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// GenerationMetadata accompanies every completed generation result.
type GenerationMetadata struct {
	GeneratedAt       string `json:"generatedAt"`
	TemplateUsed      string `json:"templateUsed"`
	WordCount         int    `json:"wordCount"`
	EstimatedReadTime string `json:"estimatedReadTime"`
}

// GenerationResult is the JSON contract consumed by the UI layer.
type GenerationResult struct {
	GeneratedContent string             `json:"generatedContent"`
	Metadata         GenerationMetadata `json:"metadata"`
}

// Average silent reading speed used for the read-time estimate.
const wordsPerMinute = 200

// NewGenerationResult assembles the result payload for rendered content.
func NewGenerationResult(content, templateID string, generatedAt time.Time) GenerationResult {
	words := len(strings.Fields(content))

	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}

	return GenerationResult{
		GeneratedContent: content,
		Metadata: GenerationMetadata{
			GeneratedAt:       generatedAt.UTC().Format(time.RFC3339),
			TemplateUsed:      templateID,
			WordCount:         words,
			EstimatedReadTime: fmt.Sprintf("%d min", minutes),
		},
	}
}
