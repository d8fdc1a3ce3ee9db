package models

// Template is a parameterized response text owned by the record store.
// Records are immutable per version; the core only reads them.
type Template struct {
	ID                string       `json:"id"            validate:"required"`
	WorkflowType      WorkflowType `json:"workflow_type" validate:"required"`
	Category          string       `json:"category"      validate:"required"`
	Subcategory       string       `json:"subcategory"`
	Content           string       `json:"content"       validate:"required"`
	RequiredVariables []string     `json:"required_variables"`
	OptionalVariables []string     `json:"optional_variables"`
	Active            bool         `json:"active"`

	// RequiredStatus, when non-empty, restricts the template to sessions
	// whose selected status matches it.
	RequiredStatus string `json:"required_status,omitempty"`
}

// Matches reports whether the template applies to the given selection tuple.
// An empty status on either side is a wildcard.
func (t *Template) Matches(workflowType WorkflowType, category, subcategory, status string) bool {
	if t.WorkflowType != workflowType || t.Category != category || t.Subcategory != subcategory {
		return false
	}

	if t.RequiredStatus != "" && status != "" && t.RequiredStatus != status {
		return false
	}

	return true
}

// NeedsInput reports whether the template requires free-form variables,
// which forces the workflow through the INPUT_REQUIRED step.
func (t *Template) NeedsInput() bool {
	return len(t.RequiredVariables) > 0
}
