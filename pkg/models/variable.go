package models

// VariableType is the semantic type of a template input slot.
type VariableType string

const (
	VariableTypeText   VariableType = "text"
	VariableTypeEmail  VariableType = "email"
	VariableTypeURL    VariableType = "url"
	VariableTypeNumber VariableType = "number"
	VariableTypeDate   VariableType = "date"
	VariableTypeChoice VariableType = "choice"
	VariableTypeCustom VariableType = "custom"
)

// Option is one selectable value for a choice-like variable.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// VariableDefinition describes a named, typed input slot consumed by a
// template. Read-only input to the validation and template engines.
type VariableDefinition struct {
	Name         string       `json:"name"          validate:"required"`
	DisplayName  string       `json:"display_name"`
	Type         VariableType `json:"type"`
	Required     bool         `json:"required"`
	DefaultValue string       `json:"default_value,omitempty"`
	Options      []Option     `json:"options,omitempty"`
}

// PolicyCategory is one node of the hierarchical category list served to
// the selection step.
type PolicyCategory struct {
	ID           string            `json:"id"`
	Label        string            `json:"label"`
	WorkflowType WorkflowType      `json:"workflow_type"`
	Children     []*PolicyCategory `json:"children,omitempty"`
}

// TemplateVariables is the required/optional variable-name split for a template.
type TemplateVariables struct {
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}
