package models

// WorkflowConfig holds the per-deployment generation settings served by the
// record store: the advertised step count and the option lists backing the
// selection UI and the template lookup functions.
type WorkflowConfig struct {
	TotalSteps int                       `json:"total_steps"`
	Statuses   map[WorkflowType][]Option `json:"statuses"`
	Channels   []Option                  `json:"channels"`
}

// StatusesFor returns the selectable statuses for a workflow type, or nil
// when the type has none configured.
func (c *WorkflowConfig) StatusesFor(workflowType WorkflowType) []Option {
	if c == nil {
		return nil
	}

	return c.Statuses[workflowType]
}
