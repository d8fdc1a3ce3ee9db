// Package workflow implements the generation session state machine and the
// manager that drives it: type/policy/status selection, variable intake,
// validation and content generation.
package workflow

import (
	"github.com/replyforge/replyforge/pkg/models"
)

// Action is one state-machine input.
type Action string

const (
	ActionSelectType   Action = "selectType"
	ActionSelectPolicy Action = "selectPolicy"
	ActionSelectStatus Action = "selectStatus"
	ActionRequireInput Action = "requireInput"
	ActionGenerate     Action = "generate"
	ActionSubmitInput  Action = "submitInput"
	ActionValidate     Action = "validate"
	ActionComplete     Action = "complete"
)

// transitions is the full state × action table. States listed with no
// actions accept none; every lifecycle status must appear here, since an
// unknown current state degrades to ERROR.
var transitions = map[models.LifecycleStatus]map[Action]models.LifecycleStatus{
	models.StatusInitial: {
		ActionSelectType: models.StatusTypeSelected,
	},
	models.StatusTypeSelected: {
		ActionSelectPolicy: models.StatusPolicySelected,
	},
	models.StatusPolicySelected: {
		ActionSelectStatus: models.StatusStatusSelected,
	},
	models.StatusStatusSelected: {
		ActionRequireInput: models.StatusInputRequired,
		ActionGenerate:     models.StatusGeneration,
	},
	models.StatusInputRequired: {
		ActionSubmitInput: models.StatusValidation,
	},
	models.StatusValidation: {
		ActionValidate: models.StatusGeneration,
	},
	models.StatusGeneration: {
		ActionComplete: models.StatusCompleted,
	},
	models.StatusCompleted: {},
	models.StatusError:     {},
}

// Next returns the successor status for (current, action). An action the
// current status does not list is a no-op returning current; a status
// outside the lifecycle set is the defensive catch-all and yields ERROR.
func Next(current models.LifecycleStatus, action Action) models.LifecycleStatus {
	byAction, known := transitions[current]
	if !known {
		return models.StatusError
	}

	next, ok := byAction[action]
	if !ok {
		return current
	}

	return next
}

// Allows reports whether action causes a real transition from current.
func Allows(current models.LifecycleStatus, action Action) bool {
	byAction, known := transitions[current]
	if !known {
		return false
	}

	_, ok := byAction[action]

	return ok
}
