package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/cache"
	"github.com/replyforge/replyforge/pkg/eventbus"
	"github.com/replyforge/replyforge/pkg/events"
	"github.com/replyforge/replyforge/pkg/models"
	"github.com/replyforge/replyforge/pkg/persistence"
	"github.com/replyforge/replyforge/pkg/store"
	"github.com/replyforge/replyforge/pkg/template"
	"github.com/replyforge/replyforge/pkg/validation"
)

// Completed generation results stay cached per subject so a page reload
// does not re-render.
const generationResultTTL = 15 * time.Minute

// Manager drives generation sessions through the state machine. It is
// stateless between calls: every operation loads the session, mutates it,
// persists it and returns a client-safe projection.
type Manager struct {
	states    persistence.StateRepository
	records   store.RecordStore
	templates *template.Engine
	checker   *validation.Engine
	cache     *cache.TieredCache
	recorder  eventbus.Recorder
	logger    *slog.Logger

	now func() time.Time
}

// NewManager wires a workflow manager from its collaborators.
func NewManager(
	states persistence.StateRepository,
	records store.RecordStore,
	templates *template.Engine,
	checker *validation.Engine,
	tiered *cache.TieredCache,
	recorder eventbus.Recorder,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		states:    states,
		records:   records,
		templates: templates,
		checker:   checker,
		cache:     tiered,
		recorder:  recorder,
		logger:    logger.With("module", "workflow"),
		now:       time.Now,
	}
}

// Initialize creates a fresh session at INITIAL, step 1. An empty
// workflowID gets a generated one; an existing session under the same ID is
// reset.
func (m *Manager) Initialize(ctx context.Context, workflowID, ownerID, locale string) (models.Projection, error) {
	if workflowID == "" {
		workflowID = uuid.New().String()
	}

	config, err := m.records.GetWorkflowConfig(ctx)
	if err != nil {
		return models.Projection{}, m.fail(ctx, "Initialize", workflowID,
			models.NewStateError("Initialize", workflowID, err))
	}

	state := &models.WorkflowState{
		ID:         workflowID,
		StepIndex:  1,
		TotalSteps: config.TotalSteps,
		Status:     models.StatusInitial,
		OwnerID:    ownerID,
		Locale:     locale,
	}

	err = m.states.Save(ctx, state)
	if err != nil {
		return models.Projection{}, m.fail(ctx, "Initialize", workflowID,
			models.NewStateError("Initialize", workflowID, err))
	}

	return state.Project(), nil
}

// SetWorkflowType records the session's review type. The type set is
// closed and a session's type is immutable once chosen.
func (m *Manager) SetWorkflowType(ctx context.Context, workflowID string, workflowType models.WorkflowType) (models.Projection, error) {
	const op = "SetWorkflowType"

	state, err := m.loadState(ctx, op, workflowID)
	if err != nil {
		return models.Projection{}, m.fail(ctx, op, workflowID, err)
	}

	if !workflowType.IsValid() {
		return models.Projection{}, m.fail(ctx, op, workflowID, models.NewValidationError(op,
			map[string][]string{"workflowType": {fmt.Sprintf("unknown workflow type %q", workflowType)}}))
	}

	if state.Data.WorkflowType != "" && state.Data.WorkflowType != workflowType {
		return models.Projection{}, m.fail(ctx, op, workflowID,
			models.NewStateError(op, workflowID, models.ErrWorkflowTypeImmutable))
	}

	state.Status = Next(state.Status, ActionSelectType)
	state.Data.WorkflowType = workflowType

	return m.persist(ctx, op, state)
}

// SetPolicySelection records the policy category and subcategory.
func (m *Manager) SetPolicySelection(ctx context.Context, workflowID, category, subcategory string) (models.Projection, error) {
	const op = "SetPolicySelection"

	state, err := m.loadState(ctx, op, workflowID)
	if err != nil {
		return models.Projection{}, m.fail(ctx, op, workflowID, err)
	}

	if category == "" {
		return models.Projection{}, m.fail(ctx, op, workflowID, models.NewValidationError(op,
			map[string][]string{"category": {"category is required"}}))
	}

	state.Status = Next(state.Status, ActionSelectPolicy)
	state.Data.Category = category
	state.Data.Subcategory = subcategory

	return m.persist(ctx, op, state)
}

// SetStatus records the review status, resolves the template for the full
// selection tuple and branches: templates needing free-form input park at
// INPUT_REQUIRED, the rest go straight to GENERATION.
func (m *Manager) SetStatus(ctx context.Context, workflowID, status string) (models.Projection, error) {
	const op = "SetStatus"

	state, err := m.loadState(ctx, op, workflowID)
	if err != nil {
		return models.Projection{}, m.fail(ctx, op, workflowID, err)
	}

	matched, err := m.records.FindTemplate(ctx, state.Data.WorkflowType, state.Data.Category, state.Data.Subcategory, status)
	if err != nil {
		return models.Projection{}, m.fail(ctx, op, workflowID, err)
	}

	state.Status = Next(state.Status, ActionSelectStatus)
	state.Data.Status = status
	state.Data.TemplateID = matched.ID

	if matched.NeedsInput() {
		state.Status = Next(state.Status, ActionRequireInput)
	} else {
		state.Status = Next(state.Status, ActionGenerate)
	}

	return m.persist(ctx, op, state)
}

// SetTemplateVariables submits the free-form variable values. Every
// required variable of the selected template runs through the validation
// engine; any failure fails the whole operation and the session stays at
// INPUT_REQUIRED.
func (m *Manager) SetTemplateVariables(ctx context.Context, workflowID string, variables map[string]any) (models.Projection, error) {
	const op = "SetTemplateVariables"

	state, err := m.loadState(ctx, op, workflowID)
	if err != nil {
		return models.Projection{}, m.fail(ctx, op, workflowID, err)
	}

	if state.Data.TemplateID == "" {
		return models.Projection{}, m.fail(ctx, op, workflowID,
			models.NewStateError(op, workflowID, errors.New("no template selected")))
	}

	templateVars, err := m.records.GetTemplateVariables(ctx, state.Data.TemplateID)
	if err != nil {
		return models.Projection{}, m.fail(ctx, op, workflowID, err)
	}

	fieldErrors := map[string][]string{}

	for _, name := range templateVars.Required {
		result := m.checker.Validate(name, variables[name], m.rulesFor(ctx, name)...)
		if !result.IsValid {
			fieldErrors[name] = result.Errors
		}
	}

	if len(fieldErrors) > 0 {
		return models.Projection{}, m.fail(ctx, op, workflowID, models.NewValidationError(op, fieldErrors))
	}

	state.Status = Next(state.Status, ActionSubmitInput)
	state.Status = Next(state.Status, ActionValidate)

	if state.Data.Variables == nil {
		state.Data.Variables = map[string]any{}
	}

	for name, value := range variables {
		state.Data.Variables[name] = value
	}

	return m.persist(ctx, op, state)
}

// GenerateContent renders the selected template against the submitted
// variables. The session is persisted as in-progress before the render so
// a crash mid-render is observable, then moved to COMPLETED on success or
// ERROR on failure.
func (m *Manager) GenerateContent(ctx context.Context, workflowID string) (models.GenerationResult, error) {
	const op = "GenerateContent"

	state, err := m.loadState(ctx, op, workflowID)
	if err != nil {
		return models.GenerationResult{}, m.fail(ctx, op, workflowID, err)
	}

	if state.Data.TemplateID == "" {
		return models.GenerationResult{}, m.fail(ctx, op, workflowID,
			models.NewStateError(op, workflowID, errors.New("no template selected")))
	}

	if state.Status != models.StatusGeneration {
		return models.GenerationResult{}, m.fail(ctx, op, workflowID,
			models.NewStateError(op, workflowID,
				fmt.Errorf("session is at %s, not ready to generate", state.Status)))
	}

	// In-progress marker: GENERATION is already persisted before the
	// render, so a crash shows up as "stuck in generation".
	err = m.states.Save(ctx, state)
	if err != nil {
		return models.GenerationResult{}, m.fail(ctx, op, workflowID,
			models.NewStateError(op, workflowID, err))
	}

	matched, err := m.records.FindTemplateByID(ctx, state.Data.TemplateID)
	if err != nil {
		return models.GenerationResult{}, m.generationFailed(ctx, state, err)
	}

	content, err := m.templates.Render(matched.Content, state.Data.Variables, template.RenderOptions{
		Locale: state.Locale,
	})
	if err != nil {
		return models.GenerationResult{}, m.generationFailed(ctx, state,
			models.NewTemplateError(op, matched.ID, err))
	}

	now := m.now().UTC()

	state.Status = Next(state.Status, ActionComplete)
	state.Data.GeneratedContent = content
	state.CompletedAt = &now
	state.StepIndex++

	err = m.states.Save(ctx, state)
	if err != nil {
		return models.GenerationResult{}, m.fail(ctx, op, workflowID,
			models.NewStateError(op, workflowID, err))
	}

	result := models.NewGenerationResult(content, matched.ID, now)

	m.cache.Set(ctx, "generation:"+workflowID, result, generationResultTTL, cache.Options{
		Scope:   cache.ScopeSubject,
		OwnerID: state.OwnerID,
	})

	m.audit(ctx, state, matched.ID, result)

	return result, nil
}

// CleanupOldStates deletes sessions untouched for longer than maxAge
// (default 24 h) and emits a cleanup event with the removal count.
func (m *Manager) CleanupOldStates(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = persistence.DefaultStateMaxAge
	}

	removed, err := m.states.DeleteOlderThan(ctx, maxAge)
	if err != nil {
		return removed, fmt.Errorf("failed to clean up old states: %w", err)
	}

	m.logger.InfoContext(ctx, "Cleaned up old workflow states",
		"removed", removed, "max_age", maxAge)

	event := events.StateCleanup{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.StateCleanupEvent,
			Timestamp: m.now().UTC(),
		},
		Deleted: removed,
		MaxAge:  maxAge,
	}

	err = m.recorder.Record(ctx, event)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to record cleanup event", "error", err)
	}

	return removed, nil
}

// Projection returns the client-safe view of a session without mutating it.
func (m *Manager) Projection(ctx context.Context, workflowID string) (models.Projection, error) {
	state, err := m.loadState(ctx, "Projection", workflowID)
	if err != nil {
		return models.Projection{}, m.fail(ctx, "Projection", workflowID, err)
	}

	return state.Project(), nil
}

func (m *Manager) loadState(ctx context.Context, op, workflowID string) (*models.WorkflowState, error) {
	if workflowID == "" {
		return nil, models.NewStateError(op, workflowID, models.ErrStateNotLoaded)
	}

	state, err := m.states.Load(ctx, workflowID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, err
		}

		return nil, models.NewStateError(op, workflowID, err)
	}

	if state.ID == "" {
		return nil, models.NewStateError(op, workflowID, models.ErrInvalidStateIdentity)
	}

	return state, nil
}

// persist advances the step index, saves and projects.
func (m *Manager) persist(ctx context.Context, op string, state *models.WorkflowState) (models.Projection, error) {
	state.StepIndex++

	err := m.states.Save(ctx, state)
	if err != nil {
		return models.Projection{}, m.fail(ctx, op, state.ID, models.NewStateError(op, state.ID, err))
	}

	return state.Project(), nil
}

// generationFailed persists ERROR, logs the original failure and returns
// the user-facing error.
func (m *Manager) generationFailed(ctx context.Context, state *models.WorkflowState, cause error) error {
	m.logger.ErrorContext(ctx, "Content generation failed",
		"workflow_id", state.ID, "template_id", state.Data.TemplateID, "error", cause)

	state.Status = models.StatusError

	err := m.states.Save(ctx, state)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to persist error state",
			"workflow_id", state.ID, "error", err)
	}

	return cause
}

// fail logs an externally raised error with its originating context before
// it crosses the boundary.
func (m *Manager) fail(ctx context.Context, op, workflowID string, err error) error {
	m.logger.ErrorContext(ctx, "Workflow operation failed",
		"workflow_id", workflowID, "action", op,
		"code", models.ErrorCode(err), "error", err)

	return err
}

func (m *Manager) audit(ctx context.Context, state *models.WorkflowState, templateID string, result models.GenerationResult) {
	err := m.records.RecordAuditEvent(ctx, "generate", "template", templateID, map[string]any{
		"workflow_id":    state.ID,
		"content_length": len(result.GeneratedContent),
		"word_count":     result.Metadata.WordCount,
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to record audit event",
			"workflow_id", state.ID, "error", err)
	}

	event := events.GenerationCompleted{
		BaseEvent: events.BaseEvent{
			ID:         uuid.New().String(),
			Type:       events.GenerationCompletedEvent,
			Timestamp:  m.now().UTC(),
			WorkflowID: state.ID,
		},
		TemplateID:    templateID,
		ContentLength: len(result.GeneratedContent),
		WordCount:     result.Metadata.WordCount,
	}

	err = m.recorder.Record(ctx, event)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to record generation event",
			"workflow_id", state.ID, "error", err)
	}
}

// rulesFor maps a variable definition to the rule list enforced on submit.
// Unknown variables fall back to a bare required check.
func (m *Manager) rulesFor(ctx context.Context, name string) []validation.RuleSpec {
	definition, err := m.records.GetVariableDefinition(ctx, name)
	if err != nil {
		if !models.IsNotFound(err) {
			m.logger.WarnContext(ctx, "Failed to load variable definition",
				"variable", name, "error", err)
		}

		return []validation.RuleSpec{validation.Rule(validation.RuleRequired)}
	}

	rules := []validation.RuleSpec{validation.Rule(validation.RuleRequired)}

	// Text and custom variables carry no extra check beyond requiredness.
	switch definition.Type {
	case models.VariableTypeEmail:
		rules = append(rules, validation.Rule(validation.RuleEmail))
	case models.VariableTypeURL:
		rules = append(rules, validation.Rule(validation.RuleURL))
	case models.VariableTypeNumber:
		rules = append(rules, validation.Rule(validation.RuleNumber))
	case models.VariableTypeDate:
		rules = append(rules, validation.Rule(validation.RuleDate))
	case models.VariableTypeChoice:
		choices := make([]string, 0, len(definition.Options))
		for _, option := range definition.Options {
			choices = append(choices, option.Value)
		}

		rules = append(rules, validation.RuleSpec{
			Type:    validation.RuleChoice,
			Options: validation.RuleOptions{Choices: choices},
		})
	}

	return rules
}
