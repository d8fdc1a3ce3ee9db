package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/cache"
	"github.com/replyforge/replyforge/pkg/eventbus"
	"github.com/replyforge/replyforge/pkg/events"
	"github.com/replyforge/replyforge/pkg/models"
)

// Collection files under the store root.
const (
	templatesCollection      = "templates"
	variablesCollection      = "variables"
	categoriesCollection     = "categories"
	workflowConfigCollection = "workflow_config"
)

// recordsTag groups every cached collection so a record refresh can drop
// them all with one invalidation.
const recordsTag = "records"

const collectionTTL = 10 * time.Minute

// FileStore serves record collections from JSON files under a root
// directory. Each collection is schema-checked on first read and cached in
// the fast tier until the TTL elapses or InvalidateRecords is called.
type FileStore struct {
	root     string
	cache    *cache.TieredCache
	recorder eventbus.Recorder
	logger   *slog.Logger
}

// NewFileStore creates a file-backed record store rooted at root. The root
// may carry a file:// prefix.
func NewFileStore(root string, tiered *cache.TieredCache, recorder eventbus.Recorder, logger *slog.Logger) *FileStore {
	return &FileStore{
		root:     strings.Replace(root, "file://", "", 1),
		cache:    tiered,
		recorder: recorder,
		logger:   logger.With("module", "store"),
	}
}

// HealthCheck verifies the store root exists.
func (fs *FileStore) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fs.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// FindTemplate returns the first active template matching the selection
// tuple, in collection order.
func (fs *FileStore) FindTemplate(ctx context.Context, workflowType models.WorkflowType, category, subcategory, status string) (*models.Template, error) {
	templates, err := fs.templates(ctx)
	if err != nil {
		return nil, err
	}

	for i := range templates {
		if !templates[i].Active {
			continue
		}

		if templates[i].Matches(workflowType, category, subcategory, status) {
			match := templates[i]

			return &match, nil
		}
	}

	return nil, fmt.Errorf("no active template for %s/%s/%s: %w",
		workflowType, category, subcategory, models.ErrTemplateNotFound)
}

// FindTemplateByID returns the template with the given ID regardless of its
// active flag.
func (fs *FileStore) FindTemplateByID(ctx context.Context, templateID string) (*models.Template, error) {
	templates, err := fs.templates(ctx)
	if err != nil {
		return nil, err
	}

	for i := range templates {
		if templates[i].ID == templateID {
			match := templates[i]

			return &match, nil
		}
	}

	return nil, fmt.Errorf("template %s: %w", templateID, models.ErrTemplateNotFound)
}

// GetTemplateVariables returns the required/optional variable split for a template.
func (fs *FileStore) GetTemplateVariables(ctx context.Context, templateID string) (models.TemplateVariables, error) {
	template, err := fs.FindTemplateByID(ctx, templateID)
	if err != nil {
		return models.TemplateVariables{}, err
	}

	return models.TemplateVariables{
		Required: template.RequiredVariables,
		Optional: template.OptionalVariables,
	}, nil
}

// GetVariableDefinition returns the definition registered under name.
func (fs *FileStore) GetVariableDefinition(ctx context.Context, name string) (*models.VariableDefinition, error) {
	variables, err := loadCollection[[]models.VariableDefinition](ctx, fs, variablesCollection, variablesSchema)
	if err != nil {
		return nil, err
	}

	for i := range variables {
		if variables[i].Name == name {
			definition := variables[i]

			return &definition, nil
		}
	}

	return nil, fmt.Errorf("variable %s: %w", name, models.ErrVariableNotFound)
}

// GetOptionsFor returns the ordered options of a choice variable. A defined
// variable with no options yields an empty list.
func (fs *FileStore) GetOptionsFor(ctx context.Context, name string) ([]models.Option, error) {
	definition, err := fs.GetVariableDefinition(ctx, name)
	if err != nil {
		return nil, err
	}

	if definition.Options == nil {
		return []models.Option{}, nil
	}

	return definition.Options, nil
}

// GetPolicyCategories returns the category tree for one workflow type,
// preserving collection order.
func (fs *FileStore) GetPolicyCategories(ctx context.Context, workflowType models.WorkflowType) ([]*models.PolicyCategory, error) {
	categories, err := loadCollection[[]*models.PolicyCategory](ctx, fs, categoriesCollection, categoriesSchema)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.PolicyCategory, 0)

	for _, category := range categories {
		if category.WorkflowType == workflowType {
			matched = append(matched, category)
		}
	}

	return matched, nil
}

// GetWorkflowConfig returns the deployment's workflow configuration.
func (fs *FileStore) GetWorkflowConfig(ctx context.Context) (*models.WorkflowConfig, error) {
	config, err := loadCollection[*models.WorkflowConfig](ctx, fs, workflowConfigCollection, workflowConfigSchema)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// RecordAuditEvent publishes an audit record on the event bus.
func (fs *FileStore) RecordAuditEvent(ctx context.Context, action, entityType, entityID string, details map[string]any) error {
	event := events.AuditRecord{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.AuditRecordedEvent,
			Timestamp: time.Now().UTC(),
		},
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}

	err := fs.recorder.Record(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to record audit event %s/%s: %w", action, entityType, err)
	}

	return nil
}

// InvalidateRecords drops every cached collection and returns how many were
// evicted. Call after editing the collection files in place.
func (fs *FileStore) InvalidateRecords(ctx context.Context) int {
	return fs.cache.InvalidateByTag(ctx, recordsTag, cache.Options{MemoryOnly: true})
}

// ChannelOptions implements the template engine's option source.
func (fs *FileStore) ChannelOptions() []models.Option {
	config, err := fs.GetWorkflowConfig(context.Background())
	if err != nil {
		fs.logger.Error("Failed to load workflow config for channel options", "error", err)

		return nil
	}

	return config.Channels
}

// StatusOptions implements the template engine's option source.
func (fs *FileStore) StatusOptions(workflowType models.WorkflowType) []models.Option {
	config, err := fs.GetWorkflowConfig(context.Background())
	if err != nil {
		fs.logger.Error("Failed to load workflow config for status options", "error", err)

		return nil
	}

	return config.StatusesFor(workflowType)
}

func (fs *FileStore) templates(ctx context.Context) ([]models.Template, error) {
	return loadCollection[[]models.Template](ctx, fs, templatesCollection, templatesSchema)
}

// loadCollection reads one schema-checked collection through the cache.
// Collections stay in the fast tier only: the in-memory tier keeps Go types
// intact, where a durable round trip would decay them to raw JSON shapes.
func loadCollection[T any](ctx context.Context, fs *FileStore, name, schema string) (T, error) {
	var zero T

	key := "store:" + name
	opts := cache.Options{MemoryOnly: true}

	if cached, ok := fs.cache.Get(ctx, key, opts); ok {
		if typed, ok := cached.(T); ok {
			return typed, nil
		}
	}

	path := filepath.Clean(filepath.Join(fs.root, name+".json"))

	body, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("failed to read %s collection: %w", name, err)
	}

	err = validateCollection(name, schema, body)
	if err != nil {
		return zero, err
	}

	var collection T

	err = json.Unmarshal(body, &collection)
	if err != nil {
		return zero, fmt.Errorf("failed to unmarshal %s collection: %w", name, err)
	}

	fs.cache.SetWithTags(ctx, key, collection, collectionTTL, []string{recordsTag}, opts)

	return collection, nil
}
