package store

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Collection schemas checked at load time. A collection file that fails its
// schema is rejected wholesale rather than partially loaded.
const (
	templatesSchema = `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "workflow_type", "category", "content"],
			"properties": {
				"id":                 {"type": "string", "minLength": 1},
				"workflow_type":      {"type": "string", "enum": ["misreview", "disapproval", "certification", "other"]},
				"category":           {"type": "string", "minLength": 1},
				"subcategory":        {"type": "string"},
				"content":            {"type": "string", "minLength": 1},
				"required_variables": {"type": "array", "items": {"type": "string"}},
				"optional_variables": {"type": "array", "items": {"type": "string"}},
				"active":             {"type": "boolean"},
				"required_status":    {"type": "string"}
			}
		}
	}`

	variablesSchema = `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name":          {"type": "string", "minLength": 1},
				"display_name":  {"type": "string"},
				"type":          {"type": "string", "enum": ["text", "email", "url", "number", "date", "choice", "custom"]},
				"required":      {"type": "boolean"},
				"default_value": {"type": "string"},
				"options": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["value", "label"],
						"properties": {
							"value": {"type": "string"},
							"label": {"type": "string"}
						}
					}
				}
			}
		}
	}`

	categoriesSchema = `{
		"type": "array",
		"items": {"$ref": "#/definitions/category"},
		"definitions": {
			"category": {
				"type": "object",
				"required": ["id", "label", "workflow_type"],
				"properties": {
					"id":            {"type": "string", "minLength": 1},
					"label":         {"type": "string", "minLength": 1},
					"workflow_type": {"type": "string"},
					"children":      {"type": "array", "items": {"$ref": "#/definitions/category"}}
				}
			}
		}
	}`

	workflowConfigSchema = `{
		"type": "object",
		"required": ["total_steps"],
		"properties": {
			"total_steps": {"type": "integer", "minimum": 1},
			"statuses": {
				"type": "object",
				"additionalProperties": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["value", "label"]
					}
				}
			},
			"channels": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["value", "label"]
				}
			}
		}
	}`
)

// validateCollection checks raw collection JSON against its schema.
func validateCollection(name, schema string, document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate %s collection: %w", name, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			details = append(details, resultError.String())
		}

		return fmt.Errorf("%s collection failed schema validation: %s", name, strings.Join(details, "; "))
	}

	return nil
}
