package crossfilter

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ColumnValidator checks column tables before they are registered.
type ColumnValidator interface {
	ValidateColumns(schemaID string, cols []ColumnDefinition) error
}

const columnsSchemaName = "crossfilter-columns.json"

const columnsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "dataType"],
    "additionalProperties": false,
    "properties": {
      "id": {"type": "string", "minLength": 1, "pattern": "^[A-Za-z0-9_.-]+$"},
      "label": {"type": "string"},
      "dataType": {"enum": ["string", "number", "category", "date"]},
      "isCurrency": {"type": "boolean"},
      "isTrend": {"type": "boolean"},
      "isNumber": {"type": "boolean"},
      "isPositive": {"type": "boolean"}
    }
  }
}`

const manifestSchemaName = "crossfilter-manifest.json"

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "version": {"type": ["string", "integer"]},
    "name": {"type": "string"},
    "reports": {"type": "array", "items": {"$ref": "#/definitions/table"}},
    "metrics": {"type": "array", "items": {"$ref": "#/definitions/table"}}
  },
  "definitions": {
    "table": {
      "type": "object",
      "required": ["id", "columns"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "columns": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["id", "data_type"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "label": {"type": "string"},
              "data_type": {"enum": ["string", "number", "category", "date"]},
              "is_currency": {"type": "boolean"},
              "is_trend": {"type": "boolean"},
              "is_number": {"type": "boolean"},
              "is_positive": {"type": "boolean"}
            }
          }
        }
      }
    }
  }
}`

// JSONSchemaValidator validates column tables and raw manifests with
// jsonschema v5. Schemas compile lazily on first use.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// ValidateColumns checks cols against the column table schema and the
// uniqueness rules JSON Schema cannot express.
func (v *JSONSchemaValidator) ValidateColumns(schemaID string, cols []ColumnDefinition) error {
	payload, err := normalizePayload(cols)
	if err != nil {
		return fmt.Errorf("crossfilter: normalize columns for %s: %w", schemaID, err)
	}
	schema, err := v.schemaFor(columnsSchemaName, columnsSchema)
	if err != nil {
		return err
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("crossfilter: columns for %s failed validation: %w", schemaID, err)
	}
	if err := checkColumns(cols); err != nil {
		return fmt.Errorf("crossfilter: columns for %s: %w", schemaID, err)
	}
	return nil
}

// ValidateManifest checks a decoded-but-untyped manifest document.
func (v *JSONSchemaValidator) ValidateManifest(raw any) error {
	payload, err := normalizePayload(raw)
	if err != nil {
		return fmt.Errorf("crossfilter: normalize manifest: %w", err)
	}
	schema, err := v.schemaFor(manifestSchemaName, manifestSchema)
	if err != nil {
		return err
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("crossfilter: manifest failed validation: %w", err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(name, source string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("crossfilter: load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("crossfilter: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// normalizePayload round-trips v through encoding/json so the validator sees
// float64/map[string]any values regardless of the decoder that produced v.
func normalizePayload(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

type noopColumnValidator struct{}

func (noopColumnValidator) ValidateColumns(string, []ColumnDefinition) error { return nil }
