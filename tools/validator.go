package tools

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError reports a predicted call whose parameters do not match
// the tool's declared schema: unknown parameters, missing required ones,
// or mistyped values.
type ValidationError struct {
	Tool   string
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %s: invalid parameters: %s", e.Tool, e.Detail)
}

// SchemaValidator compiles and caches one JSON Schema per tool definition
// and validates call parameters against it before execution.
type SchemaValidator struct {
	cache map[string]*gojsonschema.Schema
}

// NewSchemaValidator creates an empty validator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{cache: make(map[string]*gojsonschema.Schema)}
}

// ValidateParams validates params against the definition's generated
// schema. A nil params map validates like an empty object.
func (sv *SchemaValidator) ValidateParams(def *Definition, params map[string]any) error {
	schema, err := sv.schemaFor(def)
	if err != nil {
		return fmt.Errorf("invalid parameter schema for tool %s: %w", def.Name, err)
	}
	if params == nil {
		params = map[string]any{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return fmt.Errorf("validation error for tool %s: %w", def.Name, err)
	}
	if !result.Valid() {
		details := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			details[i] = desc.String()
		}
		return &ValidationError{
			Tool:   def.Name,
			Detail: fmt.Sprintf("%v", details),
		}
	}
	return nil
}

// Compile ensures the definition's schema compiles. Called at registry
// construction so schema defects surface at startup, not mid-replay.
func (sv *SchemaValidator) Compile(def *Definition) error {
	_, err := sv.schemaFor(def)
	return err
}

func (sv *SchemaValidator) schemaFor(def *Definition) (*gojsonschema.Schema, error) {
	if schema, ok := sv.cache[def.Name]; ok {
		return schema, nil
	}
	raw, err := inputSchemaJSON(def)
	if err != nil {
		return nil, err
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, err
	}
	sv.cache[def.Name] = schema
	return schema, nil
}

// inputSchemaJSON generates a JSON Schema for a definition's parameters.
// Optional parameters admit null (predictors commonly send explicit
// nulls); enum membership is left to business logic so that a bad enum
// value surfaces as the tool's own validation exception. Undeclared
// parameters are rejected, matching the reference behavior where an
// unexpected argument fails the call. The injected session token is
// always admitted on auth-requiring tools.
func inputSchemaJSON(def *Definition) ([]byte, error) {
	properties := make(map[string]any, len(def.Parameters)+1)
	var required []string
	for _, p := range def.Parameters {
		prop := map[string]any{}
		if p.Required {
			prop["type"] = p.Type
			required = append(required, p.Name)
		} else {
			prop["type"] = []string{p.Type, "null"}
		}
		if p.Type == "array" && p.ItemType != "" {
			prop["items"] = map[string]any{"type": p.ItemType}
		}
		properties[p.Name] = prop
	}
	if def.RequiresAuth {
		if _, declared := def.Param("session_token"); !declared {
			properties["session_token"] = map[string]any{"type": "string"}
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return json.Marshal(schema)
}
