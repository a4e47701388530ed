// Package tools provides the tool catalog for the simulated assistant
// services: immutable tool definitions, a static registry resolved at
// startup, JSON Schema parameter validation, and the per-tool correctness
// comparators used when matching predicted invocations against ground
// truth.
package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/AltairaLabs/ReplayKit/simstate"
	"github.com/AltairaLabs/ReplayKit/types"
)

// ParamSpec declares one tool parameter. Every declared parameter must
// have a non-empty type and description; the executor rejects calls whose
// parameters do not match the declared set.
type ParamSpec struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
	// ItemType is the element type for array parameters.
	ItemType string `json:"item_type,omitempty"`
}

// FieldSpec documents one field of a tool's output.
type FieldSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Comparator decides whether a predicted invocation reproduces a
// ground-truth invocation of the same tool.
type Comparator func(prediction, groundTruth *types.Invocation) bool

// TextScorer scores the semantic similarity of two strings in [0,1].
// It is an injected collaborator: production use plugs in an embedding
// based scorer, tests and defaults use DefaultTextScorer.
type TextScorer func(a, b string) float64

// Definition is the immutable descriptor of one tool.
type Definition struct {
	Name        string
	Suite       string
	Description string
	Parameters  []ParamSpec
	Output      []FieldSpec

	// Database names the domain store the tool operates on; "" means the
	// tool is stateless and receives a private empty store.
	Database string

	// IsAction is true for tools that mutate simulated state.
	IsAction bool

	// RequiresAuth is true for tools that need an active session; the
	// executor injects the session token before execution.
	RequiresAuth bool

	// Compare overrides the default correctness comparator when non-nil.
	Compare Comparator
}

// Validate checks the definition invariants: non-empty name, description,
// and per-parameter type and description.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return ErrToolNameRequired
	}
	if d.Description == "" {
		return fmt.Errorf("tool %s: %w", d.Name, ErrToolDescriptionRequired)
	}
	seen := make(map[string]bool, len(d.Parameters))
	for _, p := range d.Parameters {
		if p.Name == "" || p.Type == "" || p.Description == "" {
			return fmt.Errorf("tool %s: parameter %q: %w", d.Name, p.Name, ErrParamSpecIncomplete)
		}
		if seen[p.Name] {
			return fmt.Errorf("tool %s: parameter %q: %w", d.Name, p.Name, ErrDuplicateParam)
		}
		seen[p.Name] = true
	}
	return nil
}

// Param returns the named parameter spec.
func (d *Definition) Param(name string) (ParamSpec, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Doc renders a plain-text docstring for predictor prompts.
func (d *Definition) Doc() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", d.Name, d.Description)
	b.WriteString("Parameters:\n")
	for _, p := range d.Parameters {
		fmt.Fprintf(&b, "- %s (%s) %s\n", p.Name, p.Type, p.Description)
	}
	b.WriteString("Returns:\n")
	for _, f := range d.Output {
		fmt.Fprintf(&b, "- %s (%s) %s\n", f.Name, f.Type, f.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FunctionDoc renders the definition as an OpenAI-style function document
// for predictors that speak that format.
func (d *Definition) FunctionDoc() map[string]any {
	properties := make(map[string]any, len(d.Parameters))
	required := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == "array" && p.ItemType != "" {
			prop["items"] = map[string]any{"type": p.ItemType}
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"parameters": map[string]any{
			"type":       "object",
			"properties": properties,
		},
		"required": required,
	}
}

// Env is the per-conversation environment a tool instance is bound to:
// the account store, the tool's domain store, the conversation clock, and
// the deterministic identifier generator.
type Env struct {
	Accounts simstate.Database
	Database simstate.Database
	Now      time.Time
	IDs      *IDGen
}

// Tool is the capability interface every simulated service operation
// implements. Execute runs the business logic against the bound Env;
// domain validation failures are returned as *APIError.
type Tool interface {
	Definition() *Definition
	Execute(env *Env, params map[string]any) (any, error)
}
