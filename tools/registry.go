package tools

import (
	"fmt"
	"sort"

	"github.com/AltairaLabs/ReplayKit/types"
)

// Registry is the static tool catalog. It is resolved at startup from
// compiled-in tool values, validated once, and read-only afterwards: the
// only state shared between concurrent conversation replays.
type Registry struct {
	tools     map[string]Tool
	validator *SchemaValidator
}

// NewRegistry builds a registry from the given tools, validating every
// definition and compiling every parameter schema up front.
func NewRegistry(toolset ...Tool) (*Registry, error) {
	r := &Registry{
		tools:     make(map[string]Tool, len(toolset)),
		validator: NewSchemaValidator(),
	}
	for _, tool := range toolset {
		def := tool.Definition()
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.tools[def.Name]; exists {
			return nil, fmt.Errorf("tool %s: %w", def.Name, ErrDuplicateTool)
		}
		if err := r.validator.Compile(def); err != nil {
			return nil, fmt.Errorf("tool %s: %w", def.Name, err)
		}
		r.tools[def.Name] = tool
	}
	return r, nil
}

// Resolve returns the named tool, or ErrToolNotFound.
func (r *Registry) Resolve(name string) (Tool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrToolNotFound)
	}
	return tool, nil
}

// Has reports whether the named tool exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// IsAction reports whether the named tool mutates simulated state.
// Unknown names are not actions.
func (r *Registry) IsAction(name string) bool {
	tool, ok := r.tools[name]
	if !ok {
		return false
	}
	return tool.Definition().IsAction
}

// ValidateParams checks call parameters against the named tool's schema.
func (r *Registry) ValidateParams(name string, params map[string]any) error {
	tool, err := r.Resolve(name)
	if err != nil {
		return err
	}
	return r.validator.ValidateParams(tool.Definition(), params)
}

// CheckCorrectness dispatches to the ground-truth tool's comparator.
// Invocations of different tools never match; tools without an override
// use DefaultComparator.
func (r *Registry) CheckCorrectness(prediction, groundTruth *types.Invocation) bool {
	if prediction.Request.ToolName != groundTruth.Request.ToolName {
		return false
	}
	compare := Comparator(DefaultComparator)
	if tool, ok := r.tools[groundTruth.Request.ToolName]; ok {
		if override := tool.Definition().Compare; override != nil {
			compare = override
		}
	}
	return compare(prediction, groundTruth)
}

// Names returns all tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all tool definitions in name order.
func (r *Registry) Definitions() []*Definition {
	defs := make([]*Definition, 0, len(r.tools))
	for _, name := range r.Names() {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// FunctionDocs renders every definition as an OpenAI-style function
// document, in name order, for handing to a predictor.
func (r *Registry) FunctionDocs() []map[string]any {
	docs := make([]map[string]any, 0, len(r.tools))
	for _, def := range r.Definitions() {
		docs = append(docs, def.FunctionDoc())
	}
	return docs
}
