package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/ReplayKit/types"
)

// stubTool is a minimal Tool for registry tests.
type stubTool struct {
	def *Definition
}

func (s *stubTool) Definition() *Definition { return s.def }

func (s *stubTool) Execute(env *Env, params map[string]any) (any, error) {
	return map[string]any{"ok": true}, nil
}

func stub(def Definition) *stubTool {
	if def.Description == "" {
		def.Description = "A stub tool."
	}
	return &stubTool{def: &def}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		stub(Definition{Name: "Echo"}),
		stub(Definition{Name: "Echo"}),
	)
	assert.ErrorIs(t, err, ErrDuplicateTool)
}

func TestNewRegistryValidatesDefinitions(t *testing.T) {
	_, err := NewRegistry(&stubTool{def: &Definition{Name: ""}})
	assert.ErrorIs(t, err, ErrToolNameRequired)

	_, err = NewRegistry(&stubTool{def: &Definition{Name: "Echo"}})
	assert.ErrorIs(t, err, ErrToolDescriptionRequired)

	_, err = NewRegistry(stub(Definition{
		Name:       "Echo",
		Parameters: []ParamSpec{{Name: "x", Type: "string"}},
	}))
	assert.ErrorIs(t, err, ErrParamSpecIncomplete)

	_, err = NewRegistry(stub(Definition{
		Name: "Echo",
		Parameters: []ParamSpec{
			{Name: "x", Type: "string", Description: "x"},
			{Name: "x", Type: "string", Description: "again"},
		},
	}))
	assert.ErrorIs(t, err, ErrDuplicateParam)
}

func TestRegistryResolve(t *testing.T) {
	registry, err := NewRegistry(stub(Definition{Name: "Echo"}))
	require.NoError(t, err)

	tool, err := registry.Resolve("Echo")
	require.NoError(t, err)
	assert.Equal(t, "Echo", tool.Definition().Name)
	assert.True(t, registry.Has("Echo"))

	_, err = registry.Resolve("Missing")
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.False(t, registry.Has("Missing"))
}

func TestRegistryIsAction(t *testing.T) {
	registry, err := NewRegistry(
		stub(Definition{Name: "Mutate", IsAction: true}),
		stub(Definition{Name: "Read"}),
	)
	require.NoError(t, err)

	assert.True(t, registry.IsAction("Mutate"))
	assert.False(t, registry.IsAction("Read"))
	assert.False(t, registry.IsAction("Missing"))
}

func TestRegistryValidateParams(t *testing.T) {
	registry, err := NewRegistry(stub(Definition{
		Name: "Echo",
		Parameters: []ParamSpec{
			{Name: "text", Type: "string", Description: "text to echo", Required: true},
			{Name: "loud", Type: "boolean", Description: "shout"},
		},
	}))
	require.NoError(t, err)

	assert.NoError(t, registry.ValidateParams("Echo", map[string]any{"text": "hi"}))
	// Optional parameters admit explicit null.
	assert.NoError(t, registry.ValidateParams("Echo", map[string]any{"text": "hi", "loud": nil}))

	var vErr *ValidationError
	err = registry.ValidateParams("Echo", map[string]any{})
	assert.ErrorAs(t, err, &vErr)

	err = registry.ValidateParams("Echo", map[string]any{"text": "hi", "volume": 11})
	assert.ErrorAs(t, err, &vErr)

	err = registry.ValidateParams("Echo", map[string]any{"text": 42})
	assert.ErrorAs(t, err, &vErr)
}

func TestRegistryValidateParamsAdmitsInjectedToken(t *testing.T) {
	registry, err := NewRegistry(stub(Definition{
		Name:         "Secure",
		RequiresAuth: true,
	}))
	require.NoError(t, err)

	assert.NoError(t, registry.ValidateParams("Secure", map[string]any{"session_token": "abc"}))
}

func TestRegistryCheckCorrectness(t *testing.T) {
	alwaysMatch := func(prediction, groundTruth *types.Invocation) bool { return true }
	registry, err := NewRegistry(
		stub(Definition{Name: "Loose", Compare: alwaysMatch}),
		stub(Definition{Name: "Strict"}),
	)
	require.NoError(t, err)

	loose := &types.Invocation{Request: types.InvocationRequest{ToolName: "Loose"}}
	strict := &types.Invocation{Request: types.InvocationRequest{ToolName: "Strict", Parameters: map[string]any{"a": 1}}}
	strictOther := &types.Invocation{Request: types.InvocationRequest{ToolName: "Strict", Parameters: map[string]any{"a": 2}}}

	// Different tools never match, even with a permissive override.
	assert.False(t, registry.CheckCorrectness(strict, loose))
	assert.True(t, registry.CheckCorrectness(loose, loose))
	assert.True(t, registry.CheckCorrectness(strict, strict))
	assert.False(t, registry.CheckCorrectness(strictOther, strict))
}

func TestRegistryNamesAndDocs(t *testing.T) {
	registry, err := NewRegistry(
		stub(Definition{Name: "Beta"}),
		stub(Definition{Name: "Alpha", Parameters: []ParamSpec{
			{Name: "when", Type: "string", Description: "a time", Required: true},
		}}),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Beta"}, registry.Names())

	docs := registry.FunctionDocs()
	require.Len(t, docs, 2)
	assert.Equal(t, "Alpha", docs[0]["name"])
	assert.Equal(t, []string{"when"}, docs[0]["required"])
}
