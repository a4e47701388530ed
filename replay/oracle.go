package replay

import (
	"context"
	"fmt"

	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// OraclePredictor replays a conversation's own ground truth as its
// predictions. It locates the current position from the rolling history
// and emits the next ground-truth invocation, or the reference reply
// once the turn's invocations are exhausted. Scoring an oracle replay
// must yield perfect precision and recall; it exists to validate the
// replay and scoring machinery, and as the reference Predictor
// implementation.
type OraclePredictor struct {
	conversation *types.Conversation
	registry     *tools.Registry
}

// NewOraclePredictor creates an oracle for one conversation. The
// registry is consulted to decide which ground-truth parameters carry an
// engine-injected session token that must be stripped before resubmission.
func NewOraclePredictor(conversation *types.Conversation, registry *tools.Registry) *OraclePredictor {
	return &OraclePredictor{conversation: conversation, registry: registry}
}

// Predict implements Predictor.
func (o *OraclePredictor) Predict(_ context.Context, _ types.Metadata, history []*types.Event) (*types.Event, error) {
	// Text events advance the turn cursor; tool events advance the
	// invocation cursor within the current turn.
	turnIndex := 0
	invocationIndex := 0
	for _, event := range history {
		switch event.Role {
		case types.RoleUser, types.RoleAssistant:
			turnIndex++
			invocationIndex = 0
		case types.RoleTool:
			invocationIndex++
		default:
			return nil, fmt.Errorf("unknown history role %q", event.Role)
		}
	}
	if turnIndex >= len(o.conversation.Turns) {
		return nil, fmt.Errorf("history is longer than the recorded conversation")
	}
	turn := o.conversation.Turns[turnIndex]
	if invocationIndex > len(turn.APIs) {
		return nil, fmt.Errorf("turn %d: history has more invocations than ground truth", turnIndex)
	}
	if invocationIndex == len(turn.APIs) {
		return types.TextEvent(types.RoleAssistant, turn.Text), nil
	}

	groundTruth := turn.APIs[invocationIndex]
	parameters := tools.DeepCopy(groundTruth.Request.Parameters)
	if o.injectsSessionToken(groundTruth.Request.ToolName) {
		// The engine injects the live token itself; a real predictor
		// never sees or supplies it for these tools.
		delete(parameters, "session_token")
	}
	return types.ToolEvent(&types.Invocation{
		Role: types.RoleTool,
		Request: types.InvocationRequest{
			ToolName:   groundTruth.Request.ToolName,
			Parameters: parameters,
		},
	}), nil
}

func (o *OraclePredictor) injectsSessionToken(toolName string) bool {
	tool, err := o.registry.Resolve(toolName)
	if err != nil {
		return false
	}
	return tool.Definition().RequiresAuth
}
