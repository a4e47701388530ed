// Package replay drives predictors through recorded conversations. For
// each assistant turn the Runner rebuilds simulated state from the
// ground-truth prefix, then lets the predictor issue tool calls against
// live state until it produces a reply. Predictions are attached to the
// conversation in place, ready for scoring.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/AltairaLabs/ReplayKit/executor"
	"github.com/AltairaLabs/ReplayKit/logger"
	promexport "github.com/AltairaLabs/ReplayKit/metrics/prometheus"
	"github.com/AltairaLabs/ReplayKit/simstate"
	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// DefaultMaxPredictions caps how many tool calls a predictor may issue
// within a single assistant turn before the Runner cuts it off.
const DefaultMaxPredictions = 15

// Predictor produces the next conversation event given the conversation
// metadata and the rolling history. A tool event means "call this tool";
// a text event with the assistant role ends the turn.
type Predictor interface {
	Predict(ctx context.Context, metadata types.Metadata, history []*types.Event) (*types.Event, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(ctx context.Context, metadata types.Metadata, history []*types.Event) (*types.Event, error)

// Predict implements Predictor.
func (f PredictorFunc) Predict(ctx context.Context, metadata types.Metadata, history []*types.Event) (*types.Event, error) {
	return f(ctx, metadata, history)
}

// Runner replays conversations against a tool registry. It is safe for
// concurrent use: all per-conversation state lives in the replay pass.
type Runner struct {
	registry       *tools.Registry
	snapshots      map[string]json.RawMessage
	maxPredictions int
	limiter        *rate.Limiter
	engineOpts     []executor.Option
	tracer         trace.Tracer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxPredictions overrides the per-turn prediction cap.
func WithMaxPredictions(n int) RunnerOption {
	return func(r *Runner) { r.maxPredictions = n }
}

// WithRateLimit throttles predictor calls across all conversations run
// by this Runner, typically to respect a model provider's quota.
func WithRateLimit(limiter *rate.Limiter) RunnerOption {
	return func(r *Runner) { r.limiter = limiter }
}

// WithEngineOptions forwards options to every per-conversation Engine.
func WithEngineOptions(opts ...executor.Option) RunnerOption {
	return func(r *Runner) { r.engineOpts = opts }
}

// NewRunner creates a Runner over a registry and the immutable database
// snapshots every conversation starts from.
func NewRunner(registry *tools.Registry, snapshots map[string]json.RawMessage, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:       registry,
		snapshots:      snapshots,
		maxPredictions: DefaultMaxPredictions,
		tracer:         otel.Tracer("replaykit/replay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run replays one conversation against the predictor, attaching a
// prediction list to every assistant turn. The conversation is mutated
// in place and also returned. A non-nil error means the replay could not
// finish; partial predictions remain attached.
func (r *Runner) Run(ctx context.Context, conv *types.Conversation, predictor Predictor) error {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	ctx = logger.WithConversation(ctx, conv.Name)
	ctx, span := r.tracer.Start(ctx, "conversation.replay",
		trace.WithAttributes(
			attribute.String("conversation.name", conv.Name),
			attribute.String("run.id", runID),
		))
	defer span.End()

	started := time.Now()
	promexport.RecordReplayStart()
	err := r.run(ctx, conv, predictor)
	status := "success"
	if err != nil {
		status = "error"
	}
	promexport.RecordReplayEnd(status, time.Since(started).Seconds())
	return err
}

func (r *Runner) run(ctx context.Context, conv *types.Conversation, predictor Predictor) error {
	state, err := simstate.New(r.snapshots)
	if err != nil {
		return err
	}
	engine, err := executor.New(r.registry, state, conv.Metadata, r.engineOpts...)
	if err != nil {
		return err
	}

	// groundTruthHistory is what the predictor sees; apiHistory is what
	// gets replayed into the engine before each assistant turn.
	var groundTruthHistory []*types.Event
	var apiHistory []*types.Invocation

	for i, turn := range conv.Turns {
		if turn.Role == types.RoleUser {
			groundTruthHistory = append(groundTruthHistory, types.TextEvent(types.RoleUser, turn.Text))
			continue
		}
		if turn.Role != types.RoleAssistant {
			return fmt.Errorf("turn %d: role must be %q or %q, got %q", i, types.RoleUser, types.RoleAssistant, turn.Role)
		}

		turnCtx := logger.WithTurn(ctx, i)
		if err := engine.InitConversation(turnCtx, conv.User, apiHistory); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}

		predictions, err := r.predictTurn(turnCtx, conv.Metadata, engine, groundTruthHistory, predictor)
		turn.Predictions = predictions
		logger.ReplayTurn(conv.Name, i, len(predictions))
		if err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}

		// Ground truth extends the history only after the predictor has
		// taken its shot at this turn.
		for _, inv := range turn.APIs {
			apiHistory = append(apiHistory, inv)
			groundTruthHistory = append(groundTruthHistory, types.ToolEvent(inv))
		}
		groundTruthHistory = append(groundTruthHistory, types.TextEvent(types.RoleAssistant, turn.Text))
	}
	return nil
}

// predictTurn runs the prediction sub-loop for one assistant turn:
// predictor events are executed against live state and appended to a
// private history until the predictor replies with assistant text, the
// per-turn cap is reached, or ctx is done.
func (r *Runner) predictTurn(
	ctx context.Context,
	metadata types.Metadata,
	engine *executor.Engine,
	history []*types.Event,
	predictor Predictor,
) ([]*types.Event, error) {
	current := make([]*types.Event, len(history))
	copy(current, history)

	var predictions []*types.Event
	for len(predictions) < r.maxPredictions {
		if err := ctx.Err(); err != nil {
			return predictions, err
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return predictions, err
			}
		}

		event, err := predictor.Predict(ctx, metadata, current)
		if err != nil {
			return predictions, fmt.Errorf("predictor: %w", err)
		}
		if event == nil {
			return predictions, fmt.Errorf("predictor returned no event")
		}

		switch event.Role {
		case types.RoleAssistant:
			promexport.RecordPrediction("reply")
			predictions = append(predictions, event)
			return predictions, nil
		case types.RoleTool:
			promexport.RecordPrediction("tool")
			if event.Invocation == nil {
				return predictions, fmt.Errorf("tool event has no invocation")
			}
			request := event.Invocation.Request
			var inv *types.Invocation
			if request.Parameters == nil {
				inv = executor.ParseFailure(request.ToolName)
			} else {
				executed, err := engine.Execute(ctx, request.ToolName, request.Parameters)
				if err != nil {
					return predictions, err
				}
				inv = executed
			}
			executedEvent := types.ToolEvent(inv)
			predictions = append(predictions, executedEvent)
			current = append(current, executedEvent)
		default:
			return predictions, fmt.Errorf("prediction role must be %q or %q, got %q",
				types.RoleTool, types.RoleAssistant, event.Role)
		}
	}
	logger.FromContext(ctx).Warn("prediction cap reached", "cap", r.maxPredictions)
	return predictions, nil
}
