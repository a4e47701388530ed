// Package executor runs simulated tool invocations against per-conversation
// state. The Engine owns the session lifecycle (login, logout, token
// injection), validates call parameters, converts every failure mode into
// an exception envelope, and records an Invocation for each call.
//
// An Engine is exclusively owned by one conversation replay and is not
// safe for concurrent use.
package executor

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/ReplayKit/logger"
	promexport "github.com/AltairaLabs/ReplayKit/metrics/prometheus"
	"github.com/AltairaLabs/ReplayKit/simstate"
	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// DebugEnv, when set to a non-empty value, makes the Engine return
// unexpected tool failures as errors instead of folding them into
// exception envelopes.
const DebugEnv = "REPLAYKIT_DEBUG"

// Exception messages produced by the Engine itself, before any tool
// business logic runs.
const (
	exceptionNotLoggedIn = "User is not logged in"
	exceptionParseFailed = "Failed to parse API call"
)

// loginTools establish a session on success; the Engine refuses them
// while another session is active.
var loginTools = map[string]bool{
	"UserLogin":    true,
	"RegisterUser": true,
}

// logoutTools end the active session on success.
var logoutTools = map[string]bool{
	"LogoutUser":    true,
	"DeleteAccount": true,
}

// Engine executes tool invocations for one conversation.
type Engine struct {
	registry *tools.Registry
	state    *simstate.State
	now      time.Time
	session  string
	bound    map[string]*tools.Env
	idSeed   int64
	debug    bool
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebug controls whether unexpected tool failures propagate as
// errors. The default follows the REPLAYKIT_DEBUG environment variable.
func WithDebug(debug bool) Option {
	return func(e *Engine) { e.debug = debug }
}

// WithIDSeed overrides the deterministic identifier seed.
func WithIDSeed(seed int64) Option {
	return func(e *Engine) { e.idSeed = seed }
}

// WithTracer overrides the tracer used for per-invocation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// New creates an Engine over the given registry and state, with the
// simulated clock taken from the conversation metadata.
func New(registry *tools.Registry, state *simstate.State, metadata types.Metadata, opts ...Option) (*Engine, error) {
	now, err := metadata.Clock()
	if err != nil {
		return nil, fmt.Errorf("invalid conversation timestamp %q: %w", metadata.Timestamp, err)
	}
	e := &Engine{
		registry: registry,
		state:    state,
		now:      now,
		bound:    make(map[string]*tools.Env),
		idSeed:   tools.DefaultIDSeed,
		debug:    os.Getenv(DebugEnv) != "",
		tracer:   otel.Tracer("replaykit/executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SessionToken returns the active session token, or "" when no user is
// logged in.
func (e *Engine) SessionToken() string {
	return e.session
}

// Reset restores all databases to their snapshots, discards memoized
// tool instances, and ends any active session.
func (e *Engine) Reset() error {
	if err := e.state.Reset(); err != nil {
		return err
	}
	e.bound = make(map[string]*tools.Env)
	e.session = ""
	return nil
}

// InitConversation prepares the Engine for predicting one assistant
// turn: state is reset, the conversation's user fixture is applied, and
// every prior ground-truth invocation is replayed so the databases and
// session reflect the conversation so far.
func (e *Engine) InitConversation(ctx context.Context, user *types.UserFixture, history []*types.Invocation) error {
	if err := e.Reset(); err != nil {
		return err
	}
	if user != nil {
		// Fixtures are dataset facts, not operations; forcing them never fails.
		if user.SessionToken != "" {
			e.state.ForceSessionToken(user.Username, user.SessionToken)
			e.session = user.SessionToken
		}
		if user.VerificationCode != "" {
			e.state.ForceVerificationCode(user.Username, user.VerificationCode)
		}
	}
	for _, inv := range history {
		replayed, err := e.Execute(ctx, inv.Request.ToolName, inv.Request.Parameters)
		if err != nil {
			return err
		}
		if replayed.Failed() && !inv.Failed() {
			// A ground-truth call that succeeded originally must succeed on
			// replay; anything else is a dataset defect worth surfacing.
			logger.FromContext(ctx).Warn("ground truth replay diverged",
				"tool", inv.Request.ToolName,
				"exception", replayed.ExceptionText())
		}
	}
	return nil
}

// Execute runs one tool invocation and returns its record. Every failure
// mode lands in the record's exception field: unknown tools, missing
// auth, double logins, schema violations, and domain errors raised by
// the tool itself. In debug mode, failures the tool did not declare as
// domain errors are additionally returned as an error.
func (e *Engine) Execute(ctx context.Context, toolName string, parameters map[string]any) (*types.Invocation, error) {
	ctx, span := e.tracer.Start(ctx, "tool.execute",
		trace.WithAttributes(attribute.String("tool.name", toolName)))
	defer span.End()
	started := time.Now()

	inv, err := e.execute(ctx, toolName, parameters)

	status := "success"
	if inv.Failed() {
		status = "exception"
		span.SetAttributes(attribute.String("tool.exception", inv.ExceptionText()))
		logger.ToolException(toolName, inv.ExceptionText())
	}
	promexport.RecordToolCall(toolName, status, time.Since(started).Seconds())
	return inv, err
}

func (e *Engine) execute(ctx context.Context, toolName string, parameters map[string]any) (*types.Invocation, error) {
	params := tools.DeepCopy(parameters)
	if params == nil {
		params = map[string]any{}
	}
	inv := &types.Invocation{
		Role:    types.RoleTool,
		Request: types.InvocationRequest{ToolName: toolName, Parameters: params},
	}

	tool, err := e.registry.Resolve(toolName)
	if err != nil {
		return withException(inv, fmt.Sprintf("Tool %s not found", toolName)), nil
	}
	def := tool.Definition()
	logger.ToolCall(toolName, def.RequiresAuth)

	if def.RequiresAuth {
		if e.session == "" {
			return withException(inv, exceptionNotLoggedIn), nil
		}
		params["session_token"] = e.session
	}
	if loginTools[toolName] && e.session != "" {
		return withException(inv, fmt.Sprintf(
			"Only one user can be logged in at a time. Current user is %s.", e.activeUsername())), nil
	}

	if err := e.registry.ValidateParams(toolName, params); err != nil {
		return withException(inv, err.Error()), nil
	}

	response, err := tool.Execute(e.env(def), params)
	if err != nil {
		if !tools.IsAPIError(err) {
			logger.ErrorContext(ctx, "unexpected tool failure", "tool", toolName, "error", err)
			if e.debug {
				return withException(inv, err.Error()), fmt.Errorf("tool %s: %w", toolName, err)
			}
		}
		return withException(inv, err.Error()), nil
	}
	inv.Response = response

	// Session lifecycle follows successful logins and logouts.
	if loginTools[toolName] {
		if body, ok := response.(map[string]any); ok {
			if token, ok := body["session_token"].(string); ok {
				e.session = token
			}
		}
	} else if logoutTools[toolName] {
		e.session = ""
	}
	return inv, nil
}

// ParseFailure records a predicted call whose parameters could not be
// parsed. The tool is never executed.
func ParseFailure(toolName string) *types.Invocation {
	inv := &types.Invocation{
		Role:    types.RoleTool,
		Request: types.InvocationRequest{ToolName: toolName},
	}
	return withException(inv, exceptionParseFailed)
}

// env returns the memoized execution environment for a tool, creating
// it on first use. Environments persist across calls within one replay
// pass so their ID generators advance deterministically; tools without a
// declared database get a private empty store.
func (e *Engine) env(def *tools.Definition) *tools.Env {
	if env, ok := e.bound[def.Name]; ok {
		return env
	}
	database := simstate.Database{}
	if def.Database != "" {
		if db, ok := e.state.Database(def.Database); ok {
			database = db
		}
	}
	env := &tools.Env{
		Accounts: e.state.Accounts(),
		Database: database,
		Now:      e.now,
		IDs:      tools.NewIDGen(e.idSeed),
	}
	e.bound[def.Name] = env
	return env
}

// activeUsername scans the account store for the record holding the
// active session token.
func (e *Engine) activeUsername() string {
	for username, v := range e.state.Accounts() {
		record, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if token, ok := record["session_token"].(string); ok && token == e.session {
			return username
		}
	}
	return ""
}

func withException(inv *types.Invocation, message string) *types.Invocation {
	inv.Exception = &message
	return inv
}
