package evals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AltairaLabs/ReplayKit/logger"
	"github.com/AltairaLabs/ReplayKit/replay"
	"github.com/AltairaLabs/ReplayKit/resultstore"
	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// DefaultConcurrency is the number of conversations a batch replays in
// parallel when not configured otherwise.
const DefaultConcurrency = 4

// PredictorFactory builds a predictor for one conversation. Conversations
// in a batch are replayed concurrently, so each one needs its own
// predictor instance.
type PredictorFactory func(conv *types.Conversation) replay.Predictor

// BatchRunner replays and scores a set of conversations concurrently.
// Conversations are independent replay units, so the only shared state is
// the read-only registry and snapshot set inside the replay runner.
type BatchRunner struct {
	registry    *tools.Registry
	runner      *replay.Runner
	store       resultstore.Store
	concurrency int
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithConcurrency sets how many conversations replay in parallel.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithResultStore makes the batch persist every scored conversation.
func WithResultStore(store resultstore.Store) BatchOption {
	return func(b *BatchRunner) { b.store = store }
}

// NewBatchRunner creates a batch evaluator over the given registry and
// replay runner.
func NewBatchRunner(registry *tools.Registry, runner *replay.Runner, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		registry:    registry,
		runner:      runner,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Report is the outcome of one batch run: the run's ID, the number of
// conversations evaluated, and their aggregated metrics.
type Report struct {
	RunID         string         `json:"run_id"`
	Conversations int            `json:"conversations"`
	Duration      time.Duration  `json:"duration"`
	Metrics       *types.Metrics `json:"metrics"`
}

// Run replays and scores every conversation, mutating each one in place
// with predictions and metrics. The first replay or persistence error
// cancels the remaining work. Scored metrics for conversations that
// completed before the failure remain attached to them.
func (b *BatchRunner) Run(ctx context.Context, conversations []*types.Conversation, factory PredictorFactory) (*Report, error) {
	runID := uuid.NewString()
	start := time.Now()
	logger.InfoContext(ctx, "batch run starting",
		"run_id", runID,
		"conversations", len(conversations),
		"concurrency", b.concurrency)

	g, gctx := errgroup.WithContext(logger.WithRunID(ctx, runID))
	g.SetLimit(b.concurrency)

	for _, conv := range conversations {
		conv := conv
		g.Go(func() error {
			return b.evaluate(gctx, runID, conv, factory(conv))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch run %s: %w", runID, err)
	}

	report := &Report{
		RunID:         runID,
		Conversations: len(conversations),
		Duration:      time.Since(start),
		Metrics:       Aggregate(conversations),
	}
	logger.InfoContext(ctx, "batch run finished",
		"run_id", runID,
		"duration", report.Duration,
		"recall", report.Metrics.Recall,
		"soft_success", report.Metrics.SoftSuccess)
	return report, nil
}

// evaluate replays, scores, and optionally persists one conversation.
func (b *BatchRunner) evaluate(ctx context.Context, runID string, conv *types.Conversation, predictor replay.Predictor) error {
	if err := b.runner.Run(ctx, conv, predictor); err != nil {
		return fmt.Errorf("conversation %s: %w", conv.Name, err)
	}
	Score(conv, b.registry)

	if b.store == nil {
		return nil
	}
	if err := b.store.Save(ctx, resultstore.NewResult(runID, conv)); err != nil {
		return fmt.Errorf("conversation %s: failed to store result: %w", conv.Name, err)
	}
	return nil
}
