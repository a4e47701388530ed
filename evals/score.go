// Package evals scores replayed conversations against their ground
// truth and aggregates metrics across datasets. Matching is greedy and
// order-preserving: each prediction claims the first unmatched ground
// truth it reproduces, and every record is annotated with its verdict.
package evals

import (
	"github.com/AltairaLabs/ReplayKit/logger"
	promexport "github.com/AltairaLabs/ReplayKit/metrics/prometheus"
	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// Score compares a conversation's predictions against its ground truth,
// annotates every invocation record with match and bad-action verdicts,
// and attaches the resulting metrics to the conversation.
//
// A prediction can claim at most one ground truth and vice versa. A
// successful state-mutating prediction that matches no ground truth is a
// bad action: it changed simulated state in a way the reference
// conversation never did.
func Score(conv *types.Conversation, registry *tools.Registry) *types.Metrics {
	predictions := conv.PredictedInvocations()
	groundTruths := conv.GroundTruths()

	unmatched := make([]*types.Invocation, len(groundTruths))
	copy(unmatched, groundTruths)

	metrics := &types.Metrics{
		Predictions:  len(predictions),
		GroundTruths: len(groundTruths),
	}
	for _, prediction := range predictions {
		matched := false
		for i, groundTruth := range unmatched {
			if registry.CheckCorrectness(prediction, groundTruth) {
				matched = true
				groundTruth.SetMatch(true)
				unmatched = append(unmatched[:i], unmatched[i+1:]...)
				break
			}
		}

		isAction := registry.IsAction(prediction.Request.ToolName)
		badAction := !matched && isAction && !prediction.Failed()
		prediction.SetMatch(matched)
		prediction.SetBadAction(badAction)

		if matched {
			metrics.Matches++
		}
		if isAction {
			metrics.Actions++
			if matched {
				metrics.ValidActions++
			}
			if badAction {
				metrics.BadActions++
			}
		}
	}
	for _, groundTruth := range unmatched {
		groundTruth.SetMatch(false)
	}

	metrics.Derive()
	conv.Metrics = metrics

	logger.Scored(conv.Name, metrics.Recall, metrics.BadActionRate, metrics.Success)
	promexport.RecordScore(metrics.Success, metrics.Recall, metrics.SoftSuccess, metrics.BadActions)
	return metrics
}

// Aggregate sums per-conversation metrics into dataset-level metrics,
// then re-derives the ratio fields from the pooled counters.
func Aggregate(conversations []*types.Conversation) *types.Metrics {
	total := &types.Metrics{}
	for _, conv := range conversations {
		if conv.Metrics == nil {
			continue
		}
		total.Add(conv.Metrics)
	}
	total.Derive()
	return total
}
