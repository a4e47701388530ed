// Package prometheus provides Prometheus metrics exporters for ReplayKit
// evaluation runs.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "replaykit"

var (
	// toolCallDuration is a histogram of simulated tool call duration.
	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Duration of simulated tool calls in seconds",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
		[]string{"tool"},
	)

	// toolCallsTotal is a counter of simulated tool calls.
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of simulated tool calls",
		},
		[]string{"tool", "status"}, // status: success, exception
	)

	// predictionsTotal is a counter of predictor outputs by kind.
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of predictor outputs",
		},
		[]string{"kind"}, // kind: tool, reply
	)

	// replaysActive is a gauge of conversations currently being replayed.
	replaysActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "replays_active",
			Help:      "Number of conversations currently being replayed",
		},
	)

	// replayDuration is a histogram of full conversation replay duration.
	replayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replay_duration_seconds",
			Help:      "Histogram of full conversation replay duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"}, // status: success, error
	)

	// conversationsScoredTotal is a counter of scored conversations.
	conversationsScoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_scored_total",
			Help:      "Total number of scored conversations",
		},
		[]string{"outcome"}, // outcome: success, failure
	)

	// conversationRecall is a histogram of per-conversation recall.
	conversationRecall = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversation_recall",
			Help:      "Histogram of per-conversation ground truth recall",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// conversationSoftSuccess is a histogram of per-conversation soft success.
	conversationSoftSuccess = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversation_soft_success",
			Help:      "Histogram of per-conversation soft success",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// badActionsTotal is a counter of harmful unmatched actions.
	badActionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bad_actions_total",
			Help:      "Total number of successful state-mutating calls that matched no ground truth",
		},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		toolCallDuration,
		toolCallsTotal,
		predictionsTotal,
		replaysActive,
		replayDuration,
		conversationsScoredTotal,
		conversationRecall,
		conversationSoftSuccess,
		badActionsTotal,
	}
)

// RecordToolCall records a simulated tool call.
func RecordToolCall(toolName, status string, durationSeconds float64) {
	toolCallDuration.WithLabelValues(toolName).Observe(durationSeconds)
	toolCallsTotal.WithLabelValues(toolName, status).Inc()
}

// RecordPrediction records one predictor output.
func RecordPrediction(kind string) {
	predictionsTotal.WithLabelValues(kind).Inc()
}

// RecordReplayStart records the start of a conversation replay.
func RecordReplayStart() {
	replaysActive.Inc()
}

// RecordReplayEnd records a conversation replay completion.
func RecordReplayEnd(status string, durationSeconds float64) {
	replaysActive.Dec()
	replayDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordScore records the headline metrics of one scored conversation.
func RecordScore(success bool, recall, softSuccess float64, badActions int) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	conversationsScoredTotal.WithLabelValues(outcome).Inc()
	conversationRecall.Observe(recall)
	conversationSoftSuccess.Observe(softSuccess)
	if badActions > 0 {
		badActionsTotal.Add(float64(badActions))
	}
}
