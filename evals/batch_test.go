package evals

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/ReplayKit/replay"
	"github.com/AltairaLabs/ReplayKit/resultstore"
	"github.com/AltairaLabs/ReplayKit/simstate"
	"github.com/AltairaLabs/ReplayKit/types"
)

func batchSnapshots() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		simstate.AccountDatabase: json.RawMessage(`{
			"justinkool": {
				"username": "justinkool",
				"password": "justforkicks123",
				"session_token": ""
			}
		}`),
		"Weather": json.RawMessage(`{
			"san francisco": {
				"2023-09-11": {"high": 80, "low": 60, "conditions": "Sunny"}
			}
		}`),
	}
}

func batchConversation(name string) *types.Conversation {
	return &types.Conversation{
		Name:     name,
		Metadata: types.Metadata{Timestamp: "2023-09-11 09:00:00", Location: "San Francisco"},
		Turns: []*types.Turn{
			{Role: types.RoleUser, Text: "What's the weather like?"},
			{
				Role: types.RoleAssistant,
				Text: "It is sunny with a high of 80.",
				APIs: []*types.Invocation{
					{
						Role: types.RoleTool,
						Request: types.InvocationRequest{
							ToolName:   "CurrentWeather",
							Parameters: map[string]any{"location": "San Francisco"},
						},
						Response: map[string]any{"weather": map[string]any{
							"high": 80.0, "low": 60.0, "conditions": "Sunny",
						}},
					},
				},
			},
		},
	}
}

func TestBatchRunnerOraclePerfectScore(t *testing.T) {
	registry := testRegistry(t)
	runner := replay.NewRunner(registry, batchSnapshots())
	batch := NewBatchRunner(registry, runner, WithConcurrency(2))

	conversations := []*types.Conversation{
		batchConversation("weather-0"),
		batchConversation("weather-1"),
		batchConversation("weather-2"),
	}

	report, err := batch.Run(context.Background(), conversations, func(conv *types.Conversation) replay.Predictor {
		return replay.NewOraclePredictor(conv, registry)
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Conversations)
	assert.Equal(t, 1.0, report.Metrics.Recall)
	assert.Equal(t, 1.0, report.Metrics.Precision)
	assert.True(t, report.Metrics.Success)

	for _, conv := range conversations {
		require.NotNil(t, conv.Metrics)
		assert.True(t, conv.Metrics.Success, "conversation %s", conv.Name)
	}
}

func TestBatchRunnerPersistsResults(t *testing.T) {
	registry := testRegistry(t)
	runner := replay.NewRunner(registry, batchSnapshots())
	store := resultstore.NewMemoryStore()
	batch := NewBatchRunner(registry, runner, WithResultStore(store))

	conversations := []*types.Conversation{
		batchConversation("weather-0"),
		batchConversation("weather-1"),
	}

	report, err := batch.Run(context.Background(), conversations, func(conv *types.Conversation) replay.Predictor {
		return replay.NewOraclePredictor(conv, registry)
	})
	require.NoError(t, err)

	ids, err := store.List(context.Background(), resultstore.ListOptions{RunID: report.RunID})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	result, err := store.Load(context.Background(), resultstore.ResultID(report.RunID, "weather-0"))
	require.NoError(t, err)
	assert.Equal(t, report.RunID, result.RunID)
	require.NotNil(t, result.Conversation.Metrics)
	assert.True(t, result.Conversation.Metrics.Success)
}

func TestBatchRunnerPropagatesReplayError(t *testing.T) {
	registry := testRegistry(t)
	runner := replay.NewRunner(registry, batchSnapshots())
	batch := NewBatchRunner(registry, runner)

	broken := batchConversation("broken")
	broken.Metadata.Timestamp = "not a time"

	_, err := batch.Run(context.Background(),
		[]*types.Conversation{broken},
		func(conv *types.Conversation) replay.Predictor {
			return replay.NewOraclePredictor(conv, registry)
		})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestBatchRunnerManyConversations(t *testing.T) {
	registry := testRegistry(t)
	runner := replay.NewRunner(registry, batchSnapshots())
	batch := NewBatchRunner(registry, runner, WithConcurrency(8))

	var conversations []*types.Conversation
	for i := 0; i < 20; i++ {
		conversations = append(conversations, batchConversation(fmt.Sprintf("weather-%d", i)))
	}

	report, err := batch.Run(context.Background(), conversations, func(conv *types.Conversation) replay.Predictor {
		return replay.NewOraclePredictor(conv, registry)
	})
	require.NoError(t, err)
	assert.Equal(t, 20, report.Conversations)
	assert.True(t, report.Metrics.Success)
}
