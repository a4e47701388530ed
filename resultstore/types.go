package resultstore

import (
	"fmt"
	"time"

	"github.com/AltairaLabs/ReplayKit/types"
)

// Result is one stored evaluation outcome: a replayed and scored
// conversation together with the run that produced it. The embedded
// conversation carries the predictions and metrics written by the
// replay runner and the scorer.
type Result struct {
	ID           string              `json:"id"`
	RunID        string              `json:"run_id,omitempty"`
	Conversation *types.Conversation `json:"conversation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewResult builds a Result for a scored conversation. The ID combines
// the run ID with the conversation name so one run can hold many
// conversations and the same conversation can appear across runs.
func NewResult(runID string, conv *types.Conversation) *Result {
	return &Result{
		ID:           ResultID(runID, conv.Name),
		RunID:        runID,
		Conversation: conv,
		CreatedAt:    time.Now(),
	}
}

// ResultID derives the storage key for a conversation within a run.
func ResultID(runID, conversationName string) string {
	return fmt.Sprintf("%s/%s", runID, conversationName)
}

// Sort fields accepted by ListOptions.SortBy.
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
)

// defaultTTLHours is the default retention for Redis-backed results.
const defaultTTLHours = 24
