// Package types defines the canonical record types shared across ReplayKit:
// conversations, turns, tool invocation records, and evaluation metrics.
// These types mirror the on-disk dataset format, so JSON field names are
// part of the contract.
package types

import "time"

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Timestamp layouts used throughout the simulated services.
const (
	// TimestampLayout is the full date-time layout for conversation clocks,
	// event times, email dates, and reminder due dates.
	TimestampLayout = "2006-01-02 15:04:05"
	// ClockLayout is the standalone time-of-day layout used by alarms.
	ClockLayout = "15:04:05"
	// DateLayout is the date-only layout used by weather records.
	DateLayout = "2006-01-02"
)

// Metadata carries the fixed context of a conversation: the simulated
// "current time", the user's location, and optionally the acting username.
type Metadata struct {
	Timestamp string `json:"timestamp"`
	Location  string `json:"location,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Clock parses the conversation timestamp. A conversation without a valid
// timestamp cannot be replayed.
func (m Metadata) Clock() (time.Time, error) {
	return time.Parse(TimestampLayout, m.Timestamp)
}

// UserFixture declares the starting account state for a conversation.
// A non-empty SessionToken means the user begins the conversation logged
// in; a non-empty VerificationCode means a password reset is pending.
// These are dataset fixtures assumed valid: forcing them into the account
// store must not fail on a well-formed dataset.
type UserFixture struct {
	Username         string `json:"username,omitempty"`
	SessionToken     string `json:"session_token,omitempty"`
	VerificationCode string `json:"verification_code,omitempty"`
}

// Turn is a single conversation turn. User turns carry only text.
// Assistant turns carry the reference text, the ground-truth tool
// invocations made before that text (APIs), and, after replay, the
// predictor's invocations and final reply (Predictions).
type Turn struct {
	Role        string        `json:"role"`
	Text        string        `json:"text,omitempty"`
	APIs        []*Invocation `json:"apis,omitempty"`
	Predictions []*Event      `json:"predictions,omitempty"`
}

// Conversation is one complete replay unit: metadata, starting user state,
// and the ordered turns. Metrics is populated by the scorer.
type Conversation struct {
	Name       string       `json:"name,omitempty"`
	Metadata   Metadata     `json:"metadata"`
	User       *UserFixture `json:"user,omitempty"`
	APIsUsed   []string     `json:"apis_used,omitempty"`
	SuitesUsed []string     `json:"suites_used,omitempty"`
	Turns      []*Turn      `json:"conversation"`
	Metrics    *Metrics     `json:"metrics,omitempty"`
}

// GroundTruths returns all ground-truth invocations across the
// conversation, flattened in turn order.
func (c *Conversation) GroundTruths() []*Invocation {
	var out []*Invocation
	for _, turn := range c.Turns {
		out = append(out, turn.APIs...)
	}
	return out
}

// PredictedInvocations returns all predicted tool-role invocations across
// the conversation, flattened in turn order. The final assistant reply in
// each prediction list is excluded.
func (c *Conversation) PredictedInvocations() []*Invocation {
	var out []*Invocation
	for _, turn := range c.Turns {
		for _, p := range turn.Predictions {
			if p.Role == RoleTool && p.Invocation != nil {
				out = append(out, p.Invocation)
			}
		}
	}
	return out
}
