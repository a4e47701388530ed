package types

import (
	"encoding/json"
	"fmt"
)

// InvocationRequest identifies the tool and the final parameters it was
// (or would be) called with, including any engine-injected session token.
type InvocationRequest struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

// Invocation is a single tool invocation record. Exactly one of Response
// and Exception is non-nil. Match and BadAction are annotated by the
// scorer after replay; they are absent on unscored records.
type Invocation struct {
	Role      string            `json:"role"`
	Request   InvocationRequest `json:"request"`
	Response  any               `json:"response"`
	Exception *string           `json:"exception"`
	Match     *bool             `json:"match,omitempty"`
	BadAction *bool             `json:"bad_action,omitempty"`
}

// Failed reports whether the invocation ended in an exception.
func (inv *Invocation) Failed() bool {
	return inv.Exception != nil
}

// ExceptionText returns the exception message, or "" on success.
func (inv *Invocation) ExceptionText() string {
	if inv.Exception == nil {
		return ""
	}
	return *inv.Exception
}

// SetMatch records the scorer's match verdict.
func (inv *Invocation) SetMatch(matched bool) {
	inv.Match = &matched
}

// SetBadAction records the scorer's bad-action verdict.
func (inv *Invocation) SetBadAction(bad bool) {
	inv.BadAction = &bad
}

// Event is one element of the rolling conversation history fed to a
// predictor, and also the element type of a turn's prediction list. It is
// a union: text events (user or assistant) carry Text, tool events carry
// the invocation record. Its JSON form is flat, matching the dataset
// format: {"role":"user","text":...} or {"role":"tool","request":...}.
type Event struct {
	Role       string
	Text       string
	Invocation *Invocation
}

// TextEvent builds a user or assistant text event.
func TextEvent(role, text string) *Event {
	return &Event{Role: role, Text: text}
}

// ToolEvent wraps an invocation record as a history event.
func ToolEvent(inv *Invocation) *Event {
	return &Event{Role: RoleTool, Invocation: inv}
}

// MarshalJSON flattens the union into the dataset wire format.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Role == RoleTool {
		if e.Invocation == nil {
			return nil, fmt.Errorf("tool event has no invocation record")
		}
		return json.Marshal(e.Invocation)
	}
	return json.Marshal(struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}{Role: e.Role, Text: e.Text})
}

// UnmarshalJSON restores the union from the flat wire format.
func (e *Event) UnmarshalJSON(data []byte) error {
	var head struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Role == RoleTool {
		var inv Invocation
		if err := json.Unmarshal(data, &inv); err != nil {
			return err
		}
		e.Role = RoleTool
		e.Invocation = &inv
		e.Text = ""
		return nil
	}
	var body struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	e.Role = body.Role
	e.Text = body.Text
	e.Invocation = nil
	return nil
}
