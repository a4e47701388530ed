package dataset

import (
	"fmt"
	"sort"

	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// ValidateConversation checks a conversation's structural integrity:
// a parseable clock, user/assistant role alternation starting with the
// user, well-formed invocation records, and fixture consistency. With a
// non-nil registry it additionally checks that every invoked tool exists
// and that apis_used and suites_used cover exactly the tools invoked.
func ValidateConversation(conv *types.Conversation, registry *tools.Registry) error {
	if conv == nil {
		return fmt.Errorf("conversation is nil")
	}
	if len(conv.Turns) == 0 {
		return fmt.Errorf("conversation %s has no turns", conv.Name)
	}
	if _, err := conv.Metadata.Clock(); err != nil {
		return fmt.Errorf("conversation %s: %w", conv.Name, err)
	}
	if err := validateFixture(conv); err != nil {
		return fmt.Errorf("conversation %s: %w", conv.Name, err)
	}

	for i, turn := range conv.Turns {
		if err := validateTurn(i, turn); err != nil {
			return fmt.Errorf("conversation %s: %w", conv.Name, err)
		}
	}

	if registry != nil {
		if err := validateToolUsage(conv, registry); err != nil {
			return fmt.Errorf("conversation %s: %w", conv.Name, err)
		}
	}
	return nil
}

func validateTurn(index int, turn *types.Turn) error {
	want := types.RoleUser
	if index%2 == 1 {
		want = types.RoleAssistant
	}
	if turn.Role != want {
		return fmt.Errorf("turn %d: role %q, want %q", index, turn.Role, want)
	}

	switch turn.Role {
	case types.RoleUser:
		if turn.Text == "" {
			return fmt.Errorf("turn %d: user turn has no text", index)
		}
		if len(turn.APIs) > 0 {
			return fmt.Errorf("turn %d: user turn carries tool invocations", index)
		}
	case types.RoleAssistant:
		for j, inv := range turn.APIs {
			if err := validateInvocation(inv); err != nil {
				return fmt.Errorf("turn %d invocation %d: %w", index, j, err)
			}
		}
	}
	return nil
}

func validateInvocation(inv *types.Invocation) error {
	if inv == nil {
		return fmt.Errorf("invocation is nil")
	}
	if inv.Request.ToolName == "" {
		return fmt.Errorf("missing tool name")
	}
	if inv.Request.Parameters == nil {
		return fmt.Errorf("missing parameters")
	}
	if inv.Exception != nil && inv.Response != nil {
		return fmt.Errorf("both response and exception set")
	}
	return nil
}

// validateFixture checks that the user fixture and metadata agree on who
// is acting.
func validateFixture(conv *types.Conversation) error {
	if conv.User == nil {
		return nil
	}
	if conv.User.SessionToken != "" && conv.User.Username == "" {
		return fmt.Errorf("user fixture has a session token but no username")
	}
	if conv.User.Username != "" && conv.Metadata.Username != "" &&
		conv.User.Username != conv.Metadata.Username {
		return fmt.Errorf("user fixture username %q does not match metadata username %q",
			conv.User.Username, conv.Metadata.Username)
	}
	return nil
}

// validateToolUsage checks that the invoked tools match the declared
// apis_used and suites_used lists exactly.
func validateToolUsage(conv *types.Conversation, registry *tools.Registry) error {
	invoked := map[string]bool{}
	suites := map[string]bool{}
	for _, inv := range conv.GroundTruths() {
		name := inv.Request.ToolName
		tool, err := registry.Resolve(name)
		if err != nil {
			return fmt.Errorf("unknown tool %s", name)
		}
		invoked[name] = true
		suites[tool.Definition().Suite] = true
	}

	declared := map[string]bool{}
	for _, name := range conv.APIsUsed {
		if !registry.Has(name) {
			return fmt.Errorf("apis_used lists unknown tool %s", name)
		}
		declared[name] = true
	}
	if missing := difference(invoked, declared); len(missing) > 0 {
		return fmt.Errorf("apis_used missing invoked tools: %v", missing)
	}
	if extra := difference(declared, invoked); len(extra) > 0 {
		return fmt.Errorf("apis_used lists uninvoked tools: %v", extra)
	}

	declaredSuites := map[string]bool{}
	for _, name := range conv.SuitesUsed {
		declaredSuites[name] = true
	}
	if missing := difference(suites, declaredSuites); len(missing) > 0 {
		return fmt.Errorf("suites_used missing suites: %v", missing)
	}
	if extra := difference(declaredSuites, suites); len(extra) > 0 {
		return fmt.Errorf("suites_used lists unused suites: %v", extra)
	}
	return nil
}

// difference returns the keys of a not present in b, sorted.
func difference(a, b map[string]bool) []string {
	var out []string
	for key := range a {
		if !b[key] {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
