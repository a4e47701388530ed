package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AltairaLabs/ReplayKit/types"
)

func invocation(tool string, params map[string]any, response any, exception string) *types.Invocation {
	inv := &types.Invocation{
		Role: types.RoleTool,
		Request: types.InvocationRequest{
			ToolName:   tool,
			Parameters: params,
		},
		Response: response,
	}
	if exception != "" {
		inv.Exception = &exception
	}
	return inv
}

func TestDefaultComparator(t *testing.T) {
	gt := invocation("CurrentWeather",
		map[string]any{"location": "San Francisco"},
		map[string]any{"weather": map[string]any{"high": 80}}, "")

	match := invocation("CurrentWeather",
		map[string]any{"location": "San Francisco"},
		map[string]any{"weather": map[string]any{"high": 80}}, "")
	assert.True(t, DefaultComparator(match, gt))

	wrongParam := invocation("CurrentWeather",
		map[string]any{"location": "Seattle"},
		map[string]any{"weather": map[string]any{"high": 80}}, "")
	assert.False(t, DefaultComparator(wrongParam, gt))

	wrongResponse := invocation("CurrentWeather",
		map[string]any{"location": "San Francisco"},
		map[string]any{"weather": map[string]any{"high": 60}}, "")
	assert.False(t, DefaultComparator(wrongResponse, gt))
}

func TestDefaultComparatorExtraOptionalParam(t *testing.T) {
	gt := invocation("FindAlarms", map[string]any{}, map[string]any{"alarms": []any{}}, "")
	pred := invocation("FindAlarms",
		map[string]any{"start_range": "08:00:00"},
		map[string]any{"alarms": []any{}}, "")

	// Ground-truth parameters constrain the prediction, not the reverse.
	assert.True(t, DefaultComparator(pred, gt))
	assert.False(t, DefaultComparator(gt, pred))
}

func TestDefaultComparatorExceptions(t *testing.T) {
	gt := invocation("DeleteAlarm", map[string]any{"alarm_id": "x"}, nil, "Alarm x not found.")

	same := invocation("DeleteAlarm", map[string]any{"alarm_id": "x"}, nil, "Alarm x not found.")
	assert.True(t, DefaultComparator(same, gt))

	succeeded := invocation("DeleteAlarm", map[string]any{"alarm_id": "x"}, map[string]any{"status": "success"}, "")
	assert.False(t, DefaultComparator(succeeded, gt))
}

func TestIgnoreResponseComparator(t *testing.T) {
	gt := invocation("AddAlarm", map[string]any{"time": "08:00:00"},
		map[string]any{"alarm_id": "5bff-dd80"}, "")
	pred := invocation("AddAlarm", map[string]any{"time": "08:00:00"},
		map[string]any{"alarm_id": "0000-1111"}, "")

	// Freshly generated IDs differ between runs and must not count.
	assert.True(t, IgnoreResponseComparator(pred, gt))

	failed := invocation("AddAlarm", map[string]any{"time": "08:00:00"}, nil, "User is not logged in")
	assert.False(t, IgnoreResponseComparator(failed, gt))
}

func TestSameSessionToken(t *testing.T) {
	a := invocation("LogoutUser", map[string]any{"session_token": "abc"}, nil, "")
	b := invocation("LogoutUser", map[string]any{"session_token": "abc"}, nil, "")
	c := invocation("LogoutUser", map[string]any{"session_token": "xyz"}, nil, "")

	assert.True(t, SameSessionToken(a, b))
	assert.False(t, SameSessionToken(a, c))
}

func TestResponseIDSubset(t *testing.T) {
	gt := invocation("SearchInbox", map[string]any{},
		map[string]any{"emails": []any{
			map[string]any{"email_id": "aa-bbbb"},
		}}, "")
	pred := invocation("SearchInbox", map[string]any{},
		map[string]any{"emails": []any{
			map[string]any{"email_id": "aa-bbbb"},
			map[string]any{"email_id": "cc-dddd"},
		}}, "")

	// The prediction may return more, never less.
	assert.True(t, ResponseIDSubset(pred, gt, "emails[].email_id"))
	assert.False(t, ResponseIDSubset(gt, pred, "emails[].email_id"))

	empty := invocation("SearchInbox", map[string]any{}, map[string]any{"emails": []any{}}, "")
	assert.True(t, ResponseIDSubset(pred, empty, "emails[].email_id"))
	assert.False(t, ResponseIDSubset(invocation("SearchInbox", nil, nil, ""), gt, "emails[].email_id"))
}

func TestJSONEqualNormalizesNumbers(t *testing.T) {
	// A live int result equals its persisted float64 form.
	assert.True(t, JSONEqual(map[string]any{"high": 80}, map[string]any{"high": 80.0}))
	assert.False(t, JSONEqual(map[string]any{"high": 80}, map[string]any{"high": 81.0}))
	assert.True(t, JSONEqual(nil, nil))
}

func TestDeepCopyDetaches(t *testing.T) {
	original := map[string]any{"nested": map[string]any{"value": "a"}}
	copied := DeepCopy(original)
	copied["nested"].(map[string]any)["value"] = "b"
	assert.Equal(t, "a", original["nested"].(map[string]any)["value"])
}

func TestDefaultTextScorer(t *testing.T) {
	assert.Equal(t, 1.0, DefaultTextScorer("team meeting", "team meeting"))
	assert.Equal(t, 1.0, DefaultTextScorer("", ""))
	assert.Equal(t, 0.0, DefaultTextScorer("alpha", "omega"))

	score := DefaultTextScorer("Weekly team sync", "weekly team sync meeting")
	assert.Greater(t, score, 0.5)
	assert.Less(t, score, 1.0)
}
