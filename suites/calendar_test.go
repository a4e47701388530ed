package suites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/ReplayKit/simstate"
	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

func calendarEvent(id, name, eventType, start, end string) map[string]any {
	return map[string]any{
		"event_id":    id,
		"name":        name,
		"event_type":  eventType,
		"description": nil,
		"start_time":  start,
		"end_time":    end,
		"location":    nil,
		"attendees":   nil,
	}
}

func TestCreateEvent(t *testing.T) {
	env := testEnv(t, simstate.Database{})
	create := toolByName(t, CalendarSuite(Config{}), "CreateEvent")

	t.Run("success", func(t *testing.T) {
		response, err := create.Execute(env, map[string]any{
			"session_token": justinToken,
			"name":          "Dentist",
			"event_type":    "event",
			"start_time":    "2023-09-12 10:00:00",
			"end_time":      "2023-09-12 11:00:00",
			"location":      "Downtown clinic",
		})
		require.NoError(t, err)
		id := response.(map[string]any)["event_id"].(string)
		assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}$`, id)

		events, ok := env.Database.Record("justinkool")
		require.True(t, ok)
		event := events[id].(map[string]any)
		assert.Equal(t, "Dentist", event["name"])
		assert.Equal(t, "Downtown clinic", event["location"])
		assert.Nil(t, event["attendees"])
	})

	t.Run("meeting adds organizer to attendees", func(t *testing.T) {
		response, err := create.Execute(env, map[string]any{
			"session_token": justinToken,
			"name":          "Planning",
			"event_type":    "meeting",
			"start_time":    "2023-09-12 14:00:00",
			"end_time":      "2023-09-12 15:00:00",
			"attendees":     []any{"mstein"},
		})
		require.NoError(t, err)
		id := response.(map[string]any)["event_id"].(string)
		events, _ := env.Database.Record("justinkool")
		event := events[id].(map[string]any)
		assert.Equal(t, []string{"mstein", "justinkool"}, event["attendees"])
	})

	t.Run("unsupported event type", func(t *testing.T) {
		_, err := create.Execute(env, map[string]any{
			"session_token": justinToken,
			"name":          "x", "event_type": "party",
			"start_time": "2023-09-12 10:00:00", "end_time": "2023-09-12 11:00:00",
		})
		requireAPIError(t, err, "Event type party not supported.")
	})

	t.Run("meeting requires attendees", func(t *testing.T) {
		_, err := create.Execute(env, map[string]any{
			"session_token": justinToken,
			"name":          "x", "event_type": "meeting",
			"start_time": "2023-09-12 10:00:00", "end_time": "2023-09-12 11:00:00",
		})
		requireAPIError(t, err, "Meeting must have attendees.")
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := create.Execute(env, map[string]any{
			"session_token": justinToken,
			"name":          "x", "event_type": "event",
			"start_time": "2023-09-12 11:00:00", "end_time": "2023-09-12 10:00:00",
		})
		requireAPIError(t, err, "Start time must be before end time.")
	})

	t.Run("event in the past", func(t *testing.T) {
		_, err := create.Execute(env, map[string]any{
			"session_token": justinToken,
			"name":          "x", "event_type": "event",
			"start_time": "2023-09-10 10:00:00", "end_time": "2023-09-10 11:00:00",
		})
		requireAPIError(t, err, "Start time and end time must be in the future.")
	})
}

func TestDeleteEvent(t *testing.T) {
	env := testEnv(t, simstate.Database{
		"justinkool": map[string]any{
			"abcd1234-0001": calendarEvent("abcd1234-0001", "Standup", "event",
				"2023-09-12 09:00:00", "2023-09-12 09:15:00"),
		},
	})
	del := toolByName(t, CalendarSuite(Config{}), "DeleteEvent")

	_, err := del.Execute(env, map[string]any{
		"session_token": justinToken, "event_id": "missing",
	})
	requireAPIError(t, err, "Event missing not found.")

	response, err := del.Execute(env, map[string]any{
		"session_token": justinToken, "event_id": "abcd1234-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "success"}, response)
}

func TestModifyEvent(t *testing.T) {
	newEnv := func(t *testing.T) *testEventEnv {
		env := testEnv(t, simstate.Database{
			"justinkool": map[string]any{
				"abcd1234-0001": calendarEvent("abcd1234-0001", "Standup", "event",
					"2023-09-12 09:00:00", "2023-09-12 09:15:00"),
			},
		})
		return &testEventEnv{env: env, modify: toolByName(t, CalendarSuite(Config{}), "ModifyEvent")}
	}

	t.Run("renames and moves", func(t *testing.T) {
		te := newEnv(t)
		_, err := te.modify.Execute(te.env, map[string]any{
			"session_token":  justinToken,
			"event_id":       "abcd1234-0001",
			"new_name":       "Weekly sync",
			"new_start_time": "2023-09-13 10:00:00",
			"new_end_time":   "2023-09-13 10:30:00",
		})
		require.NoError(t, err)
		event := te.event(t)
		assert.Equal(t, "Weekly sync", event["name"])
		assert.Equal(t, "2023-09-13 10:00:00", event["start_time"])
		assert.Equal(t, "2023-09-13 10:30:00", event["end_time"])
	})

	t.Run("start requires end", func(t *testing.T) {
		te := newEnv(t)
		_, err := te.modify.Execute(te.env, map[string]any{
			"session_token":  justinToken,
			"event_id":       "abcd1234-0001",
			"new_start_time": "2023-09-13 10:00:00",
		})
		requireAPIError(t, err, "new_end_time must be provided if new_start_time is provided.")
	})

	t.Run("end requires start", func(t *testing.T) {
		te := newEnv(t)
		_, err := te.modify.Execute(te.env, map[string]any{
			"session_token": justinToken,
			"event_id":      "abcd1234-0001",
			"new_end_time":  "2023-09-13 10:30:00",
		})
		requireAPIError(t, err, "new_start_time must be provided if new_end_time is provided.")
	})

	t.Run("unknown event", func(t *testing.T) {
		te := newEnv(t)
		_, err := te.modify.Execute(te.env, map[string]any{
			"session_token": justinToken, "event_id": "missing", "new_name": "x",
		})
		requireAPIError(t, err, "Event missing not found.")
	})

	t.Run("new attendees include organizer", func(t *testing.T) {
		te := newEnv(t)
		_, err := te.modify.Execute(te.env, map[string]any{
			"session_token": justinToken,
			"event_id":      "abcd1234-0001",
			"new_attendees": []any{"mstein", "justinkool"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"mstein", "justinkool"}, te.event(t)["attendees"])
	})
}

type testEventEnv struct {
	env    *tools.Env
	modify tools.Tool
}

func (te *testEventEnv) event(t *testing.T) map[string]any {
	t.Helper()
	events, ok := te.env.Database.Record("justinkool")
	require.True(t, ok)
	return events["abcd1234-0001"].(map[string]any)
}

func TestQueryCalendar(t *testing.T) {
	env := testEnv(t, simstate.Database{
		"justinkool": map[string]any{
			"aaaa0000-0001": calendarEvent("aaaa0000-0001", "Early", "event",
				"2023-09-12 08:00:00", "2023-09-12 09:00:00"),
			"aaaa0000-0002": calendarEvent("aaaa0000-0002", "Late", "event",
				"2023-09-14 08:00:00", "2023-09-14 09:00:00"),
			"aaaa0000-0003": calendarEvent("aaaa0000-0003", "Spanning", "event",
				"2023-09-11 00:00:00", "2023-09-15 00:00:00"),
		},
	})
	query := toolByName(t, CalendarSuite(Config{}), "QueryCalendar")

	ids := func(response any) []string {
		found := response.(map[string]any)["events"].([]any)
		var out []string
		for _, raw := range found {
			out = append(out, raw.(map[string]any)["event_id"].(string))
		}
		return out
	}

	t.Run("overlap semantics", func(t *testing.T) {
		response, err := query.Execute(env, map[string]any{
			"session_token": justinToken,
			"start_time":    "2023-09-12 00:00:00",
			"end_time":      "2023-09-12 23:59:59",
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"aaaa0000-0001", "aaaa0000-0003"}, ids(response))
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := query.Execute(env, map[string]any{
			"session_token": justinToken,
			"start_time":    "2023-09-13 00:00:00",
			"end_time":      "2023-09-12 00:00:00",
		})
		requireAPIError(t, err, "Start time must be before end time.")
	})

	t.Run("no events", func(t *testing.T) {
		empty := testEnv(t, simstate.Database{})
		_, err := query.Execute(empty, map[string]any{
			"session_token": justinToken,
			"start_time":    "2023-09-12 00:00:00",
			"end_time":      "2023-09-12 23:59:59",
		})
		requireAPIError(t, err, "User justinkool has no events.")
	})
}

func TestRequestParamsComparator(t *testing.T) {
	scorer := Config{}.scorer()
	compare := requestParamsComparator(scorer, false, "name")

	groundTruth := &types.Invocation{Request: types.InvocationRequest{
		ToolName: "CreateEvent",
		Parameters: map[string]any{
			"name": "Team sync meeting", "event_type": "meeting",
		},
	}}

	t.Run("semantic key tolerates phrasing", func(t *testing.T) {
		prediction := &types.Invocation{Request: types.InvocationRequest{
			ToolName: "CreateEvent",
			Parameters: map[string]any{
				"name": "team sync meeting", "event_type": "meeting",
			},
		}}
		assert.True(t, compare(prediction, groundTruth))
	})

	t.Run("exact key must match", func(t *testing.T) {
		prediction := &types.Invocation{Request: types.InvocationRequest{
			ToolName: "CreateEvent",
			Parameters: map[string]any{
				"name": "Team sync meeting", "event_type": "event",
			},
		}}
		assert.False(t, compare(prediction, groundTruth))
	})

	t.Run("missing ground truth key fails", func(t *testing.T) {
		prediction := &types.Invocation{Request: types.InvocationRequest{
			ToolName:   "CreateEvent",
			Parameters: map[string]any{"name": "Team sync meeting"},
		}}
		assert.False(t, compare(prediction, groundTruth))
	})

	t.Run("extra prediction keys are fine", func(t *testing.T) {
		prediction := &types.Invocation{Request: types.InvocationRequest{
			ToolName: "CreateEvent",
			Parameters: map[string]any{
				"name": "Team sync meeting", "event_type": "meeting", "location": "Room 4",
			},
		}}
		assert.True(t, compare(prediction, groundTruth))
	})
}
