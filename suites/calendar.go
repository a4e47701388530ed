package suites

// Calendar database schema, keyed per user then event id:
//
//	event_id: str    (xxxxxxxx-xxxx)
//	name: str
//	event_type: str  (meeting or event)
//	description: str|null
//	start_time: str  (%Y-%m-%d %H:%M:%S)
//	end_time: str
//	location: str|null
//	attendees: list(str)|null

import (
	"time"

	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

const (
	eventTypeMeeting = "meeting"
	eventTypeEvent   = "event"
)

// CalendarSuite builds the calendar tools. The session token is an
// explicit parameter here; predictors must supply it themselves.
func CalendarSuite(cfg Config) Suite {
	return Suite{
		Name:        "Calendar",
		Description: "This API lets a users manage events in their calendar.",
		Tools: []tools.Tool{
			newCreateEvent(cfg),
			newDeleteEvent(),
			newModifyEvent(cfg),
			newQueryCalendar(),
		},
	}
}

var sessionTokenParam = tools.ParamSpec{
	Name: "session_token", Type: "string", Description: "User's session_token.", Required: true,
}

func newCreateEvent(cfg Config) tools.Tool {
	scorer := cfg.scorer()
	return &suiteTool{
		def: &tools.Definition{
			Name:        "CreateEvent",
			Suite:       "Calendar",
			Description: "Adds events to a user's calendar.",
			Parameters: []tools.ParamSpec{
				sessionTokenParam,
				{Name: "name", Type: "string", Description: "The name of the event.", Required: true},
				{Name: "event_type", Type: "string", Description: "The type of the event, either 'meeting' or 'event'.", Required: true},
				{Name: "description", Type: "string", Description: "The description of the event, no more than 1024 characters."},
				{Name: "start_time", Type: "string", Description: "The start time of the event, in the pattern of %Y-%m-%d %H:%M:%S", Required: true},
				{Name: "end_time", Type: "string", Description: "The end time of the event, in the pattern of %Y-%m-%d %H:%M:%S.", Required: true},
				{Name: "location", Type: "string", Description: "Optional, the location where the event is to be held."},
				{Name: "attendees", Type: "array", ItemType: "string", Description: "The attendees as an array of usernames. Required if event type is meeting."},
			},
			Output:   []tools.FieldSpec{{Name: "event_id", Type: "string", Description: "event id on success. None on failure."}},
			Database: CalendarDB,
			IsAction: true,
			Compare:  requestParamsComparator(scorer, false, "name", "description", "location"),
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			eventType, _ := strParam(params, "event_type")
			if eventType != eventTypeMeeting && eventType != eventTypeEvent {
				return nil, tools.APIErrorf("Event type %s not supported.", eventType)
			}
			attendees, hasAttendees := strListParam(params, "attendees")
			if eventType == eventTypeMeeting && len(attendees) == 0 {
				return nil, tools.NewAPIError("Meeting must have attendees.")
			}
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			username := usernameOf(record)

			startTime, _ := strParam(params, "start_time")
			endTime, _ := strParam(params, "end_time")
			start, err := parseAt(timestampLayout, startTime)
			if err != nil {
				return nil, err
			}
			end, err := parseAt(timestampLayout, endTime)
			if err != nil {
				return nil, err
			}
			if start.After(end) {
				return nil, tools.NewAPIError("Start time must be before end time.")
			}
			if start.Before(env.Now) || end.Before(env.Now) {
				return nil, tools.NewAPIError("Start time and end time must be in the future.")
			}

			var attendeeList any
			if hasAttendees {
				attendeeList = withSelf(attendees, username)
			}
			var description, location any
			if s, ok := strParam(params, "description"); ok {
				description = s
			}
			if s, ok := strParam(params, "location"); ok {
				location = s
			}
			name, _ := strParam(params, "name")

			id := env.IDs.Segments(8, 4)
			event := map[string]any{
				"event_id":    id,
				"name":        name,
				"event_type":  eventType,
				"description": description,
				"start_time":  startTime,
				"end_time":    endTime,
				"location":    location,
				"attendees":   attendeeList,
			}
			events, ok := env.Database.Record(username)
			if !ok {
				events = map[string]any{}
				env.Database[username] = events
			}
			events[id] = event
			return map[string]any{"event_id": id}, nil
		},
	}
}

func newDeleteEvent() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "DeleteEvent",
			Suite:       "Calendar",
			Description: "Deletes events from a user's calendar.",
			Parameters: []tools.ParamSpec{
				sessionTokenParam,
				{Name: "event_id", Type: "string", Description: "The id of the event to be deleted.", Required: true},
			},
			Output:   []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failed"}},
			Database: CalendarDB,
			IsAction: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			id, _ := strParam(params, "event_id")
			events, ok := env.Database.Record(usernameOf(record))
			if !ok {
				return nil, tools.APIErrorf("Event %s not found.", id)
			}
			if _, ok := events[id]; !ok {
				return nil, tools.APIErrorf("Event %s not found.", id)
			}
			delete(events, id)
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newModifyEvent(cfg Config) tools.Tool {
	scorer := cfg.scorer()
	return &suiteTool{
		def: &tools.Definition{
			Name:        "ModifyEvent",
			Suite:       "Calendar",
			Description: "Allows modification of an existing event.",
			Parameters: []tools.ParamSpec{
				sessionTokenParam,
				{Name: "event_id", Type: "string", Description: "The id of the event to be modified.", Required: true},
				{Name: "new_name", Type: "string", Description: "The new name of the event."},
				{Name: "new_start_time", Type: "string", Description: "The new start time of the event."},
				{Name: "new_end_time", Type: "string", Description: "The new end time of the event. Required if new_start_time is provided."},
				{Name: "new_description", Type: "string", Description: "The new description of the event."},
				{Name: "new_location", Type: "string", Description: "The new location of the event."},
				{Name: "new_attendees", Type: "array", ItemType: "string", Description: "The new attendees of the event. Array of usernames."},
			},
			Output:   []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failed"}},
			Database: CalendarDB,
			IsAction: true,
			Compare:  requestParamsComparator(scorer, true, "new_name", "new_description", "new_location"),
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			username := usernameOf(record)
			id, _ := strParam(params, "event_id")
			events, ok := env.Database.Record(username)
			if !ok {
				return nil, tools.APIErrorf("Event %s not found.", id)
			}
			raw, ok := events[id]
			if !ok {
				return nil, tools.APIErrorf("Event %s not found.", id)
			}
			event, _ := raw.(map[string]any)

			if name, ok := strParam(params, "new_name"); ok {
				event["name"] = name
			}
			newStart, hasStart := strParam(params, "new_start_time")
			newEnd, hasEnd := strParam(params, "new_end_time")
			if hasStart {
				if !hasEnd {
					return nil, tools.NewAPIError("new_end_time must be provided if new_start_time is provided.")
				}
				start, err := parseAt(timestampLayout, newStart)
				if err != nil {
					return nil, err
				}
				end, err := parseAt(timestampLayout, newEnd)
				if err != nil {
					return nil, err
				}
				if start.After(end) {
					return nil, tools.NewAPIError("Start time must be before end time.")
				}
				if start.Before(env.Now) || end.Before(env.Now) {
					return nil, tools.NewAPIError("Start time and end time must be in the future.")
				}
				event["start_time"] = newStart
			}
			if hasEnd {
				if !hasStart {
					return nil, tools.NewAPIError("new_start_time must be provided if new_end_time is provided.")
				}
				event["end_time"] = newEnd
			}
			if description, ok := strParam(params, "new_description"); ok {
				event["description"] = description
			}
			if location, ok := strParam(params, "new_location"); ok {
				event["location"] = location
			}
			if attendees, ok := strListParam(params, "new_attendees"); ok {
				event["attendees"] = withSelf(attendees, username)
			}
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newQueryCalendar() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "QueryCalendar",
			Suite:       "Calendar",
			Description: "Query for events that occur in a time range.",
			Parameters: []tools.ParamSpec{
				sessionTokenParam,
				{Name: "start_time", Type: "string", Description: "The start time of the meeting, in the pattern of %Y-%m-%d %H:%M:%S", Required: true},
				{Name: "end_time", Type: "string", Description: "The end time of the meeting, in the pattern of %Y-%m-%d %H:%M:%S", Required: true},
			},
			Output:   []tools.FieldSpec{{Name: "events", Type: "array", Description: "list of events starting or ending in the time range"}},
			Database: CalendarDB,
			Compare:  calendarQueryComparator,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			username := usernameOf(record)
			events, ok := env.Database.Record(username)
			if !ok {
				return nil, tools.APIErrorf("User %s has no events.", username)
			}
			startTime, _ := strParam(params, "start_time")
			endTime, _ := strParam(params, "end_time")
			start, err := parseAt(timestampLayout, startTime)
			if err != nil {
				return nil, err
			}
			end, err := parseAt(timestampLayout, endTime)
			if err != nil {
				return nil, err
			}
			if start.After(end) {
				return nil, tools.NewAPIError("Start time must be before end time.")
			}

			found := []any{}
			for _, raw := range events {
				event, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				startStr, _ := event["start_time"].(string)
				endStr, _ := event["end_time"].(string)
				eventStart, err := parseAt(timestampLayout, startStr)
				if err != nil {
					continue
				}
				eventEnd, err := parseAt(timestampLayout, endStr)
				if err != nil {
					continue
				}
				within := func(t, lo, hi time.Time) bool { return !t.Before(lo) && !t.After(hi) }
				if within(eventStart, start, end) || within(eventEnd, start, end) ||
					(!eventStart.After(start) && !eventEnd.Before(end)) {
					found = append(found, tools.DeepCopy(event))
				}
			}
			return map[string]any{"events": found}, nil
		},
	}
}

// withSelf appends username when it is not already an attendee.
func withSelf(attendees []string, username string) []string {
	for _, a := range attendees {
		if a == username {
			return attendees
		}
	}
	out := make([]string, 0, len(attendees)+1)
	out = append(out, attendees...)
	return append(out, username)
}

// requestParamsComparator accepts a prediction whose parameters cover
// every ground truth parameter. Parameters named in semanticKeys compare
// by text similarity at a 0.9 threshold, the rest by equality. The
// response is checked only when compareResponse is set; exceptions
// always are.
func requestParamsComparator(scorer tools.TextScorer, compareResponse bool, semanticKeys ...string) tools.Comparator {
	semantic := map[string]bool{}
	for _, k := range semanticKeys {
		semantic[k] = true
	}
	return func(prediction, groundTruth *types.Invocation) bool {
		if prediction.ExceptionText() != groundTruth.ExceptionText() {
			return false
		}
		if compareResponse && !tools.JSONEqual(prediction.Response, groundTruth.Response) {
			return false
		}
		for key, value := range groundTruth.Request.Parameters {
			predictValue, ok := prediction.Request.Parameters[key]
			if !ok || predictValue == nil {
				return false
			}
			if semantic[key] {
				want, wok := value.(string)
				got, gok := predictValue.(string)
				if !wok || !gok || scorer(want, got) < 0.9 {
					return false
				}
				continue
			}
			if !tools.JSONEqual(predictValue, value) {
				return false
			}
		}
		return true
	}
}

// calendarQueryComparator accepts a prediction whose returned event ids
// cover the ground truth's, with matching session and exception.
var calendarQueryComparator tools.Comparator = func(prediction, groundTruth *types.Invocation) bool {
	if prediction.ExceptionText() != groundTruth.ExceptionText() {
		return false
	}
	if !tools.SameSessionToken(prediction, groundTruth) {
		return false
	}
	return tools.ResponseIDSubset(prediction, groundTruth, "events[].event_id")
}
