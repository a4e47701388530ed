package suites

// Alarm database schema, keyed per user then alarm id:
//
//	alarm_id: str  (xxxx-xxxx)
//	time: str      (HH:MM:SS)

import (
	"time"

	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// AlarmSuite builds the alarm tools. All of them require a logged in
// user; the session token is supplied by the caller, not the model.
func AlarmSuite() Suite {
	return Suite{
		Name:        "Alarm",
		Description: "This API contains tools for managing alarms for users.",
		Tools: []tools.Tool{
			newAddAlarm(),
			newDeleteAlarm(),
			newFindAlarms(),
		},
	}
}

// userAlarms returns the calling user's alarm map, creating it when
// create is set.
func userAlarms(env *tools.Env, params map[string]any, create bool) (string, map[string]any, error) {
	record, err := userByToken(env, params)
	if err != nil {
		return "", nil, err
	}
	username := usernameOf(record)
	alarms, ok := env.Database.Record(username)
	if !ok {
		if !create {
			return username, nil, nil
		}
		alarms = map[string]any{}
		env.Database[username] = alarms
	}
	return username, alarms, nil
}

func newAddAlarm() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "AddAlarm",
			Suite:       "Alarm",
			Description: "Adds an alarm for a set time.",
			Parameters: []tools.ParamSpec{
				{Name: "time", Type: "string", Description: "The time for alarm. Format: %H:%M:%S", Required: true},
			},
			Output:       []tools.FieldSpec{{Name: "alarm_id", Type: "string", Description: "Alarm ID. Format: xxxx-xxxx."}},
			Database:     AlarmDB,
			IsAction:     true,
			RequiresAuth: true,
			Compare:      tools.IgnoreResponseComparator,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			_, alarms, err := userAlarms(env, params, true)
			if err != nil {
				return nil, err
			}
			at, _ := strParam(params, "time")
			if _, err := parseAt(clockLayout, at); err != nil {
				return nil, err
			}
			id := env.IDs.Segments(4, 4)
			alarms[id] = map[string]any{"alarm_id": id, "time": at}
			return map[string]any{"alarm_id": id}, nil
		},
	}
}

func newDeleteAlarm() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "DeleteAlarm",
			Suite:       "Alarm",
			Description: "Deletes an alarm given an alarm_id.",
			Parameters: []tools.ParamSpec{
				{Name: "alarm_id", Type: "string", Description: "Alarm ID. Format: xxxx-xxxx.", Required: true},
			},
			Output:       []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failed"}},
			Database:     AlarmDB,
			IsAction:     true,
			RequiresAuth: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			_, alarms, err := userAlarms(env, params, false)
			if err != nil {
				return nil, err
			}
			id, _ := strParam(params, "alarm_id")
			if alarms == nil {
				return nil, tools.APIErrorf("Alarm %s not found.", id)
			}
			if _, ok := alarms[id]; !ok {
				return nil, tools.APIErrorf("Alarm %s not found.", id)
			}
			delete(alarms, id)
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newFindAlarms() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "FindAlarms",
			Suite:       "Alarm",
			Description: "Finds alarms the user has set.",
			Parameters: []tools.ParamSpec{
				{Name: "start_range", Type: "string", Description: "Optional starting time range to find alarms. Format: %H:%M:%S"},
				{Name: "end_range", Type: "string", Description: "Optional ending time range to find alarms. Format: %H:%M:%S"},
			},
			Output:       []tools.FieldSpec{{Name: "alarms", Type: "array", Description: "list of alarms in the given time range."}},
			Database:     AlarmDB,
			RequiresAuth: true,
			Compare:      alarmQueryComparator,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			_, alarms, err := userAlarms(env, params, false)
			if err != nil {
				return nil, err
			}
			if alarms == nil {
				return map[string]any{"alarms": []any{}}, nil
			}
			var startRange, endRange *time.Time
			if s, ok := strParam(params, "start_range"); ok {
				t, err := parseAt(clockLayout, s)
				if err != nil {
					return nil, err
				}
				startRange = &t
			}
			if s, ok := strParam(params, "end_range"); ok {
				t, err := parseAt(clockLayout, s)
				if err != nil {
					return nil, err
				}
				endRange = &t
			}
			if startRange != nil && endRange != nil && startRange.After(*endRange) {
				return nil, tools.NewAPIError("Start range must be earlier than end range.")
			}
			found := []any{}
			for _, v := range alarms {
				alarm, ok := v.(map[string]any)
				if !ok {
					continue
				}
				at, _ := alarm["time"].(string)
				t, err := parseAt(clockLayout, at)
				if err != nil {
					continue
				}
				if startRange != nil && t.Before(*startRange) {
					continue
				}
				if endRange != nil && t.After(*endRange) {
					continue
				}
				found = append(found, tools.DeepCopy(alarm))
			}
			return map[string]any{"alarms": found}, nil
		},
	}
}

// alarmQueryComparator accepts a prediction whose returned alarm ids
// cover the ground truth's, with matching session and exception.
var alarmQueryComparator tools.Comparator = func(prediction, groundTruth *types.Invocation) bool {
	if prediction.ExceptionText() != groundTruth.ExceptionText() {
		return false
	}
	if !tools.SameSessionToken(prediction, groundTruth) {
		return false
	}
	return tools.ResponseIDSubset(prediction, groundTruth, "alarms[].alarm_id")
}
