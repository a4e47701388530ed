package suites

// Reminder database schema, keyed per user then reminder id:
//
//	reminder_id: str  (xx-xxxx)
//	task: str
//	due_date: str|null  (%Y-%m-%d %H:%M:%S)
//	status: str         (pending or complete)

import (
	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// ReminderSuite builds the reminder tools. All of them require a logged
// in user; the session token is supplied by the caller, not the model.
func ReminderSuite(cfg Config) Suite {
	return Suite{
		Name:        "Reminder",
		Description: "A suite of APIs for managing reminders for a TODO list.",
		Tools: []tools.Tool{
			newAddReminder(cfg),
			newGetReminders(),
			newDeleteReminder(),
			newCompleteReminder(),
		},
	}
}

// userReminders returns the calling user's reminder map, creating it
// when create is set.
func userReminders(env *tools.Env, params map[string]any, create bool) (map[string]any, error) {
	record, err := userByToken(env, params)
	if err != nil {
		return nil, err
	}
	username := usernameOf(record)
	reminders, ok := env.Database.Record(username)
	if !ok {
		if !create {
			return nil, nil
		}
		reminders = map[string]any{}
		env.Database[username] = reminders
	}
	return reminders, nil
}

func newAddReminder(cfg Config) tools.Tool {
	scorer := cfg.scorer()
	return &suiteTool{
		def: &tools.Definition{
			Name:        "AddReminder",
			Suite:       "Reminder",
			Description: "Add a reminder.",
			Parameters: []tools.ParamSpec{
				{Name: "task", Type: "string", Description: "The task to be reminded of.", Required: true},
				{Name: "due_date", Type: "string", Description: "Optional date the task is due, in the format of %Y-%m-%d %H:%M:%S."},
			},
			Output:       []tools.FieldSpec{{Name: "reminder_id", Type: "string", Description: "reminder_id on success"}},
			Database:     ReminderDB,
			IsAction:     true,
			RequiresAuth: true,
			Compare:      addReminderComparator(scorer),
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			reminders, err := userReminders(env, params, true)
			if err != nil {
				return nil, err
			}
			var dueDate any
			if s, ok := strParam(params, "due_date"); ok {
				if _, err := parseAt(timestampLayout, s); err != nil {
					return nil, tools.APIErrorf("Invalid due_date: %s", s)
				}
				dueDate = s
			}
			task, _ := strParam(params, "task")
			id := env.IDs.Segments(2, 4)
			reminders[id] = map[string]any{
				"reminder_id": id,
				"task":        task,
				"due_date":    dueDate,
				"status":      "pending",
			}
			return map[string]any{"reminder_id": id}, nil
		},
	}
}

func newCompleteReminder() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "CompleteReminder",
			Suite:       "Reminder",
			Description: "Complete a reminder.",
			Parameters: []tools.ParamSpec{
				{Name: "reminder_id", Type: "string", Description: "The reminder_id of the reminder to be deleted.", Required: true},
			},
			Output:       []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failure"}},
			Database:     ReminderDB,
			IsAction:     true,
			RequiresAuth: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			reminders, err := userReminders(env, params, false)
			if err != nil {
				return nil, err
			}
			id, _ := strParam(params, "reminder_id")
			raw, ok := reminders[id]
			if !ok {
				return nil, tools.APIErrorf("Reminder %s not found in database", id)
			}
			reminder, _ := raw.(map[string]any)
			if reminder["status"] == "complete" {
				return nil, tools.APIErrorf("Reminder %s already completed", id)
			}
			reminder["status"] = "complete"
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newDeleteReminder() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "DeleteReminder",
			Suite:       "Reminder",
			Description: "Delete a reminder.",
			Parameters: []tools.ParamSpec{
				{Name: "reminder_id", Type: "string", Description: "The reminder_id of the reminder to be deleted.", Required: true},
			},
			Output:       []tools.FieldSpec{{Name: "status", Type: "string", Description: "success or failure"}},
			Database:     ReminderDB,
			IsAction:     true,
			RequiresAuth: true,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			reminders, err := userReminders(env, params, false)
			if err != nil {
				return nil, err
			}
			id, _ := strParam(params, "reminder_id")
			if _, ok := reminders[id]; !ok {
				return nil, tools.APIErrorf("Reminder %s not found in database", id)
			}
			delete(reminders, id)
			return map[string]any{"status": "success"}, nil
		},
	}
}

func newGetReminders() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:         "GetReminders",
			Suite:        "Reminder",
			Description:  "Get a list of reminders.",
			Output:       []tools.FieldSpec{{Name: "reminders", Type: "array", Description: "List of reminders for user."}},
			Database:     ReminderDB,
			RequiresAuth: true,
			Compare:      getRemindersComparator,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			reminders, err := userReminders(env, params, false)
			if err != nil {
				return nil, err
			}
			out := []any{}
			for _, raw := range reminders {
				reminder, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				out = append(out, tools.DeepCopy(reminder))
			}
			return map[string]any{"reminders": out}, nil
		},
	}
}

// addReminderComparator ignores the generated reminder id. Ground truth
// parameters are all required; due_date compares at day granularity and
// task by text similarity.
func addReminderComparator(scorer tools.TextScorer) tools.Comparator {
	return func(prediction, groundTruth *types.Invocation) bool {
		if prediction.ExceptionText() != groundTruth.ExceptionText() {
			return false
		}
		for key, value := range groundTruth.Request.Parameters {
			predictValue, ok := prediction.Request.Parameters[key]
			if !ok {
				return false
			}
			switch key {
			case "due_date":
				want, wok := value.(string)
				got, gok := predictValue.(string)
				if !wok || !gok {
					return false
				}
				wantAt, werr := parseAt(timestampLayout, want)
				gotAt, gerr := parseAt(timestampLayout, got)
				if werr != nil || gerr != nil {
					return false
				}
				// time of day is irrelevant for reminders
				wy, wm, wd := wantAt.Date()
				gy, gm, gd := gotAt.Date()
				if wy != gy || wm != gm || wd != gd {
					return false
				}
			case "task":
				want, wok := value.(string)
				got, gok := predictValue.(string)
				if !wok || !gok || scorer(got, want) < 0.9 {
					return false
				}
			default:
				if !tools.JSONEqual(predictValue, value) {
					return false
				}
			}
		}
		return true
	}
}

// getRemindersComparator requires an identical request and exception,
// and that predicted reminder ids cover the ground truth's.
var getRemindersComparator tools.Comparator = func(prediction, groundTruth *types.Invocation) bool {
	if !tools.JSONEqual(prediction.Request, groundTruth.Request) {
		return false
	}
	if prediction.ExceptionText() != groundTruth.ExceptionText() {
		return false
	}
	return tools.ResponseIDSubset(prediction, groundTruth, "reminders[].reminder_id")
}
