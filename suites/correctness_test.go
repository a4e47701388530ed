package suites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/ReplayKit/types"
)

func recorded(toolName string, params map[string]any, response any) *types.Invocation {
	return &types.Invocation{
		Role:     types.RoleTool,
		Request:  types.InvocationRequest{ToolName: toolName, Parameters: params},
		Response: response,
	}
}

// representativeInvocations holds one successful recorded call per tool,
// shaped like the ground truth a dataset would carry.
func representativeInvocations() map[string]*types.Invocation {
	user := map[string]any{
		"username": "justinkool",
		"email":    "justintime@fmail.com",
		"phone":    "123-456-7890",
		"name":     "Justin Kool",
	}
	return map[string]*types.Invocation{
		"UserLogin": recorded("UserLogin",
			map[string]any{"username": "justinkool", "password": "justforkicks123"},
			map[string]any{"session_token": justinToken}),
		"RegisterUser": recorded("RegisterUser",
			map[string]any{"username": "hmurphy", "password": "x", "email": "h@fmail.com"},
			map[string]any{"session_token": justinToken, "user": user}),
		"LogoutUser": recorded("LogoutUser",
			map[string]any{"session_token": justinToken},
			map[string]any{"status": "success"}),
		"DeleteAccount": recorded("DeleteAccount",
			map[string]any{"session_token": justinToken, "password": "justforkicks123"},
			map[string]any{"status": "success"}),
		"GetAccountInformation": recorded("GetAccountInformation",
			map[string]any{"session_token": justinToken},
			map[string]any{"user": user}),
		"ChangePassword": recorded("ChangePassword",
			map[string]any{"session_token": justinToken, "old_password": "a", "new_password": "b"},
			map[string]any{"status": "success"}),
		"SendVerificationCode": recorded("SendVerificationCode",
			map[string]any{"username": "justinkool", "email": "justintime@fmail.com"},
			map[string]any{"status": "success"}),
		"ResetPassword": recorded("ResetPassword",
			map[string]any{"username": "justinkool", "verification_code": "123456", "new_password": "b"},
			map[string]any{"status": "success"}),
		"QueryUser": recorded("QueryUser",
			map[string]any{"session_token": justinToken, "username": "mstein"},
			map[string]any{"users": []any{user}}),
		"UpdateAccountInformation": recorded("UpdateAccountInformation",
			map[string]any{"session_token": justinToken, "password": "a", "new_email": "j@fmail.com"},
			map[string]any{"status": "success"}),

		"AddAlarm": recorded("AddAlarm",
			map[string]any{"session_token": justinToken, "time": "07:30:00"},
			map[string]any{"alarm_id": "5bff-dd80"}),
		"DeleteAlarm": recorded("DeleteAlarm",
			map[string]any{"session_token": justinToken, "alarm_id": "5bff-dd80"},
			map[string]any{"status": "success"}),
		"FindAlarms": recorded("FindAlarms",
			map[string]any{"session_token": justinToken},
			map[string]any{"alarms": []any{
				map[string]any{"alarm_id": "5bff-dd80", "time": "07:30:00"},
			}}),

		"CreateEvent": recorded("CreateEvent",
			map[string]any{
				"session_token": justinToken, "name": "Planning", "event_type": "meeting",
				"start_time": "2023-09-12 14:00:00", "end_time": "2023-09-12 15:00:00",
				"attendees": []any{"mstein"},
			},
			map[string]any{"event_id": "abcd1234-0001"}),
		"DeleteEvent": recorded("DeleteEvent",
			map[string]any{"session_token": justinToken, "event_id": "abcd1234-0001"},
			map[string]any{"status": "success"}),
		"ModifyEvent": recorded("ModifyEvent",
			map[string]any{"session_token": justinToken, "event_id": "abcd1234-0001", "new_name": "Sync"},
			map[string]any{"status": "success"}),
		"QueryCalendar": recorded("QueryCalendar",
			map[string]any{
				"session_token": justinToken,
				"start_time":    "2023-09-12 00:00:00", "end_time": "2023-09-12 23:59:59",
			},
			map[string]any{"events": []any{
				map[string]any{"event_id": "abcd1234-0001", "name": "Planning"},
			}}),

		"SendEmail": recorded("SendEmail",
			map[string]any{
				"session_token": justinToken, "to": []any{"mstein@gahoo.com"},
				"subject": "Hello", "body": "Just checking in.",
			},
			map[string]any{"email_id": "aa-0000-00000001"}),
		"SearchInbox": recorded("SearchInbox",
			map[string]any{"session_token": justinToken, "query": "report"},
			map[string]any{"emails": []any{
				map[string]any{"email_id": "aa-0000-00000001", "subject": "report"},
			}}),

		"SendMessage": recorded("SendMessage",
			map[string]any{"session_token": justinToken, "receiver": "mstein", "message": "on my way"},
			map[string]any{"message_id": "00000000-00000001"}),
		"SearchMessages": recorded("SearchMessages",
			map[string]any{"session_token": justinToken, "query": "lunch"},
			map[string]any{"messages": []any{
				map[string]any{"message_id": "00000000-00000001", "message": "lunch?"},
			}}),

		"AddReminder": recorded("AddReminder",
			map[string]any{"session_token": justinToken, "task": "water the plants", "due_date": "2023-09-12 18:00:00"},
			map[string]any{"reminder_id": "0a-1234"}),
		"GetReminders": recorded("GetReminders",
			map[string]any{"session_token": justinToken},
			map[string]any{"reminders": []any{
				map[string]any{"reminder_id": "0a-1234", "task": "water the plants", "status": "pending"},
			}}),
		"DeleteReminder": recorded("DeleteReminder",
			map[string]any{"session_token": justinToken, "reminder_id": "0a-1234"},
			map[string]any{"status": "success"}),
		"CompleteReminder": recorded("CompleteReminder",
			map[string]any{"session_token": justinToken, "reminder_id": "0a-1234"},
			map[string]any{"status": "success"}),

		"CurrentWeather": recorded("CurrentWeather",
			map[string]any{"location": "san francisco"},
			map[string]any{"weather": map[string]any{"high": 80.0, "low": 60.0, "conditions": "Sunny"}}),
		"ForecastWeather": recorded("ForecastWeather",
			map[string]any{"location": "san francisco"},
			map[string]any{"forecast": []any{
				map[string]any{"high": 75.0, "low": 58.0, "conditions": "Foggy"},
			}}),
		"HistoricWeather": recorded("HistoricWeather",
			map[string]any{"location": "san francisco", "month": "september"},
			map[string]any{"weather": map[string]any{"min_temp": 55.0, "max_temp": 78.0}}),
	}
}

// Every registered tool's comparator must accept a recorded call compared
// against itself, whatever comparator family the tool uses.
func TestCheckCorrectnessReflexive(t *testing.T) {
	registry, err := Registry(Config{})
	require.NoError(t, err)
	representatives := representativeInvocations()

	for _, name := range registry.Names() {
		inv, ok := representatives[name]
		require.True(t, ok, "no representative invocation for tool %s", name)
		assert.True(t, registry.CheckCorrectness(inv, inv), "tool %s", name)
	}
}
