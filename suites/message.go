package suites

// Message database schema, keyed per user then message id:
//
//	message_id: str  (xxxxxxxx-xxxxxxxx)
//	timestamp: str   (%Y-%m-%d %H:%M:%S)
//	sender: str
//	message: str

import (
	"sort"
	"strings"
	"time"

	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// MessageSuite builds the direct-messaging tools. The session token is
// an explicit parameter here; predictors must supply it themselves.
func MessageSuite(cfg Config) Suite {
	return Suite{
		Name:        "Messages",
		Description: "This API lets a user send and search messages.",
		Tools: []tools.Tool{
			newSendMessage(cfg),
			newSearchMessages(),
		},
	}
}

func newSearchMessages() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "SearchMessages",
			Suite:       "Messages",
			Description: "Searches messages matching filters returning 5 most recent results.",
			Parameters: []tools.ParamSpec{
				{Name: "session_token", Type: "string", Description: "The session_token of the user.", Required: true},
				{Name: "query", Type: "string", Description: "Query containing keywords to search for."},
				{Name: "match_type", Type: "string", Enum: []string{"any", "all"}, Description: "Whether to match any or all keywords. Defaults to any."},
				{Name: "sender", Type: "string", Description: "Username of the sender."},
				{Name: "start_date", Type: "string", Description: "Starting time to search for, in the pattern of %Y-%m-%d %H:%M:%S."},
				{Name: "end_date", Type: "string", Description: "End time to search for, in the pattern of %Y-%m-%d %H:%M:%S."},
			},
			Output:   []tools.FieldSpec{{Name: "messages", Type: "array", Description: "list of messages matching search criteria."}},
			Database: MessageDB,
			Compare:  messageQueryComparator,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			userMessages, ok := env.Database.Record(usernameOf(record))
			if !ok {
				return map[string]any{"messages": []any{}}, nil
			}

			query, hasQuery := strParam(params, "query")
			sender, hasSender := strParam(params, "sender")
			startDate, hasStart := strParam(params, "start_date")
			endDate, hasEnd := strParam(params, "end_date")
			if !hasQuery && !hasSender && !hasStart && !hasEnd {
				return nil, tools.NewAPIError("At least one of query, sender, start_date, end_date must be provided.")
			}
			matchType := strDefault(params, "match_type", "any")
			if matchType != "any" && matchType != "all" {
				return nil, tools.NewAPIError(`match_type must be either "any" or "all".`)
			}

			var start, end time.Time
			if hasStart {
				if start, err = parseAt(timestampLayout, startDate); err != nil {
					return nil, err
				}
			}
			if hasEnd {
				if end, err = parseAt(timestampLayout, endDate); err != nil {
					return nil, err
				}
			}
			if hasStart && hasEnd && start.After(end) {
				return nil, tools.NewAPIError("Start date must be earlier than end date.")
			}

			keywords := strings.Fields(strings.ToLower(query))
			type dated struct {
				at      time.Time
				message map[string]any
			}
			var matched []dated
			for _, raw := range userMessages {
				message, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				stamp, _ := message["timestamp"].(string)
				at, err := parseAt(timestampLayout, stamp)
				if err != nil {
					continue
				}
				if env.Now.Before(at) {
					continue
				}
				if hasSender {
					if s, _ := message["sender"].(string); s != sender {
						continue
					}
				}
				if hasStart && start.After(at) {
					continue
				}
				if hasEnd && end.Before(at) {
					continue
				}
				if hasQuery {
					text, _ := message["message"].(string)
					if !matchKeywords(keywords, matchType, strings.ToLower(text)) {
						continue
					}
				}
				matched = append(matched, dated{at, message})
			}
			sort.Slice(matched, func(i, j int) bool { return matched[i].at.After(matched[j].at) })
			if len(matched) > 5 {
				matched = matched[:5]
			}
			messages := make([]any, 0, len(matched))
			for _, m := range matched {
				messages = append(messages, tools.DeepCopy(m.message))
			}
			return map[string]any{"messages": messages}, nil
		},
	}
}

func newSendMessage(cfg Config) tools.Tool {
	scorer := cfg.scorer()
	return &suiteTool{
		def: &tools.Definition{
			Name:        "SendMessage",
			Suite:       "Messages",
			Description: "Sends a message to another user.",
			Parameters: []tools.ParamSpec{
				{Name: "session_token", Type: "string", Description: "The session_token of the user.", Required: true},
				{Name: "receiver", Type: "string", Description: "The receiver's username.", Required: true},
				{Name: "message", Type: "string", Description: "The message.", Required: true},
			},
			Output:   []tools.FieldSpec{{Name: "message_id", Type: "string", Description: "message_id on success."}},
			Database: MessageDB,
			IsAction: true,
			Compare:  sendMessageComparator(scorer),
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			if _, err := userByToken(env, params); err != nil {
				return nil, err
			}
			// Any receiver is accepted since it could resolve.
			message, _ := strParam(params, "message")
			if message == "" {
				return nil, tools.NewAPIError("Message cannot be empty.")
			}
			return map[string]any{"message_id": env.IDs.Segments(8, 8)}, nil
		},
	}
}

// sendMessageComparator ignores the generated message id. Receiver and
// session must match exactly; the message compares by text similarity.
func sendMessageComparator(scorer tools.TextScorer) tools.Comparator {
	return func(prediction, groundTruth *types.Invocation) bool {
		if prediction.ExceptionText() != groundTruth.ExceptionText() {
			return false
		}
		if !tools.SameSessionToken(prediction, groundTruth) {
			return false
		}
		if !tools.JSONEqual(prediction.Request.Parameters["receiver"], groundTruth.Request.Parameters["receiver"]) {
			return false
		}
		predictMessage, _ := prediction.Request.Parameters["message"].(string)
		wantMessage, _ := groundTruth.Request.Parameters["message"].(string)
		return scorer(predictMessage, wantMessage) >= 0.8
	}
}

// messageQueryComparator accepts a prediction whose returned message ids
// cover the ground truth's, with matching session and exception.
var messageQueryComparator tools.Comparator = func(prediction, groundTruth *types.Invocation) bool {
	if prediction.ExceptionText() != groundTruth.ExceptionText() {
		return false
	}
	if !tools.SameSessionToken(prediction, groundTruth) {
		return false
	}
	return tools.ResponseIDSubset(prediction, groundTruth, "messages[].message_id")
}
