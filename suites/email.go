package suites

// Email database schema, keyed per user then email id:
//
//	email_id: str  (xx-xxxx-xxxxxxxx)
//	sender: str
//	receivers: list(str)
//	subject: str
//	body: str
//	date: str      (%Y-%m-%d %H:%M:%S)

import (
	"sort"
	"strings"
	"time"

	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// EmailSuite builds the email tools. The session token is an explicit
// parameter here; predictors must supply it themselves.
func EmailSuite(cfg Config) Suite {
	return Suite{
		Name:        "Email",
		Description: "This API lets a user send and search emails.",
		Tools: []tools.Tool{
			newSendEmail(cfg),
			newSearchInbox(),
		},
	}
}

func newSearchInbox() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "SearchInbox",
			Suite:       "Email",
			Description: "Searches for emails matching filters returning 5 most recent results.",
			Parameters: []tools.ParamSpec{
				{Name: "session_token", Type: "string", Description: "The session_token of the user.", Required: true},
				{Name: "query", Type: "string", Description: "Query containing keywords to search for."},
				{Name: "match_type", Type: "string", Enum: []string{"any", "all"}, Description: "Whether to match any or all keywords. Defaults to any."},
				{Name: "sender", Type: "string", Description: "The email address of the sender."},
				{Name: "start_date", Type: "string", Description: "Starting time to search for, in the pattern of %Y-%m-%d %H:%M:%S."},
				{Name: "end_date", Type: "string", Description: "End time to search for, in the pattern of %Y-%m-%d %H:%M:%S."},
			},
			Output:   []tools.FieldSpec{{Name: "emails", Type: "array", Description: "List of emails matching search criteria."}},
			Database: EmailDB,
			Compare:  inboxQueryComparator,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			record, err := userByToken(env, params)
			if err != nil {
				return nil, err
			}
			inbox, ok := env.Database.Record(usernameOf(record))
			if !ok || len(inbox) == 0 {
				return map[string]any{"emails": []any{}}, nil
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
				at    time.Time
				email map[string]any
			}
			var matched []dated
			for _, raw := range inbox {
				email, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				dateStr, _ := email["date"].(string)
				at, err := parseAt(timestampLayout, dateStr)
				if err != nil {
					continue
				}
				if env.Now.Before(at) {
					continue
				}
				if hasSender {
					if s, _ := email["sender"].(string); s != sender {
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
					body, _ := email["body"].(string)
					subject, _ := email["subject"].(string)
					if !matchKeywords(keywords, matchType, strings.ToLower(body), strings.ToLower(subject)) {
						continue
					}
				}
				matched = append(matched, dated{at, email})
			}
			sort.Slice(matched, func(i, j int) bool { return matched[i].at.After(matched[j].at) })
			if len(matched) > 5 {
				matched = matched[:5]
			}
			emails := make([]any, 0, len(matched))
			for _, m := range matched {
				emails = append(emails, tools.DeepCopy(m.email))
			}
			return map[string]any{"emails": emails}, nil
		},
	}
}

// matchKeywords reports whether keywords appear in either haystack,
// under "any" or "all" semantics.
func matchKeywords(keywords []string, matchType string, haystacks ...string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, keyword := range keywords {
		hit := false
		for _, h := range haystacks {
			if strings.Contains(h, keyword) {
				hit = true
				break
			}
		}
		if hit && matchType == "any" {
			return true
		}
		if !hit && matchType == "all" {
			return false
		}
	}
	return matchType == "all"
}

func newSendEmail(cfg Config) tools.Tool {
	scorer := cfg.scorer()
	return &suiteTool{
		def: &tools.Definition{
			Name:        "SendEmail",
			Suite:       "Email",
			Description: "Sends an email on behalf of a given user.",
			Parameters: []tools.ParamSpec{
				{Name: "session_token", Type: "string", Description: "The session_token of the user.", Required: true},
				{Name: "to", Type: "array", ItemType: "string", Description: "Receiving addresses of the email.", Required: true},
				{Name: "subject", Type: "string", Description: "The subject of the email.", Required: true},
				{Name: "body", Type: "string", Description: "The content of the email.", Required: true},
			},
			Output:   []tools.FieldSpec{{Name: "email_id", Type: "string", Description: "email_id on success"}},
			Database: EmailDB,
			IsAction: true,
			Compare:  sendEmailComparator(scorer),
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			if _, err := userByToken(env, params); err != nil {
				return nil, err
			}
			to, _ := strListParam(params, "to")
			for _, address := range to {
				if !validEmail(address) {
					return nil, tools.APIErrorf("%s is not a valid email address.", address)
				}
			}
			return map[string]any{"email_id": env.IDs.Segments(2, 4, 8)}, nil
		},
	}
}

// sendEmailComparator ignores the generated email id. Recipients must
// match as a set; subject and body compare by text similarity.
func sendEmailComparator(scorer tools.TextScorer) tools.Comparator {
	return func(prediction, groundTruth *types.Invocation) bool {
		if prediction.ExceptionText() != groundTruth.ExceptionText() {
			return false
		}
		if !tools.SameSessionToken(prediction, groundTruth) {
			return false
		}
		if !sameStringSet(prediction.Request.Parameters["to"], groundTruth.Request.Parameters["to"]) {
			return false
		}
		predictSubject, _ := prediction.Request.Parameters["subject"].(string)
		wantSubject, _ := groundTruth.Request.Parameters["subject"].(string)
		if scorer(predictSubject, wantSubject) < 0.9 {
			return false
		}
		predictBody, _ := prediction.Request.Parameters["body"].(string)
		wantBody, _ := groundTruth.Request.Parameters["body"].(string)
		return scorer(predictBody, wantBody) >= 0.8
	}
}

func sameStringSet(a, b any) bool {
	as, bs := stringSet(a), stringSet(b)
	return as != nil && bs != nil && setsEqual(as, bs)
}

func stringSet(v any) map[string]bool {
	set := map[string]bool{}
	switch list := v.(type) {
	case []string:
		for _, s := range list {
			set[s] = true
		}
	case []any:
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			set[s] = true
		}
	default:
		return nil
	}
	return set
}

func setsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// inboxQueryComparator accepts a prediction whose returned email ids
// cover the ground truth's, with matching session and exception.
var inboxQueryComparator tools.Comparator = func(prediction, groundTruth *types.Invocation) bool {
	if prediction.ExceptionText() != groundTruth.ExceptionText() {
		return false
	}
	if !tools.SameSessionToken(prediction, groundTruth) {
		return false
	}
	return tools.ResponseIDSubset(prediction, groundTruth, "emails[].email_id")
}
