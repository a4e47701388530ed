// Package suites implements the simulated personal-assistant services:
// account, alarm, calendar, email, messaging, reminders, and weather.
// Each tool is a compiled-in value implementing tools.Tool; a Suite is the
// named grouping exposed together to a predictor.
package suites

import (
	"regexp"
	"time"

	"github.com/AltairaLabs/ReplayKit/simstate"
	"github.com/AltairaLabs/ReplayKit/tools"
	"github.com/AltairaLabs/ReplayKit/types"
)

// Domain store names. The account store is shared with simstate.
const (
	AccountDB         = simstate.AccountDatabase
	AlarmDB           = "Alarm"
	CalendarDB        = "Calendar"
	EmailDB           = "Email"
	MessageDB         = "Message"
	ReminderDB        = "Reminder"
	WeatherDB         = "Weather"
	HistoricWeatherDB = "HistoricWeather"
)

// Suite is a named grouping of related tools.
type Suite struct {
	Name        string
	Description string
	Tools       []tools.Tool
}

// Config carries cross-cutting collaborators for suite construction.
// A nil Scorer falls back to tools.DefaultTextScorer.
type Config struct {
	Scorer tools.TextScorer
}

func (c Config) scorer() tools.TextScorer {
	if c.Scorer == nil {
		return tools.DefaultTextScorer
	}
	return c.Scorer
}

// All builds the seven service suites.
func All(cfg Config) []Suite {
	return []Suite{
		AccountSuite(),
		AlarmSuite(),
		CalendarSuite(cfg),
		EmailSuite(cfg),
		MessageSuite(cfg),
		ReminderSuite(cfg),
		WeatherSuite(),
	}
}

// Registry builds a tool registry over every suite.
func Registry(cfg Config) (*tools.Registry, error) {
	var all []tools.Tool
	for _, suite := range All(cfg) {
		all = append(all, suite.Tools...)
	}
	return tools.NewRegistry(all...)
}

// ByName returns the named suite from the catalog.
func ByName(cfg Config, name string) (Suite, bool) {
	for _, suite := range All(cfg) {
		if suite.Name == name {
			return suite, true
		}
	}
	return Suite{}, false
}

// SuiteNames returns the names of all suites in catalog order.
func SuiteNames() []string {
	var names []string
	for _, suite := range All(Config{}) {
		names = append(names, suite.Name)
	}
	return names
}

// suiteTool pairs a definition with its business logic.
type suiteTool struct {
	def  *tools.Definition
	exec func(env *tools.Env, params map[string]any) (any, error)
}

func (t *suiteTool) Definition() *tools.Definition { return t.def }

func (t *suiteTool) Execute(env *tools.Env, params map[string]any) (any, error) {
	return t.exec(env, params)
}

var (
	phonePattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)
	emailPattern = regexp.MustCompile(`^[\w\-.]+@[\w\-.]+$`)
)

func validPhone(phone string) bool { return phonePattern.MatchString(phone) }
func validEmail(email string) bool { return emailPattern.MatchString(email) }

// strParam returns the named parameter when present as a non-null string.
func strParam(params map[string]any, name string) (string, bool) {
	v, ok := params[name]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// strDefault returns the named string parameter or fallback when absent.
func strDefault(params map[string]any, name, fallback string) string {
	if s, ok := strParam(params, name); ok {
		return s
	}
	return fallback
}

// strListParam returns the named parameter as a string slice. JSON
// decoding yields []any; explicit []string is accepted for test callers.
func strListParam(params map[string]any, name string) ([]string, bool) {
	v, ok := params[name]
	if !ok || v == nil {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// userByToken resolves the account record holding the call's session
// token. The sole authorization primitive of the simulation.
func userByToken(env *tools.Env, params map[string]any) (map[string]any, error) {
	token, _ := strParam(params, "session_token")
	if token != "" {
		for _, v := range env.Accounts {
			record, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if stored, ok := record["session_token"].(string); ok && stored == token {
				return record, nil
			}
		}
	}
	return nil, tools.NewAPIError("Invalid session_token.")
}

func usernameOf(record map[string]any) string {
	name, _ := record["username"].(string)
	return name
}

// parseAt parses a time string in the given layout, converting failures
// into domain validation errors.
func parseAt(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, tools.APIErrorf("Invalid time %q, expected format %s.", value, layout)
	}
	return t, nil
}

// timestampLayout aliases for brevity within the suites.
const (
	timestampLayout = types.TimestampLayout
	clockLayout     = types.ClockLayout
	dateLayout      = types.DateLayout
)
