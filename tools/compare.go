package tools

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/jmespath/go-jmespath"

	"github.com/AltairaLabs/ReplayKit/types"
)

// DefaultComparator is the strict structural comparator used unless a
// tool overrides it: the response and exception must match exactly, and
// every parameter present in the ground truth must appear with an
// identical value in the prediction. The prediction may carry additional
// optional parameters unconstrained.
func DefaultComparator(prediction, groundTruth *types.Invocation) bool {
	if !JSONEqual(prediction.Response, groundTruth.Response) {
		return false
	}
	if prediction.ExceptionText() != groundTruth.ExceptionText() {
		return false
	}
	return ParamsSubset(prediction, groundTruth)
}

// IgnoreResponseComparator matches like DefaultComparator but disregards
// the response payload. Used by tools whose returned entity IDs are
// freshly generated and therefore irrelevant (AddAlarm, SendEmail, ...).
func IgnoreResponseComparator(prediction, groundTruth *types.Invocation) bool {
	if prediction.ExceptionText() != groundTruth.ExceptionText() {
		return false
	}
	return ParamsSubset(prediction, groundTruth)
}

// ParamsSubset reports whether every (key, value) pair in the ground
// truth's parameters appears with an identical value in the prediction's
// parameters.
func ParamsSubset(prediction, groundTruth *types.Invocation) bool {
	for key, want := range groundTruth.Request.Parameters {
		got, ok := prediction.Request.Parameters[key]
		if !ok {
			return false
		}
		if !JSONEqual(got, want) {
			return false
		}
	}
	return true
}

// SameSessionToken reports whether both invocations carry an identical
// session_token parameter.
func SameSessionToken(prediction, groundTruth *types.Invocation) bool {
	return JSONEqual(
		prediction.Request.Parameters["session_token"],
		groundTruth.Request.Parameters["session_token"],
	)
}

// ResponseIDSubset evaluates the JMESPath expression against both
// responses and reports whether every ID it extracts from the ground
// truth also appears in the prediction. Search and list reads use this:
// the ground truth's returned entity IDs must be a subset of the
// prediction's, not an exact list match.
func ResponseIDSubset(prediction, groundTruth *types.Invocation, expr string) bool {
	predicted, ok := extractIDs(prediction.Response, expr)
	if !ok {
		return false
	}
	wanted, ok := extractIDs(groundTruth.Response, expr)
	if !ok {
		return false
	}
	for id := range wanted {
		if !predicted[id] {
			return false
		}
	}
	return true
}

func extractIDs(response any, expr string) (map[string]bool, bool) {
	result, err := jmespath.Search(expr, normalize(response))
	if err != nil {
		return nil, false
	}
	list, ok := result.([]any)
	if !ok {
		return nil, false
	}
	ids := make(map[string]bool, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		ids[s] = true
	}
	return ids, true
}

// JSONEqual compares two values under JSON semantics: both are
// normalized through a JSON round trip before deep comparison, so a live
// execution result compares equal to its persisted ground-truth form.
func JSONEqual(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// DeepCopy returns a structurally independent copy of v via a JSON round
// trip. Tools use it to detach records from the database before putting
// them in a response.
func DeepCopy[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func normalize(v any) any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// DefaultTextScorer is the built-in semantic similarity fallback: the
// Jaccard overlap of lowercased token sets. Identical strings score 1.0.
// Deployments wanting embedding-based similarity inject their own
// TextScorer when constructing the suites.
func DefaultTextScorer(a, b string) float64 {
	if a == b {
		return 1.0
	}
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[strings.Trim(tok, ".,!?;:\"'()")] = true
	}
	delete(set, "")
	return set
}
