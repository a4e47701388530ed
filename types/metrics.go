package types

// Metrics aggregates the scoring of one conversation (or, summed, a whole
// dataset). Counter fields are raw tallies; ratio fields are derived from
// them with fixed zero-denominator conventions:
//
//	precision        = matches / predictions        (0 when no predictions)
//	recall           = matches / ground_truths
//	action_precision = valid_actions / actions      (1 when no actions)
//	bad_action_rate  = bad_actions / actions        (0 when no actions)
//	success          = recall == 1 && bad_action_rate == 0
//	soft_success     = recall * (1 - bad_action_rate)
type Metrics struct {
	Predictions  int `json:"predictions"`
	GroundTruths int `json:"ground_truths"`
	Matches      int `json:"matches"`
	Actions      int `json:"actions"`
	ValidActions int `json:"valid_actions"`
	BadActions   int `json:"bad_actions"`

	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	ActionPrecision float64 `json:"action_precision"`
	BadActionRate   float64 `json:"bad_action_rate"`
	Success         bool    `json:"success"`
	SoftSuccess     float64 `json:"soft_success"`
}

// Derive recomputes the ratio fields from the counter fields.
func (m *Metrics) Derive() {
	m.Precision = 0
	if m.Predictions > 0 {
		m.Precision = float64(m.Matches) / float64(m.Predictions)
	}
	// A conversation with no ground truths has nothing left to recall.
	m.Recall = 1
	if m.GroundTruths > 0 {
		m.Recall = float64(m.Matches) / float64(m.GroundTruths)
	}
	m.ActionPrecision = 1
	m.BadActionRate = 0
	if m.Actions > 0 {
		m.ActionPrecision = float64(m.ValidActions) / float64(m.Actions)
		m.BadActionRate = float64(m.BadActions) / float64(m.Actions)
	}
	m.Success = m.Recall == 1.0 && m.BadActionRate == 0.0
	m.SoftSuccess = m.Recall * (1.0 - m.BadActionRate)
}

// Add accumulates another conversation's counters into m. Ratio fields are
// not touched; call Derive afterwards.
func (m *Metrics) Add(other *Metrics) {
	m.Predictions += other.Predictions
	m.GroundTruths += other.GroundTruths
	m.Matches += other.Matches
	m.Actions += other.Actions
	m.ValidActions += other.ValidActions
	m.BadActions += other.BadActions
}
