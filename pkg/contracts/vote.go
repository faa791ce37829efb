package contracts

// AgentID identifies a risk agent.
type AgentID string

// Known agents, listed in hierarchy order.
const (
	AgentStructural AgentID = "structural"
	AgentMetabolic  AgentID = "metabolic"
	AgentFueling    AgentID = "fueling"
)

// Color is the ordinal outcome of an agent evaluation. RED is a veto.
type Color string

// Vote colors.
const (
	ColorRed   Color = "RED"
	ColorAmber Color = "AMBER"
	ColorGreen Color = "GREEN"
)

// Valid reports whether c is one of the three vote colors.
func (c Color) Valid() bool {
	switch c {
	case ColorRed, ColorAmber, ColorGreen:
		return true
	default:
		return false
	}
}

// Directive carries an agent-imposed restriction that the substitution
// engine must honour on top of the table override.
type Directive string

const (
	DirectiveNone Directive = ""
	// DirectiveZeroImpact forbids any impact modality (running) for the day.
	DirectiveZeroImpact Directive = "ZERO_IMPACT"
)

// FlaggedMetric records a metric that crossed (or approached) a threshold.
type FlaggedMetric struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Vote is one agent's assessment for a single evaluation cycle.
// Votes are created fresh on every evaluation and never mutated afterwards.
type Vote struct {
	AgentID        AgentID         `json:"agent_id"`
	Color          Color           `json:"color"`
	Confidence     float64         `json:"confidence"`
	Reason         string          `json:"reason"`
	FlaggedMetrics []FlaggedMetric `json:"flagged_metrics,omitempty"`
	// Score is 0..100, lower is worse. Display and ranking only.
	Score     *float64  `json:"score,omitempty"`
	Directive Directive `json:"directive,omitempty"`
}

// IsVeto reports whether the vote is RED.
func (v Vote) IsVeto() bool { return v.Color == ColorRed }

// Float returns a pointer to f. Used for optional score fields.
func Float(f float64) *float64 { return &f }
