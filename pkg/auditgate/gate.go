// Package auditgate decides whether today's captured inputs are complete
// enough to produce a coaching decision. When it reports an audit as
// required, no agent, veto or status step may run.
package auditgate

import "github.com/MartinT518/APEX-performance-sub001/pkg/contracts"

// Type names the first category with a missing input.
type Type string

const (
	TypeNone     Type = ""
	TypeNiggle   Type = "NIGGLE"
	TypeStrength Type = "STRENGTH"
	TypeFueling  Type = "FUELING"
)

// Missing input identifiers.
const (
	MissingNiggle        = "niggle_score"
	MissingStrengthDone  = "strength_session_done"
	MissingStrengthTier  = "strength_tier"
	MissingFuelingCarbs  = "fueling_carbs_per_hour"
	MissingFuelingGI     = "fueling_gi_distress"
	strengthLookbackDays = 7
	longRunMinutes       = 90
)

// Input is today's gatekeeper data. Nil pointers mean "not captured".
type Input struct {
	NiggleScore                        *int     `json:"niggle_score"`
	StrengthSessionDone                *bool    `json:"strength_session_done"`
	StrengthTier                       *string  `json:"strength_tier"`
	LastRunDurationMinutes             float64  `json:"last_run_duration_minutes"`
	DaysSinceLastLift                  int      `json:"days_since_last_lift"`
	FuelingTarget                      *float64 `json:"fueling_target"`
	FuelingCarbsPerHour                *float64 `json:"fueling_carbs_per_hour"`
	FuelingGIDistress                  *int     `json:"fueling_gi_distress"`
	HasHistoricalLongRunWithoutFueling bool     `json:"has_historical_long_run_without_fueling"`
}

// Output is transient and never persisted on its own.
type Output struct {
	AuditRequired bool     `json:"audit_required"`
	MissingInputs []string `json:"missing_inputs"`
	AuditType     Type     `json:"audit_type,omitempty"`
}

// Evaluate applies every rule independently and collects all missing inputs.
func Evaluate(in Input) Output {
	out := Output{MissingInputs: []string{}}

	note := func(t Type, missing ...string) {
		out.MissingInputs = append(out.MissingInputs, missing...)
		if out.AuditType == TypeNone {
			out.AuditType = t
		}
	}

	// 1. Niggle is always mandatory.
	if in.NiggleScore == nil {
		note(TypeNiggle, MissingNiggle)
	}

	// 2. Strength status once the lifting gap reaches a week.
	if in.DaysSinceLastLift >= strengthLookbackDays {
		switch {
		case in.StrengthSessionDone == nil:
			note(TypeStrength, MissingStrengthDone)
		case *in.StrengthSessionDone && in.StrengthTier == nil:
			note(TypeStrength, MissingStrengthTier)
		}
	}

	// 3. Fueling after long efforts or long targets.
	if FuelingRequired(in) {
		var missing []string
		if in.FuelingCarbsPerHour == nil {
			missing = append(missing, MissingFuelingCarbs)
		}
		if in.FuelingGIDistress == nil {
			missing = append(missing, MissingFuelingGI)
		}
		if len(missing) > 0 {
			note(TypeFueling, missing...)
		}
	}

	out.AuditRequired = len(out.MissingInputs) > 0
	return out
}

// FuelingRequired reports whether the fueling audit applies today.
func FuelingRequired(in Input) bool {
	if in.LastRunDurationMinutes > longRunMinutes {
		return true
	}
	if in.FuelingTarget != nil && *in.FuelingTarget > longRunMinutes {
		return true
	}
	return in.HasHistoricalLongRunWithoutFueling
}

// Summary projects the gatekeeper fields that make up the snapshot fingerprint.
func (in Input) Summary() contracts.InputsSummary {
	return contracts.InputsSummary{
		NiggleScore:         in.NiggleScore,
		StrengthSessionDone: in.StrengthSessionDone,
		StrengthTier:        in.StrengthTier,
		FuelingCarbsPerHour: in.FuelingCarbsPerHour,
		FuelingGIDistress:   in.FuelingGIDistress,
	}
}
