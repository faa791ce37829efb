package contracts

import (
	"fmt"
	"time"
)

// GlobalStatus is the coarse daily classification.
type GlobalStatus string

const (
	StatusGo       GlobalStatus = "GO"
	StatusAdapted  GlobalStatus = "ADAPTED"
	StatusShutdown GlobalStatus = "SHUTDOWN"
)

// Valid reports whether s is a known status.
func (s GlobalStatus) Valid() bool {
	switch s {
	case StatusGo, StatusAdapted, StatusShutdown:
		return true
	default:
		return false
	}
}

// AuditStatus is the caller-facing gatekeeper state.
type AuditStatus string

const (
	AuditPending AuditStatus = "AUDIT_PENDING"
	AuditCaution AuditStatus = "CAUTION"
	AuditNominal AuditStatus = "NOMINAL"
)

// ConfidenceLevel is the forecast collaborator's coarse confidence.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// Forecast is attached to a decision but never influences it.
type Forecast struct {
	CertaintyScore  *float64        `json:"certainty_score,omitempty"`
	ConfidenceScore ConfidenceLevel `json:"confidence_score,omitempty"`
}

// InputsSummary is the set of gatekeeper inputs a snapshot was computed from.
// Its canonical form is the snapshot fingerprint.
type InputsSummary struct {
	NiggleScore         *int     `json:"niggle_score"`
	StrengthSessionDone *bool    `json:"strength_session_done"`
	StrengthTier        *string  `json:"strength_tier"`
	FuelingCarbsPerHour *float64 `json:"fueling_carbs_per_hour"`
	FuelingGIDistress   *int     `json:"fueling_gi_distress"`
}

// DailyDecisionSnapshot is the persisted result of one day's evaluation.
// It is unique per (UserID, Date); a newer write replaces it wholesale.
type DailyDecisionSnapshot struct {
	UserID         string        `json:"user_id"`
	Date           string        `json:"date"`
	GlobalStatus   GlobalStatus  `json:"global_status"`
	Reason         string        `json:"reason"`
	Votes          []Vote        `json:"votes"`
	FinalWorkout   Workout       `json:"final_workout"`
	Action         Action        `json:"action,omitempty"`
	RuleVersion    string        `json:"rule_version,omitempty"`
	CertaintyScore *float64      `json:"certainty_score,omitempty"`
	CertaintyDelta *float64      `json:"certainty_delta,omitempty"`
	InputsSummary  InputsSummary `json:"inputs_summary"`
	Fingerprint    string        `json:"fingerprint"`
	DecisionID     string        `json:"decision_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Validate checks a snapshot read back from storage. Invalid rows are
// rejected rather than coerced.
func (s *DailyDecisionSnapshot) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidSnapshot)
	}
	if _, err := ParseDate(s.Date); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if !s.GlobalStatus.Valid() {
		return fmt.Errorf("%w: unknown global status %q", ErrInvalidSnapshot, s.GlobalStatus)
	}
	if s.Fingerprint == "" {
		return fmt.Errorf("%w: missing fingerprint", ErrInvalidSnapshot)
	}
	if !s.FinalWorkout.Type.Valid() {
		return fmt.Errorf("%w: unknown workout type %q", ErrInvalidSnapshot, s.FinalWorkout.Type)
	}
	if s.GlobalStatus == StatusShutdown && !s.FinalWorkout.IsRest() {
		return fmt.Errorf("%w: shutdown snapshot without rest workout", ErrInvalidSnapshot)
	}
	seen := make(map[AgentID]bool, len(s.Votes))
	for _, v := range s.Votes {
		if !v.Color.Valid() {
			return fmt.Errorf("%w: vote %s has color %q", ErrInvalidSnapshot, v.AgentID, v.Color)
		}
		if seen[v.AgentID] {
			return fmt.Errorf("%w: duplicate vote for %s", ErrInvalidSnapshot, v.AgentID)
		}
		seen[v.AgentID] = true
	}
	return nil
}
