package coach

import (
	"fmt"
	"strings"

	"github.com/MartinT518/APEX-performance-sub001/pkg/agents"
	"github.com/MartinT518/APEX-performance-sub001/pkg/auditgate"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/status"
)

// DailyResult is the caller-facing decision. When AuditStatus is
// AUDIT_PENDING only the audit fields are set and no decision is present.
type DailyResult struct {
	DecisionID    string                `json:"decision_id,omitempty"`
	UserID        string                `json:"user_id"`
	Date          string                `json:"date"`
	Phase         string                `json:"phase,omitempty"`
	AuditStatus   contracts.AuditStatus `json:"audit_status"`
	MissingInputs []string              `json:"missing_inputs,omitempty"`
	AuditType     auditgate.Type        `json:"audit_type,omitempty"`

	Action          contracts.Action   `json:"action,omitempty"`
	OriginalWorkout *contracts.Workout `json:"original_workout,omitempty"`
	FinalWorkout    *contracts.Workout `json:"final_workout,omitempty"`
	Reasoning       string             `json:"reasoning,omitempty"`
	Modifications   []string           `json:"modifications,omitempty"`
	RuleVersion     string             `json:"rule_version,omitempty"`

	GlobalStatus           contracts.GlobalStatus `json:"global_status,omitempty"`
	Reason                 string                 `json:"reason,omitempty"`
	Votes                  []contracts.Vote       `json:"votes,omitempty"`
	VotesDisplay           []status.VoteDisplay   `json:"votes_display,omitempty"`
	SubstitutionsSuggested bool                   `json:"substitutions_suggested"`
	Confidence             float64                `json:"confidence,omitempty"`
	StatisticalOverride    bool                   `json:"statistical_override,omitempty"`

	CertaintyScore  *float64                  `json:"certainty_score,omitempty"`
	ConfidenceScore contracts.ConfidenceLevel `json:"confidence_score,omitempty"`
	CertaintyDelta  *float64                  `json:"certainty_delta,omitempty"`

	FromCache     bool     `json:"from_cache"`
	SnapshotError string   `json:"snapshot_error,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Pending reports whether the audit gate withheld the decision.
func (r *DailyResult) Pending() bool {
	return r.AuditStatus == contracts.AuditPending
}

// Err returns contracts.ErrAuditPending, naming the missing inputs, when the
// decision was withheld.
func (r *DailyResult) Err() error {
	if !r.Pending() {
		return nil
	}
	return fmt.Errorf("%w: %s", contracts.ErrAuditPending, strings.Join(r.MissingInputs, ", "))
}

func (r *DailyResult) applySubstitution(sub contracts.SubstitutionResult) {
	original, final := sub.OriginalWorkout, sub.FinalWorkout
	r.Action = sub.Action
	r.OriginalWorkout = &original
	r.FinalWorkout = &final
	r.Reasoning = sub.Reasoning
	r.Modifications = sub.Modifications
	r.RuleVersion = sub.RuleVersion
	r.Warnings = append(r.Warnings, sub.Warnings...)
}

func (r *DailyResult) applyStatus(st status.Result) {
	r.GlobalStatus = st.GlobalStatus
	r.Reason = st.Reason
	r.VotesDisplay = st.VotesDisplay
	r.SubstitutionsSuggested = st.SubstitutionsSuggested
	r.Confidence = st.Confidence
	r.StatisticalOverride = st.StatisticalOverride
}

func (r *DailyResult) applyForecast(f *contracts.Forecast) {
	if f == nil {
		return
	}
	r.CertaintyScore = f.CertaintyScore
	r.ConfidenceScore = f.ConfidenceScore
}

// fromSnapshot formats a cached decision. Modifications are not stored, so
// a cached result carries none.
func (r *DailyResult) fromSnapshot(planned contracts.Workout, snap *contracts.DailyDecisionSnapshot) {
	original, final := planned.Clone(), snap.FinalWorkout.Clone()
	r.FromCache = true
	r.DecisionID = snap.DecisionID
	r.Action = snap.Action
	r.OriginalWorkout = &original
	r.FinalWorkout = &final
	r.Reasoning = final.Explanation
	r.RuleVersion = snap.RuleVersion
	r.GlobalStatus = snap.GlobalStatus
	r.Reason = snap.Reason
	r.Votes = snap.Votes
	r.VotesDisplay = status.Display(snap.Votes)
	r.Confidence = status.ResolverConfidence
	r.CertaintyScore = snap.CertaintyScore
	r.CertaintyDelta = snap.CertaintyDelta
	if snap.GlobalStatus == contracts.StatusAdapted {
		if v, ok := agents.Find(snap.Votes, contracts.AgentStructural); ok && v.IsVeto() {
			r.SubstitutionsSuggested = true
		}
	}
	r.AuditStatus = auditStatus(snap.GlobalStatus, snap.Votes)
}

// auditStatus is CAUTION for any non-GO status or non-GREEN vote.
func auditStatus(gs contracts.GlobalStatus, votes []contracts.Vote) contracts.AuditStatus {
	if gs != contracts.StatusGo {
		return contracts.AuditCaution
	}
	for _, v := range votes {
		if v.Color != contracts.ColorGreen {
			return contracts.AuditCaution
		}
	}
	return contracts.AuditNominal
}
