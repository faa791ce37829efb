// Package status resolves the day's global status from the vote set and the
// optional statistical override.
package status

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MartinT518/APEX-performance-sub001/pkg/agents"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// ResolverConfidence is the resolver's own fixed confidence.
const ResolverConfidence = 0.85

// Statistical override thresholds.
const (
	ShutdownHRVZScore     = -1.5
	ShutdownSleepDebtHour = 4.0
)

// Reasons.
const (
	ReasonStatistical = "Statistical override: HRV deviation with sleep debt"
	ReasonMultiVeto   = "Multiple vetoes"
	ReasonAllClear    = "All systems nominal"
)

// Override is the optional statistical context.
type Override struct {
	HRVZScore      *float64 `json:"hrv_z_score,omitempty"`
	SleepDebtHours *float64 `json:"sleep_debt_hours,omitempty"`
}

// Input is one resolver call.
type Input struct {
	Votes       []contracts.Vote
	NiggleScore int
	Override    Override
}

// VoteDisplay is one caller-facing row.
type VoteDisplay struct {
	Vote  contracts.AgentID `json:"vote"`
	Color contracts.Color   `json:"color"`
	Label string            `json:"label"`
}

// Result is the resolved status.
type Result struct {
	GlobalStatus           contracts.GlobalStatus `json:"global_status"`
	Reason                 string                 `json:"reason"`
	VotesDisplay           []VoteDisplay          `json:"votes_display"`
	SubstitutionsSuggested bool                   `json:"substitutions_suggested"`
	Confidence             float64                `json:"confidence"`
	StatisticalOverride    bool                   `json:"statistical_override,omitempty"`
}

// Resolve applies the rules top-down.
func Resolve(in Input) Result {
	res := Result{
		VotesDisplay: Display(in.Votes),
		Confidence:   ResolverConfidence,
	}

	reds := agents.Filter(in.Votes, contracts.ColorRed)
	structuralRed := hasColor(in.Votes, contracts.AgentStructural, contracts.ColorRed)
	metabolicRed := hasColor(in.Votes, contracts.AgentMetabolic, contracts.ColorRed)

	switch {
	case in.Override.Triggered():
		res.GlobalStatus = contracts.StatusShutdown
		res.StatisticalOverride = true
		res.Reason = fmt.Sprintf("%s (z=%.2f, sleep debt %.1fh)", ReasonStatistical, *in.Override.HRVZScore, *in.Override.SleepDebtHours)
	case len(reds) > 1 || (structuralRed && metabolicRed):
		res.GlobalStatus = contracts.StatusShutdown
		res.Reason = fmt.Sprintf("%s: %s", ReasonMultiVeto, joinReasons(reds))
	case len(reds) == 1:
		res.GlobalStatus = contracts.StatusAdapted
		res.Reason = fmt.Sprintf("%s veto: %s", label(reds[0].AgentID), reds[0].Reason)
		res.SubstitutionsSuggested = reds[0].AgentID == contracts.AgentStructural
	default:
		res.GlobalStatus = contracts.StatusGo
		res.Reason = ReasonAllClear
		if ambers := agents.Filter(in.Votes, contracts.ColorAmber); len(ambers) > 0 {
			res.Reason = "Proceed with caution: " + joinReasons(ambers)
		}
	}

	if res.GlobalStatus != contracts.StatusGo && in.NiggleScore > 0 {
		res.Reason = fmt.Sprintf("%s (niggle %d/10)", res.Reason, in.NiggleScore)
	}
	return res
}

// Triggered reports whether the override forces a shutdown. Both
// conditions must hold.
func (o Override) Triggered() bool {
	return o.HRVZScore != nil && o.SleepDebtHours != nil &&
		*o.HRVZScore < ShutdownHRVZScore && *o.SleepDebtHours > ShutdownSleepDebtHour
}

// Display renders votes in hierarchy order with human labels.
func Display(votes []contracts.Vote) []VoteDisplay {
	sorted := agents.SortByPriority(votes)
	out := make([]VoteDisplay, 0, len(sorted))
	for _, v := range sorted {
		out = append(out, VoteDisplay{
			Vote:  v.AgentID,
			Color: v.Color,
			Label: fmt.Sprintf("%s: %s", label(v.AgentID), title(strings.ToLower(string(v.Color)))),
		})
	}
	return out
}

func label(id contracts.AgentID) string {
	return title(strings.ReplaceAll(string(id), "_", " "))
}

// title builds a fresh Caser per call; Casers are stateful.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

func hasColor(votes []contracts.Vote, id contracts.AgentID, c contracts.Color) bool {
	v, ok := agents.Find(votes, id)
	return ok && v.Color == c
}

func joinReasons(votes []contracts.Vote) string {
	parts := make([]string, len(votes))
	for i, v := range votes {
		parts[i] = fmt.Sprintf("%s (%s)", label(v.AgentID), v.Reason)
	}
	return strings.Join(parts, "; ")
}
