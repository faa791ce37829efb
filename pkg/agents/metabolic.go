package agents

import (
	"fmt"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/session"
)

// Reasons emitted by the metabolic agent.
const (
	ReasonIntensityDiscipline = "Intensity Discipline violation"
	ReasonSystemicFatigue     = "Systemic Fatigue"
	ReasonDecoupling          = "Aerobic decoupling above tolerance"
	ReasonMetabolicOK         = "Engine efficient"
)

// Metabolic evaluates intensity discipline and systemic fatigue. Every RED
// trigger is flagged, but only one vote is cast and it carries the first
// trigger's reason.
func Metabolic(s session.MetabolicSlice, th MetabolicThresholds) contracts.Vote {
	var flagged []contracts.FlaggedMetric
	var reasons []string

	if limit := s.RedZoneLimitMinutes; limit != nil && s.RedZoneMinutes > *limit {
		flagged = append(flagged, contracts.FlaggedMetric{Metric: "red_zone_minutes", Value: s.RedZoneMinutes, Threshold: *limit})
		reasons = append(reasons, fmt.Sprintf("%s: %.0f min above red zone (limit %.0f)", ReasonIntensityDiscipline, s.RedZoneMinutes, *limit))
	}
	if drop, ok := hrvDrop(s); ok && drop >= th.HRVDropPercent {
		flagged = append(flagged, contracts.FlaggedMetric{Metric: "hrv_drop_percent", Value: drop, Threshold: th.HRVDropPercent})
		reasons = append(reasons, fmt.Sprintf("%s: HRV %.0f%% below baseline", ReasonSystemicFatigue, drop))
	}

	vote := contracts.Vote{AgentID: contracts.AgentMetabolic}
	if len(reasons) > 0 {
		vote.Color = contracts.ColorRed
		vote.Confidence = 0.9
		vote.Reason = reasons[0]
		vote.FlaggedMetrics = flagged
		vote.Score = contracts.Float(clamp(40-10*float64(len(reasons)-1), 0, 100))
		return vote
	}

	if s.DecouplingPercent != nil && *s.DecouplingPercent > th.MaxDecouplingPercent {
		vote.Color = contracts.ColorAmber
		vote.Confidence = 0.7
		vote.Reason = fmt.Sprintf("%s (%.1f%%)", ReasonDecoupling, *s.DecouplingPercent)
		vote.FlaggedMetrics = []contracts.FlaggedMetric{{Metric: "decoupling_percent", Value: *s.DecouplingPercent, Threshold: th.MaxDecouplingPercent}}
		vote.Score = contracts.Float(clamp(80-(*s.DecouplingPercent-th.MaxDecouplingPercent)*4, 41, 80))
		return vote
	}

	vote.Color = contracts.ColorGreen
	vote.Confidence = 0.8
	vote.Reason = ReasonMetabolicOK
	vote.Score = contracts.Float(100)
	return vote
}

// hrvDrop returns the percentage by which current HRV sits below baseline.
func hrvDrop(s session.MetabolicSlice) (float64, bool) {
	if s.HRVBaseline == nil || s.HRVCurrent == nil || *s.HRVBaseline <= 0 {
		return 0, false
	}
	return (*s.HRVBaseline - *s.HRVCurrent) / *s.HRVBaseline * 100, true
}
