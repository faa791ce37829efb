package agents

import (
	"fmt"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/session"
	"github.com/MartinT518/APEX-performance-sub001/pkg/tiers"
)

// Reasons emitted by the structural agent.
const (
	ReasonPhysioMode     = "PHYSIO MODE: niggle above physio threshold, zero-impact only"
	ReasonStructuralVeto = "Structural veto: niggle above tolerance"
	ReasonLiftGap        = "Strength maintenance overdue"
	ReasonVolumeAmber    = "Weekly volume exceeds tier capacity"
	ReasonVolumeRed      = "Weekly volume far exceeds tier capacity"
	ReasonStructuralOK   = "Chassis stable"
)

// Structural evaluates musculoskeletal risk. First match wins.
func Structural(s session.StructuralSlice, th StructuralThresholds) contracts.Vote {
	maxVolume := tiers.MaxWeeklyVolume(s.StrengthTier)
	overage := overagePercent(s.CurrentWeeklyVolumeKm, maxVolume)
	cv, hasCV := session.CadenceVariation(s.Points)

	var flagged []contracts.FlaggedMetric
	if hasCV && cv > th.MaxCadenceCVPercent {
		flagged = append(flagged, contracts.FlaggedMetric{Metric: "cadence_cv_percent", Value: cv, Threshold: th.MaxCadenceCVPercent})
	}

	vote := contracts.Vote{
		AgentID: contracts.AgentStructural,
		Score:   contracts.Float(structuralScore(s, th, overage, hasCV && cv > th.MaxCadenceCVPercent)),
	}

	niggle := contracts.FlaggedMetric{Metric: "niggle_score", Value: float64(s.NiggleScore)}
	switch {
	case s.NiggleScore > th.PhysioNiggle:
		niggle.Threshold = float64(th.PhysioNiggle)
		vote.Color = contracts.ColorRed
		vote.Confidence = 0.95
		vote.Reason = ReasonPhysioMode
		vote.Directive = contracts.DirectiveZeroImpact
		flagged = append([]contracts.FlaggedMetric{niggle}, flagged...)
	case s.NiggleScore > th.VetoNiggle:
		niggle.Threshold = float64(th.VetoNiggle)
		vote.Color = contracts.ColorRed
		vote.Confidence = 0.9
		vote.Reason = ReasonStructuralVeto
		flagged = append([]contracts.FlaggedMetric{niggle}, flagged...)
	case s.DaysSinceLastLift > th.MaxLiftGapDays:
		vote.Color = contracts.ColorAmber
		vote.Confidence = 0.75
		vote.Reason = fmt.Sprintf("%s (%d days since last lift)", ReasonLiftGap, s.DaysSinceLastLift)
		flagged = append([]contracts.FlaggedMetric{{Metric: "days_since_last_lift", Value: float64(s.DaysSinceLastLift), Threshold: float64(th.MaxLiftGapDays)}}, flagged...)
	case overage > 0:
		m := contracts.FlaggedMetric{Metric: "weekly_volume_km", Value: s.CurrentWeeklyVolumeKm, Threshold: maxVolume}
		flagged = append([]contracts.FlaggedMetric{m}, flagged...)
		if overage > th.RedOveragePercent {
			vote.Color = contracts.ColorRed
			vote.Confidence = 0.85
			vote.Reason = fmt.Sprintf("%s (+%.0f%%)", ReasonVolumeRed, overage)
		} else {
			vote.Color = contracts.ColorAmber
			vote.Confidence = 0.7
			vote.Reason = fmt.Sprintf("%s (+%.0f%%)", ReasonVolumeAmber, overage)
		}
	default:
		vote.Color = contracts.ColorGreen
		vote.Confidence = 0.8
		vote.Reason = ReasonStructuralOK
	}
	vote.FlaggedMetrics = flagged
	return vote
}

func overagePercent(volume, max float64) float64 {
	if max <= 0 || volume <= max {
		return 0
	}
	return (volume - max) / max * 100
}

// structuralScore is monotone in each risk input and never feeds the color.
func structuralScore(s session.StructuralSlice, th StructuralThresholds, overage float64, unstableCadence bool) float64 {
	score := 100 - float64(s.NiggleScore)*8
	if gap := s.DaysSinceLastLift - th.MaxLiftGapDays; gap > 0 {
		score -= minf(float64(gap)*2, 20)
	}
	score -= minf(overage, 30)
	if unstableCadence {
		score -= 10
	}
	return clamp(score, 0, 100)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
