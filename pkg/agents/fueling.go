package agents

import (
	"fmt"
	"sort"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/session"
)

// Reasons emitted by the fueling agent.
const (
	ReasonGutUntrained = "Gut not trained for ultra-long run"
	ReasonFuelingOK    = "Fueling readiness adequate"
)

// GutTrainingIndex counts how many of the most recent long runs logged
// carbohydrate intake at or above the threshold. It is recomputed from the
// history on every call.
func GutTrainingIndex(history []session.FuelingRecord, th FuelingThresholds) int {
	var long []session.FuelingRecord
	for _, r := range history {
		if r.DurationMinutes > th.LongRunMinutes {
			long = append(long, r)
		}
	}
	sort.SliceStable(long, func(i, j int) bool { return long[i].Date.After(long[j].Date) })
	if len(long) > th.RecentLongRuns {
		long = long[:th.RecentLongRuns]
	}
	var index int
	for _, r := range long {
		if r.CarbsPerHour != nil && *r.CarbsPerHour >= th.MinCarbsPerHour {
			index++
		}
	}
	return index
}

// Fueling evaluates whether the gut is ready for the next planned run.
func Fueling(s session.FuelingSlice, th FuelingThresholds) contracts.Vote {
	index := GutTrainingIndex(s.History, th)
	required := th.RequiredGutSessions
	if required <= 0 {
		required = 1
	}
	score := 100 * minf(float64(index), float64(required)) / float64(required)

	vote := contracts.Vote{
		AgentID: contracts.AgentFueling,
		Score:   contracts.Float(score),
	}
	if s.NextRunDurationMinutes > th.UltraRunMinutes && index < required {
		vote.Color = contracts.ColorRed
		vote.Confidence = 0.85
		vote.Reason = fmt.Sprintf("%s (gut training index %d/%d)", ReasonGutUntrained, index, required)
		vote.FlaggedMetrics = []contracts.FlaggedMetric{
			{Metric: "gut_training_index", Value: float64(index), Threshold: float64(required)},
			{Metric: "next_run_minutes", Value: s.NextRunDurationMinutes, Threshold: th.UltraRunMinutes},
		}
		return vote
	}
	vote.Color = contracts.ColorGreen
	vote.Confidence = 0.8
	vote.Reason = fmt.Sprintf("%s (gut training index %d/%d)", ReasonFuelingOK, index, required)
	return vote
}
