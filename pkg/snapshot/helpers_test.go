package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

func intp(v int) *int { return &v }

func sample(t *testing.T, user, date string, niggle int) *contracts.DailyDecisionSnapshot {
	t.Helper()
	inputs := contracts.InputsSummary{NiggleScore: intp(niggle)}
	fp, err := Fingerprint(inputs)
	require.NoError(t, err)
	return &contracts.DailyDecisionSnapshot{
		UserID:       user,
		Date:         date,
		GlobalStatus: contracts.StatusGo,
		Reason:       "All systems nominal",
		Votes: []contracts.Vote{
			{AgentID: contracts.AgentStructural, Color: contracts.ColorGreen},
			{AgentID: contracts.AgentMetabolic, Color: contracts.ColorGreen},
			{AgentID: contracts.AgentFueling, Color: contracts.ColorGreen},
		},
		FinalWorkout:   contracts.Workout{ID: "w", Date: date, Type: contracts.WorkoutRun, PrimaryZone: contracts.Zone2, DurationMinutes: 45, Structure: contracts.WorkoutStructure{MainSet: "easy"}},
		Action:         contracts.ActionExecutedAsPlanned,
		RuleVersion:    "1.0.0",
		CertaintyScore: contracts.Float(70),
		InputsSummary:  inputs,
		Fingerprint:    fp,
		DecisionID:     "d-" + date,
		CreatedAt:      time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC),
	}
}
