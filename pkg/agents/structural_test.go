package agents

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/session"
	"github.com/MartinT518/APEX-performance-sub001/pkg/tiers"
)

func TestStructural_DecisionOrder(t *testing.T) {
	th := DefaultThresholds().Structural

	tests := []struct {
		name      string
		slice     session.StructuralSlice
		color     contracts.Color
		directive contracts.Directive
		reason    string
	}{
		{"physio mode", session.StructuralSlice{NiggleScore: 6}, contracts.ColorRed, contracts.DirectiveZeroImpact, ReasonPhysioMode},
		{"standard veto", session.StructuralSlice{NiggleScore: 4}, contracts.ColorRed, contracts.DirectiveNone, ReasonStructuralVeto},
		{"niggle at tolerance", session.StructuralSlice{NiggleScore: 3}, contracts.ColorGreen, contracts.DirectiveNone, ReasonStructuralOK},
		{"lift gap", session.StructuralSlice{NiggleScore: 1, DaysSinceLastLift: 6}, contracts.ColorAmber, contracts.DirectiveNone, ReasonLiftGap},
		{"lift gap at limit", session.StructuralSlice{DaysSinceLastLift: 5}, contracts.ColorGreen, contracts.DirectiveNone, ReasonStructuralOK},
		{"small overage", session.StructuralSlice{StrengthTier: tiers.TierMaintenance, CurrentWeeklyVolumeKm: 66}, contracts.ColorAmber, contracts.DirectiveNone, ReasonVolumeAmber},
		{"large overage", session.StructuralSlice{StrengthTier: tiers.TierMaintenance, CurrentWeeklyVolumeKm: 80}, contracts.ColorRed, contracts.DirectiveNone, ReasonVolumeRed},
		{"within tier", session.StructuralSlice{StrengthTier: tiers.TierStrength, CurrentWeeklyVolumeKm: 95}, contracts.ColorGreen, contracts.DirectiveNone, ReasonStructuralOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Structural(tt.slice, th)
			assert.Equal(t, contracts.AgentStructural, v.AgentID)
			assert.Equal(t, tt.color, v.Color)
			assert.Equal(t, tt.directive, v.Directive)
			assert.Contains(t, v.Reason, tt.reason)
			require.NotNil(t, v.Score)
			assert.GreaterOrEqual(t, *v.Score, 0.0)
			assert.LessOrEqual(t, *v.Score, 100.0)
		})
	}
}

func TestStructural_CadenceAffectsScoreOnly(t *testing.T) {
	th := DefaultThresholds().Structural
	stable := []session.Point{{Cadence: 170}, {Cadence: 171}, {Cadence: 169}, {Cadence: 170}}
	erratic := []session.Point{{Cadence: 140}, {Cadence: 190}, {Cadence: 150}, {Cadence: 185}}

	a := Structural(session.StructuralSlice{Points: stable}, th)
	b := Structural(session.StructuralSlice{Points: erratic}, th)

	assert.Equal(t, a.Color, b.Color)
	assert.Less(t, *b.Score, *a.Score)
	require.Len(t, b.FlaggedMetrics, 1)
	assert.Equal(t, "cadence_cv_percent", b.FlaggedMetrics[0].Metric)
	assert.Empty(t, a.FlaggedMetrics)
}

func TestStructural_ScoreMonotoneInNiggle(t *testing.T) {
	th := DefaultThresholds().Structural
	prev := 101.0
	for n := 0; n <= 10; n++ {
		v := Structural(session.StructuralSlice{NiggleScore: n}, th)
		assert.LessOrEqual(t, *v.Score, prev)
		prev = *v.Score
	}
}

func TestStructural_HighNiggleAlwaysRed(t *testing.T) {
	th := DefaultThresholds().Structural
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	tierIDs := []interface{}{tiers.TierNone, tiers.TierMaintenance, tiers.TierHypertrophy, tiers.TierStrength, tiers.TierID("unknown")}

	properties.Property("niggle above 5 yields RED in physio mode", prop.ForAll(
		func(niggle, days int, volume float64, tier tiers.TierID, cadence float64) bool {
			v := Structural(session.StructuralSlice{
				NiggleScore:           niggle,
				DaysSinceLastLift:     days,
				StrengthTier:          tier,
				CurrentWeeklyVolumeKm: volume,
				Points:                []session.Point{{Cadence: cadence}, {Cadence: 170}},
			}, th)
			return v.Color == contracts.ColorRed && v.Directive == contracts.DirectiveZeroImpact
		},
		gen.IntRange(6, 10),
		gen.IntRange(0, 400),
		gen.Float64Range(0, 300),
		gen.OneConstOf(tierIDs...),
		gen.Float64Range(0, 220),
	))

	properties.TestingRun(t)
}
