package status

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

func fp(v float64) *float64 { return &v }

func votes(s, m, f contracts.Color) []contracts.Vote {
	return []contracts.Vote{
		{AgentID: contracts.AgentFueling, Color: f, Reason: "gut"},
		{AgentID: contracts.AgentStructural, Color: s, Reason: "chassis"},
		{AgentID: contracts.AgentMetabolic, Color: m, Reason: "engine"},
	}
}

var allGreen = votes(contracts.ColorGreen, contracts.ColorGreen, contracts.ColorGreen)

func TestResolve_StatisticalOverrideNeedsBothSignals(t *testing.T) {
	res := Resolve(Input{Votes: allGreen, Override: Override{HRVZScore: fp(-1.8), SleepDebtHours: fp(5.5)}})
	assert.Equal(t, contracts.StatusShutdown, res.GlobalStatus)
	assert.True(t, res.StatisticalOverride)
	assert.Contains(t, res.Reason, ReasonStatistical)

	res = Resolve(Input{Votes: allGreen, Override: Override{HRVZScore: fp(-1.8), SleepDebtHours: fp(3.5)}})
	assert.Equal(t, contracts.StatusGo, res.GlobalStatus)
	assert.False(t, res.StatisticalOverride)

	res = Resolve(Input{Votes: allGreen, Override: Override{HRVZScore: fp(-1.8)}})
	assert.Equal(t, contracts.StatusGo, res.GlobalStatus)
}

func TestResolve_Rules(t *testing.T) {
	R, A, G := contracts.ColorRed, contracts.ColorAmber, contracts.ColorGreen

	tests := []struct {
		name       string
		votes      []contracts.Vote
		status     contracts.GlobalStatus
		suggested  bool
		reasonPart string
	}{
		{"structural and metabolic red", votes(R, R, G), contracts.StatusShutdown, false, ReasonMultiVeto},
		{"metabolic and fueling red", votes(G, R, R), contracts.StatusShutdown, false, ReasonMultiVeto},
		{"structural red", votes(R, G, A), contracts.StatusAdapted, true, "Structural veto: chassis"},
		{"metabolic red", votes(G, R, G), contracts.StatusAdapted, false, "Metabolic veto"},
		{"fueling red", votes(A, G, R), contracts.StatusAdapted, false, "Fueling veto"},
		{"amber only", votes(A, G, A), contracts.StatusGo, false, "Proceed with caution: Structural (chassis); Fueling (gut)"},
		{"all green", allGreen, contracts.StatusGo, false, ReasonAllClear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(Input{Votes: tt.votes})
			assert.Equal(t, tt.status, res.GlobalStatus)
			assert.Equal(t, tt.suggested, res.SubstitutionsSuggested)
			assert.Contains(t, res.Reason, tt.reasonPart)
			assert.Equal(t, ResolverConfidence, res.Confidence)
		})
	}
}

func TestResolve_NiggleAnnotatesNonGo(t *testing.T) {
	res := Resolve(Input{Votes: votes(contracts.ColorRed, contracts.ColorGreen, contracts.ColorGreen), NiggleScore: 6})
	assert.Contains(t, res.Reason, "(niggle 6/10)")

	res = Resolve(Input{Votes: allGreen, NiggleScore: 2})
	assert.Equal(t, ReasonAllClear, res.Reason)
}

func TestDisplay(t *testing.T) {
	d := Display(append(votes(contracts.ColorRed, contracts.ColorAmber, contracts.ColorGreen), contracts.Vote{AgentID: "heat_stress", Color: contracts.ColorGreen}))
	require.Len(t, d, 4)
	assert.Equal(t, VoteDisplay{Vote: contracts.AgentStructural, Color: contracts.ColorRed, Label: "Structural: Red"}, d[0])
	assert.Equal(t, "Metabolic: Amber", d[1].Label)
	assert.Equal(t, "Fueling: Green", d[2].Label)
	assert.Equal(t, "Heat Stress: Green", d[3].Label)
}

func TestResolve_OverrideNeverDemotes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	color := gen.OneConstOf(contracts.ColorRed, contracts.ColorAmber, contracts.ColorGreen)

	properties.Property("statistical context only ever adds SHUTDOWN", prop.ForAll(
		func(s, m, f contracts.Color, z, debt float64) bool {
			vs := votes(s, m, f)
			plain := Resolve(Input{Votes: vs})
			withCtx := Resolve(Input{Votes: vs, Override: Override{HRVZScore: &z, SleepDebtHours: &debt}})
			if plain.GlobalStatus == contracts.StatusShutdown {
				return withCtx.GlobalStatus == contracts.StatusShutdown
			}
			if z < ShutdownHRVZScore && debt > ShutdownSleepDebtHour {
				return withCtx.GlobalStatus == contracts.StatusShutdown
			}
			return withCtx.GlobalStatus == plain.GlobalStatus
		},
		color, color, color,
		gen.Float64Range(-4, 4), gen.Float64Range(0, 12),
	))

	properties.TestingRun(t)
}
