package substitution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()
	assert.Equal(t, "1.0.0", tbl.Version())
	assert.Equal(t, contracts.WorkoutSwim, tbl.PhysioType())

	e, ok := tbl.Lookup("structural_RED", "build")
	require.True(t, ok)
	assert.Equal(t, EntryModify, e.Action)

	// metabolic_RED has a PEAK column and a wildcard for the rest.
	peak, ok := tbl.Lookup("metabolic_RED", contracts.PhasePeak)
	require.True(t, ok)
	base, ok := tbl.Lookup("metabolic_RED", contracts.PhaseBase)
	require.True(t, ok)
	assert.NotEqual(t, peak.Protocol, base.Protocol)

	_, ok = tbl.Lookup("lactate_RED", contracts.PhaseBase)
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "fueling_RED", Key(contracts.AgentFueling))
	assert.Equal(t, "structural_RED_metabolic_RED",
		MultiKey([]contracts.AgentID{contracts.AgentMetabolic, contracts.AgentStructural}))
	assert.Equal(t, "metabolic_RED_fueling_RED_lactate_RED",
		MultiKey([]contracts.AgentID{"lactate", contracts.AgentFueling, contracts.AgentMetabolic}))
}

func TestParse_JSONDocument(t *testing.T) {
	tbl, err := Parse([]byte(`{"version": "1.4.2", "rules": {"fueling_RED": {"*": {"action": "MODIFY", "overrides": [{"max_duration_minutes": 100}]}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", tbl.Version())
	e, ok := tbl.Lookup("fueling_RED", "TAPER")
	require.True(t, ok)
	assert.Equal(t, 100, e.Overrides[0].MaxDurationMinutes)
}

func TestParse_PhaseColumnsAreCaseInsensitive(t *testing.T) {
	tbl, err := Parse([]byte(`
version: 1.0.0
phases: [base, taper]
rules:
  fueling_RED:
    taper: {action: SHUTDOWN, protocol: "Rest before race."}
    "*": {action: MODIFY, overrides: [{max_duration_minutes: 60}]}
`))
	require.NoError(t, err)

	e, ok := tbl.Lookup("fueling_RED", contracts.PhaseTaper)
	require.True(t, ok)
	assert.Equal(t, EntryShutdown, e.Action)
	e, ok = tbl.Lookup("fueling_RED", "taper")
	require.True(t, ok)
	assert.Equal(t, EntryShutdown, e.Action)
	assert.Equal(t, []string{"BASE", "TAPER"}, tbl.Document().Phases)

	res := NewEngine(tbl).Decide(Request{
		Workout: run(contracts.Zone2, 50),
		Votes:   with(greens(), vote(contracts.AgentFueling, contracts.ColorRed)),
		Phase:   contracts.PhaseDefinition{PhaseNumber: 4},
	})
	assert.Equal(t, contracts.ActionSkipped, res.Action)
	assert.Empty(t, res.Warnings)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"not yaml", "version: [", "parse"},
		{"missing version", "rules: {}", "schema validation failed"},
		{"unknown action", `
version: 1.0.0
rules:
  structural_RED:
    BASE: {action: PANIC}
`, "schema validation failed"},
		{"zone out of range", `
version: 1.0.0
rules:
  structural_RED:
    BASE: {action: MODIFY, overrides: [{max_zone: 7}]}
`, "schema validation failed"},
		{"bad key", `
version: 1.0.0
rules:
  Structural-Red:
    BASE: {action: MODIFY}
`, "schema validation failed"},
		{"bad semver", `
version: "one"
rules: {}
`, "version"},
		{"unsupported major", `
version: 2.0.0
rules: {}
`, "unsupported major"},
		{"multi veto must shut down", `
version: 1.0.0
rules:
  structural_RED_metabolic_RED:
    "*": {action: MODIFY}
`, "must be SHUTDOWN"},
		{"multi veto out of order", `
version: 1.0.0
rules:
  metabolic_RED_structural_RED:
    "*": {action: SHUTDOWN}
`, "hierarchy order"},
		{"phase column differs only in case", `
version: 1.0.0
rules:
  fueling_RED:
    base: {action: MODIFY}
    BASE: {action: SHUTDOWN}
`, "duplicate phase column"},
		{"bad guard", `
version: 1.0.0
rules:
  fueling_RED:
    "*": {action: MODIFY, overrides: [{when: "workout.type ==", max_zone: 2}]}
`, "compile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestGuards(t *testing.T) {
	g, err := NewGuards()
	require.NoError(t, err)

	w := contracts.Workout{Type: contracts.WorkoutRun, PrimaryZone: contracts.Zone4, DurationMinutes: 160}

	ok, err := g.Match("", w, "BASE")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Match(`workout.type == "RUN" && workout.duration_minutes > 150`, w, "BASE")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Match(`phase == "PEAK" || workout.zone < 3`, w, "BASE")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = g.Match(`workout.zone + 1`, w, "BASE")
	assert.Error(t, err)
}

func TestDocumentIsACopy(t *testing.T) {
	tbl := Default()
	doc := tbl.Document()
	delete(doc.Rules, "structural_RED")
	_, ok := tbl.Lookup("structural_RED", contracts.PhaseBase)
	assert.True(t, ok)
}
