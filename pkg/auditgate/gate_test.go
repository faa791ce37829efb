package auditgate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int           { return &v }
func boolp(v bool) *bool        { return &v }
func strp(v string) *string     { return &v }
func floatp(v float64) *float64 { return &v }

func completeInput() Input {
	return Input{
		NiggleScore:            intp(2),
		StrengthSessionDone:    boolp(true),
		StrengthTier:           strp("maintenance"),
		LastRunDurationMinutes: 45,
		DaysSinceLastLift:      2,
		FuelingCarbsPerHour:    floatp(70),
		FuelingGIDistress:      intp(1),
	}
}

func TestEvaluate_NiggleOnlyMissing(t *testing.T) {
	in := completeInput()
	in.NiggleScore = nil

	out := Evaluate(in)
	assert.True(t, out.AuditRequired)
	assert.Equal(t, TypeNiggle, out.AuditType)
	assert.Equal(t, []string{MissingNiggle}, out.MissingInputs)

	// Supplying the niggle afterwards clears the audit.
	in.NiggleScore = intp(3)
	out = Evaluate(in)
	assert.False(t, out.AuditRequired)
	assert.Equal(t, TypeNone, out.AuditType)
	assert.Empty(t, out.MissingInputs)
}

func TestEvaluate_StrengthOnlyAfterAWeek(t *testing.T) {
	in := completeInput()
	in.StrengthSessionDone = nil
	in.StrengthTier = nil

	in.DaysSinceLastLift = 6
	assert.False(t, Evaluate(in).AuditRequired)

	in.DaysSinceLastLift = 7
	out := Evaluate(in)
	assert.True(t, out.AuditRequired)
	assert.Equal(t, TypeStrength, out.AuditType)
	assert.Equal(t, []string{MissingStrengthDone}, out.MissingInputs)

	in.StrengthSessionDone = boolp(true)
	out = Evaluate(in)
	assert.Equal(t, []string{MissingStrengthTier}, out.MissingInputs)

	in.StrengthSessionDone = boolp(false)
	assert.False(t, Evaluate(in).AuditRequired)
}

func TestEvaluate_FuelingTriggers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Input)
		want   bool
	}{
		{"short run, no target", func(in *Input) {}, false},
		{"exactly 90 minutes", func(in *Input) { in.LastRunDurationMinutes = 90 }, false},
		{"long last run", func(in *Input) { in.LastRunDurationMinutes = 91 }, true},
		{"long target", func(in *Input) { in.FuelingTarget = floatp(120) }, true},
		{"historical gap", func(in *Input) { in.HasHistoricalLongRunWithoutFueling = true }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := completeInput()
			in.FuelingCarbsPerHour = nil
			in.FuelingGIDistress = nil
			tt.mutate(&in)

			out := Evaluate(in)
			assert.Equal(t, tt.want, out.AuditRequired)
			if tt.want {
				assert.Equal(t, TypeFueling, out.AuditType)
				assert.Equal(t, []string{MissingFuelingCarbs, MissingFuelingGI}, out.MissingInputs)
			}
		})
	}
}

func TestEvaluate_CollectsAllAndReportsFirstCategory(t *testing.T) {
	in := Input{
		DaysSinceLastLift:      10,
		LastRunDurationMinutes: 120,
	}
	out := Evaluate(in)

	assert.True(t, out.AuditRequired)
	assert.Equal(t, TypeNiggle, out.AuditType)
	assert.Equal(t, []string{
		MissingNiggle,
		MissingStrengthDone,
		MissingFuelingCarbs,
		MissingFuelingGI,
	}, out.MissingInputs)
}

func TestInput_Summary(t *testing.T) {
	in := completeInput()
	s := in.Summary()
	assert.Equal(t, 2, *s.NiggleScore)
	assert.Equal(t, "maintenance", *s.StrengthTier)
	assert.Equal(t, 70.0, *s.FuelingCarbsPerHour)
}
