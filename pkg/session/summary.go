// Package session assembles the per-agent input slices from raw session and
// monitoring data. Each agent receives only its own slice; slices are value
// copies and share no mutable state.
package session

import (
	"sort"
	"time"

	"github.com/MartinT518/APEX-performance-sub001/pkg/auditgate"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/tiers"
)

// NoLiftDays is reported when no strength session is on record.
const NoLiftDays = 365

// StructuralSlice feeds the structural agent.
type StructuralSlice struct {
	NiggleScore           int          `json:"niggle_score"`
	DaysSinceLastLift     int          `json:"days_since_last_lift"`
	StrengthTier          tiers.TierID `json:"strength_tier"`
	CurrentWeeklyVolumeKm float64      `json:"current_weekly_volume_km"`
	Points                []Point      `json:"points,omitempty"`
}

// MetabolicSlice feeds the metabolic agent.
type MetabolicSlice struct {
	RedZoneMinutes      float64  `json:"red_zone_minutes"`
	RedZoneLimitMinutes *float64 `json:"red_zone_limit_minutes,omitempty"`
	DecouplingPercent   *float64 `json:"decoupling_percent,omitempty"`
	HRVBaseline         *float64 `json:"hrv_baseline,omitempty"`
	HRVCurrent          *float64 `json:"hrv_current,omitempty"`
}

// FuelingRecord is one historical session as seen by the fueling agent.
type FuelingRecord struct {
	Date            time.Time `json:"date"`
	DurationMinutes float64   `json:"duration_minutes"`
	CarbsPerHour    *float64  `json:"carbs_per_hour,omitempty"`
}

// FuelingSlice feeds the fueling agent.
type FuelingSlice struct {
	NextRunDurationMinutes float64         `json:"next_run_duration_minutes"`
	History                []FuelingRecord `json:"history"`
}

// Summary holds the three independent slices for one evaluation.
type Summary struct {
	Structural StructuralSlice `json:"structural"`
	Metabolic  MetabolicSlice  `json:"metabolic"`
	Fueling    FuelingSlice    `json:"fueling"`
}

// Input is the raw material for one evaluation.
type Input struct {
	Today                  time.Time
	Monitoring             Monitoring
	Sessions               []Session
	LastLiftDate           *time.Time
	RedZoneHR              float64
	RedZoneLimitMinutes    *float64
	HRVBaseline            *float64
	NextRunDurationMinutes float64
	FuelingTarget          *float64
}

// Builder assembles summaries.
type Builder struct {
	// LongRunLookbackDays bounds the scan for unfuelled long runs.
	LongRunLookbackDays int
	// LongRunMinutes is the duration above which a run needs fueling data.
	LongRunMinutes float64
}

// NewBuilder returns a builder with the default lookback.
func NewBuilder() *Builder {
	return &Builder{LongRunLookbackDays: 14, LongRunMinutes: 90}
}

// Build produces the three slices. Monitoring is sanitized first.
func (b *Builder) Build(in Input) Summary {
	mon, _ := in.Monitoring.Sanitize()
	sessions := sortedSessions(in.Sessions)
	last := lastSession(sessions, contracts.WorkoutRun)

	structural := StructuralSlice{
		DaysSinceLastLift:     b.daysSinceLastLift(in, sessions),
		StrengthTier:          tiers.TierNone,
		CurrentWeeklyVolumeKm: weeklyVolume(sessions, in.Today),
	}
	if mon.NiggleScore != nil {
		structural.NiggleScore = *mon.NiggleScore
	}
	if mon.StrengthTier != nil {
		structural.StrengthTier = tiers.TierID(*mon.StrengthTier)
	}

	metabolic := MetabolicSlice{
		RedZoneLimitMinutes: in.RedZoneLimitMinutes,
		HRVBaseline:         copyFloat(in.HRVBaseline),
		HRVCurrent:          copyFloat(mon.HRV),
	}

	if last != nil {
		structural.Points = append([]Point(nil), last.Points...)
		metabolic.RedZoneMinutes = RedZoneMinutes(last.Points, in.RedZoneHR)
		if d, ok := AerobicDecoupling(last.Points); ok {
			metabolic.DecouplingPercent = &d
		}
	}

	fueling := FuelingSlice{NextRunDurationMinutes: in.NextRunDurationMinutes}
	for _, s := range sessions {
		if s.Type != contracts.WorkoutRun {
			continue
		}
		fueling.History = append(fueling.History, FuelingRecord{
			Date:            s.Date,
			DurationMinutes: s.DurationMinutes,
			CarbsPerHour:    copyFloat(s.CarbsPerHour),
		})
	}

	return Summary{Structural: structural, Metabolic: metabolic, Fueling: fueling}
}

// AuditInput derives the gatekeeper input for the same raw material.
func (b *Builder) AuditInput(in Input) auditgate.Input {
	mon, _ := in.Monitoring.Sanitize()
	sessions := sortedSessions(in.Sessions)

	out := auditgate.Input{
		NiggleScore:         mon.NiggleScore,
		StrengthSessionDone: mon.StrengthSessionDone,
		StrengthTier:        mon.StrengthTier,
		DaysSinceLastLift:   b.daysSinceLastLift(in, sessions),
		FuelingTarget:       in.FuelingTarget,
		FuelingCarbsPerHour: mon.FuelingCarbsPerHour,
		FuelingGIDistress:   mon.FuelingGIDistress,
	}
	if last := lastSession(sessions, contracts.WorkoutRun); last != nil {
		out.LastRunDurationMinutes = last.DurationMinutes
	}
	out.HasHistoricalLongRunWithoutFueling = b.unfuelledLongRun(sessions, in.Today)
	return out
}

func (b *Builder) unfuelledLongRun(sessions []Session, today time.Time) bool {
	cutoff := today.AddDate(0, 0, -b.LongRunLookbackDays)
	for _, s := range sessions {
		if s.Type != contracts.WorkoutRun || s.Date.Before(cutoff) || s.Date.After(today) {
			continue
		}
		if s.DurationMinutes > b.LongRunMinutes && s.CarbsPerHour == nil {
			return true
		}
	}
	return false
}

func (b *Builder) daysSinceLastLift(in Input, sessions []Session) int {
	var last *time.Time
	if in.LastLiftDate != nil {
		t := *in.LastLiftDate
		last = &t
	}
	if s := lastSession(sessions, contracts.WorkoutStrength); s != nil {
		if last == nil || s.Date.After(*last) {
			t := s.Date
			last = &t
		}
	}
	if last == nil {
		return NoLiftDays
	}
	days := int(truncateDay(in.Today).Sub(truncateDay(*last)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// weeklyVolume sums running distance over the seven days ending today.
func weeklyVolume(sessions []Session, today time.Time) float64 {
	end := truncateDay(today).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -7)
	var km float64
	for _, s := range sessions {
		if s.Type == contracts.WorkoutRun && !s.Date.Before(start) && s.Date.Before(end) {
			km += s.DistanceKm
		}
	}
	return km
}

// sortedSessions returns a copy ordered newest first, dropping sessions the
// integrity check rejected.
func sortedSessions(in []Session) []Session {
	out := make([]Session, 0, len(in))
	for _, s := range in {
		if s.Integrity == contracts.IntegrityRejected {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func lastSession(sorted []Session, t contracts.WorkoutType) *Session {
	for i := range sorted {
		if sorted[i].Type == t {
			return &sorted[i]
		}
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
