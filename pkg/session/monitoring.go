package session

import (
	"time"

	"github.com/MartinT518/APEX-performance-sub001/pkg/tiers"
)

// Monitoring is one day's self-reported and wellness row.
type Monitoring struct {
	Date                time.Time `json:"date"`
	NiggleScore         *int      `json:"niggle_score,omitempty"`
	StrengthSessionDone *bool     `json:"strength_session_done,omitempty"`
	StrengthTier        *string   `json:"strength_tier,omitempty"`
	// StrengthTonnageKg is the week's lifted tonnage. It fills in the tier
	// when none was reported.
	StrengthTonnageKg   *float64 `json:"strength_tonnage_kg,omitempty"`
	FuelingCarbsPerHour *float64 `json:"fueling_carbs_per_hour,omitempty"`
	FuelingGIDistress   *int     `json:"fueling_gi_distress,omitempty"`
	HRV                 *float64 `json:"hrv,omitempty"`
	SleepSeconds        *float64 `json:"sleep_seconds,omitempty"`
}

// Sanitize returns a copy of m with every out-of-range field cleared, plus
// the names of the cleared fields. Cleared fields read as "not captured", so
// the audit gate asks for them again instead of a bad value flowing into
// the agents.
func (m Monitoring) Sanitize() (Monitoring, []string) {
	out := m
	var rejected []string

	if m.NiggleScore != nil && (*m.NiggleScore < 0 || *m.NiggleScore > 10) {
		out.NiggleScore = nil
		rejected = append(rejected, "niggle_score")
	}
	if m.FuelingGIDistress != nil && (*m.FuelingGIDistress < 0 || *m.FuelingGIDistress > 10) {
		out.FuelingGIDistress = nil
		rejected = append(rejected, "fueling_gi_distress")
	}
	if m.FuelingCarbsPerHour != nil && *m.FuelingCarbsPerHour < 0 {
		out.FuelingCarbsPerHour = nil
		rejected = append(rejected, "fueling_carbs_per_hour")
	}
	if m.StrengthTier != nil {
		if id, ok := tiers.Parse(*m.StrengthTier); ok {
			norm := string(id)
			out.StrengthTier = &norm
		} else {
			out.StrengthTier = nil
			rejected = append(rejected, "strength_tier")
		}
	}
	if m.StrengthTonnageKg != nil {
		if *m.StrengthTonnageKg < 0 {
			out.StrengthTonnageKg = nil
			rejected = append(rejected, "strength_tonnage_kg")
		} else if out.StrengthTier == nil {
			derived := string(tiers.ForTonnage(*m.StrengthTonnageKg).ID)
			out.StrengthTier = &derived
		}
	}
	if m.HRV != nil && *m.HRV <= 0 {
		out.HRV = nil
		rejected = append(rejected, "hrv")
	}
	if m.SleepSeconds != nil && *m.SleepSeconds < 0 {
		out.SleepSeconds = nil
		rejected = append(rejected, "sleep_seconds")
	}
	return out, rejected
}
