// Package tiers defines strength tonnage tiers. A tier summarises how much
// lifting an athlete sustains and maps to the running volume their
// structure can absorb.
package tiers

import "strings"

// TierID identifies a tonnage tier.
type TierID string

const (
	TierNone        TierID = "none"
	TierMaintenance TierID = "maintenance"
	TierHypertrophy TierID = "hypertrophy"
	TierStrength    TierID = "strength"
)

// Tier represents a tonnage band and its structural ceiling.
type Tier struct {
	ID          TierID
	Name        string
	Description string
	// MinWeeklyTonnageKg is the lower bound of lifted tonnage for the band.
	MinWeeklyTonnageKg float64
	// MaxWeeklyVolumeKm is the maximum sustainable weekly running volume.
	MaxWeeklyVolumeKm float64
}

// All available tiers
var (
	None = Tier{
		ID:                 TierNone,
		Name:               "None",
		Description:        "No regular strength work",
		MinWeeklyTonnageKg: 0,
		MaxWeeklyVolumeKm:  40,
	}

	Maintenance = Tier{
		ID:                 TierMaintenance,
		Name:               "Maintenance",
		Description:        "One or two light sessions per week",
		MinWeeklyTonnageKg: 2_000,
		MaxWeeklyVolumeKm:  60,
	}

	Hypertrophy = Tier{
		ID:                 TierHypertrophy,
		Name:               "Hypertrophy",
		Description:        "Progressive loading, moderate tonnage",
		MinWeeklyTonnageKg: 5_000,
		MaxWeeklyVolumeKm:  80,
	}

	Strength = Tier{
		ID:                 TierStrength,
		Name:               "Strength",
		Description:        "Heavy, consistent lifting",
		MinWeeklyTonnageKg: 8_000,
		MaxWeeklyVolumeKm:  100,
	}

	// AllTiers contains all available tiers
	AllTiers = map[TierID]Tier{
		TierNone:        None,
		TierMaintenance: Maintenance,
		TierHypertrophy: Hypertrophy,
		TierStrength:    Strength,
	}
)

// Get returns a tier by ID, or nil if not found.
func Get(id TierID) *Tier {
	tier, ok := AllTiers[id]
	if !ok {
		return nil
	}
	return &tier
}

// Parse normalises a user-supplied tier name.
func Parse(s string) (TierID, bool) {
	id := TierID(strings.ToLower(strings.TrimSpace(s)))
	_, ok := AllTiers[id]
	return id, ok
}

// ForTonnage returns the highest tier whose floor the tonnage reaches.
func ForTonnage(weeklyKg float64) Tier {
	best := None
	for _, t := range AllTiers {
		if weeklyKg >= t.MinWeeklyTonnageKg && t.MinWeeklyTonnageKg >= best.MinWeeklyTonnageKg {
			best = t
		}
	}
	return best
}

// MaxWeeklyVolume returns the ceiling for id, falling back to the most
// conservative tier for unknown ids.
func MaxWeeklyVolume(id TierID) float64 {
	if t := Get(id); t != nil {
		return t.MaxWeeklyVolumeKm
	}
	return None.MaxWeeklyVolumeKm
}
