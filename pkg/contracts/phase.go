package contracts

import "strings"

// Phase names used as substitution-table columns.
const (
	PhaseBase  = "BASE"
	PhaseBuild = "BUILD"
	PhasePeak  = "PEAK"
	PhaseTaper = "TAPER"
)

// PhaseDefinition is a calendar-bounded training period with its own ceilings.
// Volumes are kilometres.
type PhaseDefinition struct {
	PhaseNumber      int     `json:"phase_number" yaml:"phase_number"`
	Name             string  `json:"name,omitempty" yaml:"name,omitempty"`
	MaxAllowedZone   Zone    `json:"max_allowed_zone" yaml:"max_allowed_zone"`
	MaxWeeklyVolume  float64 `json:"max_weekly_volume" yaml:"max_weekly_volume"`
	MaxMonthlyVolume float64 `json:"max_monthly_volume" yaml:"max_monthly_volume"`
	HRCap            *int    `json:"hr_cap,omitempty" yaml:"hr_cap,omitempty"`
}

// PhaseName returns the table column for the phase. An explicit name wins;
// otherwise phases 1..4 map to BASE, BUILD, PEAK, TAPER.
func (p PhaseDefinition) PhaseName() string {
	if p.Name != "" {
		return strings.ToUpper(p.Name)
	}
	switch p.PhaseNumber {
	case 1:
		return PhaseBase
	case 2:
		return PhaseBuild
	case 3:
		return PhasePeak
	case 4:
		return PhaseTaper
	default:
		return ""
	}
}
