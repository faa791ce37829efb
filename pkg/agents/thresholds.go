package agents

// Thresholds holds the static agent configuration. Values are loaded once at
// boot and never change during an evaluation.
type Thresholds struct {
	Structural StructuralThresholds `yaml:"structural" json:"structural"`
	Metabolic  MetabolicThresholds  `yaml:"metabolic" json:"metabolic"`
	Fueling    FuelingThresholds    `yaml:"fueling" json:"fueling"`
}

// StructuralThresholds configures the structural agent.
type StructuralThresholds struct {
	PhysioNiggle        int     `yaml:"physio_niggle" json:"physio_niggle"`
	VetoNiggle          int     `yaml:"veto_niggle" json:"veto_niggle"`
	MaxLiftGapDays      int     `yaml:"max_lift_gap_days" json:"max_lift_gap_days"`
	RedOveragePercent   float64 `yaml:"red_overage_percent" json:"red_overage_percent"`
	MaxCadenceCVPercent float64 `yaml:"max_cadence_cv_percent" json:"max_cadence_cv_percent"`
}

// MetabolicThresholds configures the metabolic agent.
type MetabolicThresholds struct {
	HRVDropPercent       float64 `yaml:"hrv_drop_percent" json:"hrv_drop_percent"`
	MaxDecouplingPercent float64 `yaml:"max_decoupling_percent" json:"max_decoupling_percent"`
}

// FuelingThresholds configures the fueling agent.
type FuelingThresholds struct {
	LongRunMinutes      float64 `yaml:"long_run_minutes" json:"long_run_minutes"`
	RecentLongRuns      int     `yaml:"recent_long_runs" json:"recent_long_runs"`
	MinCarbsPerHour     float64 `yaml:"min_carbs_per_hour" json:"min_carbs_per_hour"`
	RequiredGutSessions int     `yaml:"required_gut_sessions" json:"required_gut_sessions"`
	UltraRunMinutes     float64 `yaml:"ultra_run_minutes" json:"ultra_run_minutes"`
}

// DefaultThresholds returns the built-in agent configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Structural: StructuralThresholds{
			PhysioNiggle:        5,
			VetoNiggle:          3,
			MaxLiftGapDays:      5,
			RedOveragePercent:   20,
			MaxCadenceCVPercent: 8,
		},
		Metabolic: MetabolicThresholds{
			HRVDropPercent:       15,
			MaxDecouplingPercent: 5,
		},
		Fueling: FuelingThresholds{
			LongRunMinutes:      90,
			RecentLongRuns:      4,
			MinCarbsPerHour:     60,
			RequiredGutSessions: 3,
			UltraRunMinutes:     150,
		},
	}
}
