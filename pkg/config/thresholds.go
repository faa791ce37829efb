package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MartinT518/APEX-performance-sub001/pkg/agents"
)

// LoadThresholds reads agent thresholds from a YAML file. Keys absent from
// the file keep their built-in values. An empty path returns the defaults.
func LoadThresholds(path string) (agents.Thresholds, error) {
	th := agents.DefaultThresholds()
	if path == "" {
		return th, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("load thresholds %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &th); err != nil {
		return th, fmt.Errorf("parse thresholds %q: %w", path, err)
	}
	if err := ValidateThresholds(th); err != nil {
		return th, fmt.Errorf("thresholds %q: %w", path, err)
	}
	return th, nil
}

// ValidateThresholds rejects values that would invert or disable a rule.
func ValidateThresholds(th agents.Thresholds) error {
	var errs []error
	s, m, f := th.Structural, th.Metabolic, th.Fueling

	if s.VetoNiggle < 0 || s.PhysioNiggle > 10 || s.VetoNiggle > s.PhysioNiggle {
		errs = append(errs, fmt.Errorf("structural: need 0 <= veto_niggle (%d) <= physio_niggle (%d) <= 10", s.VetoNiggle, s.PhysioNiggle))
	}
	if s.MaxLiftGapDays < 1 {
		errs = append(errs, errors.New("structural: max_lift_gap_days must be positive"))
	}
	if s.RedOveragePercent <= 0 {
		errs = append(errs, errors.New("structural: red_overage_percent must be positive"))
	}
	if m.HRVDropPercent <= 0 || m.HRVDropPercent >= 100 {
		errs = append(errs, errors.New("metabolic: hrv_drop_percent must be in (0,100)"))
	}
	if m.MaxDecouplingPercent <= 0 {
		errs = append(errs, errors.New("metabolic: max_decoupling_percent must be positive"))
	}
	if f.RecentLongRuns < 1 || f.RequiredGutSessions < 1 || f.RequiredGutSessions > f.RecentLongRuns {
		errs = append(errs, fmt.Errorf("fueling: need 1 <= required_gut_sessions (%d) <= recent_long_runs (%d)", f.RequiredGutSessions, f.RecentLongRuns))
	}
	if f.LongRunMinutes <= 0 || f.UltraRunMinutes < f.LongRunMinutes {
		errs = append(errs, errors.New("fueling: need 0 < long_run_minutes <= ultra_run_minutes"))
	}
	if f.MinCarbsPerHour < 0 {
		errs = append(errs, errors.New("fueling: min_carbs_per_hour must not be negative"))
	}
	return errors.Join(errs...)
}
