package contracts

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day layout used for workout and snapshot dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// WorkoutType is the training modality.
type WorkoutType string

// Workout types.
const (
	WorkoutRun      WorkoutType = "RUN"
	WorkoutBike     WorkoutType = "BIKE"
	WorkoutSwim     WorkoutType = "SWIM"
	WorkoutStrength WorkoutType = "STRENGTH"
	WorkoutCross    WorkoutType = "CROSS_TRAIN"
	WorkoutRest     WorkoutType = "REST"
)

// Valid reports whether t is a known workout type.
func (t WorkoutType) Valid() bool {
	switch t {
	case WorkoutRun, WorkoutBike, WorkoutSwim, WorkoutStrength, WorkoutCross, WorkoutRest:
		return true
	default:
		return false
	}
}

// IsImpact reports whether the modality loads the musculoskeletal system
// through ground impact.
func (t WorkoutType) IsImpact() bool {
	return t == WorkoutRun
}

// Zone is a heart-rate intensity zone, Z1 (easy) to Z5 (max).
type Zone int

// Intensity zones.
const (
	Zone1 Zone = iota + 1
	Zone2
	Zone3
	Zone4
	Zone5
)

func (z Zone) String() string { return fmt.Sprintf("Z%d", int(z)) }

// Valid reports whether z is within Z1..Z5.
func (z Zone) Valid() bool { return z >= Zone1 && z <= Zone5 }

// WorkoutStructure describes the segments of a session.
type WorkoutStructure struct {
	Warmup   string `json:"warmup,omitempty"`
	MainSet  string `json:"main_set"`
	Cooldown string `json:"cooldown,omitempty"`
}

// Workout is a planned session. Planned workouts are treated as immutable:
// substitutions derive a new value via Clone and never edit the original.
type Workout struct {
	ID              string           `json:"id"`
	Date            string           `json:"date"`
	Type            WorkoutType      `json:"type"`
	PrimaryZone     Zone             `json:"primary_zone"`
	DurationMinutes int              `json:"duration_minutes"`
	Structure       WorkoutStructure `json:"structure"`
	Constraints     []string         `json:"constraints,omitempty"`
	IsAdapted       bool             `json:"is_adapted"`
	Explanation     string           `json:"explanation,omitempty"`
}

// Clone returns a deep copy of w.
func (w Workout) Clone() Workout {
	out := w
	if w.Constraints != nil {
		out.Constraints = append([]string(nil), w.Constraints...)
	}
	return out
}

// RestFrom derives a mandatory-rest workout from w.
func RestFrom(w Workout, explanation string) Workout {
	rest := w.Clone()
	rest.Type = WorkoutRest
	rest.DurationMinutes = 0
	rest.PrimaryZone = Zone1
	rest.Structure = WorkoutStructure{MainSet: "Rest"}
	rest.IsAdapted = true
	rest.Explanation = explanation
	return rest
}

// IsRest reports whether w is a complete rest day.
func (w Workout) IsRest() bool {
	return w.Type == WorkoutRest && w.DurationMinutes == 0
}

// Action is the outcome of the substitution engine.
type Action string

// Substitution actions.
const (
	ActionExecutedAsPlanned Action = "EXECUTED_AS_PLANNED"
	ActionModified          Action = "MODIFIED"
	ActionSkipped           Action = "SKIPPED"
)

// SubstitutionResult is the concrete workout mutation emitted by the veto engine.
type SubstitutionResult struct {
	Action          Action   `json:"action"`
	OriginalWorkout Workout  `json:"original_workout"`
	FinalWorkout    Workout  `json:"final_workout"`
	Reasoning       string   `json:"reasoning"`
	Modifications   []string `json:"modifications"`
	RuleVersion     string   `json:"rule_version"`
	Warnings        []string `json:"warnings,omitempty"`
}

// IntegrityStatus is the verdict of the upstream data-integrity check
// on the most recent session.
type IntegrityStatus string

const (
	IntegrityUnknown  IntegrityStatus = ""
	IntegrityAccepted IntegrityStatus = "ACCEPTED"
	IntegrityRejected IntegrityStatus = "REJECTED"
)
