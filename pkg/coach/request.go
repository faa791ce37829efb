package coach

import (
	"errors"
	"fmt"
	"time"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/session"
	"github.com/MartinT518/APEX-performance-sub001/pkg/status"
)

// ErrInvalidRequest is returned for requests that cannot be evaluated.
var ErrInvalidRequest = errors.New("invalid decision request")

// DailyRequest is everything one day's evaluation needs. Collaborator data
// (sessions, baselines, forecast) is passed in; the engine never fetches it.
type DailyRequest struct {
	UserID  string            `json:"user_id"`
	Date    string            `json:"date"`
	Workout contracts.Workout `json:"workout"`

	Monitoring session.Monitoring `json:"monitoring"`
	Sessions   []session.Session  `json:"sessions,omitempty"`
	// Activities are raw device records, decoded and appended to Sessions.
	Activities []map[string]any `json:"activities,omitempty"`

	LastLiftDate        string   `json:"last_lift_date,omitempty"`
	RedZoneHR           float64  `json:"red_zone_hr,omitempty"`
	RedZoneLimitMinutes *float64 `json:"red_zone_limit_minutes,omitempty"`
	HRVBaseline         *float64 `json:"hrv_baseline,omitempty"`
	FuelingTarget       *float64 `json:"fueling_target,omitempty"`

	// Integrity overrides the integrity verdict of the newest session.
	Integrity contracts.IntegrityStatus `json:"integrity,omitempty"`
	// Phase bypasses the phase calendar when set.
	Phase    *contracts.PhaseDefinition `json:"phase,omitempty"`
	Override status.Override            `json:"statistical_override"`
	Forecast *contracts.Forecast        `json:"forecast,omitempty"`
}

// Validate checks the request shape.
func (r DailyRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if _, err := contracts.ParseDate(r.Date); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !r.Workout.Type.Valid() {
		return fmt.Errorf("%w: unknown workout type %q", ErrInvalidRequest, r.Workout.Type)
	}
	if r.Workout.DurationMinutes < 0 {
		return fmt.Errorf("%w: negative workout duration", ErrInvalidRequest)
	}
	if r.Workout.Type != contracts.WorkoutRest && !r.Workout.PrimaryZone.Valid() {
		return fmt.Errorf("%w: zone %d outside Z1..Z5", ErrInvalidRequest, r.Workout.PrimaryZone)
	}
	if r.LastLiftDate != "" {
		if _, err := contracts.ParseDate(r.LastLiftDate); err != nil {
			return fmt.Errorf("%w: last_lift_date: %v", ErrInvalidRequest, err)
		}
	}
	return nil
}

// sessionInput converts the request into builder input. Raw activities
// that fail to decode are skipped and reported.
func (r DailyRequest) sessionInput(today time.Time) (session.Input, []string) {
	var warnings []string
	sessions := append([]session.Session(nil), r.Sessions...)
	for _, raw := range r.Activities {
		s, err := session.DecodeActivity(raw)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		sessions = append(sessions, s)
	}

	in := session.Input{
		Today:               today,
		Monitoring:          r.Monitoring,
		Sessions:            sessions,
		RedZoneHR:           r.RedZoneHR,
		RedZoneLimitMinutes: r.RedZoneLimitMinutes,
		HRVBaseline:         r.HRVBaseline,
		FuelingTarget:       r.FuelingTarget,
	}
	if r.Workout.Type == contracts.WorkoutRun {
		in.NextRunDurationMinutes = float64(r.Workout.DurationMinutes)
		if in.FuelingTarget == nil {
			target := float64(r.Workout.DurationMinutes)
			in.FuelingTarget = &target
		}
	}
	if r.LastLiftDate != "" {
		if t, err := contracts.ParseDate(r.LastLiftDate); err == nil {
			in.LastLiftDate = &t
		}
	}
	return in, warnings
}

// integrity returns the explicit verdict, or that of the newest session.
func (r DailyRequest) integrity(sessions []session.Session) contracts.IntegrityStatus {
	if r.Integrity != contracts.IntegrityUnknown {
		return r.Integrity
	}
	var newest *session.Session
	for i := range sessions {
		if newest == nil || sessions[i].Date.After(newest.Date) {
			newest = &sessions[i]
		}
	}
	if newest == nil {
		return contracts.IntegrityUnknown
	}
	return newest.Integrity
}
