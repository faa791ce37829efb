package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// Point is one raw sample from a recorded session.
type Point struct {
	OffsetSeconds float64 `json:"offset_s"`
	HeartRate     float64 `json:"hr"`
	SpeedMps      float64 `json:"speed_mps"`
	Cadence       float64 `json:"cadence,omitempty"`
}

// Session is a typed, validated training session.
type Session struct {
	ID              string                    `json:"id"`
	Date            time.Time                 `json:"date"`
	Type            contracts.WorkoutType     `json:"type"`
	DurationMinutes float64                   `json:"duration_minutes"`
	DurationSource  string                    `json:"duration_source,omitempty"`
	DistanceKm      float64                   `json:"distance_km"`
	CarbsPerHour    *float64                  `json:"carbs_per_hour,omitempty"`
	GIDistress      *int                      `json:"gi_distress,omitempty"`
	Points          []Point                   `json:"points,omitempty"`
	Integrity       contracts.IntegrityStatus `json:"integrity,omitempty"`
}

// DurationSourceNone marks a record with no usable duration.
const DurationSourceNone = "none"

var activityTypes = map[string]contracts.WorkoutType{
	"running":             contracts.WorkoutRun,
	"trail_running":       contracts.WorkoutRun,
	"treadmill_running":   contracts.WorkoutRun,
	"track_running":       contracts.WorkoutRun,
	"cycling":             contracts.WorkoutBike,
	"road_biking":         contracts.WorkoutBike,
	"indoor_cycling":      contracts.WorkoutBike,
	"virtual_ride":        contracts.WorkoutBike,
	"lap_swimming":        contracts.WorkoutSwim,
	"open_water_swimming": contracts.WorkoutSwim,
	"strength_training":   contracts.WorkoutStrength,
}

// DecodeActivity converts a raw device activity record into a Session.
// Records without an id or start time are rejected; a record whose
// duration cannot be found decodes with zero duration and source "none".
func DecodeActivity(raw map[string]any) (Session, error) {
	var s Session

	id, ok := stringish(raw["activityId"])
	if !ok || id == "" {
		return s, fmt.Errorf("activity: missing activityId")
	}
	s.ID = id

	start, err := activityStart(raw)
	if err != nil {
		return s, fmt.Errorf("activity %s: %w", id, err)
	}
	s.Date = start

	s.Type = activityType(raw["activityType"])

	seconds, source := extractDuration(raw)
	s.DurationMinutes = seconds / 60
	s.DurationSource = source

	if meters, ok := positive(raw["distance"]); ok {
		s.DistanceKm = meters / 1000
	}
	if carbs, ok := number(raw["carbsPerHour"]); ok && carbs >= 0 {
		s.CarbsPerHour = &carbs
	}
	if gi, ok := number(raw["giDistress"]); ok && gi >= 0 && gi <= 10 {
		v := int(gi)
		s.GIDistress = &v
	}
	return s, nil
}

func activityStart(raw map[string]any) (time.Time, error) {
	for _, key := range []string{"startTimeLocal", "startTimeGMT"} {
		if v, ok := raw[key].(string); ok && v != "" {
			for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, contracts.DateLayout} {
				if t, err := time.Parse(layout, v); err == nil {
					return t, nil
				}
			}
			return time.Time{}, fmt.Errorf("unparseable %s %q", key, v)
		}
	}
	if v, ok := raw["date"].(string); ok {
		return contracts.ParseDate(v)
	}
	return time.Time{}, fmt.Errorf("missing start time")
}

func activityType(v any) contracts.WorkoutType {
	var key string
	switch t := v.(type) {
	case string:
		key = t
	case map[string]any:
		key, _ = t["typeKey"].(string)
	}
	if wt, ok := activityTypes[strings.ToLower(key)]; ok {
		return wt
	}
	return contracts.WorkoutCross
}

// extractDuration walks the known duration fields in priority order and
// returns seconds plus the field that supplied them.
func extractDuration(raw map[string]any) (float64, string) {
	if d, ok := raw["duration"]; ok {
		if m, isMap := d.(map[string]any); isMap {
			if v, ok := positive(m["totalSeconds"]); ok {
				return v, "duration.totalSeconds"
			}
		} else if v, ok := positive(d); ok {
			return v, "duration"
		}
	}
	for _, key := range []string{"elapsedDuration", "elapsedDurationInSeconds"} {
		if v, ok := positive(raw[key]); ok {
			return v, key
		}
	}
	if dto, ok := raw["summaryDTO"].(map[string]any); ok {
		for _, key := range []string{"elapsedDuration", "duration"} {
			if v, ok := positive(dto[key]); ok {
				return v, "summaryDTO." + key
			}
		}
	}
	return 0, DurationSourceNone
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func positive(v any) (float64, bool) {
	n, ok := number(v)
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

func stringish(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}
