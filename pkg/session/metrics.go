package session

import "math"

// minPointsForHalves is the fewest samples from which both halves of a
// session carry a meaningful efficiency factor.
const minPointsForHalves = 4

// AerobicDecoupling returns the percentage drop in efficiency factor
// (speed per heartbeat) from the first to the second half of a session.
// Positive values mean heart rate drifted up relative to pace.
func AerobicDecoupling(points []Point) (float64, bool) {
	if len(points) < minPointsForHalves {
		return 0, false
	}
	mid := len(points) / 2
	ef1, ok1 := efficiency(points[:mid])
	ef2, ok2 := efficiency(points[mid:])
	if !ok1 || !ok2 || ef1 == 0 {
		return 0, false
	}
	return (ef1 - ef2) / ef1 * 100, true
}

func efficiency(points []Point) (float64, bool) {
	var speed, hr float64
	var n int
	for _, p := range points {
		if p.HeartRate <= 0 || p.SpeedMps <= 0 {
			continue
		}
		speed += p.SpeedMps
		hr += p.HeartRate
		n++
	}
	if n == 0 || hr == 0 {
		return 0, false
	}
	return speed / hr, true
}

// RedZoneMinutes sums the time spent at or above thresholdHR. Each sample
// owns the interval up to the next sample.
func RedZoneMinutes(points []Point, thresholdHR float64) float64 {
	if thresholdHR <= 0 {
		return 0
	}
	var seconds float64
	for i := 0; i < len(points)-1; i++ {
		if points[i].HeartRate >= thresholdHR {
			dt := points[i+1].OffsetSeconds - points[i].OffsetSeconds
			if dt > 0 {
				seconds += dt
			}
		}
	}
	return seconds / 60
}

// CadenceVariation returns the coefficient of variation (percent) of the
// non-zero cadence samples.
func CadenceVariation(points []Point) (float64, bool) {
	var values []float64
	for _, p := range points {
		if p.Cadence > 0 {
			values = append(values, p.Cadence)
		}
	}
	if len(values) < 2 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / float64(len(values)))
	return std / mean * 100, true
}
