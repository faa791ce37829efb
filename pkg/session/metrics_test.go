package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func steadyPoints(n int, hrFirst, hrSecond float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		hr := hrFirst
		if i >= n/2 {
			hr = hrSecond
		}
		pts[i] = Point{OffsetSeconds: float64(i * 60), HeartRate: hr, SpeedMps: 3.0, Cadence: 170}
	}
	return pts
}

func TestAerobicDecoupling(t *testing.T) {
	d, ok := AerobicDecoupling(steadyPoints(10, 140, 140))
	assert.True(t, ok)
	assert.InDelta(t, 0, d, 1e-9)

	// Same pace, heart rate up 10%: EF drops by 1 - 1/1.1.
	d, ok = AerobicDecoupling(steadyPoints(10, 140, 154))
	assert.True(t, ok)
	assert.InDelta(t, (1-1/1.1)*100, d, 1e-6)

	_, ok = AerobicDecoupling(steadyPoints(3, 140, 150))
	assert.False(t, ok)

	_, ok = AerobicDecoupling([]Point{{}, {}, {}, {}})
	assert.False(t, ok)
}

func TestRedZoneMinutes(t *testing.T) {
	pts := []Point{
		{OffsetSeconds: 0, HeartRate: 150},
		{OffsetSeconds: 60, HeartRate: 176},
		{OffsetSeconds: 180, HeartRate: 180},
		{OffsetSeconds: 240, HeartRate: 160},
		{OffsetSeconds: 300, HeartRate: 190},
	}
	assert.InDelta(t, 3.0, RedZoneMinutes(pts, 175), 1e-9)
	assert.Equal(t, 0.0, RedZoneMinutes(pts, 0))
	assert.Equal(t, 0.0, RedZoneMinutes(nil, 175))
}

func TestCadenceVariation(t *testing.T) {
	cv, ok := CadenceVariation(steadyPoints(6, 140, 140))
	assert.True(t, ok)
	assert.InDelta(t, 0, cv, 1e-9)

	cv, ok = CadenceVariation([]Point{{Cadence: 150}, {Cadence: 170}, {Cadence: 0}})
	assert.True(t, ok)
	assert.InDelta(t, 10.0/160*100, cv, 1e-9)

	_, ok = CadenceVariation([]Point{{Cadence: 170}})
	assert.False(t, ok)
}
