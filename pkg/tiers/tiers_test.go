package tiers_test

import (
	"testing"

	"github.com/MartinT518/APEX-performance-sub001/pkg/tiers"
	"github.com/stretchr/testify/assert"
)

func TestTiers_Get(t *testing.T) {
	tests := []struct {
		id       tiers.TierID
		expected string
	}{
		{tiers.TierNone, "None"},
		{tiers.TierMaintenance, "Maintenance"},
		{tiers.TierHypertrophy, "Hypertrophy"},
		{tiers.TierStrength, "Strength"},
	}

	for _, tt := range tests {
		tier := tiers.Get(tt.id)
		assert.NotNil(t, tier)
		assert.Equal(t, tt.expected, tier.Name)
	}
}

func TestTiers_GetUnknown(t *testing.T) {
	tier := tiers.Get("olympic")
	assert.Nil(t, tier)
	assert.Equal(t, tiers.None.MaxWeeklyVolumeKm, tiers.MaxWeeklyVolume("olympic"))
}

func TestTiers_Parse(t *testing.T) {
	id, ok := tiers.Parse("  Hypertrophy ")
	assert.True(t, ok)
	assert.Equal(t, tiers.TierHypertrophy, id)

	_, ok = tiers.Parse("bodybuilder")
	assert.False(t, ok)
}

func TestTiers_CeilingsIncrease(t *testing.T) {
	assert.Less(t, tiers.None.MaxWeeklyVolumeKm, tiers.Maintenance.MaxWeeklyVolumeKm)
	assert.Less(t, tiers.Maintenance.MaxWeeklyVolumeKm, tiers.Hypertrophy.MaxWeeklyVolumeKm)
	assert.Less(t, tiers.Hypertrophy.MaxWeeklyVolumeKm, tiers.Strength.MaxWeeklyVolumeKm)
}

func TestTiers_ForTonnage(t *testing.T) {
	assert.Equal(t, tiers.TierNone, tiers.ForTonnage(500).ID)
	assert.Equal(t, tiers.TierMaintenance, tiers.ForTonnage(2_000).ID)
	assert.Equal(t, tiers.TierHypertrophy, tiers.ForTonnage(7_500).ID)
	assert.Equal(t, tiers.TierStrength, tiers.ForTonnage(12_000).ID)
}
