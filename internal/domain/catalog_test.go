package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_Valid(t *testing.T) {
	cat := DefaultCatalog()
	require.NoError(t, cat.Validate())

	assert.Len(t, cat.Mist, 3)
	assert.Len(t, cat.Shock, 5)
	assert.Len(t, cat.Reliefs, 3)
	assert.Equal(t, 2, cat.Rates.ThunderCap)
	assert.InDelta(t, 1.0, cat.Rates.Baseline, 0)
}

func TestCatalog_IsThunder(t *testing.T) {
	cat := DefaultCatalog()
	assert.True(t, cat.IsThunder(KeyQuickRumble))
	assert.True(t, cat.IsThunder(KeyDeepRoll))
	assert.False(t, cat.IsThunder(KeyColdSpike))
	assert.False(t, cat.IsThunder(KeySoftVeil))
}

func TestCatalog_Category(t *testing.T) {
	cat := DefaultCatalog()

	mist, ok := cat.Category(KeyDewKiss)
	require.True(t, ok)
	assert.Equal(t, "dew kiss", mist.DisplayName)

	shock, ok := cat.Category(KeySharpHit)
	require.True(t, ok)
	assert.InDelta(t, 0.32, shock.Weight, 1e-12)

	_, ok = cat.Category("hail")
	assert.False(t, ok)
}

func TestCatalog_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Catalog)
		want   string
	}{
		{"negative weight", func(c *Catalog) { c.Mist[0].Weight = -0.1 }, "mist.soft_veil: weight must be >= 0"},
		{"inverted range", func(c *Catalog) { c.Shock[1].Intensity = IntensityRange{Min: 0.2, Max: 0.1} }, "inverted intensity range"},
		{"negative min", func(c *Catalog) { c.Shock[0].Intensity.Min = -0.01 }, "intensity min must be >= 0"},
		{"all zero mist", func(c *Catalog) {
			for i := range c.Mist {
				c.Mist[i].Weight = 0
			}
		}, "mist: all weights are zero"},
		{"only thunder weighted", func(c *Catalog) {
			for i := range c.Shock {
				if !c.IsThunder(c.Shock[i].Key) {
					c.Shock[i].Weight = 0
				}
			}
		}, "shock: all non-thunder weights are zero"},
		{"empty shock", func(c *Catalog) { c.Shock = nil }, "shock: no categories"},
		{"duplicate key", func(c *Catalog) { c.Mist[1].Key = KeySoftVeil }, "duplicate key"},
		{"unknown thunder key", func(c *Catalog) { c.ThunderKeys = append(c.ThunderKeys, "hailstorm") }, `thunder key "hailstorm"`},
		{"positive relief", func(c *Catalog) { c.Reliefs[0].Intensity = 0.1 }, "reliefs[0]: intensity must be negative"},
		{"no reliefs", func(c *Catalog) { c.Reliefs = nil }, "reliefs: none defined"},
		{"zero mist rate", func(c *Catalog) { c.Rates.MistRate = 0 }, "rates.mist_rate must be > 0"},
		{"decay above one", func(c *Catalog) { c.Rates.StormDecay = 1.2 }, "rates.storm_decay must be in (0,1]"},
		{"negative cap", func(c *Catalog) { c.Rates.ThunderCap = -1 }, "rates.thunder_cap must be >= 0"},
		{"nan weight", func(c *Catalog) { c.Shock[2].Weight = math.NaN() }, "shock.cold_spike: weight must be >= 0"},
		{"storm chaos too wide", func(c *Catalog) { c.Rates.StormChaos = 1 }, "rates.storm_chaos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := DefaultCatalog()
			tt.mutate(&cat)

			err := cat.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCatalog_Validate_ReportsAllProblems(t *testing.T) {
	cat := DefaultCatalog()
	cat.Mist[0].Weight = -1
	cat.Rates.DropRate = -2

	var cfgErr *ConfigurationError
	require.ErrorAs(t, cat.Validate(), &cfgErr)
	assert.Len(t, cfgErr.Problems, 2)
}

func TestCatalog_Validate_BadWeightStillChecksIntensity(t *testing.T) {
	cat := DefaultCatalog()
	cat.Shock[1].Weight = -3
	cat.Shock[1].Intensity = IntensityRange{Min: 0.2, Max: 0.1}

	var cfgErr *ConfigurationError
	require.ErrorAs(t, cat.Validate(), &cfgErr)
	require.Len(t, cfgErr.Problems, 2)
	assert.Contains(t, cfgErr.Problems[0], "weight must be >= 0")
	assert.Contains(t, cfgErr.Problems[1], "inverted intensity range")
}

func TestCatalog_Validate_ZeroWeightCategoryAllowed(t *testing.T) {
	cat := DefaultCatalog()
	cat.Shock[0].Weight = 0
	assert.NoError(t, cat.Validate())
}

func TestRunResult_FinalDisplacement(t *testing.T) {
	r := RunResult{FinalState: 0.05, Baseline: 1.0}
	assert.InDelta(t, -0.95, r.FinalDisplacement(), 1e-12)
}
