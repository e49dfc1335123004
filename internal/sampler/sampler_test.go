package sampler

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
)

const draws = 50000

func newTestSampler(t *testing.T, cat domain.Catalog, seed uint64) *Sampler {
	t.Helper()
	s, err := New(cat, NewSeededRNG(seed))
	require.NoError(t, err)
	return s
}

// chiSquarePValue returns the goodness-of-fit p-value of observed counts
// against the expected probabilities of categories with positive weight.
func chiSquarePValue(counts map[string]int, categories []domain.EventCategory, n int) float64 {
	total := 0.0
	for _, c := range categories {
		total += c.Weight
	}
	stat := 0.0
	k := 0
	for _, c := range categories {
		if c.Weight == 0 {
			continue
		}
		expected := float64(n) * c.Weight / total
		d := float64(counts[c.Key]) - expected
		stat += d * d / expected
		k++
	}
	return 1 - distuv.ChiSquared{K: float64(k - 1)}.CDF(stat)
}

func TestSampleMist_Distribution(t *testing.T) {
	cat := domain.DefaultCatalog()
	s := newTestSampler(t, cat, 42)

	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[s.SampleMist().CategoryKey]++
	}

	for _, c := range cat.Mist {
		freq := float64(counts[c.Key]) / draws
		assert.InDelta(t, c.Weight, freq, 0.01, "category %s", c.Key)
	}
	assert.Greater(t, chiSquarePValue(counts, cat.Mist, draws), 1e-4)
}

func TestSampleShock_DistributionBelowCap(t *testing.T) {
	cat := domain.DefaultCatalog()
	s := newTestSampler(t, cat, 7)

	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[s.SampleShock(0, math.MaxInt).CategoryKey]++
	}

	for _, c := range cat.Shock {
		freq := float64(counts[c.Key]) / draws
		assert.InDelta(t, c.Weight, freq, 0.01, "category %s", c.Key)
	}
	assert.Greater(t, chiSquarePValue(counts, cat.Shock, draws), 1e-4)
}

func TestSampleShock_NoThunderAtCap(t *testing.T) {
	cat := domain.DefaultCatalog()
	s := newTestSampler(t, cat, 99)

	for i := 0; i < draws; i++ {
		ev := s.SampleShock(2, 2)
		require.False(t, s.IsThunder(ev.CategoryKey), "thunder drawn at cap: %s", ev.CategoryKey)
	}
	for i := 0; i < 1000; i++ {
		ev := s.SampleShock(3, 2)
		require.False(t, s.IsThunder(ev.CategoryKey))
	}
}

func TestSampleShock_ZeroCapNeverThunders(t *testing.T) {
	cat := domain.DefaultCatalog()
	cat.Rates.ThunderCap = 0
	s := newTestSampler(t, cat, 3)

	for i := 0; i < draws; i++ {
		assert.False(t, s.IsThunder(s.SampleShock(0, 0).CategoryKey))
	}
}

func TestSampleShock_CappedRunNeverExceedsCap(t *testing.T) {
	cat := domain.DefaultCatalog()
	s := newTestSampler(t, cat, 11)

	thunder := 0
	for i := 0; i < draws; i++ {
		if ev := s.SampleShock(thunder, cat.Rates.ThunderCap); s.IsThunder(ev.CategoryKey) {
			thunder++
		}
	}
	assert.Equal(t, cat.Rates.ThunderCap, thunder)
}

func TestSampleMist_IntensityAndChaosBounds(t *testing.T) {
	cat := domain.DefaultCatalog()
	s := newTestSampler(t, cat, 5)
	chaos := cat.Rates.MistChaos

	for i := 0; i < draws; i++ {
		ev := s.SampleMist()
		c, ok := cat.Category(ev.CategoryKey)
		require.True(t, ok)

		require.GreaterOrEqual(t, ev.ChaosFactor, 1-chaos)
		require.Less(t, ev.ChaosFactor, 1+chaos)

		raw := ev.Intensity / ev.ChaosFactor
		require.GreaterOrEqual(t, raw, c.Intensity.Min-1e-12)
		require.LessOrEqual(t, raw, c.Intensity.Max+1e-12)
		require.Equal(t, c.DisplayName, ev.DisplayName)
	}
}

func TestSampleShock_AsymmetricChaos(t *testing.T) {
	cat := domain.DefaultCatalog()
	s := newTestSampler(t, cat, 8)
	chaos := cat.Rates.StormChaos

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < draws; i++ {
		f := s.SampleShock(0, 2).ChaosFactor
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}

	assert.GreaterOrEqual(t, lo, 1-chaos)
	assert.Less(t, hi, 1+1.5*chaos)
	// Both tails are reached: the upside extends past the symmetric bound.
	assert.Less(t, lo, 1-0.9*chaos)
	assert.Greater(t, hi, 1+1.4*chaos)
}

func TestSampler_ZeroWeightNeverChosen(t *testing.T) {
	cat := domain.DefaultCatalog()
	cat.Mist[1].Weight = 0 // cool_breath
	s := newTestSampler(t, cat, 21)

	for i := 0; i < draws; i++ {
		require.NotEqual(t, domain.KeyCoolBreath, s.SampleMist().CategoryKey)
	}
}

func TestSampler_Deterministic(t *testing.T) {
	cat := domain.DefaultCatalog()
	a := newTestSampler(t, cat, 1234)
	b := newTestSampler(t, cat, 1234)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.SampleShock(0, 2), b.SampleShock(0, 2))
		assert.Equal(t, a.SampleMist(), b.SampleMist())
	}
}

func TestNew_RejectsInvalidCatalog(t *testing.T) {
	cat := domain.DefaultCatalog()
	for i := range cat.Mist {
		cat.Mist[i].Weight = 0
	}

	_, err := New(cat, NewSeededRNG(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestWeightedTable_Pick(t *testing.T) {
	wt, err := newWeightedTable([]float64{0, 1, 0, 3, 0})
	require.NoError(t, err)

	assert.Equal(t, 1, wt.pick(0))
	assert.Equal(t, 1, wt.pick(0.2499))
	assert.Equal(t, 3, wt.pick(0.25))
	assert.Equal(t, 3, wt.pick(0.9999))
	// u == 1 can only come from rounding; it still lands on a weighted entry.
	assert.Equal(t, 3, wt.pick(1))
}

func TestWeightedTable_Errors(t *testing.T) {
	_, err := newWeightedTable([]float64{0, 0})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = newWeightedTable([]float64{1, -1})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = newWeightedTable(nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestExponential_Mean(t *testing.T) {
	rng := NewSeededRNG(77)
	const rate = 2.5
	sum := 0.0
	for i := 0; i < draws; i++ {
		sum += Exponential(rng, rate)
	}
	assert.InDelta(t, 1/rate, sum/draws, 0.01)
}
