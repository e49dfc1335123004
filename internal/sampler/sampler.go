package sampler

import (
	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
)

// stormChaosUpside scales the upward storm chaos bound relative to the downward one.
const stormChaosUpside = 1.5

// Sampler draws mist and shock events from a validated catalog.
type Sampler struct {
	catalog domain.Catalog
	rng     RandomSource

	mist      table
	shock     table
	shockCalm table // shock set with thunder removed
}

type table struct {
	categories []domain.EventCategory
	weights    *weightedTable
}

// New validates the catalog and precomputes its sampling tables.
// A nil rng falls back to DefaultRNG.
func New(cat domain.Catalog, rng RandomSource) (*Sampler, error) {
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	s := &Sampler{catalog: cat, rng: rng}

	var err error
	if s.mist, err = newTable(cat.Mist); err != nil {
		return nil, err
	}
	if s.shock, err = newTable(cat.Shock); err != nil {
		return nil, err
	}
	calm := make([]domain.EventCategory, 0, len(cat.Shock))
	for _, c := range cat.Shock {
		if !cat.IsThunder(c.Key) {
			calm = append(calm, c)
		}
	}
	if s.shockCalm, err = newTable(calm); err != nil {
		return nil, err
	}
	return s, nil
}

func newTable(categories []domain.EventCategory) (table, error) {
	weights := make([]float64, len(categories))
	for i, c := range categories {
		weights[i] = c.Weight
	}
	wt, err := newWeightedTable(weights)
	if err != nil {
		return table{}, err
	}
	return table{categories: categories, weights: wt}, nil
}

// SampleMist draws a mist event with symmetric chaos.
func (s *Sampler) SampleMist() domain.SampledEvent {
	c := s.catalog.Rates.MistChaos
	return s.draw(s.mist, -c, c)
}

// SampleShock draws a storm shock. Once thunderCount reaches thunderCap the
// thunder categories are excluded. The caller must count the returned event
// as thunder when IsThunder reports true for its key.
func (s *Sampler) SampleShock(thunderCount, thunderCap int) domain.SampledEvent {
	t := s.shock
	if thunderCount >= thunderCap {
		t = s.shockCalm
	}
	c := s.catalog.Rates.StormChaos
	return s.draw(t, -c, stormChaosUpside*c)
}

// IsThunder reports whether key is one of the capped thunder categories.
func (s *Sampler) IsThunder(key string) bool {
	return s.catalog.IsThunder(key)
}

// Float64 exposes the sampler's source for pacing decisions so a seeded run
// consumes a single stream.
func (s *Sampler) Float64() float64 { return s.rng.Float64() }

// ExpFloat64 draws from the sampler's source with rate 1.
func (s *Sampler) ExpFloat64() float64 { return s.rng.ExpFloat64() }

func (s *Sampler) draw(t table, chaosLo, chaosHi float64) domain.SampledEvent {
	cat := t.categories[t.weights.pick(s.rng.Float64())]
	intensity := Uniform(s.rng, cat.Intensity.Min, cat.Intensity.Max)
	chaos := 1 + Uniform(s.rng, chaosLo, chaosHi)
	return domain.SampledEvent{
		CategoryKey: cat.Key,
		DisplayName: cat.DisplayName,
		Intensity:   intensity * chaos,
		ChaosFactor: chaos,
	}
}
