package domain

import (
	"fmt"
	"math"
)

// Category keys of the default tables.
const (
	KeySoftVeil    = "soft_veil"
	KeyCoolBreath  = "cool_breath"
	KeyDewKiss     = "dew_kiss"
	KeyGentleTap   = "gentle_tap"
	KeySharpHit    = "sharp_hit"
	KeyColdSpike   = "cold_spike"
	KeyQuickRumble = "quick_rumble"
	KeyDeepRoll    = "deep_roll"

	// KeyRelief is the category key shared by all clearing events.
	KeyRelief = "relief"
)

// IntensityRange is the closed interval an intensity is drawn from.
type IntensityRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// EventCategory is one weighted entry of a sampling table.
type EventCategory struct {
	Key         string         `yaml:"key" json:"key"`
	DisplayName string         `yaml:"name" json:"name"`
	Weight      float64        `yaml:"weight" json:"weight"`
	Intensity   IntensityRange `yaml:"intensity" json:"intensity"`
}

// Relief is a fixed negative-intensity event applied during clearing.
type Relief struct {
	Name      string  `yaml:"name" json:"name"`
	Intensity float64 `yaml:"intensity" json:"intensity"`
}

// Rates holds the tunable parameters of the disturbance model.
type Rates struct {
	MistRate               float64    // mist events per second
	MistChaos              float64    // symmetric chaos bound for mist
	DropRate               float64    // storm drops per second
	StormChaos             float64    // downward chaos bound for storm; upward is 1.5x
	ShockThreshold         float64    // minimum |intensity| for a storm event to be displayed
	MistDecay              float64    // per-step decay factor during mist
	StormDecay             float64    // per-step decay factor during storm
	ThunderCap             int        // maximum thunder events per run
	Baseline               float64    // resting state value
	BurstProbability       float64    // chance a storm wait is stretched or squeezed
	BurstFactors           [2]float64 // wait multipliers, chosen uniformly
	MistDisplayProbability float64    // chance a mist event is rendered
	DecayStepsPerSecond    float64    // decay granularity between events
}

// Catalog is the static description of a ceremony: what can happen and how often.
// Mist and Shock are ordered so that seeded runs are reproducible.
type Catalog struct {
	Mist        []EventCategory
	Shock       []EventCategory
	ThunderKeys []string
	Reliefs     []Relief
	Rates       Rates
}

// DefaultRates returns the stock model parameters.
func DefaultRates() Rates {
	return Rates{
		MistRate:               2.5,
		MistChaos:              0.15,
		DropRate:               0.5,
		StormChaos:             0.5,
		ShockThreshold:         0.02,
		MistDecay:              0.98,
		StormDecay:             0.95,
		ThunderCap:             2,
		Baseline:               1.0,
		BurstProbability:       0.12,
		BurstFactors:           [2]float64{0.1, 3.5},
		MistDisplayProbability: 0.3,
		DecayStepsPerSecond:    20,
	}
}

// DefaultCatalog returns the stock mist → storm → clearing ceremony.
func DefaultCatalog() Catalog {
	return Catalog{
		Mist: []EventCategory{
			{Key: KeySoftVeil, DisplayName: "soft veil", Weight: 0.50, Intensity: IntensityRange{0.001, 0.008}},
			{Key: KeyCoolBreath, DisplayName: "cool breath", Weight: 0.35, Intensity: IntensityRange{0.008, 0.015}},
			{Key: KeyDewKiss, DisplayName: "dew kiss", Weight: 0.15, Intensity: IntensityRange{0.015, 0.025}},
		},
		Shock: []EventCategory{
			{Key: KeyGentleTap, DisplayName: "gentle tap", Weight: 0.50, Intensity: IntensityRange{0.02, 0.05}},
			{Key: KeySharpHit, DisplayName: "sharp HIT", Weight: 0.32, Intensity: IntensityRange{0.05, 0.12}},
			{Key: KeyColdSpike, DisplayName: "COLD spike", Weight: 0.15, Intensity: IntensityRange{0.12, 0.25}},
			{Key: KeyQuickRumble, DisplayName: "⚡ quick rumble", Weight: 0.02, Intensity: IntensityRange{0.15, 0.28}},
			{Key: KeyDeepRoll, DisplayName: "🌩️ deep roll", Weight: 0.01, Intensity: IntensityRange{0.25, 0.40}},
		},
		ThunderKeys: []string{KeyQuickRumble, KeyDeepRoll},
		Reliefs: []Relief{
			{Name: "🌤️ Emerging Light", Intensity: -0.18},
			{Name: "☀️ Warming Rays", Intensity: -0.32},
			{Name: "🌈 Rainbow Serenity", Intensity: -0.45},
		},
		Rates: DefaultRates(),
	}
}

// Category looks up a mist or shock category by key.
func (c Catalog) Category(key string) (EventCategory, bool) {
	for _, set := range [][]EventCategory{c.Mist, c.Shock} {
		for _, cat := range set {
			if cat.Key == key {
				return cat, true
			}
		}
	}
	return EventCategory{}, false
}

// IsThunder reports whether key names one of the capped thunder categories.
func (c Catalog) IsThunder(key string) bool {
	for _, k := range c.ThunderKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Validate checks every table and rate, returning a *ConfigurationError that
// lists all problems found, or nil.
func (c Catalog) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	validateSet := func(name string, set []EventCategory, exclude func(string) bool) {
		if len(set) == 0 {
			addf("%s: no categories", name)
			return
		}
		seen := make(map[string]bool, len(set))
		total, eligible := 0.0, 0.0
		for i, cat := range set {
			if cat.Key == "" {
				addf("%s[%d]: empty key", name, i)
			}
			if seen[cat.Key] {
				addf("%s[%d]: duplicate key %q", name, i, cat.Key)
			}
			seen[cat.Key] = true
			validWeight := finite(cat.Weight) && cat.Weight >= 0
			if !validWeight {
				addf("%s.%s: weight must be >= 0, got %v", name, cat.Key, cat.Weight)
			}
			if !finite(cat.Intensity.Min) || !finite(cat.Intensity.Max) || cat.Intensity.Min < 0 {
				addf("%s.%s: intensity min must be >= 0, got %v", name, cat.Key, cat.Intensity.Min)
			}
			if cat.Intensity.Min > cat.Intensity.Max {
				addf("%s.%s: inverted intensity range [%v, %v]", name, cat.Key, cat.Intensity.Min, cat.Intensity.Max)
			}
			if !validWeight {
				continue
			}
			total += cat.Weight
			if exclude == nil || !exclude(cat.Key) {
				eligible += cat.Weight
			}
		}
		if total == 0 {
			addf("%s: all weights are zero", name)
		} else if eligible == 0 {
			addf("%s: all non-thunder weights are zero", name)
		}
	}

	validateSet("mist", c.Mist, nil)
	validateSet("shock", c.Shock, c.IsThunder)

	for _, k := range c.ThunderKeys {
		found := false
		for _, cat := range c.Shock {
			if cat.Key == k {
				found = true
				break
			}
		}
		if !found {
			addf("thunder key %q is not a shock category", k)
		}
	}

	if len(c.Reliefs) == 0 {
		addf("reliefs: none defined")
	}
	for i, r := range c.Reliefs {
		if !finite(r.Intensity) || r.Intensity >= 0 {
			addf("reliefs[%d]: intensity must be negative, got %v", i, r.Intensity)
		}
	}

	r := c.Rates
	positive := map[string]float64{
		"mist_rate":              r.MistRate,
		"drop_rate":              r.DropRate,
		"decay_steps_per_second": r.DecayStepsPerSecond,
	}
	for _, name := range []string{"mist_rate", "drop_rate", "decay_steps_per_second"} {
		if v := positive[name]; !finite(v) || v <= 0 {
			addf("rates.%s must be > 0, got %v", name, v)
		}
	}
	if !finite(r.MistChaos) || r.MistChaos < 0 || r.MistChaos >= 1 {
		addf("rates.mist_chaos must be in [0,1), got %v", r.MistChaos)
	}
	// Upward storm chaos is 1.5x, so only the downward bound keeps factors positive.
	if !finite(r.StormChaos) || r.StormChaos < 0 || r.StormChaos >= 1 {
		addf("rates.storm_chaos must be in [0,1), got %v", r.StormChaos)
	}
	if !finite(r.ShockThreshold) || r.ShockThreshold < 0 {
		addf("rates.shock_threshold must be >= 0, got %v", r.ShockThreshold)
	}
	if !finite(r.MistDecay) || r.MistDecay <= 0 || r.MistDecay > 1 {
		addf("rates.mist_decay must be in (0,1], got %v", r.MistDecay)
	}
	if !finite(r.StormDecay) || r.StormDecay <= 0 || r.StormDecay > 1 {
		addf("rates.storm_decay must be in (0,1], got %v", r.StormDecay)
	}
	if r.ThunderCap < 0 {
		addf("rates.thunder_cap must be >= 0, got %d", r.ThunderCap)
	}
	if !finite(r.Baseline) {
		addf("rates.baseline must be finite")
	}
	if !finite(r.BurstProbability) || r.BurstProbability < 0 || r.BurstProbability > 1 {
		addf("rates.burst_probability must be in [0,1], got %v", r.BurstProbability)
	}
	for i, f := range r.BurstFactors {
		if !finite(f) || f <= 0 {
			addf("rates.burst_factors[%d] must be > 0, got %v", i, f)
		}
	}
	if !finite(r.MistDisplayProbability) || r.MistDisplayProbability < 0 || r.MistDisplayProbability > 1 {
		addf("rates.mist_display_probability must be in [0,1], got %v", r.MistDisplayProbability)
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
