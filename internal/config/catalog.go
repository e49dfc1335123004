package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
)

// catalogFile is the YAML overlay schema. Tables replace the default table
// wholesale when present; rates override field by field.
type catalogFile struct {
	Mist        []domain.EventCategory `yaml:"mist"`
	Shock       []domain.EventCategory `yaml:"shock"`
	ThunderKeys []string               `yaml:"thunder_keys"`
	Reliefs     []domain.Relief        `yaml:"reliefs"`
	Rates       ratesFile              `yaml:"rates"`
}

type ratesFile struct {
	MistRate               *float64    `yaml:"mist_rate"`
	MistChaos              *float64    `yaml:"mist_chaos"`
	DropRate               *float64    `yaml:"drop_rate"`
	StormChaos             *float64    `yaml:"storm_chaos"`
	ShockThreshold         *float64    `yaml:"shock_threshold"`
	MistDecay              *float64    `yaml:"mist_decay"`
	StormDecay             *float64    `yaml:"storm_decay"`
	ThunderCap             *int        `yaml:"thunder_cap"`
	Baseline               *float64    `yaml:"baseline"`
	BurstProbability       *float64    `yaml:"burst_probability"`
	BurstFactors           *[2]float64 `yaml:"burst_factors"`
	MistDisplayProbability *float64    `yaml:"mist_display_probability"`
	DecayStepsPerSecond    *float64    `yaml:"decay_steps_per_second"`
}

// LoadCatalog returns the default catalog overlaid with the YAML file at path.
// An empty path yields the defaults. Parse and validation failures match
// domain.ErrConfiguration.
func LoadCatalog(path string) (domain.Catalog, error) {
	if path == "" {
		return domain.DefaultCatalog(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := ParseCatalog(b)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog applies a YAML overlay to the default catalog and validates the result.
func ParseCatalog(data []byte) (domain.Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return domain.Catalog{}, &domain.ConfigurationError{Problems: []string{"yaml: " + err.Error()}}
	}

	cat := merge(domain.DefaultCatalog(), file)
	if err := cat.Validate(); err != nil {
		return domain.Catalog{}, err
	}
	return cat, nil
}

func merge(cat domain.Catalog, f catalogFile) domain.Catalog {
	if len(f.Mist) > 0 {
		cat.Mist = f.Mist
	}
	if len(f.Shock) > 0 {
		cat.Shock = f.Shock
	}
	if f.ThunderKeys != nil {
		cat.ThunderKeys = f.ThunderKeys
	}
	if len(f.Reliefs) > 0 {
		cat.Reliefs = f.Reliefs
	}

	r, o := &cat.Rates, f.Rates
	set(&r.MistRate, o.MistRate)
	set(&r.MistChaos, o.MistChaos)
	set(&r.DropRate, o.DropRate)
	set(&r.StormChaos, o.StormChaos)
	set(&r.ShockThreshold, o.ShockThreshold)
	set(&r.MistDecay, o.MistDecay)
	set(&r.StormDecay, o.StormDecay)
	set(&r.ThunderCap, o.ThunderCap)
	set(&r.Baseline, o.Baseline)
	set(&r.BurstProbability, o.BurstProbability)
	set(&r.BurstFactors, o.BurstFactors)
	set(&r.MistDisplayProbability, o.MistDisplayProbability)
	set(&r.DecayStepsPerSecond, o.DecayStepsPerSecond)
	return cat
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
