// Package engine owns the scalar state of a run and its event log.
package engine

import (
	"math"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
)

// Params are the engine's slice of the catalog rates.
type Params struct {
	Baseline       float64
	MistDecay      float64
	StormDecay     float64
	ShockThreshold float64
	ThunderCap     int
}

// ParamsFromRates extracts engine parameters from catalog rates.
func ParamsFromRates(r domain.Rates) Params {
	return Params{
		Baseline:       r.Baseline,
		MistDecay:      r.MistDecay,
		StormDecay:     r.StormDecay,
		ShockThreshold: r.ShockThreshold,
		ThunderCap:     r.ThunderCap,
	}
}

// Engine applies events to the state, decays it toward baseline, and keeps
// the append-only event log. It is not safe for concurrent use.
type Engine struct {
	params Params
	clock  clockwork.Clock
	state  domain.SimulationState
	log    []domain.LoggedEvent
}

// New creates an engine resting at baseline. A nil clock uses real time for
// event timestamps.
func New(p Params, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		params: p,
		clock:  clock,
		state: domain.SimulationState{
			Baseline:   p.Baseline,
			Current:    p.Baseline,
			ThunderCap: p.ThunderCap,
		},
	}
}

// ApplyEvent displaces the state by the event's intensity, logs it, and
// reports whether the displacement reaches the shock threshold.
func (e *Engine) ApplyEvent(ev domain.SampledEvent, isMist bool) bool {
	before := e.state.Current
	e.state.Current += ev.Intensity
	e.state.AccumulatedDisplacement += ev.Intensity

	e.log = append(e.log, domain.LoggedEvent{
		Timestamp:   e.clock.Now(),
		CategoryKey: ev.CategoryKey,
		DisplayName: ev.DisplayName,
		Intensity:   ev.Intensity,
		ChaosFactor: ev.ChaosFactor,
		StateBefore: before,
		StateAfter:  e.state.Current,
		IsMist:      isMist,
	})

	return math.Abs(ev.Intensity) >= e.params.ShockThreshold
}

// DecayStep pulls an above-baseline state one exponential step toward
// baseline. A state at or below baseline is left alone.
func (e *Engine) DecayStep(mistMode bool) {
	if e.state.Current <= e.state.Baseline {
		return
	}
	rate := e.params.StormDecay
	if mistMode {
		rate = e.params.MistDecay
	}
	e.state.Current = (e.state.Current-e.state.Baseline)*rate + e.state.Baseline
}

// Decay applies n decay steps. It stops early once a step leaves the state
// unchanged, since every later step would be a no-op too.
func (e *Engine) Decay(n int, mistMode bool) {
	for range n {
		before := e.state.Current
		e.DecayStep(mistMode)
		if e.state.Current == before {
			return
		}
	}
}

// CountThunder records one thunder event. Counts past the cap are ignored so
// ThunderCount never exceeds ThunderCap.
func (e *Engine) CountThunder() {
	if e.state.ThunderCount < e.state.ThunderCap {
		e.state.ThunderCount++
	}
}

// State returns a snapshot of the current state.
func (e *Engine) State() domain.SimulationState {
	return e.state
}

// Events returns a copy of the event log in chronological order.
func (e *Engine) Events() []domain.LoggedEvent {
	out := make([]domain.LoggedEvent, len(e.log))
	copy(out, e.log)
	return out
}

// Last returns the most recently logged event.
func (e *Engine) Last() (domain.LoggedEvent, bool) {
	if len(e.log) == 0 {
		return domain.LoggedEvent{}, false
	}
	return e.log[len(e.log)-1], true
}

// Len is the number of logged events.
func (e *Engine) Len() int {
	return len(e.log)
}
