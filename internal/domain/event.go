package domain

import "time"

// SampledEvent is a freshly drawn event, not yet applied to the state.
type SampledEvent struct {
	CategoryKey string
	DisplayName string
	Intensity   float64 // within the category range times chaos; negative only for reliefs
	ChaosFactor float64
}

// LoggedEvent is one entry of the append-only event log.
type LoggedEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	CategoryKey string    `json:"type"`
	DisplayName string    `json:"name"`
	Intensity   float64   `json:"intensity"`
	ChaosFactor float64   `json:"chaos_factor"`
	StateBefore float64   `json:"state_before"`
	StateAfter  float64   `json:"state_after"`
	IsMist      bool      `json:"is_mist"`
}

// IsRelief reports whether the event came from the clearing phase.
func (e LoggedEvent) IsRelief() bool {
	return e.CategoryKey == KeyRelief
}

// SimulationState is the scalar state and its counters.
type SimulationState struct {
	Baseline                float64
	Current                 float64
	AccumulatedDisplacement float64
	ThunderCount            int
	ThunderCap              int
}

// Displacement is the signed distance of the current state from baseline.
func (s SimulationState) Displacement() float64 {
	return s.Current - s.Baseline
}

// Phase names a stage of the ceremony.
type Phase string

const (
	PhaseMisting  Phase = "misting"
	PhaseStorming Phase = "storming"
	PhaseClearing Phase = "clearing"
	PhaseDone     Phase = "done"
)

// RunResult is everything a finished (or cancelled) run hands to its consumers.
type RunResult struct {
	RunID           string        `json:"run_id"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
	Events          []LoggedEvent `json:"events"`
	TotalMist       int           `json:"total_mist"`
	TotalShock      int           `json:"total_shock"`
	ThunderCount    int           `json:"thunder_count"`
	ThunderCap      int           `json:"thunder_cap"`
	NetDisplacement float64       `json:"net_displacement"`
	FinalState      float64       `json:"final_state"`
	Baseline        float64       `json:"baseline"`
}

// FinalDisplacement is the distance of the final state from baseline.
func (r RunResult) FinalDisplacement() float64 {
	return r.FinalState - r.Baseline
}
