package simulation

import "github.com/couchcryptid/storm-shock-simulator/internal/domain"

// Display renders the ceremony as it unfolds. Rendering is cosmetic: the
// event log records every event whether or not it was displayed.
type Display interface {
	PhaseStarted(phase domain.Phase, state domain.SimulationState)
	PhaseEnded(phase domain.Phase, state domain.SimulationState)
	Event(ev domain.LoggedEvent, state domain.SimulationState)
}

type nopDisplay struct{}

func (nopDisplay) PhaseStarted(domain.Phase, domain.SimulationState) {}
func (nopDisplay) PhaseEnded(domain.Phase, domain.SimulationState) {}
func (nopDisplay) Event(domain.LoggedEvent, domain.SimulationState) {}
