// Package render draws the ceremony on a terminal as it unfolds.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
	"github.com/couchcryptid/storm-shock-simulator/internal/report"
)

const ruleWidth = 70

var (
	mistRule  = strings.Repeat("∼", ruleWidth)
	stormRule = strings.Repeat("▼", ruleWidth)
	titleRule = strings.Repeat("═", ruleWidth)
)

// Console writes phase banners and one line per displayed event. Write
// errors are ignored; the console is cosmetic.
type Console struct {
	w io.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Banner prints the title block shown before a run starts.
func (c *Console) Banner(runID string) {
	fmt.Fprintf(c.w, "\n%s\n", titleRule)
	fmt.Fprintln(c.w, "  GENTLE WEATHER CEREMONY SIMULATOR")
	fmt.Fprintf(c.w, "  Run %s\n", runID)
	fmt.Fprintln(c.w, titleRule)
	fmt.Fprintln(c.w, "  Gentle mist → Mild storm (limited thunder) → Warm clearing")
	fmt.Fprintln(c.w, titleRule)
}

// PhaseStarted prints the opening banner of a phase.
func (c *Console) PhaseStarted(phase domain.Phase, state domain.SimulationState) {
	switch phase {
	case domain.PhaseMisting:
		fmt.Fprintf(c.w, "\n%s\n", mistRule)
		fmt.Fprintln(c.w, "INITIATING SACRED MISTING PROTOCOL")
		fmt.Fprintln(c.w, "The air grows gentle. The world softens.")
		fmt.Fprintln(c.w, mistRule)
		fmt.Fprintf(c.w, "Baseline state: %.3f\n", state.Baseline)
		fmt.Fprintln(c.w, "Breathing in the mist...")
		fmt.Fprintf(c.w, "%s\n\n", mistRule)
	case domain.PhaseStorming:
		fmt.Fprintf(c.w, "\n%s\n", stormRule)
		fmt.Fprintln(c.w, "THE STORM ARRIVES — RAIN SHOCK PROTOCOL")
		fmt.Fprintf(c.w, "Gentle thunder may rumble (at most %d times). A clearing will come.\n", state.ThunderCap)
		fmt.Fprintln(c.w, stormRule)
		fmt.Fprintf(c.w, "Current state: %.3f\n", state.Current)
		fmt.Fprintln(c.w, "The rain begins to fall...")
		fmt.Fprintf(c.w, "%s\n\n", stormRule)
	case domain.PhaseClearing:
		fmt.Fprintf(c.w, "\n%s\n", mistRule)
		fmt.Fprintln(c.w, "THE STORM SUBSIDES... SUNLIGHT BREAKS THROUGH")
		fmt.Fprintf(c.w, "%s\n\n", mistRule)
	}
}

// PhaseEnded prints the closing lines of a phase. The storm has none.
func (c *Console) PhaseEnded(phase domain.Phase, _ domain.SimulationState) {
	switch phase {
	case domain.PhaseMisting:
		fmt.Fprintf(c.w, "\n%s\n", mistRule)
		fmt.Fprintln(c.w, "The mist has prepared the way...")
		fmt.Fprintf(c.w, "%s\n\n", mistRule)
	case domain.PhaseClearing:
		fmt.Fprint(c.w, "\nThe world feels renewed.\n\n")
	}
}

// Event prints one event line: marker, name, signed intensity, chaos marks,
// and a bar proportional to the displacement after the event.
func (c *Console) Event(ev domain.LoggedEvent, state domain.SimulationState) {
	fmt.Fprintln(c.w, EventLine(ev, state))
}

// EventLine formats a single event the way Console prints it.
func EventLine(ev domain.LoggedEvent, state domain.SimulationState) string {
	return fmt.Sprintf("%s %s [%+.3f] %s |%s",
		Marker(ev), report.PadRight(ev.DisplayName, 24), ev.Intensity, chaosMarks(ev), Bar(state.Displacement(), ev.IsMist))
}

// Marker picks the glyph for an event from its kind and magnitude.
func Marker(ev domain.LoggedEvent) string {
	mag := math.Abs(ev.Intensity)
	switch {
	case ev.IsMist:
		switch {
		case mag < 0.010:
			return "∴"
		case mag < 0.018:
			return "∵"
		default:
			return "≋"
		}
	case ev.Intensity > 0:
		switch {
		case mag < 0.05:
			return "."
		case mag < 0.12:
			return "•"
		case mag < 0.25:
			return "◉"
		default:
			return "⚡"
		}
	default:
		return "🌞"
	}
}

func chaosMarks(ev domain.LoggedEvent) string {
	switch {
	case ev.IsMist:
		return ""
	case ev.Intensity > 0:
		return strings.Repeat("!", max(0, int((ev.ChaosFactor-1)*8)))
	default:
		return strings.Repeat("♥", int(math.Abs(ev.Intensity)*15))
	}
}

// Bar renders a displacement as a run of glyphs, 30 per unit.
func Bar(displacement float64, isMist bool) string {
	n := int(math.Abs(displacement) * 30)
	switch {
	case displacement > 0 && isMist:
		return strings.Repeat("░", n)
	case displacement > 0:
		return strings.Repeat("█", n)
	case displacement < 0:
		return strings.Repeat("♥", n)
	default:
		return ""
	}
}
