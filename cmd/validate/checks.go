package main

import (
	"fmt"
	"math"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
	"github.com/couchcryptid/storm-shock-simulator/internal/report"
)

const (
	// Columns are written with 6 decimals, so sums of two fields may be off
	// by a few units in the last place.
	rowTolerance = 1e-5
	// The header prints net accumulation with 3 decimals.
	headerTolerance = 0.0005
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func validateAll(lf report.LogFile, cat domain.Catalog) []*phase {
	return []*phase{
		validateHeader(lf, cat),
		validateOrdering(lf.Events),
		validateContinuity(lf.Events, cat.Rates.Baseline),
		validateCatalog(lf.Events, cat),
		validatePhases(lf.Events, cat.Reliefs),
	}
}

// ── Phase 1: Header totals ──

func validateHeader(lf report.LogFile, cat domain.Catalog) *phase {
	p := &phase{name: "Phase 1: Header Totals"}

	thunder := 0
	sum := 0.0
	for _, ev := range lf.Events {
		if cat.IsThunder(ev.CategoryKey) {
			thunder++
		}
		sum += ev.Intensity
	}

	if thunder != lf.ThunderCount {
		p.errorf("header reports %d thunder events, log has %d", lf.ThunderCount, thunder)
	}
	if lf.ThunderCount > lf.ThunderCap {
		p.errorf("thunder count %d exceeds cap %d", lf.ThunderCount, lf.ThunderCap)
	}
	if lf.ThunderCap != cat.Rates.ThunderCap {
		p.errorf("header cap %d differs from catalog cap %d", lf.ThunderCap, cat.Rates.ThunderCap)
	}
	if math.Abs(sum-lf.NetAccumulation) > headerTolerance {
		p.errorf("header net accumulation %+.3f, rows sum to %+.6f", lf.NetAccumulation, sum)
	}
	return p
}

// ── Phase 2: Timestamp order ──

func validateOrdering(events []domain.LoggedEvent) *phase {
	p := &phase{name: "Phase 2: Timestamp Order"}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			p.errorf("row %d: timestamp %s precedes row %d", i+1,
				events[i].Timestamp.Format(report.TimestampLayout), i)
		}
	}
	return p
}

// ── Phase 3: State continuity ──
// Each row adds its intensity, and between rows the state may only decay
// toward the baseline from above.

func validateContinuity(events []domain.LoggedEvent, baseline float64) *phase {
	p := &phase{name: "Phase 3: State Continuity"}
	for i, ev := range events {
		if math.Abs(ev.StateBefore+ev.Intensity-ev.StateAfter) > rowTolerance {
			p.errorf("row %d: %.6f + %.6f != %.6f", i+1, ev.StateBefore, ev.Intensity, ev.StateAfter)
		}

		prev := baseline
		if i > 0 {
			prev = events[i-1].StateAfter
		}
		switch {
		case prev > baseline:
			if ev.StateBefore > prev+rowTolerance || ev.StateBefore < baseline-rowTolerance {
				p.errorf("row %d: state_before %.6f outside decay range [%.6f, %.6f]", i+1, ev.StateBefore, baseline, prev)
			}
		default:
			if math.Abs(ev.StateBefore-prev) > rowTolerance {
				p.errorf("row %d: state_before %.6f, previous state_after %.6f", i+1, ev.StateBefore, prev)
			}
		}
	}
	return p
}

// ── Phase 4: Catalog conformance ──

func validateCatalog(events []domain.LoggedEvent, cat domain.Catalog) *phase {
	p := &phase{name: "Phase 4: Catalog Conformance"}
	rates := cat.Rates
	for i, ev := range events {
		if ev.IsRelief() {
			continue
		}
		table, lo, hi := cat.Shock, 1-rates.StormChaos, 1+1.5*rates.StormChaos
		if ev.IsMist {
			table, lo, hi = cat.Mist, 1-rates.MistChaos, 1+rates.MistChaos
		}

		c, ok := find(table, ev.CategoryKey)
		if !ok {
			p.errorf("row %d: category %q not in the %s table", i+1, ev.CategoryKey, tableName(ev.IsMist))
			continue
		}
		if ev.ChaosFactor < lo-rowTolerance || ev.ChaosFactor > hi+rowTolerance {
			p.errorf("row %d: chaos factor %.6f outside [%.3f, %.3f]", i+1, ev.ChaosFactor, lo, hi)
		}
		minI, maxI := c.Intensity.Min*lo, c.Intensity.Max*hi
		if ev.Intensity < minI-rowTolerance || ev.Intensity > maxI+rowTolerance {
			p.errorf("row %d: %s intensity %.6f outside [%.6f, %.6f]", i+1, ev.CategoryKey, ev.Intensity, minI, maxI)
		}
	}
	return p
}

func find(table []domain.EventCategory, key string) (domain.EventCategory, bool) {
	for _, c := range table {
		if c.Key == key {
			return c, true
		}
	}
	return domain.EventCategory{}, false
}

func tableName(isMist bool) string {
	if isMist {
		return "mist"
	}
	return "shock"
}

// ── Phase 5: Phase ordering ──
// Mist rows come first, storm rows next, and the log ends with the relief
// sequence exactly.

func validatePhases(events []domain.LoggedEvent, reliefs []domain.Relief) *phase {
	p := &phase{name: "Phase 5: Phase Ordering"}

	stage := 0 // 0 mist, 1 storm, 2 clearing
	var tail []domain.LoggedEvent
	for i, ev := range events {
		next := 1
		switch {
		case ev.IsMist:
			next = 0
		case ev.IsRelief():
			next = 2
		}
		if next < stage {
			p.errorf("row %d: %s event after a later phase", i+1, ev.CategoryKey)
		}
		stage = max(stage, next)
		if next == 2 {
			tail = append(tail, ev)
		}
	}

	if len(tail) != len(reliefs) {
		p.errorf("log has %d relief events, catalog defines %d", len(tail), len(reliefs))
		return p
	}
	for i, r := range reliefs {
		if tail[i].DisplayName != r.Name || math.Abs(tail[i].Intensity-r.Intensity) > rowTolerance {
			p.errorf("relief %d: got %q %+.3f, want %q %+.3f", i+1, tail[i].DisplayName, tail[i].Intensity, r.Name, r.Intensity)
		}
	}
	return p
}
