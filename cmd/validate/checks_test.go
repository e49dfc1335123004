package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
	"github.com/couchcryptid/storm-shock-simulator/internal/report"
	"github.com/couchcryptid/storm-shock-simulator/internal/sampler"
	"github.com/couchcryptid/storm-shock-simulator/internal/simulation"
)

// exportedRun runs an instant ceremony and reads its exported log back.
func exportedRun(t *testing.T, seed uint64) report.LogFile {
	t.Helper()
	orch, err := simulation.New(domain.DefaultCatalog(), simulation.DefaultTiming(), simulation.Options{
		Clock:  simulation.NewInstantClock(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)),
		RNG:    sampler.NewSeededRNG(seed),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	res, err := orch.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteLog(&buf, res))
	lf, err := report.ReadLog(&buf)
	require.NoError(t, err)
	return lf
}

func failed(phases []*phase) []string {
	var names []string
	for _, p := range phases {
		if !p.passed() {
			names = append(names, p.name)
		}
	}
	return names
}

func TestValidateAll_CleanRunPasses(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3, 42} {
		lf := exportedRun(t, seed)
		phases := validateAll(lf, domain.DefaultCatalog())
		for _, p := range phases {
			assert.Empty(t, p.errors, "seed %d: %s", seed, p.name)
		}
	}
}

func TestValidateHeader_DetectsTampering(t *testing.T) {
	lf := exportedRun(t, 5)
	lf.ThunderCount = lf.ThunderCap + 1
	lf.NetAccumulation += 0.01

	p := validateHeader(lf, domain.DefaultCatalog())
	assert.Len(t, p.errors, 3)
}

func TestValidateOrdering_DetectsReversal(t *testing.T) {
	lf := exportedRun(t, 6)
	lf.Events[1].Timestamp = lf.Events[0].Timestamp.Add(-time.Millisecond)

	p := validateOrdering(lf.Events)
	assert.False(t, p.passed())
}

func TestValidateContinuity_DetectsJump(t *testing.T) {
	lf := exportedRun(t, 7)
	lf.Events[3].StateBefore += 0.5
	lf.Events[3].StateAfter += 0.5

	p := validateContinuity(lf.Events, 1.0)
	assert.False(t, p.passed())
}

func TestValidateCatalog_DetectsUnknownCategory(t *testing.T) {
	lf := exportedRun(t, 8)
	lf.Events[0].CategoryKey = "hailstone"

	p := validateCatalog(lf.Events, domain.DefaultCatalog())
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], `"hailstone"`)
}

func TestValidatePhases(t *testing.T) {
	lf := exportedRun(t, 9)
	cat := domain.DefaultCatalog()

	assert.True(t, validatePhases(lf.Events, cat.Reliefs).passed())

	truncated := lf.Events[:len(lf.Events)-1]
	assert.False(t, validatePhases(truncated, cat.Reliefs).passed())

	swapped := append([]domain.LoggedEvent(nil), lf.Events...)
	swapped[0], swapped[len(swapped)-4] = swapped[len(swapped)-4], swapped[0]
	assert.Contains(t, failed([]*phase{validatePhases(swapped, cat.Reliefs)}), "Phase 5: Phase Ordering")
}
