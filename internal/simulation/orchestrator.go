// Package simulation drives a ceremony through its phases in real or simulated time.
package simulation

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
	"github.com/couchcryptid/storm-shock-simulator/internal/engine"
	"github.com/couchcryptid/storm-shock-simulator/internal/observability"
	"github.com/couchcryptid/storm-shock-simulator/internal/sampler"
)

// ErrAlreadyRun is returned when Run is called on a used Orchestrator.
var ErrAlreadyRun = errors.New("simulation already run")

// Timing controls how long each phase lasts and the pauses between them.
type Timing struct {
	MistDuration  time.Duration
	StormDuration time.Duration
	PhasePause    time.Duration // after mist, and before the first relief
	ReliefPause   time.Duration // after each relief
}

// DefaultTiming is the stock 15s mist, 35s storm ceremony.
func DefaultTiming() Timing {
	return Timing{
		MistDuration:  15 * time.Second,
		StormDuration: 35 * time.Second,
		PhasePause:    2 * time.Second,
		ReliefPause:   2 * time.Second,
	}
}

// Options carries the collaborators of an Orchestrator. Zero values select
// defaults: real clock, unseeded RNG, no display, slog.Default, unregistered
// metrics, random run id.
type Options struct {
	Clock   clockwork.Clock
	RNG     sampler.RandomSource
	Display Display
	Logger  *slog.Logger
	Metrics *observability.Metrics
	RunID   string
}

// Status is a point-in-time view of a ceremony, safe to read while it runs.
type Status struct {
	RunID        string       `json:"run_id"`
	Phase        domain.Phase `json:"phase"`
	State        float64      `json:"state"`
	Displacement float64      `json:"displacement"`
	Accumulated  float64      `json:"accumulated"`
	ThunderCount int          `json:"thunder_count"`
	ThunderCap   int          `json:"thunder_cap"`
	Events       int          `json:"events"`
}

// Orchestrator runs one ceremony: misting, storming, clearing, done.
// It owns its engine exclusively and must be driven from one goroutine;
// only CheckReadiness and Status may be called concurrently.
type Orchestrator struct {
	catalog domain.Catalog
	timing  Timing
	sampler *sampler.Sampler
	engine  *engine.Engine
	clock   clockwork.Clock
	display Display
	logger  *slog.Logger
	metrics *observability.Metrics
	runID   string

	started atomic.Bool
	ready   atomic.Bool

	mu     sync.Mutex
	status Status

	totalMist  int
	totalShock int
}

// New validates the catalog and wires an Orchestrator. The only error it
// returns is a *domain.ConfigurationError.
func New(cat domain.Catalog, timing Timing, opts Options) (*Orchestrator, error) {
	s, err := sampler.New(cat, opts.RNG)
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Display == nil {
		opts.Display = nopDisplay{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	o := &Orchestrator{
		catalog: cat,
		timing:  timing,
		sampler: s,
		engine:  engine.New(engine.ParamsFromRates(cat.Rates), opts.Clock),
		clock:   opts.Clock,
		display: opts.Display,
		logger:  opts.Logger.With("run_id", opts.RunID),
		metrics: opts.Metrics,
		runID:   opts.RunID,
	}
	o.publish("")
	return o, nil
}

// RunID identifies this ceremony in logs, exports, and published events.
func (o *Orchestrator) RunID() string { return o.runID }

// CheckReadiness returns nil once the first event has been applied.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("simulation has not applied any events yet")
	}
	return nil
}

// Status returns the latest snapshot. Phase is empty before Run starts.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// publish refreshes the snapshot read by Status.
func (o *Orchestrator) publish(phase domain.Phase) {
	st := o.engine.State()
	o.mu.Lock()
	defer o.mu.Unlock()
	if phase != "" {
		o.status.Phase = phase
	}
	o.status.RunID = o.runID
	o.status.State = st.Current
	o.status.Displacement = st.Displacement()
	o.status.Accumulated = st.AccumulatedDisplacement
	o.status.ThunderCount = st.ThunderCount
	o.status.ThunderCap = st.ThunderCap
	o.status.Events = o.engine.Len()
}

// Run executes all phases in order. If ctx is cancelled mid-run, the partial
// result is returned together with the context error.
func (o *Orchestrator) Run(ctx context.Context) (domain.RunResult, error) {
	if o.started.Swap(true) {
		return domain.RunResult{}, ErrAlreadyRun
	}

	startedAt := o.clock.Now()
	o.logger.Info("simulation started",
		"mist_duration", o.timing.MistDuration,
		"storm_duration", o.timing.StormDuration,
		"thunder_cap", o.catalog.Rates.ThunderCap,
	)
	o.metrics.SimulationRunning.Set(1)
	defer o.metrics.SimulationRunning.Set(0)

	err := o.runPhases(ctx)
	res := o.result(startedAt)
	if err != nil {
		o.logger.Warn("simulation interrupted", "events", len(res.Events), "error", err)
		return res, err
	}

	o.logger.Info("simulation finished",
		"events", len(res.Events),
		"thunder", res.ThunderCount,
		"net_displacement", res.NetDisplacement,
		"final_state", res.FinalState,
	)
	return res, nil
}

func (o *Orchestrator) runPhases(ctx context.Context) error {
	if err := o.mist(ctx); err != nil {
		return err
	}
	if err := o.sleep(ctx, o.timing.PhasePause); err != nil {
		return err
	}
	if err := o.storm(ctx); err != nil {
		return err
	}
	if err := o.clear(ctx); err != nil {
		return err
	}
	o.publish(domain.PhaseDone)
	o.logger.Debug("phase transition", "phase", domain.PhaseDone)
	return nil
}

// mist emits gentle events at MistRate; only a sample of them is displayed.
func (o *Orchestrator) mist(ctx context.Context) error {
	const phase = domain.PhaseMisting
	rates := o.catalog.Rates
	start := o.beginPhase(phase)

	last := start
	for o.clock.Since(start) < o.timing.MistDuration {
		wait := sampler.Exponential(o.sampler, rates.MistRate)
		if err := o.pace(ctx, phase, wait); err != nil {
			return err
		}
		o.decaySince(last, phase)

		o.totalMist++
		o.apply(o.sampler.SampleMist(), phase)
		if o.sampler.Float64() < rates.MistDisplayProbability {
			o.show(phase)
		}
		last = o.clock.Now()
	}

	o.endPhase(phase, start)
	return nil
}

// storm emits shocks at DropRate with occasional bursts and lulls; only shocks
// at or above the threshold are displayed.
func (o *Orchestrator) storm(ctx context.Context) error {
	const phase = domain.PhaseStorming
	rates := o.catalog.Rates
	start := o.beginPhase(phase)

	last := start
	for o.clock.Since(start) < o.timing.StormDuration {
		wait := sampler.Exponential(o.sampler, rates.DropRate)
		if o.sampler.Float64() < rates.BurstProbability {
			factor := rates.BurstFactors[0]
			if o.sampler.Float64() >= 0.5 {
				factor = rates.BurstFactors[1]
			}
			wait *= factor
		}
		if err := o.pace(ctx, phase, wait); err != nil {
			return err
		}
		o.decaySince(last, phase)

		st := o.engine.State()
		ev := o.sampler.SampleShock(st.ThunderCount, st.ThunderCap)
		if o.sampler.IsThunder(ev.CategoryKey) {
			o.engine.CountThunder()
			o.metrics.ThunderEvents.Inc()
			o.logger.Info("thunder", "category", ev.CategoryKey, "intensity", ev.Intensity,
				"count", o.engine.State().ThunderCount)
		}

		o.totalShock++
		if o.apply(ev, phase) {
			o.show(phase)
		}
		last = o.clock.Now()
	}

	o.endPhase(phase, start)
	return nil
}

// clear applies the fixed relief sequence; every relief is displayed.
func (o *Orchestrator) clear(ctx context.Context) error {
	const phase = domain.PhaseClearing
	start := o.beginPhase(phase)

	if err := o.sleep(ctx, o.timing.PhasePause); err != nil {
		return err
	}
	for _, r := range o.catalog.Reliefs {
		o.apply(domain.SampledEvent{
			CategoryKey: domain.KeyRelief,
			DisplayName: r.Name,
			Intensity:   r.Intensity,
			ChaosFactor: 1.0,
		}, phase)
		o.show(phase)
		if err := o.sleep(ctx, o.timing.ReliefPause); err != nil {
			return err
		}
	}

	o.endPhase(phase, start)
	return nil
}

func (o *Orchestrator) beginPhase(phase domain.Phase) time.Time {
	o.publish(phase)
	o.logger.Info("phase started", "phase", phase, "state", o.engine.State().Current)
	o.display.PhaseStarted(phase, o.engine.State())
	return o.clock.Now()
}

func (o *Orchestrator) endPhase(phase domain.Phase, start time.Time) {
	elapsed := o.clock.Since(start)
	o.metrics.PhaseDuration.WithLabelValues(string(phase)).Observe(elapsed.Seconds())
	o.logger.Info("phase finished", "phase", phase, "elapsed", elapsed, "events", o.engine.Len())
	o.display.PhaseEnded(phase, o.engine.State())
}

// apply records the event and reports whether it passed the shock threshold.
func (o *Orchestrator) apply(ev domain.SampledEvent, phase domain.Phase) bool {
	shown := o.engine.ApplyEvent(ev, phase == domain.PhaseMisting)

	st := o.engine.State()
	o.metrics.EventsApplied.WithLabelValues(string(phase)).Inc()
	o.metrics.StateValue.Set(st.Current)
	o.metrics.NetDisplacement.Set(st.AccumulatedDisplacement)
	o.publish("")
	o.ready.Store(true)

	o.logger.Debug("event applied",
		"phase", phase,
		"category", ev.CategoryKey,
		"intensity", ev.Intensity,
		"chaos", ev.ChaosFactor,
		"state", st.Current,
	)
	return shown
}

func (o *Orchestrator) show(phase domain.Phase) {
	ev, ok := o.engine.Last()
	if !ok {
		return
	}
	o.metrics.EventsDisplayed.WithLabelValues(string(phase)).Inc()
	o.display.Event(ev, o.engine.State())
}

// decaySince applies one decay step per 1/DecayStepsPerSecond elapsed since last.
func (o *Orchestrator) decaySince(last time.Time, phase domain.Phase) {
	n := o.clock.Since(last).Seconds() * o.catalog.Rates.DecayStepsPerSecond
	steps := math.MaxInt
	if n < float64(math.MaxInt) {
		steps = int(n)
	}
	if steps <= 0 {
		return
	}
	o.engine.Decay(steps, phase == domain.PhaseMisting)
	o.metrics.DecaySteps.WithLabelValues(string(phase)).Add(float64(steps))
	o.metrics.StateValue.Set(o.engine.State().Current)
}

// pace waits for the next event, wait being in seconds. Waits too long for a
// time.Duration are clamped to the longest one.
func (o *Orchestrator) pace(ctx context.Context, phase domain.Phase, wait float64) error {
	o.metrics.InterArrival.WithLabelValues(string(phase)).Observe(wait)
	d := time.Duration(math.MaxInt64)
	if ns := wait * float64(time.Second); ns < float64(math.MaxInt64) {
		d = time.Duration(ns)
	}
	return o.sleep(ctx, d)
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-o.clock.After(d):
		return nil
	}
}

func (o *Orchestrator) result(startedAt time.Time) domain.RunResult {
	st := o.engine.State()
	return domain.RunResult{
		RunID:           o.runID,
		StartedAt:       startedAt,
		FinishedAt:      o.clock.Now(),
		Events:          o.engine.Events(),
		TotalMist:       o.totalMist,
		TotalShock:      o.totalShock,
		ThunderCount:    st.ThunderCount,
		ThunderCap:      st.ThunderCap,
		NetDisplacement: st.AccumulatedDisplacement,
		FinalState:      st.Current,
		Baseline:        st.Baseline,
	}
}
