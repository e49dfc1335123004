// Command simulate runs one gentle weather ceremony: mist, storm, clearing.
// It renders the ceremony on stdout, prints a summary, exports the event log,
// and optionally serves metrics and publishes the log to Kafka.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/storm-shock-simulator/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-shock-simulator/internal/adapter/kafka"
	"github.com/couchcryptid/storm-shock-simulator/internal/config"
	"github.com/couchcryptid/storm-shock-simulator/internal/observability"
	"github.com/couchcryptid/storm-shock-simulator/internal/render"
	"github.com/couchcryptid/storm-shock-simulator/internal/report"
	"github.com/couchcryptid/storm-shock-simulator/internal/sampler"
	"github.com/couchcryptid/storm-shock-simulator/internal/simulation"
)

func main() {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cat, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		logger.Error("failed to load catalog", "path", cfg.CatalogFile, "error", err)
		return 1
	}

	rng := sampler.DefaultRNG()
	if cfg.HasSeed {
		rng = sampler.NewSeededRNG(cfg.Seed)
	}
	clock := clockwork.NewRealClock()
	if cfg.Instant {
		clock = simulation.NewInstantClock(time.Now())
	}

	console := render.NewConsole(os.Stdout)
	var display simulation.Display
	if !cfg.Quiet {
		display = console
	}

	orch, err := simulation.New(cat, simulation.Timing{
		MistDuration:  cfg.MistDuration,
		StormDuration: cfg.StormDuration,
		PhasePause:    cfg.PhasePause,
		ReliefPause:   cfg.ReliefPause,
	}, simulation.Options{
		Clock:   clock,
		RNG:     rng,
		Display: display,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Error("invalid catalog", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, orch, orch, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	if !cfg.Quiet {
		console.Banner(orch.RunID())
	}

	code := 0
	res, err := orch.Run(ctx)
	if err != nil {
		// The partial log is still summarized and exported below.
		logger.Error("simulation did not complete", "error", err)
		code = 1
	}

	if err := report.WriteSummary(os.Stdout, report.Summarize(res)); err != nil {
		logger.Error("write summary failed", "error", err)
		code = 1
	}
	if err := report.ExportFile(cfg.ExportPath, res); err != nil {
		logger.Error("export failed", "path", cfg.ExportPath, "error", err)
		code = 1
	} else {
		logger.Info("ceremony log exported", "path", cfg.ExportPath, "events", len(res.Events))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if len(cfg.KafkaBrokers) > 0 {
		pub := kafkaadapter.NewPublisher(cfg, logger, metrics)
		if err := pub.PublishRun(shutdownCtx, res); err != nil {
			logger.Error("kafka publish failed", "error", err)
			code = 1
		}
		if err := pub.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return code
}
