package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vsinha/mrpengine/pkg/application/services/mrp"
	"github.com/vsinha/mrpengine/pkg/application/services/orchestration"
	"github.com/vsinha/mrpengine/pkg/domain/services"
	"github.com/vsinha/mrpengine/pkg/infrastructure/config"
	"github.com/vsinha/mrpengine/pkg/infrastructure/events"
	"github.com/vsinha/mrpengine/pkg/infrastructure/metrics"
	"github.com/vsinha/mrpengine/pkg/infrastructure/repositories/csv"
)

// eventRetention bounds the event log of long sessions
const eventRetention = 10000

// engine wires a loaded scenario to a planning orchestrator and its backends
type engine struct {
	scenario     *csv.Scenario
	orchestrator *orchestration.PlanningOrchestrator
	events       *events.InMemoryEventStore
	logger       *zap.Logger
	closers      []func()
}

type engineOptions struct {
	app         *config.Config
	scenarioDir string
	scope       string
	verbose     bool
	logger      *zap.Logger
	out         io.Writer
}

// openEngine loads the scenario and opens the configured store, lock and metrics endpoint
func openEngine(ctx context.Context, opts engineOptions) (_ *engine, err error) {
	e := &engine{logger: opts.logger}
	defer func() {
		if err != nil {
			e.Close()
		}
	}()

	e.scenario, err = csv.NewLoader().LoadScenario(opts.scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("error loading scenario: %w", err)
	}
	e.validateScenario(opts.verbose, opts.out)

	settings, err := PlanningSettings(opts.app.Planning)
	if err != nil {
		return nil, fmt.Errorf("invalid planning settings: %w", err)
	}

	store, storeCloser, err := OpenPlanningStore(ctx, opts.app.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open planning store: %w", err)
	}
	e.closers = append(e.closers, func() { _ = storeCloser.Close() })

	runLock, lockCloser, err := OpenRunLock(ctx, opts.app.Lock)
	if err != nil {
		return nil, fmt.Errorf("failed to open run lock: %w", err)
	}
	e.closers = append(e.closers, func() { _ = lockCloser.Close() })

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	if opts.app.Metrics.Addr != "" {
		stop, err := e.serveMetrics(opts.app.Metrics.Addr, registry)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, stop)
	}

	e.events = events.NewInMemoryEventStore(e.logger, events.WithRetention(eventRetention))
	if opts.verbose {
		if err := e.events.Subscribe(events.AllEventTypes, e.eventLogger()); err != nil {
			return nil, fmt.Errorf("failed to subscribe event logger: %w", err)
		}
	}

	e.orchestrator, err = orchestration.NewPlanningOrchestrator(
		mrp.Sources{
			Items:     e.scenario.Items,
			BOMs:      e.scenario.BOMs,
			Inventory: e.scenario.Inventory,
			Supply:    e.scenario.Supply,
			Demand:    e.scenario.Demand,
			Units:     e.scenario.Units,
		},
		store,
		runLock,
		orchestration.Options{
			Settings:   settings,
			RunTimeout: opts.app.Planning.RunTimeout,
			Events:     e.events,
			Metrics:    recorder,
			Logger:     e.logger,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return e, nil
}

// Close releases the backends in reverse order of opening
func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// validateScenario logs structural BOM findings; the planner reports them per run.
func (e *engine) validateScenario(verbose bool, out io.Writer) {
	validator := services.NewBOMValidator()

	result := validator.ValidateBOM(e.scenario.BOMs.AllBOMLines())
	for _, msg := range result.Errors {
		e.logger.Warn("BOM validation", zap.String("finding", msg))
	}
	if verbose {
		if result.Valid() {
			fmt.Fprintln(out, "BOM validation passed")
		} else {
			fmt.Fprintf(out, "BOM validation found %d problem(s)\n", len(result.Errors))
		}
	}
}

// eventLogger logs every engine event at debug level
func (e *engine) eventLogger() events.EventHandler {
	return &events.HandlerFunc{
		Fn: func(event events.Event) error {
			e.logger.Debug("event",
				zap.String("type", event.Type()),
				zap.String("stream", event.StreamID()),
				zap.Any("data", event.Data()),
			)
			return nil
		},
	}
}

// serveMetrics exposes /metrics on addr until the returned stop function is called
func (e *engine) serveMetrics(addr string, registry *prometheus.Registry) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	e.logger.Info("serving metrics", zap.String("addr", listener.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
