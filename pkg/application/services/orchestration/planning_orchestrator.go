package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/mrpengine/pkg/application/dto"
	"github.com/vsinha/mrpengine/pkg/application/services/mrp"
	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
	"github.com/vsinha/mrpengine/pkg/infrastructure/events"
	"github.com/vsinha/mrpengine/pkg/infrastructure/metrics"
)

// Options configures a PlanningOrchestrator
type Options struct {
	Settings   mrp.Settings  // zero fields take mrp.DefaultSettings values
	RunTimeout time.Duration // zero disables the budget
	Events     events.EventStore
	Metrics    *metrics.Recorder
	Logger     *zap.Logger
}

// defaultLockTTL bounds the scope lock of a run without a time budget
const defaultLockTTL = time.Hour

// PlanningOrchestrator runs MRP for a scope and owns the run lifecycle
type PlanningOrchestrator struct {
	src        mrp.Sources
	store      repositories.PlanningStore
	lock       repositories.RunLock
	events     events.EventStore
	metrics    *metrics.Recorder
	settings   mrp.Settings
	runTimeout time.Duration
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	running map[string]chan struct{}
}

// NewPlanningOrchestrator creates a new planning orchestrator
func NewPlanningOrchestrator(
	src mrp.Sources,
	store repositories.PlanningStore,
	lock repositories.RunLock,
	opts Options,
) (*PlanningOrchestrator, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("planning store is required")
	}
	if lock == nil {
		return nil, fmt.Errorf("run lock is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &PlanningOrchestrator{
		src:        src,
		store:      store,
		lock:       lock,
		events:     opts.Events,
		metrics:    opts.Metrics,
		settings:   opts.Settings.WithDefaults(),
		runTimeout: opts.RunTimeout,
		logger:     opts.Logger,
		now:        func() time.Time { return time.Now().UTC() },
		running:    make(map[string]chan struct{}),
	}, nil
}

// StartRun registers a run for scope and executes it in the background.
// A second start while a run is active returns *entities.RunAlreadyActiveError
// and creates no record.
func (po *PlanningOrchestrator) StartRun(ctx context.Context, scope string, asOf time.Time) (string, error) {
	run, err := po.begin(ctx, scope, asOf)
	if err != nil {
		return "", err
	}

	untrack := po.track(run.ID)
	go func() {
		defer untrack()
		po.execute(context.WithoutCancel(ctx), run)
	}()

	return run.ID, nil
}

// Execute runs MRP for scope synchronously and returns the finished run.
// Planning failures are reported on the run, not as an error.
func (po *PlanningOrchestrator) Execute(ctx context.Context, scope string, asOf time.Time) (*dto.RunStatusView, error) {
	run, err := po.begin(ctx, scope, asOf)
	if err != nil {
		return nil, err
	}
	untrack := po.track(run.ID)
	defer untrack()
	po.execute(ctx, run)
	return dto.NewRunStatusView(run), nil
}

// RecoverRun fails a run left pending or running by a planning process that
// stopped without finishing it, flags its orders incomplete and frees its scope.
// Runs still executing in this process are rejected.
func (po *PlanningOrchestrator) RecoverRun(ctx context.Context, runID string) (*dto.RunStatusView, error) {
	po.mu.Lock()
	_, executing := po.running[runID]
	po.mu.Unlock()
	if executing {
		return nil, fmt.Errorf("run %s is still executing", runID)
	}

	run, err := po.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	if err := run.Fail(po.now(), "abandoned: recovered after the planning process stopped", ""); err != nil {
		return nil, err
	}
	if err := po.store.MarkRunIncomplete(ctx, run.ID); err != nil {
		return nil, fmt.Errorf("failed to flag orders of run %s incomplete: %w", runID, err)
	}
	if err := po.store.UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record recovery of run %s: %w", runID, err)
	}
	po.releaseLock(run.Scope, run.ID)

	po.publish(run.ID, events.NewRunFinishedEvent(run))
	po.logger.Warn("stale MRP run recovered", zap.String("run_id", run.ID), zap.String("scope", run.Scope))
	return dto.NewRunStatusView(run), nil
}

// Wait blocks until a run started with StartRun finishes and returns its status
func (po *PlanningOrchestrator) Wait(ctx context.Context, runID string) (*dto.RunStatusView, error) {
	po.mu.Lock()
	done, tracked := po.running[runID]
	po.mu.Unlock()

	if tracked {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return po.GetRunStatus(ctx, runID)
}

// GetRunStatus returns the status, counts and warnings of a run
func (po *PlanningOrchestrator) GetRunStatus(ctx context.Context, runID string) (*dto.RunStatusView, error) {
	run, err := po.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return dto.NewRunStatusView(run), nil
}

// ListNetRequirements returns the net requirements of a run. An empty part number lists all.
func (po *PlanningOrchestrator) ListNetRequirements(ctx context.Context, runID string, pn entities.PartNumber) ([]*entities.NetRequirement, error) {
	if _, err := po.store.GetRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return po.store.ListNetRequirements(ctx, runID, pn)
}

// ListPlannedOrders returns the planned orders of a run. An empty part number lists all.
func (po *PlanningOrchestrator) ListPlannedOrders(ctx context.Context, runID string, pn entities.PartNumber) ([]*entities.PlannedOrder, error) {
	if _, err := po.store.GetRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return po.store.ListPlannedOrders(ctx, runID, pn)
}

// Result collects the status and full output of a run
func (po *PlanningOrchestrator) Result(ctx context.Context, runID string) (*dto.MRPResult, error) {
	status, err := po.GetRunStatus(ctx, runID)
	if err != nil {
		return nil, err
	}
	reqs, err := po.store.ListNetRequirements(ctx, runID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list net requirements: %w", err)
	}
	orders, err := po.store.ListPlannedOrders(ctx, runID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list planned orders: %w", err)
	}
	return &dto.MRPResult{Run: status, NetRequirements: reqs, PlannedOrders: orders}, nil
}

// FirmPlannedOrder moves a planned order to firmed. Firmed orders are supply for
// later runs and are never superseded. Firming a firmed order is a no-op.
func (po *PlanningOrchestrator) FirmPlannedOrder(ctx context.Context, orderID string) (*entities.PlannedOrder, error) {
	order, err := po.store.GetPlannedOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get planned order %s: %w", orderID, err)
	}
	if order.Status == entities.OrderFirmed {
		return order, nil
	}
	if err := order.Firm(); err != nil {
		return nil, err
	}
	if err := po.store.UpdatePlannedOrderStatus(ctx, orderID, entities.OrderFirmed); err != nil {
		return nil, fmt.Errorf("failed to firm planned order %s: %w", orderID, err)
	}

	po.publish(order.ID, events.NewOrderFirmedEvent(order))
	po.logger.Info("planned order firmed",
		zap.String("order_id", order.ID),
		zap.String("part_number", string(order.PartNumber)),
	)
	return order, nil
}

// begin takes the scope lock and records a pending run
func (po *PlanningOrchestrator) begin(ctx context.Context, scope string, asOf time.Time) (*entities.MRPRun, error) {
	run, err := entities.NewMRPRun(uuid.NewString(), scope, asOf)
	if err != nil {
		return nil, err
	}

	acquired, err := po.lock.Acquire(ctx, scope, run.ID, po.lockTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock for scope %s: %w", scope, err)
	}
	if !acquired {
		active := &entities.RunAlreadyActiveError{Scope: scope}
		if existing, err := po.store.FindActiveRun(ctx, scope); err == nil {
			active.ActiveRunID = existing.ID
		}
		return nil, active
	}

	existing, err := po.store.FindActiveRun(ctx, scope)
	switch {
	case err == nil:
		po.releaseLock(scope, run.ID)
		return nil, &entities.RunAlreadyActiveError{Scope: scope, ActiveRunID: existing.ID}
	case !errors.Is(err, entities.ErrNotFound):
		po.releaseLock(scope, run.ID)
		return nil, fmt.Errorf("failed to check active runs for scope %s: %w", scope, err)
	}

	if err := po.store.CreateRun(ctx, run); err != nil {
		po.releaseLock(scope, run.ID)
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// execute plans the run and records its final state. run is updated in place.
func (po *PlanningOrchestrator) execute(ctx context.Context, run *entities.MRPRun) {
	defer po.releaseLock(run.Scope, run.ID)

	if po.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, po.runTimeout)
		defer cancel()
	}
	// final writes must land even after the budget expires
	persistCtx := context.WithoutCancel(ctx)

	logger := po.logger.With(zap.String("run_id", run.ID), zap.String("scope", run.Scope))
	started := po.now()
	if err := run.Start(started); err != nil {
		logger.Error("run could not start", zap.Error(err))
		return
	}
	if err := po.store.UpdateRun(persistCtx, run); err != nil {
		logger.Error("failed to record run start", zap.Error(err))
	}
	po.metrics.RunStarted()
	po.publish(run.ID, events.NewRunStartedEvent(run))
	logger.Info("MRP run started", zap.Time("as_of", run.AsOf))

	err := po.plan(ctx, run, logger)

	finished := po.now()
	switch {
	case err == nil:
		_ = run.Complete(finished)
	default:
		reason := err.Error()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = fmt.Sprintf("run exceeded its time budget of %s", po.runTimeout)
		}
		_ = run.Fail(finished, reason, failedItem(err))
		// orders saved before the failure are a partial plan
		if markErr := po.store.MarkRunIncomplete(persistCtx, run.ID); markErr != nil {
			logger.Error("failed to flag orders incomplete", zap.Error(markErr))
		}
	}

	if err := po.store.UpdateRun(persistCtx, run); err != nil {
		logger.Error("failed to record run result", zap.Error(err))
	}
	po.metrics.RunFinished(run.Status, finished.Sub(started))
	po.publish(run.ID, events.NewRunFinishedEvent(run))

	fields := []zap.Field{
		zap.String("status", string(run.Status)),
		zap.Int("items", run.Counts.ItemsProcessed),
		zap.Int("shortages", run.Counts.ShortagesFound),
		zap.Int("planned_orders", run.Counts.PlannedOrders),
		zap.Int("warnings", run.Counts.WarningsRecorded),
		zap.Duration("elapsed", finished.Sub(started)),
	}
	if run.Status == entities.RunFailed {
		logger.Error("MRP run failed", append(fields, zap.String("reason", run.FailureReason))...)
		return
	}
	logger.Info("MRP run completed", fields...)
}

func (po *PlanningOrchestrator) plan(ctx context.Context, run *entities.MRPRun, logger *zap.Logger) error {
	roots, err := mrp.PlanningRoots(ctx, run.Scope, po.src, po.settings.EnforceSafetyStock)
	if err != nil {
		return err
	}

	graph, err := mrp.NewGraphLoader(po.src.Items, po.src.BOMs, po.settings.MakeOrBuy, logger).Load(ctx, roots)
	if err != nil {
		return err
	}
	po.recordWarnings(run, graph.Warnings, logger)

	committed, err := po.store.ListCommittedOrders(ctx, run.Scope)
	if err != nil {
		return fmt.Errorf("failed to list committed orders: %w", err)
	}

	snapshot, err := mrp.LoadSnapshot(ctx, run.Scope, graph, po.src, committed, po.settings.Workers)
	if err != nil {
		return err
	}

	logger.Debug("planning snapshot loaded",
		zap.Int("roots", len(graph.Roots)),
		zap.Int("items", len(graph.Nodes)),
		zap.Int("committed_orders", len(committed)),
	)

	planner := mrp.NewPlanner(run.ID, run.Scope, run.AsOf, graph, snapshot, po.src, po.settings, logger)
	err = planner.Run(ctx, func(ctx context.Context, code int, plans []*mrp.ItemPlan) error {
		for _, plan := range plans {
			if err := po.persist(ctx, run, plan, logger); err != nil {
				return err
			}
		}
		if err := po.store.UpdateRun(ctx, run); err != nil {
			return fmt.Errorf("failed to record progress after tier %d: %w", code, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// items this run no longer plans still hold orders from earlier runs
	superseded, err := po.store.SupersedeScope(ctx, run.ID, run.Scope)
	if err != nil {
		return err
	}
	if superseded > 0 {
		logger.Debug("superseded orders of items no longer planned", zap.Int("orders", superseded))
	}
	return nil
}

func (po *PlanningOrchestrator) persist(ctx context.Context, run *entities.MRPRun, plan *mrp.ItemPlan, logger *zap.Logger) error {
	po.recordWarnings(run, plan.Warnings, logger)
	if plan.Skipped {
		return nil
	}

	if err := po.store.SaveItemPlan(ctx, run.ID, run.Scope, plan.PartNumber, plan.Requirements, plan.Orders); err != nil {
		return &mrp.ItemError{PartNumber: plan.PartNumber, Err: err}
	}

	run.Counts.ItemsProcessed++
	run.Counts.ShortagesFound += len(plan.Requirements)
	run.Counts.PlannedOrders += len(plan.Orders)
	po.metrics.ItemPlanned(len(plan.Requirements), plan.Orders)

	for _, req := range plan.Requirements {
		po.publish(run.ID, events.NewShortageIdentifiedEvent(req))
	}
	for _, order := range plan.Orders {
		po.publish(run.ID, events.NewOrderPlannedEvent(order))
	}
	return nil
}

func (po *PlanningOrchestrator) recordWarnings(run *entities.MRPRun, warnings []entities.RunWarning, logger *zap.Logger) {
	before := len(run.Warnings)
	run.AddWarnings(warnings...)
	for _, w := range run.Warnings[before:] {
		logger.Warn("planning warning",
			zap.String("kind", string(w.Kind)),
			zap.String("item", string(w.Item)),
			zap.String("message", w.Message),
		)
		po.metrics.Warning(w.Kind)
		po.publish(run.ID, events.NewWarningRecordedEvent(run.ID, w))
	}
}

func (po *PlanningOrchestrator) publish(streamID string, event events.Event) {
	if po.events == nil {
		return
	}
	if err := po.events.AppendEvent(streamID, event); err != nil {
		po.logger.Warn("failed to append event", zap.String("type", event.Type()), zap.Error(err))
	}
}

// track registers runID as executing in this process until the returned func is called
func (po *PlanningOrchestrator) track(runID string) func() {
	done := make(chan struct{})
	po.mu.Lock()
	po.running[runID] = done
	po.mu.Unlock()

	return func() {
		po.mu.Lock()
		delete(po.running, runID)
		po.mu.Unlock()
		close(done)
	}
}

func (po *PlanningOrchestrator) releaseLock(scope, runID string) {
	if err := po.lock.Release(context.Background(), scope, runID); err != nil {
		po.logger.Warn("failed to release run lock", zap.String("scope", scope), zap.String("run_id", runID), zap.Error(err))
	}
}

func (po *PlanningOrchestrator) lockTTL() time.Duration {
	if po.runTimeout <= 0 {
		return defaultLockTTL
	}
	return po.runTimeout + time.Minute
}

func failedItem(err error) entities.PartNumber {
	var itemErr *mrp.ItemError
	if errors.As(err, &itemErr) {
		return itemErr.PartNumber
	}
	var missingErr *entities.MissingItemMasterError
	if errors.As(err, &missingErr) {
		return missingErr.Item
	}
	return ""
}
