package repositories

import (
	"context"
	"time"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// PlanningStore persists runs and their planning output
type PlanningStore interface {
	CreateRun(ctx context.Context, run *entities.MRPRun) error
	UpdateRun(ctx context.Context, run *entities.MRPRun) error
	GetRun(ctx context.Context, runID string) (*entities.MRPRun, error)
	// FindActiveRun returns the running run for scope, or entities.ErrNotFound
	FindActiveRun(ctx context.Context, scope string) (*entities.MRPRun, error)

	// SaveItemPlan stores the net requirements and planned orders of one item and
	// supersedes planned-status orders left for the item in scope by earlier runs.
	SaveItemPlan(
		ctx context.Context,
		runID, scope string,
		partNumber entities.PartNumber,
		requirements []*entities.NetRequirement,
		orders []*entities.PlannedOrder,
	) error

	// SupersedeScope supersedes every planned-status order in scope left by other runs.
	// It returns the number of orders superseded.
	SupersedeScope(ctx context.Context, runID, scope string) (int, error)

	// ListNetRequirements returns the run's net requirements; an empty partNumber lists all
	ListNetRequirements(ctx context.Context, runID string, partNumber entities.PartNumber) ([]*entities.NetRequirement, error)
	// ListPlannedOrders returns the run's planned orders; an empty partNumber lists all
	ListPlannedOrders(ctx context.Context, runID string, partNumber entities.PartNumber) ([]*entities.PlannedOrder, error)
	// ListCommittedOrders returns firmed and released orders in scope that are not superseded
	ListCommittedOrders(ctx context.Context, scope string) ([]*entities.PlannedOrder, error)

	GetPlannedOrder(ctx context.Context, orderID string) (*entities.PlannedOrder, error)
	UpdatePlannedOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) error
	// MarkRunIncomplete flags every order of the run as incomplete
	MarkRunIncomplete(ctx context.Context, runID string) error
}

// RunLock guards a scope against concurrent runs
type RunLock interface {
	// Acquire returns false when another run holds the scope
	Acquire(ctx context.Context, scope, runID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, scope, runID string) error
}
