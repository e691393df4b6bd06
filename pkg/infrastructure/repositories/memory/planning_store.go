package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

// PlanningStore keeps runs and planning output in process memory
type PlanningStore struct {
	mu           sync.RWMutex
	runs         map[string]entities.MRPRun
	requirements map[string][]entities.NetRequirement // by run id
	orders       map[string]entities.PlannedOrder
	orderSeq     []string
}

// NewPlanningStore creates an empty store
func NewPlanningStore() *PlanningStore {
	return &PlanningStore{
		runs:         make(map[string]entities.MRPRun),
		requirements: make(map[string][]entities.NetRequirement),
		orders:       make(map[string]entities.PlannedOrder),
	}
}

// Verify interface compliance
var _ repositories.PlanningStore = (*PlanningStore)(nil)

func (s *PlanningStore) CreateRun(_ context.Context, run *entities.MRPRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	s.runs[run.ID] = copyRun(run)
	return nil
}

func (s *PlanningStore) UpdateRun(_ context.Context, run *entities.MRPRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		return fmt.Errorf("run %s: %w", run.ID, entities.ErrNotFound)
	}
	s.runs[run.ID] = copyRun(run)
	return nil
}

func (s *PlanningStore) GetRun(_ context.Context, runID string) (*entities.MRPRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run %s: %w", runID, entities.ErrNotFound)
	}
	out := copyRun(&run)
	return &out, nil
}

// FindActiveRun returns the unfinished run of scope
func (s *PlanningStore) FindActiveRun(_ context.Context, scope string) (*entities.MRPRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, run := range s.runs {
		if run.Scope == scope && !run.Status.IsTerminal() {
			out := copyRun(&run)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("active run for scope %s: %w", scope, entities.ErrNotFound)
}

// SaveItemPlan stores one item's output and supersedes that item's planned-status
// orders from other runs in scope
func (s *PlanningStore) SaveItemPlan(
	_ context.Context,
	runID, scope string,
	partNumber entities.PartNumber,
	requirements []*entities.NetRequirement,
	orders []*entities.PlannedOrder,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersede(runID, scope, partNumber)

	for _, req := range requirements {
		s.requirements[runID] = append(s.requirements[runID], *req)
	}
	for _, order := range orders {
		if _, exists := s.orders[order.ID]; !exists {
			s.orderSeq = append(s.orderSeq, order.ID)
		}
		s.orders[order.ID] = copyOrder(order)
	}
	return nil
}

func (s *PlanningStore) SupersedeScope(_ context.Context, runID, scope string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supersede(runID, scope, ""), nil
}

// supersede marks live planned orders of other runs in scope, limited to partNumber
// when it is set. Callers hold mu.
func (s *PlanningStore) supersede(runID, scope string, partNumber entities.PartNumber) int {
	n := 0
	for id, order := range s.orders {
		if order.Scope != scope || order.RunID == runID ||
			order.Status != entities.OrderPlanned || order.SupersededBy != "" {
			continue
		}
		if partNumber != "" && order.PartNumber != partNumber {
			continue
		}
		order.SupersededBy = runID
		s.orders[id] = order
		n++
	}
	return n
}

func (s *PlanningStore) ListNetRequirements(_ context.Context, runID string, partNumber entities.PartNumber) ([]*entities.NetRequirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.NetRequirement
	for _, req := range s.requirements[runID] {
		if partNumber != "" && req.PartNumber != partNumber {
			continue
		}
		r := req
		out = append(out, &r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LowLevelCode != out[j].LowLevelCode {
			return out[i].LowLevelCode < out[j].LowLevelCode
		}
		if out[i].PartNumber != out[j].PartNumber {
			return out[i].PartNumber < out[j].PartNumber
		}
		return out[i].BucketIndex < out[j].BucketIndex
	})
	return out, nil
}

func (s *PlanningStore) ListPlannedOrders(_ context.Context, runID string, partNumber entities.PartNumber) ([]*entities.PlannedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.PlannedOrder
	for _, id := range s.orderSeq {
		order := s.orders[id]
		if order.RunID != runID || (partNumber != "" && order.PartNumber != partNumber) {
			continue
		}
		o := copyOrder(&order)
		out = append(out, &o)
	}
	return out, nil
}

func (s *PlanningStore) ListCommittedOrders(_ context.Context, scope string) ([]*entities.PlannedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.PlannedOrder
	for _, id := range s.orderSeq {
		order := s.orders[id]
		if order.Scope != scope || !order.IsCommitted() {
			continue
		}
		o := copyOrder(&order)
		out = append(out, &o)
	}
	return out, nil
}

func (s *PlanningStore) GetPlannedOrder(_ context.Context, orderID string) (*entities.PlannedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[orderID]
	if !exists {
		return nil, fmt.Errorf("planned order %s: %w", orderID, entities.ErrNotFound)
	}
	o := copyOrder(&order)
	return &o, nil
}

func (s *PlanningStore) UpdatePlannedOrderStatus(_ context.Context, orderID string, status entities.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[orderID]
	if !exists {
		return fmt.Errorf("planned order %s: %w", orderID, entities.ErrNotFound)
	}
	order.Status = status
	s.orders[orderID] = order
	return nil
}

func (s *PlanningStore) MarkRunIncomplete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, order := range s.orders {
		if order.RunID == runID {
			order.Incomplete = true
			s.orders[id] = order
		}
	}
	return nil
}

// CountRuns returns the number of stored runs
func (s *PlanningStore) CountRuns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

func copyRun(run *entities.MRPRun) entities.MRPRun {
	out := *run
	out.Warnings = append([]entities.RunWarning(nil), run.Warnings...)
	return out
}

func copyOrder(order *entities.PlannedOrder) entities.PlannedOrder {
	out := *order
	out.NetRequirementIDs = append([]string(nil), order.NetRequirementIDs...)
	return out
}
