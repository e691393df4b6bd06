package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

// DemandRepository provides in-memory independent demand storage
type DemandRepository struct {
	mu      sync.RWMutex
	demands map[entities.PartNumber][]entities.DemandLine
}

// NewDemandRepository creates a new in-memory demand repository
func NewDemandRepository() *DemandRepository {
	return &DemandRepository{
		demands: make(map[entities.PartNumber][]entities.DemandLine),
	}
}

// Verify interface compliance
var _ repositories.DemandRepository = (*DemandRepository)(nil)

// LoadDemands loads demand lines into the repository
func (r *DemandRepository) LoadDemands(demands []*entities.DemandLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, demand := range demands {
		r.demands[demand.PartNumber] = append(r.demands[demand.PartNumber], *demand)
	}
	return nil
}

// LoadIndependentDemand returns copies of the demand lines of partNumber
func (r *DemandRepository) LoadIndependentDemand(_ context.Context, _ string, partNumber entities.PartNumber) ([]*entities.DemandLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.demands[partNumber]
	demands := make([]*entities.DemandLine, 0, len(stored))
	for i := range stored {
		demand := stored[i]
		demands = append(demands, &demand)
	}
	return demands, nil
}

// ListDemandedItems returns every part with at least one demand line, sorted
func (r *DemandRepository) ListDemandedItems(_ context.Context, _ string) ([]entities.PartNumber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pns := make([]entities.PartNumber, 0, len(r.demands))
	for pn, lines := range r.demands {
		if len(lines) > 0 {
			pns = append(pns, pn)
		}
	}
	sort.Slice(pns, func(i, j int) bool { return pns[i] < pns[j] })
	return pns, nil
}

// RemoveDemand drops every demand line of partNumber and returns how many were removed
func (r *DemandRepository) RemoveDemand(partNumber entities.PartNumber) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.demands[partNumber])
	delete(r.demands, partNumber)
	return n
}
