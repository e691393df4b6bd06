package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

// InventoryRepository holds net-of-allocation on-hand quantities
type InventoryRepository struct {
	mu     sync.RWMutex
	onHand map[entities.PartNumber]entities.Quantity
}

// NewInventoryRepository creates an empty inventory repository
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{onHand: make(map[entities.PartNumber]entities.Quantity)}
}

// Verify interface compliance
var _ repositories.InventoryRepository = (*InventoryRepository)(nil)

// LoadPositions loads on-hand positions, adding to any existing quantity per part
func (r *InventoryRepository) LoadPositions(positions []*entities.OnHand) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pos := range positions {
		r.onHand[pos.PartNumber] = r.onHand[pos.PartNumber].Add(pos.Quantity)
	}
	return nil
}

// SetOnHand replaces the on-hand quantity of partNumber
func (r *InventoryRepository) SetOnHand(partNumber entities.PartNumber, qty entities.Quantity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHand[partNumber] = qty
}

// LoadOnHand returns the on-hand quantity of partNumber, zero when unknown
func (r *InventoryRepository) LoadOnHand(_ context.Context, _ string, partNumber entities.PartNumber) (entities.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onHand[partNumber], nil
}

// SupplyRepository holds open purchase and production orders
type SupplyRepository struct {
	mu    sync.RWMutex
	lines map[entities.PartNumber][]entities.SupplyLine
}

// NewSupplyRepository creates an empty supply repository
func NewSupplyRepository() *SupplyRepository {
	return &SupplyRepository{lines: make(map[entities.PartNumber][]entities.SupplyLine)}
}

// Verify interface compliance
var _ repositories.SupplyRepository = (*SupplyRepository)(nil)

// LoadSupply loads supply lines into the repository
func (r *SupplyRepository) LoadSupply(lines []*entities.SupplyLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range lines {
		r.lines[line.PartNumber] = append(r.lines[line.PartNumber], *line)
	}
	return nil
}

// LoadOpenSupply returns copies of the open supply of partNumber ordered by date
func (r *SupplyRepository) LoadOpenSupply(_ context.Context, _ string, partNumber entities.PartNumber) ([]*entities.SupplyLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.lines[partNumber]
	lines := make([]*entities.SupplyLine, 0, len(stored))
	for i := range stored {
		line := stored[i]
		lines = append(lines, &line)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ExpectedDate.Before(lines[j].ExpectedDate) })
	return lines, nil
}
