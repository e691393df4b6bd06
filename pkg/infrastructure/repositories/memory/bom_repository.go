package memory

import (
	"context"
	"sync"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

// BOMRepository stores the active BOM of every parent item
type BOMRepository struct {
	mu         sync.RWMutex
	bomLines   []entities.BOMEdge
	bomIndexes map[entities.PartNumber][]int
}

// NewBOMRepository creates an empty BOM repository
func NewBOMRepository(expectedBOMLines int) *BOMRepository {
	return &BOMRepository{
		bomLines:   make([]entities.BOMEdge, 0, expectedBOMLines),
		bomIndexes: make(map[entities.PartNumber][]int),
	}
}

// Verify interface compliance
var _ repositories.BOMRepository = (*BOMRepository)(nil)

// LoadBOMLines loads BOM lines into the repository
func (r *BOMRepository) LoadBOMLines(lines []*entities.BOMEdge) error {
	for _, line := range lines {
		r.AddBOMLine(*line)
	}
	return nil
}

// AddBOMLine appends a line to its parent's active BOM
func (r *BOMRepository) AddBOMLine(line entities.BOMEdge) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bomIndexes[line.ParentPN] = append(r.bomIndexes[line.ParentPN], len(r.bomLines))
	r.bomLines = append(r.bomLines, line)
}

// LoadActiveBOM returns copies of the BOM lines of partNumber in load order
func (r *BOMRepository) LoadActiveBOM(_ context.Context, partNumber entities.PartNumber) ([]*entities.BOMEdge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes := r.bomIndexes[partNumber]
	lines := make([]*entities.BOMEdge, 0, len(indexes))
	for _, index := range indexes {
		line := r.bomLines[index]
		lines = append(lines, &line)
	}
	return lines, nil
}

// AllBOMLines returns copies of every stored line
func (r *BOMRepository) AllBOMLines() []*entities.BOMEdge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]*entities.BOMEdge, 0, len(r.bomLines))
	for i := range r.bomLines {
		line := r.bomLines[i]
		lines = append(lines, &line)
	}
	return lines
}
