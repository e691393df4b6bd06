package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

// ItemRepository provides in-memory item storage
type ItemRepository struct {
	mu       sync.RWMutex
	items    []entities.Item
	itemsMap map[entities.PartNumber]int
}

// NewItemRepository creates a new in-memory item repository
func NewItemRepository(expectedItems int) *ItemRepository {
	return &ItemRepository{
		items:    make([]entities.Item, 0, expectedItems),
		itemsMap: make(map[entities.PartNumber]int, expectedItems),
	}
}

// Verify interface compliance
var _ repositories.ItemRepository = (*ItemRepository)(nil)

// LoadItems adds items, rejecting the whole batch when a part number repeats
// within it or is already loaded
func (r *ItemRepository) LoadItems(items []*entities.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make(map[entities.PartNumber]bool, len(items))
	for _, item := range items {
		if _, exists := r.itemsMap[item.PartNumber]; exists || batch[item.PartNumber] {
			return fmt.Errorf("duplicate part number %s", item.PartNumber)
		}
		batch[item.PartNumber] = true
	}
	for _, item := range items {
		r.itemsMap[item.PartNumber] = len(r.items)
		r.items = append(r.items, *item)
	}
	return nil
}

// AddItem adds or replaces an item
func (r *ItemRepository) AddItem(item entities.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, exists := r.itemsMap[item.PartNumber]; exists {
		r.items[index] = item
		return
	}
	r.itemsMap[item.PartNumber] = len(r.items)
	r.items = append(r.items, item)
}

// LoadItemMaster returns a copy of the item master for partNumber
func (r *ItemRepository) LoadItemMaster(_ context.Context, partNumber entities.PartNumber) (*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.itemsMap[partNumber]
	if !exists {
		return nil, fmt.Errorf("item %s: %w", partNumber, entities.ErrNotFound)
	}
	item := r.items[index]
	return &item, nil
}

// ListItems returns copies of all items sorted by part number. The dataset is not scoped.
func (r *ItemRepository) ListItems(_ context.Context, _ string) ([]*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*entities.Item, 0, len(r.items))
	for i := range r.items {
		item := r.items[i]
		items = append(items, &item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].PartNumber < items[j].PartNumber })
	return items, nil
}
