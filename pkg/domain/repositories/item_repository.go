package repositories

import (
	"context"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// ItemRepository provides access to item master data
type ItemRepository interface {
	// LoadItemMaster returns entities.ErrNotFound when partNumber has no master record
	LoadItemMaster(ctx context.Context, partNumber entities.PartNumber) (*entities.Item, error)
	// ListItems returns every item master in scope
	ListItems(ctx context.Context, scope string) ([]*entities.Item, error)
}
