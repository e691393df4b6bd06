package repositories

import (
	"context"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// InventoryRepository provides net-of-allocation on-hand positions
type InventoryRepository interface {
	LoadOnHand(ctx context.Context, scope string, partNumber entities.PartNumber) (entities.Quantity, error)
}

// SupplyRepository provides open purchase and production orders
type SupplyRepository interface {
	LoadOpenSupply(ctx context.Context, scope string, partNumber entities.PartNumber) ([]*entities.SupplyLine, error)
}

// UnitConverter converts quantities between units of measure.
// ok is false when no conversion is known.
type UnitConverter interface {
	ConvertQuantity(qty entities.Quantity, from, to string) (converted entities.Quantity, ok bool)
}
