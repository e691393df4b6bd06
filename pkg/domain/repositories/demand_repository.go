package repositories

import (
	"context"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// DemandRepository provides access to independent demand
type DemandRepository interface {
	// LoadIndependentDemand returns sales order and forecast lines for partNumber
	LoadIndependentDemand(ctx context.Context, scope string, partNumber entities.PartNumber) ([]*entities.DemandLine, error)
	// ListDemandedItems returns every item carrying independent demand in scope
	ListDemandedItems(ctx context.Context, scope string) ([]entities.PartNumber, error)
}
