package repositories

import (
	"context"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// BOMRepository provides access to Bill of Materials data
type BOMRepository interface {
	// LoadActiveBOM returns the active BOM lines of partNumber, empty for leaf items
	LoadActiveBOM(ctx context.Context, partNumber entities.PartNumber) ([]*entities.BOMEdge, error)
}
