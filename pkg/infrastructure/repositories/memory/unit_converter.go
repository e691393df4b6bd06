package memory

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

// UnitConverter converts quantities with registered multiplication factors
type UnitConverter struct {
	mu      sync.RWMutex
	factors map[[2]string]entities.Quantity
}

// NewUnitConverter creates a converter with no conversions
func NewUnitConverter() *UnitConverter {
	return &UnitConverter{factors: make(map[[2]string]entities.Quantity)}
}

// Verify interface compliance
var _ repositories.UnitConverter = (*UnitConverter)(nil)

// AddConversion registers qty(to) = qty(from) × factor and its inverse
func (c *UnitConverter) AddConversion(from, to string, factor entities.Quantity) error {
	if !factor.IsPositive() {
		return fmt.Errorf("conversion factor %s -> %s must be positive, got %s", from, to, factor)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.factors[[2]string{from, to}] = factor
	c.factors[[2]string{to, from}] = decimal.NewFromInt(1).Div(factor)
	return nil
}

// ConvertQuantity converts qty between units. Identical units always convert.
func (c *UnitConverter) ConvertQuantity(qty entities.Quantity, from, to string) (entities.Quantity, bool) {
	if from == to {
		return qty, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	factor, ok := c.factors[[2]string{from, to}]
	if !ok {
		return decimal.Zero, false
	}
	return qty.Mul(factor), true
}
