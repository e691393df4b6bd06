package mrp

import (
	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// OrderPolicy turns a net requirement into an order quantity for one item
type OrderPolicy struct {
	rule        entities.LotSizeRule
	minOrderQty entities.Quantity
	fixedQty    entities.Quantity
}

// ResolveOrderPolicy validates the item's lot sizing fields and returns its policy.
// Invalid configuration is an *entities.InvalidLotSizePolicyError.
func ResolveOrderPolicy(item *entities.Item) (*OrderPolicy, error) {
	if err := item.ValidatePolicy(); err != nil {
		return nil, err
	}
	return &OrderPolicy{
		rule:        item.LotSizeRule,
		minOrderQty: item.MinOrderQty,
		fixedQty:    item.FixedOrderQty,
	}, nil
}

// Quantity sizes an order for net. Results are whole units and never below net.
func (p *OrderPolicy) Quantity(net entities.Quantity) entities.Quantity {
	if !net.IsPositive() {
		return entities.Qty(0)
	}

	switch p.rule {
	case entities.FixedOrderQty:
		qty := roundUpToMultiple(net, p.fixedQty)
		if qty.LessThan(p.minOrderQty) {
			qty = roundUpToMultiple(p.minOrderQty, p.fixedQty)
		}
		return qty.Ceil()
	default:
		qty := net
		if qty.LessThan(p.minOrderQty) {
			qty = p.minOrderQty
		}
		return qty.Ceil()
	}
}

func roundUpToMultiple(qty, multiple entities.Quantity) entities.Quantity {
	return qty.Div(multiple).Ceil().Mul(multiple)
}
