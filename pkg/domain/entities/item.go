package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PartNumber represents a unique part identifier
type PartNumber string

// Quantity is a decimal quantity expressed in an item's canonical unit
type Quantity = decimal.Decimal

// Qty is shorthand for building a whole-unit quantity
func Qty(v int64) Quantity {
	return decimal.NewFromInt(v)
}

// ProcurementType states how an item is sourced
type ProcurementType string

const (
	ProcurementMake      ProcurementType = "make"
	ProcurementBuy       ProcurementType = "buy"
	ProcurementMakeOrBuy ProcurementType = "make_or_buy"
)

// ParseProcurementType converts a string to a ProcurementType
func ParseProcurementType(s string) (ProcurementType, error) {
	switch ProcurementType(s) {
	case ProcurementMake, ProcurementBuy, ProcurementMakeOrBuy:
		return ProcurementType(s), nil
	default:
		return "", fmt.Errorf("unknown procurement type %q", s)
	}
}

// LotSizeRule represents the lot sizing rule for an item
type LotSizeRule string

const (
	// LotForLot orders exactly the net requirement, floored at the minimum order quantity
	LotForLot LotSizeRule = "lot_for_lot"
	// FixedOrderQty orders whole multiples of the fixed order quantity
	FixedOrderQty LotSizeRule = "fixed"
)

// ParseLotSizeRule converts a string to a LotSizeRule
func ParseLotSizeRule(s string) (LotSizeRule, error) {
	switch LotSizeRule(s) {
	case LotForLot, FixedOrderQty:
		return LotSizeRule(s), nil
	default:
		return "", fmt.Errorf("unknown lot size rule %q", s)
	}
}

// StockingPolicy controls whether an item keeps a safety stock floor
type StockingPolicy string

const (
	Stocked  StockingPolicy = "stocked"
	OnDemand StockingPolicy = "on_demand"
)

// ParseStockingPolicy converts a string to a StockingPolicy
func ParseStockingPolicy(s string) (StockingPolicy, error) {
	switch StockingPolicy(s) {
	case Stocked, OnDemand:
		return StockingPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown stocking policy %q", s)
	}
}

// Item represents a manufacturing item with its planning properties
type Item struct {
	PartNumber      PartNumber
	Description     string
	ProcurementType ProcurementType
	LeadTimeDays    int
	LotSizeRule     LotSizeRule
	MinOrderQty     Quantity
	FixedOrderQty   Quantity
	SafetyStock     Quantity
	StockingPolicy  StockingPolicy
	UnitOfMeasure   string
}

// NewItem creates a validated Item
func NewItem(
	partNumber PartNumber,
	description string,
	procurement ProcurementType,
	leadTimeDays int,
	lotRule LotSizeRule,
	minOrderQty, fixedOrderQty, safetyStock Quantity,
	stocking StockingPolicy,
	uom string,
) (*Item, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if uom == "" {
		return nil, fmt.Errorf("unit of measure cannot be empty")
	}
	if _, err := ParseProcurementType(string(procurement)); err != nil {
		return nil, err
	}
	if _, err := ParseStockingPolicy(string(stocking)); err != nil {
		return nil, err
	}

	item := &Item{
		PartNumber:      partNumber,
		Description:     description,
		ProcurementType: procurement,
		LeadTimeDays:    leadTimeDays,
		LotSizeRule:     lotRule,
		MinOrderQty:     minOrderQty,
		FixedOrderQty:   fixedOrderQty,
		SafetyStock:     safetyStock,
		StockingPolicy:  stocking,
		UnitOfMeasure:   uom,
	}
	if err := item.ValidatePolicy(); err != nil {
		return nil, err
	}
	return item, nil
}

// ValidatePolicy checks the order-policy fields of the item
func (i *Item) ValidatePolicy() error {
	invalid := func(format string, args ...any) error {
		return &InvalidLotSizePolicyError{Item: i.PartNumber, Reason: fmt.Sprintf(format, args...)}
	}

	if i.LeadTimeDays < 0 {
		return invalid("lead time cannot be negative, got %d", i.LeadTimeDays)
	}
	if i.MinOrderQty.IsNegative() {
		return invalid("minimum order quantity cannot be negative, got %s", i.MinOrderQty)
	}
	if i.SafetyStock.IsNegative() {
		return invalid("safety stock cannot be negative, got %s", i.SafetyStock)
	}
	switch i.LotSizeRule {
	case LotForLot:
	case FixedOrderQty:
		if !i.FixedOrderQty.IsPositive() {
			return invalid("lot sizing rule fixed requires a positive fixed order quantity, got %s", i.FixedOrderQty)
		}
	default:
		return invalid("unknown lot sizing rule %q", i.LotSizeRule)
	}
	return nil
}

// KeepsSafetyStock reports whether netting must hold the safety stock floor
func (i *Item) KeepsSafetyStock() bool {
	return i.StockingPolicy == Stocked && i.SafetyStock.IsPositive()
}

// ResolveOrderKind maps the procurement type to a planned order kind.
// make_or_buy items take makeOrBuy.
func (i *Item) ResolveOrderKind(makeOrBuy OrderKind) OrderKind {
	switch i.ProcurementType {
	case ProcurementBuy:
		return PlannedPurchase
	case ProcurementMakeOrBuy:
		return makeOrBuy
	default:
		return PlannedProduction
	}
}
