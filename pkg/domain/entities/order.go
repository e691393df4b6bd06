package entities

import (
	"fmt"
	"time"
)

// OrderKind represents the type of planned order
type OrderKind string

const (
	PlannedPurchase   OrderKind = "planned_purchase"
	PlannedProduction OrderKind = "planned_production"
)

// ParseOrderKind converts a string to an OrderKind
func ParseOrderKind(s string) (OrderKind, error) {
	switch OrderKind(s) {
	case PlannedPurchase, PlannedProduction:
		return OrderKind(s), nil
	case "make":
		return PlannedProduction, nil
	case "buy":
		return PlannedPurchase, nil
	default:
		return "", fmt.Errorf("unknown planned order kind %q", s)
	}
}

// OrderStatus represents the lifecycle state of a planned order
type OrderStatus string

const (
	OrderPlanned  OrderStatus = "planned"
	OrderFirmed   OrderStatus = "firmed"
	OrderReleased OrderStatus = "released"
)

// PlannedOrder represents a system-suggested purchase or production order
type PlannedOrder struct {
	ID                string      `json:"id"`
	RunID             string      `json:"run_id"`
	Scope             string      `json:"scope"`
	PartNumber        PartNumber  `json:"part_number"`
	Quantity          Quantity    `json:"quantity"`
	ReleaseDate       time.Time   `json:"release_date"`
	DueDate           time.Time   `json:"due_date"`
	Status            OrderStatus `json:"status"`
	Kind              OrderKind   `json:"kind"`
	NetRequirementIDs []string    `json:"net_requirement_ids"`
	Incomplete        bool        `json:"incomplete"`
	SupersededBy      string      `json:"superseded_by,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}

// NewPlannedOrder creates a validated PlannedOrder in the planned state
func NewPlannedOrder(
	id, runID, scope string,
	partNumber PartNumber,
	quantity Quantity,
	releaseDate, dueDate time.Time,
	kind OrderKind,
	netRequirementIDs []string,
) (*PlannedOrder, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive, got %s", quantity)
	}
	if releaseDate.After(dueDate) {
		return nil, fmt.Errorf("release date %v cannot be after due date %v", releaseDate, dueDate)
	}
	if len(netRequirementIDs) == 0 {
		return nil, fmt.Errorf("planned order for %s must reference at least one net requirement", partNumber)
	}

	return &PlannedOrder{
		ID:                id,
		RunID:             runID,
		Scope:             scope,
		PartNumber:        partNumber,
		Quantity:          quantity,
		ReleaseDate:       releaseDate,
		DueDate:           dueDate,
		Status:            OrderPlanned,
		Kind:              kind,
		NetRequirementIDs: netRequirementIDs,
	}, nil
}

// IsCommitted reports whether the order is firmed or released and must be treated as supply
func (o *PlannedOrder) IsCommitted() bool {
	return o.SupersededBy == "" && (o.Status == OrderFirmed || o.Status == OrderReleased)
}

// Firm transitions a planned order to firmed. Firming a firmed order is a no-op.
func (o *PlannedOrder) Firm() error {
	if o.SupersededBy != "" {
		return fmt.Errorf("planned order %s was superseded by run %s", o.ID, o.SupersededBy)
	}
	switch o.Status {
	case OrderPlanned:
		o.Status = OrderFirmed
		return nil
	case OrderFirmed:
		return nil
	default:
		return fmt.Errorf("planned order %s cannot be firmed from status %s", o.ID, o.Status)
	}
}
