package entities

import (
	"fmt"
	"time"
)

// DemandSource identifies where independent demand comes from
type DemandSource string

const (
	DemandSalesOrder  DemandSource = "sales_order"
	DemandForecast    DemandSource = "forecast"
	DemandSafetyStock DemandSource = "safety_stock"
)

// DemandLine represents independent demand for an item
type DemandLine struct {
	PartNumber PartNumber
	Quantity   Quantity
	Unit       string // empty = item's canonical unit
	NeedDate   time.Time
	Source     DemandSource
	SourceRef  string
}

// NewDemandLine creates a validated DemandLine
func NewDemandLine(partNumber PartNumber, quantity Quantity, unit string, needDate time.Time, source DemandSource, sourceRef string) (*DemandLine, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive, got %s", quantity)
	}
	if needDate.IsZero() {
		return nil, fmt.Errorf("need date cannot be empty")
	}
	switch source {
	case DemandSalesOrder, DemandForecast, DemandSafetyStock:
	default:
		return nil, fmt.Errorf("unknown demand source %q", source)
	}
	return &DemandLine{
		PartNumber: partNumber,
		Quantity:   quantity,
		Unit:       unit,
		NeedDate:   needDate,
		Source:     source,
		SourceRef:  sourceRef,
	}, nil
}

// GrossRequirement is a dated requirement for an item, independent or dependent
type GrossRequirement struct {
	PartNumber  PartNumber
	Quantity    Quantity
	NeedDate    time.Time
	DemandTrace string
}

// NetRequirement is the shortage left in one time bucket after netting
type NetRequirement struct {
	ID               string     `json:"id"`
	RunID            string     `json:"run_id"`
	PartNumber       PartNumber `json:"part_number"`
	LowLevelCode     int        `json:"low_level_code"`
	BucketIndex      int        `json:"bucket_index"`
	BucketStart      time.Time  `json:"bucket_start"`
	GrossRequirement Quantity   `json:"gross_requirement"`
	ScheduledSupply  Quantity   `json:"scheduled_supply"`
	AvailableSupply  Quantity   `json:"available_supply"`
	NetRequirement   Quantity   `json:"net_requirement"`
	ProjectedBalance Quantity   `json:"projected_balance"`
}
