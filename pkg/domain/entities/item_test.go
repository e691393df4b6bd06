package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem_Validation(t *testing.T) {
	validItem, err := NewItem("PART123", "Test Part", ProcurementBuy, 10, LotForLot, Qty(1), Qty(0), Qty(0), OnDemand, "EA")
	require.NoError(t, err)
	assert.Equal(t, PartNumber("PART123"), validItem.PartNumber)

	testCases := []struct {
		name        string
		partNumber  PartNumber
		procurement ProcurementType
		leadTime    int
		lotRule     LotSizeRule
		minOrderQty Quantity
		fixedQty    Quantity
		safetyStock Quantity
		stocking    StockingPolicy
		uom         string
		expectError string
	}{
		{"empty part number", "", ProcurementBuy, 1, LotForLot, Qty(0), Qty(0), Qty(0), OnDemand, "EA", "part number cannot be empty"},
		{"empty UOM", "PART", ProcurementBuy, 1, LotForLot, Qty(0), Qty(0), Qty(0), OnDemand, "", "unit of measure cannot be empty"},
		{"unknown procurement", "PART", "lease", 1, LotForLot, Qty(0), Qty(0), Qty(0), OnDemand, "EA", `unknown procurement type "lease"`},
		{"unknown stocking", "PART", ProcurementBuy, 1, LotForLot, Qty(0), Qty(0), Qty(0), "kanban", "EA", `unknown stocking policy "kanban"`},
		{
			"negative lead time",
			"PART", ProcurementMake, -1, LotForLot, Qty(0), Qty(0), Qty(0), OnDemand, "EA",
			"invalid lot size policy for PART: lead time cannot be negative, got -1",
		},
		{
			"negative min order qty",
			"PART", ProcurementMake, 1, LotForLot, Qty(-1), Qty(0), Qty(0), OnDemand, "EA",
			"invalid lot size policy for PART: minimum order quantity cannot be negative, got -1",
		},
		{
			"negative safety stock",
			"PART", ProcurementMake, 1, LotForLot, Qty(0), Qty(0), Qty(-1), Stocked, "EA",
			"invalid lot size policy for PART: safety stock cannot be negative, got -1",
		},
		{
			"fixed without quantity",
			"PART", ProcurementMake, 1, FixedOrderQty, Qty(0), Qty(0), Qty(0), OnDemand, "EA",
			"invalid lot size policy for PART: lot sizing rule fixed requires a positive fixed order quantity, got 0",
		},
		{
			"unknown lot rule",
			"PART", ProcurementMake, 1, "economic", Qty(0), Qty(0), Qty(0), OnDemand, "EA",
			`invalid lot size policy for PART: unknown lot sizing rule "economic"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewItem(tc.partNumber, "desc", tc.procurement, tc.leadTime, tc.lotRule,
				tc.minOrderQty, tc.fixedQty, tc.safetyStock, tc.stocking, tc.uom)
			require.Error(t, err)
			assert.Equal(t, tc.expectError, err.Error())
		})
	}
}

func TestItem_ValidatePolicyReturnsTypedError(t *testing.T) {
	item := Item{PartNumber: "BAD", LotSizeRule: LotForLot, MinOrderQty: Qty(-5)}

	err := item.ValidatePolicy()

	var policyErr *InvalidLotSizePolicyError
	require.True(t, errors.As(err, &policyErr))
	assert.Equal(t, PartNumber("BAD"), policyErr.Item)
}

func TestItem_ResolveOrderKind(t *testing.T) {
	testCases := []struct {
		procurement ProcurementType
		makeOrBuy   OrderKind
		expected    OrderKind
	}{
		{ProcurementMake, PlannedPurchase, PlannedProduction},
		{ProcurementBuy, PlannedProduction, PlannedPurchase},
		{ProcurementMakeOrBuy, PlannedProduction, PlannedProduction},
		{ProcurementMakeOrBuy, PlannedPurchase, PlannedPurchase},
	}

	for _, tc := range testCases {
		t.Run(string(tc.procurement)+"_"+string(tc.makeOrBuy), func(t *testing.T) {
			item := Item{ProcurementType: tc.procurement}
			assert.Equal(t, tc.expected, item.ResolveOrderKind(tc.makeOrBuy))
		})
	}
}

func TestItem_KeepsSafetyStock(t *testing.T) {
	assert.True(t, (&Item{StockingPolicy: Stocked, SafetyStock: Qty(5)}).KeepsSafetyStock())
	assert.False(t, (&Item{StockingPolicy: Stocked, SafetyStock: Qty(0)}).KeepsSafetyStock())
	assert.False(t, (&Item{StockingPolicy: OnDemand, SafetyStock: Qty(5)}).KeepsSafetyStock())
}
