package csv

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

func TestWriter_WriteScenarioIsLoadable(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "generated")
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	data := &ScenarioData{
		Items: []*entities.Item{
			{PartNumber: "A", Description: "Top, assembly", ProcurementType: entities.ProcurementMake, LeadTimeDays: 4,
				LotSizeRule: entities.LotForLot, MinOrderQty: decimal.Zero, FixedOrderQty: decimal.Zero,
				SafetyStock: decimal.Zero, StockingPolicy: entities.OnDemand, UnitOfMeasure: "EA"},
			{PartNumber: "B", Description: "Cable", ProcurementType: entities.ProcurementBuy, LeadTimeDays: 10,
				LotSizeRule: entities.FixedOrderQty, MinOrderQty: decimal.Zero, FixedOrderQty: entities.Qty(25),
				SafetyStock: entities.Qty(5), StockingPolicy: entities.Stocked, UnitOfMeasure: "FT"},
		},
		BOM: []*entities.BOMEdge{
			{ParentPN: "A", ChildPN: "B", QtyPer: entities.Qty(2), ScrapFactor: decimal.RequireFromString("0.02"), ChildUnit: "M"},
		},
		Inventory: []*entities.OnHand{{PartNumber: "B", Quantity: entities.Qty(12)}},
		Supply: []*entities.SupplyLine{
			{PartNumber: "B", Quantity: entities.Qty(25), ExpectedDate: due, Source: entities.SupplyPurchaseOrder, SourceRef: "PO-1"},
		},
		Demands: []*entities.DemandLine{
			{PartNumber: "A", Quantity: entities.Qty(3), NeedDate: due, Source: entities.DemandSalesOrder, SourceRef: "SO-1"},
		},
		Units: []UnitConversion{{From: "M", To: "FT", Factor: decimal.RequireFromString("3.28084")}},
	}

	require.NoError(t, NewWriter().WriteScenario(dir, data))
	scenario, err := NewLoader().LoadScenario(dir)
	require.NoError(t, err)

	a, err := scenario.Items.LoadItemMaster(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Top, assembly", a.Description)

	b, err := scenario.Items.LoadItemMaster(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, entities.FixedOrderQty, b.LotSizeRule)
	assert.True(t, b.FixedOrderQty.Equal(entities.Qty(25)))
	assert.NoError(t, b.ValidatePolicy())

	bom, err := scenario.BOMs.LoadActiveBOM(ctx, "A")
	require.NoError(t, err)
	require.Len(t, bom, 1)
	assert.True(t, bom[0].ScrapFactor.Equal(decimal.RequireFromString("0.02")))

	supply, err := scenario.Supply.LoadOpenSupply(ctx, "", "B")
	require.NoError(t, err)
	require.Len(t, supply, 1)
	assert.Equal(t, due, supply[0].ExpectedDate)

	_, ok := scenario.Units.ConvertQuantity(entities.Qty(1), "FT", "M")
	assert.True(t, ok)
}
