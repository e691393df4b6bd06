package csv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// writeScenario writes the two-level X/Y scenario
func writeScenario(t *testing.T, withUnits bool) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, ItemsFile, `part_number,description,procurement_type,lead_time_days,lot_size_rule,min_order_qty,fixed_order_qty,safety_stock,stocking_policy,unit_of_measure
X,Assembly,make,2,lot_for_lot,,,,,EA
Y,Bracket,buy,3,lot_for_lot,100,,5,stocked,EA
W,Wire,buy,1,fixed,,500,,on_demand,FT
`)
	writeFile(t, dir, BOMFile, `parent_pn,child_pn,qty_per,scrap_factor,child_unit
X,Y,2,,
X,W,3,0.1,M
`)
	writeFile(t, dir, InventoryFile, `part_number,quantity
Y,20
Y,5
`)
	writeFile(t, dir, SupplyFile, `part_number,quantity,unit,expected_date,source,source_ref
W,500,,2025-03-04,purchase_order,PO-1
`)
	writeFile(t, dir, DemandsFile, `part_number,quantity,unit,need_date,source,source_ref
X,50,,2025-03-11,sales_order,SO-1
X,10,,2025-03-20,forecast,FC-1
`)
	if withUnits {
		writeFile(t, dir, UnitsFile, `from_unit,to_unit,factor
M,FT,3.28084
`)
	}
	return dir
}

func TestLoader_LoadScenario(t *testing.T) {
	ctx := context.Background()
	scenario, err := NewLoader().LoadScenario(writeScenario(t, true))
	require.NoError(t, err)

	y, err := scenario.Items.LoadItemMaster(ctx, "Y")
	require.NoError(t, err)
	assert.Equal(t, entities.ProcurementBuy, y.ProcurementType)
	assert.Equal(t, 3, y.LeadTimeDays)
	assert.True(t, y.MinOrderQty.Equal(entities.Qty(100)))
	assert.True(t, y.KeepsSafetyStock())

	x, err := scenario.Items.LoadItemMaster(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, entities.OnDemand, x.StockingPolicy)
	assert.True(t, x.MinOrderQty.IsZero())

	bom, err := scenario.BOMs.LoadActiveBOM(ctx, "X")
	require.NoError(t, err)
	require.Len(t, bom, 2)
	assert.Equal(t, entities.PartNumber("W"), bom[1].ChildPN)
	assert.True(t, bom[1].ScrapFactor.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, "M", bom[1].ChildUnit)

	onHand, err := scenario.Inventory.LoadOnHand(ctx, "", "Y")
	require.NoError(t, err)
	assert.True(t, onHand.Equal(entities.Qty(25)), "positions for the same part add up")

	supply, err := scenario.Supply.LoadOpenSupply(ctx, "", "W")
	require.NoError(t, err)
	require.Len(t, supply, 1)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), supply[0].ExpectedDate)

	demanded, err := scenario.Demand.ListDemandedItems(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []entities.PartNumber{"X"}, demanded)

	feet, ok := scenario.Units.ConvertQuantity(entities.Qty(10), "M", "FT")
	require.True(t, ok)
	assert.True(t, feet.Equal(decimal.RequireFromString("32.8084")), "got %s", feet)
}

func TestLoader_UnitsFileIsOptional(t *testing.T) {
	scenario, err := NewLoader().LoadScenario(writeScenario(t, false))
	require.NoError(t, err)

	_, ok := scenario.Units.ConvertQuantity(entities.Qty(1), "M", "FT")
	assert.False(t, ok)
}

func TestLoader_InvalidLotRuleIsKept(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ItemsFile, `part_number,description,procurement_type,lead_time_days,lot_size_rule,min_order_qty,fixed_order_qty,safety_stock,stocking_policy,unit_of_measure
P,Part,buy,1,fixed,,,,,EA
`)

	items, err := NewLoader().LoadItems(filepath.Join(dir, ItemsFile))
	require.NoError(t, err)
	require.Len(t, items, 1)

	var policyErr *entities.InvalidLotSizePolicyError
	assert.ErrorAs(t, items[0].ValidatePolicy(), &policyErr)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		load    func(l *Loader, path string) error
		wantErr string
	}{
		{
			name:    "items header mismatch",
			file:    ItemsFile,
			content: "part,description\nX,Assembly\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadItems(p); return err },
			wantErr: "header mismatch",
		},
		{
			name:    "items without rows",
			file:    ItemsFile,
			content: "part_number,description,procurement_type,lead_time_days,lot_size_rule,min_order_qty,fixed_order_qty,safety_stock,stocking_policy,unit_of_measure\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadItems(p); return err },
			wantErr: "at least one data row",
		},
		{
			name:    "unknown procurement type",
			file:    ItemsFile,
			content: "part_number,description,procurement_type,lead_time_days,lot_size_rule,min_order_qty,fixed_order_qty,safety_stock,stocking_policy,unit_of_measure\nX,A,lease,1,lot_for_lot,,,,,EA\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadItems(p); return err },
			wantErr: "row 2",
		},
		{
			name:    "bad qty_per",
			file:    BOMFile,
			content: "parent_pn,child_pn,qty_per,scrap_factor,child_unit\nX,Y,two,,\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadBOM(p); return err },
			wantErr: "invalid qty_per",
		},
		{
			name:    "bad need date",
			file:    DemandsFile,
			content: "part_number,quantity,unit,need_date,source,source_ref\nX,5,,03/11/2025,sales_order,SO\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadDemands(p); return err },
			wantErr: "expected YYYY-MM-DD",
		},
		{
			name:    "zero demand quantity",
			file:    DemandsFile,
			content: "part_number,quantity,unit,need_date,source,source_ref\nX,0,,2025-03-11,sales_order,SO\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadDemands(p); return err },
			wantErr: "quantity must be positive",
		},
		{
			name:    "unknown supply source",
			file:    SupplyFile,
			content: "part_number,quantity,unit,expected_date,source,source_ref\nX,5,,2025-03-11,gift,G\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadSupply(p); return err },
			wantErr: "unknown supply source",
		},
		{
			name:    "wrong column count",
			file:    InventoryFile,
			content: "part_number,quantity\nX,5,extra\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadInventory(p); return err },
			wantErr: "failed to read inventory CSV",
		},
		{
			name:    "missing file",
			file:    "",
			load:    func(l *Loader, p string) error { _, err := l.LoadInventory(filepath.Join(p, "nope.csv")); return err },
			wantErr: "failed to open inventory file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := dir
			if tt.file != "" {
				writeFile(t, dir, tt.file, tt.content)
				path = filepath.Join(dir, tt.file)
			}

			err := tt.load(NewLoader(), path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoader_MissingScenarioFile(t *testing.T) {
	dir := writeScenario(t, false)
	require.NoError(t, os.Remove(filepath.Join(dir, SupplyFile)))

	_, err := NewLoader().LoadScenario(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "supply")
}

func TestLoader_DuplicatePartNumberRejected(t *testing.T) {
	dir := writeScenario(t, false)
	writeFile(t, dir, ItemsFile, `part_number,description,procurement_type,lead_time_days,lot_size_rule,min_order_qty,fixed_order_qty,safety_stock,stocking_policy,unit_of_measure
X,Assembly,make,2,lot_for_lot,,,,,EA
Y,Bracket,buy,3,lot_for_lot,100,,5,stocked,EA
W,Wire,buy,1,fixed,,500,,on_demand,FT
Y,Bracket rev B,buy,9,lot_for_lot,,,,,EA
`)

	scenario, err := NewLoader().LoadScenario(dir)

	require.Error(t, err)
	assert.Nil(t, scenario)
	assert.Contains(t, err.Error(), "duplicate part numbers found")
	assert.Contains(t, err.Error(), "Y")
}
