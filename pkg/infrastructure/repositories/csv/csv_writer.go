package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// UnitConversion is one row of units.csv: qty(To) = qty(From) × Factor
type UnitConversion struct {
	From   string
	To     string
	Factor entities.Quantity
}

// ScenarioData is the content of a scenario directory
type ScenarioData struct {
	Items     []*entities.Item
	BOM       []*entities.BOMEdge
	Inventory []*entities.OnHand
	Supply    []*entities.SupplyLine
	Demands   []*entities.DemandLine
	Units     []UnitConversion // units.csv is skipped when empty
}

// Writer writes scenario directories readable by Loader
type Writer struct{}

// NewWriter creates a new CSV writer
func NewWriter() *Writer {
	return &Writer{}
}

// WriteScenario writes every scenario file into dir, creating it if needed
func (w *Writer) WriteScenario(dir string, data *ScenarioData) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{ItemsFile, itemRows(data.Items)},
		{BOMFile, bomRows(data.BOM)},
		{InventoryFile, inventoryRows(data.Inventory)},
		{SupplyFile, supplyRows(data.Supply)},
		{DemandsFile, demandRows(data.Demands)},
	}
	if len(data.Units) > 0 {
		files = append(files, struct {
			name string
			rows [][]string
		}{UnitsFile, unitRows(data.Units)})
	}

	for _, f := range files {
		if err := writeRows(filepath.Join(dir, f.name), f.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}
	return nil
}

func writeRows(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := csv.NewWriter(file).WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func itemRows(items []*entities.Item) [][]string {
	rows := [][]string{ItemsHeader}
	for _, item := range items {
		rows = append(rows, []string{
			string(item.PartNumber),
			item.Description,
			string(item.ProcurementType),
			strconv.Itoa(item.LeadTimeDays),
			string(item.LotSizeRule),
			item.MinOrderQty.String(),
			item.FixedOrderQty.String(),
			item.SafetyStock.String(),
			string(item.StockingPolicy),
			item.UnitOfMeasure,
		})
	}
	return rows
}

func bomRows(lines []*entities.BOMEdge) [][]string {
	rows := [][]string{BOMHeader}
	for _, line := range lines {
		rows = append(rows, []string{
			string(line.ParentPN),
			string(line.ChildPN),
			line.QtyPer.String(),
			line.ScrapFactor.String(),
			line.ChildUnit,
		})
	}
	return rows
}

func inventoryRows(positions []*entities.OnHand) [][]string {
	rows := [][]string{InventoryHeader}
	for _, pos := range positions {
		rows = append(rows, []string{string(pos.PartNumber), pos.Quantity.String()})
	}
	return rows
}

func supplyRows(lines []*entities.SupplyLine) [][]string {
	rows := [][]string{SupplyHeader}
	for _, line := range lines {
		rows = append(rows, []string{
			string(line.PartNumber),
			line.Quantity.String(),
			line.Unit,
			line.ExpectedDate.Format(dateLayout),
			string(line.Source),
			line.SourceRef,
		})
	}
	return rows
}

func demandRows(lines []*entities.DemandLine) [][]string {
	rows := [][]string{DemandsHeader}
	for _, line := range lines {
		rows = append(rows, []string{
			string(line.PartNumber),
			line.Quantity.String(),
			line.Unit,
			line.NeedDate.Format(dateLayout),
			string(line.Source),
			line.SourceRef,
		})
	}
	return rows
}

func unitRows(units []UnitConversion) [][]string {
	rows := [][]string{UnitsHeader}
	for _, u := range units {
		rows = append(rows, []string{u.From, u.To, u.Factor.String()})
	}
	return rows
}
