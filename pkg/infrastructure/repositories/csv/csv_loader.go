package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/services"
	"github.com/vsinha/mrpengine/pkg/infrastructure/repositories/memory"
)

const dateLayout = "2006-01-02"

// Scenario file names inside a scenario directory
const (
	ItemsFile     = "items.csv"
	BOMFile       = "bom.csv"
	InventoryFile = "inventory.csv"
	SupplyFile    = "supply.csv"
	DemandsFile   = "demands.csv"
	UnitsFile     = "units.csv"
)

// Column headers of each scenario file
var (
	ItemsHeader     = []string{"part_number", "description", "procurement_type", "lead_time_days", "lot_size_rule", "min_order_qty", "fixed_order_qty", "safety_stock", "stocking_policy", "unit_of_measure"}
	BOMHeader       = []string{"parent_pn", "child_pn", "qty_per", "scrap_factor", "child_unit"}
	InventoryHeader = []string{"part_number", "quantity"}
	SupplyHeader    = []string{"part_number", "quantity", "unit", "expected_date", "source", "source_ref"}
	DemandsHeader   = []string{"part_number", "quantity", "unit", "need_date", "source", "source_ref"}
	UnitsHeader     = []string{"from_unit", "to_unit", "factor"}
)

// Scenario holds the in-memory collaborators loaded from a scenario directory
type Scenario struct {
	Items     *memory.ItemRepository
	BOMs      *memory.BOMRepository
	Inventory *memory.InventoryRepository
	Supply    *memory.SupplyRepository
	Demand    *memory.DemandRepository
	Units     *memory.UnitConverter
}

// Loader handles loading MRP data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario loads every scenario file from dir. units.csv is optional.
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	items, err := l.LoadItems(filepath.Join(dir, ItemsFile))
	if err != nil {
		return nil, err
	}
	if result := services.NewBOMValidator().ValidatePartNumberUniqueness(items); !result.Valid() {
		return nil, fmt.Errorf("invalid %s: %s", ItemsFile, strings.Join(result.Errors, "; "))
	}
	bomLines, err := l.LoadBOM(filepath.Join(dir, BOMFile))
	if err != nil {
		return nil, err
	}
	positions, err := l.LoadInventory(filepath.Join(dir, InventoryFile))
	if err != nil {
		return nil, err
	}
	supply, err := l.LoadSupply(filepath.Join(dir, SupplyFile))
	if err != nil {
		return nil, err
	}
	demands, err := l.LoadDemands(filepath.Join(dir, DemandsFile))
	if err != nil {
		return nil, err
	}

	scenario := &Scenario{
		Items:     memory.NewItemRepository(len(items)),
		BOMs:      memory.NewBOMRepository(len(bomLines)),
		Inventory: memory.NewInventoryRepository(),
		Supply:    memory.NewSupplyRepository(),
		Demand:    memory.NewDemandRepository(),
		Units:     memory.NewUnitConverter(),
	}

	if err := l.LoadUnits(filepath.Join(dir, UnitsFile), scenario.Units); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err := scenario.Items.LoadItems(items); err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	if err := scenario.BOMs.LoadBOMLines(bomLines); err != nil {
		return nil, fmt.Errorf("failed to load BOM: %w", err)
	}
	if err := scenario.Inventory.LoadPositions(positions); err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	if err := scenario.Supply.LoadSupply(supply); err != nil {
		return nil, fmt.Errorf("failed to load supply: %w", err)
	}
	if err := scenario.Demand.LoadDemands(demands); err != nil {
		return nil, fmt.Errorf("failed to load demands: %w", err)
	}

	return scenario, nil
}

// LoadItems loads item masters from a CSV file. Lot sizing fields are kept as
// written so that invalid policies surface as planning warnings.
func (l *Loader) LoadItems(filename string) ([]*entities.Item, error) {
	records, err := readRecords(filename, "items", ItemsHeader)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("items CSV must have header and at least one data row")
	}

	items := make([]*entities.Item, 0, len(records))
	for i, record := range records {
		item, err := parseItem(record)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// LoadBOM loads active BOM lines from a CSV file
func (l *Loader) LoadBOM(filename string) ([]*entities.BOMEdge, error) {
	records, err := readRecords(filename, "BOM", BOMHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]*entities.BOMEdge, 0, len(records))
	for i, record := range records {
		qtyPer, err := parseQuantity("qty_per", record[2])
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		scrap := decimal.Zero
		if record[3] != "" {
			if scrap, err = parseQuantity("scrap_factor", record[3]); err != nil {
				return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
			}
		}
		// scrap outside [0, 1) is reported by the planner, not rejected here
		lines = append(lines, &entities.BOMEdge{
			ParentPN:    entities.PartNumber(record[0]),
			ChildPN:     entities.PartNumber(record[1]),
			QtyPer:      qtyPer,
			ScrapFactor: scrap,
			ChildUnit:   record[4],
		})
	}
	return lines, nil
}

// LoadInventory loads net on-hand positions from a CSV file
func (l *Loader) LoadInventory(filename string) ([]*entities.OnHand, error) {
	records, err := readRecords(filename, "inventory", InventoryHeader)
	if err != nil {
		return nil, err
	}

	positions := make([]*entities.OnHand, 0, len(records))
	for i, record := range records {
		qty, err := parseQuantity("quantity", record[1])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		positions = append(positions, &entities.OnHand{
			PartNumber: entities.PartNumber(record[0]),
			Quantity:   qty,
		})
	}
	return positions, nil
}

// LoadSupply loads scheduled receipts from a CSV file
func (l *Loader) LoadSupply(filename string) ([]*entities.SupplyLine, error) {
	records, err := readRecords(filename, "supply", SupplyHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]*entities.SupplyLine, 0, len(records))
	for i, record := range records {
		qty, err := parseQuantity("quantity", record[1])
		if err != nil {
			return nil, fmt.Errorf("supply CSV row %d: %w", i+2, err)
		}
		expected, err := parseDate("expected_date", record[3])
		if err != nil {
			return nil, fmt.Errorf("supply CSV row %d: %w", i+2, err)
		}
		line, err := entities.NewSupplyLine(
			entities.PartNumber(record[0]),
			qty,
			record[2],
			expected,
			entities.SupplySource(strings.ToLower(record[4])),
			record[5],
		)
		if err != nil {
			return nil, fmt.Errorf("supply CSV row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// LoadDemands loads independent demand from a CSV file
func (l *Loader) LoadDemands(filename string) ([]*entities.DemandLine, error) {
	records, err := readRecords(filename, "demands", DemandsHeader)
	if err != nil {
		return nil, err
	}

	demands := make([]*entities.DemandLine, 0, len(records))
	for i, record := range records {
		qty, err := parseQuantity("quantity", record[1])
		if err != nil {
			return nil, fmt.Errorf("demands CSV row %d: %w", i+2, err)
		}
		needDate, err := parseDate("need_date", record[3])
		if err != nil {
			return nil, fmt.Errorf("demands CSV row %d: %w", i+2, err)
		}
		demand, err := entities.NewDemandLine(
			entities.PartNumber(record[0]),
			qty,
			record[2],
			needDate,
			entities.DemandSource(strings.ToLower(record[4])),
			record[5],
		)
		if err != nil {
			return nil, fmt.Errorf("demands CSV row %d: %w", i+2, err)
		}
		demands = append(demands, demand)
	}
	return demands, nil
}

// LoadUnits registers unit conversions from a CSV file into converter
func (l *Loader) LoadUnits(filename string, converter *memory.UnitConverter) error {
	records, err := readRecords(filename, "units", UnitsHeader)
	if err != nil {
		return err
	}

	for i, record := range records {
		factor, err := parseQuantity("factor", record[2])
		if err != nil {
			return fmt.Errorf("units CSV row %d: %w", i+2, err)
		}
		if err := converter.AddConversion(record[0], record[1], factor); err != nil {
			return fmt.Errorf("units CSV row %d: %w", i+2, err)
		}
	}
	return nil
}

// Helper functions for parsing CSV records

// readRecords reads a CSV file, checks its header and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s CSV must have a header", kind)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, records[0])
	}

	rows := records[1:]
	for _, row := range rows {
		for j := range row {
			row[j] = strings.TrimSpace(row[j])
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseItem(record []string) (*entities.Item, error) {
	partNumber := entities.PartNumber(record[0])
	if partNumber == "" {
		return nil, fmt.Errorf("part_number cannot be empty")
	}

	procurement, err := entities.ParseProcurementType(strings.ToLower(record[2]))
	if err != nil {
		return nil, err
	}

	leadTimeDays, err := strconv.Atoi(record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid lead_time_days: %s", record[3])
	}

	minOrderQty, err := parseOptionalQuantity("min_order_qty", record[5])
	if err != nil {
		return nil, err
	}
	fixedOrderQty, err := parseOptionalQuantity("fixed_order_qty", record[6])
	if err != nil {
		return nil, err
	}
	safetyStock, err := parseOptionalQuantity("safety_stock", record[7])
	if err != nil {
		return nil, err
	}

	stocking := entities.OnDemand
	if record[8] != "" {
		if stocking, err = entities.ParseStockingPolicy(strings.ToLower(record[8])); err != nil {
			return nil, err
		}
	}

	uom := record[9]
	if uom == "" {
		return nil, fmt.Errorf("unit_of_measure cannot be empty")
	}

	return &entities.Item{
		PartNumber:      partNumber,
		Description:     record[1],
		ProcurementType: procurement,
		LeadTimeDays:    leadTimeDays,
		LotSizeRule:     entities.LotSizeRule(strings.ToLower(record[4])),
		MinOrderQty:     minOrderQty,
		FixedOrderQty:   fixedOrderQty,
		SafetyStock:     safetyStock,
		StockingPolicy:  stocking,
		UnitOfMeasure:   uom,
	}, nil
}

func parseQuantity(field, s string) (entities.Quantity, error) {
	qty, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", field, s)
	}
	return qty, nil
}

func parseOptionalQuantity(field, s string) (entities.Quantity, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return parseQuantity(field, s)
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: %s (expected YYYY-MM-DD)", field, s)
	}
	return t, nil
}
