package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/infrastructure/repositories/memory"
)

// AsOf is the planning date every scenario is built around
var AsOf = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// Day returns AsOf plus n calendar days
func Day(n int) time.Time {
	return AsOf.AddDate(0, 0, n)
}

// Dataset bundles the in-memory collaborators of one scenario
type Dataset struct {
	Items     *memory.ItemRepository
	BOMs      *memory.BOMRepository
	Inventory *memory.InventoryRepository
	Supply    *memory.SupplyRepository
	Demand    *memory.DemandRepository
	Units     *memory.UnitConverter
}

// NewDataset creates an empty dataset
func NewDataset() *Dataset {
	return &Dataset{
		Items:     memory.NewItemRepository(16),
		BOMs:      memory.NewBOMRepository(16),
		Inventory: memory.NewInventoryRepository(),
		Supply:    memory.NewSupplyRepository(),
		Demand:    memory.NewDemandRepository(),
		Units:     memory.NewUnitConverter(),
	}
}

// ItemOption customizes an item added with Dataset.Item
type ItemOption func(*entities.Item)

// WithMOQ sets the minimum order quantity
func WithMOQ(qty int64) ItemOption {
	return func(i *entities.Item) { i.MinOrderQty = entities.Qty(qty) }
}

// WithFixedQty switches the item to fixed order quantity lot sizing
func WithFixedQty(qty int64) ItemOption {
	return func(i *entities.Item) {
		i.LotSizeRule = entities.FixedOrderQty
		i.FixedOrderQty = entities.Qty(qty)
	}
}

// WithSafetyStock makes the item stocked with the given floor
func WithSafetyStock(qty int64) ItemOption {
	return func(i *entities.Item) {
		i.StockingPolicy = entities.Stocked
		i.SafetyStock = entities.Qty(qty)
	}
}

// WithUnit sets the canonical unit
func WithUnit(uom string) ItemOption {
	return func(i *entities.Item) { i.UnitOfMeasure = uom }
}

// Item adds a lot-for-lot, on-demand item counted in EA
func (d *Dataset) Item(pn entities.PartNumber, procurement entities.ProcurementType, leadTimeDays int, opts ...ItemOption) *Dataset {
	item := entities.Item{
		PartNumber:      pn,
		Description:     string(pn),
		ProcurementType: procurement,
		LeadTimeDays:    leadTimeDays,
		LotSizeRule:     entities.LotForLot,
		MinOrderQty:     decimal.Zero,
		FixedOrderQty:   decimal.Zero,
		SafetyStock:     decimal.Zero,
		StockingPolicy:  entities.OnDemand,
		UnitOfMeasure:   "EA",
	}
	for _, opt := range opts {
		opt(&item)
	}
	d.Items.AddItem(item)
	return d
}

// Edge adds a BOM line without scrap
func (d *Dataset) Edge(parent, child entities.PartNumber, qtyPer int64) *Dataset {
	d.BOMs.AddBOMLine(entities.BOMEdge{ParentPN: parent, ChildPN: child, QtyPer: entities.Qty(qtyPer), ScrapFactor: decimal.Zero})
	return d
}

// ScrapEdge adds a BOM line with a scrap factor such as "0.1"
func (d *Dataset) ScrapEdge(parent, child entities.PartNumber, qtyPer int64, scrap string) *Dataset {
	d.BOMs.AddBOMLine(entities.BOMEdge{
		ParentPN:    parent,
		ChildPN:     child,
		QtyPer:      entities.Qty(qtyPer),
		ScrapFactor: decimal.RequireFromString(scrap),
	})
	return d
}

// UnitEdge adds a BOM line whose quantity is expressed in unit
func (d *Dataset) UnitEdge(parent, child entities.PartNumber, qtyPer int64, unit string) *Dataset {
	d.BOMs.AddBOMLine(entities.BOMEdge{ParentPN: parent, ChildPN: child, QtyPer: entities.Qty(qtyPer), ScrapFactor: decimal.Zero, ChildUnit: unit})
	return d
}

// OnHand sets the on-hand quantity of pn
func (d *Dataset) OnHand(pn entities.PartNumber, qty int64) *Dataset {
	d.Inventory.SetOnHand(pn, entities.Qty(qty))
	return d
}

// SalesOrder adds independent demand due on day
func (d *Dataset) SalesOrder(pn entities.PartNumber, qty int64, day int, ref string) *Dataset {
	_ = d.Demand.LoadDemands([]*entities.DemandLine{{
		PartNumber: pn,
		Quantity:   entities.Qty(qty),
		NeedDate:   Day(day),
		Source:     entities.DemandSalesOrder,
		SourceRef:  ref,
	}})
	return d
}

// PurchaseOrder adds an open purchase order receipt on day
func (d *Dataset) PurchaseOrder(pn entities.PartNumber, qty int64, day int, ref string) *Dataset {
	_ = d.Supply.LoadSupply([]*entities.SupplyLine{{
		PartNumber:   pn,
		Quantity:     entities.Qty(qty),
		ExpectedDate: Day(day),
		Source:       entities.SupplyPurchaseOrder,
		SourceRef:    ref,
	}})
	return d
}

// BuildEndToEndScenario: X (make, 2 days) needs 50 on day 10 and uses 2 Y each.
// Y (buy, 3 days, MOQ 100) has 20 on hand.
func BuildEndToEndScenario() *Dataset {
	return NewDataset().
		Item("X", entities.ProcurementMake, 2).
		Item("Y", entities.ProcurementBuy, 3, WithMOQ(100)).
		Edge("X", "Y", 2).
		OnHand("Y", 20).
		SalesOrder("X", 50, 10, "SO-1")
}

// BuildDiamondScenario: ROOT uses B and C, both of which use D
func BuildDiamondScenario() *Dataset {
	return NewDataset().
		Item("ROOT", entities.ProcurementMake, 1).
		Item("B", entities.ProcurementMake, 1).
		Item("C", entities.ProcurementMake, 2).
		Item("D", entities.ProcurementBuy, 3).
		Edge("ROOT", "B", 1).
		Edge("ROOT", "C", 2).
		Edge("B", "D", 1).
		Edge("C", "D", 1).
		SalesOrder("ROOT", 10, 20, "SO-1")
}

// BuildCycleScenario: A contains B and B contains A, while CLEAN is unaffected
func BuildCycleScenario() *Dataset {
	return NewDataset().
		Item("A", entities.ProcurementMake, 1).
		Item("B", entities.ProcurementMake, 1).
		Item("CLEAN", entities.ProcurementBuy, 1).
		Edge("A", "B", 1).
		Edge("B", "A", 1).
		SalesOrder("A", 5, 10, "SO-A").
		SalesOrder("B", 5, 10, "SO-B").
		SalesOrder("CLEAN", 5, 10, "SO-C")
}

// BuildAerospaceScenario is a three-level launch vehicle structure with shared engines
func BuildAerospaceScenario() *Dataset {
	return NewDataset().
		Item("SATURN_V", entities.ProcurementMake, 180).
		Item("S_IC_STAGE", entities.ProcurementMake, 90).
		Item("S_II_STAGE", entities.ProcurementMake, 90).
		Item("F1_ENGINE", entities.ProcurementMake, 120, WithMOQ(10), WithSafetyStock(2)).
		Item("J2_ENGINE", entities.ProcurementMake, 90).
		Item("F1_TURBOPUMP", entities.ProcurementBuy, 60, WithFixedQty(4)).
		Item("INJECTOR_PLATE", entities.ProcurementBuy, 45).
		Edge("SATURN_V", "S_IC_STAGE", 1).
		Edge("SATURN_V", "S_II_STAGE", 1).
		Edge("S_IC_STAGE", "F1_ENGINE", 5).
		Edge("S_II_STAGE", "J2_ENGINE", 5).
		Edge("F1_ENGINE", "F1_TURBOPUMP", 1).
		ScrapEdge("F1_ENGINE", "INJECTOR_PLATE", 1, "0.05").
		Edge("J2_ENGINE", "INJECTOR_PLATE", 1).
		OnHand("F1_ENGINE", 3).
		PurchaseOrder("F1_TURBOPUMP", 4, 30, "PO-TP-1").
		SalesOrder("SATURN_V", 2, 400, "AS-507")
}
