package mrp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

// Sources groups the read-side collaborators the planner consumes
type Sources struct {
	Items     repositories.ItemRepository
	BOMs      repositories.BOMRepository
	Inventory repositories.InventoryRepository
	Supply    repositories.SupplyRepository
	Demand    repositories.DemandRepository
	Units     repositories.UnitConverter
}

// Validate reports the first missing collaborator
func (s Sources) Validate() error {
	switch {
	case s.Items == nil:
		return fmt.Errorf("item repository is required")
	case s.BOMs == nil:
		return fmt.Errorf("BOM repository is required")
	case s.Inventory == nil:
		return fmt.Errorf("inventory repository is required")
	case s.Supply == nil:
		return fmt.Errorf("supply repository is required")
	case s.Demand == nil:
		return fmt.Errorf("demand repository is required")
	}
	return nil
}

// PlanningRoots returns the items planning starts from: every item with independent
// demand plus every stocked item that keeps safety stock.
func PlanningRoots(ctx context.Context, scope string, src Sources, enforceSafetyStock bool) ([]entities.PartNumber, error) {
	demanded, err := src.Demand.ListDemandedItems(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list demanded items: %w", err)
	}
	roots := append([]entities.PartNumber(nil), demanded...)

	if enforceSafetyStock {
		items, err := src.Items.ListItems(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to list items: %w", err)
		}
		for _, item := range items {
			if item.KeepsSafetyStock() {
				roots = append(roots, item.PartNumber)
			}
		}
	}

	return uniqueSorted(roots), nil
}

// Snapshot is the demand and supply picture of every planned item, captured
// once at the start of a run.
type Snapshot struct {
	OnHand    map[entities.PartNumber]entities.Quantity
	Demand    map[entities.PartNumber][]*entities.DemandLine
	Supply    map[entities.PartNumber][]*entities.SupplyLine
	Committed map[entities.PartNumber][]*entities.PlannedOrder
}

// LoadSnapshot reads on-hand, open supply and independent demand for every item in
// graph, using up to workers concurrent loads. committed are the firmed and released
// orders of the scope.
func LoadSnapshot(
	ctx context.Context,
	scope string,
	graph *BOMGraph,
	src Sources,
	committed []*entities.PlannedOrder,
	workers int,
) (*Snapshot, error) {
	snapshot := &Snapshot{
		OnHand:    make(map[entities.PartNumber]entities.Quantity, len(graph.Nodes)),
		Demand:    make(map[entities.PartNumber][]*entities.DemandLine),
		Supply:    make(map[entities.PartNumber][]*entities.SupplyLine),
		Committed: make(map[entities.PartNumber][]*entities.PlannedOrder),
	}

	for _, order := range committed {
		if _, planned := graph.Nodes[order.PartNumber]; planned && order.IsCommitted() {
			snapshot.Committed[order.PartNumber] = append(snapshot.Committed[order.PartNumber], order)
		}
	}
	for _, orders := range snapshot.Committed {
		sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	}

	pns := make([]entities.PartNumber, 0, len(graph.Nodes))
	for pn := range graph.Nodes {
		pns = append(pns, pn)
	}
	sort.Slice(pns, func(i, j int) bool { return pns[i] < pns[j] })

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, pn := range pns {
		pn := pn
		g.Go(func() error {
			onHand, err := src.Inventory.LoadOnHand(gctx, scope, pn)
			if err != nil {
				return fmt.Errorf("failed to load on-hand for %s: %w", pn, err)
			}
			supply, err := src.Supply.LoadOpenSupply(gctx, scope, pn)
			if err != nil {
				return fmt.Errorf("failed to load open supply for %s: %w", pn, err)
			}
			demand, err := src.Demand.LoadIndependentDemand(gctx, scope, pn)
			if err != nil {
				return fmt.Errorf("failed to load independent demand for %s: %w", pn, err)
			}

			mu.Lock()
			defer mu.Unlock()
			snapshot.OnHand[pn] = onHand
			if len(supply) > 0 {
				snapshot.Supply[pn] = supply
			}
			if len(demand) > 0 {
				snapshot.Demand[pn] = demand
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
