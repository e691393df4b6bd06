package mrp

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

// Explosion is the component demand implied by a parent quantity.
// Issues holds one typed error per skipped BOM line
// (*entities.UOMConversionError or *entities.InvalidScrapFactorError).
type Explosion struct {
	Components map[entities.PartNumber]entities.Quantity
	Issues     []error
}

// PartNumbers returns the exploded components in sorted order
func (e *Explosion) PartNumbers() []entities.PartNumber {
	pns := make([]entities.PartNumber, 0, len(e.Components))
	for pn := range e.Components {
		pns = append(pns, pn)
	}
	sort.Slice(pns, func(i, j int) bool { return pns[i] < pns[j] })
	return pns
}

// Exploder expands parent quantities through a graph snapshot.
// It never mutates the graph and is safe for concurrent use.
type Exploder struct {
	graph *BOMGraph
	units repositories.UnitConverter
}

// NewExploder creates an Exploder over graph
func NewExploder(graph *BOMGraph, units repositories.UnitConverter) *Exploder {
	return &Exploder{graph: graph, units: units}
}

// ExplodeLevel returns the direct component requirements of qty units of pn,
// in each component's canonical unit.
func (e *Exploder) ExplodeLevel(pn entities.PartNumber, qty entities.Quantity) (*Explosion, error) {
	node, ok := e.graph.Node(pn)
	if !ok {
		return nil, fmt.Errorf("item %s is not in the planning graph", pn)
	}

	result := &Explosion{Components: make(map[entities.PartNumber]entities.Quantity, len(node.Components))}
	for _, edge := range node.Components {
		componentQty, err := edge.Extend(qty)
		if err != nil {
			result.Issues = append(result.Issues, err)
			continue
		}

		child, ok := e.graph.Node(edge.ChildPN)
		if !ok {
			return nil, fmt.Errorf("component %s of %s is not in the planning graph", edge.ChildPN, pn)
		}

		componentQty, err = convertToCanonical(e.units, child.Item, componentQty, edge.ChildUnit, fmt.Sprintf("BOM line %s -> %s", pn, edge.ChildPN))
		if err != nil {
			result.Issues = append(result.Issues, err)
			continue
		}

		result.Components[edge.ChildPN] = result.Components[edge.ChildPN].Add(componentQty)
	}

	return result, nil
}

// ExplodeAll accumulates requirements through every level below pn. Items are
// expanded in ascending low-level code so each one is expanded once with its
// full quantity.
func (e *Exploder) ExplodeAll(pn entities.PartNumber, qty entities.Quantity) (*Explosion, error) {
	node, ok := e.graph.Node(pn)
	if !ok {
		return nil, fmt.Errorf("item %s is not in the planning graph", pn)
	}

	pending := map[entities.PartNumber]entities.Quantity{pn: qty}
	result := &Explosion{Components: make(map[entities.PartNumber]entities.Quantity)}

	for code := node.LowLevelCode; code < len(e.graph.Tiers); code++ {
		for _, current := range e.graph.Tiers[code] {
			parentQty, ok := pending[current]
			if !ok || !parentQty.IsPositive() {
				continue
			}

			level, err := e.ExplodeLevel(current, parentQty)
			if err != nil {
				return nil, err
			}
			result.Issues = append(result.Issues, level.Issues...)

			for _, child := range level.PartNumbers() {
				childQty := level.Components[child]
				pending[child] = pending[child].Add(childQty)
				result.Components[child] = result.Components[child].Add(childQty)
			}
		}
	}

	return result, nil
}

// convertToCanonical converts qty from unit into the item's canonical unit.
// An empty unit is taken as already canonical.
func convertToCanonical(
	units repositories.UnitConverter,
	item *entities.Item,
	qty entities.Quantity,
	unit, context string,
) (entities.Quantity, error) {
	if unit == "" || unit == item.UnitOfMeasure {
		return qty, nil
	}
	conversionErr := &entities.UOMConversionError{Item: item.PartNumber, From: unit, To: item.UnitOfMeasure, Context: context}
	if units == nil {
		return decimal.Zero, conversionErr
	}
	converted, ok := units.ConvertQuantity(qty, unit, item.UnitOfMeasure)
	if !ok {
		return decimal.Zero, conversionErr
	}
	return converted, nil
}
