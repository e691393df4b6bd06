package mrp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
	"github.com/vsinha/mrpengine/pkg/domain/services"
)

// GraphNode is one item of the planning graph
type GraphNode struct {
	PartNumber   entities.PartNumber
	Item         *entities.Item
	OrderKind    entities.OrderKind
	LowLevelCode int
	Components   []*entities.BOMEdge
	Parents      []entities.PartNumber
}

// BOMGraph is an acyclic snapshot of every item reachable from the clean roots.
// It is read-only once loaded.
type BOMGraph struct {
	Nodes    map[entities.PartNumber]*GraphNode
	Tiers    [][]entities.PartNumber // Tiers[code] lists items with that low-level code, sorted
	Roots    []entities.PartNumber   // roots kept for planning
	Warnings []entities.RunWarning
}

// Node returns the node for pn
func (g *BOMGraph) Node(pn entities.PartNumber) (*GraphNode, bool) {
	node, ok := g.Nodes[pn]
	return node, ok
}

// LowLevelCode returns the code of pn, or -1 when pn is not planned
func (g *BOMGraph) LowLevelCode(pn entities.PartNumber) int {
	if node, ok := g.Nodes[pn]; ok {
		return node.LowLevelCode
	}
	return -1
}

// GraphLoader materializes the BOM graph from the item and BOM collaborators
type GraphLoader struct {
	items     repositories.ItemRepository
	boms      repositories.BOMRepository
	makeOrBuy entities.OrderKind
	logger    *zap.Logger
}

// NewGraphLoader creates a loader. makeOrBuy is the order kind given to make_or_buy items.
func NewGraphLoader(
	items repositories.ItemRepository,
	boms repositories.BOMRepository,
	makeOrBuy entities.OrderKind,
	logger *zap.Logger,
) *GraphLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphLoader{items: items, boms: boms, makeOrBuy: makeOrBuy, logger: logger}
}

// Load walks breadth-first from roots, drops roots that reach a cycle, and assigns
// low-level codes over what remains. A missing item master that is a component of
// a planned item is returned as *entities.MissingItemMasterError.
func (l *GraphLoader) Load(ctx context.Context, roots []entities.PartNumber) (*BOMGraph, error) {
	roots = uniqueSorted(roots)
	graph := &BOMGraph{Nodes: make(map[entities.PartNumber]*GraphNode)}

	items := make(map[entities.PartNumber]*entities.Item)
	edges := make(map[entities.PartNumber][]*entities.BOMEdge)
	missing := make(map[entities.PartNumber]bool)

	queue := append([]entities.PartNumber(nil), roots...)
	seen := make(map[entities.PartNumber]bool, len(roots))
	for _, root := range roots {
		seen[root] = true
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pn := queue[0]
		queue = queue[1:]

		item, err := l.items.LoadItemMaster(ctx, pn)
		if errors.Is(err, entities.ErrNotFound) {
			missing[pn] = true
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load item master %s: %w", pn, err)
		}
		items[pn] = item

		lines, err := l.boms.LoadActiveBOM(ctx, pn)
		if err != nil {
			return nil, fmt.Errorf("failed to load active BOM for %s: %w", pn, err)
		}
		for _, edge := range lines {
			if edge.ParentPN != edge.ChildPN {
				if err := edge.Validate(); err != nil && !isScrapError(err) {
					graph.Warnings = append(graph.Warnings, entities.RunWarning{
						Kind:    entities.WarningInvalidBOMLine,
						Item:    pn,
						Message: err.Error(),
					})
					continue
				}
			}
			edges[pn] = append(edges[pn], edge)
			if !seen[edge.ChildPN] {
				seen[edge.ChildPN] = true
				queue = append(queue, edge.ChildPN)
			}
		}
	}

	adjacency := make(services.Adjacency, len(edges))
	for pn, lines := range edges {
		adjacency[pn] = services.BuildAdjacency(lines)[pn]
	}

	var clean []entities.PartNumber
	for _, root := range roots {
		if cycle := services.FindCycleFrom(adjacency, root); cycle != nil {
			cycleErr := &entities.CircularBOMError{Root: root, Path: cycle}
			l.logger.Warn("root excluded from planning", zap.String("root", string(root)), zap.Error(cycleErr))
			graph.Warnings = append(graph.Warnings, entities.RunWarning{
				Kind:    entities.WarningCircularBOM,
				Item:    root,
				Message: cycleErr.Error(),
			})
			continue
		}
		clean = append(clean, root)
	}

	planned := reachable(adjacency, clean)

	parents := make(map[entities.PartNumber][]entities.PartNumber)
	for pn := range planned {
		for _, child := range adjacency[pn] {
			parents[child] = append(parents[child], pn)
		}
	}

	for pn := range planned {
		if !missing[pn] {
			continue
		}
		if len(parents[pn]) > 0 {
			return nil, &entities.MissingItemMasterError{Item: pn, Parents: uniqueSorted(parents[pn])}
		}
		missingErr := &entities.MissingItemMasterError{Item: pn}
		graph.Warnings = append(graph.Warnings, entities.RunWarning{
			Kind:    entities.WarningMissingItem,
			Item:    pn,
			Message: missingErr.Error(),
		})
		delete(planned, pn)
	}

	for pn := range planned {
		item := items[pn]
		graph.Nodes[pn] = &GraphNode{
			PartNumber: pn,
			Item:       item,
			OrderKind:  item.ResolveOrderKind(l.makeOrBuy),
			Components: edges[pn],
			Parents:    uniqueSorted(parents[pn]),
		}
	}
	for _, root := range clean {
		if _, ok := graph.Nodes[root]; ok {
			graph.Roots = append(graph.Roots, root)
		}
	}

	graph.Tiers = assignLowLevelCodes(graph.Nodes, adjacency)

	l.logger.Debug("BOM graph loaded",
		zap.Int("roots", len(graph.Roots)),
		zap.Int("items", len(graph.Nodes)),
		zap.Int("tiers", len(graph.Tiers)),
	)
	return graph, nil
}

// assignLowLevelCodes runs Kahn's algorithm from the parentless items:
// every component gets 1 + the highest code among its parents.
func assignLowLevelCodes(nodes map[entities.PartNumber]*GraphNode, adjacency services.Adjacency) [][]entities.PartNumber {
	inDegree := make(map[entities.PartNumber]int, len(nodes))
	queue := make([]entities.PartNumber, 0)
	for pn, node := range nodes {
		inDegree[pn] = len(node.Parents)
		if inDegree[pn] == 0 {
			queue = append(queue, pn)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })

	maxCode := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		code := nodes[current].LowLevelCode
		if code > maxCode {
			maxCode = code
		}

		for _, child := range adjacency[current] {
			childNode, ok := nodes[child]
			if !ok {
				continue
			}
			if code+1 > childNode.LowLevelCode {
				childNode.LowLevelCode = code + 1
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(nodes) == 0 {
		return nil
	}
	tiers := make([][]entities.PartNumber, maxCode+1)
	for pn, node := range nodes {
		tiers[node.LowLevelCode] = append(tiers[node.LowLevelCode], pn)
	}
	for _, tier := range tiers {
		sort.Slice(tier, func(i, j int) bool { return tier[i] < tier[j] })
	}
	return tiers
}

func reachable(adjacency services.Adjacency, roots []entities.PartNumber) map[entities.PartNumber]bool {
	visited := make(map[entities.PartNumber]bool)
	queue := append([]entities.PartNumber(nil), roots...)
	for _, root := range roots {
		visited[root] = true
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range adjacency[current] {
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}
	return visited
}

func uniqueSorted(pns []entities.PartNumber) []entities.PartNumber {
	if len(pns) == 0 {
		return nil
	}
	seen := make(map[entities.PartNumber]bool, len(pns))
	out := make([]entities.PartNumber, 0, len(pns))
	for _, pn := range pns {
		if !seen[pn] {
			seen[pn] = true
			out = append(out, pn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func isScrapError(err error) bool {
	var scrapErr *entities.InvalidScrapFactorError
	return errors.As(err, &scrapErr)
}
