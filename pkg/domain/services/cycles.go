package services

import (
	"sort"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// Adjacency maps a parent item to its distinct component items
type Adjacency map[entities.PartNumber][]entities.PartNumber

// BuildAdjacency collapses BOM edges into a parent -> children map.
// Children keep first-seen order and repeated components are listed once.
func BuildAdjacency(edges []*entities.BOMEdge) Adjacency {
	adj := make(Adjacency)
	seen := make(map[[2]entities.PartNumber]bool)
	for _, edge := range edges {
		key := [2]entities.PartNumber{edge.ParentPN, edge.ChildPN}
		if seen[key] {
			continue
		}
		seen[key] = true
		adj[edge.ParentPN] = append(adj[edge.ParentPN], edge.ChildPN)
	}
	return adj
}

// FindCycleFrom walks everything reachable from root and returns the first
// cycle found as a closed path (first and last element equal), or nil.
// The walk is iterative so graph depth is bounded only by memory.
func FindCycleFrom(adj Adjacency, root entities.PartNumber) []entities.PartNumber {
	cycles := walkCycles(adj, []entities.PartNumber{root}, make(map[entities.PartNumber]bool), true)
	if len(cycles) == 0 {
		return nil
	}
	return cycles[0]
}

// FindAllCycles returns one closed path per back edge found in the graph
func FindAllCycles(adj Adjacency) [][]entities.PartNumber {
	starts := make([]entities.PartNumber, 0, len(adj))
	for parent := range adj {
		starts = append(starts, parent)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	return walkCycles(adj, starts, make(map[entities.PartNumber]bool), false)
}

type dfsFrame struct {
	node entities.PartNumber
	next int
}

func walkCycles(
	adj Adjacency,
	starts []entities.PartNumber,
	done map[entities.PartNumber]bool,
	firstOnly bool,
) [][]entities.PartNumber {
	var cycles [][]entities.PartNumber

	for _, start := range starts {
		if done[start] {
			continue
		}

		path := []entities.PartNumber{start}
		onPath := map[entities.PartNumber]int{start: 0}
		stack := []dfsFrame{{node: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := adj[top.node]

			if top.next >= len(children) {
				done[top.node] = true
				delete(onPath, top.node)
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
				continue
			}

			child := children[top.next]
			top.next++

			if idx, ok := onPath[child]; ok {
				cycle := make([]entities.PartNumber, 0, len(path)-idx+1)
				cycle = append(cycle, path[idx:]...)
				cycle = append(cycle, child)
				cycles = append(cycles, cycle)
				if firstOnly {
					return cycles
				}
				continue
			}
			if done[child] {
				continue
			}

			onPath[child] = len(path)
			path = append(path, child)
			stack = append(stack, dfsFrame{node: child})
		}
	}

	return cycles
}
