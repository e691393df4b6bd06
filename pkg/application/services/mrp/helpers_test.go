package mrp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	testhelpers "github.com/vsinha/mrpengine/pkg/infrastructure/testing"
)

func sourcesOf(d *testhelpers.Dataset) Sources {
	return Sources{
		Items:     d.Items,
		BOMs:      d.BOMs,
		Inventory: d.Inventory,
		Supply:    d.Supply,
		Demand:    d.Demand,
		Units:     d.Units,
	}
}

func loadGraph(t *testing.T, d *testhelpers.Dataset, roots ...entities.PartNumber) *BOMGraph {
	t.Helper()
	graph, err := NewGraphLoader(d.Items, d.BOMs, entities.PlannedProduction, zaptest.NewLogger(t)).Load(context.Background(), roots)
	require.NoError(t, err)
	return graph
}

type planOutcome struct {
	graph *BOMGraph
	plans map[entities.PartNumber]*ItemPlan
	tiers [][]entities.PartNumber // in the order the sink saw them
}

func planAll(t *testing.T, d *testhelpers.Dataset, settings Settings, committed ...*entities.PlannedOrder) *planOutcome {
	t.Helper()
	ctx := context.Background()
	src := sourcesOf(d)

	roots, err := PlanningRoots(ctx, "PLANT", src, settings.EnforceSafetyStock)
	require.NoError(t, err)
	graph, err := NewGraphLoader(src.Items, src.BOMs, settings.MakeOrBuy, zaptest.NewLogger(t)).Load(ctx, roots)
	require.NoError(t, err)
	snapshot, err := LoadSnapshot(ctx, "PLANT", graph, src, committed, settings.Workers)
	require.NoError(t, err)

	out := &planOutcome{graph: graph, plans: make(map[entities.PartNumber]*ItemPlan)}
	planner := NewPlanner("run-1", "PLANT", testhelpers.AsOf, graph, snapshot, src, settings, zaptest.NewLogger(t))
	err = planner.Run(ctx, func(_ context.Context, _ int, plans []*ItemPlan) error {
		tier := make([]entities.PartNumber, 0, len(plans))
		for _, plan := range plans {
			out.plans[plan.PartNumber] = plan
			tier = append(tier, plan.PartNumber)
		}
		out.tiers = append(out.tiers, tier)
		return nil
	})
	require.NoError(t, err)
	return out
}
