package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vsinha/mrpengine/pkg/application/services/mrp"
	"github.com/vsinha/mrpengine/pkg/application/services/orchestration"
	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/mrpengine/pkg/infrastructure/sqlstore"
	testhelpers "github.com/vsinha/mrpengine/pkg/infrastructure/testing"
)

func TestOrchestratorOverSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	d := testhelpers.BuildEndToEndScenario()
	orchestrator, err := orchestration.NewPlanningOrchestrator(
		mrp.Sources{Items: d.Items, BOMs: d.BOMs, Inventory: d.Inventory, Supply: d.Supply, Demand: d.Demand, Units: d.Units},
		store,
		memory.NewRunLock(),
		orchestration.Options{Logger: zaptest.NewLogger(t)},
	)
	require.NoError(t, err)

	first, err := orchestrator.Execute(ctx, "PLANT", testhelpers.AsOf)
	require.NoError(t, err)
	require.Equal(t, entities.RunCompleted, first.Status)

	xOrders, err := orchestrator.ListPlannedOrders(ctx, first.RunID, "X")
	require.NoError(t, err)
	require.Len(t, xOrders, 1)
	_, err = orchestrator.FirmPlannedOrder(ctx, xOrders[0].ID)
	require.NoError(t, err)

	second, err := orchestrator.Execute(ctx, "PLANT", testhelpers.AsOf)
	require.NoError(t, err)
	require.Equal(t, entities.RunCompleted, second.Status)

	result, err := orchestrator.Result(ctx, second.RunID)
	require.NoError(t, err)
	require.Len(t, result.PlannedOrders, 1)
	assert.Equal(t, entities.PartNumber("Y"), result.PlannedOrders[0].PartNumber)
	assert.True(t, result.PlannedOrders[0].Quantity.Equal(entities.Qty(100)))
	assert.True(t, testhelpers.Day(5).Equal(result.PlannedOrders[0].ReleaseDate))
}
