package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

func TestRecorder_RunLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.RunStarted()
	r.RunStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(r.activeRuns))

	r.RunFinished(entities.RunCompleted, 2*time.Second)
	r.RunFinished(entities.RunFailed, time.Second)

	assert.Equal(t, 0.0, testutil.ToFloat64(r.activeRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal(entities.RunCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal(entities.RunFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.runDuration))
}

func TestRecorder_ItemsAndWarnings(t *testing.T) {
	r, err := NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)

	r.ItemPlanned(2, []*entities.PlannedOrder{
		{Kind: entities.PlannedPurchase},
		{Kind: entities.PlannedPurchase},
		{Kind: entities.PlannedProduction},
	})
	r.Warning(entities.WarningCircularBOM)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.netRequirements))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.plannedOrders.WithLabelValues("planned_purchase")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.plannedOrders.WithLabelValues("planned_production")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.warningsTotal.WithLabelValues("circular_bom")))
}

func TestRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)

	_, err = NewRecorder(reg)
	assert.Error(t, err)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RunStarted()
		r.RunFinished(entities.RunCompleted, time.Second)
		r.ItemPlanned(1, nil)
		r.Warning(entities.WarningMissingItem)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)
	r.RunStarted()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "mrp_active_runs 1")
}
