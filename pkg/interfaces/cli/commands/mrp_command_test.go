package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/services"
	"github.com/vsinha/mrpengine/pkg/infrastructure/config"
	"github.com/vsinha/mrpengine/pkg/infrastructure/logger"
	"github.com/vsinha/mrpengine/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/mrpengine/pkg/infrastructure/sqlstore"
)

func appConfig() *config.Config {
	return &config.Config{
		Planning: config.PlanningConfig{
			Scope:              "PLANT-1",
			BucketDays:         1,
			Workers:            2,
			RunTimeout:         time.Minute,
			MakeOrBuy:          "make",
			EnforceSafetyStock: true,
			Calendar:           "calendar",
		},
		Store: config.StoreConfig{Driver: "memory"},
		Lock:  config.LockConfig{Backend: "memory", KeyPrefix: "mrp:run-lock:"},
		Log:   logger.DefaultConfig(),
	}
}

// writeScenario writes the X/Y scenario: 50 X due 2025-03-11, 2 Y per X, 20 Y on hand, Y MOQ 100
func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"items.csv": `part_number,description,procurement_type,lead_time_days,lot_size_rule,min_order_qty,fixed_order_qty,safety_stock,stocking_policy,unit_of_measure
X,Assembly,make,2,lot_for_lot,,,,,EA
Y,Bracket,buy,3,lot_for_lot,100,,,,EA
`,
		"bom.csv": `parent_pn,child_pn,qty_per,scrap_factor,child_unit
X,Y,2,,
`,
		"inventory.csv": `part_number,quantity
Y,20
`,
		"supply.csv": `part_number,quantity,unit,expected_date,source,source_ref
`,
		"demands.csv": `part_number,quantity,unit,need_date,source,source_ref
X,50,,2025-03-11,sales_order,SO-1
`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

type jsonResult struct {
	Run struct {
		RunID  string `json:"run_id"`
		Status string `json:"status"`
		Counts struct {
			PlannedOrders int `json:"planned_orders"`
		} `json:"counts"`
	} `json:"run"`
	PlannedOrders []struct {
		ID          string    `json:"id"`
		PartNumber  string    `json:"part_number"`
		Quantity    string    `json:"quantity"`
		ReleaseDate time.Time `json:"release_date"`
		Status      string    `json:"status"`
	} `json:"planned_orders"`
}

func runJSON(t *testing.T, cfg Config, app *config.Config) jsonResult {
	t.Helper()
	var buf bytes.Buffer
	cfg.Format = "json"

	require.NoError(t, NewMRPCommand(cfg, app, nil).WithOutput(&buf).Execute(context.Background()))

	var result jsonResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	return result
}

func TestMRPCommand_JSON(t *testing.T) {
	result := runJSON(t, Config{ScenarioDir: writeScenario(t), AsOf: "2025-03-01"}, appConfig())

	assert.Equal(t, "completed", result.Run.Status)
	assert.Equal(t, 2, result.Run.Counts.PlannedOrders)
	require.Len(t, result.PlannedOrders, 2)

	byPart := map[string]string{}
	for _, order := range result.PlannedOrders {
		byPart[order.PartNumber] = order.Quantity
	}
	assert.Equal(t, "50", byPart["X"])
	assert.Equal(t, "100", byPart["Y"])
}

func TestMRPCommand_TextVerbose(t *testing.T) {
	var buf bytes.Buffer
	cmd := NewMRPCommand(Config{
		ScenarioDir: writeScenario(t),
		AsOf:        "2025-03-01",
		Format:      "text",
		Verbose:     true,
	}, appConfig(), nil).WithOutput(&buf)

	require.NoError(t, cmd.Execute(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "Scope: PLANT-1")
	assert.Contains(t, out, "BOM validation passed")
	assert.Contains(t, out, "Status: completed")
	assert.Contains(t, out, "Planned Orders:")
}

func TestMRPCommand_FirmAcrossRunsWithSQLite(t *testing.T) {
	app := appConfig()
	app.Store = config.StoreConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "mrp.db")}
	dir := writeScenario(t)

	first := runJSON(t, Config{ScenarioDir: dir, AsOf: "2025-03-01"}, app)
	var firmID string
	for _, order := range first.PlannedOrders {
		if order.PartNumber == "X" {
			firmID = order.ID
		}
	}
	require.NotEmpty(t, firmID)

	second := runJSON(t, Config{ScenarioDir: dir, AsOf: "2025-03-01", Firm: []string{firmID}}, app)
	assert.Equal(t, "completed", second.Run.Status)

	store, err := sqlstore.Open(context.Background(), "sqlite", app.Store.DSN)
	require.NoError(t, err)
	defer store.Close()

	firmed, err := store.GetPlannedOrder(context.Background(), firmID)
	require.NoError(t, err)
	assert.Equal(t, entities.OrderFirmed, firmed.Status)

	// the firmed X order covers the demand, so only Y is replanned
	require.Len(t, second.PlannedOrders, 1)
	assert.Equal(t, "Y", second.PlannedOrders[0].PartNumber)
	assert.Equal(t, "100", second.PlannedOrders[0].Quantity)
}

func TestMRPCommand_InvalidInputs(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "no scenario", cfg: Config{Format: "text"}, wantErr: "-scenario"},
		{name: "bad format", cfg: Config{ScenarioDir: ".", Format: "xml"}, wantErr: "unsupported output format"},
		{name: "csv without directory", cfg: Config{ScenarioDir: ".", Format: "csv"}, wantErr: "output directory required"},
		{name: "bad as-of", cfg: Config{ScenarioDir: ".", Format: "text", AsOf: "03/01/2025"}, wantErr: "invalid as-of date"},
		{name: "missing scenario files", cfg: Config{ScenarioDir: "does-not-exist", Format: "text"}, wantErr: "error loading scenario"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewMRPCommand(tt.cfg, appConfig(), nil).WithOutput(&bytes.Buffer{}).Execute(context.Background())
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMRPCommand_Help(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewMRPCommand(Config{Help: true}, nil, nil).WithOutput(&buf).Execute(context.Background()))

	assert.Contains(t, buf.String(), "USAGE:")
}

func TestPlanningSettings(t *testing.T) {
	cfg := appConfig().Planning
	cfg.MakeOrBuy = "buy"
	cfg.Calendar = "business"
	cfg.Holidays = []string{"2025-03-03"}

	settings, err := PlanningSettings(cfg)

	require.NoError(t, err)
	assert.Equal(t, entities.PlannedPurchase, settings.MakeOrBuy)
	assert.Equal(t, 2, settings.Workers)
	assert.IsType(t, services.BusinessDays{}, settings.Calendar)

	cfg.Calendar = "lunar"
	_, err = PlanningSettings(cfg)
	assert.Error(t, err)
}

func TestOpenPlanningStoreAndLock(t *testing.T) {
	ctx := context.Background()

	store, closer, err := OpenPlanningStore(ctx, config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.PlanningStore{}, store)
	assert.NoError(t, closer.Close())

	_, _, err = OpenPlanningStore(ctx, config.StoreConfig{Driver: "oracle"})
	assert.Error(t, err)

	runLock, closer, err := OpenRunLock(ctx, config.LockConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.RunLock{}, runLock)
	assert.NoError(t, closer.Close())

	_, _, err = OpenRunLock(ctx, config.LockConfig{Backend: "etcd"})
	assert.Error(t, err)
}
