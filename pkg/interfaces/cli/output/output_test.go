package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpengine/pkg/application/dto"
	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

func sampleResult() *dto.MRPResult {
	asOf := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	started := asOf.Add(time.Hour)
	finished := started.Add(2 * time.Second)

	return &dto.MRPResult{
		Run: &dto.RunStatusView{
			RunID:      "run-1",
			Scope:      "PLANT-1",
			AsOf:       asOf,
			Status:     entities.RunCompleted,
			StartedAt:  &started,
			FinishedAt: &finished,
			Counts:     entities.RunCounts{ItemsProcessed: 2, ShortagesFound: 1, PlannedOrders: 1, WarningsRecorded: 1},
			Warnings: []entities.RunWarning{
				{Kind: entities.WarningUOMConversion, Item: "Y", Message: "no conversion from BOX to EA"},
			},
		},
		NetRequirements: []*entities.NetRequirement{{
			ID:               "req-1",
			RunID:            "run-1",
			PartNumber:       "Y",
			LowLevelCode:     1,
			BucketIndex:      8,
			BucketStart:      asOf.AddDate(0, 0, 8),
			GrossRequirement: entities.Qty(100),
			ScheduledSupply:  entities.Qty(0),
			AvailableSupply:  entities.Qty(20),
			NetRequirement:   entities.Qty(80),
			ProjectedBalance: entities.Qty(20),
		}},
		PlannedOrders: []*entities.PlannedOrder{{
			ID:                "order-1",
			RunID:             "run-1",
			Scope:             "PLANT-1",
			PartNumber:        "Y",
			Quantity:          entities.Qty(100),
			ReleaseDate:       asOf.AddDate(0, 0, 5),
			DueDate:           asOf.AddDate(0, 0, 8),
			Status:            entities.OrderPlanned,
			Kind:              entities.PlannedPurchase,
			NetRequirementIDs: []string{"req-1"},
			Incomplete:        true,
		}},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer

	err := Generate(sampleResult(), Config{Format: FormatText, Out: &buf})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "MRP Run run-1")
	assert.Contains(t, out, "Status: completed")
	assert.Contains(t, out, "Duration: 2s")
	assert.Contains(t, out, "[uom_conversion] Y: no conversion from BOX to EA")
	assert.Contains(t, out, "2025-03-09")
	assert.Contains(t, out, "planned*", "incomplete orders are flagged")
}

func TestGenerate_TextSavedToDirectory(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	require.NoError(t, Generate(sampleResult(), Config{Format: FormatText, OutputDir: dir, Out: &buf}))

	saved, err := os.ReadFile(filepath.Join(dir, "mrp_results.txt"))
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(saved))
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Generate(sampleResult(), Config{Format: FormatJSON, Out: &buf}))

	var decoded struct {
		Run struct {
			RunID  string `json:"run_id"`
			Status string `json:"status"`
		} `json:"run"`
		PlannedOrders []struct {
			PartNumber string `json:"part_number"`
			Quantity   string `json:"quantity"`
			Incomplete bool   `json:"incomplete"`
		} `json:"planned_orders"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.Run.RunID)
	assert.Equal(t, "completed", decoded.Run.Status)
	require.Len(t, decoded.PlannedOrders, 1)
	assert.Equal(t, "100", decoded.PlannedOrders[0].Quantity)
	assert.True(t, decoded.PlannedOrders[0].Incomplete)
}

func TestGenerate_JSONToDirectory(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Generate(sampleResult(), Config{Format: FormatJSON, OutputDir: dir, Out: &bytes.Buffer{}}))

	assert.FileExists(t, filepath.Join(dir, "mrp_results.json"))
}

func TestGenerate_CSV(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Generate(sampleResult(), Config{Format: FormatCSV, OutputDir: dir}))

	file, err := os.Open(filepath.Join(dir, "planned_orders.csv"))
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"order-1", "Y", "100", "2025-03-06", "2025-03-09", "planned_purchase", "planned", "true"}, rows[1])

	assert.FileExists(t, filepath.Join(dir, "net_requirements.csv"))
	assert.FileExists(t, filepath.Join(dir, "warnings.csv"))
}

func TestGenerate_Errors(t *testing.T) {
	err := Generate(sampleResult(), Config{Format: FormatCSV})
	assert.ErrorContains(t, err, "output directory required")

	err = Generate(sampleResult(), Config{Format: "xml"})
	assert.ErrorContains(t, err, "unsupported output format")
}
