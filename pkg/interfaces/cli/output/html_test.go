package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

func TestHTMLReport_GenerateHTML(t *testing.T) {
	result := sampleResult()
	result.Run.Warnings = append(result.Run.Warnings, entities.RunWarning{
		Kind: entities.WarningInvalidBOMLine, Item: "<script>", Message: "bad & broken",
	})
	report := &HTMLReport{now: func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }}

	page, err := report.GenerateHTML(result)

	require.NoError(t, err)
	assert.Contains(t, page, "<title>MRP Run run-1</title>")
	assert.Contains(t, page, "Generated 2025-03-01 09:30:00.")
	assert.Contains(t, page, "<svg", "the Gantt chart is embedded unescaped")
	assert.Contains(t, page, `<tr class="incomplete"><td>Y</td><td>100</td><td>2025-03-06</td><td>2025-03-09</td>`)
	assert.Contains(t, page, "&lt;script&gt;")
	assert.NotContains(t, page, "<td><script>")
	assert.Contains(t, page, "bad &amp; broken")
}

func TestBuildStatistics(t *testing.T) {
	result := sampleResult()
	x := *result.PlannedOrders[0]
	x.ID, x.PartNumber, x.Kind, x.Incomplete = "order-2", "X", entities.PlannedProduction, false
	result.PlannedOrders = append(result.PlannedOrders, &x)

	stats := buildStatistics(result)

	assert.Equal(t, ReportStatistics{
		TotalOrders:      2,
		TotalParts:       2,
		PurchaseOrders:   1,
		ProductionOrders: 1,
		Incomplete:       1,
		MaxLowLevelCode:  1,
	}, stats)
}

func TestGenerate_HTMLToDirectory(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	require.NoError(t, Generate(sampleResult(), Config{Format: FormatHTML, OutputDir: dir, Verbose: true, Out: &buf}))

	page, err := os.ReadFile(filepath.Join(dir, "mrp_report.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<h2>Timeline</h2>")
	assert.Contains(t, buf.String(), "HTML report saved to:")
}
