package output

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/vsinha/mrpengine/pkg/application/dto"
	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// HTMLReport renders a run as a standalone page around the Gantt chart
type HTMLReport struct {
	now func() time.Time
}

// ReportStatistics summarizes the planned orders of a run
type ReportStatistics struct {
	TotalOrders      int
	TotalParts       int
	PurchaseOrders   int
	ProductionOrders int
	Incomplete       int
	MaxLowLevelCode  int
}

// TemplateData contains all data for rendering the report template
type TemplateData struct {
	Result      *dto.MRPResult
	Statistics  ReportStatistics
	Chart       template.HTML
	GeneratedAt string
}

// NewHTMLReport creates a new HTML report generator
func NewHTMLReport() *HTMLReport {
	return &HTMLReport{now: time.Now}
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format(dateLayout) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>MRP Run {{.Result.Run.RunID}}</title>
<style>
body { font-family: sans-serif; margin: 24px; color: #222; }
table { border-collapse: collapse; margin-bottom: 24px; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: right; }
th:first-child, td:first-child { text-align: left; }
.failed { color: #b00020; }
.incomplete { background: #fff3cd; }
</style>
</head>
<body>
<h1>MRP Run {{.Result.Run.RunID}}</h1>
<p>Scope {{.Result.Run.Scope}}, as of {{date .Result.Run.AsOf}}, status
<strong{{if .Result.Run.FailureReason}} class="failed"{{end}}>{{.Result.Run.Status}}</strong>.
Generated {{.GeneratedAt}}.</p>
{{with .Result.Run.FailureReason}}<p class="failed">Failure: {{.}}{{with $.Result.Run.FailedItem}} ({{.}}){{end}}</p>{{end}}

<h2>Summary</h2>
<table>
<tr><th>Planned orders</th><td>{{.Statistics.TotalOrders}}</td></tr>
<tr><th>Parts</th><td>{{.Statistics.TotalParts}}</td></tr>
<tr><th>Purchase</th><td>{{.Statistics.PurchaseOrders}}</td></tr>
<tr><th>Production</th><td>{{.Statistics.ProductionOrders}}</td></tr>
<tr><th>Incomplete</th><td>{{.Statistics.Incomplete}}</td></tr>
<tr><th>Deepest low-level code</th><td>{{.Statistics.MaxLowLevelCode}}</td></tr>
<tr><th>Warnings</th><td>{{len .Result.Run.Warnings}}</td></tr>
</table>

<h2>Timeline</h2>
{{.Chart}}

{{if .Result.Run.Warnings}}<h2>Warnings</h2>
<table>
<tr><th>Kind</th><th>Item</th><th>Message</th></tr>
{{range .Result.Run.Warnings}}<tr><td>{{.Kind}}</td><td>{{.Item}}</td><td>{{.Message}}</td></tr>
{{end}}</table>
{{end}}
{{if .Result.PlannedOrders}}<h2>Planned Orders</h2>
<table>
<tr><th>Part Number</th><th>Qty</th><th>Release</th><th>Due</th><th>Kind</th><th>Status</th></tr>
{{range .Result.PlannedOrders}}<tr{{if .Incomplete}} class="incomplete"{{end}}><td>{{.PartNumber}}</td><td>{{.Quantity}}</td><td>{{date .ReleaseDate}}</td><td>{{date .DueDate}}</td><td>{{.Kind}}</td><td>{{.Status}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

// GenerateHTML renders the report page
func (r *HTMLReport) GenerateHTML(result *dto.MRPResult) (string, error) {
	data := &TemplateData{
		Result:     result,
		Statistics: buildStatistics(result),
		// GenerateSVG escapes every label it writes
		Chart:       template.HTML(NewGanttChart(result).GenerateSVG(result)),
		GeneratedAt: r.now().Format("2006-01-02 15:04:05"),
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func buildStatistics(result *dto.MRPResult) ReportStatistics {
	stats := ReportStatistics{TotalOrders: len(result.PlannedOrders)}
	parts := make(map[entities.PartNumber]bool)
	for _, order := range result.PlannedOrders {
		parts[order.PartNumber] = true
		if order.Kind == entities.PlannedPurchase {
			stats.PurchaseOrders++
		} else {
			stats.ProductionOrders++
		}
		if order.Incomplete {
			stats.Incomplete++
		}
	}
	stats.TotalParts = len(parts)
	for _, req := range result.NetRequirements {
		stats.MaxLowLevelCode = max(stats.MaxLowLevelCode, req.LowLevelCode)
	}
	return stats
}

func generateHTMLOutput(result *dto.MRPResult, config Config) error {
	page, err := NewHTMLReport().GenerateHTML(result)
	if err != nil {
		return err
	}
	if config.OutputDir == "" {
		fmt.Fprint(config.writer(), page)
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "mrp_report.html")
	if err := os.WriteFile(filename, []byte(page), 0644); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "HTML report saved to: %s\n", filename)
	}
	return nil
}
