package output

import (
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vsinha/mrpengine/pkg/application/dto"
	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// GanttChart lays planned orders out as release-to-due bars, one row per part
type GanttChart struct {
	Width        int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	StartTime    time.Time
	EndTime      time.Time
}

// GanttBar represents a single bar in the Gantt chart
type GanttBar struct {
	OrderID     string
	PartNumber  entities.PartNumber
	Kind        entities.OrderKind
	Status      entities.OrderStatus
	Quantity    entities.Quantity
	ReleaseDate time.Time
	DueDate     time.Time
	Incomplete  bool
	X           int
	Width       int
}

// NewGanttChart sizes a chart for the planned orders of result
func NewGanttChart(result *dto.MRPResult) *GanttChart {
	gc := &GanttChart{
		Width:        1200,
		MarginLeft:   200,
		MarginTop:    60,
		MarginRight:  100,
		MarginBottom: 60,
		RowHeight:    26,
	}
	if len(result.PlannedOrders) == 0 {
		return gc
	}

	gc.StartTime = result.PlannedOrders[0].ReleaseDate
	gc.EndTime = result.PlannedOrders[0].DueDate
	for _, order := range result.PlannedOrders {
		if order.ReleaseDate.Before(gc.StartTime) {
			gc.StartTime = order.ReleaseDate
		}
		if order.DueDate.After(gc.EndTime) {
			gc.EndTime = order.DueDate
		}
	}

	// one day of padding on both sides keeps zero lead time bars visible
	gc.StartTime = gc.StartTime.AddDate(0, 0, -1)
	gc.EndTime = gc.EndTime.AddDate(0, 0, 1)
	return gc
}

// Bars converts planned orders to positioned bars grouped by part. Parts are
// ordered by earliest release, bars within a part by release date.
func (gc *GanttChart) Bars(orders []*entities.PlannedOrder) ([]entities.PartNumber, map[entities.PartNumber][]GanttBar) {
	chartWidth := float64(gc.Width - gc.MarginLeft - gc.MarginRight)
	total := float64(gc.EndTime.Sub(gc.StartTime))

	rows := make(map[entities.PartNumber][]GanttBar)
	for _, order := range orders {
		x := gc.MarginLeft + int(float64(order.ReleaseDate.Sub(gc.StartTime))/total*chartWidth)
		width := max(int(float64(order.DueDate.Sub(order.ReleaseDate))/total*chartWidth), 2)
		rows[order.PartNumber] = append(rows[order.PartNumber], GanttBar{
			OrderID:     order.ID,
			PartNumber:  order.PartNumber,
			Kind:        order.Kind,
			Status:      order.Status,
			Quantity:    order.Quantity,
			ReleaseDate: order.ReleaseDate,
			DueDate:     order.DueDate,
			Incomplete:  order.Incomplete,
			X:           x,
			Width:       width,
		})
	}

	parts := make([]entities.PartNumber, 0, len(rows))
	for part, bars := range rows {
		sort.Slice(bars, func(i, j int) bool { return bars[i].ReleaseDate.Before(bars[j].ReleaseDate) })
		parts = append(parts, part)
	}
	sort.Slice(parts, func(i, j int) bool {
		a, b := rows[parts[i]][0].ReleaseDate, rows[parts[j]][0].ReleaseDate
		if !a.Equal(b) {
			return a.Before(b)
		}
		return parts[i] < parts[j]
	})
	return parts, rows
}

// GenerateSVG renders the chart as a standalone SVG document
func (gc *GanttChart) GenerateSVG(result *dto.MRPResult) string {
	var svg strings.Builder

	if len(result.PlannedOrders) == 0 {
		fmt.Fprintf(&svg, `<svg width="%d" height="200" xmlns="http://www.w3.org/2000/svg">`, gc.Width)
		fmt.Fprintf(&svg, `<text x="%d" y="100" font-family="Arial" font-size="16" text-anchor="middle">No Planned Orders</text>`, gc.Width/2)
		svg.WriteString(`</svg>`)
		return svg.String()
	}

	parts, rows := gc.Bars(result.PlannedOrders)
	height := gc.MarginTop + len(parts)*gc.RowHeight + gc.MarginBottom

	fmt.Fprintf(&svg, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, height)
	svg.WriteString(`<style>`)
	svg.WriteString(`.part-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.time-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.order-bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.incomplete { stroke-dasharray: 4 2; }`)
	svg.WriteString(`</style>`)
	fmt.Fprintf(&svg, `<rect width="%d" height="%d" fill="white"/>`, gc.Width, height)
	fmt.Fprintf(&svg, `<text x="%d" y="30" class="title" text-anchor="middle">Planned Orders - Run %s</text>`,
		gc.Width/2, html.EscapeString(result.Run.RunID))

	gridBottom := gc.MarginTop + len(parts)*gc.RowHeight
	gc.drawTimeAxis(&svg, gridBottom)

	for i, part := range parts {
		y := gc.MarginTop + i*gc.RowHeight
		fmt.Fprintf(&svg, `<text x="%d" y="%d" class="part-label" text-anchor="end">%s</text>`,
			gc.MarginLeft-15, y+gc.RowHeight/2+4, html.EscapeString(string(part)))
		fmt.Fprintf(&svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			gc.MarginLeft, y+gc.RowHeight, gc.Width-gc.MarginRight, y+gc.RowHeight)
		for _, bar := range rows[part] {
			gc.drawBar(&svg, bar, y)
		}
	}

	svg.WriteString(`</svg>`)
	return svg.String()
}

// drawTimeAxis draws vertical grid lines with daily, weekly or monthly labels
func (gc *GanttChart) drawTimeAxis(svg *strings.Builder, gridBottom int) {
	chartWidth := float64(gc.Width - gc.MarginLeft - gc.MarginRight)
	total := gc.EndTime.Sub(gc.StartTime)

	days := int(math.Ceil(total.Hours() / 24))
	step, layout := 1, "Jan 2"
	switch {
	case days > 180:
		step, layout = 30, "Jan 2006"
	case days > 30:
		step = 7
	}

	for t := gc.StartTime; t.Before(gc.EndTime); t = t.AddDate(0, 0, step) {
		x := gc.MarginLeft + int(float64(t.Sub(gc.StartTime))/float64(total)*chartWidth)
		fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`, x, gc.MarginTop, x, gridBottom)
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="time-label" text-anchor="middle">%s</text>`, x, gridBottom+15, t.Format(layout))
	}
}

func (gc *GanttChart) drawBar(svg *strings.Builder, bar GanttBar, rowY int) {
	class := "order-bar"
	if bar.Incomplete {
		class += " incomplete"
	}
	fmt.Fprintf(svg, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="%s">`,
		bar.X, rowY+3, bar.Width, gc.RowHeight-6, barColor(bar), class)
	fmt.Fprintf(svg, `<title>%s qty %s, release %s, due %s, %s %s</title></rect>`,
		html.EscapeString(string(bar.PartNumber)), bar.Quantity,
		bar.ReleaseDate.Format(dateLayout), bar.DueDate.Format(dateLayout),
		bar.Kind, bar.Status)
}

// barColor distinguishes production from purchase orders and greys out firmed ones
func barColor(bar GanttBar) string {
	switch {
	case bar.Status == entities.OrderFirmed || bar.Status == entities.OrderReleased:
		return "#9E9E9E"
	case bar.Kind == entities.PlannedProduction:
		return "#4CAF50"
	default:
		return "#2196F3"
	}
}

// generateGanttOutput writes planned_orders.svg to the output directory, or stdout
func generateGanttOutput(result *dto.MRPResult, config Config) error {
	svg := NewGanttChart(result).GenerateSVG(result)
	if config.OutputDir == "" {
		fmt.Fprintln(config.writer(), svg)
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "planned_orders.svg")
	if err := os.WriteFile(filename, []byte(svg), 0644); err != nil {
		return fmt.Errorf("failed to write Gantt chart: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "Gantt chart saved to: %s\n", filename)
	}
	return nil
}
