package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vsinha/mrpengine/pkg/application/dto"
	"github.com/vsinha/mrpengine/pkg/domain/entities"
)

// Output formats
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatGantt = "gantt"
	FormatHTML  = "html"
)

const dateLayout = "2006-01-02"

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Out       io.Writer // stdout when nil
}

func (c Config) writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Generate creates output in the specified format
func Generate(result *dto.MRPResult, config Config) error {
	switch config.Format {
	case FormatText:
		return generateTextOutput(result, config)
	case FormatJSON:
		return generateJSONOutput(result, config)
	case FormatCSV:
		return generateCSVOutput(result, config)
	case FormatGantt:
		return generateGanttOutput(result, config)
	case FormatHTML:
		return generateHTMLOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.MRPResult, config Config) error {
	w := config.writer()
	run := result.Run

	fmt.Fprintf(w, "MRP Run %s\n", run.RunID)
	fmt.Fprintf(w, "======================\n\n")

	fmt.Fprintf(w, "Scope: %s\n", run.Scope)
	fmt.Fprintf(w, "As Of: %s\n", run.AsOf.Format(dateLayout))
	fmt.Fprintf(w, "Status: %s\n", run.Status)
	if run.FailureReason != "" {
		fmt.Fprintf(w, "Failure: %s\n", run.FailureReason)
	}
	if run.FailedItem != "" {
		fmt.Fprintf(w, "Failed Item: %s\n", run.FailedItem)
	}
	fmt.Fprintf(w, "Items Processed: %d\n", run.Counts.ItemsProcessed)
	fmt.Fprintf(w, "Shortages: %d\n", run.Counts.ShortagesFound)
	fmt.Fprintf(w, "Planned Orders: %d\n", run.Counts.PlannedOrders)
	fmt.Fprintf(w, "Warnings: %d\n", run.Counts.WarningsRecorded)
	fmt.Fprintf(w, "Duration: %v\n\n", run.Duration())

	if len(run.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings:\n")
		for _, warning := range run.Warnings {
			fmt.Fprintf(w, "  [%s] %s: %s\n", warning.Kind, warning.Item, warning.Message)
		}
		fmt.Fprintln(w)
	}

	if len(result.NetRequirements) > 0 {
		fmt.Fprintf(w, "Net Requirements:\n")
		fmt.Fprintf(w, "%-15s %-4s %-12s %-10s %-10s %-10s %-10s %-10s\n",
			"Part Number", "LLC", "Bucket", "Gross", "Scheduled", "Available", "Net", "Projected")
		fmt.Fprintf(w, "%-15s %-4s %-12s %-10s %-10s %-10s %-10s %-10s\n",
			"---------------", "----", "------------", "----------", "----------", "----------", "----------", "----------")

		for _, req := range result.NetRequirements {
			fmt.Fprintf(w, "%-15s %-4d %-12s %-10s %-10s %-10s %-10s %-10s\n",
				req.PartNumber,
				req.LowLevelCode,
				req.BucketStart.Format(dateLayout),
				req.GrossRequirement,
				req.ScheduledSupply,
				req.AvailableSupply,
				req.NetRequirement,
				req.ProjectedBalance)
		}
		fmt.Fprintln(w)
	}

	if len(result.PlannedOrders) > 0 {
		fmt.Fprintf(w, "Planned Orders:\n")
		fmt.Fprintf(w, "%-15s %-10s %-12s %-12s %-20s %-10s\n",
			"Part Number", "Qty", "Release", "Due", "Kind", "Status")
		fmt.Fprintf(w, "%-15s %-10s %-12s %-12s %-20s %-10s\n",
			"---------------", "----------", "------------", "------------", "--------------------", "----------")

		for _, order := range result.PlannedOrders {
			status := string(order.Status)
			if order.Incomplete {
				status += "*"
			}
			fmt.Fprintf(w, "%-15s %-10s %-12s %-12s %-20s %-10s\n",
				order.PartNumber,
				order.Quantity,
				order.ReleaseDate.Format(dateLayout),
				order.DueDate.Format(dateLayout),
				order.Kind,
				status)
		}
		fmt.Fprintln(w)
	}

	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		filename := filepath.Join(config.OutputDir, "mrp_results.txt")
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create text file: %w", err)
		}
		defer file.Close()

		saved := config
		saved.OutputDir = ""
		saved.Out = file
		if err := generateTextOutput(result, saved); err != nil {
			return err
		}
		if config.Verbose {
			fmt.Fprintf(w, "Results saved to: %s\n", filename)
		}
	}

	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.MRPResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	w := config.writer()
	if config.OutputDir == "" {
		fmt.Fprintln(w, string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "mrp_results.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(w, "JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput creates CSV output
func generateCSVOutput(result *dto.MRPResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	requirementsFile := filepath.Join(config.OutputDir, "net_requirements.csv")
	if err := writeCSV(requirementsFile, requirementRows(result.NetRequirements)); err != nil {
		return fmt.Errorf("failed to write net requirements CSV: %w", err)
	}

	ordersFile := filepath.Join(config.OutputDir, "planned_orders.csv")
	if err := writeCSV(ordersFile, orderRows(result.PlannedOrders)); err != nil {
		return fmt.Errorf("failed to write planned orders CSV: %w", err)
	}

	warningsFile := filepath.Join(config.OutputDir, "warnings.csv")
	if err := writeCSV(warningsFile, warningRows(result.Run.Warnings)); err != nil {
		return fmt.Errorf("failed to write warnings CSV: %w", err)
	}

	if config.Verbose {
		w := config.writer()
		fmt.Fprintf(w, "CSV results saved to:\n")
		fmt.Fprintf(w, "  Net Requirements: %s\n", requirementsFile)
		fmt.Fprintf(w, "  Planned Orders: %s\n", ordersFile)
		fmt.Fprintf(w, "  Warnings: %s\n", warningsFile)
	}

	return nil
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func requirementRows(reqs []*entities.NetRequirement) [][]string {
	rows := [][]string{{
		"id", "part_number", "low_level_code", "bucket_index", "bucket_start",
		"gross_requirement", "scheduled_supply", "available_supply", "net_requirement", "projected_balance",
	}}
	for _, req := range reqs {
		rows = append(rows, []string{
			req.ID,
			string(req.PartNumber),
			strconv.Itoa(req.LowLevelCode),
			strconv.Itoa(req.BucketIndex),
			req.BucketStart.Format(dateLayout),
			req.GrossRequirement.String(),
			req.ScheduledSupply.String(),
			req.AvailableSupply.String(),
			req.NetRequirement.String(),
			req.ProjectedBalance.String(),
		})
	}
	return rows
}

func orderRows(orders []*entities.PlannedOrder) [][]string {
	rows := [][]string{{
		"id", "part_number", "quantity", "release_date", "due_date", "kind", "status", "incomplete",
	}}
	for _, order := range orders {
		rows = append(rows, []string{
			order.ID,
			string(order.PartNumber),
			order.Quantity.String(),
			order.ReleaseDate.Format(dateLayout),
			order.DueDate.Format(dateLayout),
			string(order.Kind),
			string(order.Status),
			strconv.FormatBool(order.Incomplete),
		})
	}
	return rows
}

func warningRows(warnings []entities.RunWarning) [][]string {
	rows := [][]string{{"kind", "item", "message"}}
	for _, warning := range warnings {
		rows = append(rows, []string{string(warning.Kind), string(warning.Item), warning.Message})
	}
	return rows
}
