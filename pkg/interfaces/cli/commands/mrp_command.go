package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/infrastructure/config"
	"github.com/vsinha/mrpengine/pkg/interfaces/cli/output"
)

const dateLayout = "2006-01-02"

// Config holds configuration for the MRP command
type Config struct {
	ScenarioDir string
	Scope       string // overrides planning.scope when set
	AsOf        string // YYYY-MM-DD, today when empty
	Firm        []string
	OutputDir   string
	Format      string
	Verbose     bool
	Help        bool
}

// MRPCommand handles the main MRP execution logic
type MRPCommand struct {
	config Config
	app    *config.Config
	logger *zap.Logger
	out    io.Writer
	now    func() time.Time
}

// NewMRPCommand creates a new MRP command with the given configuration
func NewMRPCommand(cfg Config, app *config.Config, logger *zap.Logger) *MRPCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MRPCommand{
		config: cfg,
		app:    app,
		logger: logger,
		out:    os.Stdout,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithOutput redirects command output to w
func (c *MRPCommand) WithOutput(w io.Writer) *MRPCommand {
	c.out = w
	return c
}

// Execute runs the MRP command
func (c *MRPCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	// Validate inputs
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	asOf, err := c.asOf()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	scope := c.config.Scope
	if scope == "" {
		scope = c.app.Planning.Scope
	}

	if c.config.Verbose {
		c.printHeader(scope, asOf)
	}

	e, err := openEngine(ctx, engineOptions{
		app:         c.app,
		scenarioDir: c.config.ScenarioDir,
		scope:       scope,
		verbose:     c.config.Verbose,
		logger:      c.logger,
		out:         c.out,
	})
	if err != nil {
		return err
	}
	defer e.Close()
	orchestrator := e.orchestrator

	for _, orderID := range c.config.Firm {
		order, err := orchestrator.FirmPlannedOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to firm order %s: %w", orderID, err)
		}
		if c.config.Verbose {
			fmt.Fprintf(c.out, "Firmed order %s (%s %s)\n", order.ID, order.PartNumber, order.Quantity)
		}
	}

	status, err := orchestrator.Execute(ctx, scope, asOf)
	if err != nil {
		return fmt.Errorf("error running MRP: %w", err)
	}
	e.events.Flush()

	result, err := orchestrator.Result(ctx, status.RunID)
	if err != nil {
		return fmt.Errorf("error reading run results: %w", err)
	}

	err = output.Generate(result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Out:       c.out,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if status.Status == entities.RunFailed {
		return fmt.Errorf("run %s failed: %s", status.RunID, status.FailureReason)
	}
	return nil
}

// validateInputs validates the command configuration
func (c *MRPCommand) validateInputs() error {
	if c.app == nil {
		return fmt.Errorf("configuration is required")
	}
	if c.config.ScenarioDir == "" {
		return fmt.Errorf("must specify a -scenario directory")
	}
	switch c.config.Format {
	case output.FormatText, output.FormatJSON, output.FormatCSV, output.FormatGantt, output.FormatHTML:
	default:
		return fmt.Errorf("unsupported output format: %s", c.config.Format)
	}
	if c.config.Format == output.FormatCSV && c.config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	return nil
}

func (c *MRPCommand) asOf() (time.Time, error) {
	if c.config.AsOf == "" {
		return c.now(), nil
	}
	asOf, err := time.Parse(dateLayout, c.config.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as-of date %q (expected YYYY-MM-DD)", c.config.AsOf)
	}
	return asOf, nil
}

// printHeader prints the command header information
func (c *MRPCommand) printHeader(scope string, asOf time.Time) {
	fmt.Fprintf(c.out, "MRP Engine CLI\n")
	fmt.Fprintf(c.out, "Scenario: %s\n", c.config.ScenarioDir)
	fmt.Fprintf(c.out, "Scope: %s\n", scope)
	fmt.Fprintf(c.out, "As of: %s\n", asOf.Format(dateLayout))
	fmt.Fprintf(c.out, "Store: %s, lock: %s\n", c.app.Store.Driver, c.app.Lock.Backend)
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.out)
}

// showHelp displays the help message
func (c *MRPCommand) showHelp() {
	fmt.Fprint(c.out, `MRP Engine CLI - time-phased Material Requirements Planning

USAGE:
    mrp -scenario <directory> [options]

OPTIONS:
    -scenario <dir>     Path to scenario directory containing CSV files
    -config <file>      Path to a config file (default: ./config.toml if present)
    -scope <name>       Planning scope (default: planning.scope)
    -as-of <date>       Planning date, YYYY-MM-DD (default: today)
    -firm <ids>         Comma-separated planned order ids to firm before running
    -output <dir>       Output directory for results (optional)
    -format <fmt>       Output format: text, json, csv, gantt, html (default: text)
    -verbose            Enable verbose output and event logging
    -help               Show this help message

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── items.csv       # Item master data
    ├── bom.csv         # Active bill of materials
    ├── inventory.csv   # Net on-hand positions
    ├── supply.csv      # Open purchase and production orders
    ├── demands.csv     # Independent demand
    └── units.csv       # Unit conversions (optional)

CSV FILE FORMATS:

items.csv:
    part_number,description,procurement_type,lead_time_days,lot_size_rule,min_order_qty,fixed_order_qty,safety_stock,stocking_policy,unit_of_measure
    F1_ENGINE,F-1 Engine,make,120,lot_for_lot,10,,2,stocked,EA

bom.csv:
    parent_pn,child_pn,qty_per,scrap_factor,child_unit
    F1_ENGINE,INJECTOR_PLATE,1,0.05,

inventory.csv:
    part_number,quantity
    F1_ENGINE,3

supply.csv:
    part_number,quantity,unit,expected_date,source,source_ref
    F1_TURBOPUMP,4,,1968-05-01,purchase_order,PO-TP-1

demands.csv:
    part_number,quantity,unit,need_date,source,source_ref
    SATURN_V,2,,1969-07-16,sales_order,AS-507

units.csv:
    from_unit,to_unit,factor
    BOX,EA,50

ENVIRONMENT:
    MRP_* variables override config keys, e.g. MRP_STORE_DRIVER=sqlite
    MRP_STORE_DSN=mrp.db MRP_PLANNING_BUCKET_DAYS=7. A .env file is loaded first.

EXAMPLES:
    # Plan a scenario as of a fixed date
    mrp -scenario examples/aerospace_basic -as-of 1968-01-01 -verbose

    # Persist to SQLite and firm an order from an earlier run
    MRP_STORE_DRIVER=sqlite MRP_STORE_DSN=mrp.db mrp -scenario examples/aerospace_basic -firm <order-id>

    # Write JSON results to a directory
    mrp -scenario examples/aerospace_basic -format json -output results/
`)
}
