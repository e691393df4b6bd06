package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/mrpengine/pkg/application/dto"
	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/infrastructure/config"
	"github.com/vsinha/mrpengine/pkg/infrastructure/events"
)

// SessionConfig holds configuration for the interactive planning session
type SessionConfig struct {
	ScenarioDir string
	Scope       string
	AsOf        string
	Verbose     bool
	Help        bool
}

// SessionCommand runs an interactive session: edit demand and inventory, rerun
// MRP, inspect and firm the results.
type SessionCommand struct {
	config  SessionConfig
	app     *config.Config
	logger  *zap.Logger
	in      io.Reader
	out     io.Writer
	engine  *engine
	scope   string
	asOf    time.Time
	lastRun string
}

// NewSessionCommand creates a new session command reading from stdin
func NewSessionCommand(cfg SessionConfig, app *config.Config, logger *zap.Logger) *SessionCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionCommand{
		config: cfg,
		app:    app,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// WithIO replaces the session input and output
func (c *SessionCommand) WithIO(in io.Reader, out io.Writer) *SessionCommand {
	c.in, c.out = in, out
	return c
}

// Execute runs the session until quit or end of input
func (c *SessionCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.printHelp()
		return nil
	}
	if c.app == nil {
		return fmt.Errorf("configuration is required")
	}
	if c.config.ScenarioDir == "" {
		return fmt.Errorf("must specify a -scenario directory")
	}

	c.scope = c.config.Scope
	if c.scope == "" {
		c.scope = c.app.Planning.Scope
	}
	c.asOf = time.Now().UTC()
	if c.config.AsOf != "" {
		asOf, err := time.Parse(dateLayout, c.config.AsOf)
		if err != nil {
			return fmt.Errorf("invalid as-of date %q (expected YYYY-MM-DD)", c.config.AsOf)
		}
		c.asOf = asOf
	}

	e, err := openEngine(ctx, engineOptions{
		app:         c.app,
		scenarioDir: c.config.ScenarioDir,
		scope:       c.scope,
		verbose:     c.config.Verbose,
		logger:      c.logger,
		out:         c.out,
	})
	if err != nil {
		return err
	}
	defer e.Close()
	c.engine = e

	return c.runInteractiveSession(ctx)
}

func (c *SessionCommand) runInteractiveSession(ctx context.Context) error {
	fmt.Fprintf(c.out, "=== MRP Session (scope %s) ===\n", c.scope)
	fmt.Fprintln(c.out, "Type 'help' for available commands")

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "mrp> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit, err := c.processCommand(ctx, line)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		if quit {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}
	}
	return scanner.Err()
}

func (c *SessionCommand) processCommand(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	command, args := parts[0], parts[1:]

	switch command {
	case "help", "h":
		c.printInteractiveHelp()
	case "demand":
		return false, c.handleAddDemand(args)
	case "cancel":
		return false, c.handleCancelDemand(args)
	case "inventory":
		return false, c.handleAddInventory(args)
	case "run":
		return false, c.handleRun(ctx, args)
	case "status":
		return false, c.handleStatus(ctx, args)
	case "requirements", "reqs":
		return false, c.handleRequirements(ctx, args)
	case "orders":
		return false, c.handleOrders(ctx, args)
	case "firm":
		return false, c.handleFirm(ctx, args)
	case "events":
		return false, c.handleShowEvents(args)
	case "recover":
		return false, c.handleRecover(ctx, args)
	case "quit", "q", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command: %s (type 'help' for available commands)", command)
	}
	return false, nil
}

func (c *SessionCommand) handleAddDemand(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: demand <part-number> <quantity> <need-date> [sales_order|forecast]")
	}
	qty, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity: %s", args[1])
	}
	needDate, err := time.Parse(dateLayout, args[2])
	if err != nil {
		return fmt.Errorf("invalid date format (use YYYY-MM-DD): %s", args[2])
	}
	source := entities.DemandSalesOrder
	if len(args) > 3 {
		source = entities.DemandSource(args[3])
	}

	demand, err := entities.NewDemandLine(entities.PartNumber(args[0]), qty, "", needDate, source, "SESSION")
	if err != nil {
		return err
	}
	if err := c.engine.scenario.Demand.LoadDemands([]*entities.DemandLine{demand}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Added demand: %s qty %s needed by %s\n", demand.PartNumber, qty, needDate.Format(dateLayout))
	return nil
}

func (c *SessionCommand) handleCancelDemand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cancel <part-number>")
	}
	pn := entities.PartNumber(args[0])
	removed := c.engine.scenario.Demand.RemoveDemand(pn)
	if removed == 0 {
		return fmt.Errorf("no demand for %s", pn)
	}
	fmt.Fprintf(c.out, "Removed %d demand line(s) for %s\n", removed, pn)
	return nil
}

func (c *SessionCommand) handleAddInventory(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: inventory <part-number> <quantity>")
	}
	qty, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity: %s", args[1])
	}
	pn := entities.PartNumber(args[0])
	if err := c.engine.scenario.Inventory.LoadPositions([]*entities.OnHand{{PartNumber: pn, Quantity: qty}}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Added inventory: %s qty %s\n", pn, qty)
	return nil
}

func (c *SessionCommand) handleRun(ctx context.Context, args []string) error {
	asOf := c.asOf
	if len(args) > 0 {
		parsed, err := time.Parse(dateLayout, args[0])
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %s", args[0])
		}
		asOf = parsed
	}

	runID, err := c.engine.orchestrator.StartRun(ctx, c.scope, asOf)
	if err != nil {
		return err
	}
	c.lastRun = runID

	status, err := c.engine.orchestrator.Wait(ctx, runID)
	if err != nil {
		return err
	}
	c.engine.events.Flush()
	c.printStatus(status)
	return nil
}

func (c *SessionCommand) handleStatus(ctx context.Context, args []string) error {
	runID, err := c.runID(args)
	if err != nil {
		return err
	}
	status, err := c.engine.orchestrator.GetRunStatus(ctx, runID)
	if err != nil {
		return err
	}
	c.printStatus(status)
	return nil
}

func (c *SessionCommand) handleRequirements(ctx context.Context, args []string) error {
	runID, err := c.runID(nil)
	if err != nil {
		return err
	}
	reqs, err := c.engine.orchestrator.ListNetRequirements(ctx, runID, partFilter(args))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%-15s %-12s %-10s %-10s %-10s\n", "Part Number", "Bucket", "Gross", "Net", "Projected")
	for _, req := range reqs {
		fmt.Fprintf(c.out, "%-15s %-12s %-10s %-10s %-10s\n",
			req.PartNumber, req.BucketStart.Format(dateLayout), req.GrossRequirement, req.NetRequirement, req.ProjectedBalance)
	}
	return nil
}

func (c *SessionCommand) handleOrders(ctx context.Context, args []string) error {
	runID, err := c.runID(nil)
	if err != nil {
		return err
	}
	orders, err := c.engine.orchestrator.ListPlannedOrders(ctx, runID, partFilter(args))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%-36s %-15s %-10s %-12s %-12s %-10s\n", "Order", "Part Number", "Qty", "Release", "Due", "Status")
	for _, order := range orders {
		fmt.Fprintf(c.out, "%-36s %-15s %-10s %-12s %-12s %-10s\n",
			order.ID, order.PartNumber, order.Quantity,
			order.ReleaseDate.Format(dateLayout), order.DueDate.Format(dateLayout), order.Status)
	}
	return nil
}

func (c *SessionCommand) handleFirm(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: firm <order-id>")
	}
	order, err := c.engine.orchestrator.FirmPlannedOrder(ctx, args[0])
	if err != nil {
		return err
	}
	c.engine.events.Flush()
	fmt.Fprintf(c.out, "Firmed order %s: %s qty %s due %s\n",
		order.ID, order.PartNumber, order.Quantity, order.DueDate.Format(dateLayout))
	return nil
}

func (c *SessionCommand) handleRecover(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: recover <run-id>")
	}
	status, err := c.engine.orchestrator.RecoverRun(ctx, args[0])
	if err != nil {
		return err
	}
	c.engine.events.Flush()
	c.printStatus(status)
	return nil
}

func (c *SessionCommand) handleShowEvents(args []string) error {
	if len(args) > 0 && args[0] == "run" {
		runID, err := c.runID(args[1:])
		if err != nil {
			return err
		}
		runEvents, err := c.engine.events.ReadEvents(runID, 0)
		if err != nil {
			return fmt.Errorf("failed to read events: %w", err)
		}
		fmt.Fprintf(c.out, "=== Events of run %s ===\n", runID)
		c.printEvents(runEvents)
		return nil
	}

	limit := 10
	if len(args) > 0 {
		if l, err := strconv.Atoi(args[0]); err == nil && l > 0 {
			limit = l
		}
	}

	recent, err := c.engine.events.ReadAllEvents(c.engine.events.Position() - limit)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	fmt.Fprintf(c.out, "=== Recent Events (last %d) ===\n", limit)
	c.printEvents(recent)
	return nil
}

func (c *SessionCommand) printEvents(list []events.Event) {
	for _, event := range list {
		fmt.Fprintf(c.out, "[%s] %-20s %s v%d\n",
			event.Timestamp().Format("15:04:05"),
			event.Type(),
			event.StreamID(),
			event.Version())
	}
}

func (c *SessionCommand) runID(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if c.lastRun == "" {
		return "", fmt.Errorf("no run yet, use 'run' first")
	}
	return c.lastRun, nil
}

func partFilter(args []string) entities.PartNumber {
	if len(args) == 0 {
		return ""
	}
	return entities.PartNumber(args[0])
}

func (c *SessionCommand) printStatus(status *dto.RunStatusView) {
	fmt.Fprintf(c.out, "Run %s: %s\n", status.RunID, status.Status)
	fmt.Fprintf(c.out, "  items %d, shortages %d, planned orders %d, warnings %d\n",
		status.Counts.ItemsProcessed, status.Counts.ShortagesFound,
		status.Counts.PlannedOrders, status.Counts.WarningsRecorded)
	if status.FailureReason != "" {
		fmt.Fprintf(c.out, "  failure: %s\n", status.FailureReason)
	}
	for _, warning := range status.Warnings {
		fmt.Fprintf(c.out, "  warning [%s] %s: %s\n", warning.Kind, warning.Item, warning.Message)
	}
}

func (c *SessionCommand) printInteractiveHelp() {
	fmt.Fprint(c.out, `Commands:
  demand <pn> <qty> <date> [source]   Add independent demand
  cancel <pn>                         Remove all demand for a part
  inventory <pn> <qty>                Add on-hand quantity
  run [as-of]                         Run MRP for the session scope
  status [run-id]                     Show run status (default: last run)
  requirements [pn]                   List net requirements of the last run
  orders [pn]                         List planned orders of the last run
  firm <order-id>                     Firm a planned order
  events [n]                          Show the last n events
  events run [run-id]                 Show the events of a run (default: last run)
  recover <run-id>                    Fail a run abandoned by a stopped process
  quit                                Leave the session
`)
}

func (c *SessionCommand) printHelp() {
	fmt.Fprint(c.out, `MRP Interactive Session

USAGE:
    mrp session -scenario <directory> [-scope <name>] [-as-of <date>] [-verbose]

`)
	c.printInteractiveHelp()
}
