package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Items     int     // Total number of items to generate
	MaxDepth  int     // Maximum depth of BOM tree
	Demands   int     // Number of top-level demand lines
	Inventory float64 // Inventory multiplier (e.g., 0.5 = half coverage, 4.0 = 4x coverage)
	Horizon   int     // Days over which demand and supply are spread
	Start     string  // First demand date, YYYY-MM-DD; today when empty
	OutputDir string  // Output directory for generated files
	Seed      int64   // Random seed for reproducible generation
	Help      bool    // Show help
	Verbose   bool    // Verbose output
}

// GenerateCommand writes a random acyclic scenario directory
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	out    io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.Horizon <= 0 {
		config.Horizon = 90
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		out:    os.Stdout,
	}
}

// WithOutput redirects command output to w
func (cmd *GenerateCommand) WithOutput(w io.Writer) *GenerateCommand {
	cmd.out = w
	return cmd
}

// bomNode is a generated part and its outgoing BOM lines.
// Children always sit on a deeper level, so the structure is acyclic.
type bomNode struct {
	pn       entities.PartNumber
	level    int
	children []*entities.BOMEdge
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(_ context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if cmd.config.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if cmd.config.Items < 1 || cmd.config.MaxDepth < 1 || cmd.config.Demands < 1 {
		return fmt.Errorf("items, depth and demands must be positive")
	}
	start, err := cmd.startDate()
	if err != nil {
		return err
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out,
			"Generating scenario with %d items, max depth %d, %d demands, %.1fx inventory\n",
			cmd.config.Items, cmd.config.MaxDepth, cmd.config.Demands, cmd.config.Inventory)
		fmt.Fprintf(cmd.out, "Output directory: %s\n", cmd.config.OutputDir)
	}

	nodes := cmd.generateBOMTree()
	data := &csv.ScenarioData{}
	for _, node := range nodes {
		data.Items = append(data.Items, cmd.generateItem(node))
		data.BOM = append(data.BOM, node.children...)
	}
	data.Demands = cmd.generateDemands(nodes, start)
	data.Inventory, data.Supply = cmd.generateInventory(nodes, start)

	if err := csv.NewWriter().WriteScenario(cmd.config.OutputDir, data); err != nil {
		return err
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out, "Generated %d items, %d BOM lines, %d demands, %d supply lines\n",
			len(data.Items), len(data.BOM), len(data.Demands), len(data.Supply))
	}
	return nil
}

func (cmd *GenerateCommand) startDate() (time.Time, error) {
	if cmd.config.Start == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	start, err := time.Parse(dateLayout, cmd.config.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q (expected YYYY-MM-DD)", cmd.config.Start)
	}
	return start, nil
}

// generateBOMTree builds the part structure level by level in creation order
func (cmd *GenerateCommand) generateBOMTree() []*bomNode {
	var nodes []*bomNode

	// about 2% of the items are top-level assemblies
	numRoots := min(cmd.config.Items, max(1, cmd.config.Items/50+cmd.rand.Intn(3)))
	var currentLevel []*bomNode
	for i := 0; i < numRoots; i++ {
		node := &bomNode{pn: entities.PartNumber(fmt.Sprintf("ASSY_%03d", i+1))}
		nodes = append(nodes, node)
		currentLevel = append(currentLevel, node)
	}

	for level := 1; level <= cmd.config.MaxDepth && len(nodes) < cmd.config.Items; level++ {
		var nextLevel []*bomNode

		for _, parent := range currentLevel {
			numChildren := 2 + cmd.rand.Intn(5)
			for c := 0; c < numChildren && len(nodes) < cmd.config.Items; c++ {
				var child *bomNode
				// 20% of lines reuse a part already placed on this level
				if len(nextLevel) > 0 && cmd.rand.Float64() < 0.2 {
					candidate := nextLevel[cmd.rand.Intn(len(nextLevel))]
					if !parent.hasChild(candidate.pn) {
						child = candidate
					}
				}
				if child == nil {
					child = &bomNode{pn: entities.PartNumber(fmt.Sprintf("PART_L%d_%04d", level, len(nodes))), level: level}
					nodes = append(nodes, child)
					nextLevel = append(nextLevel, child)
				}
				parent.children = append(parent.children, cmd.generateBOMLine(parent, child))
			}
		}

		if len(nextLevel) == 0 {
			break
		}
		currentLevel = nextLevel
	}

	return nodes
}

func (n *bomNode) hasChild(pn entities.PartNumber) bool {
	for _, edge := range n.children {
		if edge.ChildPN == pn {
			return true
		}
	}
	return false
}

func (cmd *GenerateCommand) generateBOMLine(parent, child *bomNode) *entities.BOMEdge {
	qty := 1 + cmd.rand.Intn(4)
	if child.level > 2 {
		qty += cmd.rand.Intn(6)
	}
	scrap := decimal.Zero
	if cmd.rand.Float64() < 0.1 {
		scrap = decimal.New(int64(1+cmd.rand.Intn(5)), -2)
	}
	return &entities.BOMEdge{
		ParentPN:    parent.pn,
		ChildPN:     child.pn,
		QtyPer:      entities.Qty(int64(qty)),
		ScrapFactor: scrap,
	}
}

func (cmd *GenerateCommand) generateItem(node *bomNode) *entities.Item {
	item := &entities.Item{
		PartNumber:     node.pn,
		Description:    cmd.generateDescription(node),
		LotSizeRule:    entities.LotForLot,
		MinOrderQty:    decimal.Zero,
		FixedOrderQty:  decimal.Zero,
		SafetyStock:    decimal.Zero,
		StockingPolicy: entities.OnDemand,
		UnitOfMeasure:  "EA",
	}

	leaf := len(node.children) == 0
	switch {
	case leaf:
		item.ProcurementType = entities.ProcurementBuy
		item.LeadTimeDays = 5 + cmd.rand.Intn(40)
	case node.level > 0 && cmd.rand.Float64() < 0.1:
		item.ProcurementType = entities.ProcurementMakeOrBuy
		item.LeadTimeDays = 3 + cmd.rand.Intn(15)
	default:
		item.ProcurementType = entities.ProcurementMake
		item.LeadTimeDays = 2 + cmd.rand.Intn(20)
	}

	switch r := cmd.rand.Float64(); {
	case r < 0.25:
		item.LotSizeRule = entities.FixedOrderQty
		item.FixedOrderQty = entities.Qty([]int64{5, 10, 25, 50}[cmd.rand.Intn(4)])
	case r < 0.5:
		item.MinOrderQty = entities.Qty(int64(5 * (1 + cmd.rand.Intn(10))))
	}

	if leaf && cmd.rand.Float64() < 0.2 {
		item.StockingPolicy = entities.Stocked
		item.SafetyStock = entities.Qty(int64(1 + cmd.rand.Intn(20)))
	}
	return item
}

func (cmd *GenerateCommand) generateDescription(node *bomNode) string {
	switch {
	case node.level == 0:
		return fmt.Sprintf("Top assembly %s", node.pn)
	case len(node.children) > 0:
		return fmt.Sprintf("Level %d subassembly", node.level)
	default:
		return fmt.Sprintf("Level %d component", node.level)
	}
}

func (cmd *GenerateCommand) generateDemands(nodes []*bomNode, start time.Time) []*entities.DemandLine {
	var roots []*bomNode
	for _, node := range nodes {
		if node.level == 0 {
			roots = append(roots, node)
		}
	}

	demands := make([]*entities.DemandLine, 0, cmd.config.Demands)
	for i := 0; i < cmd.config.Demands; i++ {
		root := roots[cmd.rand.Intn(len(roots))]
		source := entities.DemandSalesOrder
		prefix := "SO"
		if cmd.rand.Float64() < 0.3 {
			source, prefix = entities.DemandForecast, "FC"
		}
		demands = append(demands, &entities.DemandLine{
			PartNumber: root.pn,
			Quantity:   entities.Qty(int64(1 + cmd.rand.Intn(10))),
			NeedDate:   start.AddDate(0, 0, cmd.rand.Intn(cmd.config.Horizon)),
			Source:     source,
			SourceRef:  fmt.Sprintf("%s-%04d", prefix, i+1),
		})
	}
	return demands
}

// generateInventory stocks parts in proportion to the inventory multiplier and
// schedules purchase orders for some purchased parts.
func (cmd *GenerateCommand) generateInventory(nodes []*bomNode, start time.Time) ([]*entities.OnHand, []*entities.SupplyLine) {
	var positions []*entities.OnHand
	var supply []*entities.SupplyLine

	for _, node := range nodes {
		if node.level == 0 {
			continue
		}
		qty := int64(cmd.config.Inventory * float64(cmd.rand.Intn(20)))
		if qty > 0 {
			positions = append(positions, &entities.OnHand{PartNumber: node.pn, Quantity: entities.Qty(qty)})
		}
		if len(node.children) == 0 && cmd.rand.Float64() < 0.2 {
			supply = append(supply, &entities.SupplyLine{
				PartNumber:   node.pn,
				Quantity:     entities.Qty(int64(5 + cmd.rand.Intn(50))),
				ExpectedDate: start.AddDate(0, 0, cmd.rand.Intn(cmd.config.Horizon)),
				Source:       entities.SupplyPurchaseOrder,
				SourceRef:    fmt.Sprintf("PO-%04d", len(supply)+1),
			})
		}
	}
	return positions, supply
}

func (cmd *GenerateCommand) printHelp() {
	fmt.Fprint(cmd.out, `MRP Scenario Generator

USAGE:
    mrp generate -output <directory> [options]

OPTIONS:
    -items <n>          Total number of items (default: 200)
    -depth <n>          Maximum BOM depth (default: 6)
    -demands <n>        Number of demand lines on top assemblies (default: 10)
    -inventory <x>      Inventory multiplier (default: 1.0)
    -horizon <days>     Days over which demand and supply are spread (default: 90)
    -start <date>       First demand date, YYYY-MM-DD (default: today)
    -seed <n>           Random seed for reproducible output
    -output <dir>       Directory to write the scenario CSV files to
    -verbose            Enable verbose output
    -help               Show this help message
`)
}
