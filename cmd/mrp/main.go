package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vsinha/mrpengine/pkg/infrastructure/config"
	"github.com/vsinha/mrpengine/pkg/infrastructure/logger"
	"github.com/vsinha/mrpengine/pkg/interfaces/cli/commands"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "generate":
			runGenerate(os.Args[2:])
			return
		case "session":
			runSession(os.Args[2:])
			return
		}
	}

	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		configFile = flag.String("config", "", "Path to config file (default: ./config.toml if present)")
		scope      = flag.String("scope", "", "Planning scope (default: planning.scope)")
		asOf       = flag.String("as-of", "", "Planning date YYYY-MM-DD (default: today)")
		firm       = flag.String("firm", "", "Comma-separated planned order ids to firm before running")
		outputDir  = flag.String("output", "", "Output directory for results (optional)")
		format     = flag.String("format", "text", "Output format: text, json, csv, gantt, html")
		verbose    = flag.Bool("verbose", false, "Enable verbose output")
		help       = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	cfg, log := setup(*configFile, *verbose)
	defer log.Sync()

	// Create command configuration
	cmdConfig := commands.Config{
		ScenarioDir: *scenarioDir,
		Scope:       *scope,
		AsOf:        *asOf,
		Firm:        splitList(*firm),
		OutputDir:   *outputDir,
		Format:      *format,
		Verbose:     *verbose,
		Help:        *help,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create and execute command
	cmd := commands.NewMRPCommand(cmdConfig, cfg, log)
	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = log.Sync()
		stop()
		os.Exit(1)
	}
}

// runSession handles "mrp session"
func runSession(args []string) {
	fs := flag.NewFlagSet("session", flag.ExitOnError)
	var (
		scenarioDir = fs.String("scenario", "", "Path to scenario directory containing CSV files")
		configFile  = fs.String("config", "", "Path to config file (default: ./config.toml if present)")
		scope       = fs.String("scope", "", "Planning scope (default: planning.scope)")
		asOf        = fs.String("as-of", "", "Planning date YYYY-MM-DD (default: today)")
		verbose     = fs.Bool("verbose", false, "Enable verbose output")
		help        = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	cfg, log := setup(*configFile, *verbose)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.NewSessionCommand(commands.SessionConfig{
		ScenarioDir: *scenarioDir,
		Scope:       *scope,
		AsOf:        *asOf,
		Verbose:     *verbose,
		Help:        *help,
	}, cfg, log)
	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = log.Sync()
		stop()
		os.Exit(1)
	}
}

// runGenerate handles "mrp generate"
func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		items     = fs.Int("items", 200, "Total number of items")
		depth     = fs.Int("depth", 6, "Maximum BOM depth")
		demands   = fs.Int("demands", 10, "Number of demand lines")
		inventory = fs.Float64("inventory", 1.0, "Inventory multiplier")
		horizon   = fs.Int("horizon", 90, "Days over which demand and supply are spread")
		start     = fs.String("start", "", "First demand date YYYY-MM-DD (default: today)")
		seed      = fs.Int64("seed", 0, "Random seed (default: time based)")
		outputDir = fs.String("output", "", "Directory to write the scenario to")
		verbose   = fs.Bool("verbose", false, "Enable verbose output")
		help      = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(args)

	cmd := commands.NewGenerateCommand(commands.GenerateConfig{
		Items:     *items,
		MaxDepth:  *depth,
		Demands:   *demands,
		Inventory: *inventory,
		Horizon:   *horizon,
		Start:     *start,
		OutputDir: *outputDir,
		Seed:      *seed,
		Help:      *help,
		Verbose:   *verbose,
	})
	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads .env, the config file and the logger, exiting on failure
func setup(configFile string, verbose bool) (*config.Config, *zap.Logger) {
	_ = godotenv.Load() // Load .env file if it exists

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg, log
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
