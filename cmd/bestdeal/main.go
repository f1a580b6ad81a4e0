package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"bestdeal/server/config"
	"bestdeal/server/internal/database"
	"bestdeal/server/internal/dedup"
	"bestdeal/server/internal/engine"
	"bestdeal/server/internal/fetch"
	"bestdeal/server/internal/match"
	"bestdeal/server/internal/models"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "bestdeal",
		Usage:   "Find the best price for a product across Egyptian shopping sites",
		Version: version,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the SQLite database",
				EnvVars: []string{"DB_PATH"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},

		Commands: []*cli.Command{
			searchCommand(),
			historyCommand(),
			clearCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and opens the store, applying CLI overrides.
func setup(c *cli.Context) (*config.Config, *database.Store, *logrus.Logger, error) {
	_ = godotenv.Load()

	logger := logrus.New()
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.LoadSitesOverride(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load site overrides: %w", err)
	}
	if db := c.String("db"); db != "" {
		cfg.DBPath = db
	}

	store, err := database.NewStore(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, store, logger, nil
}

// =============================================================================
// SEARCH COMMAND
// =============================================================================

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the configured sites for a product and compare prices",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "paid",
				Usage: "Price you paid or were quoted; shows how much the best deal saves",
			},
			&cli.StringSliceFlag{
				Name:    "site",
				Aliases: []string{"s"},
				Usage:   "Restrict the search to these site IDs (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Value: true,
				Usage: "Run the browser headless",
			},
		},
		Action: runSearch,
	}
}

func runSearch(c *cli.Context) error {
	query := c.Args().First()
	if query == "" {
		return fmt.Errorf("usage: bestdeal search <query>")
	}

	cfg, store, logger, err := setup(c)
	if err != nil {
		return err
	}
	defer store.Close()

	sites := cfg.Sites
	if picked := c.StringSlice("site"); len(picked) > 0 {
		sites = picked
	}
	for _, id := range sites {
		if config.GetSiteByID(id) == nil {
			return fmt.Errorf("unknown site %q (known: %v)", id, config.GetSiteIDs())
		}
	}

	fetcher, err := fetch.NewSiteFetcher(c.Bool("headless"), logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer fetcher.Close()

	retry := fetch.RetryPolicy{
		MaxAttempts: cfg.Fetch.MaxAttempts,
		BaseDelay:   cfg.Fetch.BaseDelay,
		Logger:      logger,
	}
	manager := fetch.NewManager(fetcher, retry, sites, logger)

	fmt.Fprintf(os.Stderr, "🔍 Searching %d sites for %q...\n", len(sites), query)
	listings := manager.FetchAll(context.Background(), query)
	if len(listings) == 0 {
		return fmt.Errorf("no listings found for %q", query)
	}
	fmt.Fprintf(os.Stderr, "📦 Collected %d listings\n", len(listings))

	matcher := match.New(match.Config{
		Threshold:   cfg.Match.Threshold,
		ConflictCap: cfg.Match.ConflictCap,
	})
	eng := engine.New(dedup.New(matcher, logger), store, logger)

	result, err := eng.Compare(query, listings)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	printResult(result)

	if best := result.OverallBest(); best != nil && c.IsSet("paid") {
		paid := c.Float64("paid")
		switch {
		case paid > best.Price:
			fmt.Printf("\n💸 You could save EGP %.2f: %s on %s for EGP %.2f\n",
				paid-best.Price, best.Product, best.Site, best.Price)
		default:
			fmt.Printf("\n✅ EGP %.2f is already at or below the best price found (EGP %.2f)\n",
				paid, best.Price)
		}
	}

	return nil
}

func printResult(result *engine.Result) {
	records := make([]*models.ProductRecord, 0, len(result.Records))
	for _, record := range result.Records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].Price < records[j].Price
	})

	fmt.Println()
	name := ""
	for _, record := range records {
		if record.Name != name {
			name = record.Name
			fmt.Printf("%s\n", name)
		}
		marker := " "
		if record.Improved {
			marker = "▼"
		}
		fmt.Printf("  %s %-14s EGP %10.2f  %s\n", marker, record.Site, record.Price, record.URL)
	}

	if best := result.OverallBest(); best != nil {
		fmt.Printf("\n🏆 Best deal: %s on %s for EGP %.2f\n", best.Product, best.Site, best.Price)
		fmt.Printf("   %s\n", best.URL)
	}
	if result.Dropped > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  Skipped %d listings without a usable price\n", result.Dropped)
	}
}

// =============================================================================
// HISTORY COMMAND
// =============================================================================

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show stored best prices from previous searches",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "full",
				Usage: "List every stored (product, site) record instead of the summary",
			},
		},
		Action: runHistory,
	}
}

func runHistory(c *cli.Context) error {
	_, store, _, err := setup(c)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.Bool("full") {
		records, err := store.GetRecords()
		if err != nil {
			return fmt.Errorf("failed to read records: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No stored records yet. Run a search first.")
			return nil
		}
		for _, record := range records {
			fmt.Printf("%-40s %-14s EGP %10.2f  %s\n",
				truncate(record.Name, 40), record.Site, record.Price,
				record.UpdatedAt.Format("2006-01-02"))
		}
		return nil
	}

	summary, err := store.GetSummary()
	if err != nil {
		return fmt.Errorf("failed to read summary: %w", err)
	}
	if len(summary) == 0 {
		fmt.Println("No stored records yet. Run a search first.")
		return nil
	}

	fmt.Printf("%-40s %12s %12s %6s\n", "PRODUCT", "BEST", "AVG", "SITES")
	for _, row := range summary {
		fmt.Printf("%-40s %12.2f %12.2f %6d\n",
			truncate(row.Name, 40), row.BestPrice, row.AvgPrice, row.Sites)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// =============================================================================
// CLEAR COMMAND
// =============================================================================

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete all stored price records",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Skip the confirmation prompt",
			},
		},
		Action: runClear,
	}
}

func runClear(c *cli.Context) error {
	_, store, _, err := setup(c)
	if err != nil {
		return err
	}
	defer store.Close()

	if !c.Bool("yes") {
		fmt.Print("Delete all stored price records? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := store.ClearRecords(); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	fmt.Println("Cleared.")
	return nil
}
