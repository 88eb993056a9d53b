package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/NDua7/Technical-Assignment/internal/aggregate"
	"github.com/NDua7/Technical-Assignment/internal/config"
	"github.com/NDua7/Technical-Assignment/internal/database"
	"github.com/NDua7/Technical-Assignment/internal/pipeline"
	"github.com/NDua7/Technical-Assignment/internal/report"
	"github.com/NDua7/Technical-Assignment/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "foodevents",
	Short:   "openFDA food adverse-event statistics",
	Long:    "foodevents downloads the openFDA food adverse-event corpus and aggregates it into top-outcome, top-reaction, and top-product tables with age-distribution charts.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// A .env next to the binary may hold the API key.
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("foodevents", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/foodevents/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set the date range, directories, and API key variable.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus and fetch-ledger status",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := cfg.GetDataDir()

		files := 0
		if entries, err := os.ReadDir(dataDir); err == nil {
			for _, e := range entries {
				if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
					files++
				}
			}
		}

		db, err := database.Open(filepath.Join(dataDir, pipeline.LedgerFile))
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Data dir: %s\n", dataDir)
		fmt.Printf("  JSON files: %d\n", files)
		fmt.Println("Fetch ledger:")
		fmt.Printf("  Completed buckets: %d\n", stats.Buckets)
		fmt.Printf("  Pages: %d\n", stats.Pages)
		fmt.Printf("  Records: %d\n", stats.Records)
		return nil
	},
}

// --- fetch command ---

var forceFetch bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the openFDA food-event corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := pipeline.New(cfg).Fetch(context.Background(), forceFetch)
		if err != nil {
			return err
		}

		fmt.Println("\nFetch complete:")
		fmt.Printf("  Buckets: %d\n", result.Buckets)
		fmt.Printf("  Fetched: %d\n", result.BucketsFetched)
		fmt.Printf("  Already complete: %d\n", result.BucketsSkipped)
		fmt.Printf("  Failed: %d\n", result.Errors)
		fmt.Printf("  Pages saved: %d (%d records)\n", result.Pages, result.Records)
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&forceFetch, "force", false, "Re-download buckets already marked complete")
}

// --- analyze command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [year] [year] [product name...]",
	Short: "Aggregate the corpus into tables and charts",
	Long: `Aggregate the downloaded corpus. Arguments are free tokens: four-digit
tokens are years (none: default range start through the latest year in the
data; one: that year onward; two: inclusive range), all other tokens join
into a case-insensitive product-name filter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := aggregate.ParseQuery(args, cfg.Analyze.DefaultStartYear)

		out, err := pipeline.New(cfg).Analyze(q)
		if err != nil {
			return err
		}

		report.WriteText(os.Stdout, out.Stats)
		fmt.Printf("\nSaved chart: %s\n", out.ChartPath)
		fmt.Printf("Saved report: %s\n", out.ReportPath)
		return nil
	},
}

// --- run command ---

var forceRun bool

var runCmd = &cobra.Command{
	Use:   "run [year] [year] [product name...]",
	Short: "Fetch the corpus, then analyze it",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := aggregate.ParseQuery(args, cfg.Analyze.DefaultStartYear)

		result := pipeline.New(cfg).Run(context.Background(), q, forceRun)
		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		fmt.Println("\nDone. Run 'foodevents serve' to browse saved runs.")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&forceRun, "force", false, "Re-download buckets already marked complete")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local run viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg.GetChartDir(), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}
