package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/simonL79/aria-ops-ai-sub008/internal/config"
	"github.com/simonL79/aria-ops-ai-sub008/internal/database"
	"github.com/simonL79/aria-ops-ai-sub008/internal/gateway"
	"github.com/simonL79/aria-ops-ai-sub008/internal/oracle"
	"github.com/simonL79/aria-ops-ai-sub008/internal/scan"
	"github.com/simonL79/aria-ops-ai-sub008/internal/score"
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
	Use:     "ariascan",
	Short:   "Reputation threat intelligence scanner",
	Long:    "ariascan scans public sources for mentions of a subject, scores reputational threats, maps co-mentioned entities, and aggregates a risk profile.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

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
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ariascan", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/ariascan/",
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
		fmt.Println("Edit it to configure sources, the labeling oracle, and the gateway.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Scan results:")
		fmt.Printf("  Total: %d\n", stats.TotalResults)
		fmt.Printf("  High severity: %d\n", stats.HighSeverity)
		fmt.Println("\nRelationship graph:")
		fmt.Printf("  Edges: %d\n", stats.GraphEdges)
		fmt.Println("\nProfiles:")
		fmt.Printf("  Total: %d\n", stats.Profiles)
		fmt.Printf("  Subjects: %d\n", stats.ProfiledSubjects)
		fmt.Printf("\nMission log entries: %d\n", stats.MissionLogRows)
		return nil
	},
}

// --- scan command ---

var (
	scanHints   []string
	scanDepth   int
	skipProfile bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <subject>",
	Short: "Run a live multi-source threat scan for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		subject := strings.TrimSpace(args[0])
		if subject == "" {
			return fmt.Errorf("subject must not be empty")
		}

		fmt.Printf("Scanning for %q...\n", subject)
		runner := scan.New(cfg, db)
		res := runner.Run(context.Background(), subject, scan.Options{
			Hints:           scanHints,
			Depth:           scanDepth,
			GenerateProfile: !skipProfile,
		})

		for i, step := range res.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(res.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if res.Summary != "" {
			fmt.Printf("\n%s\n", res.Summary)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanHints, "hints", nil, "Extra keywords to pair with the subject")
	scanCmd.Flags().IntVar(&scanDepth, "depth", 1, "Scan depth (2+ enables full-text enrichment)")
	scanCmd.Flags().BoolVar(&skipProfile, "no-profile", false, "Skip threat profile aggregation")
}

// --- profile command ---

var profileCmd = &cobra.Command{
	Use:   "profile <subject>",
	Short: "Show the most recent threat profile for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		p, err := db.GetLatestProfile(args[0])
		if err != nil {
			return err
		}
		if p == nil {
			fmt.Printf("No profile for %q. Run 'ariascan scan %q' first.\n", args[0], args[0])
			return nil
		}

		fmt.Printf("Subject: %s\n", p.EntityName)
		fmt.Printf("Threat level: %s (risk %.2f)\n", p.ThreatLevel, p.RiskScore)
		fmt.Printf("Mentions: %d, negative ratio %.2f\n", p.TotalMentions, p.NegativeSentimentScore)
		if len(p.PrimaryPlatforms) > 0 {
			fmt.Printf("Platforms: %s\n", strings.Join(p.PrimaryPlatforms, ", "))
		}
		if len(p.RelatedEntities) > 0 {
			fmt.Printf("Related entities: %s\n", strings.Join(p.RelatedEntities, ", "))
		}
		fmt.Printf("\n%s\n", p.FixPlan)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		authKey := cfg.AuthKey()
		if authKey == "" {
			return fmt.Errorf("gateway auth key is not set; export %s", cfg.Gateway.AuthKeyEnv)
		}

		o := cfg.Oracle
		provider := oracle.CreateProvider(o.Provider, o.Model, o.OllamaURL, o.OpenAIModel, o.APIKeyEnv)
		extractor := oracle.NewExtractor(provider, o.MaxTokens)

		var scorer score.Scorer = score.KeywordScorer{}
		if cfg.Gateway.OracleScore {
			scorer = score.NewOracleScorer(provider, o.MaxTokens)
		}

		srv := gateway.New(db, authKey, extractor, scorer, scan.New(cfg, db))

		port := cfg.Gateway.Port
		if servePort != 0 {
			port = servePort
		}
		fmt.Printf("Ingestion gateway listening on http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return http.ListenAndServe(fmt.Sprintf(":%d", port), srv.Handler())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Override the configured gateway port")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "ariascan.db")
	return database.Open(dbPath)
}
