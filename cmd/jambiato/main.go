package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"jambiato/internal/config"
	"jambiato/internal/paperdb"
	"jambiato/internal/reconcile"
	"jambiato/internal/release"
	"jambiato/internal/tags"
)

var (
	rootCmd = &cobra.Command{
		Use:   "jambiato",
		Short: "Keep code formula tags in sync with the latest paper release",
	}
	cfgPath  string
	cacheDir string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "jambiato.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Override the release database cache directory")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(scanCmd)
}

// loadConfig applies flag overrides on top of the configuration file.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	return cfg
}

func syncReleases(ctx context.Context, cfg *config.Config) string {
	client := release.NewClient(cfg.Paper.Repo, cfg.Paper.Token)
	latest, err := release.Sync(ctx, client, release.Options{
		CacheDir:     cfg.Cache.Dir,
		RootFile:     cfg.Paper.RootFile,
		MinVersion:   cfg.Paper.MinVersion,
		SectionPivot: cfg.Paper.SectionPivot,
	})
	if err != nil {
		log.Fatalf("Failed to fetch releases: %v", err)
	}
	return latest
}

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Reconcile a codebase's formula tags against the latest release",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig()

		// 1. Fetch and index releases (cache-respecting)
		latest := syncReleases(ctx, cfg)

		// 2. Load the per-release databases
		dbs, err := paperdb.LoadAll(cfg.Cache.Dir)
		if err != nil {
			log.Fatalf("Failed to load release databases: %v", err)
		}

		// 3. Scan the codebase for tags
		fmt.Printf("📂 Scanning %s\n", args[0])
		found, err := tags.NewScanner(cfg.Scan.Ignore).Scan(args[0])
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}

		// 4. Reconcile and report
		res := reconcile.Reconcile(dbs, latest, found)
		printReport(res, len(dbs[latest]))
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Fetch and index paper releases without scanning any code",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		latest := syncReleases(context.Background(), cfg)
		fmt.Printf("✅ Indexed releases up to %s (cache: %s)\n", latest, cfg.Cache.Dir)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "List the formula tags found in a codebase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		found, err := tags.NewScanner(cfg.Scan.Ignore).Scan(args[0])
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		for _, t := range found {
			fmt.Printf("%s:%d\t$(%s - %s)\n", t.File, t.Line, t.Version, t.Index)
		}
		fmt.Printf("Found %d tags\n", len(found))
	},
}
