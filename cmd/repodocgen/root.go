package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ellenaj0/RepoDocGen/internal/config"
	"github.com/ellenaj0/RepoDocGen/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagConfig string
	flagDB     string
	flagAlpha  float64
)

var rootCmd = &cobra.Command{
	Use:   "repodocgen",
	Short: "Repository documentation and question answering",
	Long: `repodocgen builds hierarchical summaries of a source repository and
answers questions about it using hybrid keyword and semantic search.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default <repo>/.repodocgen/index.db)")
	rootCmd.PersistentFlags().Float64Var(&flagAlpha, "alpha", -1, "retrieval blend: 0 = pure keyword, 1 = pure semantic")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig builds the run configuration from defaults, the optional
// config file, environment overrides, and command-line flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagAlpha >= 0 {
		cfg.Alpha = flagAlpha
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// dbPathFor resolves the database path for a repository root
func dbPathFor(root string) string {
	if flagDB != "" {
		return flagDB
	}
	return filepath.Join(root, ".repodocgen", "index.db")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("repodocgen %s\n", version)
		fmt.Printf("  build time:    %s\n", buildTime)
		fmt.Printf("  build mode:    %s\n", storage.BuildMode)
		fmt.Printf("  sqlite driver: %s\n", storage.DriverName)
	},
}
