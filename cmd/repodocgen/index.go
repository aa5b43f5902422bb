package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ellenaj0/RepoDocGen/internal/engine"
	"github.com/ellenaj0/RepoDocGen/internal/storage"
)

var flagNoPersist bool

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Index a repository: analyze, summarize, and build search indices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng, err := engine.New(cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Indexing %s...\n", root)
		start := time.Now()

		stats, err := eng.Index(cmd.Context(), root)
		if err != nil {
			return err
		}

		fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Files:    %d total, %d failed\n", stats.Files, stats.FailedFiles)
		fmt.Printf("  Chunks:   %d total, %d embedded\n", stats.Chunks, stats.EmbeddedChunks)
		if stats.DegradedNodes > 0 {
			fmt.Printf("  Degraded: %d summary nodes\n", stats.DegradedNodes)
		}

		if warnings := eng.Warnings(); len(warnings) > 0 {
			fmt.Printf("\n%d warnings:\n", len(warnings))
			for i, w := range warnings {
				if i == 10 {
					fmt.Printf("  ... and %d more\n", len(warnings)-10)
					break
				}
				fmt.Printf("  %s\n", w)
			}
		}

		if flagNoPersist {
			return nil
		}

		dbPath := dbPathFor(root)
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
		store, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		overview, err := eng.Overview()
		if err != nil {
			return err
		}
		run := &storage.Run{
			ID:       eng.RunID(),
			Root:     root,
			Analyses: eng.Analyses(),
			Summary:  overview,
			Chunks:   eng.Chunks(),
			Vectors:  eng.Vectors(),
			Warnings: eng.Warnings(),
		}
		if err := store.SaveRun(cmd.Context(), run); err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
		fmt.Printf("\nSaved run %s to %s\n", stats.RunID, dbPath)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&flagNoPersist, "no-persist", false, "skip saving the run to the database")
	rootCmd.AddCommand(indexCmd)
}
