package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ellenaj0/RepoDocGen/internal/engine"
	"github.com/ellenaj0/RepoDocGen/internal/storage"
)

var (
	flagAskPath string
	flagAskTopK int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question about an indexed repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := args[0]

		root, err := filepath.Abs(flagAskPath)
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
		if err := restoreLatest(cmd, eng, root); err != nil {
			return err
		}

		answer, results, err := eng.Ask(cmd.Context(), question, flagAskTopK)
		if err != nil {
			return err
		}

		fmt.Println(answer)
		if len(results) > 0 {
			fmt.Println("\nSources:")
			for _, res := range results {
				fmt.Printf("  [%d] %s (score %.3f)\n", res.Rank, res.Source.String(), res.FusedScore)
			}
		}
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search an indexed repository and print the matching chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(flagAskPath)
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
		if err := restoreLatest(cmd, eng, root); err != nil {
			return err
		}

		results, err := eng.Query(cmd.Context(), args[0], flagAskTopK)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}

		for _, res := range results {
			fmt.Printf("[%d] %s\n", res.Rank, res.Source.String())
			fmt.Printf("    fused %.3f  keyword %.3f  semantic %.3f\n",
				res.FusedScore, res.LexicalScore, res.VectorScore)
			fmt.Printf("    %s\n\n", firstLine(res.Text))
		}
		return nil
	},
}

// restoreLatest loads the newest saved run for root into the engine
func restoreLatest(cmd *cobra.Command, eng *engine.Engine, root string) error {
	store, err := storage.Open(dbPathFor(root))
	if err != nil {
		return fmt.Errorf("open index database (run 'repodocgen index' first): %w", err)
	}
	defer func() { _ = store.Close() }()

	run, err := store.LoadLatestRun(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("no saved run for %s (run 'repodocgen index' first): %w", root, err)
	}
	return eng.Restore(run.ID, run.Root, run.Analyses, run.Summary, run.Chunks, run.Vectors, run.Warnings)
}

func firstLine(text string) string {
	for i, r := range text {
		if r == '\n' {
			return text[:i] + " ..."
		}
		if i > 160 {
			return text[:i] + "..."
		}
	}
	return text
}

func init() {
	askCmd.Flags().StringVar(&flagAskPath, "path", ".", "repository root")
	askCmd.Flags().IntVarP(&flagAskTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	queryCmd.Flags().StringVar(&flagAskPath, "path", ".", "repository root")
	queryCmd.Flags().IntVarP(&flagAskTopK, "top-k", "k", 0, "number of results (default from config)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(queryCmd)
}
