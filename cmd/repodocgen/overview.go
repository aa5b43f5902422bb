package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ellenaj0/RepoDocGen/internal/storage"
	"github.com/ellenaj0/RepoDocGen/pkg/types"
)

var flagOverviewDepth int

var overviewCmd = &cobra.Command{
	Use:   "overview [path]",
	Short: "Print the hierarchical summary of an indexed repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		root, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		store, err := storage.Open(dbPathFor(root))
		if err != nil {
			return fmt.Errorf("open index database (run 'repodocgen index' first): %w", err)
		}
		defer func() { _ = store.Close() }()

		run, err := store.LoadLatestRun(cmd.Context(), root)
		if err != nil {
			return fmt.Errorf("no saved run for %s (run 'repodocgen index' first): %w", root, err)
		}

		printNode(run.Summary, 0, flagOverviewDepth)
		return nil
	},
}

func printNode(n *types.SummaryNode, depth, maxDepth int) {
	indent := strings.Repeat("  ", depth)
	marker := ""
	if n.Degraded {
		marker = " [degraded]"
	}
	fmt.Printf("%s%s (%s)%s\n", indent, n.ID, n.Level, marker)
	fmt.Printf("%s  %s\n", indent, n.Text)
	if depth >= maxDepth {
		return
	}
	for _, child := range n.Children {
		printNode(child, depth+1, maxDepth)
	}
}

func init() {
	overviewCmd.Flags().IntVar(&flagOverviewDepth, "depth", 2, "levels of the tree to print below the root")
	rootCmd.AddCommand(overviewCmd)
}
