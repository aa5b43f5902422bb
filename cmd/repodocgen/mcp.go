package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ellenaj0/RepoDocGen/internal/mcp"
	"github.com/ellenaj0/RepoDocGen/internal/storage"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio",
	Long: `Starts an MCP server speaking JSON-RPC over stdin/stdout, exposing the
index_repository, query_repository, and get_overview tools. All logging
goes to stderr so stdout stays clean for the protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srv, err := mcp.NewServer(cfg, flagDB)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		errCh := make(chan error, 1)
		go func() {
			log.Printf("starting MCP server (%s driver, %s build)", storage.DriverName, storage.BuildMode)
			errCh <- srv.Serve(ctx)
		}()

		select {
		case sig := <-sigCh:
			log.Printf("received %s, shutting down", sig)
			cancel()
			return nil
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
