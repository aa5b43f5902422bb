// Command repodocgen analyzes a source repository, generates hierarchical
// documentation summaries, and answers questions about the code through
// hybrid keyword and semantic retrieval.
package main

import (
	"log"
	"os"
)

func main() {
	// Progress and diagnostics go to stderr; stdout carries command
	// output (and the MCP protocol in server mode)
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
