// Command codemap is the CLI entry point for the Java dependency-graph
// analyzer: index a tree into a SQLite graph, serve it over MCP, or export
// its node/edge streams.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "codemap",
		Short: "Static dependency-graph analyzer for Java sources",
		Long: `codemap discovers .java files under a directory, builds a symbol and
dependency graph (classes, interfaces, methods, constructors, fields and
their relations), and stores, serves, or exports it.`,
	}

	rootCmd.AddCommand(
		newIndexCmd(),
		newServeCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
