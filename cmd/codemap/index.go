package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codemap/internal/store"
)

func newIndexCmd() *cobra.Command {
	var (
		dbPath string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Discover, parse, and analyze a tree of Java sources into a SQLite graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), indexOpts{
				path:   resolvePathArg(args),
				dbPath: dbPath,
				force:  force,
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the SQLite graph database (default: <path>/.codemap/index.db)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-analyze even if the cache has a snapshot for the current tree")

	return cmd
}

type indexOpts struct {
	path   string
	dbPath string
	force  bool
}

func runIndex(ctx context.Context, opts indexOpts) error {
	root, err := resolveRoot(opts.path)
	if err != nil {
		return err
	}

	dbPath := opts.dbPath
	if dbPath == "" {
		dbPath = defaultDBPath(root)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	result, hit, err := indexOnce(ctx, root, dbPath, st, opts.force)
	if err != nil {
		return err
	}
	if hit {
		fmt.Fprintf(os.Stderr, "Cache hit for %s, nothing to re-analyze\n", root)
		return nil
	}

	fmt.Fprintf(os.Stderr, "Indexed %d nodes and %d edges into %s (%d diagnostics)\n",
		len(result.Nodes), len(result.Edges), dbPath, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "  %s\n", d.String())
	}
	return nil
}
