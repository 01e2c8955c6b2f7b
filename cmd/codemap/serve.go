package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"codemap/internal/server"
	"codemap/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		dbPath string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Index a tree of Java sources and serve the resulting graph over MCP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), serveOpts{
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

type serveOpts struct {
	path   string
	dbPath string
	force  bool
}

func runServe(ctx context.Context, opts serveOpts) error {
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

	srv := server.New(root, st)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		start := time.Now()
		result, hit, err := indexOnce(runCtx, root, dbPath, st, opts.force)
		duration := time.Since(start)
		if err != nil {
			srv.MarkIndexFailed(err)
			fmt.Fprintf(os.Stderr, "index failed: %v\n", err)
			return
		}
		srv.MarkIndexReady(duration)
		if hit {
			fmt.Fprintf(os.Stderr, "Cache hit for %s, serving stored graph\n", root)
			return
		}
		fmt.Fprintf(os.Stderr, "Indexed %d nodes and %d edges (%d diagnostics)\n",
			len(result.Nodes), len(result.Edges), len(result.Diagnostics))
	}()

	fmt.Fprintf(os.Stderr, "codemap serving %s over MCP (stdio)\n", root)
	if err := srv.Run(runCtx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
