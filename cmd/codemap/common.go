package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"codemap/internal/analyzer"
	"codemap/internal/cache"
	"codemap/internal/discover"
	"codemap/internal/store"
	"codemap/util"
)

// resolvePathArg returns the explicit path argument if one was given, or
// else defaults to the enclosing git repository root (falling back to the
// working directory if there isn't one), the same "no argument means the
// current workspace" default every teacher CLI command offers.
func resolvePathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	root, err := util.FindGitRoot()
	if err != nil {
		return "."
	}
	return root
}

func resolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", abs)
	}
	return abs, nil
}

func defaultDBPath(root string) string {
	return filepath.Join(root, ".codemap", "index.db")
}

// cacheKey hashes every discovered file's content across a bounded worker
// pool (each file's hash is independent of every other's) and reduces them
// into a single order-independent key via cache.Key.
func cacheKey(files []discover.File) string {
	digests := make([]cache.FileDigest, len(files))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			sum := sha256.Sum256(f.Bytes)
			digests[i] = cache.FileDigest{RelPath: f.RelPath, ContentHash: hex.EncodeToString(sum[:])}
			return nil
		})
	}
	_ = g.Wait()

	return cache.Key(digests)
}

// indexOnce discovers and analyzes root, consulting the cache unless force
// is set, and persists a fresh analysis into st. Returns the analysis result
// (nil on a cache hit, since nothing was re-parsed) and whether it was a hit.
func indexOnce(ctx context.Context, root, dbPath string, st *store.Store, force bool) (result *analyzer.Result, hit bool, err error) {
	discovered, err := discover.Discover(root)
	if err != nil {
		return nil, false, fmt.Errorf("discover: %w", err)
	}

	mgr, err := cache.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cache unavailable: %v\n", err)
		mgr = nil
	}

	key := cacheKey(discovered)
	if mgr != nil && !force {
		if has, hasErr := mgr.Has(key); hasErr == nil && has {
			return nil, true, nil
		}
	}

	result, err = analyzer.AnalyzeFiles(nil, discovered)
	if err != nil {
		return nil, false, fmt.Errorf("analyze: %w", err)
	}

	var validFiles []string
	for _, n := range result.Nodes {
		if n.FilePath != "" {
			validFiles = append(validFiles, n.FilePath)
		}
	}

	if err := st.BulkUpsertNodes(ctx, result.Nodes); err != nil {
		return nil, false, fmt.Errorf("store nodes: %w", err)
	}
	if err := st.PruneStaleFiles(ctx, validFiles); err != nil {
		fmt.Fprintf(os.Stderr, "warning: prune stale files failed: %v\n", err)
	}
	if err := st.BulkUpsertEdges(ctx, result.Edges); err != nil {
		return nil, false, fmt.Errorf("store edges: %w", err)
	}

	diags := make([]store.Diagnostic, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		diags[i] = store.Diagnostic{Kind: string(d.Kind), FilePath: d.FilePath, Detail: d.Detail}
	}
	if err := st.BulkInsertDiagnostics(ctx, diags); err != nil {
		fmt.Fprintf(os.Stderr, "warning: store diagnostics failed: %v\n", err)
	}

	if mgr != nil {
		meta := cache.Metadata{Key: key, NodeCount: len(result.Nodes), EdgeCount: len(result.Edges), DBPath: dbPath}
		if err := mgr.WriteMetadata(key, meta); err != nil {
			fmt.Fprintf(os.Stderr, "warning: write cache metadata failed: %v\n", err)
		}
	}

	return result, false, nil
}
