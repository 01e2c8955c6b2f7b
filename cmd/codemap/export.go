package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codemap/internal/analyzer"
	"codemap/internal/discover"
	"codemap/internal/graph"
	"codemap/util"
)

func newExportCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Discover, parse, and analyze a tree of Java sources, writing the node/edge/symbol-table streams",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), exportOpts{
				path:      resolvePathArg(args),
				outputDir: outputDir,
			})
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "Directory to write nodes.jsonl/edges.jsonl/symbols.json into (default: one combined JSON document on stdout)")

	return cmd
}

type exportOpts struct {
	path      string
	outputDir string
}

func runExport(ctx context.Context, opts exportOpts) error {
	root, err := resolveRoot(opts.path)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Step 1/2: Discovering and analyzing %s...\n", root)
	discovered, err := discover.Discover(root)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	result, err := analyzer.AnalyzeFiles(nil, discovered)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	fmt.Fprintf(os.Stderr, "  %d nodes, %d edges, %d diagnostics\n",
		len(result.Nodes), len(result.Edges), len(result.Diagnostics))

	symbolTable := buildSymbolTable(root, result.Nodes)

	if opts.outputDir == "" {
		fmt.Fprintln(os.Stderr, "Step 2/2: Writing combined document to stdout...")
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"nodes":        result.Nodes,
			"edges":        result.Edges,
			"symbol_table": symbolTable,
		})
	}

	fmt.Fprintf(os.Stderr, "Step 2/2: Writing streams to %s...\n", opts.outputDir)
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", opts.outputDir, err)
	}

	if err := writeJSONL(filepath.Join(opts.outputDir, "nodes.jsonl"), result.Nodes); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(opts.outputDir, "edges.jsonl"), result.Edges); err != nil {
		return err
	}
	return writeJSON(filepath.Join(opts.outputDir, "symbols.json"), symbolTable)
}

// symbolTable mirrors the symbol index's contents (§6.2): every node keyed
// by its canonical id, plus the file:// URI each node's repo-relative path
// resolves to under root, for consumers that want a location a text editor
// can jump to directly.
type symbolTable struct {
	Nodes map[string]graph.Node `json:"nodes"`
	Files map[string]string     `json:"files"`
}

func buildSymbolTable(root string, nodes []graph.Node) symbolTable {
	table := symbolTable{
		Nodes: make(map[string]graph.Node, len(nodes)),
		Files: make(map[string]string),
	}
	for _, n := range nodes {
		table.Nodes[n.ID] = n
		if n.FilePath != "" {
			if _, ok := table.Files[n.FilePath]; !ok {
				table.Files[n.FilePath] = util.PathToURI(filepath.Join(root, n.FilePath))
			}
		}
	}
	return table
}

func writeJSONL[T any](path string, items []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
	}
	return w.Flush()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
