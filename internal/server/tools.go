package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codemap/internal/analyzer"
	"codemap/internal/cache"
	"codemap/internal/discover"
	"codemap/internal/graph"
	"codemap/util"
)

// toRepoRelativePath accepts either a repo-relative path or a file:// URI
// and returns a path relative to the server's indexed root, so MCP clients
// that hold a "codemap://" resource's underlying location can pass it back
// verbatim instead of having to strip the scheme themselves.
func (s *Server) toRepoRelativePath(filePath string) string {
	if !strings.HasPrefix(filePath, "file://") {
		return filePath
	}
	abs := util.URIToPath(filePath)
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return filePath
	}
	return rel
}

// Arguments structs

type IndexArgs struct {
	Force bool `json:"force" jsonschema:"description:Force a full re-index even if the cache has a snapshot for the current tree"`
}

type IndexStatusArgs struct{}

type GetSymbolsInFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"required,description:The repo-relative path to the file to inspect, or a file:// URI"`
}

type FindImpactArgs struct {
	SymbolName string `json:"symbol_name" jsonschema:"required,description:The name of the symbol to analyze for impact"`
}

type GetSymbolArgs struct {
	SymbolName string `json:"symbol_name" jsonschema:"required,description:The name of the symbol to locate"`
	WithSource bool   `json:"with_source" jsonschema:"description:If true, includes the node's source code in the response"`
}

type GetHierarchyArgs struct {
	TypeName string `json:"type_name" jsonschema:"required,description:The simple name of the class or interface to walk the hierarchy from"`
}

type GetOverridesArgs struct {
	MethodName string `json:"method_name" jsonschema:"required,description:The simple name of the method to find the override relation for"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "index",
		Description: "Discovers, parses, and analyzes the workspace's Java sources, updating the dependency graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IndexArgs) (*mcp.CallToolResult, any, error) {
		s.indexMu.RLock()
		inProgress := s.indexStatus == IndexStatusInProgress
		s.indexMu.RUnlock()
		if inProgress {
			return errorResult(errIndexInProgress.Error()), nil, nil
		}

		s.indexMu.Lock()
		if s.indexStatus == IndexStatusReady || s.indexStatus == IndexStatusFailed {
			s.indexReady = make(chan struct{})
		}
		s.indexMu.Unlock()

		s.setIndexStatus(IndexStatusInProgress, nil, 0)
		start := time.Now()

		result, err := s.runIndex(ctx, args.Force)
		duration := time.Since(start)
		if err != nil {
			s.setIndexStatus(IndexStatusFailed, err, duration)
			return errorResult(fmt.Sprintf("Index failed: %v", err)), nil, nil
		}

		s.setIndexStatus(IndexStatusReady, nil, duration)
		msg := fmt.Sprintf("Indexed %d nodes and %d edges in %.2fs (%d diagnostics)",
			len(result.Nodes), len(result.Edges), duration.Seconds(), len(result.Diagnostics))
		return textResult(msg), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "index_status",
		Description: "Returns the current indexing status of the workspace",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IndexStatusArgs) (*mcp.CallToolResult, any, error) {
		status, err, duration := s.GetIndexStatus()

		result := map[string]any{"status": string(status)}
		if duration > 0 {
			result["duration_seconds"] = duration.Seconds()
		}
		if err != nil {
			result["error"] = err.Error()
		}

		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_symbols_in_file",
		Description: "Returns every declaration in a file",
	}, withIndexWait(s, func(ctx context.Context, args GetSymbolsInFileArgs) (*mcp.CallToolResult, any, error) {
		nodes, err := s.store.GetSymbolsInFile(ctx, s.toRepoRelativePath(args.FilePath))
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		return jsonResult(simplify(nodes)), nil, nil
	}))

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_impact",
		Description: "Finds everything that transitively calls, uses, overrides, or instantiates a symbol",
	}, withIndexWait(s, func(ctx context.Context, args FindImpactArgs) (*mcp.CallToolResult, any, error) {
		nodes, err := s.store.FindImpact(ctx, args.SymbolName)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if len(nodes) == 0 {
			return textResult("No impacted symbols found."), nil, nil
		}
		return jsonResult(simplify(nodes)), nil, nil
	}))

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_symbol",
		Description: "Finds the location and optionally the source code of a symbol",
	}, withIndexWait(s, func(ctx context.Context, args GetSymbolArgs) (*mcp.CallToolResult, any, error) {
		nodes, err := s.store.GetSymbolLocation(ctx, args.SymbolName)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if len(nodes) == 0 {
			return textResult("Symbol not found."), nil, nil
		}
		if !args.WithSource {
			for i := range nodes {
				nodes[i].SourceCode = ""
			}
		}
		return jsonResult(nodes), nil, nil
	}))

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_hierarchy",
		Description: "Walks the base-class and implemented-interface chain (and subtypes) of a class or interface",
	}, withIndexWait(s, func(ctx context.Context, args GetHierarchyArgs) (*mcp.CallToolResult, any, error) {
		nodes, err := s.store.GetHierarchy(ctx, args.TypeName)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if len(nodes) == 0 {
			return textResult("No hierarchy found for that type."), nil, nil
		}
		return jsonResult(simplify(nodes)), nil, nil
	}))

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_overrides",
		Description: "Lists the Overrides/OverriddenBy set for a method",
	}, withIndexWait(s, func(ctx context.Context, args GetOverridesArgs) (*mcp.CallToolResult, any, error) {
		nodes, err := s.store.GetOverrides(ctx, args.MethodName)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if len(nodes) == 0 {
			return textResult("No override relation found for that method."), nil, nil
		}
		return jsonResult(simplify(nodes)), nil, nil
	}))
}

// withIndexWait wraps a tool handler so it blocks for the first index to
// complete before running, returning the same diagnosable error shapes the
// teacher's tools used for "still indexing"/"indexing failed".
func withIndexWait[A any](s *Server, handler func(context.Context, A) (*mcp.CallToolResult, any, error)) func(context.Context, *mcp.CallToolRequest, A) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args A) (*mcp.CallToolResult, any, error) {
		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.WaitForIndex(waitCtx); err != nil {
			status, indexErr, _ := s.GetIndexStatus()
			if indexErr != nil {
				return errorResult(fmt.Sprintf("Indexing failed: %v", indexErr)), nil, nil
			}
			if status == IndexStatusInProgress {
				return errorResult("Indexing in progress, please try again"), nil, nil
			}
			return errorResult(fmt.Sprintf("Indexing wait failed: %v", err)), nil, nil
		}
		if status, indexErr, _ := s.GetIndexStatus(); indexErr != nil || status == IndexStatusFailed {
			return errorResult(fmt.Sprintf("Indexing failed: %v", indexErr)), nil, nil
		}
		return handler(ctx, args)
	}
}

// runIndex discovers and analyzes s.root, consulting the cache unless force
// is set, and persists the result into s.store.
func (s *Server) runIndex(ctx context.Context, force bool) (*analyzer.Result, error) {
	discovered, err := discover.Discover(s.root)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	mgr, err := cache.NewManager()
	if err != nil {
		log.Printf("server: warning: cache unavailable: %v", err)
		mgr = nil
	}

	key := cacheKey(discovered)
	if mgr != nil && !force {
		if has, _ := mgr.Has(key); has {
			log.Printf("server: cache hit for %s, skipping re-analysis", key)
			return s.resultFromStore(ctx)
		}
	}

	result, err := analyzer.AnalyzeFiles(nil, discovered)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	var validFiles []string
	for _, n := range result.Nodes {
		if n.FilePath != "" {
			validFiles = append(validFiles, n.FilePath)
		}
	}

	if err := s.store.BulkUpsertNodes(ctx, result.Nodes); err != nil {
		return nil, fmt.Errorf("store nodes: %w", err)
	}
	if err := s.store.PruneStaleFiles(ctx, validFiles); err != nil {
		log.Printf("server: warning: prune stale files failed: %v", err)
	}
	if err := s.store.BulkUpsertEdges(ctx, result.Edges); err != nil {
		return nil, fmt.Errorf("store edges: %w", err)
	}

	if mgr != nil {
		meta := cache.Metadata{
			Key:       key,
			NodeCount: len(result.Nodes),
			EdgeCount: len(result.Edges),
		}
		if err := mgr.WriteMetadata(key, meta); err != nil {
			log.Printf("server: warning: write cache metadata failed: %v", err)
		}
	}

	return result, nil
}

// resultFromStore builds a Result-shaped summary from the store's current
// contents, for the cache-hit path where the pipeline itself doesn't run.
func (s *Server) resultFromStore(ctx context.Context) (*analyzer.Result, error) {
	nodeCount, err := s.store.CountNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	edgeCount, err := s.store.CountEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}
	return &analyzer.Result{
		Nodes: make([]graph.Node, nodeCount),
		Edges: make([]graph.Edge, edgeCount),
	}, nil
}

// cacheKey hashes every discovered file's content across a bounded worker
// pool and reduces the results into a single order-independent key.
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

// simpleNode is the compact projection the teacher's tools returned instead
// of the full node (source code, full attrs) for listing-style results.
type simpleNode struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	FilePath  string `json:"file_path"`
	LineRange string `json:"line_range"`
	Name      string `json:"name,omitempty"`
}

func simplify(nodes []graph.Node) []simpleNode {
	out := make([]simpleNode, len(nodes))
	for i, n := range nodes {
		name, _ := n.Attrs["simple_name"].(string)
		out[i] = simpleNode{
			ID:        n.ID,
			Kind:      string(n.Kind),
			FilePath:  n.FilePath,
			LineRange: fmt.Sprintf("%d-%d", n.LineRange.Start, n.LineRange.End),
			Name:      name,
		}
	}
	return out
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to marshal result: %v", err))
	}
	return textResult(string(jsonBytes))
}
