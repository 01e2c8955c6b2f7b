// Package server exposes the indexed dependency graph over MCP
// (SPEC_FULL.md §4.K), adapted from the teacher's tool/resource wiring
// against the new Node/Edge schema and internal/store query surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codemap/internal/store"
)

// IndexStatus is the lifecycle state of the background/on-demand indexing
// run, mirroring the teacher's status-channel pattern.
type IndexStatus string

const (
	IndexStatusInProgress IndexStatus = "in_progress"
	IndexStatusReady      IndexStatus = "ready"
	IndexStatusFailed     IndexStatus = "failed"
)

const usageGuidelines = `# CodeMap MCP Server

This server exposes a static dependency graph extracted from a Java source
tree. Call "index" once before anything else; the query tools wait for
the first index run to finish (reporting its error if it failed) and
answer from the store's point queries, not by re-running the pipeline.

- get_symbols_in_file: the declarations in one file.
- get_symbol: where a symbol is declared, optionally with its source text.
- find_impact: everything that (transitively) calls, uses, overrides, or
  instantiates a symbol.
- get_hierarchy: the base classes and implemented interfaces (and their
  transitive base/interfaces) of a type, plus its subtypes.
- get_overrides: the override relation for a method in both directions.
`

// Server is the MCP surface over one workspace's indexed graph.
type Server struct {
	mcpServer *mcp.Server
	store     *store.Store
	root      string

	systemPrompt string

	indexMu       sync.RWMutex
	indexStatus   IndexStatus
	indexErr      error
	indexReady    chan struct{}
	indexDuration time.Duration
}

// New builds a Server over store, rooted at root (the workspace the
// "index" tool will (re)scan). The MCP tools/resources are registered
// immediately; New starts no indexing itself. A run happens when the
// "index" tool is called, or is reported by the caller through
// MarkIndexReady/MarkIndexFailed.
func New(root string, st *store.Store) *Server {
	s := &Server{
		store:        st,
		root:         root,
		systemPrompt: usageGuidelines,
		indexReady:   make(chan struct{}),
	}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "codemap",
		Version: "0.1.0",
	}, nil)
	s.registerTools()
	s.registerResources()
	return s
}

// Run blocks serving MCP requests over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// setIndexStatus records the outcome of an indexing run and, on entering a
// terminal state (Ready or Failed), closes indexReady to release every
// WaitForIndex caller — a failed first index shouldn't make every other
// tool call block for the full wait timeout before reporting the error.
func (s *Server) setIndexStatus(status IndexStatus, err error, duration time.Duration) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.indexStatus = status
	s.indexErr = err
	s.indexDuration = duration
	if status == IndexStatusReady || status == IndexStatusFailed {
		select {
		case <-s.indexReady:
			// already closed (re-index completing after a reset channel swap)
		default:
			close(s.indexReady)
		}
	}
}

// MarkIndexReady records a successful indexing run performed outside the
// "index" MCP tool (e.g. the CLI's startup index before serving).
func (s *Server) MarkIndexReady(duration time.Duration) {
	s.setIndexStatus(IndexStatusReady, nil, duration)
}

// MarkIndexFailed records a failed indexing run performed outside the
// "index" MCP tool.
func (s *Server) MarkIndexFailed(err error) {
	s.setIndexStatus(IndexStatusFailed, err, 0)
}

// GetIndexStatus reports the current status, the last error (if failed),
// and how long the most recently completed run took.
func (s *Server) GetIndexStatus() (IndexStatus, error, time.Duration) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	return s.indexStatus, s.indexErr, s.indexDuration
}

// WaitForIndex blocks until the first index completes (successfully or
// not) or ctx is done.
func (s *Server) WaitForIndex(ctx context.Context) error {
	s.indexMu.RLock()
	ready := s.indexReady
	s.indexMu.RUnlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("server: wait for index: %w", ctx.Err())
	}
}

var errIndexInProgress = errors.New("index already in progress")
