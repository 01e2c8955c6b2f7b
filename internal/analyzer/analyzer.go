// Package analyzer runs stages C-G of the dependency-graph pipeline: symbol
// indexing, hierarchy resolution, call/instantiation resolution, type-usage
// resolution, and graph assembly. Stages A-B live in internal/javaparse and
// internal/symbols; this package consumes their output.
package analyzer

import (
	"log/slog"
	"time"

	"codemap/internal/graph"
)

// Result is the frozen output of Run: the assembled graph plus every
// diagnostic raised along the way.
type Result struct {
	Nodes       []graph.Node
	Edges       []graph.Edge
	Diagnostics []Diagnostic
}

// Run executes stages C-G against files, which must already have passed
// through javaparse.Parse and symbols.Extract. It is single-threaded and
// synchronous by contract (SPEC_FULL.md §5): it returns only once the full
// graph is built, or aborts early with a MalformedSpanError.
//
// Per-stage timing is logged via log/slog rather than the rest of the
// codebase's plain log.Printf, matching the one pack precedent for
// structured pipeline-stage logging (SPEC_FULL.md §7.1).
func Run(logger *slog.Logger, files []SourceFile) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	asm := NewAssembler()
	idx := NewIndex()

	if err := timedStage(logger, "build", func() error {
		return NewBuilder(asm, idx).Build(files)
	}); err != nil {
		return nil, err
	}

	source := make(map[string][]byte, len(files))
	for _, f := range files {
		source[f.Extracted.Path] = f.Parsed.Source
	}

	timedStageVoid(logger, "hierarchy", func() { ResolveHierarchy(asm, idx) })
	timedStageVoid(logger, "calls", func() { ResolveCalls(asm, idx, source) })
	timedStageVoid(logger, "usage", func() { ResolveUsage(asm, idx) })

	return &Result{
		Nodes:       asm.Nodes(),
		Edges:       asm.Edges(),
		Diagnostics: asm.Diagnostics(),
	}, nil
}

func timedStage(logger *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	logger.Info("pass.timing", "stage", name, "duration", time.Since(start))
	return err
}

func timedStageVoid(logger *slog.Logger, name string, fn func()) {
	start := time.Now()
	fn()
	logger.Info("pass.timing", "stage", name, "duration", time.Since(start))
}
