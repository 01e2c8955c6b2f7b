package store

import (
	"context"
	"path/filepath"
	"testing"

	"codemap/internal/graph"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codemap.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleNodes() []graph.Node {
	return []graph.Node{
		{
			ID:         "class:p.A",
			Kind:       graph.KindClass,
			FilePath:   "A.java",
			LineRange:  graph.LineRange{Start: 1, End: 5},
			SourceCode: "class A {}",
			Attrs:      map[string]any{"simple_name": "A", "fqn": "p.A"},
		},
		{
			ID:         "class:p.B",
			Kind:       graph.KindClass,
			FilePath:   "B.java",
			LineRange:  graph.LineRange{Start: 1, End: 5},
			SourceCode: "class B extends A {}",
			Attrs:      map[string]any{"simple_name": "B", "fqn": "p.B"},
		},
	}
}

func TestBulkUpsertAndCount(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.BulkUpsertNodes(ctx, sampleNodes()); err != nil {
		t.Fatalf("BulkUpsertNodes: %v", err)
	}
	edges := []graph.Edge{
		{Src: "class:p.A", Label: graph.RelBaseClassOf, Dst: "class:p.B", Resolved: true},
		{Src: "class:p.B", Label: graph.RelDerivedClassOf, Dst: "class:p.A", Resolved: true},
	}
	if err := s.BulkUpsertEdges(ctx, edges); err != nil {
		t.Fatalf("BulkUpsertEdges: %v", err)
	}

	n, err := s.CountNodes(ctx)
	if err != nil || n != 2 {
		t.Fatalf("CountNodes = %d, %v, want 2, nil", n, err)
	}
	e, err := s.CountEdges(ctx)
	if err != nil || e != 2 {
		t.Fatalf("CountEdges = %d, %v, want 2, nil", e, err)
	}
}

func TestBulkUpsertNodesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	nodes := sampleNodes()
	if err := s.BulkUpsertNodes(ctx, nodes); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.BulkUpsertNodes(ctx, nodes); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	n, err := s.CountNodes(ctx)
	if err != nil || n != 2 {
		t.Fatalf("CountNodes after re-upsert = %d, %v, want 2, nil", n, err)
	}
}

func TestGetSymbolsInFile(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.BulkUpsertNodes(ctx, sampleNodes()); err != nil {
		t.Fatalf("BulkUpsertNodes: %v", err)
	}

	nodes, err := s.GetSymbolsInFile(ctx, "A.java")
	if err != nil {
		t.Fatalf("GetSymbolsInFile: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "class:p.A" {
		t.Fatalf("got %v, want [class:p.A]", nodes)
	}
}

func TestGetSymbolLocation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.BulkUpsertNodes(ctx, sampleNodes()); err != nil {
		t.Fatalf("BulkUpsertNodes: %v", err)
	}

	nodes, err := s.GetSymbolLocation(ctx, "B")
	if err != nil {
		t.Fatalf("GetSymbolLocation: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "class:p.B" {
		t.Fatalf("got %v, want [class:p.B]", nodes)
	}
}

func TestPruneStaleFiles(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.BulkUpsertNodes(ctx, sampleNodes()); err != nil {
		t.Fatalf("BulkUpsertNodes: %v", err)
	}
	edges := []graph.Edge{
		{Src: "class:p.A", Label: graph.RelBaseClassOf, Dst: "class:p.B", Resolved: true},
	}
	if err := s.BulkUpsertEdges(ctx, edges); err != nil {
		t.Fatalf("BulkUpsertEdges: %v", err)
	}

	if err := s.PruneStaleFiles(ctx, []string{"B.java"}); err != nil {
		t.Fatalf("PruneStaleFiles: %v", err)
	}

	n, err := s.CountNodes(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CountNodes after prune = %d, %v, want 1, nil", n, err)
	}
	e, err := s.CountEdges(ctx)
	if err != nil || e != 0 {
		t.Fatalf("CountEdges after prune = %d, %v, want 0, nil", e, err)
	}
}

func TestFindImpact(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	nodes := []graph.Node{
		{ID: "method:p.A#run()", Kind: graph.KindMethod, FilePath: "A.java",
			LineRange: graph.LineRange{Start: 1, End: 1}, SourceCode: "void run(){}",
			Attrs: map[string]any{"simple_name": "run"}},
		{ID: "method:p.B#main()", Kind: graph.KindMethod, FilePath: "B.java",
			LineRange: graph.LineRange{Start: 1, End: 1}, SourceCode: "void main(){}",
			Attrs: map[string]any{"simple_name": "main"}},
	}
	if err := s.BulkUpsertNodes(ctx, nodes); err != nil {
		t.Fatalf("BulkUpsertNodes: %v", err)
	}
	edges := []graph.Edge{
		{Src: "method:p.B#main()", Label: graph.RelCalls, Dst: "method:p.A#run()", Resolved: true},
		{Src: "method:p.A#run()", Label: graph.RelCalledBy, Dst: "method:p.B#main()", Resolved: true},
	}
	if err := s.BulkUpsertEdges(ctx, edges); err != nil {
		t.Fatalf("BulkUpsertEdges: %v", err)
	}

	impacted, err := s.FindImpact(ctx, "run")
	if err != nil {
		t.Fatalf("FindImpact: %v", err)
	}
	if len(impacted) != 1 || impacted[0].ID != "method:p.B#main()" {
		t.Fatalf("got %v, want [method:p.B#main()]", impacted)
	}
}
