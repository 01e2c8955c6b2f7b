package server

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codemap/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codemap.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func writeJavaFile(t *testing.T, dir, rel, contents string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWaitForIndexTimesOutBeforeFirstIndex(t *testing.T) {
	s := New(t.TempDir(), openTestStore(t))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.WaitForIndex(ctx); err == nil {
		t.Error("expected WaitForIndex to time out before any index runs")
	}
}

func TestMarkIndexReadyUnblocksWait(t *testing.T) {
	s := New(t.TempDir(), openTestStore(t))

	done := make(chan error, 1)
	go func() { done <- s.WaitForIndex(context.Background()) }()

	s.MarkIndexReady(5 * time.Millisecond)

	if err := <-done; err != nil {
		t.Errorf("WaitForIndex after MarkIndexReady: %v", err)
	}
	status, err, duration := s.GetIndexStatus()
	if status != IndexStatusReady {
		t.Errorf("status = %v, want Ready", status)
	}
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if duration != 5*time.Millisecond {
		t.Errorf("duration = %v, want 5ms", duration)
	}
}

func TestMarkIndexFailedUnblocksWaitWithError(t *testing.T) {
	s := New(t.TempDir(), openTestStore(t))
	wantErr := errors.New("boom")

	done := make(chan error, 1)
	go func() { done <- s.WaitForIndex(context.Background()) }()

	s.MarkIndexFailed(wantErr)

	// WaitForIndex itself returns nil: it only reports whether indexing
	// reached a terminal state, not whether that state was success.
	if err := <-done; err != nil {
		t.Errorf("WaitForIndex after MarkIndexFailed: %v", err)
	}
	status, err, _ := s.GetIndexStatus()
	if status != IndexStatusFailed {
		t.Errorf("status = %v, want Failed", status)
	}
	if !errors.Is(err, wantErr) && err.Error() != wantErr.Error() {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestWithIndexWaitReportsFailureWithoutWaitingOutTheTimeout(t *testing.T) {
	s := New(t.TempDir(), openTestStore(t))
	s.MarkIndexFailed(errors.New("parse explosion"))

	handler := withIndexWait(s, func(ctx context.Context, args GetSymbolArgs) (*mcp.CallToolResult, any, error) {
		t.Fatal("handler should not run after a failed index")
		return nil, nil, nil
	})

	start := time.Now()
	var req *mcp.CallToolRequest
	result, _, err := handler(context.Background(), req, GetSymbolArgs{SymbolName: "Foo"})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result after a failed index")
	}
	if elapsed > time.Second {
		t.Errorf("withIndexWait took %v, expected to return promptly on a failed index", elapsed)
	}
}

func TestBuildSchemaMapCoversEveryTool(t *testing.T) {
	m := buildSchemaMap()
	for _, name := range []string{"index", "index_status", "get_symbols_in_file", "find_impact", "get_symbol", "get_hierarchy", "get_overrides"} {
		schema, ok := m[name]
		if !ok {
			t.Errorf("missing schema for tool %q", name)
			continue
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(schema), &parsed); err != nil {
			t.Errorf("schema for %q is not valid JSON: %v", name, err)
		}
	}
}

func TestToRepoRelativePathAcceptsURIOrRelativePath(t *testing.T) {
	root := t.TempDir()
	s := New(root, openTestStore(t))

	if got := s.toRepoRelativePath("com/example/Greeter.java"); got != "com/example/Greeter.java" {
		t.Errorf("relative path passthrough = %q", got)
	}

	uri := "file://" + filepath.ToSlash(filepath.Join(root, "com/example/Greeter.java"))
	if got := s.toRepoRelativePath(uri); got != filepath.Join("com/example/Greeter.java") {
		t.Errorf("toRepoRelativePath(%q) = %q, want com/example/Greeter.java", uri, got)
	}
}

func TestRunIndexPersistsIntoStore(t *testing.T) {
	root := t.TempDir()
	writeJavaFile(t, root, "com/example/Greeter.java", `package com.example;

class Greeter {
    String greet(String name) {
        return "hello " + name;
    }
}
`)
	t.Setenv("CODEMAP_HOME", t.TempDir())

	st := openTestStore(t)
	s := New(root, st)

	result, err := s.runIndex(context.Background(), false)
	if err != nil {
		t.Fatalf("runIndex: %v", err)
	}
	if len(result.Nodes) == 0 {
		t.Error("expected at least one node from the analysis")
	}

	nodes, err := st.GetSymbolLocation(context.Background(), "Greeter")
	if err != nil {
		t.Fatalf("GetSymbolLocation: %v", err)
	}
	if len(nodes) == 0 {
		t.Error("expected the Greeter class to be queryable from the store after runIndex")
	}
}
