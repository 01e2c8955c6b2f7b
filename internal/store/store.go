// Package store persists the analyzer's graph into SQLite and answers the
// point queries the MCP server needs without re-running the pipeline
// (SPEC_FULL.md §4.I).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"codemap/internal/graph"
)

// Store wraps a SQLite connection holding the nodes/edges/diagnostics
// tables.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	file_path TEXT NOT NULL,
	line_start INTEGER NOT NULL,
	line_end INTEGER NOT NULL,
	source_code TEXT NOT NULL,
	attrs_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_file_path ON nodes(file_path);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);

CREATE TABLE IF NOT EXISTS edges (
	src TEXT NOT NULL,
	label TEXT NOT NULL,
	dst TEXT NOT NULL,
	resolved INTEGER NOT NULL,
	PRIMARY KEY (src, label, dst)
);
CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst, label);
CREATE INDEX IF NOT EXISTS idx_edges_src ON edges(src, label);

CREATE TABLE IF NOT EXISTS diagnostics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	file_path TEXT NOT NULL,
	detail TEXT NOT NULL
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// BulkUpsertNodes inserts or updates every given node in a single
// transaction; rows whose id is not in nodes are left as they are.
func (s *Store) BulkUpsertNodes(ctx context.Context, nodes []graph.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin upsert nodes: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, kind, file_path, line_start, line_end, source_code, attrs_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, file_path=excluded.file_path,
			line_start=excluded.line_start, line_end=excluded.line_end,
			source_code=excluded.source_code, attrs_json=excluded.attrs_json`)
	if err != nil {
		return fmt.Errorf("store: prepare upsert nodes: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		attrsJSON, err := json.Marshal(n.Attrs)
		if err != nil {
			return fmt.Errorf("store: marshal attrs for %s: %w", n.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, n.ID, string(n.Kind), n.FilePath,
			n.LineRange.Start, n.LineRange.End, n.SourceCode, string(attrsJSON)); err != nil {
			return fmt.Errorf("store: upsert node %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// BulkUpsertEdges inserts or updates every given edge in a single
// transaction; rows not in edges are left as they are.
func (s *Store) BulkUpsertEdges(ctx context.Context, edges []graph.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin upsert edges: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (src, label, dst, resolved)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(src, label, dst) DO UPDATE SET resolved=excluded.resolved`)
	if err != nil {
		return fmt.Errorf("store: prepare upsert edges: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.Src, string(e.Label), e.Dst, e.Resolved); err != nil {
			return fmt.Errorf("store: upsert edge %s-%s->%s: %w", e.Src, e.Label, e.Dst, err)
		}
	}
	return tx.Commit()
}

// BulkInsertDiagnostics appends the pipeline's diagnostics for this run.
func (s *Store) BulkInsertDiagnostics(ctx context.Context, diags []Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin insert diagnostics: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO diagnostics (kind, file_path, detail) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert diagnostics: %w", err)
	}
	defer stmt.Close()

	for _, d := range diags {
		if _, err := stmt.ExecContext(ctx, d.Kind, d.FilePath, d.Detail); err != nil {
			return fmt.Errorf("store: insert diagnostic: %w", err)
		}
	}
	return tx.Commit()
}

// Diagnostic mirrors internal/analyzer.Diagnostic without importing it
// (store stays independent of the analyzer package).
type Diagnostic struct {
	Kind     string
	FilePath string
	Detail   string
}

// PruneStaleFiles deletes every node (and its edges) whose file_path is not
// in validFiles — the files that just produced a fresh set of nodes.
func (s *Store) PruneStaleFiles(ctx context.Context, validFiles []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin prune: %w", err)
	}
	defer tx.Rollback()

	keep := make(map[string]bool, len(validFiles))
	for _, f := range validFiles {
		keep[f] = true
	}

	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT file_path FROM nodes`)
	if err != nil {
		return fmt.Errorf("store: list known files: %w", err)
	}
	var stale []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			rows.Close()
			return fmt.Errorf("store: scan known file: %w", err)
		}
		if !keep[fp] {
			stale = append(stale, fp)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: list known files: %w", err)
	}

	for _, fp := range stale {
		if err := deleteFile(ctx, tx, fp); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func deleteFile(ctx context.Context, tx *sql.Tx, filePath string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM nodes WHERE file_path = ?`, filePath)
	if err != nil {
		return fmt.Errorf("store: list stale nodes for %s: %w", filePath, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("store: scan stale node: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: list stale nodes for %s: %w", filePath, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE file_path = ?`, filePath); err != nil {
		return fmt.Errorf("store: delete stale nodes for %s: %w", filePath, err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE src = ? OR dst = ?`, id, id); err != nil {
			return fmt.Errorf("store: delete stale edges for %s: %w", id, err)
		}
	}
	return nil
}

// GetSymbolsInFile returns every node declared in filePath, ordered by
// source position.
func (s *Store) GetSymbolsInFile(ctx context.Context, filePath string) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, file_path, line_start, line_end, source_code, attrs_json
		FROM nodes WHERE file_path = ? ORDER BY line_start, id`, filePath)
	if err != nil {
		return nil, fmt.Errorf("store: get symbols in file %s: %w", filePath, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetSymbolLocation finds every node whose simple_name attribute equals
// name, across all kinds.
func (s *Store) GetSymbolLocation(ctx context.Context, name string) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, file_path, line_start, line_end, source_code, attrs_json
		FROM nodes WHERE json_extract(attrs_json, '$.simple_name') = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("store: get symbol location %s: %w", name, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// FindImpact returns the closure of nodes reachable from every node named
// name by following CalledBy/UsedBy/OverriddenBy/InstantiatedBy edges —
// the "who depends on this" direction (SPEC_FULL.md §4.I).
func (s *Store) FindImpact(ctx context.Context, name string) ([]graph.Node, error) {
	roots, err := s.GetSymbolLocation(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, nil
	}

	impactLabels := []graph.Relation{
		graph.RelCalledBy, graph.RelUsedBy, graph.RelOverriddenBy, graph.RelInstantiatedBy,
	}

	visited := make(map[string]bool)
	var frontier []string
	for _, r := range roots {
		visited[r.ID] = true
		frontier = append(frontier, r.ID)
	}

	var impactedIDs []string
	for len(frontier) > 0 {
		id := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		for _, label := range impactLabels {
			rows, err := s.db.QueryContext(ctx,
				`SELECT dst FROM edges WHERE src = ? AND label = ?`, id, string(label))
			if err != nil {
				return nil, fmt.Errorf("store: find impact query: %w", err)
			}
			var next []string
			for rows.Next() {
				var dst string
				if err := rows.Scan(&dst); err != nil {
					rows.Close()
					return nil, fmt.Errorf("store: find impact scan: %w", err)
				}
				next = append(next, dst)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return nil, fmt.Errorf("store: find impact query: %w", err)
			}
			for _, dst := range next {
				if !visited[dst] {
					visited[dst] = true
					frontier = append(frontier, dst)
					impactedIDs = append(impactedIDs, dst)
				}
			}
		}
	}

	return s.getNodesByIDs(ctx, impactedIDs)
}

// GetHierarchy walks from the Class or Interface node named name in two
// separate passes, upward via DerivedClassOf/Implements and downward via
// BaseClassOf/ImplementedBy, returning every ancestor and descendant type
// node it reaches (siblings that only share an ancestor are not included).
func (s *Store) GetHierarchy(ctx context.Context, name string) ([]graph.Node, error) {
	roots, err := s.GetSymbolLocation(ctx, name)
	if err != nil {
		return nil, err
	}
	var typeRoots []graph.Node
	for _, r := range roots {
		if r.Kind == graph.KindClass || r.Kind == graph.KindInterface {
			typeRoots = append(typeRoots, r)
		}
	}
	if len(typeRoots) == 0 {
		return nil, nil
	}

	up := []graph.Relation{graph.RelDerivedClassOf, graph.RelImplements}
	down := []graph.Relation{graph.RelBaseClassOf, graph.RelImplementedBy}

	reported := make(map[string]bool)
	for _, r := range typeRoots {
		reported[r.ID] = true
	}

	var hierarchyIDs []string
	for _, labels := range [][]graph.Relation{up, down} {
		visited := make(map[string]bool)
		var frontier []string
		for _, r := range typeRoots {
			visited[r.ID] = true
			frontier = append(frontier, r.ID)
		}

		for len(frontier) > 0 {
			id := frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]

			for _, label := range labels {
				rows, err := s.db.QueryContext(ctx,
					`SELECT dst FROM edges WHERE src = ? AND label = ?`, id, string(label))
				if err != nil {
					return nil, fmt.Errorf("store: get hierarchy query: %w", err)
				}
				var next []string
				for rows.Next() {
					var dst string
					if err := rows.Scan(&dst); err != nil {
						rows.Close()
						return nil, fmt.Errorf("store: get hierarchy scan: %w", err)
					}
					next = append(next, dst)
				}
				rows.Close()
				if err := rows.Err(); err != nil {
					return nil, fmt.Errorf("store: get hierarchy query: %w", err)
				}
				for _, dst := range next {
					if !visited[dst] {
						visited[dst] = true
						frontier = append(frontier, dst)
						if !reported[dst] {
							reported[dst] = true
							hierarchyIDs = append(hierarchyIDs, dst)
						}
					}
				}
			}
		}
	}

	return s.getNodesByIDs(ctx, hierarchyIDs)
}

// GetOverrides returns the Overrides/OverriddenBy set for the method node
// named name.
func (s *Store) GetOverrides(ctx context.Context, name string) ([]graph.Node, error) {
	roots, err := s.GetSymbolLocation(ctx, name)
	if err != nil {
		return nil, err
	}
	var methodRoots []graph.Node
	for _, r := range roots {
		if r.Kind == graph.KindMethod {
			methodRoots = append(methodRoots, r)
		}
	}
	if len(methodRoots) == 0 {
		return nil, nil
	}

	var ids []string
	for _, r := range methodRoots {
		for _, label := range []graph.Relation{graph.RelOverrides, graph.RelOverriddenBy} {
			rows, err := s.db.QueryContext(ctx,
				`SELECT dst FROM edges WHERE src = ? AND label = ?`, r.ID, string(label))
			if err != nil {
				return nil, fmt.Errorf("store: get overrides query: %w", err)
			}
			for rows.Next() {
				var dst string
				if err := rows.Scan(&dst); err != nil {
					rows.Close()
					return nil, fmt.Errorf("store: get overrides scan: %w", err)
				}
				ids = append(ids, dst)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return nil, fmt.Errorf("store: get overrides query: %w", err)
			}
		}
	}
	return s.getNodesByIDs(ctx, ids)
}

func (s *Store) getNodesByIDs(ctx context.Context, ids []string) ([]graph.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, kind, file_path, line_start, line_end, source_code, attrs_json FROM nodes WHERE id IN (` +
		placeholders(len(ids)) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: get nodes by id: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

func placeholders(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}

// CountNodes returns the total number of stored nodes.
func (s *Store) CountNodes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count nodes: %w", err)
	}
	return n, nil
}

// CountEdges returns the total number of stored edges.
func (s *Store) CountEdges(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count edges: %w", err)
	}
	return n, nil
}

func scanNodes(rows *sql.Rows) ([]graph.Node, error) {
	var out []graph.Node
	for rows.Next() {
		var n graph.Node
		var kind, attrsJSON string
		if err := rows.Scan(&n.ID, &kind, &n.FilePath, &n.LineRange.Start, &n.LineRange.End, &n.SourceCode, &attrsJSON); err != nil {
			return nil, fmt.Errorf("store: scan node: %w", err)
		}
		n.Kind = graph.Kind(kind)
		if err := json.Unmarshal([]byte(attrsJSON), &n.Attrs); err != nil {
			return nil, fmt.Errorf("store: unmarshal attrs for %s: %w", n.ID, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan nodes: %w", err)
	}
	return out, nil
}
