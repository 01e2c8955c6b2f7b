package analyzer

import "codemap/internal/graph"

// Assembler buffers nodes and edges, enforcing the uniqueness invariants
// from SPEC_FULL.md §3.3 and emitting every edge's documented inverse. It
// performs no I/O (§4.G).
type Assembler struct {
	nodes    []graph.Node
	nodeSeen map[string]bool

	edges    []graph.Edge
	edgeSeen map[string]bool

	diags []Diagnostic
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		nodeSeen: make(map[string]bool),
		edgeSeen: make(map[string]bool),
	}
}

// AddNode appends n unless its id was already seen, in which case it
// records a DuplicateSymbol diagnostic and drops n (first declaration wins,
// per spec invariant 1).
func (a *Assembler) AddNode(n graph.Node, filePath string) {
	if a.nodeSeen[n.ID] {
		a.diags = append(a.diags, Diagnostic{
			Kind:     DiagDuplicateSymbol,
			FilePath: filePath,
			Detail:   n.ID,
		})
		return
	}
	a.nodeSeen[n.ID] = true
	a.nodes = append(a.nodes, n)
}

// AddEdge appends the edge and its inverse, deduplicated by (src, label,
// dst) per spec invariant 2. resolved is looked up from the node set: if
// this method is used for containment/typed edges where the caller already
// knows resolution, use AddResolvedEdge instead.
func (a *Assembler) AddEdge(src string, label graph.Relation, dst string) {
	resolved := a.nodeSeen[dst]
	a.AddResolvedEdge(src, label, dst, resolved)
}

// AddResolvedEdge appends the edge and its inverse with an explicit
// resolved flag, for call sites that already determined resolution
// themselves (e.g. Stage E's unresolved synthetic targets, which are never
// in the node set but must still be tagged consistently with the resolver's
// own reasoning, not just set membership).
func (a *Assembler) AddResolvedEdge(src string, label graph.Relation, dst string, resolved bool) {
	a.addOne(src, label, dst, resolved)
	a.addOne(dst, graph.Inverse(label), src, resolved)
}

func (a *Assembler) addOne(src string, label graph.Relation, dst string, resolved bool) {
	key := src + "\x00" + string(label) + "\x00" + dst
	if a.edgeSeen[key] {
		return
	}
	a.edgeSeen[key] = true
	a.edges = append(a.edges, graph.Edge{Src: src, Label: label, Dst: dst, Resolved: resolved})
}

// AddDiagnostic records a non-fatal diagnostic (ParseError, UnresolvedReference).
func (a *Assembler) AddDiagnostic(d Diagnostic) {
	a.diags = append(a.diags, d)
}

// HasNode reports whether a node with the given id has been added.
func (a *Assembler) HasNode(id string) bool {
	return a.nodeSeen[id]
}

// Nodes returns the accumulated node set, in insertion order.
func (a *Assembler) Nodes() []graph.Node { return a.nodes }

// Edges returns the accumulated edge set (both directions of every pair),
// in insertion order.
func (a *Assembler) Edges() []graph.Edge { return a.edges }

// Diagnostics returns every non-fatal diagnostic recorded so far.
func (a *Assembler) Diagnostics() []Diagnostic { return a.diags }
