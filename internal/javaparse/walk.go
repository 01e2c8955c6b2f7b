package javaparse

import sitter "github.com/tree-sitter/go-tree-sitter"

// Walk visits n and every descendant in depth-first, pre-order. It mirrors
// the manual cursor-based walk in DeusData-codebase-memory-mcp's pipeline,
// but expressed as a plain recursive visitor without cursor save/restore.
//
// visit returns false to skip n's children.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		Walk(n.Child(i), visit)
	}
}

// NamedChildren returns n's named children (skipping anonymous/punctuation
// nodes), the slice form the extractor iterates over when scanning a
// class_body or formal_parameters list.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := n.NamedChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// ChildByField is a nil-safe wrapper around Node.ChildByFieldName.
func ChildByField(n *sitter.Node, field string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(field)
}

// FieldText returns the text of n's field-named child, or "" if absent.
func FieldText(n *sitter.Node, field string, source []byte) string {
	return Text(ChildByField(n, field), source)
}
