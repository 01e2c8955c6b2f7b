// Package javaparse drives the Java tree-sitter grammar over raw file bytes
// (spec §4.A, the Source Parser stage). It never decodes bytes to strings
// except when slicing out a node's source_code for the final node schema.
package javaparse

import (
	"fmt"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tsjava "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// File is a parsed Java compilation unit: its tree, its raw bytes, and a
// byte-offset-to-line index built once at parse time.
type File struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree

	newlines []int // byte offsets of '\n', ascending
}

// javaLanguage is built once; go-tree-sitter languages are safe to share
// across parsers.
var javaLanguage = sitter.NewLanguage(tsjava.Language())

// Parse parses the given Java source bytes. A grammar failure never returns
// an error by itself — spec §4.A treats a parse failure as a ParseError
// diagnostic and an empty, skippable tree, not a paniced pipeline. Parse
// only returns an error when the parser itself could not be constructed,
// which would be a deployment problem (missing grammar), not a per-file one.
func Parse(path string, source []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(javaLanguage); err != nil {
		return nil, fmt.Errorf("javaparse: set language: %w", err)
	}

	tree := parser.Parse(source, nil)
	f := &File{Path: path, Source: source, Tree: tree}
	f.buildNewlineIndex()
	return f, nil
}

// Close releases the underlying tree-sitter tree.
func (f *File) Close() {
	if f.Tree != nil {
		f.Tree.Close()
	}
}

// RootNode returns the parse tree's root, or nil if parsing failed outright.
func (f *File) RootNode() *sitter.Node {
	if f.Tree == nil {
		return nil
	}
	return f.Tree.RootNode()
}

// HasErrors reports whether the tree contains any ERROR nodes, the signal
// spec §4.A's ParseError diagnostic is raised from.
func (f *File) HasErrors() bool {
	root := f.RootNode()
	if root == nil {
		return true
	}
	return root.HasError()
}

func (f *File) buildNewlineIndex() {
	f.newlines = f.newlines[:0]
	for i, b := range f.Source {
		if b == '\n' {
			f.newlines = append(f.newlines, i)
		}
	}
}

// ByteToLine converts a byte offset to a 1-indexed line number in O(log N)
// via binary search over the precomputed newline-offset table, per spec
// §4.A. This corrects the original_source/java_parser.py prototype's
// byte_to_line, which rescans from the start of the file (O(N)) on every
// call.
func (f *File) ByteToLine(offset uint) int {
	off := int(offset)
	// line = 1 + (number of newlines strictly before offset)
	idx := sort.Search(len(f.newlines), func(i int) bool {
		return f.newlines[i] >= off
	})
	return idx + 1
}

// LineCount returns the total number of lines in the source, used to bound
// line_range per spec invariant 6. A trailing newline ends the last line
// rather than starting an extra, empty one.
func (f *File) LineCount() int {
	n := len(f.newlines) + 1
	if len(f.Source) > 0 && f.Source[len(f.Source)-1] == '\n' {
		n--
	}
	return n
}

// Text returns the verbatim UTF-8 text for a node's byte span.
func Text(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return string(source[n.StartByte():n.EndByte()])
}
