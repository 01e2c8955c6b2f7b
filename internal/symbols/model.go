// Package symbols walks a parsed Java tree once and produces the raw
// declarations (types, methods, constructors, fields, imports) that
// internal/analyzer turns into a graph. This is spec stage B, the Symbol
// Extractor (SPEC_FULL.md §4.B).
package symbols

import sitter "github.com/tree-sitter/go-tree-sitter"

// Import is a single-type or on-demand (wildcard) import declaration.
type Import struct {
	Path     string // "java.util.List" or "java.util" for on-demand
	OnDemand bool
	Static   bool
}

// Param is a single formal parameter, already textually typed (generics not
// yet erased — erasure happens when a canonical signature is computed).
type Param struct {
	Name string
	Type string
}

// TypeKind distinguishes the four Java type-declaration forms the extractor
// recognizes. Enums and records are folded into graph.KindClass at emission
// time (SPEC_FULL.md §4.B/§9); TypeKind keeps that distinction around long
// enough to set the "modifiers" flag correctly.
type TypeKind string

const (
	TypeClass     TypeKind = "class"
	TypeInterface TypeKind = "interface"
	TypeEnum      TypeKind = "enum"
	TypeRecord    TypeKind = "record"
)

// Method is a method declaration belonging to a Type.
type Method struct {
	SimpleName string
	ReturnType string
	Params     []Param
	Modifiers  []string
	IsStatic   bool
	IsAbstract bool
	Body       *sitter.Node // nil for abstract/interface methods
	Node       *sitter.Node // the method_declaration node, for line_range/source
}

// Ctor is a constructor declaration belonging to a Type.
type Ctor struct {
	Params    []Param
	Modifiers []string
	Body      *sitter.Node
	Node      *sitter.Node
}

// Field is one declarator split out of a (possibly multi-declarator) field
// declaration.
type Field struct {
	SimpleName   string
	DeclaredType string
	Modifiers    []string
	IsStatic     bool
	Initializer  *sitter.Node // nil if no initializer expression
	Node         *sitter.Node
}

// Type is one class/interface/enum/record declaration, nested or top-level.
// Nested types carry their enclosing type's FQN as a dotted prefix
// (SPEC_FULL.md §4.B).
type Type struct {
	Kind       TypeKind
	SimpleName string
	FQN        string
	Extends    []string // class: at most one; interface: zero or more
	Implements []string // class implementing interfaces; empty for interfaces
	Modifiers  []string

	Methods []Method
	Ctors   []Ctor
	Fields  []Field
	Nested  []*Type

	Node *sitter.Node
}

// File is everything extracted from one parsed compilation unit.
type File struct {
	Path    string
	Package string // "" means the sentinel default package
	Imports []Import
	Types   []Type // top-level types only; nested types hang off Type.Nested

	Source []byte
}
