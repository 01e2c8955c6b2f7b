package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/graph"
	"codemap/internal/javaparse"
	"codemap/internal/symbols"
)

// callScope is the visible-scope tuple from SPEC_FULL.md §4.E, narrowed to
// what a single method/constructor/field-initializer body needs: locals
// seen so far, the enclosing type's own and inherited fields, and that
// type's resolution context (package + imports) for static/type-name
// lookups.
type callScope struct {
	idx      *Index
	owner    *TypeInfo
	source   []byte
	locals   map[string]string // name -> raw declared type text
	fields   map[string]string // name -> raw declared type text (own + inherited)
	isStatic bool
}

func newCallScope(idx *Index, owner *TypeInfo, source []byte, isStatic bool) *callScope {
	s := &callScope{
		idx:      idx,
		owner:    owner,
		source:   source,
		locals:   make(map[string]string),
		fields:   make(map[string]string),
		isStatic: isStatic,
	}
	s.collectFields(owner.FQN, make(map[string]bool))
	return s
}

func (s *callScope) collectFields(fqn string, visited map[string]bool) {
	if fqn == "" || visited[fqn] {
		return
	}
	visited[fqn] = true
	t, ok := s.idx.Types[fqn]
	if !ok {
		return
	}
	for name, f := range s.idx.FieldsByOwner[fqn] {
		if _, exists := s.fields[name]; !exists {
			s.fields[name] = f.Sym.DeclaredType
		}
	}
	for _, raw := range t.Sym.Extends {
		if sup, ok := ResolveTypeName(s.idx, raw, t.Package, t.Imports); ok {
			s.collectFields(sup, visited)
		}
	}
	for _, raw := range t.Sym.Implements {
		if sup, ok := ResolveTypeName(s.idx, raw, t.Package, t.Imports); ok {
			s.collectFields(sup, visited)
		}
	}
}

func (s *callScope) resolveType(raw string) (string, bool) {
	return ResolveTypeName(s.idx, raw, s.owner.Package, s.owner.Imports)
}

// ResolveCalls runs Stage E (SPEC_FULL.md §4.E): method invocation and
// object creation resolution for every method body, constructor body, and
// field initializer in idx.
func ResolveCalls(asm *Assembler, idx *Index, source map[string][]byte) {
	overriders := collectOverriders(asm)

	for _, m := range idx.Methods {
		if m.Sym.Body == nil {
			continue
		}
		owner := idx.Types[m.OwnerFQN]
		if owner == nil {
			continue
		}
		src := source[owner.FilePath]
		scope := newCallScope(idx, owner, src, m.Sym.IsStatic)
		bindParams(scope, m.Sym.Params)
		walkCalls(m.Sym.Body, src, scope, m.ID, asm, overriders)
	}

	for _, c := range idx.Ctors {
		if c.Sym.Body == nil {
			continue
		}
		owner := idx.Types[c.OwnerFQN]
		if owner == nil {
			continue
		}
		src := source[owner.FilePath]
		scope := newCallScope(idx, owner, src, false)
		bindParams(scope, c.Sym.Params)
		walkCalls(c.Sym.Body, src, scope, c.ID, asm, overriders)
	}

	for _, flds := range idx.FieldsByOwner {
		for _, f := range flds {
			if f.Sym.Initializer == nil {
				continue
			}
			owner := idx.Types[f.OwnerFQN]
			if owner == nil {
				continue
			}
			src := source[owner.FilePath]
			scope := newCallScope(idx, owner, src, f.Sym.IsStatic)
			callerID := fieldInitializerCaller(idx, owner, f)
			walkCalls(f.Sym.Initializer, src, scope, callerID, asm, overriders)
		}
	}
}

func bindParams(scope *callScope, params []symbols.Param) {
	for _, p := range params {
		scope.locals[p.Name] = p.Type
	}
}

// fieldInitializerCaller picks the synthetic/real caller id for a field
// initializer per SPEC_FULL.md §6.1: static fields attribute to the
// owner's synthetic <clinit>; instance fields attribute to the owner's
// first declared constructor, or the (possibly nodeless) default
// constructor id if none is declared.
func fieldInitializerCaller(idx *Index, owner *TypeInfo, f *FieldInfo) string {
	if f.Sym.IsStatic {
		return graph.ClinitID(owner.FQN)
	}
	if ctors := idx.CtorsByOwner[owner.FQN]; len(ctors) > 0 {
		return ctors[0].ID
	}
	return graph.CtorID(owner.FQN, "")
}

func collectOverriders(asm *Assembler) map[string][]string {
	out := make(map[string][]string)
	for _, e := range asm.Edges() {
		if e.Label == graph.RelOverrides {
			out[e.Dst] = append(out[e.Dst], e.Src)
		}
	}
	return out
}

// walkCalls is the pre-order DFS over a body that maintains the locals map
// left-to-right per SPEC_FULL.md §4.E ("no flow analysis"): a
// local_variable_declaration's own initializer is walked against the scope
// as it stood before the declaration, and the new binding becomes visible
// to every subsequent sibling once the declaration node is fully processed.
func walkCalls(n *sitter.Node, src []byte, scope *callScope, callerID string, asm *Assembler, overriders map[string][]string) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "local_variable_declaration":
		typeNode := javaparse.ChildByField(n, "type")
		baseType := javaparse.Text(typeNode, src)
		for _, c := range javaparse.NamedChildren(n) {
			if c.Kind() != "variable_declarator" {
				continue
			}
			if val := javaparse.ChildByField(c, "value"); val != nil {
				walkCalls(val, src, scope, callerID, asm, overriders)
			}
		}
		for _, c := range javaparse.NamedChildren(n) {
			if c.Kind() != "variable_declarator" {
				continue
			}
			nameNode := javaparse.ChildByField(c, "name")
			if nameNode != nil {
				scope.locals[javaparse.Text(nameNode, src)] = baseType
			}
		}
		return
	case "method_invocation":
		resolveMethodInvocation(n, src, scope, callerID, asm, overriders)
	case "object_creation_expression":
		resolveObjectCreation(n, src, scope, callerID, asm)
	}
	for _, c := range javaparse.NamedChildren(n) {
		walkCalls(c, src, scope, callerID, asm, overriders)
	}
}

func resolveMethodInvocation(n *sitter.Node, src []byte, scope *callScope, callerID string, asm *Assembler, overriders map[string][]string) {
	name := javaparse.FieldText(n, "name", src)
	if name == "" {
		return
	}
	receiverFQN, receiverKnown := resolveReceiverType(n, src, scope)

	argList := javaparse.ChildByField(n, "arguments")
	argTypes, argsKnown := typeArguments(argList, src, scope)
	sig := graph.CanonicalSignature(canonicalizeAll(argTypes))

	if !receiverKnown || !argsKnown {
		emitUnresolvedCall(asm, callerID, bestGuessOwner(receiverFQN, receiverKnown), name)
		return
	}

	callee, ok := scope.idx.FindMethod(receiverFQN, name, sig)
	if !ok {
		emitUnresolvedCall(asm, callerID, receiverFQN, name)
		return
	}
	asm.AddResolvedEdge(callerID, graph.RelCalls, callee.ID, true)
	for _, overriderID := range overriders[callee.ID] {
		asm.AddResolvedEdge(callerID, graph.RelCalls, overriderID, true)
	}
}

func bestGuessOwner(receiverFQN string, receiverKnown bool) string {
	if receiverKnown && receiverFQN != "" {
		return receiverFQN
	}
	return "?"
}

func emitUnresolvedCall(asm *Assembler, callerID, owner, name string) {
	dst := graph.UnresolvedMethodID(owner, name)
	asm.AddResolvedEdge(callerID, graph.RelCalls, dst, false)
}

// resolveReceiverType implements SPEC_FULL.md §4.E step 1.
func resolveReceiverType(n *sitter.Node, src []byte, scope *callScope) (string, bool) {
	obj := javaparse.ChildByField(n, "object")
	if obj == nil {
		return scope.owner.FQN, true
	}
	return typeOfExpr(obj, src, scope)
}

// typeOfExpr best-effort types an expression against scope, per the same
// visible-scope tuple used for receivers, restricted to the handful of
// expression shapes that can be typed without full type inference. Unknown
// shapes (chained calls, arithmetic) return
// ok=false, which SPEC_FULL.md §4.E treats as "mark the call unresolved",
// never a guess.
func typeOfExpr(n *sitter.Node, src []byte, scope *callScope) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind() {
	case "this":
		return scope.owner.FQN, true
	case "super":
		if len(scope.owner.Sym.Extends) == 0 {
			return "", false
		}
		return scope.resolveType(scope.owner.Sym.Extends[0])
	case "parenthesized_expression":
		inner := firstNamed(n)
		return typeOfExpr(inner, src, scope)
	case "cast_expression":
		t := javaparse.FieldText(n, "type", src)
		return scope.resolveType(t)
	case "identifier":
		name := javaparse.Text(n, src)
		if t, ok := scope.locals[name]; ok {
			return scope.resolveType(t)
		}
		if t, ok := scope.fields[name]; ok {
			return scope.resolveType(t)
		}
		// Unqualified identifier matching no known local/field: treat as a
		// type name for a static member reference (SPEC_FULL.md §4.E step 1).
		if fqn, ok := scope.resolveType(name); ok {
			return fqn, true
		}
		return "", false
	case "field_access":
		fieldName := javaparse.FieldText(n, "field", src)
		objNode := javaparse.ChildByField(n, "object")
		if objNode != nil && objNode.Kind() == "this" {
			if t, ok := scope.fields[fieldName]; ok {
				return scope.resolveType(t)
			}
		}
		return "", false
	case "object_creation_expression":
		t := javaparse.FieldText(n, "type", src)
		return scope.resolveType(t)
	case "string_literal":
		return "String", true
	case "character_literal":
		return "char", true
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		return "int", true
	case "decimal_floating_point_literal":
		return "double", true
	case "true", "false":
		return "boolean", true
	default:
		return "", false
	}
}

func firstNamed(n *sitter.Node) *sitter.Node {
	children := javaparse.NamedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// typeArguments types every argument expression in an argument_list,
// returning ok=false as soon as any one is unknown (SPEC_FULL.md §4.E
// step 2: one unknown argument makes the whole call unresolved).
func typeArguments(argList *sitter.Node, src []byte, scope *callScope) ([]string, bool) {
	if argList == nil {
		return nil, true
	}
	var out []string
	for _, arg := range javaparse.NamedChildren(argList) {
		t, ok := typeOfExpr(arg, src, scope)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

func canonicalizeAll(types []string) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = graph.CanonicalType(t)
	}
	return out
}

func resolveObjectCreation(n *sitter.Node, src []byte, scope *callScope, callerID string, asm *Assembler) {
	rawType := javaparse.FieldText(n, "type", src)
	rawType = strings.TrimSpace(rawType)
	fqn, ok := scope.resolveType(rawType)
	classDst := graph.ClassID(fqn)
	if !ok {
		asm.AddResolvedEdge(callerID, graph.RelInstantiates, classDst, false)
		return
	}

	argList := javaparse.ChildByField(n, "arguments")
	argTypes, argsKnown := typeArguments(argList, src, scope)
	if !argsKnown {
		asm.AddResolvedEdge(callerID, graph.RelInstantiates, classDst, false)
		return
	}
	sig := graph.CanonicalSignature(canonicalizeAll(argTypes))
	if ctor, ok := scope.idx.FindCtor(fqn, sig); ok {
		asm.AddResolvedEdge(callerID, graph.RelInstantiates, ctor.ID, true)
		return
	}
	asm.AddResolvedEdge(callerID, graph.RelInstantiates, classDst, false)
}
