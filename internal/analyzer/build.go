package analyzer

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/graph"
	"codemap/internal/javaparse"
	"codemap/internal/symbols"
)

// SourceFile pairs one file's Stage A parse tree with its Stage B
// extraction, the unit the Builder consumes.
type SourceFile struct {
	Parsed    *javaparse.File
	Extracted *symbols.File
}

// Builder turns a set of SourceFiles into the Stage C Index plus the
// Module/Class/Interface/Method/Constructor/Field nodes and containment
// edges that Stage B's own contract (SPEC_FULL.md §4.B) calls for. Node
// construction lives here, next to the Index, because both need the same
// line_range/FQN bookkeeping and because the Index stores pointers into
// the same symbols.Type/Method/Ctor/Field values the nodes are built from.
//
// Build runs in two passes: pass one registers every Class/Interface node
// (across all files) so idx.Types is complete; pass two builds members,
// which needs the complete type set to normalize parameter/return types to
// FQNs for the resolver's lookup keys (see resolvedParamTypes).
type Builder struct {
	asm *Assembler
	idx *Index

	pending []pendingType
}

type pendingType struct {
	t        *symbols.Type
	f        SourceFile
	ownerID  string
	pkg      string
}

// NewBuilder returns a Builder writing into asm and idx.
func NewBuilder(asm *Assembler, idx *Index) *Builder {
	return &Builder{asm: asm, idx: idx}
}

// Build walks every file's extracted declarations, emitting nodes and
// containment edges into the Assembler and populating the Index. It
// returns a MalformedSpanError and aborts immediately if any node's line
// range violates spec invariant 6, since that diagnostic is pipeline-fatal
// (SPEC_FULL.md §7).
func (b *Builder) Build(files []SourceFile) error {
	for _, f := range files {
		if err := b.registerFile(f); err != nil {
			return err
		}
	}
	for _, p := range b.pending {
		if err := b.buildMembers(p.t, p.f, p.ownerID, p.pkg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) registerFile(f SourceFile) error {
	pkg := f.Extracted.Package
	moduleID := graph.ModuleID(pkg)
	if !b.asm.HasNode(moduleID) {
		b.asm.AddNode(graph.Node{
			ID:   moduleID,
			Kind: graph.KindModule,
			Attrs: map[string]any{
				"package_name": pkgOrSentinel(pkg),
			},
		}, f.Extracted.Path)
	}

	for i := range f.Extracted.Types {
		if err := b.registerType(&f.Extracted.Types[i], f, moduleID, pkg); err != nil {
			return err
		}
	}
	return nil
}

func pkgOrSentinel(pkg string) string {
	if pkg == "" {
		return graph.SentinelPackage
	}
	return pkg
}

func (b *Builder) registerType(t *symbols.Type, f SourceFile, parentID, pkg string) error {
	isInterface := t.Kind == symbols.TypeInterface
	nodeID := graph.ClassID(t.FQN)
	kind := graph.KindClass
	if isInterface {
		nodeID = graph.InterfaceID(t.FQN)
		kind = graph.KindInterface
	}

	lr, src, err := b.span(t.Node, f)
	if err != nil {
		return err
	}

	attrs := map[string]any{
		"simple_name": t.SimpleName,
		"modifiers":   modifiersAttr(t.Modifiers, t.Kind),
	}
	if isInterface {
		attrs["fqn"] = t.FQN
		attrs["extends"] = append([]string{}, t.Extends...)
	} else {
		attrs["fqn"] = t.FQN
		if len(t.Extends) > 0 {
			attrs["extends"] = t.Extends[0]
		} else {
			attrs["extends"] = nil
		}
		attrs["implements"] = append([]string{}, t.Implements...)
	}

	b.asm.AddNode(graph.Node{
		ID:         nodeID,
		Kind:       kind,
		FilePath:   f.Extracted.Path,
		LineRange:  lr,
		SourceCode: src,
		Attrs:      attrs,
	}, f.Extracted.Path)
	b.asm.AddEdge(parentID, graph.RelParentOf, nodeID)

	b.idx.addType(&TypeInfo{
		Sym:         t,
		FQN:         t.FQN,
		FilePath:    f.Extracted.Path,
		Package:     pkg,
		Imports:     f.Extracted.Imports,
		IsInterface: isInterface,
	})
	b.pending = append(b.pending, pendingType{t: t, f: f, ownerID: nodeID, pkg: pkg})

	for _, nested := range t.Nested {
		// Nested types are emitted as top-level Class/Interface nodes with a
		// dotted FQN (spec invariant 3: no class is ever the child of
		// another class); they are NOT ParentOf-linked to their enclosing
		// type, only to the Module, matching the top-level case.
		if err := b.registerType(nested, f, parentID, pkg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildMembers(t *symbols.Type, f SourceFile, nodeID, pkg string) error {
	for i := range t.Methods {
		if err := b.buildMethod(&t.Methods[i], t, f, nodeID); err != nil {
			return err
		}
	}
	for i := range t.Ctors {
		if err := b.buildCtor(&t.Ctors[i], t, f, nodeID); err != nil {
			return err
		}
	}
	for i := range t.Fields {
		if err := b.buildField(&t.Fields[i], t, f, nodeID); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildMethod(m *symbols.Method, owner *symbols.Type, f SourceFile, ownerNodeID string) error {
	sig := graph.CanonicalSignature(canonicalParamTypes(m.Params))
	id := graph.MethodID(owner.FQN, m.SimpleName, sig)

	lr, src, err := b.span(m.Node, f)
	if err != nil {
		return err
	}

	b.asm.AddNode(graph.Node{
		ID:         id,
		Kind:       graph.KindMethod,
		FilePath:   f.Extracted.Path,
		LineRange:  lr,
		SourceCode: src,
		Attrs: map[string]any{
			"simple_name": m.SimpleName,
			"owner_fqn":   owner.FQN,
			"return_type": graph.CanonicalType(m.ReturnType),
			"params":      paramAttrs(m.Params),
			"signature":   sig,
			"is_static":   m.IsStatic,
			"modifiers":   append([]string{}, m.Modifiers...),
			"is_abstract": m.IsAbstract,
		},
	}, f.Extracted.Path)
	b.asm.AddEdge(ownerNodeID, graph.RelParentOf, id)

	info := &MethodInfo{Sym: m, OwnerFQN: owner.FQN, Signature: sig, ID: id}
	b.idx.addMethod(info)
	if ownerInfo := b.idx.Types[owner.FQN]; ownerInfo != nil {
		resolvedSig := graph.CanonicalSignature(resolvedParamTypes(m.Params, ownerInfo, b.idx))
		b.idx.indexMethodByResolvedKey(owner.FQN, m.SimpleName, resolvedSig, info)
	}
	return nil
}

func (b *Builder) buildCtor(c *symbols.Ctor, owner *symbols.Type, f SourceFile, ownerNodeID string) error {
	sig := graph.CanonicalSignature(canonicalParamTypes(c.Params))
	id := graph.CtorID(owner.FQN, sig)

	lr, src, err := b.span(c.Node, f)
	if err != nil {
		return err
	}

	b.asm.AddNode(graph.Node{
		ID:         id,
		Kind:       graph.KindConstructor,
		FilePath:   f.Extracted.Path,
		LineRange:  lr,
		SourceCode: src,
		Attrs: map[string]any{
			"owner_fqn": owner.FQN,
			"params":    paramAttrs(c.Params),
			"signature": sig,
			"modifiers": append([]string{}, c.Modifiers...),
		},
	}, f.Extracted.Path)
	b.asm.AddEdge(ownerNodeID, graph.RelParentOf, id)

	info := &CtorInfo{Sym: c, OwnerFQN: owner.FQN, Signature: sig, ID: id}
	b.idx.addCtor(info)
	if ownerInfo := b.idx.Types[owner.FQN]; ownerInfo != nil {
		resolvedSig := graph.CanonicalSignature(resolvedParamTypes(c.Params, ownerInfo, b.idx))
		b.idx.indexCtorByResolvedKey(owner.FQN, resolvedSig, info)
	}
	return nil
}

func (b *Builder) buildField(fld *symbols.Field, owner *symbols.Type, f SourceFile, ownerNodeID string) error {
	id := graph.FieldID(owner.FQN, fld.SimpleName)

	lr, src, err := b.span(fld.Node, f)
	if err != nil {
		return err
	}

	b.asm.AddNode(graph.Node{
		ID:         id,
		Kind:       graph.KindField,
		FilePath:   f.Extracted.Path,
		LineRange:  lr,
		SourceCode: src,
		Attrs: map[string]any{
			"owner_fqn":     owner.FQN,
			"simple_name":   fld.SimpleName,
			"declared_type": graph.CanonicalType(fld.DeclaredType),
			"modifiers":     append([]string{}, fld.Modifiers...),
		},
	}, f.Extracted.Path)
	b.asm.AddEdge(ownerNodeID, graph.RelParentOf, id)

	b.idx.addField(&FieldInfo{Sym: fld, OwnerFQN: owner.FQN, ID: id})
	return nil
}

// span converts n's byte range to a 1-indexed line_range and extracts its
// verbatim source text, raising MalformedSpanError if the result violates
// spec invariant 6.
func (b *Builder) span(n *sitter.Node, f SourceFile) (graph.LineRange, string, error) {
	if n == nil {
		return graph.LineRange{}, "", &MalformedSpanError{Diagnostic{
			Kind:     DiagMalformedSpan,
			FilePath: f.Extracted.Path,
			Detail:   "nil node",
		}}
	}
	start := f.Parsed.ByteToLine(n.StartByte())
	end := start
	if n.EndByte() > n.StartByte() {
		end = f.Parsed.ByteToLine(n.EndByte() - 1)
	}
	lineCount := f.Parsed.LineCount()
	if start < 1 || end < start || end > lineCount {
		return graph.LineRange{}, "", &MalformedSpanError{Diagnostic{
			Kind:     DiagMalformedSpan,
			FilePath: f.Extracted.Path,
			Detail:   fmt.Sprintf("line_range [%d,%d] out of bounds (file has %d lines)", start, end, lineCount),
		}}
	}
	return graph.LineRange{Start: start, End: end}, javaparse.Text(n, f.Parsed.Source), nil
}

func paramAttrs(params []symbols.Param) []graph.Param {
	out := make([]graph.Param, len(params))
	for i, p := range params {
		out[i] = graph.Param{Name: p.Name, Type: graph.CanonicalType(p.Type)}
	}
	return out
}

func modifiersAttr(mods []string, kind symbols.TypeKind) []string {
	out := append([]string{}, mods...)
	switch kind {
	case symbols.TypeEnum:
		out = append(out, "enum")
	case symbols.TypeRecord:
		out = append(out, "record")
	}
	return out
}
