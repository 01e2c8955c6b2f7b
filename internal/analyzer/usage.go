package analyzer

import "codemap/internal/graph"

var primitiveTypes = map[string]bool{
	"void": true, "int": true, "long": true, "short": true, "byte": true,
	"char": true, "boolean": true, "float": true, "double": true,
}

// ResolveUsage runs Stage F (SPEC_FULL.md §4.F): Uses edges from every
// Field to its declared type, and from every Method/Constructor to its
// parameter and return types. Primitive types never produce a Uses edge —
// there is no Class/Interface node for them to point at.
func ResolveUsage(asm *Assembler, idx *Index) {
	for _, f := range idx.Fields {
		owner := idx.Types[f.OwnerFQN]
		if owner == nil {
			continue
		}
		emitUse(asm, idx, f.ID, f.Sym.DeclaredType, owner)
	}
	for _, m := range idx.Methods {
		owner := idx.Types[m.OwnerFQN]
		if owner == nil {
			continue
		}
		emitUse(asm, idx, m.ID, m.Sym.ReturnType, owner)
		for _, p := range m.Sym.Params {
			emitUse(asm, idx, m.ID, p.Type, owner)
		}
	}
	for _, c := range idx.Ctors {
		owner := idx.Types[c.OwnerFQN]
		if owner == nil {
			continue
		}
		for _, p := range c.Sym.Params {
			emitUse(asm, idx, c.ID, p.Type, owner)
		}
	}
}

func emitUse(asm *Assembler, idx *Index, srcID, rawType string, owner *TypeInfo) {
	simple := simpleTypeName(rawType)
	if simple == "" || primitiveTypes[simple] {
		return
	}
	fqn, ok := ResolveTypeName(idx, rawType, owner.Package, owner.Imports)
	dst := graph.ClassID(fqn)
	if t, found := idx.Types[fqn]; found && t.IsInterface {
		dst = graph.InterfaceID(fqn)
	}
	asm.AddResolvedEdge(srcID, graph.RelUses, dst, ok && asm.HasNode(dst))
}
