package analyzer

import "codemap/internal/graph"

// ResolveHierarchy runs Stage D (SPEC_FULL.md §4.D): class hierarchy edges,
// interface implementation edges, and the override relation in both forms
// (class-overrides-superclass-method, class-overrides-interface-method).
func ResolveHierarchy(asm *Assembler, idx *Index) {
	for _, t := range idx.Types {
		if t.IsInterface {
			resolveInterfaceExtends(asm, idx, t)
			continue
		}
		resolveClassExtends(asm, idx, t)
		resolveImplements(asm, idx, t)
	}
	for _, t := range idx.Types {
		if t.IsInterface {
			continue
		}
		resolveOverrides(asm, idx, t)
	}
}

func resolveClassExtends(asm *Assembler, idx *Index, t *TypeInfo) {
	if len(t.Sym.Extends) == 0 {
		return
	}
	raw := t.Sym.Extends[0]
	fqn, ok := ResolveTypeName(idx, raw, t.Package, t.Imports)
	dst := graph.ClassID(fqn)
	asm.AddResolvedEdge(graph.ClassID(t.FQN), graph.RelDerivedClassOf, dst, ok && asm.HasNode(dst))
}

// resolveInterfaceExtends handles interface-extends-interface, recorded as
// Implements per the documented, consistent §9 decision (interface
// hierarchy never uses BaseClassOf/DerivedClassOf).
func resolveInterfaceExtends(asm *Assembler, idx *Index, t *TypeInfo) {
	for _, raw := range t.Sym.Extends {
		fqn, ok := ResolveTypeName(idx, raw, t.Package, t.Imports)
		dst := graph.InterfaceID(fqn)
		asm.AddResolvedEdge(graph.InterfaceID(t.FQN), graph.RelImplements, dst, ok && asm.HasNode(dst))
	}
}

func resolveImplements(asm *Assembler, idx *Index, t *TypeInfo) {
	for _, raw := range t.Sym.Implements {
		fqn, ok := ResolveTypeName(idx, raw, t.Package, t.Imports)
		dst := graph.InterfaceID(fqn)
		asm.AddResolvedEdge(graph.ClassID(t.FQN), graph.RelImplements, dst, ok && asm.HasNode(dst))
	}
}

// resolveOverrides implements 3a+3b together: Overrides goes to the nearest
// superclass that declares a matching method (3a) and, per the binding
// correction (SPEC_FULL.md §4.D), also to every matching interface method
// rather than stopping at the first match.
func resolveOverrides(asm *Assembler, idx *Index, t *TypeInfo) {
	for _, m := range idx.MethodsByOwner[t.FQN] {
		if m.Sym.IsStatic || isPrivate(m.Sym.Modifiers) {
			continue
		}
		ancestors := ancestorChain(idx, t)
		classMatched := false
		for _, ancestorFQN := range ancestors {
			ancestor, ok := idx.Types[ancestorFQN]
			if !ok || (classMatched && !ancestor.IsInterface) {
				continue
			}
			for _, cand := range idx.MethodsByOwner[ancestorFQN] {
				if cand.Sym.IsStatic || isPrivate(cand.Sym.Modifiers) {
					continue
				}
				if cand.Sym.SimpleName == m.Sym.SimpleName && cand.Signature == m.Signature {
					asm.AddResolvedEdge(m.ID, graph.RelOverrides, cand.ID, true)
					if !ancestor.IsInterface {
						classMatched = true
					}
				}
			}
		}
	}
}

func isPrivate(mods []string) bool {
	for _, m := range mods {
		if m == "private" {
			return true
		}
	}
	return false
}

// ancestorChain returns every class/interface FQN t transitively extends
// or implements, deduplicated, in depth-first order: t's superclass chain
// comes nearest-first, which resolveOverrides relies on to stop at the
// first matching superclass while still checking every interface.
func ancestorChain(idx *Index, t *TypeInfo) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(*TypeInfo)
	walk = func(cur *TypeInfo) {
		if cur == nil {
			return
		}
		if !cur.IsInterface {
			for _, raw := range cur.Sym.Extends {
				if fqn, ok := ResolveTypeName(idx, raw, cur.Package, cur.Imports); ok && !seen[fqn] {
					seen[fqn] = true
					out = append(out, fqn)
					walk(idx.Types[fqn])
				}
			}
		}
		ifaces := cur.Sym.Implements
		if cur.IsInterface {
			ifaces = cur.Sym.Extends
		}
		for _, raw := range ifaces {
			if fqn, ok := ResolveTypeName(idx, raw, cur.Package, cur.Imports); ok && !seen[fqn] {
				seen[fqn] = true
				out = append(out, fqn)
				walk(idx.Types[fqn])
			}
		}
	}
	walk(t)
	return out
}
