package analyzer

import (
	"strings"

	"codemap/internal/graph"
	"codemap/internal/symbols"
)

// ResolveTypeName resolves a raw, possibly-generic, possibly-qualified type
// reference (as it appears in an extends/implements clause, a variable
// declaration, or a `new` expression) to a FQN already present in idx.
//
// Resolution order mirrors SPEC_FULL.md §4.E's visible-scope tuple, applied
// to type names rather than expressions: exact FQN, single-type imports,
// same package, on-demand imports, and finally a same-simple-name fallback
// across the whole index when the name is otherwise unqualified and
// unambiguous. This is lexical and best-effort (§9), not semantic: it never
// consults a classpath, and an ambiguous or unmatched name resolves false.
func ResolveTypeName(idx *Index, raw, pkg string, imports []symbols.Import) (string, bool) {
	name := simpleTypeName(raw)
	if name == "" {
		return "", false
	}

	if strings.Contains(name, ".") {
		if _, ok := idx.Types[name]; ok {
			return name, true
		}
		// Already dotted but not present in this index (likely an external
		// or unparsed dependency, e.g. java.util.List) — keep it as the raw
		// reference; caller decides resolved=false handling.
		return name, false
	}

	simple := name
	for _, imp := range imports {
		if imp.OnDemand || imp.Static {
			continue
		}
		if lastSegment(imp.Path) == simple {
			if _, ok := idx.Types[imp.Path]; ok {
				return imp.Path, true
			}
			return imp.Path, false
		}
	}

	if pkg != "" {
		candidate := pkg + "." + simple
		if _, ok := idx.Types[candidate]; ok {
			return candidate, true
		}
	} else if _, ok := idx.Types[simple]; ok {
		return simple, true
	}

	for _, imp := range imports {
		if !imp.OnDemand {
			continue
		}
		candidate := imp.Path + "." + simple
		if _, ok := idx.Types[candidate]; ok {
			return candidate, true
		}
	}

	if matches := idx.simpleNameTypes[simple]; len(matches) == 1 {
		return matches[0], true
	}

	return simple, false
}

// simpleTypeName strips generic arguments and array brackets from a raw
// type reference, matching graph.CanonicalType's erasure but without the
// array-suffix normalization (a type name used for lookup should not carry
// the "[]" that CanonicalType appends for signatures).
func simpleTypeName(raw string) string {
	t := strings.TrimSpace(raw)
	for strings.HasSuffix(t, "[]") {
		t = strings.TrimSpace(strings.TrimSuffix(t, "[]"))
	}
	t = strings.TrimSuffix(t, "...")
	if idx := strings.IndexByte(t, '<'); idx >= 0 {
		t = t[:idx]
	}
	return strings.TrimSpace(t)
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// canonicalParamTypes erases each parameter's declared type for the
// displayed, spec-literal `signature` attribute and node id (SPEC_FULL.md
// §3.1/§6.1), using exactly the spelling the parameter was declared with.
func canonicalParamTypes(params []symbols.Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = graph.CanonicalType(p.Type)
	}
	return out
}

// resolvedParamTypes normalizes each parameter's declared type to a FQN
// (falling back to its simple name when unresolved) for use as an internal
// resolver lookup key, so a call site written with a fully-qualified
// argument type and a declaration written with an unqualified parameter
// type (or vice versa) still match by exact signature. The displayed
// `signature` attribute stays textual (canonicalParamTypes); this is only
// ever used to build idx's ByResolvedKey maps.
func resolvedParamTypes(params []symbols.Param, owner *TypeInfo, idx *Index) []string {
	out := make([]string, len(params))
	for i, p := range params {
		name, _ := ResolveTypeName(idx, p.Type, owner.Package, owner.Imports)
		out[i] = arraySuffixed(p.Type, name)
	}
	return out
}

// arraySuffixed reattaches the "[]"/"..." suffix simpleTypeName stripped
// off of raw, so resolvedParamTypes' normalized name still distinguishes
// T from T[].
func arraySuffixed(raw, resolved string) string {
	t := strings.TrimSpace(raw)
	if strings.Contains(t, "[]") || strings.HasSuffix(t, "...") {
		return resolved + "[]"
	}
	return resolved
}
