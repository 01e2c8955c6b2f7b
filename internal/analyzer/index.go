package analyzer

import (
	"codemap/internal/graph"
	"codemap/internal/symbols"
)

// TypeInfo is the Stage C record for one Class/Interface declaration,
// carrying both the raw Stage B declaration (for its textual extends/
// implements list) and the data needed to resolve against it later.
type TypeInfo struct {
	Sym         *symbols.Type
	FQN         string
	FilePath    string
	Package     string
	Imports     []symbols.Import
	IsInterface bool
}

// MethodInfo is the Stage C record for one method declaration.
type MethodInfo struct {
	Sym       *symbols.Method
	OwnerFQN  string
	Signature string
	ID        string
}

// CtorInfo is the Stage C record for one constructor declaration.
type CtorInfo struct {
	Sym       *symbols.Ctor
	OwnerFQN  string
	Signature string
	ID        string
}

// FieldInfo is the Stage C record for one field declaration.
type FieldInfo struct {
	Sym      *symbols.Field
	OwnerFQN string
	ID       string
}

// Index is the frozen Stage C symbol table (SPEC_FULL.md §4.C). Keys are
// canonical ids wherever a canonical id exists; the owner-keyed slices
// exist for the hierarchy/call resolvers, which need to enumerate a type's
// own members rather than look one up by exact signature.
type Index struct {
	Types map[string]*TypeInfo // fqn -> type
	// simpleNameTypes maps an unqualified simple name to every FQN sharing
	// it, the best-effort lexical fallback SPEC_FULL.md §4.E/§9 calls for
	// when a name can't be resolved via imports or package scope.
	simpleNameTypes map[string][]string

	Methods        map[string]*MethodInfo // method id -> method
	MethodsByOwner map[string][]*MethodInfo
	// methodsByResolvedKey mirrors Methods but keyed by a FQN-normalized
	// signature (resolvedParamTypes) instead of the displayed textual one,
	// so a call site's resolved-FQN argument types match a declaration
	// written with a different (qualified vs. unqualified) spelling of the
	// same parameter type. See resolvedParamTypes.
	methodsByResolvedKey map[string]*MethodInfo

	Ctors        map[string]*CtorInfo
	CtorsByOwner map[string][]*CtorInfo
	ctorsByResolvedKey map[string]*CtorInfo

	Fields        map[string]*FieldInfo
	FieldsByOwner map[string]map[string]*FieldInfo // owner fqn -> simple name -> field
}

// NewIndex returns an empty Index ready for population by the Builder.
func NewIndex() *Index {
	return &Index{
		Types:                make(map[string]*TypeInfo),
		simpleNameTypes:      make(map[string][]string),
		Methods:              make(map[string]*MethodInfo),
		MethodsByOwner:       make(map[string][]*MethodInfo),
		methodsByResolvedKey: make(map[string]*MethodInfo),
		Ctors:                make(map[string]*CtorInfo),
		CtorsByOwner:         make(map[string][]*CtorInfo),
		ctorsByResolvedKey:   make(map[string]*CtorInfo),
		Fields:               make(map[string]*FieldInfo),
		FieldsByOwner:        make(map[string]map[string]*FieldInfo),
	}
}

// indexMethodByResolvedKey registers m under its FQN-normalized signature
// key. Called by the Builder once idx.Types is fully populated.
func (idx *Index) indexMethodByResolvedKey(ownerFQN, name, resolvedSig string, m *MethodInfo) {
	key := graph.MethodID(ownerFQN, name, resolvedSig)
	if _, exists := idx.methodsByResolvedKey[key]; !exists {
		idx.methodsByResolvedKey[key] = m
	}
}

// indexCtorByResolvedKey registers c under its FQN-normalized signature key.
func (idx *Index) indexCtorByResolvedKey(ownerFQN, resolvedSig string, c *CtorInfo) {
	key := graph.CtorID(ownerFQN, resolvedSig)
	if _, exists := idx.ctorsByResolvedKey[key]; !exists {
		idx.ctorsByResolvedKey[key] = c
	}
}

// FindCtor looks up a constructor by exact (owner, resolved signature),
// where signature is already FQN-normalized by the caller (Stage E always
// builds it from resolved argument types).
func (idx *Index) FindCtor(ownerFQN, resolvedSig string) (*CtorInfo, bool) {
	c, ok := idx.ctorsByResolvedKey[graph.CtorID(ownerFQN, resolvedSig)]
	return c, ok
}

// addType, addMethod and addCtor keep the first declaration of a given
// FQN/id; later duplicates are not indexed (§4.C collision policy).
func (idx *Index) addType(t *TypeInfo) {
	if _, exists := idx.Types[t.FQN]; exists {
		return
	}
	idx.Types[t.FQN] = t
	simple := t.Sym.SimpleName
	idx.simpleNameTypes[simple] = append(idx.simpleNameTypes[simple], t.FQN)
}

func (idx *Index) addMethod(m *MethodInfo) {
	if _, exists := idx.Methods[m.ID]; exists {
		return
	}
	idx.Methods[m.ID] = m
	idx.MethodsByOwner[m.OwnerFQN] = append(idx.MethodsByOwner[m.OwnerFQN], m)
}

func (idx *Index) addCtor(c *CtorInfo) {
	if _, exists := idx.Ctors[c.ID]; exists {
		return
	}
	idx.Ctors[c.ID] = c
	idx.CtorsByOwner[c.OwnerFQN] = append(idx.CtorsByOwner[c.OwnerFQN], c)
}

func (idx *Index) addField(f *FieldInfo) {
	idx.Fields[f.ID] = f
	byName := idx.FieldsByOwner[f.OwnerFQN]
	if byName == nil {
		byName = make(map[string]*FieldInfo)
		idx.FieldsByOwner[f.OwnerFQN] = byName
	}
	if _, exists := byName[f.Sym.SimpleName]; !exists {
		byName[f.Sym.SimpleName] = f
	}
}

// FindMethod looks up a method by exact (owner, name, signature), climbing
// owner's superclass chain and then its interfaces until found or
// exhausted, per SPEC_FULL.md §4.E step 3 (the exact-signature binding
// correction over the arity-only prototype).
func (idx *Index) FindMethod(ownerFQN, name, signature string) (*MethodInfo, bool) {
	visited := make(map[string]bool)
	return idx.findMethodFrom(ownerFQN, name, signature, visited)
}

func (idx *Index) findMethodFrom(ownerFQN, name, signature string, visited map[string]bool) (*MethodInfo, bool) {
	if ownerFQN == "" || visited[ownerFQN] {
		return nil, false
	}
	visited[ownerFQN] = true

	id := graph.MethodID(ownerFQN, name, signature)
	if m, ok := idx.methodsByResolvedKey[id]; ok {
		return m, true
	}

	t, ok := idx.Types[ownerFQN]
	if !ok {
		return nil, false
	}
	for _, sup := range t.Sym.Extends {
		if fqn, ok := idx.resolveExtendsName(t, sup); ok {
			if m, ok := idx.findMethodFrom(fqn, name, signature, visited); ok {
				return m, true
			}
		}
	}
	for _, iface := range t.Sym.Implements {
		if fqn, ok := idx.resolveExtendsName(t, iface); ok {
			if m, ok := idx.findMethodFrom(fqn, name, signature, visited); ok {
				return m, true
			}
		}
	}
	return nil, false
}

// resolveExtendsName resolves one raw extends/implements entry of t against
// the index using t's own package/imports scope.
func (idx *Index) resolveExtendsName(t *TypeInfo, raw string) (string, bool) {
	return ResolveTypeName(idx, raw, t.Package, t.Imports)
}
