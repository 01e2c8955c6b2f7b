package symbols

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/javaparse"
)

// Extract walks f's tree once and returns everything declared in it. It
// never returns an error: a malformed subtree is simply skipped, the same
// best-effort posture as the rest of stage B (SPEC_FULL.md §4.B); actual
// parse failure is caught earlier by javaparse.File.HasErrors and turned
// into a ParseError diagnostic by the caller.
func Extract(pf *javaparse.File) *File {
	out := &File{Path: pf.Path, Source: pf.Source}
	root := pf.RootNode()
	if root == nil {
		return out
	}

	for _, child := range javaparse.NamedChildren(root) {
		switch child.Kind() {
		case "package_declaration":
			out.Package = scopedName(child, pf.Source)
		case "import_declaration":
			out.Imports = append(out.Imports, extractImport(child, pf.Source))
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			t := extractType(child, pf.Source, out.Package, "")
			if t != nil {
				out.Types = append(out.Types, *t)
			}
		}
	}
	return out
}

// scopedName returns the text of a scoped_identifier/identifier child,
// stripping the leading keyword ("package"/"import") and trailing ";".
func scopedName(n *sitter.Node, source []byte) string {
	for _, c := range javaparse.NamedChildren(n) {
		switch c.Kind() {
		case "scoped_identifier", "identifier":
			return javaparse.Text(c, source)
		}
	}
	return ""
}

func extractImport(n *sitter.Node, source []byte) Import {
	imp := Import{}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "static":
			imp.Static = true
		case "*", "asterisk":
			imp.OnDemand = true
		}
	}
	imp.Path = scopedName(n, source)
	return imp
}

// extractType handles class/interface/enum/record declarations, recursing
// into nested type declarations found in their bodies.
func extractType(n *sitter.Node, source []byte, pkg, enclosingFQN string) *Type {
	nameNode := javaparse.ChildByField(n, "name")
	if nameNode == nil {
		return nil
	}
	simple := javaparse.Text(nameNode, source)

	t := &Type{
		SimpleName: simple,
		Modifiers:  extractModifiers(n, source),
		Node:       n,
	}
	switch n.Kind() {
	case "class_declaration":
		t.Kind = TypeClass
	case "interface_declaration":
		t.Kind = TypeInterface
	case "enum_declaration":
		t.Kind = TypeEnum
	case "record_declaration":
		t.Kind = TypeRecord
	}

	if enclosingFQN != "" {
		t.FQN = enclosingFQN + "." + simple
	} else if pkg != "" {
		t.FQN = pkg + "." + simple
	} else {
		t.FQN = simple
	}

	if sc := javaparse.ChildByField(n, "superclass"); sc != nil {
		if ty := firstTypeName(sc, source); ty != "" {
			t.Extends = append(t.Extends, ty)
		}
	}
	if iface := javaparse.ChildByField(n, "interfaces"); iface != nil {
		types := collectTypeList(iface, source)
		if t.Kind == TypeInterface {
			t.Extends = append(t.Extends, types...)
		} else {
			t.Implements = append(t.Implements, types...)
		}
	}

	if n.Kind() == "record_declaration" {
		if params := javaparse.ChildByField(n, "parameters"); params != nil {
			for _, p := range extractParams(params, source) {
				t.Fields = append(t.Fields, Field{
					SimpleName:   p.Name,
					DeclaredType: p.Type,
					Modifiers:    []string{"private", "final"},
					Node:         n,
				})
			}
		}
	}

	body := javaparse.ChildByField(n, "body")
	if body == nil {
		return t
	}
	for _, member := range javaparse.NamedChildren(body) {
		switch member.Kind() {
		case "field_declaration":
			t.Fields = append(t.Fields, extractFields(member, source)...)
		case "method_declaration":
			t.Methods = append(t.Methods, extractMethod(member, source))
		case "constructor_declaration":
			t.Ctors = append(t.Ctors, extractCtor(member, source))
		case "enum_constant":
			t.Fields = append(t.Fields, extractEnumConstant(member, source, t.FQN))
		case "enum_body_declarations":
			for _, inner := range javaparse.NamedChildren(member) {
				switch inner.Kind() {
				case "field_declaration":
					t.Fields = append(t.Fields, extractFields(inner, source)...)
				case "method_declaration":
					t.Methods = append(t.Methods, extractMethod(inner, source))
				case "constructor_declaration":
					t.Ctors = append(t.Ctors, extractCtor(inner, source))
				case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
					if nested := extractType(inner, source, pkg, t.FQN); nested != nil {
						t.Nested = append(t.Nested, nested)
					}
				}
			}
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			if nested := extractType(member, source, pkg, t.FQN); nested != nil {
				t.Nested = append(t.Nested, nested)
			}
		}
	}
	return t
}

// extractModifiers collects the keyword/annotation tokens from a leading
// "modifiers" child, if present.
func extractModifiers(n *sitter.Node, source []byte) []string {
	mods := javaparse.ChildByField(n, "modifiers")
	if mods == nil {
		// some grammar versions expose modifiers as an unnamed first child
		// rather than a field; fall back to scanning for the literal node
		// kind among n's children.
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			c := n.Child(i)
			if c != nil && c.Kind() == "modifiers" {
				mods = c
				break
			}
		}
	}
	if mods == nil {
		return nil
	}
	var out []string
	count := mods.ChildCount()
	for i := uint(0); i < count; i++ {
		c := mods.Child(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "marker_annotation", "annotation":
			continue
		default:
			out = append(out, javaparse.Text(c, source))
		}
	}
	return out
}

func hasModifier(mods []string, name string) bool {
	for _, m := range mods {
		if m == name {
			return true
		}
	}
	return false
}

// firstTypeName returns the text of the first type-ish named child of n,
// which for a superclass/type clause is the type reference itself.
func firstTypeName(n *sitter.Node, source []byte) string {
	children := javaparse.NamedChildren(n)
	if len(children) == 0 {
		return javaparse.Text(n, source)
	}
	return javaparse.Text(children[0], source)
}

// collectTypeList walks a super_interfaces/extends_interfaces wrapper down
// to its type_list and returns each listed type's text.
func collectTypeList(n *sitter.Node, source []byte) []string {
	var out []string
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		switch node.Kind() {
		case "type_identifier", "scoped_type_identifier", "generic_type":
			out = append(out, javaparse.Text(node, source))
			return
		}
		for _, c := range javaparse.NamedChildren(node) {
			walk(c)
		}
	}
	walk(n)
	return out
}

func extractMethod(n *sitter.Node, source []byte) Method {
	m := Method{
		Modifiers: extractModifiers(n, source),
		Node:      n,
	}
	if nameNode := javaparse.ChildByField(n, "name"); nameNode != nil {
		m.SimpleName = javaparse.Text(nameNode, source)
	}
	if typeNode := javaparse.ChildByField(n, "type"); typeNode != nil {
		m.ReturnType = javaparse.Text(typeNode, source)
	} else {
		m.ReturnType = "void"
	}
	if params := javaparse.ChildByField(n, "parameters"); params != nil {
		m.Params = extractParams(params, source)
	}
	m.IsStatic = hasModifier(m.Modifiers, "static")
	m.IsAbstract = hasModifier(m.Modifiers, "abstract")
	if body := javaparse.ChildByField(n, "body"); body != nil {
		m.Body = body
	} else {
		m.IsAbstract = true
	}
	return m
}

func extractCtor(n *sitter.Node, source []byte) Ctor {
	c := Ctor{
		Modifiers: extractModifiers(n, source),
		Node:      n,
	}
	if params := javaparse.ChildByField(n, "parameters"); params != nil {
		c.Params = extractParams(params, source)
	}
	c.Body = javaparse.ChildByField(n, "body")
	return c
}

func extractParams(n *sitter.Node, source []byte) []Param {
	var out []Param
	for _, p := range javaparse.NamedChildren(n) {
		switch p.Kind() {
		case "formal_parameter", "spread_parameter":
			typeNode := javaparse.ChildByField(p, "type")
			nameNode := javaparse.ChildByField(p, "name")
			typ := javaparse.Text(typeNode, source)
			name := javaparse.Text(nameNode, source)
			if p.Kind() == "spread_parameter" {
				typ += "..."
			}
			out = append(out, Param{Name: name, Type: typ})
		}
	}
	return out
}

// extractFields splits a (possibly multi-declarator) field_declaration into
// one Field per declarator, per SPEC_FULL.md §4.B.
func extractFields(n *sitter.Node, source []byte) []Field {
	mods := extractModifiers(n, source)
	isStatic := hasModifier(mods, "static")
	baseType := ""
	if typeNode := javaparse.ChildByField(n, "type"); typeNode != nil {
		baseType = javaparse.Text(typeNode, source)
	}
	var out []Field
	for _, c := range javaparse.NamedChildren(n) {
		if c.Kind() != "variable_declarator" {
			continue
		}
		nameNode := javaparse.ChildByField(c, "name")
		if nameNode == nil {
			continue
		}
		declType := baseType
		// array-suffixed declarators (e.g. "int a[]") attach the bracket to
		// the declarator name node's siblings rather than the base type;
		// detect a dimensions child and append "[]" per declarator.
		for _, dc := range javaparse.NamedChildren(c) {
			if dc.Kind() == "dimensions" {
				declType += "[]"
			}
		}
		out = append(out, Field{
			SimpleName:   javaparse.Text(nameNode, source),
			DeclaredType: declType,
			Modifiers:    mods,
			IsStatic:     isStatic,
			Initializer:  javaparse.ChildByField(c, "value"),
			Node:         n,
		})
	}
	return out
}

// extractEnumConstant turns an enum_constant into a Field node on the
// enum's own Class node, per the enum Open Question decision (SPEC_FULL.md
// §4.B/§9).
func extractEnumConstant(n *sitter.Node, source []byte, ownerFQN string) Field {
	name := ""
	if nameNode := javaparse.ChildByField(n, "name"); nameNode != nil {
		name = javaparse.Text(nameNode, source)
	}
	return Field{
		SimpleName:   name,
		DeclaredType: ownerFQN,
		Modifiers:    []string{"static", "final", "enum_constant"},
		IsStatic:     true,
		Node:         n,
	}
}
