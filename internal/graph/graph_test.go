package graph

import (
	"encoding/json"
	"testing"
)

func TestNodeMarshalJSONFlattensAttrs(t *testing.T) {
	n := Node{
		ID:         "class:p.Foo",
		Kind:       KindClass,
		FilePath:   "p/Foo.java",
		LineRange:  LineRange{Start: 3, End: 10},
		SourceCode: "class Foo {}",
		Attrs: map[string]any{
			"simple_name": "Foo",
			"modifiers":   []string{"public"},
		},
	}

	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out["id"] != "class:p.Foo" {
		t.Errorf("id = %v, want class:p.Foo", out["id"])
	}
	if out["kind"] != "Class" {
		t.Errorf("kind = %v, want Class", out["kind"])
	}
	if out["simple_name"] != "Foo" {
		t.Errorf("simple_name attr not inlined: %v", out)
	}
	lineRange, ok := out["line_range"].([]any)
	if !ok || len(lineRange) != 2 || lineRange[0].(float64) != 3 || lineRange[1].(float64) != 10 {
		t.Errorf("line_range = %v, want [3 10]", out["line_range"])
	}
}

func TestInverseIsSymmetric(t *testing.T) {
	pairs := []struct{ a, b Relation }{
		{RelParentOf, RelChildOf},
		{RelBaseClassOf, RelDerivedClassOf},
		{RelImplements, RelImplementedBy},
		{RelOverrides, RelOverriddenBy},
		{RelCalls, RelCalledBy},
		{RelInstantiates, RelInstantiatedBy},
		{RelUses, RelUsedBy},
	}
	for _, p := range pairs {
		if Inverse(p.a) != p.b {
			t.Errorf("Inverse(%s) = %s, want %s", p.a, Inverse(p.a), p.b)
		}
		if Inverse(p.b) != p.a {
			t.Errorf("Inverse(%s) = %s, want %s", p.b, Inverse(p.b), p.a)
		}
	}
}

func TestModuleIDUsesSentinelForEmptyPackage(t *testing.T) {
	if got := ModuleID(""); got != "module:<default>" {
		t.Errorf("ModuleID(\"\") = %q, want module:<default>", got)
	}
	if got := ModuleID("com.example"); got != "module:com.example" {
		t.Errorf("ModuleID(\"com.example\") = %q, want module:com.example", got)
	}
}

func TestMethodAndCtorIDs(t *testing.T) {
	if got := MethodID("p.Foo", "bar", "int,String"); got != "method:p.Foo#bar(int,String)" {
		t.Errorf("MethodID = %q", got)
	}
	if got := CtorID("p.Foo", ""); got != "constructor:p.Foo::<init>()" {
		t.Errorf("CtorID = %q", got)
	}
	if got := ClinitID("p.Foo"); got != "constructor:p.Foo::<clinit>()" {
		t.Errorf("ClinitID = %q", got)
	}
}

func TestCanonicalTypeErasesGenericsAndArrays(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"List<String>", "List"},
		{"Map<String, List<Integer>>", "Map"},
		{"int[]", "int[]"},
		{"String...", "String[]"},
		{"String [ ]", "String[]"},
		{"  int  ", "int"},
	}
	for _, tt := range tests {
		if got := CanonicalType(tt.in); got != tt.want {
			t.Errorf("CanonicalType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalSignatureJoinsParamTypes(t *testing.T) {
	if got := CanonicalSignature(nil); got != "" {
		t.Errorf("CanonicalSignature(nil) = %q, want empty", got)
	}
	if got := CanonicalSignature([]string{"int", "String"}); got != "int,String" {
		t.Errorf("CanonicalSignature = %q, want int,String", got)
	}
}
