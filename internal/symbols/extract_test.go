package symbols

import (
	"testing"

	"codemap/internal/javaparse"
)

func parse(t *testing.T, src string) *File {
	t.Helper()
	pf, err := javaparse.Parse("Test.java", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer pf.Close()
	if pf.HasErrors() {
		t.Fatalf("parse tree has errors for source:\n%s", src)
	}
	return Extract(pf)
}

func TestExtractPackageAndImports(t *testing.T) {
	src := `package com.example.app;

import java.util.List;
import java.util.*;
import static java.lang.Math.max;

class Empty {}
`
	f := parse(t, src)
	if f.Package != "com.example.app" {
		t.Fatalf("package = %q, want com.example.app", f.Package)
	}
	if len(f.Imports) != 3 {
		t.Fatalf("imports = %d, want 3", len(f.Imports))
	}
	if f.Imports[0].Path != "java.util.List" || f.Imports[0].OnDemand {
		t.Errorf("imports[0] = %+v", f.Imports[0])
	}
	if f.Imports[1].Path != "java.util" || !f.Imports[1].OnDemand {
		t.Errorf("imports[1] = %+v", f.Imports[1])
	}
	if !f.Imports[2].Static || f.Imports[2].Path != "java.lang.Math.max" {
		t.Errorf("imports[2] = %+v", f.Imports[2])
	}
}

func TestExtractClassHierarchy(t *testing.T) {
	src := `package pkg;

public abstract class Animal implements Named, Comparable<Animal> {
    protected String name;

    public Animal(String name) {
        this.name = name;
    }

    public abstract String speak();
}
`
	f := parse(t, src)
	if len(f.Types) != 1 {
		t.Fatalf("types = %d, want 1", len(f.Types))
	}
	ty := f.Types[0]
	if ty.Kind != TypeClass || ty.SimpleName != "Animal" || ty.FQN != "pkg.Animal" {
		t.Fatalf("type = %+v", ty)
	}
	if len(ty.Implements) != 2 || ty.Implements[0] != "Named" {
		t.Fatalf("implements = %v", ty.Implements)
	}
	if len(ty.Ctors) != 1 || len(ty.Ctors[0].Params) != 1 {
		t.Fatalf("ctors = %+v", ty.Ctors)
	}
	if len(ty.Methods) != 1 || !ty.Methods[0].IsAbstract {
		t.Fatalf("methods = %+v", ty.Methods)
	}
	if len(ty.Fields) != 1 || ty.Fields[0].SimpleName != "name" || ty.Fields[0].DeclaredType != "String" {
		t.Fatalf("fields = %+v", ty.Fields)
	}
}

func TestExtractMultiDeclaratorField(t *testing.T) {
	src := `class Point {
    int x, y = 0;
}
`
	f := parse(t, src)
	fields := f.Types[0].Fields
	if len(fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(fields))
	}
	if fields[0].SimpleName != "x" || fields[1].SimpleName != "y" {
		t.Fatalf("fields = %+v", fields)
	}
	if fields[1].Initializer == nil {
		t.Errorf("expected y to have an initializer")
	}
}

func TestExtractNestedType(t *testing.T) {
	src := `package pkg;

class Outer {
    static class Inner {
        void run() {}
    }
}
`
	f := parse(t, src)
	outer := f.Types[0]
	if len(outer.Nested) != 1 {
		t.Fatalf("nested = %d, want 1", len(outer.Nested))
	}
	inner := outer.Nested[0]
	if inner.FQN != "pkg.Outer.Inner" {
		t.Fatalf("inner fqn = %q", inner.FQN)
	}
	if len(inner.Methods) != 1 || inner.Methods[0].SimpleName != "run" {
		t.Fatalf("inner methods = %+v", inner.Methods)
	}
}

func TestExtractEnumConstants(t *testing.T) {
	src := `package pkg;

enum Color {
    RED, GREEN, BLUE;
}
`
	f := parse(t, src)
	ty := f.Types[0]
	if ty.Kind != TypeEnum {
		t.Fatalf("kind = %v, want enum", ty.Kind)
	}
	if len(ty.Fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(ty.Fields))
	}
	if ty.Fields[0].SimpleName != "RED" || ty.Fields[0].DeclaredType != "pkg.Color" {
		t.Fatalf("fields[0] = %+v", ty.Fields[0])
	}
}

func TestExtractOverloadedMethods(t *testing.T) {
	src := `class Calc {
    int add(int a, int b) { return a + b; }
    double add(double a, double b) { return a + b; }
}
`
	f := parse(t, src)
	methods := f.Types[0].Methods
	if len(methods) != 2 {
		t.Fatalf("methods = %d, want 2", len(methods))
	}
	for _, m := range methods {
		if len(m.Params) != 2 {
			t.Errorf("method %s params = %+v", m.SimpleName, m.Params)
		}
	}
	if methods[0].Params[0].Type != "int" || methods[1].Params[0].Type != "double" {
		t.Fatalf("methods = %+v", methods)
	}
}
