package javaparse

import (
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const sampleSource = `package com.example;

class Greeter {
    String greet(String name) {
        return "hello " + name;
    }
}
`

func TestParseProducesAnErrorFreeTree(t *testing.T) {
	f, err := Parse("Greeter.java", []byte(sampleSource))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer f.Close()

	if f.RootNode() == nil {
		t.Fatal("RootNode() = nil")
	}
	if f.HasErrors() {
		t.Error("HasErrors() = true for well-formed source")
	}
}

func TestParseFlagsSyntaxErrors(t *testing.T) {
	f, err := Parse("Broken.java", []byte("class Broken { void m( { }"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer f.Close()

	if !f.HasErrors() {
		t.Error("HasErrors() = false for malformed source")
	}
}

func TestByteToLineMatchesLineCount(t *testing.T) {
	f, err := Parse("Greeter.java", []byte(sampleSource))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer f.Close()

	if got := f.LineCount(); got != 7 {
		t.Errorf("LineCount() = %d, want 7", got)
	}

	// "class Greeter {" starts on line 3.
	offset := uint(len("package com.example;\n\n"))
	if got := f.ByteToLine(offset); got != 3 {
		t.Errorf("ByteToLine(%d) = %d, want 3", offset, got)
	}

	if got := f.ByteToLine(0); got != 1 {
		t.Errorf("ByteToLine(0) = %d, want 1", got)
	}
}

func TestTextReturnsNodeSpan(t *testing.T) {
	f, err := Parse("Greeter.java", []byte(sampleSource))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer f.Close()

	root := f.RootNode()
	var found bool
	Walk(root, func(n *sitter.Node) bool {
		if n.Kind() == "class_declaration" {
			found = true
			name := ChildByField(n, "name")
			if got := Text(name, f.Source); got != "Greeter" {
				t.Errorf("class name = %q, want Greeter", got)
			}
			return false
		}
		return true
	})
	if !found {
		t.Error("did not find class_declaration node while walking tree")
	}
}
