package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, contents string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverFindsJavaFilesInOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/B.java", "package b; class B {}")
	writeFile(t, root, "a/A.java", "package a; class A {}")
	writeFile(t, root, "README.md", "not java")

	files, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].RelPath != "a/A.java" || files[1].RelPath != "b/B.java" {
		t.Errorf("files not in lexicographic order: %v, %v", files[0].RelPath, files[1].RelPath)
	}
}

func TestDiscoverSkipsGitDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/objects/Fake.java", "not real")
	writeFile(t, root, "Main.java", "class Main {}")

	files, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "Main.java" {
		t.Fatalf("expected only Main.java, got %v", files)
	}
}

func TestDiscoverHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\n")
	writeFile(t, root, "generated/Gen.java", "class Gen {}")
	writeFile(t, root, "Keep.java", "class Keep {}")

	files, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "Keep.java" {
		t.Fatalf("expected only Keep.java, got %v", files)
	}
}

func TestDiscoverNoGitignoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Solo.java", "class Solo {}")

	files, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "Solo.java" {
		t.Fatalf("expected Solo.java, got %v", files)
	}
}

func TestDiscoverReturnsFileBytes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Hello.java", "class Hello {}")

	files, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if string(files[0].Bytes) != "class Hello {}" {
		t.Errorf("unexpected bytes: %q", files[0].Bytes)
	}
}
