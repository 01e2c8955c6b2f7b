// Package discover walks a repository root and yields the .java files to
// feed into the parsing pipeline (SPEC_FULL.md §4.H).
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// File is one discovered source file: its path relative to root, and its
// raw bytes.
type File struct {
	RelPath string
	Bytes   []byte
}

// Discover walks root, skips .git/ and whatever root's .gitignore excludes,
// and returns every *.java file it finds as (rel_path, bytes) pairs in
// stable lexicographic order by RelPath, per §4.H and the §8.1 idempotence
// property that depends on a deterministic per-file ordering.
//
// Nested .gitignore files are not consulted — only the one at root, if any
// — a documented limitation (§4.H), not a non-goal.
func Discover(root string) ([]File, error) {
	matcher, err := loadGitignore(root)
	if err != nil {
		return nil, err
	}

	var relPaths []string
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(rel, ".java") {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		relPaths = append(relPaths, rel)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("discover: walk %s: %w", root, walkErr)
	}

	sort.Strings(relPaths)

	files := make([]File, 0, len(relPaths))
	for _, rel := range relPaths {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return nil, fmt.Errorf("discover: read %s: %w", rel, err)
		}
		files = append(files, File{RelPath: rel, Bytes: data})
	}
	return files, nil
}

func loadGitignore(root string) (*ignore.GitIgnore, error) {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("discover: stat .gitignore: %w", err)
	}
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("discover: compile .gitignore: %w", err)
	}
	return matcher, nil
}
