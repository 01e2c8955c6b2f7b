package graph

import (
	"regexp"
	"strings"
)

// SentinelPackage is the module name used for compilation units with no
// package declaration (spec §6.1).
const SentinelPackage = "<default>"

// ModuleID returns the canonical id for a package, per spec §6.1.
func ModuleID(pkg string) string {
	if pkg == "" {
		pkg = SentinelPackage
	}
	return "module:" + pkg
}

// ClassID returns the canonical id for a class FQN.
func ClassID(fqn string) string { return "class:" + fqn }

// InterfaceID returns the canonical id for an interface FQN.
func InterfaceID(fqn string) string { return "interface:" + fqn }

// MethodID returns the canonical id for a method, per spec §6.1.
func MethodID(ownerFQN, name, signature string) string {
	return "method:" + ownerFQN + "#" + name + "(" + signature + ")"
}

// CtorID returns the canonical id for a constructor, per spec §6.1.
func CtorID(ownerFQN, signature string) string {
	return "constructor:" + ownerFQN + "::<init>(" + signature + ")"
}

// ClinitID returns the synthetic id used as the caller of a static field
// initializer, per SPEC_FULL.md §6.1.
func ClinitID(ownerFQN string) string {
	return "constructor:" + ownerFQN + "::<clinit>()"
}

// FieldID returns the canonical id for a field, per spec §6.1.
func FieldID(ownerFQN, name string) string {
	return "field:" + ownerFQN + "#" + name
}

// UnresolvedMethodID returns the synthetic id spec §4.E/§8.3 scenario 6
// requires for an unresolved call: method:<best-guess-owner>#<name>(?).
func UnresolvedMethodID(bestGuessOwner, name string) string {
	return "method:" + bestGuessOwner + "#" + name + "(?)"
}

var whitespace = regexp.MustCompile(`\s+`)

// CanonicalType erases generics, collapses whitespace, and normalizes array
// and varargs suffixes to a trailing "[]", per spec §3.1's canonical
// signature rule.
func CanonicalType(raw string) string {
	t := strings.TrimSpace(raw)
	t = stripGenerics(t)
	t = whitespace.ReplaceAllString(t, " ")
	t = strings.ReplaceAll(t, " [", "[")
	t = strings.ReplaceAll(t, "...", "[]")
	// collapse one-or-more bracket pairs possibly separated by whitespace
	t = strings.ReplaceAll(t, "[ ]", "[]")
	if strings.Contains(t, "[]") {
		base := strings.ReplaceAll(t, "[]", "")
		base = strings.TrimSpace(base)
		return base + "[]"
	}
	return t
}

// stripGenerics removes a top-level <...> type-argument list, erasing
// generics per spec §3.1. Handles nested angle brackets (e.g. Map<String,
// List<Integer>>) by bracket-depth counting rather than a naive regex.
func stripGenerics(t string) string {
	start := strings.IndexByte(t, '<')
	if start < 0 {
		return t
	}
	depth := 0
	for i := start; i < len(t); i++ {
		switch t[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return t[:start] + t[i+1:]
			}
		}
	}
	return t[:start]
}

// CanonicalSignature joins a list of already-canonicalized parameter types
// into the comma-joined form spec §3.1/§6.1 require, with "" for no
// parameters (MethodID/CtorID add the surrounding parentheses).
func CanonicalSignature(paramTypes []string) string {
	return strings.Join(paramTypes, ",")
}
