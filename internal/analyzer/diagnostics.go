package analyzer

import "fmt"

// DiagKind is one of the four error-taxonomy categories from SPEC_FULL.md §7.
type DiagKind string

const (
	DiagParseError           DiagKind = "ParseError"
	DiagDuplicateSymbol      DiagKind = "DuplicateSymbol"
	DiagUnresolvedReference  DiagKind = "UnresolvedReference"
	DiagMalformedSpan        DiagKind = "MalformedSpan"
)

// Diagnostic is a single non-fatal (or, for MalformedSpan, pipeline-aborting)
// event raised during analysis.
type Diagnostic struct {
	Kind     DiagKind
	FilePath string
	Detail   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.FilePath, d.Detail)
}

// MalformedSpanError wraps a MalformedSpan diagnostic as an error, since
// that one category aborts the pipeline outright (SPEC_FULL.md §7) rather
// than accumulating alongside the graph.
type MalformedSpanError struct {
	Diagnostic
}

func (e *MalformedSpanError) Error() string {
	return "malformed span: " + e.Diagnostic.String()
}
