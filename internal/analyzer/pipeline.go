package analyzer

import (
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"codemap/internal/discover"
	"codemap/internal/javaparse"
	"codemap/internal/symbols"
)

// parseOutcome is one discovered file's parse+extract result, kept at its
// discovery-order slot so the fan-out below can run unordered and still
// hand Run a deterministic, discovery-ordered file list (SPEC_FULL.md §8.1).
type parseOutcome struct {
	file *SourceFile
	diag *Diagnostic
}

// AnalyzeFiles runs stages A-G end to end over a set of discovered files:
// parse, extract, then Run. A file that fails to parse (or whose tree has
// syntax errors) is skipped with a ParseError diagnostic rather than
// aborting the run, per the §7 error taxonomy.
//
// Parsing and extraction (stages A-B) run across a bounded worker pool since
// each file's parse tree and symbol table are independent of every other
// file's; the merge back into a single ordered file list is a plain
// sequential pass once every worker has finished (SPEC_FULL.md §5's
// per-file parallelism allowance).
func AnalyzeFiles(logger *slog.Logger, discovered []discover.File) (*Result, error) {
	outcomes := make([]parseOutcome, len(discovered))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, df := range discovered {
		i, df := i, df
		g.Go(func() error {
			outcomes[i] = parseOne(df)
			return nil
		})
	}
	_ = g.Wait() // parseOne never returns an error; failures become diagnostics

	var files []SourceFile
	var parseDiags []Diagnostic
	for _, o := range outcomes {
		if o.diag != nil {
			parseDiags = append(parseDiags, *o.diag)
			continue
		}
		files = append(files, *o.file)
	}

	result, err := Run(logger, files)
	if err != nil {
		return nil, err
	}
	result.Diagnostics = append(parseDiags, result.Diagnostics...)
	return result, nil
}

func parseOne(df discover.File) parseOutcome {
	pf, err := javaparse.Parse(df.RelPath, df.Bytes)
	if err != nil {
		return parseOutcome{diag: &Diagnostic{
			Kind:     DiagParseError,
			FilePath: df.RelPath,
			Detail:   fmt.Sprintf("parse failed: %v", err),
		}}
	}
	if pf.HasErrors() {
		pf.Close()
		return parseOutcome{diag: &Diagnostic{
			Kind:     DiagParseError,
			FilePath: df.RelPath,
			Detail:   "syntax error in parse tree",
		}}
	}
	sf := SourceFile{Parsed: pf, Extracted: symbols.Extract(pf)}
	return parseOutcome{file: &sf}
}
