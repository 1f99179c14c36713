package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLintAcceptsRepositoryQueries(t *testing.T) {
	violations, err := lint([]string{"../../sqlinline"})
	if err != nil {
		t.Fatalf("lint() error: %v", err)
	}
	for _, v := range violations {
		t.Errorf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
	}
}

func TestLintReportsMissingAndDuplicateMarkers(t *testing.T) {
	dir := t.TempDir()
	src := "package q\n\n" +
		"const A = `--sql 11111111-2222-3333-4444-555555555555\nselect 1;`\n" +
		"const B = `--sql 11111111-2222-3333-4444-555555555555\nselect 2;`\n" +
		"const C = `select 3;`\n" +
		"const D = \"plain text\"\n"
	if err := os.WriteFile(filepath.Join(dir, "q.go"), []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	violations, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint() error: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("violations = %+v, want 2", violations)
	}
	var names []string
	for _, v := range violations {
		names = append(names, v.name+": "+v.message)
	}
	joined := strings.Join(names, "\n")
	if !strings.Contains(joined, "C: missing") || !strings.Contains(joined, "B: marker") {
		t.Fatalf("unexpected violations:\n%s", joined)
	}
}
