package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintFile(t *testing.T) {
	dir := t.TempDir()
	good := writeGo(t, dir, "good.go", "package q\n\nconst QA = `--sql 11111111-2222-4333-8444-555555555555\nselect 1`\n")
	bad := writeGo(t, dir, "bad.go", "package q\n\nconst QB = `select 2`\nconst Label = \"not sql\"\n")
	dup := writeGo(t, dir, "dup.go", "package q\n\nconst QC = `--sql 11111111-2222-4333-8444-555555555555\nselect 3`\n")

	seen := map[string]violation{}
	vs, err := lintFile(good, seen)
	if err != nil || len(vs) != 0 {
		t.Fatalf("good.go: violations=%v err=%v", vs, err)
	}

	vs, err = lintFile(bad, seen)
	if err != nil {
		t.Fatalf("bad.go: %v", err)
	}
	if len(vs) != 1 || vs[0].name != "QB" {
		t.Fatalf("bad.go: unexpected violations %+v", vs)
	}

	vs, err = lintFile(dup, seen)
	if err != nil {
		t.Fatalf("dup.go: %v", err)
	}
	if len(vs) != 1 || !strings.Contains(vs[0].message, "QA") {
		t.Fatalf("dup.go: unexpected violations %+v", vs)
	}
}
