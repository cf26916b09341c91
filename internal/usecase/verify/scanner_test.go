package verify

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root string, rel string, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestWalkScannerFindsMarkers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "svc/handler.go", "package svc\n\n// TODO: wire real gateway\nfunc Handle() {}\n")
	writeFile(t, root, "svc/charge.go", "package svc\n\nfunc Charge() { panic(\"not implemented\") }\n")
	writeFile(t, root, "svc/clean.go", "package svc\n\nfunc Clean() int { return 1 }\n")

	got, err := NewWalkScanner().Scan(root, DefaultMarkers, DefaultExcludeDirs)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []string{"svc/charge.go", "svc/handler.go"}
	if len(got.Files) != len(want) {
		t.Fatalf("Files = %v, want %v", got.Files, want)
	}
	for i, file := range want {
		if got.Files[i] != file {
			t.Fatalf("Files[%d] = %q, want %q", i, got.Files[i], file)
		}
	}
	if got.Count < 2 {
		t.Fatalf("Count = %d, want at least 2", got.Count)
	}
}

func TestWalkScannerSkipsTestFilesAndExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "svc/handler_test.go", "package svc\n\n// TODO: add negative case\n")
	writeFile(t, root, "web/app.spec.ts", "// TODO later\n")
	writeFile(t, root, "node_modules/dep/index.js", "// FIXME upstream\n")
	writeFile(t, root, "vendor/lib/lib.go", "// STUB\n")
	writeFile(t, root, "README.md", "TODO: docs\n")

	got, err := NewWalkScanner().Scan(root, DefaultMarkers, DefaultExcludeDirs)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got.Files) != 0 || got.Count != 0 {
		t.Fatalf("Scan() = %+v, want empty", got)
	}
}

func TestWalkScannerCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n\n// todo: lower case still counts\nvar x = 1 // FiXmE\n")

	got, err := NewWalkScanner().Scan(root, DefaultMarkers, DefaultExcludeDirs)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got.Files) != 1 || got.Count != 2 {
		t.Fatalf("Scan() = %+v, want 1 file with 2 occurrences", got)
	}
}

func TestWalkScannerMissingRoot(t *testing.T) {
	if _, err := NewWalkScanner().Scan(filepath.Join(t.TempDir(), "gone"), DefaultMarkers, DefaultExcludeDirs); err == nil {
		t.Fatal("Scan() on missing root should fail")
	}
}
