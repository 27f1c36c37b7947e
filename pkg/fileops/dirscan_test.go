package fileops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isCardFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml", ".md":
		return true
	}
	return false
}

func TestScanWithFilter(t *testing.T) {
	root := t.TempDir()
	createTestFile(t, root, "b.json", "{}")
	createTestFile(t, root, "a.yaml", "id: a")
	createTestFile(t, root, "notes.txt", "ignored")
	createTestFile(t, root, "dev/tools.md", "---\nid: t\n---\n")
	createTestFile(t, root, "dev/deep/too-deep.json", "{}")
	createTestFile(t, root, ".hidden/x.json", "{}")
	createTestFile(t, root, "backups/old.json", "{}")

	files, err := ScanWithFilter(root, isCardFile, 2)
	if err != nil {
		t.Fatalf("ScanWithFilter failed: %v", err)
	}

	var got []string
	for _, f := range files {
		got = append(got, filepath.ToSlash(f.Path))
	}
	want := []string{"a.yaml", "b.json", "dev/tools.md"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("scan = %v, want %v", got, want)
	}
	for _, f := range files {
		if f.AbsPath != filepath.Join(root, f.Path) {
			t.Errorf("AbsPath %q does not match root + %q", f.AbsPath, f.Path)
		}
	}
}

func TestNewDirectoryScannerErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"empty path", func(t *testing.T) string { return "  " }},
		{"missing path", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }},
		{"file path", func(t *testing.T) string { return createTestFile(t, t.TempDir(), "f.json", "{}") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewDirectoryScanner(tt.path(t), nil)
			if err == nil {
				s.Close()
				t.Fatal("expected error")
			}
		})
	}
}

func TestScanSkipsEscapingSymlink(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	createTestFile(t, root, "inside.json", "{}")
	target := createTestFile(t, outside, "outside.json", "{}")
	if err := os.Symlink(target, filepath.Join(root, "link.json")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files, err := ScanWithFilter(root, isCardFile, 1)
	if err != nil {
		t.Fatalf("ScanWithFilter failed: %v", err)
	}
	if len(files) != 1 || files[0].Name != "inside.json" {
		t.Errorf("expected only inside.json, got %+v", files)
	}
}

func TestScannerClosed(t *testing.T) {
	s, err := NewDirectoryScanner(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ScanDirectory(); err == nil {
		t.Error("expected error scanning after Close")
	}
}
