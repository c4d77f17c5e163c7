package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteSourceFile drops a small source file named for the given date and
// stable ID into dir, e.g. 2024-01-02_entry_uid-abcd.md, and returns its
// path.
func WriteSourceFile(t testing.TB, dir, date, id string) string {
	t.Helper()
	name := fmt.Sprintf("%s_entry_uid-%s.md", date, id)
	path := filepath.Join(dir, name)
	WriteFile(t, path, []byte("entry "+id+"\n"))
	return path
}

// WriteArtifact drops a worker output artifact carrying the stable ID
// into dir, mimicking what the ingestion system deposits.
func WriteArtifact(t testing.TB, dir, id string) string {
	t.Helper()
	name := fmt.Sprintf("summary_uid-%s.json", id)
	path := filepath.Join(dir, name)
	WriteFile(t, path, []byte("{}"))
	return path
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
