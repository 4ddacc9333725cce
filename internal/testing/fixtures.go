package testing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFile writes content to dir/rel, creating parent directories.
// It returns the full path.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", rel, err)
	}
	return path
}

// WriteJSON encodes v into dir/rel and returns the full path.
func WriteJSON(t *testing.T, dir, rel string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to encode fixture %s: %v", rel, err)
	}
	return WriteFile(t, dir, rel, string(data))
}

// Touch moves the modification time of path forward so a stat signature changes
// even when the size does not.
func Touch(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Failed to touch %s: %v", path, err)
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Str returns a pointer to v.
func Str(v string) *string {
	return &v
}
