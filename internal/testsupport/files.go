package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteBytes writes size bytes of filler to path, creating parent
// directories. A size of zero creates an empty file, which the exporter and
// assembler treat as a failed write.
func WriteBytes(path string, size int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if size < 0 {
		size = 0
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = 0x42
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteFile is WriteBytes for test setup: a stand-in book or chapter file of
// at least one byte, failing the test on error.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := WriteBytes(path, size); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
