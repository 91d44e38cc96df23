package testsupport

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// DatasetRow is one line of the headline dataset fixture.
type DatasetRow struct {
	TestID     string
	Headline   string
	Slug       string
	FirstPlace string
}

// DatasetHeader is the column order written by WriteDataset.
var DatasetHeader = []string{"clickability_test_id", "headline", "slug", "first_place"}

// WriteDataset writes rows as a headline CSV at path, creating parent
// directories as needed.
func WriteDataset(t testing.TB, path string, rows ...DatasetRow) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(DatasetHeader); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.TestID, row.Headline, row.Slug, row.FirstPlace}); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush %s: %v", path, err)
	}
}

// WriteLines writes raw lines to path, each terminated by a newline.
func WriteLines(t testing.TB, path string, lines ...string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	var content string
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadLines returns the non-empty lines of the file at path.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
