package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mudassirfayaz/Kings-Properties/models"
)

func sampleResult() *models.ScrapeResult {
	rec := models.NewPropertyRecord()
	rec.Title = "14 Industrial Way"
	rec.URL = "https://buildout.com/website/921775-abc"
	return models.NewScrapeResult([]*models.PropertyRecord{rec})
}

func TestWriteResult_Flat(t *testing.T) {
	dir := t.TempDir()

	path, count, err := WriteResult(dir, "properties", models.ShapeFlat, sampleResult(), models.FlattenOptions{})
	if err != nil {
		t.Fatalf("WriteResult() error: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if filepath.Base(path) != "properties.json" {
		t.Errorf("path = %q, want properties.json", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var rows []models.FlatRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("output is not a flat array: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "14 Industrial Way" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestWriteResult_Wrapped(t *testing.T) {
	dir := t.TempDir()

	path, _, err := WriteResult(dir, "properties", models.ShapeWrapped, sampleResult(), models.FlattenOptions{})
	if err != nil {
		t.Fatalf("WriteResult() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var wrapped models.ScrapeResult
	if err := json.Unmarshal(data, &wrapped); err != nil {
		t.Fatalf("output is not a wrapped object: %v", err)
	}
	if wrapped.Metadata.TotalProperties != 1 {
		t.Errorf("metadata.total_properties = %d, want 1", wrapped.Metadata.TotalProperties)
	}
}

func TestWriteResult_UnknownShape(t *testing.T) {
	if _, _, err := WriteResult(t.TempDir(), "x", "csvish", sampleResult(), models.FlattenOptions{}); err == nil {
		t.Error("WriteResult() with unknown shape should fail")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteSnapshot(dir, "<div class=\"grid-item\"></div>")
	if err != nil {
		t.Fatalf("WriteSnapshot() error: %v", err)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot() error: %v", err)
	}
	if got != "<div class=\"grid-item\"></div>" {
		t.Errorf("snapshot content = %q", got)
	}
}
