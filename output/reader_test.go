package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mudassirfayaz/Kings-Properties/models"
)

func writeShape(t *testing.T, shape string) string {
	t.Helper()
	path, _, err := WriteResult(t.TempDir(), "properties", shape, sampleResult(), models.FlattenOptions{})
	if err != nil {
		t.Fatalf("WriteResult(%q) error: %v", shape, err)
	}
	return path
}

func TestReadResult_Wrapped(t *testing.T) {
	result, shape, err := ReadResult(writeShape(t, models.ShapeWrapped))
	if err != nil {
		t.Fatalf("ReadResult() error: %v", err)
	}
	if shape != models.ShapeWrapped {
		t.Errorf("shape = %q, want wrapped", shape)
	}
	if result.Metadata.TotalProperties != 1 {
		t.Errorf("metadata.total_properties = %d, want 1", result.Metadata.TotalProperties)
	}
	if result.Records[0].Title != "14 Industrial Way" {
		t.Errorf("title = %q", result.Records[0].Title)
	}
}

func TestReadResult_Flat(t *testing.T) {
	result, shape, err := ReadResult(writeShape(t, models.ShapeFlat))
	if err != nil {
		t.Fatalf("ReadResult() error: %v", err)
	}
	if shape != models.ShapeFlat {
		t.Errorf("shape = %q, want flat", shape)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	rec := result.Records[0]
	if rec.Title != "14 Industrial Way" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.URL != "https://buildout.com/website/921775-abc" {
		t.Errorf("url = %q", rec.URL)
	}
	if !rec.ForLease {
		t.Error("for_lease should survive the round trip")
	}
}

func TestReadResult_ExtendedDetection(t *testing.T) {
	result, shape, err := ReadResult(writeShape(t, models.ShapeExtended))
	if err != nil {
		t.Fatalf("ReadResult() error: %v", err)
	}
	if shape != models.ShapeExtended {
		t.Errorf("shape = %q, want extended", shape)
	}
	if result.Records[0].Location != "Unknown" {
		t.Errorf("location = %q, want Unknown", result.Records[0].Location)
	}
}

func TestReadResult_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadResult(path); err == nil {
		t.Error("ReadResult() on empty file should fail")
	}
}
