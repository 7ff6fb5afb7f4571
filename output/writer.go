// Package output writes run artifacts to disk: shaped result files and
// raw widget snapshots for offline replay.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mudassirfayaz/Kings-Properties/models"
)

// WriteResult serializes the run result into dir as name.json, shaped per
// shape (flat, extended or wrapped). Returns the file path and row count.
func WriteResult(dir, name, shape string, result *models.ScrapeResult, opts models.FlattenOptions) (string, int, error) {
	if result == nil {
		return "", 0, fmt.Errorf("nil result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create output dir: %w", err)
	}

	var payload interface{}
	count := len(result.Records)
	switch shape {
	case models.ShapeWrapped:
		payload = result
	case models.ShapeExtended:
		opts.Extended = true
		payload = models.FlattenAll(result, opts)
	case models.ShapeFlat, "":
		opts.Extended = false
		payload = models.FlattenAll(result, opts)
	default:
		return "", 0, fmt.Errorf("unknown output shape %q", shape)
	}

	path := filepath.Join(dir, name+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", 0, fmt.Errorf("encode %s: %w", path, err)
	}

	return path, count, nil
}

// WriteSnapshot stores raw widget HTML under dir with a timestamped name,
// for debugging and offline replay. Returns the file path.
func WriteSnapshot(dir, html string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, "widget-"+time.Now().Format("20060102-150405")+".html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// ReadSnapshot loads a previously written widget snapshot.
func ReadSnapshot(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}
	return string(data), nil
}
