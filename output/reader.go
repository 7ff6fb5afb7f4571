package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"unicode"

	"github.com/mudassirfayaz/Kings-Properties/models"
)

// ReadResult loads a previously written result file, accepting any of the
// three shapes. The shape is detected from the document itself: an object
// is the wrapped form, an array is a flat or extended export. Flat rows are
// rebuilt into records, so callers always get a ScrapeResult back.
func ReadResult(path string) (*models.ScrapeResult, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read result: %w", err)
	}

	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) == 0 {
		return nil, "", fmt.Errorf("read result: %s is empty", path)
	}

	if trimmed[0] == '{' {
		var result models.ScrapeResult
		if err := json.Unmarshal(trimmed, &result); err != nil {
			return nil, "", fmt.Errorf("decode wrapped result: %w", err)
		}
		return &result, models.ShapeWrapped, nil
	}

	var rows []models.FlatRecord
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, "", fmt.Errorf("decode flat result: %w", err)
	}

	shape := models.ShapeFlat
	records := make([]*models.PropertyRecord, 0, len(rows))
	for _, row := range rows {
		if row.Location != "" || row.ListingType != "" || row.ImageURL != "" || len(row.PropertyDetails) > 0 {
			shape = models.ShapeExtended
		}
		records = append(records, models.Unflatten(row))
	}
	return models.NewScrapeResult(records), shape, nil
}
