package scraper

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/mudassirfayaz/Kings-Properties/models"
	"github.com/mudassirfayaz/Kings-Properties/simhash"
)

// dedupeRecords drops records that duplicate an earlier one, either exactly
// (same property ID) or by content fingerprint within maxDistance. The first
// occurrence wins and input order is preserved. Widgets occasionally repeat
// a page's listings after a partial refresh, so duplicates are expected.
func dedupeRecords(records []*models.PropertyRecord, maxDistance int) ([]*models.PropertyRecord, int) {
	if len(records) < 2 {
		return records, 0
	}

	kept := make([]*models.PropertyRecord, 0, len(records))
	seenIDs := make(map[string]struct{}, len(records))
	var prints []uint64
	dropped := 0

	for _, rec := range records {
		if rec.PropertyID != "" {
			if _, dup := seenIDs[rec.PropertyID]; dup {
				dropped++
				continue
			}
		}

		fp := simhash.Fingerprint(recordText(rec))
		dup := false
		if fp != 0 {
			for _, prev := range prints {
				if simhash.Similar(fp, prev, maxDistance) {
					dup = true
					break
				}
			}
		}
		if dup {
			dropped++
			continue
		}

		if rec.PropertyID != "" {
			seenIDs[rec.PropertyID] = struct{}{}
		}
		if fp != 0 {
			prints = append(prints, fp)
		}
		kept = append(kept, rec)
	}

	if dropped > 0 {
		slog.Info("duplicate records dropped", "count", dropped, "kept", len(kept))
	}
	return kept, dropped
}

// recordText flattens the identifying fields of a record into the text that
// is fingerprinted. Detail keys are sorted so map order cannot perturb the
// fingerprint.
func recordText(rec *models.PropertyRecord) string {
	var b strings.Builder
	b.WriteString(rec.Title)
	b.WriteByte(' ')
	b.WriteString(rec.Location)
	b.WriteByte(' ')
	b.WriteString(rec.URL)

	if len(rec.Details) > 0 {
		keys := make([]string, 0, len(rec.Details))
		for k := range rec.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte(' ')
			b.WriteString(rec.Details[k])
		}
	}
	return b.String()
}
