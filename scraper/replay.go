package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/models"
	"github.com/mudassirfayaz/Kings-Properties/simhash"
)

// Replay runs the extraction pipeline over a captured widget snapshot
// instead of a live browser. Pagination cannot advance on a static
// document, so the outcome covers the snapshot's single page; it is the
// standard way to debug selector drift after a widget redesign.
func Replay(ctx context.Context, cfg *config.Config, rawHTML, sourceURL string) (*Outcome, error) {
	view, err := newSnapshotView(rawHTML, sourceURL)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeInvalidInput, "snapshot is not parseable HTML", err)
	}

	slog.Info("replaying widget snapshot",
		"bytes", len(rawHTML),
		"structure", fmt.Sprintf("%016x", simhash.FingerprintDOM(rawHTML)))

	trav := newTraverser(cfg.Wait, cfg.Traversal)

	// A snapshot never advances, so one page is the natural ceiling.
	records, stats, terr := trav.collect(ctx, view, 1)

	records, duplicates := dedupeRecords(records, cfg.Dedupe.MaxDistance)

	return &Outcome{
		Result:       models.NewScrapeResult(records),
		PagesVisited: stats.pagesVisited,
		TotalPages:   stats.totalPages,
		Duplicates:   duplicates,
	}, terr
}
