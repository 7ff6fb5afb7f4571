// Package enrich visits listing detail pages after a traversal and attaches
// a Markdown description to each record, backfilling brochure links the
// widget's grid view did not show.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/models"
	"github.com/mudassirfayaz/Kings-Properties/probe"
)

// Enricher drives the optional post-traversal detail-page pass. Detail
// pages are server-rendered, so they are fetched over plain HTTP rather
// than through a browser tab.
type Enricher struct {
	client *probe.Client
	cfg    config.EnrichConfig
}

// New builds an Enricher. A nil client disables page visits; offline
// callers can still use Apply.
func New(client *probe.Client, cfg config.EnrichConfig) *Enricher {
	return &Enricher{client: client, cfg: cfg}
}

// Enrich visits each record's detail page in order. Records without a URL,
// and records whose extraction already failed, are skipped. Per-record
// failures are logged and skipped; the returned error reports context
// expiry only.
func (e *Enricher) Enrich(ctx context.Context, records []*models.PropertyRecord) error {
	if e.client == nil || len(records) == 0 {
		return nil
	}

	todo := records
	if e.cfg.MaxRecords > 0 && len(todo) > e.cfg.MaxRecords {
		slog.Info("capping enrichment pass", "records", len(todo), "cap", e.cfg.MaxRecords)
		todo = todo[:e.cfg.MaxRecords]
	}

	enriched := 0
	for _, rec := range todo {
		if err := ctx.Err(); err != nil {
			slog.Warn("enrichment pass cut short", "enriched", enriched, "skipped", len(todo)-enriched)
			return err
		}
		if rec.URL == "" || rec.ExtractionError != "" {
			continue
		}
		if err := e.enrichOne(ctx, rec); err != nil {
			slog.Debug("detail page enrichment failed, skipping record",
				"url", rec.URL, "error", err)
			continue
		}
		enriched++
	}

	slog.Info("enrichment pass finished", "enriched", enriched, "of", len(todo))
	return nil
}

// enrichOne fetches a single detail page under its own timeout and applies
// the extracted content to the record.
func (e *Enricher) enrichOne(ctx context.Context, rec *models.PropertyRecord) error {
	pctx, cancel := context.WithTimeout(ctx, e.cfg.PageTimeout)
	defer cancel()

	body, status, err := e.client.Fetch(pctx, rec.URL)
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("detail page returned %d", status)
	}
	Apply(rec, string(body))
	return nil
}
