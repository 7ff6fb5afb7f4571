package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mudassirfayaz/Kings-Properties/browser"
	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/enrich"
	"github.com/mudassirfayaz/Kings-Properties/models"
	"github.com/mudassirfayaz/Kings-Properties/output"
	"github.com/mudassirfayaz/Kings-Properties/probe"
	"github.com/mudassirfayaz/Kings-Properties/simhash"
	"golang.org/x/time/rate"
)

// Outcome carries a run's result plus traversal bookkeeping for callers.
type Outcome struct {
	Result       *models.ScrapeResult
	PagesVisited int
	TotalPages   int
	Duplicates   int
}

// Orchestrator executes complete runs: probe, navigate, settle, enter the
// widget, then collect page by page. It keeps no state between runs beyond
// the browser session it borrows pages from.
type Orchestrator struct {
	session  *browser.Session
	cfg      *config.Config
	prober   *probe.Prober
	enricher *enrich.Enricher
	trav     traverser
}

// NewOrchestrator wires an orchestrator onto a running browser session.
func NewOrchestrator(session *browser.Session, cfg *config.Config) *Orchestrator {
	o := &Orchestrator{
		session: session,
		cfg:     cfg,
		trav:    newTraverser(cfg.Wait, cfg.Traversal),
	}
	client := probe.NewClient(cfg.Browser.DefaultProxy)
	if cfg.Probe.Enabled {
		o.prober = probe.New(cfg.Probe, cfg.Target, client)
	}
	o.enricher = enrich.New(client, cfg.Enrich)
	return o
}

// Run executes one full traversal.
//
// Failures before any collection (navigation, widget discovery) return an
// error and no result. Once collection has started, the records gathered so
// far always come back, with the error reporting why the run ended early.
func (o *Orchestrator) Run(ctx context.Context, req *models.RunRequest) (*Outcome, error) {
	targetURL := req.URL
	if targetURL == "" {
		targetURL = o.cfg.Target.URL
	}
	if u, perr := url.Parse(targetURL); perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, models.NewScrapeError(models.ErrCodeBadURL,
			fmt.Sprintf("target %q is not an absolute http(s) URL", targetURL), perr)
	}

	// ── 1. Run deadline ───────────────────────────────────────────────
	timeout := time.Duration(req.Timeout) * time.Second
	if timeout <= 0 {
		timeout = o.cfg.Run.DefaultTimeout
	}
	if timeout > o.cfg.Run.MaxTimeout {
		timeout = o.cfg.Run.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 2. Pre-flight probe (advisory, never fatal) ───────────────────
	if o.prober != nil {
		if rep, err := o.prober.Run(ctx, targetURL); err != nil {
			slog.Warn("pre-flight probe failed, continuing to browser run",
				"url", targetURL, "error", err)
		} else {
			if !rep.RobotsAllowed {
				slog.Warn("robots.txt disallows the target path", "url", targetURL)
			}
			slog.Info("pre-flight probe",
				"status", rep.StatusCode,
				"title", rep.Title,
				"widgetInStaticHTML", rep.WidgetInHTML,
				"needsBrowser", rep.NeedsBrowser)
		}
	}

	// ── 3. Acquire page ───────────────────────────────────────────────
	page, err := o.session.Acquire()
	if err != nil {
		return nil, err
	}

	// ── 4. CRITICAL DEFER: guarantee release even on timeout or panic ──
	defer o.session.Release(page)

	// ── 5. Stealth + headers + request blocking (before navigation) ───
	o.session.InjectStealth(page)
	browser.ApplyHeaders(page, targetURL, nil)
	router := browser.MountHijack(page, o.cfg.Browser.BlockedResourceTypes, o.cfg.Browser.BlockAds)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Bind run context to the page ───────────────────────────────
	p := page.Context(ctx)
	view := browser.NewPageView(p)

	// ── 7. Navigate ───────────────────────────────────────────────────
	slog.Info("navigating to catalog", "url", targetURL)
	if err := p.Navigate(targetURL); err != nil {
		return nil, categorizeError(err, "navigation to catalog page failed")
	}
	if err := view.Sleep(o.cfg.Traversal.PostNavigationWait); err != nil {
		return nil, categorizeError(err, "run ended during navigation wait")
	}

	// ── 8. Settle the host page ───────────────────────────────────────
	if err := o.trav.waiter.Settle(view); err != nil {
		return nil, categorizeError(err, "run ended while settling catalog page")
	}

	// ── 9. Find the widget frame (the run's only hard precondition) ───
	widget, err := o.findWidget(view)
	if err != nil {
		return nil, err
	}

	// ── 10. Settle inside the widget ──────────────────────────────────
	if err := o.trav.waiter.Settle(widget); err != nil {
		return nil, categorizeError(err, "run ended while settling widget")
	}

	if o.cfg.Output.SnapshotDir != "" {
		o.dumpSnapshot(widget)
	}

	// ── 11. Collect page by page ──────────────────────────────────────
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = o.cfg.Traversal.DefaultMaxPages
	}
	records, stats, terr := o.trav.collect(ctx, widget, maxPages)

	// ── 12. Dedupe ────────────────────────────────────────────────────
	duplicates := 0
	if req.Dedupe == nil || *req.Dedupe {
		records, duplicates = dedupeRecords(records, o.cfg.Dedupe.MaxDistance)
	}

	// ── 13. Detail-page enrichment (optional) ─────────────────────────
	if req.Enrich && terr == nil && ctx.Err() == nil {
		if err := o.enricher.Enrich(ctx, records); err != nil {
			slog.Warn("enrichment incomplete", "error", err)
		}
	}

	return &Outcome{
		Result:       models.NewScrapeResult(records),
		PagesVisited: stats.pagesVisited,
		TotalPages:   stats.totalPages,
		Duplicates:   duplicates,
	}, terr
}

// findWidget scans the page's iframes for one whose src names both the
// widget host and the marker, then enters it.
func (o *Orchestrator) findWidget(view *browser.PageView) (*browser.PageView, error) {
	frames, err := view.Find(iframeSel)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeFrameNotFound, "listing page iframes failed", err)
	}

	host := strings.ToLower(o.cfg.Target.WidgetHost)
	marker := strings.ToLower(o.cfg.Target.WidgetMarker)

	for _, f := range frames {
		src := browser.FrameSrc(f)
		if src == "" || !strings.Contains(src, host) || !strings.Contains(src, marker) {
			continue
		}
		slog.Info("widget frame found", "src", src)
		widget, err := view.EnterFrame(f)
		if err != nil {
			return nil, models.NewScrapeError(
				models.ErrCodeFrameNotFound, "failed to enter widget frame", err)
		}
		return widget, nil
	}

	return nil, models.NewScrapeError(
		models.ErrCodeFrameNotFound,
		fmt.Sprintf("no iframe matching host %q and marker %q", o.cfg.Target.WidgetHost, o.cfg.Target.WidgetMarker),
		nil,
	)
}

// dumpSnapshot captures the settled widget DOM for offline replay and
// debugging. The structural fingerprint lets operators spot widget redesigns
// by diffing hashes across captures.
func (o *Orchestrator) dumpSnapshot(widget *browser.PageView) {
	html, err := widget.HTML()
	if err != nil {
		slog.Warn("snapshot capture failed", "error", err)
		return
	}
	path, err := output.WriteSnapshot(o.cfg.Output.SnapshotDir, html)
	if err != nil {
		slog.Warn("snapshot write failed", "error", err)
		return
	}
	slog.Info("widget snapshot captured",
		"path", path,
		"structure", fmt.Sprintf("%016x", simhash.FingerprintDOM(html)))
}

// traversalStats is per-run bookkeeping from the collection loop.
type traversalStats struct {
	pagesVisited int
	totalPages   int
}

// traverser is the collection loop shared by live runs and offline replay.
type traverser struct {
	waiter *Waiter
	pager  *Paginator
	cfg    config.TraversalConfig
	pace   *rate.Limiter
}

func newTraverser(wait config.WaitConfig, trav config.TraversalConfig) traverser {
	t := traverser{
		waiter: newWaiter(wait),
		pager:  newPaginator(trav),
		cfg:    trav,
	}
	if trav.AdvanceEvery > 0 {
		t.pace = rate.NewLimiter(rate.Every(trav.AdvanceEvery), 1)
	}
	return t
}

// collect walks the widget from its current page forward, extracting every
// page it lands on, until the ceiling, the last page or a stall. Stalls and
// running out of pager buttons end the loop without error; only context
// expiry is reported, with the records gathered so far.
func (t *traverser) collect(ctx context.Context, view View, maxPages int) ([]*models.PropertyRecord, traversalStats, error) {
	state := t.pager.ReadState(view)
	reported := state.Info.TotalPages

	ceiling := reported
	if maxPages > 0 && maxPages < ceiling {
		ceiling = maxPages
	}
	if t.cfg.SafetyCeiling > 0 && ceiling > t.cfg.SafetyCeiling {
		slog.Warn("reported page count exceeds safety ceiling, capping",
			"reported", reported, "ceiling", t.cfg.SafetyCeiling)
		ceiling = t.cfg.SafetyCeiling
	}

	slog.Info("traversal starting",
		"currentPage", state.Current,
		"totalPages", reported,
		"totalListings", state.Info.TotalListings,
		"range", state.Info.CurrentRange,
		"ceiling", ceiling)

	var records []*models.PropertyRecord
	stats := traversalStats{totalPages: reported}
	current := state.Current

	for {
		if err := ctx.Err(); err != nil {
			return records, stats, categorizeError(err, "run deadline reached during traversal")
		}

		pageRecords := extractPage(view, current)
		records = append(records, pageRecords...)
		stats.pagesVisited++
		slog.Info("page collected",
			"page", current, "pageRecords", len(pageRecords), "total", len(records))

		// A page with no listing containers means the catalog is exhausted
		// or unreachable past this point.
		if len(pageRecords) == 0 {
			slog.Warn("no listing containers on page, ending traversal", "page", current)
			return records, stats, nil
		}

		if current >= ceiling {
			slog.Info("page ceiling reached", "page", current, "ceiling", ceiling)
			return records, stats, nil
		}

		// Politeness pacing between pagination clicks.
		if t.pace != nil {
			if err := t.pace.Wait(ctx); err != nil {
				return records, stats, categorizeError(err, "run ended while pacing pagination")
			}
		}

		next, err := t.pager.Advance(view, t.waiter, current)
		switch {
		case errors.Is(err, errNoNextPage):
			slog.Info("no further page button, traversal complete", "page", current)
			return records, stats, nil
		case errors.Is(err, errStalled):
			slog.Warn("pagination stalled, ending traversal",
				"page", current, "counterReadBack", next)
			return records, stats, nil
		case err != nil:
			return records, stats, categorizeError(err, "run ended during traversal")
		}
		current = next

		// The widget refreshes its own totals; track the largest estimate.
		if info := t.pager.ReadState(view).Info; info.TotalPages > stats.totalPages {
			stats.totalPages = info.TotalPages
		}
	}
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "run canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
