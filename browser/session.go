// Package browser owns the headless Chrome lifecycle: launching, page
// pooling, stealth setup and request blocking. Traversal logic lives above
// it and only sees rendered documents.
package browser

import (
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/models"
	"github.com/ysmood/gson"
)

// Session manages the global browser lifecycle and the page pool.
// It is safe for concurrent use.
type Session struct {
	browser    *rod.Browser
	pagePool   rod.Pool[rod.Page]
	cfg        config.BrowserConfig
	activeRuns atomic.Int32
	closed     atomic.Bool
	startTime  time.Time
}

// NewSession launches a headless browser and initialises the reusable page pool.
func NewSession(cfg config.BrowserConfig) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(cfg.MaxPages)
	slog.Info("page pool created", "maxPages", cfg.MaxPages)

	return &Session{
		browser:   b,
		pagePool:  pool,
		cfg:       cfg,
		startTime: time.Now(),
	}, nil
}

// Acquire borrows a tab from the pool, creating one on demand.
func (s *Session) Acquire() (*rod.Page, error) {
	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			err,
		)
	}
	s.activeRuns.Add(1)
	return page, nil
}

// Release parks the page on about:blank and returns it to the pool. The
// original page reference is used so cleanup succeeds even after the run
// context has expired.
func (s *Session) Release(page *rod.Page) {
	if err := page.Navigate("about:blank"); err != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", err)
	}
	s.pagePool.Put(page)
	s.activeRuns.Add(-1)
}

// InjectStealth installs the stealth script that masks navigator.webdriver
// and friends. It must run before the first navigation on the page.
func (s *Session) InjectStealth(page *rod.Page) {
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}
}

// ApplyHeaders sets extra HTTP headers on the page. When the target has no
// Referer yet, a plausible search referer for its hostname is synthesised.
func ApplyHeaders(page *rod.Page, targetURL string, headers map[string]string) {
	extra := make(map[string]string, len(headers)+1)
	if _, hasReferer := headers["Referer"]; !hasReferer {
		if u, err := url.Parse(targetURL); err == nil {
			extra["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		}
	}
	for k, v := range headers {
		extra[k] = v
	}
	if len(extra) == 0 {
		return
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(extra),
	}.Call(page)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// Stats returns a snapshot of the session's current state.
func (s *Session) Stats() models.BrowserStats {
	return models.BrowserStats{
		Connected:  !s.closed.Load(),
		ActiveRuns: int(s.activeRuns.Load()),
	}
}

// Uptime reports how long the session has been running.
func (s *Session) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (s *Session) Close() {
	s.closed.Store(true)
	slog.Info("browser session shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("browser session shutting down: closing browser")
	s.browser.MustClose()
	slog.Info("browser session shutdown complete")
}
