package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mudassirfayaz/Kings-Properties/browser"
	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/enrich"
	"github.com/mudassirfayaz/Kings-Properties/models"
	"github.com/mudassirfayaz/Kings-Properties/output"
	"github.com/mudassirfayaz/Kings-Properties/probe"
	"github.com/mudassirfayaz/Kings-Properties/scraper"
	"github.com/mudassirfayaz/Kings-Properties/storage"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	_ = godotenv.Load()
	cfg := config.Load()

	// ── 2. Flags ────────────────────────────────────────────────────
	var (
		targetURL = flag.String("url", "", "catalog page to traverse (default: configured target)")
		maxPages  = flag.Int("max-pages", 0, "page cap for this run (default: configured cap)")
		outDir    = flag.String("out", cfg.Output.Dir, "directory for the result file")
		shape     = flag.String("shape", cfg.Output.Shape, "output shape: flat, extended or wrapped")
		snapshot  = flag.String("snapshot", "", "replay a captured widget snapshot instead of a live run")
		doEnrich  = flag.Bool("enrich", false, "visit detail pages and attach descriptions")
		quiet     = flag.Bool("quiet", false, "log errors only and print just the result path")
	)
	flag.Parse()

	if *quiet {
		cfg.Log.Level = "error"
	}
	initLogger(cfg.Log)

	// Ctrl-C cancels the run; whatever was collected still gets written.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := models.RunRequest{
		URL:      *targetURL,
		MaxPages: *maxPages,
		Shape:    *shape,
		Enrich:   *doEnrich,
	}
	req.Defaults()

	// ── 3. Run: live traversal or offline replay ────────────────────
	var (
		outcome *scraper.Outcome
		err     error
	)
	if *snapshot != "" {
		outcome, err = replaySnapshot(ctx, cfg, *snapshot, req)
	} else {
		outcome, err = liveRun(ctx, cfg, req)
	}
	if outcome == nil {
		slog.Error("run produced no result", "error", err)
		os.Exit(1)
	}
	if err != nil {
		slog.Warn("run ended early, writing partial result", "error", err)
	}

	// ── 4. Write the result file ────────────────────────────────────
	path, count, werr := output.WriteResult(*outDir, "properties", req.Shape, outcome.Result,
		models.FlattenOptions{ContactEmail: cfg.Target.ContactEmail})
	if werr != nil {
		slog.Error("result write failed", "error", werr)
		os.Exit(1)
	}

	// ── 5. Optional Postgres sink ───────────────────────────────────
	if cfg.Storage.PostgresDSN != "" {
		persist(cfg.Storage.PostgresDSN, outcome.Result.Records)
	}

	slog.Info("run finished",
		"records", count,
		"pages", outcome.PagesVisited,
		"totalPages", outcome.TotalPages,
		"duplicatesRemoved", outcome.Duplicates,
		"path", path,
	)
	if *quiet {
		fmt.Println(path)
	}
}

// liveRun launches a browser session for a single traversal.
func liveRun(ctx context.Context, cfg *config.Config, req models.RunRequest) (*scraper.Outcome, error) {
	session, err := browser.NewSession(cfg.Browser)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return scraper.NewOrchestrator(session, cfg).Run(ctx, &req)
}

// replaySnapshot runs the extractor over a dumped widget document. No
// browser is involved; enrichment, when asked for, goes over plain HTTP.
func replaySnapshot(ctx context.Context, cfg *config.Config, path string, req models.RunRequest) (*scraper.Outcome, error) {
	html, err := output.ReadSnapshot(path)
	if err != nil {
		return nil, err
	}

	outcome, err := scraper.Replay(ctx, cfg, html, req.URL)
	if err != nil || outcome == nil {
		return outcome, err
	}

	if req.Enrich {
		client := probe.NewClient(cfg.Browser.DefaultProxy)
		if eerr := enrich.New(client, cfg.Enrich).Enrich(ctx, outcome.Result.Records); eerr != nil {
			slog.Warn("enrichment incomplete", "error", eerr)
		}
	}
	return outcome, nil
}

// persist pushes the run's records into the configured Postgres sink.
func persist(dsn string, records []*models.PropertyRecord) {
	store, err := storage.NewPostgresStore(dsn)
	if err != nil {
		slog.Error("postgres sink unavailable", "error", err)
		return
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	saved, err := store.SaveRecords(ctx, records)
	if err != nil {
		slog.Error("postgres sink failed", "error", err)
		return
	}
	slog.Info("records persisted", "rows", saved)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
