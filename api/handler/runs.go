package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mudassirfayaz/Kings-Properties/cache"
	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/models"
	"github.com/mudassirfayaz/Kings-Properties/notify"
	"github.com/mudassirfayaz/Kings-Properties/scraper"
	"github.com/mudassirfayaz/Kings-Properties/storage"
)

// Sinks groups the optional destinations a finished run is pushed to.
// Nil members are simply skipped.
type Sinks struct {
	Store     *storage.PostgresStore
	Publisher *notify.Publisher
	Webhook   config.WebhookConfig
}

// runStore holds all in-flight and completed run jobs.
var runStore sync.Map

// runQueue feeds the executor goroutine. The service owns a single browser
// session, so runs execute strictly in submission order.
var runQueue = make(chan *models.RunJob, 32)

var executorOnce sync.Once

func init() {
	// Background goroutine to expire run jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			runStore.Range(func(key, value any) bool {
				job := value.(*models.RunJob)
				if job.CreatedAt < cutoff {
					runStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostRun returns a handler for POST /api/v1/runs. It validates the request,
// answers from cache when the caller allows it, and otherwise queues a job
// for the executor. An empty body is a valid request: every field defaults.
func PostRun(orc *scraper.Orchestrator, cfg *config.Config, cc *cache.Cache, sinks *Sinks) gin.HandlerFunc {
	executorOnce.Do(func() {
		go executor(orc, cfg, cc, sinks)
	})

	return func(c *gin.Context) {
		var req models.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		jobID := "run-" + uuid.NewString()
		job := &models.RunJob{
			ID:        jobID,
			Status:    models.RunStatusQueued,
			Request:   req,
			CreatedAt: time.Now().Unix(),
		}

		// A fresh-enough cached result completes the run on the spot.
		if req.MaxAge > 0 {
			if result, ok := cc.Get(runCacheKey(cfg, req), req.MaxAge); ok {
				job.Status = models.RunStatusCompleted
				job.Result = result
				job.CacheStatus = "hit"
				job.StartedAt = job.CreatedAt
				job.FinishedAt = job.CreatedAt
				runStore.Store(jobID, job)
				slog.Info("run served from cache", "id", jobID, "url", req.URL)
				c.JSON(http.StatusOK, models.RunResponse{ID: jobID, Status: job.Status})
				return
			}
			job.CacheStatus = "miss"
		}

		runStore.Store(jobID, job)

		select {
		case runQueue <- job:
		default:
			runStore.Delete(jobID)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "run queue is full, retry later",
				},
			})
			return
		}

		c.JSON(http.StatusOK, models.RunResponse{ID: jobID, Status: job.Status})
	}
}

// GetRun returns a handler for GET /api/v1/runs/:id.
func GetRun() gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadJob(c)
		if !ok {
			return
		}

		resp := models.RunStatusResponse{
			ID:           job.ID,
			Status:       job.Status,
			URL:          job.Request.URL,
			Shape:        job.Request.Shape,
			PagesVisited: job.PagesVisited,
			TotalPages:   job.TotalPages,
			Duplicates:   job.Duplicates,
			CacheStatus:  job.CacheStatus,
			DurationMs:   job.DurationMs,
			Error:        job.Error,
		}
		if job.Result != nil {
			resp.RecordCount = len(job.Result.Records)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetRunRecords returns a handler for GET /api/v1/runs/:id/records. Records
// come back in the shape the run was submitted with.
func GetRunRecords(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadJob(c)
		if !ok {
			return
		}
		if job.Result == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "run has no records yet (status: " + job.Status + ")",
				},
			})
			return
		}

		resp := models.RecordsResponse{
			ID:    job.ID,
			Shape: job.Request.Shape,
			Count: len(job.Result.Records),
		}
		opts := models.FlattenOptions{ContactEmail: cfg.Target.ContactEmail}
		switch job.Request.Shape {
		case models.ShapeWrapped:
			resp.Metadata = &job.Result.Metadata
			resp.Properties = job.Result.Records
		case models.ShapeExtended:
			opts.Extended = true
			resp.Rows = models.FlattenAll(job.Result, opts)
		default:
			resp.Rows = models.FlattenAll(job.Result, opts)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// loadJob resolves the :id path parameter, answering 404 on a miss.
func loadJob(c *gin.Context) (*models.RunJob, bool) {
	val, ok := runStore.Load(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": models.ErrorDetail{
				Code:    models.ErrCodeInvalidInput,
				Message: "run not found",
			},
		})
		return nil, false
	}
	return val.(*models.RunJob), true
}

// executor drains the run queue one job at a time.
func executor(orc *scraper.Orchestrator, cfg *config.Config, cc *cache.Cache, sinks *Sinks) {
	for job := range runQueue {
		runOne(orc, cfg, cc, sinks, job)
	}
}

// runOne executes a queued job, stores its outcome and fans out to the
// configured sinks.
func runOne(orc *scraper.Orchestrator, cfg *config.Config, cc *cache.Cache, sinks *Sinks, job *models.RunJob) {
	start := time.Now()
	job.Status = models.RunStatusRunning
	job.StartedAt = start.Unix()

	outcome, err := orc.Run(context.Background(), &job.Request)

	job.FinishedAt = time.Now().Unix()
	job.DurationMs = time.Since(start).Milliseconds()
	if outcome != nil {
		job.Result = outcome.Result
		job.PagesVisited = outcome.PagesVisited
		job.TotalPages = outcome.TotalPages
		job.Duplicates = outcome.Duplicates
	}

	if err != nil {
		var scrapeErr *models.ScrapeError
		if !errors.As(err, &scrapeErr) {
			scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
		}
		job.Status = models.RunStatusFailed
		job.Error = scrapeErr.ToDetail()
		slog.Error("run failed", "id", job.ID, "error", err)
	} else {
		job.Status = models.RunStatusCompleted
		cc.Set(runCacheKey(cfg, job.Request), job.Result)
		slog.Info("run completed",
			"id", job.ID,
			"records", len(job.Result.Records),
			"pages", job.PagesVisited,
			"duration_ms", job.DurationMs,
		)
	}

	deliverSinks(cfg, sinks, job)
}

// deliverSinks pushes the finished job to Postgres, the webhook endpoint and
// the message queue. Sink failures are logged, never propagated: the run
// itself already succeeded or failed on its own terms.
func deliverSinks(cfg *config.Config, sinks *Sinks, job *models.RunJob) {
	if sinks == nil {
		return
	}

	if sinks.Store != nil && job.Result != nil && job.Status == models.RunStatusCompleted {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		saved, err := sinks.Store.SaveRecords(ctx, job.Result.Records)
		cancel()
		if err != nil {
			slog.Error("postgres sink failed", "id", job.ID, "error", err)
		} else {
			slog.Info("records persisted", "id", job.ID, "rows", saved)
		}
	}

	eventType := notify.EventRunCompleted
	if job.Status == models.RunStatusFailed {
		eventType = notify.EventRunFailed
	}
	event := notify.NewEvent(eventType, job.ID, runEventData(job))

	if sinks.Webhook.URL != "" {
		notify.DeliverAsync(sinks.Webhook.URL, sinks.Webhook.Secret, event, sinks.Webhook.RetryBackoff)
	}

	if sinks.Publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := sinks.Publisher.Publish(ctx, event); err != nil {
			slog.Error("amqp sink failed", "id", job.ID, "error", err)
		}
		cancel()
	}
}

// runEventData is the webhook and queue payload for a finished run.
func runEventData(job *models.RunJob) map[string]interface{} {
	data := map[string]interface{}{
		"status":        job.Status,
		"url":           job.Request.URL,
		"pages_visited": job.PagesVisited,
		"duration_ms":   job.DurationMs,
	}
	if job.Result != nil {
		data["record_count"] = len(job.Result.Records)
	}
	if job.Error != nil {
		data["error"] = job.Error
	}
	return data
}

// runCacheKey derives the cache key for a request, resolving the same
// defaults the orchestrator applies.
func runCacheKey(cfg *config.Config, req models.RunRequest) string {
	url := req.URL
	if url == "" {
		url = cfg.Target.URL
	}
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = cfg.Traversal.DefaultMaxPages
	}
	return cache.Key(url, maxPages, req.Shape)
}
