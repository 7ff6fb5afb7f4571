package models

// Run lifecycle states reported by the API and MCP tools.
const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunRequest is the payload for POST /api/v1/runs.
type RunRequest struct {
	// URL is the catalog page to traverse. Defaults to the configured
	// target when empty.
	URL string `json:"url,omitempty" binding:"omitempty,url"`

	// MaxPages caps how many catalog pages the run visits. 0 means the
	// configured default cap. The hard safety ceiling still applies on top.
	MaxPages int `json:"max_pages,omitempty" binding:"omitempty,min=1,max=500"`

	// Shape selects the export form for stored and returned records.
	// Allowed: "flat" (default), "extended", "wrapped".
	Shape string `json:"shape,omitempty" binding:"omitempty,oneof=flat extended wrapped"`

	// Enrich visits each listing's detail page after the traversal and
	// attaches a Markdown description. Default: false.
	Enrich bool `json:"enrich,omitempty"`

	// Dedupe drops near-duplicate records by content fingerprint.
	// Default: true.
	Dedupe *bool `json:"dedupe,omitempty"`

	// MaxAge accepts a cached result no older than this many milliseconds.
	// 0 disables cache lookup for this run.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`

	// Timeout is the maximum duration in seconds for the whole run.
	// Default: 900. Max: 3600.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=3600"`
}

// Defaults applies default values to unset fields.
func (r *RunRequest) Defaults() {
	if r.Shape == "" {
		r.Shape = ShapeFlat
	}
	if r.Dedupe == nil {
		t := true
		r.Dedupe = &t
	}
	if r.Timeout == 0 {
		r.Timeout = 900
	}
}

// RunResponse is the immediate response for POST /api/v1/runs.
type RunResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RunStatusResponse is the response for GET /api/v1/runs/:id.
type RunStatusResponse struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	URL          string       `json:"url"`
	Shape        string       `json:"shape"`
	PagesVisited int          `json:"pages_visited"`
	TotalPages   int          `json:"total_pages,omitempty"`
	RecordCount  int          `json:"record_count"`
	Duplicates   int          `json:"duplicates_removed,omitempty"`
	CacheStatus  string       `json:"cache_status,omitempty"`
	DurationMs   int64        `json:"duration_ms,omitempty"`
	Error        *ErrorDetail `json:"error,omitempty"`
}

// RecordsResponse is the response for GET /api/v1/runs/:id/records.
type RecordsResponse struct {
	ID    string `json:"id"`
	Shape string `json:"shape"`
	Count int    `json:"count"`

	// Rows is populated for the flat and extended shapes.
	Rows []FlatRecord `json:"rows,omitempty"`

	// Metadata and Properties are populated for the wrapped shape.
	Metadata   *RunMetadata      `json:"metadata,omitempty"`
	Properties []*PropertyRecord `json:"properties,omitempty"`
}

// RunJob tracks one traversal from submission to completion.
type RunJob struct {
	ID           string
	Status       string // "queued", "running", "completed", "failed"
	Request      RunRequest
	Result       *ScrapeResult
	PagesVisited int
	TotalPages   int
	Duplicates   int
	CacheStatus  string
	Error        *ErrorDetail
	CreatedAt    int64 // unix timestamp
	StartedAt    int64
	FinishedAt   int64
	DurationMs   int64
}
