package models

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string       `json:"status"` // "healthy" or "degraded"
	Uptime  string       `json:"uptime"`
	Browser BrowserStats `json:"browser"`
	Version string       `json:"version"`
}

// BrowserStats reports the state of the shared browser session.
type BrowserStats struct {
	Connected  bool `json:"connected"`
	ActiveRuns int  `json:"active_runs"`
}
