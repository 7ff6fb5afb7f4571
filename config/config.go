package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Target    TargetConfig
	Wait      WaitConfig
	Traversal TraversalConfig
	Run       RunConfig
	Probe     ProbeConfig
	Enrich    EnrichConfig
	Dedupe    DedupeConfig
	Output    OutputConfig
	Storage   StorageConfig
	Webhook   WebhookConfig
	AMQP      AMQPConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity. Traversal uses one page; the
	// second covers detail-page enrichment.
	MaxPages int // default: 2

	// DefaultProxy is the proxy URL applied to the browser, if any.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// BlockAds drops requests to known ad and tracking domains.
	BlockAds bool // default: true

	// BlockedResourceTypes lists resource types to abort at the network
	// layer. Images and stylesheets stay enabled because the widget's
	// lazy loading reacts to layout.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string
}

// TargetConfig identifies the catalog page and the widget inside it.
type TargetConfig struct {
	// URL is the default catalog page when a run does not name one.
	URL string // default: the King Industrial properties page

	// WidgetHost and WidgetMarker must both appear in an iframe's src for
	// that iframe to count as the inventory widget.
	WidgetHost   string // default: "buildout.com"
	WidgetMarker string // default: "inventory"

	// ContactEmail is stamped into every flat export row.
	ContactEmail string // default: "contact@kingindustrial.com"
}

// WaitConfig controls how long the scraper lets a page settle.
type WaitConfig struct {
	// BodyTimeout bounds the initial wait for a usable document body.
	BodyTimeout time.Duration // default: 30s

	// RenderTimeout bounds the wait for the DOM to stop mutating.
	RenderTimeout time.Duration // default: 10s

	// SettleDelay is the unconditional pause after navigation or a
	// pagination click, before any indicator polling.
	SettleDelay time.Duration // default: 3s

	// IndicatorTimeout and IndicatorPoll control how long loading
	// indicators may stay visible and how often they are re-checked.
	IndicatorTimeout time.Duration // default: 5s
	IndicatorPoll    time.Duration // default: 500ms

	// ScrollRounds bounds the scroll-to-bottom loop that triggers lazy
	// loading; the loop stops early once the page height stops growing.
	ScrollRounds    int           // default: 10
	ScrollRoundWait time.Duration // default: 2s

	// SweepSteps is the stepwise top-to-bottom pass after the page height
	// stabilizes, catching viewport-triggered loaders.
	SweepSteps    int           // default: 5
	SweepStepWait time.Duration // default: 1s
}

// TraversalConfig controls pagination.
type TraversalConfig struct {
	// SafetyCeiling is the hard page cap that applies even when the widget
	// misreports its own page count.
	SafetyCeiling int // default: 50

	// DefaultMaxPages applies when a run does not request a page cap.
	DefaultMaxPages int // default: 20

	// PostNavigationWait and PostClickWait are the settle delays after the
	// initial navigation and after each pagination click.
	PostNavigationWait time.Duration // default: 5s
	PostClickWait      time.Duration // default: 3s

	// AdvanceEvery paces pagination clicks. Zero disables pacing.
	AdvanceEvery time.Duration // default: 2s
}

// RunConfig bounds whole-run execution.
type RunConfig struct {
	// DefaultTimeout is the per-run deadline.
	DefaultTimeout time.Duration // default: 15m

	// MaxTimeout caps the timeout a client may request.
	MaxTimeout time.Duration // default: 1h
}

// ProbeConfig controls the pre-flight HTTP probe.
type ProbeConfig struct {
	// Enabled toggles the probe before each browser run.
	Enabled bool // default: true

	// Timeout bounds the probe request.
	Timeout time.Duration // default: 10s
}

// EnrichConfig controls detail-page enrichment.
type EnrichConfig struct {
	// PageTimeout bounds each detail-page visit.
	PageTimeout time.Duration // default: 20s

	// MaxRecords caps how many records a single run may enrich.
	MaxRecords int // default: 100
}

// DedupeConfig controls fingerprint-based duplicate removal.
type DedupeConfig struct {
	// MaxDistance is the Hamming distance at or below which two record
	// fingerprints count as duplicates.
	MaxDistance int // default: 3
}

// OutputConfig controls local result files.
type OutputConfig struct {
	// Dir is where result files are written.
	Dir string // default: "data"

	// Shape is the default export shape: "flat", "extended" or "wrapped".
	Shape string // default: "flat"

	// SnapshotDir enables debug DOM snapshots when non-empty.
	SnapshotDir string
}

// StorageConfig controls the optional Postgres sink.
type StorageConfig struct {
	// PostgresDSN enables the sink when non-empty.
	PostgresDSN string
}

// WebhookConfig controls run-completion notifications.
type WebhookConfig struct {
	// URL enables webhook delivery when non-empty.
	URL string

	// Secret signs each delivery when non-empty.
	Secret string

	// RetryBackoff is the wait before each delivery attempt.
	RetryBackoff []time.Duration // default: [0s, 1s, 5s, 30s]
}

// AMQPConfig controls the optional message-queue sink.
type AMQPConfig struct {
	// URL enables publishing when non-empty.
	URL string

	// Exchange and RoutingKey address the published records.
	Exchange   string // default: "kings.properties"
	RoutingKey string // default: "records"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys (for MVP; replace with DB later).
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the run result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 100
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("KINGS_HOST", "0.0.0.0"),
			Port: envIntOr("KINGS_PORT", 8080),
			Mode: envOr("KINGS_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("KINGS_HEADLESS", true),
			MaxPages:     envIntOr("KINGS_MAX_PAGES", 2),
			DefaultProxy: os.Getenv("KINGS_PROXY"),
			NoSandbox:    envBoolOr("KINGS_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("KINGS_BROWSER_BIN"),
			BlockAds:     envBoolOr("KINGS_BLOCK_ADS", true),
			BlockedResourceTypes: envSliceOr("KINGS_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
		},
		Target: TargetConfig{
			URL:          envOr("KINGS_TARGET_URL", "https://www.kingindustrial.com/home-5/properties/"),
			WidgetHost:   envOr("KINGS_WIDGET_HOST", "buildout.com"),
			WidgetMarker: envOr("KINGS_WIDGET_MARKER", "inventory"),
			ContactEmail: envOr("KINGS_CONTACT_EMAIL", "contact@kingindustrial.com"),
		},
		Wait: WaitConfig{
			BodyTimeout:      envDurationOr("KINGS_BODY_TIMEOUT", 30*time.Second),
			RenderTimeout:    envDurationOr("KINGS_RENDER_TIMEOUT", 10*time.Second),
			SettleDelay:      envDurationOr("KINGS_SETTLE_DELAY", 3*time.Second),
			IndicatorTimeout: envDurationOr("KINGS_INDICATOR_TIMEOUT", 5*time.Second),
			IndicatorPoll:    envDurationOr("KINGS_INDICATOR_POLL", 500*time.Millisecond),
			ScrollRounds:     envIntOr("KINGS_SCROLL_ROUNDS", 10),
			ScrollRoundWait:  envDurationOr("KINGS_SCROLL_ROUND_WAIT", 2*time.Second),
			SweepSteps:       envIntOr("KINGS_SWEEP_STEPS", 5),
			SweepStepWait:    envDurationOr("KINGS_SWEEP_STEP_WAIT", time.Second),
		},
		Traversal: TraversalConfig{
			SafetyCeiling:      envIntOr("KINGS_SAFETY_CEILING", 50),
			DefaultMaxPages:    envIntOr("KINGS_DEFAULT_MAX_PAGES", 20),
			PostNavigationWait: envDurationOr("KINGS_POST_NAV_WAIT", 5*time.Second),
			PostClickWait:      envDurationOr("KINGS_POST_CLICK_WAIT", 3*time.Second),
			AdvanceEvery:       envDurationOr("KINGS_ADVANCE_EVERY", 2*time.Second),
		},
		Run: RunConfig{
			DefaultTimeout: envDurationOr("KINGS_RUN_TIMEOUT", 15*time.Minute),
			MaxTimeout:     envDurationOr("KINGS_MAX_RUN_TIMEOUT", time.Hour),
		},
		Probe: ProbeConfig{
			Enabled: envBoolOr("KINGS_PROBE_ENABLED", true),
			Timeout: envDurationOr("KINGS_PROBE_TIMEOUT", 10*time.Second),
		},
		Enrich: EnrichConfig{
			PageTimeout: envDurationOr("KINGS_ENRICH_TIMEOUT", 20*time.Second),
			MaxRecords:  envIntOr("KINGS_ENRICH_MAX_RECORDS", 100),
		},
		Dedupe: DedupeConfig{
			MaxDistance: envIntOr("KINGS_DEDUPE_DISTANCE", 3),
		},
		Output: OutputConfig{
			Dir:         envOr("KINGS_OUTPUT_DIR", "data"),
			Shape:       envOr("KINGS_OUTPUT_SHAPE", "flat"),
			SnapshotDir: os.Getenv("KINGS_SNAPSHOT_DIR"),
		},
		Storage: StorageConfig{
			PostgresDSN: os.Getenv("KINGS_POSTGRES_DSN"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("KINGS_WEBHOOK_URL"),
			Secret: os.Getenv("KINGS_WEBHOOK_SECRET"),
			RetryBackoff: envDurationSliceOr("KINGS_WEBHOOK_BACKOFF", []time.Duration{
				0, time.Second, 5 * time.Second, 30 * time.Second,
			}),
		},
		AMQP: AMQPConfig{
			URL:        os.Getenv("KINGS_AMQP_URL"),
			Exchange:   envOr("KINGS_AMQP_EXCHANGE", "kings.properties"),
			RoutingKey: envOr("KINGS_AMQP_ROUTING_KEY", "records"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("KINGS_AUTH_ENABLED", true),
			APIKeys: envSliceOr("KINGS_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("KINGS_RATE_RPS", 2.0),
			Burst:             envIntOr("KINGS_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("KINGS_CACHE_MAX_ENTRIES", 100),
		},
		Log: LogConfig{
			Level:  envOr("KINGS_LOG_LEVEL", "info"),
			Format: envOr("KINGS_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
