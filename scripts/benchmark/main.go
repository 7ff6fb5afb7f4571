package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "kingscrape API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per scenario for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Scenarios covering typical traversal shapes. The catalog URL is left to
// the service's configured target. "Cached" reuses the same key as
// "Three pages" so later iterations land in the result cache.
var scenarios = []struct {
	Label    string
	MaxPages int
	Shape    string
	Enrich   bool
	MaxAge   int
}{
	{"Single page", 1, "flat", false, 0},
	{"Three pages", 3, "flat", false, 0},
	{"Full catalog", 0, "flat", false, 0},
	{"Extended shape", 3, "extended", false, 0},
	{"Enriched", 2, "flat", true, 0},
	{"Cached", 3, "flat", false, 600000},
}

// --- Request / Response types (mirrors models package) ---

type runRequest struct {
	MaxPages int    `json:"max_pages,omitempty"`
	Shape    string `json:"shape,omitempty"`
	Enrich   bool   `json:"enrich,omitempty"`
	MaxAge   int    `json:"max_age,omitempty"`
}

type runAccepted struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type runStatus struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	PagesVisited int          `json:"pages_visited"`
	TotalPages   int          `json:"total_pages"`
	RecordCount  int          `json:"record_count"`
	Duplicates   int          `json:"duplicates_removed"`
	CacheStatus  string       `json:"cache_status"`
	DurationMs   int64        `json:"duration_ms"`
	Error        *errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run          int    `json:"run"`
	WallMs       int64  `json:"wall_ms"`
	DurationMs   int64  `json:"duration_ms"`
	PagesVisited int    `json:"pages_visited"`
	RecordCount  int    `json:"record_count"`
	Duplicates   int    `json:"duplicates_removed"`
	CacheHit     bool   `json:"cache_hit"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

type scenarioAverages struct {
	WallMs       float64 `json:"wall_ms"`
	DurationMs   float64 `json:"duration_ms"`
	PagesVisited float64 `json:"pages_visited"`
	RecordCount  float64 `json:"record_count"`
}

type scenarioResult struct {
	Label     string            `json:"label"`
	Runs      []runResult       `json:"runs"`
	CacheHits int               `json:"cache_hits"`
	Averages  *scenarioAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp       string           `json:"timestamp"`
	APIURL          string           `json:"api_url"`
	RunsPerScenario int              `json:"runs_per_scenario"`
	Results         []scenarioResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Kingscrape Benchmark Suite ===")
	fmt.Printf("API URL:       %s\n", *apiURL)
	fmt.Printf("Runs/scenario: %d\n", *runs)
	fmt.Printf("Output:        %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure the kingscrape server is running (e.g. make run)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		APIURL:          *apiURL,
		RunsPerScenario: *runs,
	}

	for _, sc := range scenarios {
		fmt.Printf("Benchmarking [%s] max_pages=%d shape=%s enrich=%v ...\n",
			sc.Label, sc.MaxPages, sc.Shape, sc.Enrich)
		sr := scenarioResult{Label: sc.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkScenario(runRequest{
				MaxPages: sc.MaxPages,
				Shape:    sc.Shape,
				Enrich:   sc.Enrich,
				MaxAge:   sc.MaxAge,
			}, i)
			switch {
			case rr.Success && rr.CacheHit:
				fmt.Printf("OK  %dms  %d records (cache hit)\n", rr.WallMs, rr.RecordCount)
			case rr.Success:
				fmt.Printf("OK  %dms  %d records  %d pages\n", rr.WallMs, rr.RecordCount, rr.PagesVisited)
			default:
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			if rr.CacheHit {
				sr.CacheHits++
			}
			sr.Runs = append(sr.Runs, rr)
		}

		sr.Averages = computeAverages(sr.Runs)
		report.Results = append(report.Results, sr)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// benchmarkScenario submits one run and polls it to a terminal state.
// WallMs is measured client-side; DurationMs is the service's own number.
func benchmarkScenario(reqBody runRequest, run int) runResult {
	rr := runResult{Run: run}
	start := time.Now()

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/runs", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}

	var accepted runAccepted
	err = json.NewDecoder(resp.Body).Decode(&accepted)
	resp.Body.Close()
	if err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	if accepted.ID == "" {
		rr.Error = fmt.Sprintf("run rejected with status %d", resp.StatusCode)
		return rr
	}

	status, err := pollRun(client, accepted.ID)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}

	rr.WallMs = time.Since(start).Milliseconds()
	rr.DurationMs = status.DurationMs
	rr.PagesVisited = status.PagesVisited
	rr.RecordCount = status.RecordCount
	rr.Duplicates = status.Duplicates
	rr.CacheHit = status.CacheStatus == "hit"
	rr.Success = status.Status == "completed"
	if status.Error != nil {
		rr.Error = status.Error.Message
	}

	return rr
}

func pollRun(client *http.Client, runID string) (*runStatus, error) {
	deadline := time.Now().Add(30 * time.Minute)

	for time.Now().Before(deadline) {
		time.Sleep(1 * time.Second)

		req, err := http.NewRequest("GET", *apiURL+"/api/v1/runs/"+runID, nil)
		if err != nil {
			return nil, fmt.Errorf("request error: %v", err)
		}
		if *apiKey != "" {
			req.Header.Set("X-API-Key", *apiKey)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("poll failed: %v", err)
		}

		var status runStatus
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("poll decode error: %v", err)
		}

		if status.Status != "queued" && status.Status != "running" {
			return &status, nil
		}
	}

	return nil, fmt.Errorf("run %s did not finish within 30m", runID)
}

func computeAverages(runs []runResult) *scenarioAverages {
	var successCount int
	var avg scenarioAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.WallMs += float64(r.WallMs)
		avg.DurationMs += float64(r.DurationMs)
		avg.PagesVisited += float64(r.PagesVisited)
		avg.RecordCount += float64(r.RecordCount)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.WallMs /= n
	avg.DurationMs /= n
	avg.PagesVisited /= n
	avg.RecordCount /= n
	return &avg
}

func printTable(results []scenarioResult) {
	fmt.Println(strings.Repeat("─", 80))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Scenario\tAvg Wall\tAvg Run\tPages\tRecords\tCache Hits\n")
	fmt.Fprintf(w, "────────\t────────\t───────\t─────\t───────\t──────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\t-\n", r.Label)
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%dms\t%.1f\t%.1f\t%d\n",
			r.Label,
			int64(r.Averages.WallMs),
			int64(r.Averages.DurationMs),
			r.Averages.PagesVisited,
			r.Averages.RecordCount,
			r.CacheHits,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 80))
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
