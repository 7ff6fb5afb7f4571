package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// runResponse mirrors the run submission API response.
type runResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// runStatusResponse mirrors the run status API response.
type runStatusResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	URL          string `json:"url"`
	Shape        string `json:"shape"`
	PagesVisited int    `json:"pages_visited"`
	TotalPages   int    `json:"total_pages"`
	RecordCount  int    `json:"record_count"`
	Duplicates   int    `json:"duplicates_removed"`
	CacheStatus  string `json:"cache_status"`
	DurationMs   int64  `json:"duration_ms"`
	Error        *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// healthResponse mirrors the health API response.
type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	Browser struct {
		Connected  bool `json:"connected"`
		ActiveRuns int  `json:"active_runs"`
	} `json:"browser"`
}

func main() {
	apiURL := os.Getenv("KINGS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: the run API accepts open access when no keys are configured.
	apiKey := os.Getenv("KINGS_API_KEY")

	s := server.NewMCPServer(
		"kingscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_properties",
		mcp.WithDescription("Traverse the King Industrial property catalog and return the extracted listings. Submits a run to the kingscrape service and waits for it to finish."),
		mcp.WithString("url",
			mcp.Description("Catalog page to traverse (default: the service's configured target)"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Maximum catalog pages to visit (default: service default; a hard safety ceiling applies)"),
		),
		mcp.WithString("shape",
			mcp.Description("Record shape: 'flat' (default), 'extended' or 'wrapped'"),
			mcp.Enum("flat", "extended", "wrapped"),
		),
		mcp.WithBoolean("enrich",
			mcp.Description("Visit each listing's detail page and attach a Markdown description"),
		),
	)
	s.AddTool(scrapeTool, handleScrapeProperties(apiURL, apiKey))

	getRunTool := mcp.NewTool("get_run",
		mcp.WithDescription("Report the status of a previously submitted run: state, pages visited, record count and any error."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("The run ID returned by scrape_properties"),
		),
	)
	s.AddTool(getRunTool, handleGetRun(apiURL, apiKey))

	getRecordsTool := mcp.NewTool("get_records",
		mcp.WithDescription("Fetch the records of a completed run, in the shape the run was submitted with."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("The run ID returned by scrape_properties"),
		),
	)
	s.AddTool(getRecordsTool, handleGetRecords(apiURL, apiKey))

	healthTool := mcp.NewTool("health",
		mcp.WithDescription("Check the kingscrape service: uptime, browser connectivity and version."),
	)
	s.AddTool(healthTool, handleHealth(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the run API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// apiGet sends a GET request to the run API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollRunCompletion polls the run endpoint until the run leaves the queued
// and running states or the context is cancelled.
func pollRunCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, runID string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/runs/"+runID)
			if err != nil {
				return nil, err
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != "queued" && status.Status != "running" {
				return body, nil
			}
		}
	}
}

// apiError extracts the error envelope the run API wraps failures in.
func apiError(body []byte) string {
	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return fmt.Sprintf("[%s] %s", envelope.Error.Code, envelope.Error.Message)
	}
	return ""
}

// prettyJSON re-indents a JSON body, falling back to the raw bytes.
func prettyJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

func handleScrapeProperties(apiURL, apiKey string) server.ToolHandlerFunc {
	// Full traversals are slow; the service enforces its own run deadline.
	client := &http.Client{Timeout: 30 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload := map[string]interface{}{}
		if url := request.GetString("url", ""); url != "" {
			payload["url"] = url
		}
		args := request.GetArguments()
		if maxPages, ok := args["max_pages"]; ok {
			payload["max_pages"] = maxPages
		}
		if shape := request.GetString("shape", ""); shape != "" {
			payload["shape"] = shape
		}
		if enrich, ok := args["enrich"]; ok {
			payload["enrich"] = enrich
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/runs", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("run request failed: %v", err)), nil
		}

		var runResp runResponse
		if err := json.Unmarshal(respBody, &runResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse run response: %v", err)), nil
		}
		if runResp.ID == "" {
			if msg := apiError(respBody); msg != "" {
				return mcp.NewToolResultError(msg), nil
			}
			return mcp.NewToolResultError("run creation failed"), nil
		}

		var statusBody []byte
		if runResp.Status == "completed" {
			statusBody, err = apiGet(ctx, client, apiURL, apiKey, "/api/v1/runs/"+runResp.ID)
		} else {
			statusBody, err = pollRunCompletion(ctx, client, apiURL, apiKey, runResp.ID)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("fetching run status failed: %v", err)), nil
		}

		var status runStatusResponse
		if err := json.Unmarshal(statusBody, &status); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse run status: %v", err)), nil
		}
		if status.Status == "failed" {
			errMsg := "run failed"
			if status.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", status.Error.Code, status.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		recordsBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/runs/"+runResp.ID+"/records")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("fetching records failed: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Run %s: %s (%d records across %d pages",
			status.ID, status.Status, status.RecordCount, status.PagesVisited))
		if status.Duplicates > 0 {
			sb.WriteString(fmt.Sprintf(", %d duplicates removed", status.Duplicates))
		}
		if status.CacheStatus == "hit" {
			sb.WriteString(", served from cache")
		}
		sb.WriteString(")\n\n")
		sb.WriteString(prettyJSON(recordsBody))

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleGetRun(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID, err := request.RequireString("run_id")
		if err != nil {
			return mcp.NewToolResultError("run_id is required"), nil
		}

		body, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/runs/"+runID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("run request failed: %v", err)), nil
		}

		var status runStatusResponse
		if err := json.Unmarshal(body, &status); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse run status: %v", err)), nil
		}
		if status.ID == "" {
			if msg := apiError(body); msg != "" {
				return mcp.NewToolResultError(msg), nil
			}
			return mcp.NewToolResultError("run not found"), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Run %s\nStatus: %s\n", status.ID, status.Status))
		if status.URL != "" {
			sb.WriteString("URL: " + status.URL + "\n")
		}
		sb.WriteString(fmt.Sprintf("Shape: %s\nPages visited: %d", status.Shape, status.PagesVisited))
		if status.TotalPages > 0 {
			sb.WriteString(fmt.Sprintf(" of %d", status.TotalPages))
		}
		sb.WriteString(fmt.Sprintf("\nRecords: %d\n", status.RecordCount))
		if status.Duplicates > 0 {
			sb.WriteString(fmt.Sprintf("Duplicates removed: %d\n", status.Duplicates))
		}
		if status.CacheStatus != "" {
			sb.WriteString("Cache: " + status.CacheStatus + "\n")
		}
		if status.DurationMs > 0 {
			sb.WriteString(fmt.Sprintf("Duration: %dms\n", status.DurationMs))
		}
		if status.Error != nil {
			sb.WriteString(fmt.Sprintf("Error: [%s] %s\n", status.Error.Code, status.Error.Message))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleGetRecords(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID, err := request.RequireString("run_id")
		if err != nil {
			return mcp.NewToolResultError("run_id is required"), nil
		}

		body, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/runs/"+runID+"/records")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("records request failed: %v", err)), nil
		}
		if msg := apiError(body); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}

		return mcp.NewToolResultText(prettyJSON(body)), nil
	}
}

func handleHealth(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/health")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("health request failed: %v", err)), nil
		}

		var health healthResponse
		if err := json.Unmarshal(body, &health); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse health response: %v", err)), nil
		}

		browser := "disconnected"
		if health.Browser.Connected {
			browser = "connected"
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Status: %s\nUptime: %s\nVersion: %s\nBrowser: %s (%d active runs)",
			health.Status, health.Uptime, health.Version, browser, health.Browser.ActiveRuns,
		)), nil
	}
}
