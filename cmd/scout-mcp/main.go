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

// searchRequest mirrors the scout API request model.
type searchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id,omitempty"`
	MaxAge int    `json:"max_age,omitempty"`
}

// searchResponse mirrors the scout API response model.
type searchResponse struct {
	Status string `json:"status"`
	Data   struct {
		Answer  string `json:"answer"`
		RawData []struct {
			Source  string `json:"source"`
			Content string `json:"content"`
		} `json:"raw_data"`
	} `json:"data"`
	Sources      []string `json:"sources"`
	BrowserState *struct {
		States []struct {
			URL    string `json:"url"`
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"states"`
	} `json:"browser_state"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// asyncResponse mirrors the scout async API responses.
type asyncResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Result *searchResponse `json:"result"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("SCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	apiURL = strings.TrimRight(apiURL, "/")
	apiKey := os.Getenv("SCOUT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SCOUT_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"scout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	webSearchTool := mcp.NewTool("web_search",
		mcp.WithDescription("Answer a question by consulting several web sources and summarizing them. Returns a one-sentence answer followed by the per-source findings."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The natural-language question to answer"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Reuse a cached answer younger than this many milliseconds (default: 0, no cache)"),
		),
	)
	s.AddTool(webSearchTool, handleWebSearch(apiURL, apiKey))

	backgroundTool := mcp.NewTool("web_search_background",
		mcp.WithDescription("Same as web_search but runs as a background job on the server and polls until it finishes. Use for slow questions."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The natural-language question to answer"),
		),
	)
	s.AddTool(backgroundTool, handleBackgroundSearch(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the scout API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJob polls a job endpoint until status is no longer "processing" or
// the context is cancelled.
func pollJob(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) (*asyncResponse, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			req.Header.Set("X-API-Key", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var job asyncResponse
			if err := json.Unmarshal(body, &job); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if job.Status != "processing" {
				return &job, nil
			}
		}
	}
}

func handleWebSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		payload := searchRequest{Query: query, UserID: "mcp"}
		if maxAge, ok := request.GetArguments()["max_age"].(float64); ok && maxAge > 0 {
			payload.MaxAge = int(maxAge)
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp searchResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)), nil
		}
		return mcp.NewToolResultText(formatSearch(&resp)), nil
	}
}

func handleBackgroundSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search/async", searchRequest{Query: query, UserID: "mcp"})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var accepted asyncResponse
		if err := json.Unmarshal(respBody, &accepted); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if accepted.ID == "" {
			msg := "search job creation failed"
			if accepted.Error != nil {
				msg = fmt.Sprintf("[%s] %s", accepted.Error.Code, accepted.Error.Message)
			}
			return mcp.NewToolResultError(msg), nil
		}

		pollCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		job, err := pollJob(pollCtx, client, apiURL, apiKey, "/api/v1/search/"+accepted.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling search job failed: %v", err)), nil
		}
		if job.Result == nil {
			return mcp.NewToolResultError(fmt.Sprintf("search job ended with status %q", job.Status)), nil
		}
		return mcp.NewToolResultText(formatSearch(job.Result)), nil
	}
}

// formatSearch renders the answer, the per-source findings and the state
// of every consulted source.
func formatSearch(resp *searchResponse) string {
	var b strings.Builder
	b.WriteString(resp.Data.Answer)

	if len(resp.Data.RawData) > 0 {
		b.WriteString("\n\nFindings:\n")
		for _, d := range resp.Data.RawData {
			fmt.Fprintf(&b, "- %s: %s\n", d.Source, d.Content)
		}
	}

	if resp.BrowserState != nil && len(resp.BrowserState.States) > 0 {
		b.WriteString("\nSources:\n")
		for _, st := range resp.BrowserState.States {
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", st.Status, st.Title, st.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
