package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/scout/models"
)

var (
	apiURL = flag.String("api-url", "http://localhost:8000", "Scout API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per query")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

var testQueries = []struct {
	Label string
	Query string
}{
	{"Weather", "weather today in Paris"},
	{"Facts", "how tall is the Eiffel Tower"},
	{"News", "latest Go release notes"},
	{"HowTo", "how to make sourdough starter"},
	{"Compare", "difference between TCP and UDP"},
}

type runResult struct {
	Run          int    `json:"run"`
	LatencyMs    int64  `json:"latency_ms"`
	Sources      int    `json:"sources"`
	SourcesOK    int    `json:"sources_ok"`
	Summaries    int    `json:"summaries"`
	AnswerLength int    `json:"answer_length"`
	UsedFallback bool   `json:"used_fallback"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

type queryAverages struct {
	LatencyMs    float64 `json:"latency_ms"`
	P50Ms        int64   `json:"p50_ms"`
	SourceOKRate float64 `json:"source_ok_rate"`
	AnswerLength float64 `json:"answer_length"`
}

type queryResult struct {
	Query    string         `json:"query"`
	Label    string         `json:"label"`
	Runs     []runResult    `json:"runs"`
	Averages *queryAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp    string        `json:"timestamp"`
	APIURL       string        `json:"api_url"`
	RunsPerQuery int           `json:"runs_per_query"`
	Results      []queryResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Scout Benchmark ===")
	fmt.Printf("API URL:    %s\n", *apiURL)
	fmt.Printf("Runs/query: %d\n", *runs)
	fmt.Printf("Output:     %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Start it with: scout serve\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		APIURL:       *apiURL,
		RunsPerQuery: *runs,
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	for _, q := range testQueries {
		fmt.Printf("[%s] %q\n", q.Label, q.Query)
		qr := queryResult{Query: q.Query, Label: q.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  run %d/%d ... ", i, *runs)
			rr := runQuery(client, q.Query, i)
			if rr.Success {
				fmt.Printf("%dms  %d/%d sources\n", rr.LatencyMs, rr.SourcesOK, rr.Sources)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			qr.Runs = append(qr.Runs, rr)
		}

		qr.Averages = computeAverages(qr.Runs)
		report.Results = append(report.Results, qr)
		fmt.Println()
	}

	printTable(report.Results)

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
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}
	return nil
}

// runQuery bypasses the result cache so every run exercises the full
// pipeline.
func runQuery(client *http.Client, query string, run int) runResult {
	rr := runResult{Run: run}

	body, err := json.Marshal(models.SearchRequest{Query: query, UserID: "benchmark"})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/search", bytes.NewReader(body))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.LatencyMs = time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		var er models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		rr.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		if er.Error != nil {
			rr.Error += ": " + er.Error.Message
		}
		return rr
	}

	var sr models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Status == "success"
	rr.Sources = len(sr.Sources)
	rr.Summaries = len(sr.Data.RawData)
	rr.AnswerLength = len(sr.Data.Answer)
	if sr.BrowserState != nil {
		for _, st := range sr.BrowserState.States {
			if st.OK() {
				rr.SourcesOK++
			}
		}
	}
	rr.UsedFallback = rr.Summaries == 0
	if !rr.Success {
		rr.Error = sr.Data.Answer
	}
	return rr
}

func computeAverages(runs []runResult) *queryAverages {
	var avg queryAverages
	var latencies []int64
	var sources, sourcesOK int

	for _, r := range runs {
		if !r.Success {
			continue
		}
		latencies = append(latencies, r.LatencyMs)
		avg.LatencyMs += float64(r.LatencyMs)
		avg.AnswerLength += float64(r.AnswerLength)
		sources += r.Sources
		sourcesOK += r.SourcesOK
	}
	if len(latencies) == 0 {
		return nil
	}

	n := float64(len(latencies))
	avg.LatencyMs /= n
	avg.AnswerLength /= n
	if sources > 0 {
		avg.SourceOKRate = float64(sourcesOK) / float64(sources) * 100
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	avg.P50Ms = latencies[len(latencies)/2]
	return &avg
}

func printTable(results []queryResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Query\tAvg Latency\tp50\tSources OK\tAnswer Len\n")
	fmt.Fprintf(w, "─────\t───────────\t───\t──────────\t──────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", truncate(r.Query, 40))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%dms\t%.0f%%\t%d\n",
			truncate(r.Query, 40),
			int64(r.Averages.LatencyMs),
			r.Averages.P50Ms,
			r.Averages.SourceOKRate,
			int(r.Averages.AnswerLength),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
