package models

// Browser state statuses.
const (
	StateSuccess = "success"
	StateError   = "error"
)

// BrowserState is a serializable snapshot of one source's fetch and
// extraction outcome, kept for passive display. It is never mutated after
// the source processor creates it.
type BrowserState struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content"` // extracted plain content
	HTML      string `json:"html"`    // sanitized markup
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"` // "success" or "error"
}

// OK reports whether the snapshot records a successful extraction.
func (s BrowserState) OK() bool { return s.Status == StateSuccess }

// SourceOutcome is one source's contribution to the final answer.
// An empty Summary means the source failed and contributes nothing.
type SourceOutcome struct {
	Source  string `json:"source"`
	Summary string `json:"content"`
}

// HasSummary reports whether the source produced a usable summary.
func (o SourceOutcome) HasSummary() bool { return o.Summary != "" }

// SearchResult is the terminal artifact of one query.
type SearchResult struct {
	Query         string          `json:"query"`
	Answer        string          `json:"answer"`
	RawData       []SourceOutcome `json:"raw_data"`
	Sources       []string        `json:"sources"`
	BrowserStates []BrowserState  `json:"browser_states"`
	Timestamp     string          `json:"timestamp"`

	// Failed is set only when orchestration itself broke down.
	Failed bool `json:"-"`
}

// SearchRequest is the payload for POST /api/v1/search and
// POST /api/v1/search/async.
type SearchRequest struct {
	// Query is the natural-language question. Required.
	Query string `json:"query" binding:"required"`

	// UserID identifies the caller for logging.
	UserID string `json:"user_id"`

	// MaxAge enables the result cache: a cached answer younger than
	// MaxAge milliseconds is returned as-is. 0 disables caching.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`

	// WebhookURL receives a search.completed event when set.
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// SearchData carries the answer and the per-source summaries.
type SearchData struct {
	Answer  string          `json:"answer"`
	RawData []SourceOutcome `json:"raw_data"`
}

// BrowserStateEnvelope wraps the ordered snapshots for display.
type BrowserStateEnvelope struct {
	States []BrowserState `json:"states"`
}

// SearchResponse is the response for POST /api/v1/search.
type SearchResponse struct {
	Status       string                `json:"status"` // "success" or "error"
	Data         SearchData            `json:"data"`
	Sources      []string              `json:"sources"`
	Timestamp    string                `json:"timestamp"`
	BrowserState *BrowserStateEnvelope `json:"browser_state,omitempty"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`
}

// NewSearchResponse maps a SearchResult onto the API shape.
func NewSearchResponse(r *SearchResult) SearchResponse {
	status := "success"
	if r.Failed {
		status = "error"
	}
	rawData := r.RawData
	if rawData == nil {
		rawData = []SourceOutcome{}
	}
	sources := r.Sources
	if sources == nil {
		sources = []string{}
	}
	states := r.BrowserStates
	if states == nil {
		states = []BrowserState{}
	}
	return SearchResponse{
		Status:       status,
		Data:         SearchData{Answer: r.Answer, RawData: rawData},
		Sources:      sources,
		Timestamp:    r.Timestamp,
		BrowserState: &BrowserStateEnvelope{States: states},
	}
}

// AsyncSearchResponse is the immediate response for POST /api/v1/search/async.
type AsyncSearchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SearchJob tracks a background search.
type SearchJob struct {
	ID        string
	Status    string // "processing", "completed", "failed"
	Query     string
	Result    *SearchResult
	CreatedAt int64 // unix timestamp
}

// SearchJobResponse is the response for GET /api/v1/search/:id.
type SearchJobResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Query  string          `json:"query"`
	Result *SearchResponse `json:"result,omitempty"`
}
