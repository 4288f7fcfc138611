package models

import (
	"encoding/json"
	"math"
	"time"
)

// MaxResumeFiles is the largest batch the ranking service accepts per submission.
const MaxResumeFiles = 10

// MaxResumeFileSize is the per-file size limit in bytes (5 MiB).
const MaxResumeFileSize = 5 * 1024 * 1024

// MinJobDescriptionLen is the minimum trimmed length of a job description.
const MinJobDescriptionLen = 50

// ResumeFile describes one selected resume. Content stays on disk; the file is
// opened only while the request body is being built.
type ResumeFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

// RankedResult is one candidate's score and supporting text as returned by the
// ranking service. ID is assigned client-side when the response is decoded and
// is the only stable identity: duplicate names are permitted and positions
// change with every sort.
type RankedResult struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank,omitempty"`
	Assessment  string `json:"assessment,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// rankedResultWire mirrors the service payload. The service emits scores with
// two decimal places (e.g. 87.53); the model keeps whole numbers.
type rankedResultWire struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
	Assessment  string  `json:"assessment"`
	Explanation string  `json:"explanation"`
}

// UnmarshalJSON decodes the service's result shape, rounding the fractional
// score to the nearest whole number. ID is never read from the wire.
func (r *RankedResult) UnmarshalJSON(data []byte) error {
	var w rankedResultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	r.ID = ""
	r.Name = w.Name
	r.Score = int(math.Round(w.Score))
	r.Rank = w.Rank
	r.Assessment = w.Assessment
	r.Explanation = w.Explanation
	return nil
}

// ResultSet is the full, unfiltered collection from one successful submission.
// It is immutable once received; a new submission replaces it wholesale.
type ResultSet struct {
	Results    []RankedResult `json:"results"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Stats are aggregate figures over the unfiltered ResultSet.
type Stats struct {
	Total    int     `json:"total"`
	AvgScore float64 `json:"avg_score"`
	TopScore int     `json:"top_score"`
}

// SortKey selects the ordering of the visible results.
type SortKey int

const (
	SortByScore SortKey = iota // descending by score
	SortByName                 // ascending, locale-aware
)

// String returns the key's wire/display name.
func (k SortKey) String() string {
	if k == SortByName {
		return "name"
	}
	return "score"
}

// ViewState holds the user-adjustable sort/filter/expansion parameters. It is
// caller-owned and independent of the ResultSet: sort key and minimum score
// persist across submissions, while ExpandedID is cleared when a new ResultSet
// arrives (fresh results carry fresh IDs).
type ViewState struct {
	SortKey    SortKey
	MinScore   int // 0..100, adjusted in steps of 5 by the UI
	ExpandedID string
}

// Category is the qualitative badge derived from a numeric score.
type Category string

const (
	CategoryExcellent Category = "Excellent"
	CategoryGood      Category = "Good"
	CategoryFair      Category = "Fair"
	CategoryPoor      Category = "Poor"
)

// CategoryForScore maps a score to its badge. Thresholds are fixed:
// >=80 Excellent, >=60 Good, >=40 Fair, below that Poor.
func CategoryForScore(score int) Category {
	switch {
	case score >= 80:
		return CategoryExcellent
	case score >= 60:
		return CategoryGood
	case score >= 40:
		return CategoryFair
	default:
		return CategoryPoor
	}
}

// HealthStatus is the ranking service's liveness probe response.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	CacheSize int    `json:"cache_size"`
}

// ServiceStats are the ranking service's operational counters.
type ServiceStats struct {
	CachedEmbeddings  int `json:"cached_embeddings"`
	ActiveClients     int `json:"active_clients"`
	RateLimitWindow   int `json:"rate_limit_window"`
	RateLimitRequests int `json:"rate_limit_requests"`
	CacheTTL          int `json:"cache_ttl"`
}
