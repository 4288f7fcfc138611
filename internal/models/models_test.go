package models

import (
	"encoding/json"
	"testing"
)

// TestCategoryForScore_Boundaries exercises the fixed badge thresholds,
// including the exact boundary scores.
func TestCategoryForScore_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		expected Category
	}{
		{"Perfect score", 100, CategoryExcellent},
		{"Exactly 80", 80, CategoryExcellent},
		{"Just below excellent", 79, CategoryGood},
		{"Exactly 60", 60, CategoryGood},
		{"Just below good", 59, CategoryFair},
		{"Exactly 40", 40, CategoryFair},
		{"Just below fair", 39, CategoryPoor},
		{"Zero", 0, CategoryPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryForScore(tt.score); got != tt.expected {
				t.Errorf("CategoryForScore(%d) = %q, want %q", tt.score, got, tt.expected)
			}
		})
	}
}

func TestSortKeyString(t *testing.T) {
	if SortByScore.String() != "score" {
		t.Errorf("Expected 'score', got %q", SortByScore.String())
	}
	if SortByName.String() != "name" {
		t.Errorf("Expected 'name', got %q", SortByName.String())
	}
}

// TestRankedResultDecoding checks that the service payload shape maps onto
// the model and that the client-side ID is never populated from the wire.
func TestRankedResultDecoding(t *testing.T) {
	payload := `{"name":"Jane_CV.pdf","score":87,"rank":1,"assessment":"Excellent match","explanation":"Strong overlap"}`

	var r RankedResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("Failed to unmarshal RankedResult: %v", err)
	}

	if r.Name != "Jane_CV.pdf" {
		t.Errorf("Expected name 'Jane_CV.pdf', got %q", r.Name)
	}
	if r.Score != 87 {
		t.Errorf("Expected score 87, got %d", r.Score)
	}
	if r.Rank != 1 {
		t.Errorf("Expected rank 1, got %d", r.Rank)
	}
	if r.ID != "" {
		t.Errorf("ID must not be populated from the wire, got %q", r.ID)
	}
}

// TestRankedResultDecoding_FractionalScore checks that the service's
// two-decimal scores round onto the whole-number model score.
func TestRankedResultDecoding_FractionalScore(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected int
	}{
		{"Rounds up", `{"name":"a.pdf","score":87.53}`, 88},
		{"Rounds down", `{"name":"b.pdf","score":59.49}`, 59},
		{"Half rounds up", `{"name":"c.pdf","score":79.5}`, 80},
		{"Whole number", `{"name":"d.pdf","score":64}`, 64},
		{"Zero", `{"name":"e.pdf","score":0.0}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r RankedResult
			if err := json.Unmarshal([]byte(tt.payload), &r); err != nil {
				t.Fatalf("Failed to unmarshal RankedResult: %v", err)
			}
			if r.Score != tt.expected {
				t.Errorf("Score = %d, want %d", r.Score, tt.expected)
			}
		})
	}
}

func TestRankedResultOptionalFields(t *testing.T) {
	// rank, assessment and explanation are optional in the service response
	payload := `{"name":"Bob.pdf","score":12}`

	var r RankedResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("Failed to unmarshal RankedResult: %v", err)
	}

	if r.Rank != 0 || r.Assessment != "" || r.Explanation != "" {
		t.Errorf("Expected zero optional fields, got rank=%d assessment=%q explanation=%q",
			r.Rank, r.Assessment, r.Explanation)
	}
}

func TestSizeLimits(t *testing.T) {
	if MaxResumeFileSize != 5*1024*1024 {
		t.Errorf("Expected 5 MiB limit, got %d", MaxResumeFileSize)
	}
	if MaxResumeFiles != 10 {
		t.Errorf("Expected batch limit 10, got %d", MaxResumeFiles)
	}
	if MinJobDescriptionLen != 50 {
		t.Errorf("Expected minimum job description length 50, got %d", MinJobDescriptionLen)
	}
}
