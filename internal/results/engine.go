package results

import (
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cmuturi/resume-ranker/internal/models"
)

// View is the derived, presentation-ready slice of a ResultSet plus the
// aggregate stats over the whole set.
type View struct {
	Visible []models.RankedResult
	Stats   models.Stats
}

// Engine derives filtered, sorted views from a ResultSet. It is pure: it
// never mutates the set and holds no state beyond the collator, so it is safe
// to call on every parameter change.
type Engine struct {
	collator *collate.Collator
}

// NewEngine creates a results engine with a collator for the given locale.
func NewEngine(tag language.Tag) *Engine {
	return &Engine{collator: collate.New(tag)}
}

// DeriveView filters the set to scores at or above vs.MinScore, sorts the
// survivors by vs.SortKey, and computes stats over the unfiltered set.
//
// The ResultSet must be non-empty; callers render an empty-state placeholder
// instead of deriving a view from nothing.
func (e *Engine) DeriveView(rs *models.ResultSet, vs models.ViewState) View {
	visible := make([]models.RankedResult, 0, len(rs.Results))
	for _, r := range rs.Results {
		if r.Score >= vs.MinScore {
			visible = append(visible, r)
		}
	}

	// Stable sorts keep the original relative order on ties.
	switch vs.SortKey {
	case models.SortByName:
		sort.SliceStable(visible, func(i, j int) bool {
			return e.collator.CompareString(visible[i].Name, visible[j].Name) < 0
		})
	default:
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].Score > visible[j].Score
		})
	}

	return View{
		Visible: visible,
		Stats:   computeStats(rs),
	}
}

// computeStats aggregates over the full, unfiltered ResultSet.
func computeStats(rs *models.ResultSet) models.Stats {
	total := len(rs.Results)
	if total == 0 {
		return models.Stats{}
	}

	sum := 0
	top := rs.Results[0].Score
	for _, r := range rs.Results {
		sum += r.Score
		if r.Score > top {
			top = r.Score
		}
	}

	avg := math.Round(float64(sum)/float64(total)*10) / 10

	return models.Stats{
		Total:    total,
		AvgScore: avg,
		TopScore: top,
	}
}

// ToggleExpanded flips the expansion state for the result with the given ID.
// Selecting the already-expanded result collapses it; at most one result is
// expanded at a time. Keyed by ID, the expansion follows the same underlying
// result through sort and filter changes.
func ToggleExpanded(vs models.ViewState, id string) models.ViewState {
	if vs.ExpandedID == id {
		vs.ExpandedID = ""
	} else {
		vs.ExpandedID = id
	}
	return vs
}
