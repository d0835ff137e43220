package assessment

import (
	"sort"

	"github.com/abhisek/bipkit/internal/rubric"
)

// Config holds the determination tuning constants. Both are policy knobs,
// not structural constraints; the reference values have no documented
// derivation beyond "close and both meaningfully elevated".
type Config struct {
	// CloseTieThreshold is the maximum distance from the top score for a
	// category to be considered a tied contender.
	CloseTieThreshold float64

	// SignificanceFloor is the minimum absolute score a category needs to
	// be a contender at all. A low score near a low top is noise, not a
	// second function.
	SignificanceFloor float64
}

// DefaultConfig returns the reference determination constants.
func DefaultConfig() Config {
	return Config{
		CloseTieThreshold: 0.3,
		SignificanceFloor: 2.0,
	}
}

// Determination is the outcome of the decision procedure.
//
// Exactly one of two shapes holds:
//   - single primary: Ambiguous=false, Primary set, Tied empty
//   - ambiguous: Ambiguous=true, Primary empty; Tied lists the close
//     contenders, or is empty when there was no scoreable evidence at all
type Determination struct {
	Scores    map[rubric.Category]CategoryScore `json:"scores"`
	Primary   rubric.Category                   `json:"primary,omitempty"`
	Tied      []rubric.Category                 `json:"tied,omitempty"`
	Ambiguous bool                              `json:"ambiguous"`
}

// NoEvidence reports whether the determination was ambiguous because no
// category had any answered, applicable items. Callers render this as
// "insufficient data", not "multiple functions".
func (d Determination) NoEvidence() bool {
	return d.Ambiguous && len(d.Tied) == 0
}

// Accepted returns the category a caller should treat as the working
// primary when the user has not overridden: the single primary, or the
// strongest tied contender. Empty in the no-evidence case.
func (d Determination) Accepted() rubric.Category {
	if !d.Ambiguous {
		return d.Primary
	}
	if len(d.Tied) > 0 {
		return d.Tied[0]
	}
	return ""
}

// Determine selects a primary behavioral function from category scores.
// Deterministic and idempotent: identical scores always yield identical
// output, including the ordering of Tied.
func Determine(scores map[rubric.Category]CategoryScore, cfg Config) Determination {
	d := Determination{Scores: scores}

	// Only categories with actual evidence participate.
	type ranked struct {
		cat   rubric.Category
		score float64
	}
	var candidates []ranked
	for cat, s := range scores {
		if s.Valid {
			candidates = append(candidates, ranked{cat: cat, score: s.Average})
		}
	}

	if len(candidates) == 0 {
		d.Ambiguous = true
		return d
	}

	// Descending by score; canonical category order breaks exact equals
	// so map iteration order can never change the result.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return rubric.CategoryRank(candidates[i].cat) < rubric.CategoryRank(candidates[j].cat)
	})

	top := candidates[0].score

	// Contenders must be both close to the top and meaningfully elevated
	// in absolute terms.
	var contenders []rubric.Category
	for _, c := range candidates {
		if top-c.score <= cfg.CloseTieThreshold && c.score >= cfg.SignificanceFloor {
			contenders = append(contenders, c.cat)
		}
	}

	if len(contenders) > 1 {
		d.Ambiguous = true
		d.Tied = contenders
		return d
	}

	d.Primary = candidates[0].cat
	return d
}
