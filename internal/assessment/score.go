package assessment

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/abhisek/bipkit/internal/rubric"
)

// ResponseSet maps assessment item IDs to the educator's responses.
// Partial by design: an unanswered item is simply absent.
type ResponseSet map[int]rubric.ResponseValue

// CategoryScore aggregates the endorsement strength for one function
// category. Valid is false when the category has no answered, applicable
// items — "no evidence" is deliberately distinct from a zero score.
type CategoryScore struct {
	Count   int
	Sum     int
	Average float64
	Valid   bool
}

// categoryScoreJSON is the wire form: a no-evidence average serializes
// as null, never as 0.
type categoryScoreJSON struct {
	Count   int      `json:"count"`
	Sum     int      `json:"sum"`
	Average *float64 `json:"average"`
}

func (s CategoryScore) MarshalJSON() ([]byte, error) {
	out := categoryScoreJSON{Count: s.Count, Sum: s.Sum}
	if s.Valid {
		avg := s.Average
		out.Average = &avg
	}
	return json.Marshal(out)
}

func (s *CategoryScore) UnmarshalJSON(data []byte) error {
	var in categoryScoreJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Count = in.Count
	s.Sum = in.Sum
	if in.Average != nil {
		s.Average = *in.Average
		s.Valid = true
	} else {
		s.Average = 0
		s.Valid = false
	}
	return nil
}

// Score aggregates raw responses into per-category scores against the
// given rubric. Pure function: safe to call speculatively as responses
// arrive. Items with no response or a not_applicable response contribute
// nothing. Averages are rounded to 2 decimal places, round-half-up.
func Score(responses ResponseSet, r *rubric.Rubric) map[rubric.Category]CategoryScore {
	scores := make(map[rubric.Category]CategoryScore, len(r.Categories()))

	for _, cat := range r.Categories() {
		var cs CategoryScore
		for _, it := range r.ItemsFor(cat) {
			v, answered := responses[it.ID]
			if !answered {
				continue
			}
			w, applicable := rubric.Weight(v)
			if !applicable {
				continue
			}
			cs.Count++
			cs.Sum += w
		}
		if cs.Count > 0 {
			cs.Average = round2(float64(cs.Sum) / float64(cs.Count))
			cs.Valid = true
		}
		scores[cat] = cs
	}

	return scores
}

// ValidateResponses checks every response against the rubric: the item
// must exist in the catalog and the value must be one of the closed
// enumeration. Rejection happens here, before any state mutation.
func ValidateResponses(responses ResponseSet, r *rubric.Rubric) error {
	for id, v := range responses {
		if _, ok := r.Item(id); !ok {
			return &ValidationError{Field: "responses", Reason: fmt.Sprintf("unknown item id %d", id)}
		}
		if _, err := rubric.ParseResponseValue(string(v)); err != nil {
			return &ValidationError{Field: "responses", Reason: err.Error()}
		}
	}
	return nil
}

// round2 rounds to 2 decimal places, half away from zero.
// Weights are non-negative, so this is standard round-half-up.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
