package rubric

import "fmt"

// ResponseValue is the educator's answer to a single assessment item.
// The scale is ordinal: a higher weight means stronger endorsement.
type ResponseValue string

const (
	ResponseNever     ResponseValue = "never"
	ResponseRarely    ResponseValue = "rarely"
	ResponseSometimes ResponseValue = "sometimes"
	ResponseOften     ResponseValue = "often"

	// ResponseNotApplicable means the item carries no weight at all.
	// Distinct from "never": it is excluded from scoring entirely.
	ResponseNotApplicable ResponseValue = "not_applicable"
)

// responseWeights maps each scored value to its ordinal weight.
// not_applicable is deliberately absent.
var responseWeights = map[ResponseValue]int{
	ResponseNever:     0,
	ResponseRarely:    1,
	ResponseSometimes: 2,
	ResponseOften:     3,
}

// MinWeight and MaxWeight bound the scored response scale.
const (
	MinWeight = 0
	MaxWeight = 3
)

// AllResponseValues returns every accepted value in ascending weight order,
// with not_applicable last.
func AllResponseValues() []ResponseValue {
	return []ResponseValue{
		ResponseNever,
		ResponseRarely,
		ResponseSometimes,
		ResponseOften,
		ResponseNotApplicable,
	}
}

// Weight returns the numeric weight for a response value.
// The second return is false for not_applicable, which has no weight.
func Weight(v ResponseValue) (int, bool) {
	w, ok := responseWeights[v]
	return w, ok
}

// ParseResponseValue validates a raw string against the closed enumeration.
// Unknown values are rejected here, before they reach the scoring engine.
func ParseResponseValue(raw string) (ResponseValue, error) {
	v := ResponseValue(raw)
	if _, ok := responseWeights[v]; ok {
		return v, nil
	}
	if v == ResponseNotApplicable {
		return v, nil
	}
	return "", fmt.Errorf("unknown response value %q", raw)
}
