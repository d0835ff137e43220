package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SectionKind identifies one of the five plan sections.
type SectionKind string

const (
	// SectionFunctionSummary is the non-editable summary of the
	// assessment outcome.
	SectionFunctionSummary SectionKind = "function_summary"

	SectionReplacementBehavior  SectionKind = "replacement_behavior"
	SectionPreventionStrategies SectionKind = "prevention_strategies"
	SectionReinforcementPlan    SectionKind = "reinforcement_plan"
	SectionResponseToBehavior   SectionKind = "response_to_behavior"
)

// PreventionStrategyCount is the fixed number of prevention strategies
// a plan carries. Generation and revision both enforce it.
const PreventionStrategyCount = 3

// AllSections returns every section kind in canonical document order.
func AllSections() []SectionKind {
	return []SectionKind{
		SectionFunctionSummary,
		SectionReplacementBehavior,
		SectionPreventionStrategies,
		SectionReinforcementPlan,
		SectionResponseToBehavior,
	}
}

// EditableSections returns the four revisable sections in the canonical
// review order used by the active-section pointer.
func EditableSections() []SectionKind {
	return []SectionKind{
		SectionReplacementBehavior,
		SectionPreventionStrategies,
		SectionReinforcementPlan,
		SectionResponseToBehavior,
	}
}

// Editable reports whether the section can be revised by the user.
func (k SectionKind) Editable() bool {
	return k != SectionFunctionSummary && knownSection(k)
}

// DisplayName returns a human-readable section title.
func (k SectionKind) DisplayName() string {
	switch k {
	case SectionFunctionSummary:
		return "Function Summary"
	case SectionReplacementBehavior:
		return "Replacement Behavior"
	case SectionPreventionStrategies:
		return "Prevention Strategies"
	case SectionReinforcementPlan:
		return "Reinforcement Plan"
	case SectionResponseToBehavior:
		return "Response to Behavior"
	default:
		return string(k)
	}
}

// ParseSectionKind validates a raw section name.
func ParseSectionKind(raw string) (SectionKind, error) {
	k := SectionKind(raw)
	if !knownSection(k) {
		return "", &ValidationError{Field: "section", Reason: fmt.Sprintf("unknown section %q", raw)}
	}
	return k, nil
}

func knownSection(k SectionKind) bool {
	for _, s := range AllSections() {
		if s == k {
			return true
		}
	}
	return false
}

// SectionContent is the value of one section: free text for every kind
// except prevention strategies, which is a fixed-length string list.
type SectionContent struct {
	Text       string   `json:"text,omitempty"`
	Strategies []string `json:"strategies,omitempty"`
}

// TextContent wraps free text as section content.
func TextContent(s string) SectionContent {
	return SectionContent{Text: s}
}

// StrategiesContent wraps a strategy list as section content.
func StrategiesContent(items []string) SectionContent {
	out := make([]string, len(items))
	copy(out, items)
	return SectionContent{Strategies: out}
}

// Validate checks the content against the shape contract for its
// section kind. Called before any mutation is applied or recorded.
func (c SectionContent) Validate(kind SectionKind) error {
	if kind == SectionPreventionStrategies {
		if len(c.Strategies) != PreventionStrategyCount {
			return &ValidationError{
				Field:  string(kind),
				Reason: fmt.Sprintf("expected exactly %d strategies, got %d", PreventionStrategyCount, len(c.Strategies)),
			}
		}
		for i, s := range c.Strategies {
			if strings.TrimSpace(s) == "" {
				return &ValidationError{
					Field:  string(kind),
					Reason: fmt.Sprintf("strategy %d is empty", i+1),
				}
			}
		}
		if c.Text != "" {
			return &ValidationError{Field: string(kind), Reason: "strategies section cannot carry free text"}
		}
		return nil
	}

	if strings.TrimSpace(c.Text) == "" {
		return &ValidationError{Field: string(kind), Reason: "content is empty"}
	}
	if len(c.Strategies) != 0 {
		return &ValidationError{Field: string(kind), Reason: "text section cannot carry a strategy list"}
	}
	return nil
}

// Equal reports whether two contents are byte-identical.
func (c SectionContent) Equal(o SectionContent) bool {
	if c.Text != o.Text || len(c.Strategies) != len(o.Strategies) {
		return false
	}
	for i := range c.Strategies {
		if c.Strategies[i] != o.Strategies[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (c SectionContent) Clone() SectionContent {
	out := SectionContent{Text: c.Text}
	if c.Strategies != nil {
		out.Strategies = make([]string, len(c.Strategies))
		copy(out.Strategies, c.Strategies)
	}
	return out
}

// Encode serializes content to the single stored string: strategies as
// a JSON array, free text as-is.
func (c SectionContent) Encode() string {
	if c.Strategies != nil {
		data, err := json.Marshal(c.Strategies)
		if err != nil {
			// A []string cannot fail to marshal.
			panic("plan: encode strategies: " + err.Error())
		}
		return string(data)
	}
	return c.Text
}

// DecodeContent parses a stored string back into section content for
// the given kind.
func DecodeContent(kind SectionKind, raw string) (SectionContent, error) {
	if kind == SectionPreventionStrategies {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return SectionContent{}, &ValidationError{
				Field:  string(kind),
				Reason: fmt.Sprintf("stored strategies are not a JSON array: %v", err),
			}
		}
		return SectionContent{Strategies: items}, nil
	}
	return SectionContent{Text: raw}, nil
}

// Render returns the content as display text: free text verbatim,
// strategies as a numbered list.
func (c SectionContent) Render() string {
	if c.Strategies == nil {
		return c.Text
	}
	var b strings.Builder
	for i, s := range c.Strategies {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}
