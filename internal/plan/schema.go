package plan

import "github.com/abhisek/bipkit/internal/llm"

// planSchema is the structured-output contract for full plan
// generation. One field per section plus a rationale each, so a single
// call produces the whole draft.
func planSchema() llm.Schema {
	textSection := func(desc string) map[string]any {
		return map[string]any{
			"type":        "string",
			"minLength":   1,
			"description": desc,
		}
	}
	return llm.Schema{
		Name:        "behavior_plan",
		Description: "A complete behavior intervention plan draft",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"function_summary": textSection(
					"Summary of the assessed function of the behavior, grounded in the category scores"),
				"function_summary_rationale": map[string]any{"type": "string"},
				"prevention_strategies": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string", "minLength": 1},
					"minItems":    PreventionStrategyCount,
					"maxItems":    PreventionStrategyCount,
					"description": "Exactly three proactive strategies that address the function",
				},
				"prevention_strategies_rationale": map[string]any{"type": "string"},
				"replacement_behavior": textSection(
					"One replacement behavior serving the same function as the target behavior, and how it will be taught"),
				"replacement_behavior_rationale": map[string]any{"type": "string"},
				"reinforcement_plan": textSection(
					"How the replacement behavior will be reinforced and the target behavior not"),
				"reinforcement_plan_rationale": map[string]any{"type": "string"},
				"response_to_behavior": textSection(
					"How staff respond when the target behavior occurs, without reinforcing its function"),
				"response_to_behavior_rationale": map[string]any{"type": "string"},
			},
			"required": []string{
				"function_summary", "function_summary_rationale",
				"prevention_strategies", "prevention_strategies_rationale",
				"replacement_behavior", "replacement_behavior_rationale",
				"reinforcement_plan", "reinforcement_plan_rationale",
				"response_to_behavior", "response_to_behavior_rationale",
			},
			"additionalProperties": false,
		},
	}
}

// planDraft mirrors planSchema for decoding.
type planDraft struct {
	FunctionSummary              string   `json:"function_summary"`
	FunctionSummaryRationale     string   `json:"function_summary_rationale"`
	PreventionStrategies         []string `json:"prevention_strategies"`
	PreventionStrategiesRat      string   `json:"prevention_strategies_rationale"`
	ReplacementBehavior          string   `json:"replacement_behavior"`
	ReplacementBehaviorRationale string   `json:"replacement_behavior_rationale"`
	ReinforcementPlan            string   `json:"reinforcement_plan"`
	ReinforcementPlanRationale   string   `json:"reinforcement_plan_rationale"`
	ResponseToBehavior           string   `json:"response_to_behavior"`
	ResponseToBehaviorRationale  string   `json:"response_to_behavior_rationale"`
}

func (d *planDraft) section(kind SectionKind) (SectionContent, string) {
	switch kind {
	case SectionFunctionSummary:
		return TextContent(d.FunctionSummary), d.FunctionSummaryRationale
	case SectionPreventionStrategies:
		return StrategiesContent(d.PreventionStrategies), d.PreventionStrategiesRat
	case SectionReplacementBehavior:
		return TextContent(d.ReplacementBehavior), d.ReplacementBehaviorRationale
	case SectionReinforcementPlan:
		return TextContent(d.ReinforcementPlan), d.ReinforcementPlanRationale
	case SectionResponseToBehavior:
		return TextContent(d.ResponseToBehavior), d.ResponseToBehaviorRationale
	}
	return SectionContent{}, ""
}

// reviseSchema is the contract for a single-section revision. Prose
// sections return a string, the prevention section returns the full
// three-item list. The two shapes carry distinct schema names because
// providers cache compiled schemas by name.
func reviseSchema(kind SectionKind) llm.Schema {
	var content map[string]any
	name := "section_revision_text"
	if kind == SectionPreventionStrategies {
		name = "section_revision_strategies"
		content = map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string", "minLength": 1},
			"minItems": PreventionStrategyCount,
			"maxItems": PreventionStrategyCount,
		}
	} else {
		content = map[string]any{"type": "string", "minLength": 1}
	}
	return llm.Schema{
		Name:        name,
		Description: "A revised plan section with rationale",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content": content,
				"rationale": map[string]any{
					"type":        "string",
					"description": "How the revision addresses the feedback",
				},
			},
			"required":             []string{"content", "rationale"},
			"additionalProperties": false,
		},
	}
}

type textRevision struct {
	Content   string `json:"content"`
	Rationale string `json:"rationale"`
}

type strategiesRevision struct {
	Content   []string `json:"content"`
	Rationale string   `json:"rationale"`
}

// coherenceSchema is the contract for the advisory coherence check:
// one verdict per editable section.
func coherenceSchema() llm.Schema {
	verdict := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"coherent":   map[string]any{"type": "boolean"},
			"issue":      map[string]any{"type": "string"},
			"suggestion": map[string]any{"type": "string"},
		},
		"required":             []string{"coherent"},
		"additionalProperties": false,
	}
	props := map[string]any{}
	required := make([]string, 0, len(EditableSections()))
	for _, kind := range EditableSections() {
		props[string(kind)] = verdict
		required = append(required, string(kind))
	}
	return llm.Schema{
		Name:        "plan_coherence",
		Description: "Per-section coherence verdicts after a revision",
		Definition: map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

// SectionVerdict is the coherence checker's opinion of one section.
type SectionVerdict struct {
	Coherent   bool   `json:"coherent"`
	Issue      string `json:"issue,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// CoherenceReport maps editable sections to verdicts. Purely advisory:
// nothing in the revision workflow blocks on it.
type CoherenceReport map[SectionKind]SectionVerdict

// AllCoherent reports whether every section passed.
func (r CoherenceReport) AllCoherent() bool {
	for _, v := range r {
		if !v.Coherent {
			return false
		}
	}
	return true
}
