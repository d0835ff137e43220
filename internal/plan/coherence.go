package plan

import (
	"context"
	"encoding/json"

	"github.com/abhisek/bipkit/internal/llm"
)

// checkCoherence runs the advisory cross-section consistency check
// after a mutation. It can warn, never block: any model failure,
// decode failure, or missing verdict degrades to "all coherent". The
// revised section is the educator's latest word, so its own verdict is
// forced coherent regardless of what the model says.
func (s *Service) checkCoherence(ctx context.Context, p *Plan, revised SectionKind) CoherenceReport {
	report := allCoherent()

	ctx = llm.WithPurpose(ctx, "coherence_check")
	schema := coherenceSchema()
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:    coherenceSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildCoherenceUserMessage(p, revised)}},
		Schema:    &schema,
		MaxTokens: coherenceMaxTokens,
	})
	if err != nil {
		return report
	}

	var verdicts map[string]SectionVerdict
	if err := json.Unmarshal(resp.Content, &verdicts); err != nil {
		return report
	}

	for _, kind := range EditableSections() {
		if v, ok := verdicts[string(kind)]; ok {
			report[kind] = v
		}
	}
	report[revised] = SectionVerdict{Coherent: true}
	return report
}

func allCoherent() CoherenceReport {
	report := make(CoherenceReport, len(EditableSections()))
	for _, kind := range EditableSections() {
		report[kind] = SectionVerdict{Coherent: true}
	}
	return report
}
