package plan

import (
	"fmt"
	"strings"

	"github.com/abhisek/bipkit/internal/assessment"
	"github.com/abhisek/bipkit/internal/rubric"
)

const generateSystemPrompt = `You are a board-certified behavior analyst helping an educator draft a behavior intervention plan for a K-12 student. You write plans that are function-based: every strategy follows directly from the assessed function of the behavior. Use plain, professional language an educator can act on. Do not invent details about the student beyond what is provided.`

func buildGenerateUserMessage(p *Plan) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Student: %s\n", p.StudentName))
	b.WriteString(fmt.Sprintf("Target behavior: %s\n", p.Behavior))
	b.WriteString(fmt.Sprintf("Determined function: %s\n", describeFunction(p)))

	writeScores(&b, p.Calculated)

	b.WriteString(`
Instructions:
Draft a complete behavior intervention plan with these sections:
1. Function summary: 3-5 sentences explaining what the assessment shows the behavior achieves for the student. Reference the category scores.
2. Replacement behavior: one specific behavior the student can use instead, that serves the SAME function as the target behavior and is easier to perform, and how staff will teach it.
3. Prevention strategies: exactly three proactive strategies that reduce the need for the behavior by addressing its function before it occurs.
4. Reinforcement plan: how the replacement behavior will be reinforced, and how reinforcement for the target behavior will be withheld.
5. Response to behavior: how staff respond when the target behavior occurs, so the response does not reinforce its function.

For each section also provide a one-to-two sentence rationale explaining why it fits this student and this function.`)

	return b.String()
}

const reviseSystemPrompt = `You are a board-certified behavior analyst revising one section of a behavior intervention plan based on an educator's feedback. Change only what the feedback asks for. Keep the section consistent with the assessed function of the behavior and with the rest of the plan.`

func buildReviseUserMessage(p *Plan, kind SectionKind, current SectionContent, feedback string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Student: %s\n", p.StudentName))
	b.WriteString(fmt.Sprintf("Target behavior: %s\n", p.Behavior))
	b.WriteString(fmt.Sprintf("Determined function: %s\n", describeFunction(p)))

	b.WriteString("\nFull plan for context:\n")
	for _, k := range AllSections() {
		sec, ok := p.Sections[k]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("## %s\n%s\n", k.DisplayName(), sec.Working.Render()))
	}

	b.WriteString(fmt.Sprintf("\nSection to revise: %s\n", kind.DisplayName()))
	b.WriteString(fmt.Sprintf("Current content:\n%s\n", current.Render()))
	b.WriteString(fmt.Sprintf("\nEducator feedback:\n%s\n", feedback))

	if kind == SectionPreventionStrategies {
		b.WriteString(fmt.Sprintf("\nInstructions:\nRewrite the section to address the feedback. Return exactly %d strategies. Keep strategies the feedback does not mention as close to the current wording as possible. Provide a brief rationale for the change.", PreventionStrategyCount))
	} else {
		b.WriteString("\nInstructions:\nRewrite the section to address the feedback. Preserve wording the feedback does not ask you to change. Provide a brief rationale for the change.")
	}

	return b.String()
}

const coherenceSystemPrompt = `You are reviewing a behavior intervention plan for internal consistency after one section was revised. For each section, judge whether it still fits the assessed function of the behavior and the other sections. Flag real contradictions only; stylistic differences are not incoherence.`

func buildCoherenceUserMessage(p *Plan, revised SectionKind) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Target behavior: %s\n", p.Behavior))
	b.WriteString(fmt.Sprintf("Determined function: %s\n", describeFunction(p)))
	b.WriteString(fmt.Sprintf("Just revised: %s\n", revised.DisplayName()))

	b.WriteString("\nPlan sections:\n")
	for _, k := range AllSections() {
		sec, ok := p.Sections[k]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("## %s\n%s\n", k.DisplayName(), sec.Working.Render()))
	}

	b.WriteString(fmt.Sprintf(`
Instructions:
For each editable section, report whether it is coherent with the revised %q section and the determined function. Treat the revised section itself as the source of truth. Where a section is not coherent, describe the issue in one sentence and suggest a one-sentence fix.`, revised.DisplayName()))

	return b.String()
}

func describeFunction(p *Plan) string {
	if p.Determined == FunctionMultiple {
		return "multiple functions (ambiguous assessment accepted by the educator)"
	}
	if cat, ok := p.DeterminedCategory(); ok {
		return rubric.CategoryDisplayName(cat)
	}
	return "not yet determined"
}

func writeScores(b *strings.Builder, det *assessment.Determination) {
	if det == nil {
		return
	}
	b.WriteString("\nCategory scores (0-3 scale):\n")
	for _, cat := range rubric.AllCategories() {
		score, ok := det.Scores[cat]
		if !ok || !score.Valid {
			b.WriteString(fmt.Sprintf("- %s: no evidence\n", rubric.CategoryDisplayName(cat)))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %.2f (%d items)\n", rubric.CategoryDisplayName(cat), score.Average, score.Count))
	}
}
