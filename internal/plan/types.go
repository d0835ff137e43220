package plan

import (
	"time"

	"github.com/abhisek/bipkit/internal/assessment"
	"github.com/abhisek/bipkit/internal/rubric"
)

// Status is the plan lifecycle checkpoint. Ordered but not strictly
// linear: a complete plan re-enters the revision workflow without
// transitioning backwards.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusInProgress         Status = "in_progress"
	StatusAssessmentComplete Status = "assessment_complete"
	StatusGenerating         Status = "generating"
	StatusComplete           Status = "complete"
)

// FunctionMultiple is the determined-function value recorded when the
// educator accepts an ambiguous determination instead of picking one
// category.
const FunctionMultiple = "multiple"

// Section is the three-tier content lineage for one plan section:
// the immutable first draft, the live working value, and (via the
// revision log) the full mutation history.
type Section struct {
	Kind SectionKind `json:"kind"`

	// Original is the AI draft for the current generation version.
	// Write-once: only a full rebuild replaces it.
	Original SectionContent `json:"original"`

	// Working is the live value. Every mutation appends a Revision.
	Working SectionContent `json:"working"`

	// Rationale is the model's explanation for the latest content.
	Rationale string `json:"rationale,omitempty"`

	// Reviewed marks the section approved for the current generation.
	Reviewed bool `json:"reviewed"`

	// RevisionCount counts mutations attempted since generation.
	RevisionCount int `json:"revision_count"`
}

// Plan is the behavior intervention plan record.
type Plan struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`

	// Behavior is the educator's description of the target behavior.
	Behavior string `json:"behavior"`

	Status Status `json:"status"`

	// Responses is the raw assessment response set, the source of
	// truth that scores are recomputed from.
	Responses assessment.ResponseSet `json:"responses,omitempty"`

	// Calculated is the algorithmic determination, retained verbatim
	// even when the educator overrides it.
	Calculated *assessment.Determination `json:"calculated,omitempty"`

	// Determined is the accepted function: the educator's explicit
	// choice, or the algorithmic primary (first tied contender when
	// ambiguous), or "multiple" when ambiguity was accepted as-is.
	Determined string `json:"determined_function,omitempty"`

	// GenerationVersion counts full plan generations. Zero before the
	// first generation; revision numbering is scoped to it.
	GenerationVersion int `json:"generation_version"`

	Sections map[SectionKind]*Section `json:"sections,omitempty"`

	// ActiveSection is the editable section currently under review,
	// empty when every section has been reviewed.
	ActiveSection SectionKind `json:"active_section,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Section returns the named section, or a NotFoundError if the plan
// has not been generated or the kind is unknown.
func (p *Plan) Section(kind SectionKind) (*Section, error) {
	if sec, ok := p.Sections[kind]; ok {
		return sec, nil
	}
	return nil, &NotFoundError{Kind: "section", ID: string(kind)}
}

// Generated reports whether the plan has sections to review.
func (p *Plan) Generated() bool {
	return p.GenerationVersion > 0 && len(p.Sections) > 0
}

// NextUnreviewed returns the first editable section not yet reviewed,
// in canonical order, or "" when all are reviewed.
func (p *Plan) NextUnreviewed() SectionKind {
	for _, kind := range EditableSections() {
		if sec, ok := p.Sections[kind]; ok && !sec.Reviewed {
			return kind
		}
	}
	return ""
}

// DeterminedCategory returns the accepted function as a category when
// it names one, or ("", false) for "multiple" and the unset case.
func (p *Plan) DeterminedCategory() (rubric.Category, bool) {
	if p.Determined == "" || p.Determined == FunctionMultiple {
		return "", false
	}
	return rubric.Category(p.Determined), true
}

// Revision is one immutable entry in a section's mutation history.
// Append-only: nothing is ever deleted or rewritten in place.
type Revision struct {
	ID     string      `json:"id"`
	PlanID string      `json:"plan_id"`
	Kind   SectionKind `json:"section_kind"`

	Content   SectionContent `json:"content"`
	Rationale string         `json:"rationale,omitempty"`

	// RevisionNumber is monotonic per section per generation version,
	// starting at 1 with the generation draft itself.
	RevisionNumber int `json:"revision_number"`

	// GenerationVersion scopes the numbering; history from earlier
	// generations stays addressable after a rebuild.
	GenerationVersion int `json:"generation_version"`

	// Feedback is the educator's revision request, "Manual edit" for
	// direct edits, or a note naming the restored revision.
	Feedback string `json:"feedback,omitempty"`

	// ManualEdit marks revisions that bypassed the model.
	ManualEdit bool `json:"manual_edit"`

	CreatedAt time.Time `json:"created_at"`
}

// Student is the minimal student record a plan points at.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Grade     string    `json:"grade,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
