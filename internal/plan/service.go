package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/bipkit/internal/assessment"
	"github.com/abhisek/bipkit/internal/llm"
	"github.com/abhisek/bipkit/internal/rubric"
)

const (
	generateMaxTokens  = 4096
	reviseMaxTokens    = 2048
	coherenceMaxTokens = 1024
)

// Service owns the plan lifecycle: assessment capture, scoring,
// generation, and the per-section revision workflow. All writes to a
// plan are serialized through a per-plan mutex; the repos never see
// concurrent writers for the same plan.
type Service struct {
	plans     PlanRepo
	revisions RevisionRepo
	students  StudentRepo
	provider  llm.Provider
	rubric    *rubric.Rubric
	cfg       assessment.Config

	locks sync.Map // plan id -> *sync.Mutex
}

func NewService(plans PlanRepo, revisions RevisionRepo, students StudentRepo, provider llm.Provider, r *rubric.Rubric, cfg assessment.Config) *Service {
	return &Service{
		plans:     plans,
		revisions: revisions,
		students:  students,
		provider:  provider,
		rubric:    r,
		cfg:       cfg,
	}
}

// Rubric returns the assessment rubric the service scores against.
func (s *Service) Rubric() *rubric.Rubric {
	return s.rubric
}

func (s *Service) lock(planID string) func() {
	mu, _ := s.locks.LoadOrStore(planID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// CreatePlan starts a draft plan for the named student, creating the
// student record on first use.
func (s *Service) CreatePlan(ctx context.Context, studentName, behavior string) (*Plan, error) {
	if studentName == "" {
		return nil, &ValidationError{Field: "student", Reason: "name must not be empty"}
	}
	if behavior == "" {
		return nil, &ValidationError{Field: "behavior", Reason: "target behavior must not be empty"}
	}

	student, err := s.students.GetByName(ctx, studentName)
	if err != nil {
		return nil, fmt.Errorf("looking up student: %w", err)
	}
	if student == nil {
		student = &Student{
			ID:        uuid.NewString(),
			Name:      studentName,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.students.Save(ctx, student); err != nil {
			return nil, fmt.Errorf("creating student: %w", err)
		}
	}

	now := time.Now().UTC()
	p := &Plan{
		ID:          uuid.NewString(),
		StudentID:   student.ID,
		StudentName: student.Name,
		Behavior:    behavior,
		Status:      StatusDraft,
		Responses:   assessment.ResponseSet{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}
	return p, nil
}

func (s *Service) GetPlan(ctx context.Context, id string) (*Plan, error) {
	return s.plans.Get(ctx, id)
}

func (s *Service) ListPlans(ctx context.Context) ([]*Plan, error) {
	return s.plans.List(ctx)
}

// SaveResponses records in-progress assessment answers. Called by the
// autosaver; partial response sets are expected and valid here.
func (s *Service) SaveResponses(ctx context.Context, planID string, responses assessment.ResponseSet) (*Plan, error) {
	unlock := s.lock(planID)
	defer unlock()

	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := assessment.ValidateResponses(responses, s.rubric); err != nil {
		return nil, err
	}

	if p.Responses == nil {
		p.Responses = assessment.ResponseSet{}
	}
	for id, v := range responses {
		p.Responses[id] = v
	}
	if p.Status == StatusDraft {
		p.Status = StatusInProgress
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving responses: %w", err)
	}
	return p, nil
}

// SubmitAssessment scores the recorded responses and runs the function
// determination. The algorithmic result is stored verbatim in
// Calculated; Determined starts as the algorithm's accepted category
// and the educator may override it afterwards.
func (s *Service) SubmitAssessment(ctx context.Context, planID string) (*Plan, error) {
	unlock := s.lock(planID)
	defer unlock()

	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if len(p.Responses) == 0 {
		return nil, &ValidationError{Field: "responses", Reason: "no assessment responses recorded"}
	}
	if err := assessment.ValidateResponses(p.Responses, s.rubric); err != nil {
		return nil, err
	}

	scores := assessment.Score(p.Responses, s.rubric)
	det := assessment.Determine(scores, s.cfg)
	p.Calculated = &det
	p.Determined = string(det.Accepted())
	p.Status = StatusAssessmentComplete
	p.UpdatedAt = time.Now().UTC()

	if err := s.plans.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving assessment: %w", err)
	}
	return p, nil
}

// SetDeterminedFunction overrides the accepted function: a category
// name, or "multiple" to accept an ambiguous result as-is. The
// algorithmic determination in Calculated is never modified.
func (s *Service) SetDeterminedFunction(ctx context.Context, planID, function string) (*Plan, error) {
	unlock := s.lock(planID)
	defer unlock()

	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.Calculated == nil {
		return nil, &ValidationError{Field: "function", Reason: "assessment has not been submitted"}
	}
	if function != FunctionMultiple {
		valid := false
		for _, cat := range rubric.AllCategories() {
			if string(cat) == function {
				valid = true
				break
			}
		}
		if !valid {
			return nil, &ValidationError{Field: "function", Reason: fmt.Sprintf("unknown function %q", function)}
		}
	}

	p.Determined = function
	p.UpdatedAt = time.Now().UTC()
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving determined function: %w", err)
	}
	return p, nil
}

// Generate produces the first full plan draft. Requires a submitted
// assessment with an accepted function.
func (s *Service) Generate(ctx context.Context, planID string) (*Plan, error) {
	unlock := s.lock(planID)
	defer unlock()

	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.Generated() {
		return nil, &ValidationError{Field: "plan", Reason: "plan already generated; use rebuild"}
	}
	return s.generate(ctx, p)
}

// Rebuild regenerates the entire plan from scratch under a new
// generation version. Review state resets; all revision history from
// earlier generations is preserved and stays addressable.
func (s *Service) Rebuild(ctx context.Context, planID string) (*Plan, error) {
	unlock := s.lock(planID)
	defer unlock()

	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !p.Generated() {
		return nil, &ValidationError{Field: "plan", Reason: "plan has not been generated yet"}
	}
	return s.generate(ctx, p)
}

func (s *Service) generate(ctx context.Context, p *Plan) (*Plan, error) {
	if p.Determined == "" {
		return nil, &ValidationError{Field: "plan", Reason: "assessment must be submitted before generation"}
	}

	p.Status = StatusGenerating
	p.UpdatedAt = time.Now().UTC()
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}

	ctx = llm.WithPurpose(ctx, "plan_generate")
	schema := planSchema()
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:    generateSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildGenerateUserMessage(p)}},
		Schema:    &schema,
		MaxTokens: generateMaxTokens,
	})
	if err != nil {
		p.Status = StatusAssessmentComplete
		p.UpdatedAt = time.Now().UTC()
		_ = s.plans.Save(ctx, p)
		return nil, fmt.Errorf("generating plan: %w", err)
	}

	var draft planDraft
	if err := json.Unmarshal(resp.Content, &draft); err != nil {
		p.Status = StatusAssessmentComplete
		_ = s.plans.Save(ctx, p)
		return nil, fmt.Errorf("decoding plan draft: %w", err)
	}

	p.GenerationVersion++
	now := time.Now().UTC()
	sections := make(map[SectionKind]*Section, len(AllSections()))
	for _, kind := range AllSections() {
		content, rationale := draft.section(kind)
		if err := content.Validate(kind); err != nil {
			p.Status = StatusAssessmentComplete
			p.GenerationVersion--
			_ = s.plans.Save(ctx, p)
			return nil, fmt.Errorf("model returned invalid %s: %w", kind, err)
		}
		sections[kind] = &Section{
			Kind:      kind,
			Original:  content,
			Working:   content.Clone(),
			Rationale: rationale,
		}
	}

	// The draft is the first revision of each section in this
	// generation, so history survives later rebuilds. Numbering goes
	// through the same max+1 path as every other mutation in case a
	// half-failed earlier attempt left records under this version.
	for _, kind := range AllSections() {
		sec := sections[kind]
		num, err := s.revisions.MaxRevisionNumber(ctx, p.ID, kind, p.GenerationVersion)
		if err != nil {
			return nil, fmt.Errorf("reading revision history: %w", err)
		}
		rev := &Revision{
			ID:                uuid.NewString(),
			PlanID:            p.ID,
			Kind:              kind,
			Content:           sec.Original.Clone(),
			Rationale:         sec.Rationale,
			RevisionNumber:    num + 1,
			GenerationVersion: p.GenerationVersion,
			CreatedAt:         now,
		}
		if err := s.revisions.Append(ctx, rev); err != nil {
			return nil, fmt.Errorf("recording draft revision: %w", err)
		}
	}

	p.Sections = sections
	p.ActiveSection = EditableSections()[0]
	p.Status = StatusComplete
	p.UpdatedAt = now
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving generated plan: %w", err)
	}
	return p, nil
}

// ReviseSection asks the model to rework one section per the
// educator's feedback. All-or-nothing: if the model call or validation
// fails the working content is untouched and no revision is recorded.
// A coherence check runs afterwards; its failure never fails the
// revision.
func (s *Service) ReviseSection(ctx context.Context, planID string, kind SectionKind, feedback string) (*Plan, CoherenceReport, error) {
	unlock := s.lock(planID)
	defer unlock()

	if feedback == "" {
		return nil, nil, &ValidationError{Field: "feedback", Reason: "revision feedback must not be empty"}
	}

	p, sec, err := s.editableSection(ctx, planID, kind)
	if err != nil {
		return nil, nil, err
	}

	ctx = llm.WithPurpose(ctx, "section_revise")
	schema := reviseSchema(kind)
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:    reviseSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildReviseUserMessage(p, kind, sec.Working, feedback)}},
		Schema:    &schema,
		MaxTokens: reviseMaxTokens,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("revising %s: %w", kind, err)
	}

	content, rationale, err := decodeRevision(kind, resp.Content)
	if err != nil {
		return nil, nil, err
	}

	if err := s.applyMutation(ctx, p, sec, content, rationale, feedback, false); err != nil {
		return nil, nil, err
	}

	sec.Reviewed = true
	s.advance(p, kind)
	p.UpdatedAt = time.Now().UTC()
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("saving revised plan: %w", err)
	}

	report := s.checkCoherence(ctx, p, kind)
	return p, report, nil
}

// ManualEdit replaces a section's working content with educator-written
// text. Shape validation happens before anything is persisted.
func (s *Service) ManualEdit(ctx context.Context, planID string, kind SectionKind, content SectionContent) (*Plan, CoherenceReport, error) {
	unlock := s.lock(planID)
	defer unlock()

	if err := content.Validate(kind); err != nil {
		return nil, nil, err
	}

	p, sec, err := s.editableSection(ctx, planID, kind)
	if err != nil {
		return nil, nil, err
	}

	if err := s.applyMutation(ctx, p, sec, content, "", "Manual edit", true); err != nil {
		return nil, nil, err
	}

	sec.Reviewed = true
	s.advance(p, kind)
	p.UpdatedAt = time.Now().UTC()
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("saving manual edit: %w", err)
	}

	report := s.checkCoherence(ctx, p, kind)
	return p, report, nil
}

// KeepAsIs approves a section without touching its content. No
// revision is recorded; review moves on to the next section.
func (s *Service) KeepAsIs(ctx context.Context, planID string, kind SectionKind) (*Plan, error) {
	unlock := s.lock(planID)
	defer unlock()

	p, sec, err := s.editableSection(ctx, planID, kind)
	if err != nil {
		return nil, err
	}

	sec.Reviewed = true
	s.advance(p, kind)
	p.UpdatedAt = time.Now().UTC()
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}
	return p, nil
}

// ResetToOriginal restores the section's current-generation draft. The
// reset itself is a recorded revision, even when the working content
// already matches, so history shows every reset the educator asked for.
func (s *Service) ResetToOriginal(ctx context.Context, planID string, kind SectionKind) (*Plan, error) {
	unlock := s.lock(planID)
	defer unlock()

	p, sec, err := s.editableSection(ctx, planID, kind)
	if err != nil {
		return nil, err
	}

	if err := s.applyMutation(ctx, p, sec, sec.Original.Clone(), "", "Reset to original draft", false); err != nil {
		return nil, err
	}

	p.UpdatedAt = time.Now().UTC()
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}
	return p, nil
}

// RestoreRevision makes a prior revision's content the working content
// again, recorded as a new revision rather than rewinding history.
func (s *Service) RestoreRevision(ctx context.Context, planID, revisionID string) (*Plan, error) {
	unlock := s.lock(planID)
	defer unlock()

	rev, err := s.revisions.Get(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if rev.PlanID != planID {
		return nil, &NotFoundError{Kind: "revision", ID: revisionID}
	}

	p, sec, err := s.editableSection(ctx, planID, rev.Kind)
	if err != nil {
		return nil, err
	}

	feedback := fmt.Sprintf("Restored revision %d (generation %d)", rev.RevisionNumber, rev.GenerationVersion)
	if err := s.applyMutation(ctx, p, sec, rev.Content.Clone(), rev.Rationale, feedback, true); err != nil {
		return nil, err
	}

	p.UpdatedAt = time.Now().UTC()
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}
	return p, nil
}

// GetRevision returns one revision of the plan's history.
func (s *Service) GetRevision(ctx context.Context, planID, revisionID string) (*Revision, error) {
	rev, err := s.revisions.Get(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if rev.PlanID != planID {
		return nil, &NotFoundError{Kind: "revision", ID: revisionID}
	}
	return rev, nil
}

// SectionHistory returns the full mutation history for a section,
// newest first, across all generation versions.
func (s *Service) SectionHistory(ctx context.Context, planID string, kind SectionKind) ([]*Revision, error) {
	if !knownSection(kind) {
		return nil, &ValidationError{Field: "section", Reason: fmt.Sprintf("unknown section %q", kind)}
	}
	return s.revisions.History(ctx, planID, kind)
}

func (s *Service) editableSection(ctx context.Context, planID string, kind SectionKind) (*Plan, *Section, error) {
	if !kind.Editable() {
		return nil, nil, &ValidationError{Field: "section", Reason: fmt.Sprintf("section %q is not editable", kind)}
	}
	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	if !p.Generated() {
		return nil, nil, &ValidationError{Field: "plan", Reason: "plan has not been generated yet"}
	}
	sec, err := p.Section(kind)
	if err != nil {
		return nil, nil, err
	}
	return p, sec, nil
}

// applyMutation appends the revision record, then updates the working
// content. Append-first keeps history complete even if the later plan
// save fails and is retried.
func (s *Service) applyMutation(ctx context.Context, p *Plan, sec *Section, content SectionContent, rationale, feedback string, manual bool) error {
	num, err := s.revisions.MaxRevisionNumber(ctx, p.ID, sec.Kind, p.GenerationVersion)
	if err != nil {
		return fmt.Errorf("reading revision history: %w", err)
	}
	rev := &Revision{
		ID:                uuid.NewString(),
		PlanID:            p.ID,
		Kind:              sec.Kind,
		Content:           content.Clone(),
		Rationale:         rationale,
		RevisionNumber:    num + 1,
		GenerationVersion: p.GenerationVersion,
		Feedback:          feedback,
		ManualEdit:        manual,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.revisions.Append(ctx, rev); err != nil {
		return fmt.Errorf("recording revision: %w", err)
	}

	sec.Working = content
	if rationale != "" {
		sec.Rationale = rationale
	}
	sec.RevisionCount++
	return nil
}

// advance moves the active-section pointer to the next unreviewed
// editable section after the one just handled.
func (s *Service) advance(p *Plan, done SectionKind) {
	if p.ActiveSection != done {
		return
	}
	p.ActiveSection = p.NextUnreviewed()
}

func decodeRevision(kind SectionKind, raw json.RawMessage) (SectionContent, string, error) {
	if kind == SectionPreventionStrategies {
		var out strategiesRevision
		if err := json.Unmarshal(raw, &out); err != nil {
			return SectionContent{}, "", fmt.Errorf("decoding revision: %w", err)
		}
		content := StrategiesContent(out.Content)
		if err := content.Validate(kind); err != nil {
			return SectionContent{}, "", err
		}
		return content, out.Rationale, nil
	}

	var out textRevision
	if err := json.Unmarshal(raw, &out); err != nil {
		return SectionContent{}, "", fmt.Errorf("decoding revision: %w", err)
	}
	content := TextContent(out.Content)
	if err := content.Validate(kind); err != nil {
		return SectionContent{}, "", err
	}
	return content, out.Rationale, nil
}
