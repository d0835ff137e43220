package plan

import "context"

// PlanRepo persists plan documents. Save is a full upsert; the service
// serializes writers per plan so last-write-wins is never racy.
type PlanRepo interface {
	Get(ctx context.Context, id string) (*Plan, error)
	Save(ctx context.Context, p *Plan) error
	List(ctx context.Context) ([]*Plan, error)
}

// RevisionRepo is the append-only section history.
type RevisionRepo interface {
	Append(ctx context.Context, rev *Revision) error
	Get(ctx context.Context, id string) (*Revision, error)

	// History returns revisions for one section of one plan, newest
	// first (generation version descending, then revision number
	// descending).
	History(ctx context.Context, planID string, kind SectionKind) ([]*Revision, error)

	// MaxRevisionNumber returns the highest revision number recorded
	// for the section within the given generation version, zero when
	// none exist.
	MaxRevisionNumber(ctx context.Context, planID string, kind SectionKind, generationVersion int) (int, error)
}

// StudentRepo persists student records.
type StudentRepo interface {
	Get(ctx context.Context, id string) (*Student, error)
	GetByName(ctx context.Context, name string) (*Student, error)
	Save(ctx context.Context, s *Student) error
	List(ctx context.Context) ([]*Student, error)
}
