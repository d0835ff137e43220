package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/bipkit/internal/plan"
)

// RevisionRepo is the append-only section history. Content is stored
// in its encoded form (prose verbatim, strategy lists as JSON arrays).
type RevisionRepo struct {
	db *sql.DB
}

var _ plan.RevisionRepo = (*RevisionRepo)(nil)

func (r *RevisionRepo) Append(ctx context.Context, rev *plan.Revision) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revisions
			(id, plan_id, section_kind, content, rationale,
			 revision_number, generation_version, feedback, manual_edit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.ID, rev.PlanID, string(rev.Kind), rev.Content.Encode(), rev.Rationale,
		rev.RevisionNumber, rev.GenerationVersion, rev.Feedback, rev.ManualEdit,
		rev.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append revision: %w", err)
	}
	return nil
}

func (r *RevisionRepo) Get(ctx context.Context, id string) (*plan.Revision, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, plan_id, section_kind, content, rationale,
		       revision_number, generation_version, feedback, manual_edit, created_at
		FROM revisions WHERE id = ?`, id)

	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &plan.NotFoundError{Kind: "revision", ID: id}
	}
	return rev, err
}

func (r *RevisionRepo) History(ctx context.Context, planID string, kind plan.SectionKind) ([]*plan.Revision, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, plan_id, section_kind, content, rationale,
		       revision_number, generation_version, feedback, manual_edit, created_at
		FROM revisions
		WHERE plan_id = ? AND section_kind = ?
		ORDER BY generation_version DESC, revision_number DESC`,
		planID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*plan.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func (r *RevisionRepo) MaxRevisionNumber(ctx context.Context, planID string, kind plan.SectionKind, generationVersion int) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(revision_number) FROM revisions
		WHERE plan_id = ? AND section_kind = ? AND generation_version = ?`,
		planID, string(kind), generationVersion).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max revision: %w", err)
	}
	return int(max.Int64), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevision(row rowScanner) (*plan.Revision, error) {
	var (
		rev       plan.Revision
		kind      string
		content   string
		createdAt string
	)
	err := row.Scan(&rev.ID, &rev.PlanID, &kind, &content, &rev.Rationale,
		&rev.RevisionNumber, &rev.GenerationVersion, &rev.Feedback, &rev.ManualEdit, &createdAt)
	if err != nil {
		return nil, err
	}

	rev.Kind = plan.SectionKind(kind)
	rev.Content, err = plan.DecodeContent(rev.Kind, content)
	if err != nil {
		return nil, fmt.Errorf("decode revision %s: %w", rev.ID, err)
	}
	rev.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse revision timestamp: %w", err)
	}
	return &rev, nil
}
