package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/bipkit/internal/plan"
)

// PlanRepo stores plans as JSON documents with a few queryable
// columns alongside. The document is the source of truth; status and
// timestamps are denormalized for listing.
type PlanRepo struct {
	db *sql.DB
}

var _ plan.PlanRepo = (*PlanRepo)(nil)

func (r *PlanRepo) Get(ctx context.Context, id string) (*plan.Plan, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM plans WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &plan.NotFoundError{Kind: "plan", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}

	var p plan.Plan
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return &p, nil
}

func (r *PlanRepo) Save(ctx context.Context, p *plan.Plan) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plans (id, student_id, status, doc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			doc = excluded.doc,
			updated_at = excluded.updated_at`,
		p.ID, p.StudentID, string(p.Status), string(doc),
		p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) List(ctx context.Context) ([]*plan.Plan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT doc FROM plans ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []*plan.Plan
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		var p plan.Plan
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
