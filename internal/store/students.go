package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/bipkit/internal/plan"
)

// StudentRepo stores student records.
type StudentRepo struct {
	db *sql.DB
}

var _ plan.StudentRepo = (*StudentRepo)(nil)

func (r *StudentRepo) Get(ctx context.Context, id string) (*plan.Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, grade, created_at FROM students WHERE id = ?`, id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &plan.NotFoundError{Kind: "student", ID: id}
	}
	return s, err
}

// GetByName returns nil, nil when no student has the name; callers
// treat that as "create one".
func (r *StudentRepo) GetByName(ctx context.Context, name string) (*plan.Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, grade, created_at FROM students WHERE name = ?`, name)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *StudentRepo) Save(ctx context.Context, s *plan.Student) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, name, grade, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			grade = excluded.grade`,
		s.ID, s.Name, s.Grade, s.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

func (r *StudentRepo) List(ctx context.Context) ([]*plan.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, grade, created_at FROM students ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []*plan.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanStudent(row rowScanner) (*plan.Student, error) {
	var (
		s         plan.Student
		createdAt string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Grade, &createdAt); err != nil {
		return nil, err
	}
	var err error
	s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse student timestamp: %w", err)
	}
	return &s, nil
}
