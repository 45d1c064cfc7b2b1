package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-insight-api/internal/models"
)

// StudentRepository provides read-only access to student identities.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "u.id, u.name, u.student_code, u.email, u.role, u.created_at"

// ListInScope returns every student, optionally restricted to a class roster.
// Ordering is stable so that identical inputs yield identical summaries.
func (r *StudentRepository) ListInScope(ctx context.Context, classID string) ([]models.Student, error) {
	var rows []models.Student
	if classID != "" {
		query := fmt.Sprintf(`SELECT %s FROM users u
JOIN class_enrollments ce ON ce.student_id = u.id
WHERE u.role = 'student' AND ce.class_id = $1
ORDER BY u.name, u.id`, studentColumns)
		if err := r.db.SelectContext(ctx, &rows, query, classID); err != nil {
			return nil, fmt.Errorf("list class students: %w", err)
		}
		return rows, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.role = 'student' ORDER BY u.name, u.id`, studentColumns)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return rows, nil
}

// Get returns one student by id.
func (r *StudentRepository) Get(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.id = $1 AND u.role = 'student'`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get student %s: %w", id, err)
	}
	return &student, nil
}

// FindByNameFragment returns students whose display name contains the
// fragment, case-insensitive, ordered by lowercased name then id. The
// ordering is the documented tie-break: callers take the first match.
func (r *StudentRepository) FindByNameFragment(ctx context.Context, fragment string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u
WHERE u.role = 'student' AND u.name ILIKE '%%' || $1 || '%%'
ORDER BY LOWER(u.name), u.id`, studentColumns)
	var rows []models.Student
	if err := r.db.SelectContext(ctx, &rows, query, fragment); err != nil {
		return nil, fmt.Errorf("find students by name: %w", err)
	}
	return rows, nil
}
