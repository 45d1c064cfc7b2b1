package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lms-insight-api/internal/models"
)

// AttendanceRepository provides read-only access to attendance records. The
// attendance-entry workflow owns the rows; this service never writes them.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = "ar.id, ar.student_id, ar.date, ar.status, ar.class_id, ar.created_at, ar.updated_at"

// ListByDates returns all records for the given dates, optionally scoped to
// one class. The dates drive window aggregation, so one round trip fetches
// the whole grid.
func (r *AttendanceRepository) ListByDates(ctx context.Context, dates []time.Time, classID string) ([]models.AttendanceRecord, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	days := make([]string, len(dates))
	for i, d := range dates {
		days[i] = d.Format("2006-01-02")
	}

	var rows []models.AttendanceRecord
	if classID != "" {
		query := fmt.Sprintf(`SELECT %s FROM attendance_records ar
WHERE ar.date = ANY($1) AND ar.class_id = $2
ORDER BY ar.date, ar.student_id`, attendanceColumns)
		if err := r.db.SelectContext(ctx, &rows, query, pq.Array(days), classID); err != nil {
			return nil, fmt.Errorf("list attendance by dates: %w", err)
		}
		return rows, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM attendance_records ar
WHERE ar.date = ANY($1)
ORDER BY ar.date, ar.student_id`, attendanceColumns)
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(days)); err != nil {
		return nil, fmt.Errorf("list attendance by dates: %w", err)
	}
	return rows, nil
}

// StudentRange returns one student's records between from and to inclusive,
// most recent first. Days with no record are simply not present.
func (r *AttendanceRepository) StudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records ar
WHERE ar.student_id = $1 AND ar.date >= $2 AND ar.date <= $3
ORDER BY ar.date DESC`, attendanceColumns)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return rows, nil
}
