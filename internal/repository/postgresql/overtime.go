package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type overtimeRepository struct {
	db *database.DB
}

func NewOvertimeRepository(db *database.DB) overtime.Repository {
	return &overtimeRepository{db: db}
}

const overtimeColumns = `
	id, employee_id, company_id, attendance_id, date, scheduled_check_out,
	prompt_sent_at, status, overtime_hours, responded_at, created_at, updated_at`

func scanOvertime(row pgx.Row) (overtime.Request, error) {
	var req overtime.Request
	var status string
	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.CompanyID, &req.AttendanceID, &req.Date, &req.ScheduledCheckOut,
		&req.PromptSentAt, &status, &req.OvertimeHours, &req.RespondedAt, &req.CreatedAt, &req.UpdatedAt,
	)
	req.Status = overtime.Status(status)
	return req, err
}

// Create implements overtime.Repository.
func (r *overtimeRepository) Create(ctx context.Context, req overtime.Request) (overtime.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO overtime_requests (
			id, employee_id, company_id, attendance_id, date,
			scheduled_check_out, prompt_sent_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		req.ID,
		req.EmployeeID,
		req.CompanyID,
		req.AttendanceID,
		req.Date,
		req.ScheduledCheckOut,
		req.PromptSentAt,
		string(req.Status),
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "overtime_requests_one_open") {
			return overtime.Request{}, overtime.ErrDuplicateRequest
		}
		return overtime.Request{}, fmt.Errorf("failed to create overtime request: %w", err)
	}
	return req, nil
}

// GetByID implements overtime.Repository.
func (r *overtimeRepository) GetByID(ctx context.Context, id string) (overtime.Request, error) {
	q := GetQuerier(ctx, r.db)

	req, err := scanOvertime(q.QueryRow(ctx, `SELECT `+overtimeColumns+` FROM overtime_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return overtime.Request{}, overtime.ErrRequestNotFound
		}
		return overtime.Request{}, fmt.Errorf("failed to get overtime request: %w", err)
	}
	return req, nil
}

// GetOpenByAttendanceID implements overtime.Repository.
func (r *overtimeRepository) GetOpenByAttendanceID(ctx context.Context, attendanceID string) (*overtime.Request, error) {
	return r.getOpen(ctx, `attendance_id = $1`, attendanceID)
}

// GetOpenByEmployeeAndDate implements overtime.Repository.
func (r *overtimeRepository) GetOpenByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*overtime.Request, error) {
	return r.getOpen(ctx, `employee_id = $1 AND date = $2`, employeeID, date)
}

func (r *overtimeRepository) getOpen(ctx context.Context, where string, args ...interface{}) (*overtime.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s FROM overtime_requests
		WHERE %s AND status IN ('pending', 'overtime-confirmed')
		ORDER BY prompt_sent_at DESC
		LIMIT 1
	`, overtimeColumns, where)

	req, err := scanOvertime(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open overtime request: %w", err)
	}
	return &req, nil
}

// Transition implements overtime.Repository.
func (r *overtimeRepository) Transition(ctx context.Context, id string, from []overtime.Status, to overtime.Status, overtimeHours *float64, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	fromValues := make([]string, len(from))
	for i, s := range from {
		fromValues[i] = string(s)
	}

	query := `
		UPDATE overtime_requests
		SET status = $2, overtime_hours = COALESCE($3, overtime_hours),
			responded_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = ANY($5)
	`

	tag, err := q.Exec(ctx, query, id, string(to), overtimeHours, at.UTC(), fromValues)
	if err != nil {
		return false, fmt.Errorf("failed to transition overtime request: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM overtime_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check overtime request: %w", err)
	}
	if !exists {
		return false, overtime.ErrRequestNotFound
	}
	return false, nil
}
