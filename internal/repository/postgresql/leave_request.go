package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestSelect = `
	SELECT id, employee_id, company_id, leave_type_id, kind, start_date, end_date,
		   status, reason, created_at, updated_at
	FROM leave_requests
`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var lr leave.LeaveRequest
	var kind, status string
	err := row.Scan(
		&lr.ID, &lr.EmployeeID, &lr.CompanyID, &lr.LeaveTypeID, &kind, &lr.StartDate, &lr.EndDate,
		&status, &lr.Reason, &lr.CreatedAt, &lr.UpdatedAt,
	)
	lr.Kind = leave.Kind(kind)
	lr.Status = leave.Status(status)
	return lr, err
}

// GetApprovedForDate implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetApprovedForDate(ctx context.Context, employeeID string, date time.Time) (*leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	// WFH approvals sort first so they win over plain leave on the same day.
	query := leaveRequestSelect + `
		WHERE employee_id = $1 AND status = 'approved'
		  AND start_date <= $2 AND end_date >= $2
		ORDER BY (kind = 'wfh') DESC, created_at
		LIMIT 1
	`

	lr, err := scanLeaveRequest(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get approved leave request: %w", err)
	}
	return &lr, nil
}

// ListApprovedForDate implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListApprovedForDate(ctx context.Context, companyID string, date time.Time) (map[string]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := leaveRequestSelect + `
		WHERE company_id = $1 AND status = 'approved'
		  AND start_date <= $2 AND end_date >= $2
		ORDER BY (kind = 'wfh') DESC, created_at
	`

	rows, err := q.Query(ctx, query, companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved leave requests: %w", err)
	}
	defer rows.Close()

	requests := make(map[string]leave.LeaveRequest)
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		if _, seen := requests[lr.EmployeeID]; !seen {
			requests[lr.EmployeeID] = lr
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}
	return requests, nil
}
