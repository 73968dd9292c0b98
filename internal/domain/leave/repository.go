package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	// GetApprovedForDate returns the employee's approved request covering date,
	// or nil when there is none. WFH approvals win over plain leave when both exist.
	GetApprovedForDate(ctx context.Context, employeeID string, date time.Time) (*LeaveRequest, error)

	// ListApprovedForDate returns approved requests covering date, keyed by employee ID.
	ListApprovedForDate(ctx context.Context, companyID string, date time.Time) (map[string]LeaveRequest, error)
}
