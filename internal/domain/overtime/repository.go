package overtime

import (
	"context"
	"time"
)

type Repository interface {
	// Create inserts a pending request. Returns ErrDuplicateRequest when the
	// attendance record already has an open request.
	Create(ctx context.Context, req Request) (Request, error)

	GetByID(ctx context.Context, id string) (Request, error)

	// GetOpenByAttendanceID returns the pending or confirmed request, or nil.
	GetOpenByAttendanceID(ctx context.Context, attendanceID string) (*Request, error)

	// GetOpenByEmployeeAndDate returns the pending or confirmed request, or nil.
	GetOpenByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Request, error)

	// Transition moves a request to the target status only if its current
	// status is one of from. Returns false when the precondition failed.
	Transition(ctx context.Context, id string, from []Status, to Status, overtimeHours *float64, at time.Time) (bool, error)
}
