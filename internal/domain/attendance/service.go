package attendance

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// ClockIn processes employee check-in with full validation
	ClockIn(ctx context.Context, req ClockInRequest) (AttendanceResponse, error)

	// ClockOut finalizes today's record: hours, status and overtime
	ClockOut(ctx context.Context, req ClockOutRequest) (AttendanceResponse, error)

	// GetToday returns today's record, or nil when there is none
	GetToday(ctx context.Context, employeeID string) (*AttendanceResponse, error)

	// GetMyAttendance retrieves attendance records for authenticated employee
	GetMyAttendance(ctx context.Context, employeeID string, filter MyAttendanceFilter) (ListAttendanceResponse, error)

	// ConfirmOvertime answers today's overtime prompt
	ConfirmOvertime(ctx context.Context, req ConfirmOvertimeRequest) (OvertimeResponse, error)

	// GetEffectiveSettings returns the settings resolved for the employee
	GetEffectiveSettings(ctx context.Context, employeeID string) (company.Settings, error)
}
