package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Dates are calendar dates as produced by DateOf.
type AttendanceRepository interface {
	// Create inserts a record. Returns ErrDuplicateRecord when the employee
	// already has a record for the date.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID retrieves attendance by ID
	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByEmployeeAndDate returns nil, nil when no record exists
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)

	// StartIfNotCheckedIn writes a clock-in onto an existing record that has
	// no check-in yet (synthesized absent or on-leave day). Returns false when
	// another writer checked in first.
	StartIfNotCheckedIn(ctx context.Context, attendance Attendance) (bool, error)

	// CloseIfOpen writes checkout data only while the stored record is still
	// in-progress with no checkout. Returns false when another writer won.
	CloseIfOpen(ctx context.Context, attendance Attendance) (bool, error)

	// ListOpen returns in-progress records without checkout for a company and date.
	ListOpen(ctx context.Context, companyID string, date time.Time) ([]Attendance, error)

	// ListStaleOpen returns in-progress records with a check-in and no checkout
	// dated strictly before the given date.
	ListStaleOpen(ctx context.Context, companyID string, before time.Time) ([]Attendance, error)

	// ListByCompanyAndDate returns all records of a company for a date.
	ListByCompanyAndDate(ctx context.Context, companyID string, date time.Time) ([]Attendance, error)

	// GetMyAttendance retrieves attendance records for a specific employee
	GetMyAttendance(ctx context.Context, employeeID string, filter MyAttendanceFilter) ([]Attendance, int64, error)
}
