package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
)

type Employee struct {
	ID               string
	UserID           *string
	CompanyID        string
	DepartmentID     string
	EmployeeCode     string
	FullName         string
	Email            string
	EmploymentStatus EmploymentStatus

	// AttendanceOverrides is the employee layer of attendance settings
	// (company-specific working hours, geofence and break config).
	AttendanceOverrides *company.Overrides

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsActive reports whether the employee takes part in attendance tracking.
func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive && e.DeletedAt == nil
}

// NotificationTarget returns the user account that receives pushes, falling
// back to the employee ID for employees without a linked account.
func (e Employee) NotificationTarget() string {
	if e.UserID != nil && *e.UserID != "" {
		return *e.UserID
	}
	return e.ID
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)
