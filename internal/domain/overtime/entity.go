package overtime

import "time"

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "overtime-confirmed"
	StatusManualCheckout Status = "manual-checkout"
	StatusAutoCheckout   Status = "auto-checkout"
)

// IsOpen reports whether the request still awaits a checkout.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Request is the overtime confirmation prompt sent once an employee is still
// clocked in 30 minutes after their scheduled end.
type Request struct {
	ID                string
	EmployeeID        string
	CompanyID         string
	AttendanceID      string
	Date              time.Time
	ScheduledCheckOut time.Time
	PromptSentAt      time.Time
	Status            Status
	OvertimeHours     *float64
	RespondedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
