package leave

import "time"

type Kind string

const (
	KindLeave Kind = "leave"
	KindWFH   Kind = "wfh"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// LeaveRequest is consumed, not owned, by attendance. StartDate and EndDate
// are calendar dates and the range is inclusive.
type LeaveRequest struct {
	ID          string
	EmployeeID  string
	CompanyID   string
	LeaveTypeID string
	Kind        Kind
	StartDate   time.Time
	EndDate     time.Time
	Status      Status
	Reason      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsWFH reports whether the request is a work-from-home approval rather than time off.
func (l LeaveRequest) IsWFH() bool {
	return l.Kind == KindWFH
}

// Covers reports whether the calendar date falls inside the inclusive range.
func (l LeaveRequest) Covers(date time.Time) bool {
	d := dateKey(date)
	return !d.Before(dateKey(l.StartDate)) && !d.After(dateKey(l.EndDate))
}

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
