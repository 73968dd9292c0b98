package attendance

import (
	"fmt"
	"strings"
	"time"
)

// Status is the primary lifecycle state of a day's record.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusPresent    Status = "present"
	StatusHalfDay    Status = "half-day"
	StatusAbsent     Status = "absent"
	StatusOnLeave    Status = "on-leave"
)

var StatusValues = []string{
	string(StatusInProgress),
	string(StatusPresent),
	string(StatusHalfDay),
	string(StatusAbsent),
	string(StatusOnLeave),
}

// Rank orders the worked-time outcomes: absent < half-day < present.
// Other states rank -1.
func (s Status) Rank() int {
	switch s {
	case StatusAbsent:
		return 0
	case StatusHalfDay:
		return 1
	case StatusPresent:
		return 2
	default:
		return -1
	}
}

type CheckInStatus string

const (
	CheckInEarly  CheckInStatus = "early"
	CheckInOnTime CheckInStatus = "on-time"
	CheckInLate   CheckInStatus = "late"
)

type CheckOutStatus string

const (
	CheckOutEarly         CheckOutStatus = "early"
	CheckOutOnTime        CheckOutStatus = "on-time"
	CheckOutAutoCheckout  CheckOutStatus = "auto-checkout"
	CheckOutAutoCorrected CheckOutStatus = "auto-corrected"
)

// Location is where a clock event happened and the geofence it resolved to.
type Location struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	GeofenceName *string `json:"geofence_name,omitempty"`
}

// Attendance is one employee's record for one calendar day.
type Attendance struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Date       time.Time

	CheckIn        *time.Time
	CheckOut       *time.Time
	CheckInStatus  *CheckInStatus
	CheckOutStatus *CheckOutStatus

	WorkHours           float64
	TotalLoggedHours    float64
	BreakMinutes        float64
	ShrinkagePercentage float64
	Overtime            *float64

	Status       Status
	StatusReason string

	WorkFromHome      bool
	GeofenceValidated bool
	CheckInLocation   *Location
	CheckOutLocation  *Location
	Remarks           string

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	EmployeeName *string
}

// IsOpen reports whether the record is checked in and still awaiting a checkout.
func (a Attendance) IsOpen() bool {
	return a.Status == StatusInProgress && a.CheckIn != nil && a.CheckOut == nil
}

// AppendRemark adds a timestamped line to the audit trail. Existing lines are kept.
func (a *Attendance) AppendRemark(at time.Time, text string) {
	line := fmt.Sprintf("[%s] %s", at.UTC().Format(time.RFC3339), strings.TrimSpace(text))
	if a.Remarks == "" {
		a.Remarks = line
		return
	}
	a.Remarks = a.Remarks + "\n" + line
}

// DateOf returns the calendar date of t in loc, normalised to midnight UTC.
// All record dates are stored in this form.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
