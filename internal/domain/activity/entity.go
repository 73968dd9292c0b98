package activity

import "time"

type Type string

const (
	TypeAttendance Type = "attendance"
	TypeOvertime   Type = "overtime"
)

// Entry is one line of the activity audit sink.
type Entry struct {
	ID         string
	EmployeeID string
	Type       Type
	Action     string
	Details    string
	RelatedID  string
	CreatedAt  time.Time
}
