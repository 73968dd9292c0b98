package notification

import "time"

// Type identifies what a notification is about. Preferences are stored per type.
type Type string

const (
	TypeAttendanceClockIn       Type = "attendance_clock_in"
	TypeAttendanceClockOut      Type = "attendance_clock_out"
	TypeShiftReminder           Type = "shift_reminder"
	TypeBreakReminder           Type = "break_reminder"
	TypeShiftEndReminder        Type = "shift_end_reminder"
	TypeOvertimePrompt          Type = "overtime_prompt"
	TypeAttendanceAutoCheckout  Type = "attendance_auto_checkout"
	TypeAttendanceMarkedAbsent  Type = "attendance_marked_absent"
	TypeAttendanceAutoCorrected Type = "attendance_auto_corrected"
)

// Priority decides whether a notification waits for the next batch flush.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is one inbox entry. ReadAt is nil while unread.
type Notification struct {
	ID          string
	CompanyID   string
	RecipientID string
	Type        Type
	Priority    Priority
	Title       string
	Message     string
	Data        map[string]any
	ReadAt      *time.Time
	CreatedAt   time.Time
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

func (n *Notification) View() View {
	return View{
		ID:        n.ID,
		Type:      n.Type,
		Priority:  n.Priority,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		IsRead:    n.IsRead(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
