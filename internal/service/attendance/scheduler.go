package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/effect"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/overtime"
)

// Scheduler timing rules, relative to the configured shift.
const (
	PreShiftReminderLead = 15 * time.Minute
	OvertimePromptDelay  = 30 * time.Minute
	AutoCheckoutDelay    = 2 * time.Hour
)

// Reminder is a minute-exact notification the tick loop sends.
type Reminder struct {
	Type  notification.Type
	Title string
	Body  string
	// OpenRecordOnly limits the audience to employees checked in without checkout.
	// Otherwise the audience is everyone not on approved non-WFH leave.
	OpenRecordOnly bool
}

// DuePreShiftReminder reports whether now is the minute to announce an
// upcoming shift, and the calendar date of that shift. A shift starting
// within the lead time after midnight is announced the evening before.
// Holidays are the caller's to check against the returned date.
func DuePreShiftReminder(now time.Time, s company.Settings) (Reminder, time.Time, bool) {
	if !s.Notifications.Reminders {
		return Reminder{}, time.Time{}, false
	}
	loc := s.Location()
	shift := now.In(loc).Add(PreShiftReminderLead)
	if !s.IsWorkingDay(shift.Weekday()) || !sameMinute(shift, s.CheckInTime.On(shift, loc)) {
		return Reminder{}, time.Time{}, false
	}
	return Reminder{
		Type:  notification.TypeShiftReminder,
		Title: "Shift starts soon",
		Body:  fmt.Sprintf("Your shift starts at %s. Don't forget to clock in.", s.CheckInTime),
	}, attendance.DateOf(shift, loc), true
}

// DueReminders returns the in-shift reminders (breaks and shift end) whose
// trigger minute is now, in the settings' timezone. Nothing is due on
// non-working days, holidays, or when reminders are switched off.
func DueReminders(now time.Time, s company.Settings, isHoliday bool) []Reminder {
	if !s.Notifications.Reminders || isHoliday {
		return nil
	}
	loc := s.Location()
	local := now.In(loc)
	if !s.IsWorkingDay(local.Weekday()) {
		return nil
	}

	var due []Reminder

	for _, b := range s.BreakTimings {
		if !b.AppliesOn(local.Weekday()) {
			continue
		}
		if sameMinute(local, b.Start.On(local, loc)) {
			due = append(due, Reminder{
				Type:           notification.TypeBreakReminder,
				Title:          b.Name + " started",
				Body:           fmt.Sprintf("%s runs until %s.", b.Name, b.End),
				OpenRecordOnly: true,
			})
		}
		if sameMinute(local, b.End.On(local, loc)) {
			due = append(due, Reminder{
				Type:           notification.TypeBreakReminder,
				Title:          b.Name + " is over",
				Body:           fmt.Sprintf("%s ended at %s. Time to get back to work.", b.Name, b.End),
				OpenRecordOnly: true,
			})
		}
	}

	if sameMinute(local, s.CheckOutTime.On(local, loc)) {
		due = append(due, Reminder{
			Type:           notification.TypeShiftEndReminder,
			Title:          "Shift ended",
			Body:           fmt.Sprintf("Your shift ended at %s. Remember to clock out.", s.CheckOutTime),
			OpenRecordOnly: true,
		})
	}

	return due
}

// Targets reports whether the reminder applies to an employee given today's
// record and approved leave.
func (r Reminder) Targets(rec *attendance.Attendance, lv *leave.LeaveRequest) bool {
	if r.OpenRecordOnly {
		return rec != nil && rec.IsOpen()
	}
	return lv == nil || lv.IsWFH()
}

func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

// ScheduledEnd is the shift end on the record's own calendar date.
func ScheduledEnd(rec attendance.Attendance, s company.Settings) time.Time {
	return s.CheckOutTime.On(rec.Date, s.Location())
}

// PlanOvertimePrompt creates the pending overtime request for an employee
// still checked in 30 minutes after shift end. It returns nil while the
// record is not eligible or a request is already open. The window closes at
// the auto-checkout deadline.
func PlanOvertimePrompt(now time.Time, s company.Settings, emp employee.Employee, rec attendance.Attendance, open *overtime.Request, newID string) (*overtime.Request, []effect.Effect) {
	if !rec.IsOpen() || open != nil {
		return nil, nil
	}
	end := ScheduledEnd(rec, s)
	if now.Before(end.Add(OvertimePromptDelay)) || !now.Before(end.Add(AutoCheckoutDelay)) {
		return nil, nil
	}

	req := overtime.Request{
		ID:                newID,
		EmployeeID:        rec.EmployeeID,
		CompanyID:         rec.CompanyID,
		AttendanceID:      rec.ID,
		Date:              rec.Date,
		ScheduledCheckOut: end.UTC(),
		PromptSentAt:      now.UTC(),
		Status:            overtime.StatusPending,
	}

	deadline := end.Add(AutoCheckoutDelay).In(s.Location()).Format("15:04")
	effects := []effect.Effect{
		effect.Push{
			CompanyID: rec.CompanyID,
			UserID:    emp.NotificationTarget(),
			Title:     "Are you working overtime?",
			Body: fmt.Sprintf("Your shift ended at %s and you are still clocked in. Confirm overtime or you will be checked out automatically at %s.",
				s.CheckOutTime, deadline),
			EventType: notification.TypeOvertimePrompt,
			Priority:  notification.PriorityHigh,
			Data: map[string]interface{}{
				"overtime_request_id": req.ID,
				"attendance_id":       rec.ID,
				"scheduled_check_out": req.ScheduledCheckOut.Format(time.RFC3339),
			},
		},
		effect.Activity{
			EmployeeID: rec.EmployeeID,
			Type:       activity.TypeOvertime,
			Action:     "overtime_prompt_sent",
			Details:    fmt.Sprintf("Overtime confirmation requested, scheduled end %s", s.CheckOutTime),
			RelatedID:  req.ID,
		},
	}
	return &req, effects
}

// PlanAutoCheckout force-closes a record still open two hours after its
// scheduled end. The checkout is the scheduled end, never now, so unclaimed
// time is not counted. Records with confirmed overtime are left open.
func PlanAutoCheckout(now time.Time, s company.Settings, emp employee.Employee, rec attendance.Attendance, ot *overtime.Request) (attendance.Attendance, []effect.Effect, bool) {
	if !rec.IsOpen() {
		return rec, nil, false
	}
	if ot != nil && ot.Status == overtime.StatusConfirmed {
		return rec, nil, false
	}
	end := ScheduledEnd(rec, s)
	if now.Before(end.Add(AutoCheckoutDelay)) {
		return rec, nil, false
	}

	at := laterOf(*rec.CheckIn, end)
	applyCheckout(&rec, at, attendance.CheckOutAutoCheckout, s)
	endLabel := at.In(s.Location()).Format("15:04")
	rec.AppendRemark(now, fmt.Sprintf("Auto checkout at scheduled end %s, no checkout within %s", endLabel, AutoCheckoutDelay))

	effects := []effect.Effect{
		effect.Activity{
			EmployeeID: rec.EmployeeID,
			Type:       activity.TypeAttendance,
			Action:     "auto_checkout",
			Details:    fmt.Sprintf("Automatically checked out at %s. Worked %.2f hours (%s)", endLabel, rec.WorkHours, rec.Status),
			RelatedID:  rec.ID,
		},
		effect.Push{
			CompanyID: rec.CompanyID,
			UserID:    emp.NotificationTarget(),
			Title:     "Automatically checked out",
			Body: fmt.Sprintf("You were checked out at your scheduled end %s. Time after that is not counted unless you file a correction.",
				endLabel),
			EventType: notification.TypeAttendanceAutoCheckout,
			Priority:  notification.PriorityNormal,
			Data: map[string]interface{}{
				"attendance_id": rec.ID,
				"date":          rec.Date.Format("2006-01-02"),
				"status":        string(rec.Status),
			},
		},
	}
	return rec, effects, true
}

// PlanAbsence synthesizes the day record of an employee who never clocked in
// once the absent threshold has passed: on-leave when an approved non-WFH
// leave covers the day, absent otherwise. Returns nil when nothing is due.
func PlanAbsence(now time.Time, s company.Settings, emp employee.Employee, existing *attendance.Attendance, lv *leave.LeaveRequest, isHoliday bool, newID string) (*attendance.Attendance, []effect.Effect) {
	if existing != nil || isHoliday {
		return nil, nil
	}
	loc := s.Location()
	local := now.In(loc)
	if !s.IsWorkingDay(local.Weekday()) {
		return nil, nil
	}
	cutoff := s.CheckInTime.On(local, loc).Add(time.Duration(s.AbsentThresholdMinutes) * time.Minute)
	if now.Before(cutoff) {
		return nil, nil
	}
	if lv != nil && lv.IsWFH() {
		return nil, nil
	}

	rec := attendance.Attendance{
		ID:         newID,
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
		Date:       attendance.DateOf(now, loc),
	}

	if lv != nil {
		rec.Status = attendance.StatusOnLeave
		rec.StatusReason = "Approved leave"
		rec.AppendRemark(now, "Marked on leave from approved leave request "+lv.ID)
		return &rec, []effect.Effect{
			effect.Activity{
				EmployeeID: emp.ID,
				Type:       activity.TypeAttendance,
				Action:     "marked_on_leave",
				Details:    "Attendance recorded as on leave",
				RelatedID:  lv.ID,
			},
		}
	}

	cutoffLabel := cutoff.In(loc).Format("15:04")
	rec.Status = attendance.StatusAbsent
	rec.StatusReason = fmt.Sprintf("No clock-in by %s (%d minutes after shift start)", cutoffLabel, s.AbsentThresholdMinutes)
	rec.AppendRemark(now, "Marked absent: "+rec.StatusReason)

	return &rec, []effect.Effect{
		effect.Activity{
			EmployeeID: emp.ID,
			Type:       activity.TypeAttendance,
			Action:     "marked_absent",
			Details:    rec.StatusReason,
			RelatedID:  rec.ID,
		},
		effect.Push{
			CompanyID: emp.CompanyID,
			UserID:    emp.NotificationTarget(),
			Title:     "Marked absent",
			Body:      fmt.Sprintf("You have not clocked in by %s and were marked absent for today.", cutoffLabel),
			EventType: notification.TypeAttendanceMarkedAbsent,
			Priority:  notification.PriorityHigh,
			Data: map[string]interface{}{
				"attendance_id": rec.ID,
				"date":          rec.Date.Format("2006-01-02"),
			},
		},
	}
}

// PlanRepair closes a record left in-progress from a previous day, at the
// later of its check-in and that day's scheduled end.
func PlanRepair(now time.Time, s company.Settings, emp employee.Employee, rec attendance.Attendance) (attendance.Attendance, []effect.Effect, bool) {
	if !rec.IsOpen() {
		return rec, nil, false
	}
	today := attendance.DateOf(now, s.Location())
	if !rec.Date.Before(today) {
		return rec, nil, false
	}

	at := laterOf(*rec.CheckIn, ScheduledEnd(rec, s))
	applyCheckout(&rec, at, attendance.CheckOutAutoCorrected, s)
	atLabel := at.In(s.Location()).Format("2006-01-02 15:04")
	rec.AppendRemark(now, fmt.Sprintf("Auto-corrected: record was still open after its day, checkout set to %s", atLabel))

	day := rec.Date.Format("Monday, 2 January 2006")
	effects := []effect.Effect{
		effect.Activity{
			EmployeeID: rec.EmployeeID,
			Type:       activity.TypeAttendance,
			Action:     "auto_corrected",
			Details:    fmt.Sprintf("Stale record closed at %s. Worked %.2f hours (%s)", atLabel, rec.WorkHours, rec.Status),
			RelatedID:  rec.ID,
		},
		effect.Push{
			CompanyID: rec.CompanyID,
			UserID:    emp.NotificationTarget(),
			Title:     "Attendance corrected",
			Body: fmt.Sprintf("Your attendance for %s was still open and has been closed at %s. Overtime is not counted unless you file a correction.",
				day, atLabel),
			EventType: notification.TypeAttendanceAutoCorrected,
			Priority:  notification.PriorityNormal,
			Data: map[string]interface{}{
				"attendance_id": rec.ID,
				"date":          rec.Date.Format("2006-01-02"),
				"status":        string(rec.Status),
			},
		},
	}
	return rec, effects, true
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
