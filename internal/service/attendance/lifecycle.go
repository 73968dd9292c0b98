package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/effect"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/utils"
	geofenceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/geofence"
)

// EarlyCheckoutBuffer is the slack before scheduled end under which a
// checkout still counts as on-time.
const EarlyCheckoutBuffer = 60 * time.Second

// ClockInInput is everything a clock-in decision depends on.
type ClockInInput struct {
	Now       time.Time
	NewID     string // ID for a new day record
	Employee  employee.Employee
	Settings  company.Settings
	Leave     *leave.LeaveRequest
	Holiday   *holiday.Holiday
	Existing  *attendance.Attendance
	Point     *geofence.Point
	Locations []geofence.Location
}

type ClockInPlan struct {
	Record attendance.Attendance
	// Reuse is set when Record is an existing day record without a check-in
	// (synthesized absent or on-leave) rather than a new one.
	Reuse   bool
	Effects []effect.Effect
}

// PlanClockIn validates a clock-in and builds the in-progress record. It does
// no I/O; rejections leave nothing to persist.
func PlanClockIn(in ClockInInput) (ClockInPlan, error) {
	s := in.Settings
	loc := s.Location()
	local := in.Now.In(loc)
	date := attendance.DateOf(in.Now, loc)

	if in.Existing != nil && in.Existing.CheckIn != nil {
		return ClockInPlan{}, attendance.ErrAlreadyClockedIn
	}

	if !s.IsWorkingDay(local.Weekday()) {
		return ClockInPlan{}, attendance.ErrNotAWorkingDay
	}

	if in.Holiday != nil && in.Holiday.IsActive {
		return ClockInPlan{}, attendance.ErrHolidayBlocked
	}

	wfh := in.Leave != nil && in.Leave.IsWFH()

	var (
		validated bool
		location  *attendance.Location
	)
	if in.Point != nil {
		location = &attendance.Location{Latitude: in.Point.Latitude, Longitude: in.Point.Longitude}
	}

	if s.Geofence.Enabled && s.Geofence.UseMultipleLocations && !wfh {
		if in.Point == nil {
			if s.Geofence.StrictMode {
				return ClockInPlan{}, attendance.ErrLocationRequired
			}
		} else {
			res := geofenceService.Resolve(*in.Point, in.Employee.ID, in.Employee.DepartmentID, in.Locations)
			if !res.IsWithinAnyGeofence && s.Geofence.StrictMode {
				geoErr := &attendance.OutsideGeofenceError{DistanceMeters: res.DistanceMeters}
				if res.NearestLocation != nil {
					geoErr.NearestLocation = res.NearestLocation.Name
				}
				return ClockInPlan{}, geoErr
			}
			validated = res.IsWithinAnyGeofence
			if res.IsWithinAnyGeofence {
				name := res.NearestLocation.Name
				location.GeofenceName = &name
			}
		}
	}

	checkInStatus := classifyCheckIn(in.Now, s.CheckInTime.On(local, loc), s.LateThresholdMinutes)
	now := in.Now.UTC()

	plan := ClockInPlan{}
	var rec attendance.Attendance
	if in.Existing != nil {
		rec = *in.Existing
		rec.AppendRemark(now, fmt.Sprintf("Clocked in over %s record", rec.Status))
		plan.Reuse = true
	} else {
		rec = attendance.Attendance{
			ID:         in.NewID,
			EmployeeID: in.Employee.ID,
			CompanyID:  in.Employee.CompanyID,
			Date:       date,
		}
	}
	rec.CheckIn = &now
	rec.CheckInStatus = &checkInStatus
	rec.Status = attendance.StatusInProgress
	rec.StatusReason = ""
	rec.WorkFromHome = wfh
	rec.GeofenceValidated = validated
	rec.CheckInLocation = location
	plan.Record = rec

	timeLabel := local.Format("15:04")
	plan.Effects = append(plan.Effects, effect.Activity{
		EmployeeID: in.Employee.ID,
		Type:       activity.TypeAttendance,
		Action:     "clock_in",
		Details:    fmt.Sprintf("Clocked in at %s (%s)%s", timeLabel, checkInStatus, wfhSuffix(wfh)),
		RelatedID:  rec.ID,
	})
	if s.Notifications.ClockInEmail && in.Employee.Email != "" {
		plan.Effects = append(plan.Effects, effect.Email{
			To:      in.Employee.Email,
			Subject: "Clock-in recorded",
			Text: fmt.Sprintf("Hi %s,\n\nYour clock-in at %s on %s was recorded as %s.%s",
				in.Employee.FullName, timeLabel, local.Format("Monday, 2 January 2006"), checkInStatus, locationLine(location)),
		})
	}
	if s.Notifications.ClockInPush {
		plan.Effects = append(plan.Effects, effect.Push{
			CompanyID: in.Employee.CompanyID,
			UserID:    in.Employee.NotificationTarget(),
			Title:     "Clocked in",
			Body:      fmt.Sprintf("You clocked in at %s (%s).", timeLabel, checkInStatus),
			EventType: notification.TypeAttendanceClockIn,
			Priority:  notification.PriorityNormal,
			Data: map[string]interface{}{
				"date":            date.Format("2006-01-02"),
				"check_in_status": string(checkInStatus),
			},
		})
	}

	return plan, nil
}

func classifyCheckIn(now, officeStart time.Time, lateThresholdMinutes int) attendance.CheckInStatus {
	switch {
	case now.Before(officeStart):
		return attendance.CheckInEarly
	case now.After(officeStart.Add(time.Duration(lateThresholdMinutes) * time.Minute)):
		return attendance.CheckInLate
	default:
		return attendance.CheckInOnTime
	}
}

// ClockOutInput is everything a clock-out decision depends on.
type ClockOutInput struct {
	Now       time.Time
	Employee  employee.Employee
	Settings  company.Settings
	Record    *attendance.Attendance
	Overtime  *overtime.Request
	Point     *geofence.Point
	Locations []geofence.Location
}

// OvertimeSettlement closes the open overtime request on clock-out. Hours are
// only set when the employee had confirmed overtime.
type OvertimeSettlement struct {
	RequestID     string
	From          overtime.Status
	OvertimeHours *float64
}

type ClockOutPlan struct {
	Record   attendance.Attendance
	Overtime *OvertimeSettlement
	Effects  []effect.Effect
}

// PlanClockOut validates a clock-out and finalizes the record. Geofence
// resolution is recorded for audit only and never rejects.
func PlanClockOut(in ClockOutInput) (ClockOutPlan, error) {
	if in.Record == nil || in.Record.CheckIn == nil {
		return ClockOutPlan{}, attendance.ErrNotClockedIn
	}
	if in.Record.CheckOut != nil {
		return ClockOutPlan{}, attendance.ErrAlreadyClockedOut
	}

	s := in.Settings
	loc := s.Location()
	rec := *in.Record

	if in.Point != nil {
		location := &attendance.Location{Latitude: in.Point.Latitude, Longitude: in.Point.Longitude}
		if s.Geofence.Enabled && s.Geofence.UseMultipleLocations && !rec.WorkFromHome {
			res := geofenceService.Resolve(*in.Point, in.Employee.ID, in.Employee.DepartmentID, in.Locations)
			if res.IsWithinAnyGeofence {
				name := res.NearestLocation.Name
				location.GeofenceName = &name
			}
		}
		rec.CheckOutLocation = location
	}

	officeEnd := s.CheckOutTime.On(rec.Date, loc)
	status := attendance.CheckOutOnTime
	if in.Now.Before(officeEnd.Add(-EarlyCheckoutBuffer)) {
		status = attendance.CheckOutEarly
	}

	applyCheckout(&rec, in.Now, status, s)

	plan := ClockOutPlan{}
	if in.Overtime != nil && in.Overtime.Status.IsOpen() {
		plan.Overtime = &OvertimeSettlement{RequestID: in.Overtime.ID, From: in.Overtime.Status}
		if in.Overtime.Status == overtime.StatusConfirmed {
			hours := utils.Round2(max(0, in.Now.Sub(in.Overtime.ScheduledCheckOut).Hours()))
			rec.Overtime = &hours
			plan.Overtime.OvertimeHours = &hours
		}
	}
	plan.Record = rec

	local := in.Now.In(loc)
	timeLabel := local.Format("15:04")
	summary := fmt.Sprintf("Worked %.2f hours (%s)", rec.WorkHours, rec.Status)
	if rec.Overtime != nil {
		summary += fmt.Sprintf(", overtime %.2f hours", *rec.Overtime)
	}

	plan.Effects = append(plan.Effects, effect.Activity{
		EmployeeID: in.Employee.ID,
		Type:       activity.TypeAttendance,
		Action:     "clock_out",
		Details:    fmt.Sprintf("Clocked out at %s (%s). %s", timeLabel, status, summary),
		RelatedID:  rec.ID,
	})
	if rec.Overtime != nil {
		plan.Effects = append(plan.Effects, effect.Activity{
			EmployeeID: in.Employee.ID,
			Type:       activity.TypeOvertime,
			Action:     "overtime_recorded",
			Details:    fmt.Sprintf("Overtime of %.2f hours recorded on clock-out", *rec.Overtime),
			RelatedID:  plan.Overtime.RequestID,
		})
	}
	if s.Notifications.ClockOutEmail && in.Employee.Email != "" {
		plan.Effects = append(plan.Effects, effect.Email{
			To:      in.Employee.Email,
			Subject: "Clock-out recorded",
			Text: fmt.Sprintf("Hi %s,\n\nYour clock-out at %s on %s was recorded as %s.\n%s.\nLogged %.2f hours with %.0f break minutes.",
				in.Employee.FullName, timeLabel, local.Format("Monday, 2 January 2006"), status, summary,
				rec.TotalLoggedHours, rec.BreakMinutes),
		})
	}
	if s.Notifications.ClockOutPush {
		plan.Effects = append(plan.Effects, effect.Push{
			CompanyID: in.Employee.CompanyID,
			UserID:    in.Employee.NotificationTarget(),
			Title:     "Clocked out",
			Body:      fmt.Sprintf("You clocked out at %s. %s.", timeLabel, summary),
			EventType: notification.TypeAttendanceClockOut,
			Priority:  notification.PriorityNormal,
			Data: map[string]interface{}{
				"date":       rec.Date.Format("2006-01-02"),
				"status":     string(rec.Status),
				"work_hours": rec.WorkHours,
			},
		})
	}

	return plan, nil
}

func wfhSuffix(wfh bool) string {
	if wfh {
		return ", working from home"
	}
	return ""
}

func locationLine(loc *attendance.Location) string {
	if loc == nil {
		return ""
	}
	if loc.GeofenceName != nil {
		return "\nLocation: " + *loc.GeofenceName
	}
	return fmt.Sprintf("\nLocation: %.5f, %.5f", loc.Latitude, loc.Longitude)
}
