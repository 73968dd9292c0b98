package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/effect"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
)

// TickInterval is how often the attendance tick runs. Reminders fire on
// exact minutes, so it must not be coarser than a minute.
const TickInterval = time.Minute

type AttendanceJobs struct {
	tx             database.Transactor
	companyRepo    company.CompanyRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	overtimeRepo   overtime.Repository
	leaveRepo      leave.LeaveRequestRepository
	holidayRepo    holiday.HolidayRepository
	settings       *attendanceService.SettingsResolver
	dispatcher     effect.Dispatcher
	clock          clock.Clock
}

// AttendanceJobsDeps groups the collaborators of the tick loop.
type AttendanceJobsDeps struct {
	Transactor     database.Transactor
	CompanyRepo    company.CompanyRepository
	EmployeeRepo   employee.EmployeeRepository
	AttendanceRepo attendance.AttendanceRepository
	OvertimeRepo   overtime.Repository
	LeaveRepo      leave.LeaveRequestRepository
	HolidayRepo    holiday.HolidayRepository
	Settings       *attendanceService.SettingsResolver
	Dispatcher     effect.Dispatcher
	Clock          clock.Clock
}

func NewAttendanceJobs(d AttendanceJobsDeps) *AttendanceJobs {
	tx := d.Transactor
	if tx == nil {
		tx = database.NoopTransactor{}
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &AttendanceJobs{
		tx:             tx,
		companyRepo:    d.CompanyRepo,
		employeeRepo:   d.EmployeeRepo,
		attendanceRepo: d.AttendanceRepo,
		overtimeRepo:   d.OvertimeRepo,
		leaveRepo:      d.LeaveRepo,
		holidayRepo:    d.HolidayRepo,
		settings:       d.Settings,
		dispatcher:     d.Dispatcher,
		clock:          clk,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	if interval <= 0 || interval > TickInterval {
		interval = TickInterval
	}
	scheduler.AddJob("attendance_tick", interval, func(ctx context.Context) error {
		_, err := j.Tick(ctx)
		return err
	})
}

// TickReport counts what one tick changed or sent.
type TickReport struct {
	Companies       int
	Reminders       int
	OvertimePrompts int
	AutoCheckouts   int
	MarkedAbsent    int
	MarkedOnLeave   int
	Repaired        int
	Failures        int
}

func (r *TickReport) add(o TickReport) {
	r.Reminders += o.Reminders
	r.OvertimePrompts += o.OvertimePrompts
	r.AutoCheckouts += o.AutoCheckouts
	r.MarkedAbsent += o.MarkedAbsent
	r.MarkedOnLeave += o.MarkedOnLeave
	r.Repaired += o.Repaired
	r.Failures += o.Failures
}

// Tick runs every scheduler rule once for every active company. Each write is
// conditional, so a tick that overlaps a clock-out or another tick changes
// nothing twice. Per-record failures are logged and skipped.
func (j *AttendanceJobs) Tick(ctx context.Context) (TickReport, error) {
	now := j.clock.Now()

	companyIDs, err := j.companyRepo.ListActiveIDs(ctx)
	if err != nil {
		return TickReport{}, fmt.Errorf("failed to list active companies: %w", err)
	}

	var report TickReport
	for _, companyID := range companyIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		companyReport, err := j.tickCompany(ctx, now, companyID)
		report.add(companyReport)
		if err != nil {
			report.Failures++
			slog.Error("Cron: Attendance tick failed for company", "company_id", companyID, "error", err)
			continue
		}
		report.Companies++
	}

	if report.changed() {
		slog.Info("Cron: Attendance tick",
			"at", now.UTC().Format(time.RFC3339),
			"reminders", report.Reminders,
			"overtime_prompts", report.OvertimePrompts,
			"auto_checkouts", report.AutoCheckouts,
			"marked_absent", report.MarkedAbsent,
			"marked_on_leave", report.MarkedOnLeave,
			"repaired", report.Repaired,
			"failures", report.Failures)
	}
	return report, nil
}

func (r TickReport) changed() bool {
	return r.Reminders+r.OvertimePrompts+r.AutoCheckouts+r.MarkedAbsent+r.MarkedOnLeave+r.Repaired+r.Failures > 0
}

func (j *AttendanceJobs) tickCompany(ctx context.Context, now time.Time, companyID string) (TickReport, error) {
	var report TickReport

	overrides, err := j.settings.CompanyOverrides(ctx, companyID)
	if err != nil {
		return report, err
	}

	employees, err := j.employeeRepo.GetActiveByCompanyID(ctx, companyID)
	if err != nil {
		return report, fmt.Errorf("failed to get employees: %w", err)
	}

	byID := make(map[string]employee.Employee, len(employees))
	for _, emp := range employees {
		byID[emp.ID] = emp
	}

	// Stale records first so today's passes never see yesterday's open day.
	report.add(j.repairStale(ctx, now, companyID, overrides, byID))

	days := newDayCache(j, companyID)
	for _, emp := range employees {
		settings := j.settings.Merge(overrides, emp)
		date := attendance.DateOf(now, settings.Location())

		day, err := days.get(ctx, date)
		if err != nil {
			report.Failures++
			slog.Error("Cron: Failed to load attendance day", "company_id", companyID, "date", date.Format("2006-01-02"), "error", err)
			continue
		}

		report.add(j.remindPreShift(ctx, now, settings, emp, days))
		report.add(j.tickEmployee(ctx, now, settings, emp, day))
	}
	return report, nil
}

// remindPreShift checks holiday and leave against the shift's own date, which
// is tomorrow for shifts starting just after midnight.
func (j *AttendanceJobs) remindPreShift(ctx context.Context, now time.Time, s company.Settings, emp employee.Employee, days *dayCache) TickReport {
	var report TickReport

	reminder, shiftDate, ok := attendanceService.DuePreShiftReminder(now, s)
	if !ok {
		return report
	}
	day, err := days.get(ctx, shiftDate)
	if err != nil {
		report.Failures++
		slog.Error("Cron: Failed to load shift day", "employee_id", emp.ID, "date", shiftDate.Format("2006-01-02"), "error", err)
		return report
	}
	if day.holiday != nil {
		return report
	}
	var lv *leave.LeaveRequest
	if l, ok := day.leaves[emp.ID]; ok {
		lv = &l
	}
	if reminder.Targets(nil, lv) {
		j.remind(ctx, emp, reminder)
		report.Reminders++
	}
	return report
}

func (j *AttendanceJobs) remind(ctx context.Context, emp employee.Employee, reminder attendanceService.Reminder) {
	j.dispatch(ctx, []effect.Effect{effect.Push{
		CompanyID: emp.CompanyID,
		UserID:    emp.NotificationTarget(),
		Title:     reminder.Title,
		Body:      reminder.Body,
		EventType: reminder.Type,
		Priority:  notification.PriorityNormal,
	}})
}

func (j *AttendanceJobs) tickEmployee(ctx context.Context, now time.Time, s company.Settings, emp employee.Employee, day *companyDay) TickReport {
	var report TickReport

	var rec *attendance.Attendance
	if r, ok := day.records[emp.ID]; ok {
		rec = &r
	}
	var lv *leave.LeaveRequest
	if l, ok := day.leaves[emp.ID]; ok {
		lv = &l
	}
	isHoliday := day.holiday != nil

	for _, reminder := range attendanceService.DueReminders(now, s, isHoliday) {
		if !reminder.Targets(rec, lv) {
			continue
		}
		j.remind(ctx, emp, reminder)
		report.Reminders++
	}

	if rec != nil && rec.IsOpen() {
		log := slog.With("attendance_id", rec.ID, "employee_id", emp.ID)
		open, err := j.overtimeRepo.GetOpenByAttendanceID(ctx, rec.ID)
		if err != nil {
			log.Error("Cron: Failed to get overtime request", "error", err)
			report.Failures++
			return report
		}

		prompted, err := j.promptOvertime(ctx, now, s, emp, *rec, open)
		if err != nil {
			log.Error("Cron: Failed to create overtime prompt", "error", err)
			report.Failures++
		} else if prompted {
			report.OvertimePrompts++
		}

		closed, err := j.autoCheckout(ctx, now, s, emp, *rec, open)
		if err != nil {
			log.Error("Cron: Failed to auto checkout", "error", err)
			report.Failures++
		} else if closed {
			report.AutoCheckouts++
		}
		return report
	}

	status, err := j.markAbsent(ctx, now, s, emp, rec, lv, isHoliday)
	if err != nil {
		slog.Error("Cron: Failed to mark absence", "employee_id", emp.ID, "error", err)
		report.Failures++
		return report
	}
	switch status {
	case attendance.StatusAbsent:
		report.MarkedAbsent++
	case attendance.StatusOnLeave:
		report.MarkedOnLeave++
	}
	return report
}

func (j *AttendanceJobs) promptOvertime(ctx context.Context, now time.Time, s company.Settings, emp employee.Employee, rec attendance.Attendance, open *overtime.Request) (bool, error) {
	req, effects := attendanceService.PlanOvertimePrompt(now, s, emp, rec, open, newID())
	if req == nil {
		return false, nil
	}
	if _, err := j.overtimeRepo.Create(ctx, *req); err != nil {
		if errors.Is(err, overtime.ErrDuplicateRequest) {
			return false, nil
		}
		return false, err
	}
	j.dispatch(ctx, effects)
	return true, nil
}

func (j *AttendanceJobs) autoCheckout(ctx context.Context, now time.Time, s company.Settings, emp employee.Employee, rec attendance.Attendance, open *overtime.Request) (bool, error) {
	updated, effects, due := attendanceService.PlanAutoCheckout(now, s, emp, rec, open)
	if !due {
		return false, nil
	}

	var closed bool
	err := j.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		closed, err = j.attendanceRepo.CloseIfOpen(ctx, updated)
		if err != nil || !closed {
			return err
		}
		if open != nil {
			// The request may have been confirmed since it was read.
			_, err = j.overtimeRepo.Transition(ctx, open.ID,
				[]overtime.Status{overtime.StatusPending, overtime.StatusConfirmed}, overtime.StatusAutoCheckout, nil, now)
		}
		return err
	})
	if err != nil || !closed {
		return false, err
	}
	j.dispatch(ctx, effects)
	return true, nil
}

func (j *AttendanceJobs) markAbsent(ctx context.Context, now time.Time, s company.Settings, emp employee.Employee, existing *attendance.Attendance, lv *leave.LeaveRequest, isHoliday bool) (attendance.Status, error) {
	rec, effects := attendanceService.PlanAbsence(now, s, emp, existing, lv, isHoliday, newID())
	if rec == nil {
		return "", nil
	}
	if _, err := j.attendanceRepo.Create(ctx, *rec); err != nil {
		if errors.Is(err, attendance.ErrDuplicateRecord) {
			return "", nil
		}
		return "", err
	}
	j.dispatch(ctx, effects)
	return rec.Status, nil
}

// repairStale closes records left open from earlier days. The lookup bound is
// tomorrow in UTC so timezones ahead of UTC are covered; PlanRepair decides
// per record against the employee's own timezone.
func (j *AttendanceJobs) repairStale(ctx context.Context, now time.Time, companyID string, overrides *company.Overrides, employees map[string]employee.Employee) TickReport {
	var report TickReport

	stale, err := j.attendanceRepo.ListStaleOpen(ctx, companyID, attendance.DateOf(now, time.UTC).AddDate(0, 0, 1))
	if err != nil {
		slog.Error("Cron: Failed to list stale attendances", "company_id", companyID, "error", err)
		report.Failures++
		return report
	}

	for _, rec := range stale {
		log := slog.With("attendance_id", rec.ID, "employee_id", rec.EmployeeID)

		emp, ok := employees[rec.EmployeeID]
		if !ok {
			emp, err = j.employeeRepo.GetByID(ctx, rec.EmployeeID)
			if err != nil {
				log.Error("Cron: Failed to get employee for stale attendance", "error", err)
				report.Failures++
				continue
			}
		}

		updated, effects, due := attendanceService.PlanRepair(now, j.settings.Merge(overrides, emp), emp, rec)
		if !due {
			continue
		}

		var closed bool
		err := j.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var err error
			closed, err = j.attendanceRepo.CloseIfOpen(ctx, updated)
			if err != nil || !closed {
				return err
			}
			open, err := j.overtimeRepo.GetOpenByAttendanceID(ctx, rec.ID)
			if err != nil || open == nil {
				return err
			}
			_, err = j.overtimeRepo.Transition(ctx, open.ID,
				[]overtime.Status{overtime.StatusPending, overtime.StatusConfirmed}, overtime.StatusAutoCheckout, nil, now)
			return err
		})
		if err != nil {
			log.Error("Cron: Failed to repair stale attendance", "error", err)
			report.Failures++
			continue
		}
		if closed {
			j.dispatch(ctx, effects)
			report.Repaired++
		}
	}
	return report
}

func (j *AttendanceJobs) dispatch(ctx context.Context, effects []effect.Effect) {
	if j.dispatcher == nil || len(effects) == 0 {
		return
	}
	j.dispatcher.Dispatch(ctx, effects)
}

// companyDay holds one company's records, leave and holiday for a calendar
// date. Employees in different timezones can be on different dates.
type companyDay struct {
	records map[string]attendance.Attendance
	leaves  map[string]leave.LeaveRequest
	holiday *holiday.Holiday
}

type dayCache struct {
	jobs      *AttendanceJobs
	companyID string
	days      map[time.Time]*companyDay
}

func newDayCache(j *AttendanceJobs, companyID string) *dayCache {
	return &dayCache{jobs: j, companyID: companyID, days: make(map[time.Time]*companyDay)}
}

func (c *dayCache) get(ctx context.Context, date time.Time) (*companyDay, error) {
	if day, ok := c.days[date]; ok {
		return day, nil
	}

	records, err := c.jobs.attendanceRepo.ListByCompanyAndDate(ctx, c.companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	leaves, err := c.jobs.leaveRepo.ListApprovedForDate(ctx, c.companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave: %w", err)
	}
	hol, err := c.jobs.holidayRepo.GetActiveForDate(ctx, c.companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get holiday: %w", err)
	}

	day := &companyDay{
		records: make(map[string]attendance.Attendance, len(records)),
		leaves:  leaves,
		holiday: hol,
	}
	for _, rec := range records {
		day.records[rec.EmployeeID] = rec
	}
	c.days[date] = day
	return day, nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
