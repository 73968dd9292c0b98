package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/effect"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type AttendanceServiceImpl struct {
	tx             database.Transactor
	attendanceRepo attendance.AttendanceRepository
	overtimeRepo   overtime.Repository
	employeeRepo   employee.EmployeeRepository
	leaveRepo      leave.LeaveRequestRepository
	holidayRepo    holiday.HolidayRepository
	locationRepo   geofence.LocationRepository
	settings       *SettingsResolver
	dispatcher     effect.Dispatcher
	clock          clock.Clock

	// in-flight side effects
	pending sync.WaitGroup
}

// Deps groups the collaborators of the attendance service.
type Deps struct {
	Transactor     database.Transactor
	AttendanceRepo attendance.AttendanceRepository
	OvertimeRepo   overtime.Repository
	EmployeeRepo   employee.EmployeeRepository
	LeaveRepo      leave.LeaveRequestRepository
	HolidayRepo    holiday.HolidayRepository
	LocationRepo   geofence.LocationRepository
	Settings       *SettingsResolver
	Dispatcher     effect.Dispatcher
	Clock          clock.Clock
}

func NewAttendanceService(d Deps) *AttendanceServiceImpl {
	tx := d.Transactor
	if tx == nil {
		tx = database.NoopTransactor{}
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &AttendanceServiceImpl{
		tx:             tx,
		attendanceRepo: d.AttendanceRepo,
		overtimeRepo:   d.OvertimeRepo,
		employeeRepo:   d.EmployeeRepo,
		leaveRepo:      d.LeaveRepo,
		holidayRepo:    d.HolidayRepo,
		locationRepo:   d.LocationRepo,
		settings:       d.Settings,
		dispatcher:     d.Dispatcher,
		clock:          clk,
	}
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, settings, err := s.loadEmployee(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock.Now()
	loc := settings.Location()
	date := attendance.DateOf(now, loc)

	existing, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	approvedLeave, err := s.leaveRepo.GetApprovedForDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get approved leave: %w", err)
	}

	activeHoliday, err := s.holidayRepo.GetActiveForDate(ctx, emp.CompanyID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get holiday: %w", err)
	}

	point := req.Point()
	locations, err := s.locationsFor(ctx, emp, settings, point)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	plan, err := PlanClockIn(ClockInInput{
		Now:       now,
		NewID:     newID(),
		Employee:  emp,
		Settings:  settings,
		Leave:     approvedLeave,
		Holiday:   activeHoliday,
		Existing:  existing,
		Point:     point,
		Locations: locations,
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	saved := plan.Record
	if plan.Reuse {
		ok, err := s.attendanceRepo.StartIfNotCheckedIn(ctx, plan.Record)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to record clock-in: %w", err)
		}
		if !ok {
			return attendance.AttendanceResponse{}, attendance.ErrAlreadyClockedIn
		}
	} else {
		saved, err = s.attendanceRepo.Create(ctx, plan.Record)
		if err != nil {
			if errors.Is(err, attendance.ErrDuplicateRecord) {
				return attendance.AttendanceResponse{}, attendance.ErrAlreadyClockedIn
			}
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to record clock-in: %w", err)
		}
	}

	s.dispatch(ctx, plan.Effects)

	saved.EmployeeName = &emp.FullName
	return mapAttendanceToResponse(saved, loc), nil
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, settings, err := s.loadEmployee(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock.Now()
	loc := settings.Location()
	date := attendance.DateOf(now, loc)

	record, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	var openOvertime *overtime.Request
	if record != nil {
		openOvertime, err = s.overtimeRepo.GetOpenByAttendanceID(ctx, record.ID)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to get overtime request: %w", err)
		}
	}

	point := req.Point()
	locations, err := s.locationsFor(ctx, emp, settings, point)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	plan, err := PlanClockOut(ClockOutInput{
		Now:       now,
		Employee:  emp,
		Settings:  settings,
		Record:    record,
		Overtime:  openOvertime,
		Point:     point,
		Locations: locations,
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		closed, err := s.attendanceRepo.CloseIfOpen(ctx, plan.Record)
		if err != nil {
			return fmt.Errorf("failed to record clock-out: %w", err)
		}
		if !closed {
			return attendance.ErrAlreadyClockedOut
		}

		if plan.Overtime != nil {
			// Losing this transition means the scheduler settled the request first.
			if _, err := s.overtimeRepo.Transition(ctx, plan.Overtime.RequestID,
				[]overtime.Status{plan.Overtime.From}, overtime.StatusManualCheckout,
				plan.Overtime.OvertimeHours, now); err != nil {
				return fmt.Errorf("failed to settle overtime request: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.dispatch(ctx, plan.Effects)

	saved := plan.Record
	saved.EmployeeName = &emp.FullName
	return mapAttendanceToResponse(saved, loc), nil
}

// GetToday implements attendance.AttendanceService. Returns nil when the
// employee has no record today.
func (s *AttendanceServiceImpl) GetToday(ctx context.Context, employeeID string) (*attendance.AttendanceResponse, error) {
	emp, settings, err := s.loadEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	loc := settings.Location()
	record, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, attendance.DateOf(s.clock.Now(), loc))
	if err != nil {
		return nil, fmt.Errorf("failed to get today's attendance: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	record.EmployeeName = &emp.FullName
	resp := mapAttendanceToResponse(*record, loc)
	return &resp, nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, employeeID string, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	emp, settings, err := s.loadEmployee(ctx, employeeID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	attendances, total, err := s.attendanceRepo.GetMyAttendance(ctx, emp.ID, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to get my attendance: %w", err)
	}

	loc := settings.Location()
	responses := make([]attendance.AttendanceResponse, 0, len(attendances))
	for _, att := range attendances {
		responses = append(responses, mapAttendanceToResponse(att, loc))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// ConfirmOvertime implements attendance.AttendanceService. Confirming an
// already confirmed prompt returns it unchanged.
func (s *AttendanceServiceImpl) ConfirmOvertime(ctx context.Context, req attendance.ConfirmOvertimeRequest) (attendance.OvertimeResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.OvertimeResponse{}, err
	}

	emp, settings, err := s.loadEmployee(ctx, req.EmployeeID)
	if err != nil {
		return attendance.OvertimeResponse{}, err
	}

	now := s.clock.Now()
	loc := settings.Location()
	date := attendance.DateOf(now, loc)

	request, err := s.overtimeRepo.GetOpenByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.OvertimeResponse{}, fmt.Errorf("failed to get overtime request: %w", err)
	}
	if request == nil {
		return attendance.OvertimeResponse{}, attendance.ErrNoOvertimePrompt
	}
	if request.Status == overtime.StatusConfirmed {
		return mapOvertimeToResponse(*request, loc), nil
	}

	record, err := s.attendanceRepo.GetByID(ctx, request.AttendanceID)
	if err != nil {
		return attendance.OvertimeResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if !record.IsOpen() {
		return attendance.OvertimeResponse{}, attendance.ErrOvertimeClosed
	}

	ok, err := s.overtimeRepo.Transition(ctx, request.ID,
		[]overtime.Status{overtime.StatusPending}, overtime.StatusConfirmed, nil, now)
	if err != nil {
		return attendance.OvertimeResponse{}, fmt.Errorf("failed to confirm overtime: %w", err)
	}
	if !ok {
		return attendance.OvertimeResponse{}, attendance.ErrOvertimeClosed
	}

	request.Status = overtime.StatusConfirmed
	respondedAt := now.UTC()
	request.RespondedAt = &respondedAt

	s.dispatch(ctx, []effect.Effect{effect.Activity{
		EmployeeID: emp.ID,
		Type:       activity.TypeOvertime,
		Action:     "overtime_confirmed",
		Details:    fmt.Sprintf("Overtime confirmed past scheduled end %s", request.ScheduledCheckOut.In(loc).Format("15:04")),
		RelatedID:  request.ID,
	}})

	return mapOvertimeToResponse(*request, loc), nil
}

// GetEffectiveSettings implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetEffectiveSettings(ctx context.Context, employeeID string) (company.Settings, error) {
	_, settings, err := s.loadEmployee(ctx, employeeID)
	return settings, err
}

func (s *AttendanceServiceImpl) loadEmployee(ctx context.Context, employeeID string) (employee.Employee, company.Settings, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, company.Settings{}, err
		}
		return employee.Employee{}, company.Settings{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive() {
		return employee.Employee{}, company.Settings{}, employee.ErrEmployeeInactive
	}

	settings, err := s.settings.ForEmployee(ctx, emp)
	if err != nil {
		return employee.Employee{}, company.Settings{}, err
	}
	return emp, settings, nil
}

func (s *AttendanceServiceImpl) locationsFor(ctx context.Context, emp employee.Employee, settings company.Settings, point *geofence.Point) ([]geofence.Location, error) {
	if point == nil || !settings.Geofence.Enabled || !settings.Geofence.UseMultipleLocations {
		return nil, nil
	}
	locations, err := s.locationRepo.ListActive(ctx, emp.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list geofence locations: %w", err)
	}
	return locations, nil
}

// dispatch runs effects in the background, detached from request
// cancellation. The state change they describe has already been stored.
func (s *AttendanceServiceImpl) dispatch(ctx context.Context, effects []effect.Effect) {
	if s.dispatcher == nil || len(effects) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.pending.Go(func() {
		s.dispatcher.Dispatch(ctx, effects)
	})
}

// Wait blocks until every dispatched side effect has finished.
func (s *AttendanceServiceImpl) Wait() {
	s.pending.Wait()
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// timePtrToString formats an instant in the company timezone.
func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format(time.RFC3339)
	return &format
}

func mapAttendanceToResponse(att attendance.Attendance, loc *time.Location) attendance.AttendanceResponse {
	var employeeName string
	if att.EmployeeName != nil {
		employeeName = *att.EmployeeName
	}

	var checkInStatus, checkOutStatus *string
	if att.CheckInStatus != nil {
		v := string(*att.CheckInStatus)
		checkInStatus = &v
	}
	if att.CheckOutStatus != nil {
		v := string(*att.CheckOutStatus)
		checkOutStatus = &v
	}

	return attendance.AttendanceResponse{
		ID:                  att.ID,
		EmployeeID:          att.EmployeeID,
		EmployeeName:        employeeName,
		Date:                att.Date.Format("2006-01-02"),
		CheckIn:             timePtrToString(att.CheckIn, loc),
		CheckOut:            timePtrToString(att.CheckOut, loc),
		CheckInStatus:       checkInStatus,
		CheckOutStatus:      checkOutStatus,
		WorkHours:           att.WorkHours,
		TotalLoggedHours:    att.TotalLoggedHours,
		BreakMinutes:        att.BreakMinutes,
		ShrinkagePercentage: att.ShrinkagePercentage,
		Overtime:            att.Overtime,
		Status:              string(att.Status),
		StatusReason:        att.StatusReason,
		WorkFromHome:        att.WorkFromHome,
		GeofenceValidated:   att.GeofenceValidated,
		CheckInLocation:     att.CheckInLocation,
		CheckOutLocation:    att.CheckOutLocation,
		Remarks:             att.Remarks,
	}
}

func mapOvertimeToResponse(req overtime.Request, loc *time.Location) attendance.OvertimeResponse {
	return attendance.OvertimeResponse{
		ID:                req.ID,
		AttendanceID:      req.AttendanceID,
		Date:              req.Date.Format("2006-01-02"),
		ScheduledCheckOut: req.ScheduledCheckOut.In(loc).Format(time.RFC3339),
		PromptSentAt:      req.PromptSentAt.In(loc).Format(time.RFC3339),
		Status:            string(req.Status),
		OvertimeHours:     req.OvertimeHours,
	}
}
