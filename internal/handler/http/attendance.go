package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	ConfirmOvertime(w http.ResponseWriter, r *http.Request)
	Settings(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.ClockInRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		slog.Error("Failed to decode clock-in request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = employeeIDFromRequest(r)

	// Validate request
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	// Call service
	result, err := h.attendanceService.ClockIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock in successful", result)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.ClockOutRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		slog.Error("Failed to decode clock-out request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = employeeIDFromRequest(r)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ClockOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clock out successful", result)
}

// Today implements AttendanceHandler. Data is null when there is no record yet.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetToday(r.Context(), employeeIDFromRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	q := query(r)
	filter := attendance.MyAttendanceFilter{
		Date:      q.stringPtr("date"),
		StartDate: q.stringPtr("start_date"),
		EndDate:   q.stringPtr("end_date"),
		Status:    q.stringPtr("status"),
		Page:      q.intOr("page", 1),
		Limit:     q.intOr("limit", 20),
		SortBy:    q.values.Get("sort_by"),
		SortOrder: q.values.Get("sort_order"),
	}
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.attendanceService.GetMyAttendance(r.Context(), employeeIDFromRequest(r), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, results.Attendances, &response.Meta{
		Page:       results.Page,
		Limit:      results.Limit,
		TotalItems: results.TotalCount,
		TotalPages: results.TotalPages,
	})
}

// ConfirmOvertime implements AttendanceHandler.
func (h *attendanceHandlerImpl) ConfirmOvertime(w http.ResponseWriter, r *http.Request) {
	req := attendance.ConfirmOvertimeRequest{EmployeeID: employeeIDFromRequest(r)}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ConfirmOvertime(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Overtime confirmed", result)
}

// Settings implements AttendanceHandler. Returns the settings in effect for the caller.
func (h *attendanceHandlerImpl) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.attendanceService.GetEffectiveSettings(r.Context(), employeeIDFromRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, settings)
}
