package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/overtime"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var geofenceErr *attendance.OutsideGeofenceError
	if errors.As(err, &geofenceErr) {
		details := map[string]string{}
		if geofenceErr.NearestLocation != "" {
			details["nearest_location"] = geofenceErr.NearestLocation
			details["distance_meters"] = strconv.FormatFloat(geofenceErr.DistanceMeters, 'f', 0, 64)
		}
		Rejected(w, http.StatusForbidden, "OUTSIDE_GEOFENCE", geofenceErr.Error(), details)
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Rejected(w, http.StatusConflict, "ALREADY_CLOCKED_IN", err.Error(), nil)
	case errors.Is(err, attendance.ErrAlreadyClockedOut):
		Rejected(w, http.StatusConflict, "ALREADY_CLOCKED_OUT", err.Error(), nil)
	case errors.Is(err, attendance.ErrNotClockedIn):
		Rejected(w, http.StatusBadRequest, "NOT_CLOCKED_IN", err.Error(), nil)
	case errors.Is(err, attendance.ErrNotAWorkingDay):
		Rejected(w, http.StatusBadRequest, "NOT_A_WORKING_DAY", err.Error(), nil)
	case errors.Is(err, attendance.ErrHolidayBlocked):
		Rejected(w, http.StatusBadRequest, "HOLIDAY", err.Error(), nil)
	case errors.Is(err, attendance.ErrOutsideGeofence):
		Rejected(w, http.StatusForbidden, "OUTSIDE_GEOFENCE", err.Error(), nil)
	case errors.Is(err, attendance.ErrLocationRequired):
		Rejected(w, http.StatusBadRequest, "LOCATION_REQUIRED", err.Error(), nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrNoOvertimePrompt):
		NotFound(w, err.Error())
	case errors.Is(err, attendance.ErrOvertimeClosed):
		Conflict(w, err.Error())
	case errors.Is(err, overtime.ErrRequestNotFound):
		NotFound(w, "Overtime request not found")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is not active")

	// Company domain errors
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
