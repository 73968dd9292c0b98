package attendance

import (
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type ClockInRequest struct {
	EmployeeID string   `json:"-"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

func (r *ClockInRequest) Validate() error {
	return validateClockRequest(r.EmployeeID, r.Latitude, r.Longitude)
}

// Point returns the submitted coordinate, or nil when none was sent.
func (r *ClockInRequest) Point() *geofence.Point {
	return toPoint(r.Latitude, r.Longitude)
}

type ClockOutRequest struct {
	EmployeeID string   `json:"-"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

func (r *ClockOutRequest) Validate() error {
	return validateClockRequest(r.EmployeeID, r.Latitude, r.Longitude)
}

func (r *ClockOutRequest) Point() *geofence.Point {
	return toPoint(r.Latitude, r.Longitude)
}

func toPoint(lat, lng *float64) *geofence.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &geofence.Point{Latitude: *lat, Longitude: *lng}
}

func validateClockRequest(employeeID string, lat, lng *float64) error {
	var errs validator.ValidationErrors

	errs.Check(!validator.IsEmpty(employeeID), "employee_id", "employee_id is required")
	errs.Check((lat == nil) == (lng == nil), "location", "latitude and longitude must be sent together")
	errs.Check(lat == nil || validator.IsValidLatitude(*lat), "latitude", "latitude must be between -90 and 90")
	errs.Check(lng == nil || validator.IsValidLongitude(*lng), "longitude", "longitude must be between -180 and 180")

	return errs.Err()
}

type AttendanceResponse struct {
	ID                  string    `json:"id"`
	EmployeeID          string    `json:"employee_id"`
	EmployeeName        string    `json:"employee_name,omitempty"`
	Date                string    `json:"date"`
	CheckIn             *string   `json:"check_in,omitempty"`
	CheckOut            *string   `json:"check_out,omitempty"`
	CheckInStatus       *string   `json:"check_in_status,omitempty"`
	CheckOutStatus      *string   `json:"check_out_status,omitempty"`
	WorkHours           float64   `json:"work_hours"`
	TotalLoggedHours    float64   `json:"total_logged_hours"`
	BreakMinutes        float64   `json:"break_minutes"`
	ShrinkagePercentage float64   `json:"shrinkage_percentage"`
	Overtime            *float64  `json:"overtime,omitempty"`
	Status              string    `json:"status"`
	StatusReason        string    `json:"status_reason,omitempty"`
	WorkFromHome        bool      `json:"work_from_home"`
	GeofenceValidated   bool      `json:"geofence_validated"`
	CheckInLocation     *Location `json:"check_in_location,omitempty"`
	CheckOutLocation    *Location `json:"check_out_location,omitempty"`
	Remarks             string    `json:"remarks,omitempty"`
}

type MyAttendanceFilter struct {
	// Search & Filter
	Date      *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, check_in, check_out, status
	SortOrder string `json:"sort_order"` // asc, desc
}

var (
	attendanceSortFields = []string{"date", "check_in", "check_out", "status"}
	sortOrders           = []string{"asc", "desc"}
)

// Validate checks the filter and fills in paging and sort defaults.
func (f *MyAttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	errs.Check(f.Page >= 0, "page", "page must be a positive number")
	errs.Check(f.Limit >= 0, "limit", "limit must be a positive number")
	errs.Check(f.Limit <= 100, "limit", "limit must not exceed 100")
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}

	if f.Status != nil {
		errs.Check(validator.IsInSlice(*f.Status, StatusValues), "status",
			"status must be one of: "+strings.Join(StatusValues, ", "))
	}

	dates := []struct {
		field string
		value *string
	}{{"date", f.Date}, {"start_date", f.StartDate}, {"end_date", f.EndDate}}
	for _, d := range dates {
		if d.value == nil || *d.value == "" {
			continue
		}
		_, ok := validator.IsValidDate(*d.value)
		errs.Check(ok, d.field, d.field+" must be in YYYY-MM-DD format")
	}

	if f.SortBy == "" {
		f.SortBy = "date"
	}
	errs.Check(validator.IsInSlice(f.SortBy, attendanceSortFields), "sort_by",
		"sort_by must be one of: "+strings.Join(attendanceSortFields, ", "))

	if f.SortOrder == "" {
		f.SortOrder = "desc"
	}
	f.SortOrder = strings.ToLower(f.SortOrder)
	errs.Check(validator.IsInSlice(f.SortOrder, sortOrders), "sort_order", "sort_order must be one of: asc, desc")

	return errs.Err()
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

type ConfirmOvertimeRequest struct {
	EmployeeID string `json:"-"`
}

func (r *ConfirmOvertimeRequest) Validate() error {
	var errs validator.ValidationErrors
	errs.Check(!validator.IsEmpty(r.EmployeeID), "employee_id", "employee_id is required")
	return errs.Err()
}

type OvertimeResponse struct {
	ID                string   `json:"id"`
	AttendanceID      string   `json:"attendance_id"`
	Date              string   `json:"date"`
	ScheduledCheckOut string   `json:"scheduled_check_out"`
	PromptSentAt      string   `json:"prompt_sent_at"`
	Status            string   `json:"status"`
	OvertimeHours     *float64 `json:"overtime_hours,omitempty"`
}
