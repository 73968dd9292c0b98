package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

type attendanceRepository struct {
	mu      sync.RWMutex
	records map[string]attendance.Attendance
	byDay   map[string]string // employeeID|date -> id
}

func NewAttendanceRepository() attendance.AttendanceRepository {
	return &attendanceRepository{
		records: make(map[string]attendance.Attendance),
		byDay:   make(map[string]string),
	}
}

func dayKey(employeeID string, date time.Time) string {
	return employeeID + "|" + dateKey(date)
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dayKey(att.EmployeeID, att.Date)
	if _, exists := r.byDay[key]; exists {
		return attendance.Attendance{}, attendance.ErrDuplicateRecord
	}
	if att.ID == "" {
		att.ID = newID()
	}
	now := time.Now().UTC()
	att.CreatedAt, att.UpdatedAt = now, now
	att.EmployeeName = nil

	r.records[att.ID] = att
	r.byDay[key] = att.ID
	return att, nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	att, ok := r.records[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byDay[dayKey(employeeID, date)]
	if !ok {
		return nil, nil
	}
	att := r.records[id]
	return &att, nil
}

// StartIfNotCheckedIn implements attendance.AttendanceRepository.
func (r *attendanceRepository) StartIfNotCheckedIn(ctx context.Context, att attendance.Attendance) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[att.ID]
	if !ok {
		return false, attendance.ErrAttendanceNotFound
	}
	if stored.CheckIn != nil {
		return false, nil
	}
	r.replace(stored, att)
	return true, nil
}

// CloseIfOpen implements attendance.AttendanceRepository.
func (r *attendanceRepository) CloseIfOpen(ctx context.Context, att attendance.Attendance) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[att.ID]
	if !ok {
		return false, attendance.ErrAttendanceNotFound
	}
	if stored.Status != attendance.StatusInProgress || stored.CheckOut != nil {
		return false, nil
	}
	r.replace(stored, att)
	return true, nil
}

func (r *attendanceRepository) replace(stored, att attendance.Attendance) {
	att.EmployeeID = stored.EmployeeID
	att.CompanyID = stored.CompanyID
	att.Date = stored.Date
	att.CreatedAt = stored.CreatedAt
	att.UpdatedAt = time.Now().UTC()
	att.EmployeeName = nil
	r.records[att.ID] = att
}

// ListOpen implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListOpen(ctx context.Context, companyID string, date time.Time) ([]attendance.Attendance, error) {
	day := dateKey(date)
	return r.list(func(a attendance.Attendance) bool {
		return a.CompanyID == companyID && a.IsOpen() && dateKey(a.Date) == day
	}), nil
}

// ListStaleOpen implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListStaleOpen(ctx context.Context, companyID string, before time.Time) ([]attendance.Attendance, error) {
	day := dateKey(before)
	return r.list(func(a attendance.Attendance) bool {
		return a.CompanyID == companyID && a.IsOpen() && dateKey(a.Date) < day
	}), nil
}

// ListByCompanyAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByCompanyAndDate(ctx context.Context, companyID string, date time.Time) ([]attendance.Attendance, error) {
	day := dateKey(date)
	return r.list(func(a attendance.Attendance) bool {
		return a.CompanyID == companyID && dateKey(a.Date) == day
	}), nil
}

// GetMyAttendance implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetMyAttendance(ctx context.Context, employeeID string, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, int64, error) {
	matches := r.list(func(a attendance.Attendance) bool {
		if a.EmployeeID != employeeID {
			return false
		}
		day := dateKey(a.Date)
		if filter.Date != nil && *filter.Date != "" && day != *filter.Date {
			return false
		}
		if filter.StartDate != nil && *filter.StartDate != "" && day < *filter.StartDate {
			return false
		}
		if filter.EndDate != nil && *filter.EndDate != "" && day > *filter.EndDate {
			return false
		}
		if filter.Status != nil && *filter.Status != "" && string(a.Status) != *filter.Status {
			return false
		}
		return true
	})

	asc := strings.ToLower(filter.SortOrder) == "asc"
	sort.SliceStable(matches, func(i, j int) bool {
		less := compareAttendance(matches[i], matches[j], filter.SortBy)
		if asc {
			return less < 0
		}
		return less > 0
	})

	total := int64(len(matches))
	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := max(filter.Page, 1)
	start := min((page-1)*limit, len(matches))
	end := min(start+limit, len(matches))
	return matches[start:end], total, nil
}

func compareAttendance(a, b attendance.Attendance, sortBy string) int {
	switch sortBy {
	case "check_in":
		return compareTimePtr(a.CheckIn, b.CheckIn)
	case "check_out":
		return compareTimePtr(a.CheckOut, b.CheckOut)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	default:
		return a.Date.Compare(b.Date)
	}
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

func (r *attendanceRepository) list(keep func(attendance.Attendance) bool) []attendance.Attendance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []attendance.Attendance
	for _, a := range r.records {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}
