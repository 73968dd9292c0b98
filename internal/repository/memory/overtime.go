package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/overtime"
)

type overtimeRepository struct {
	mu       sync.RWMutex
	requests map[string]overtime.Request
}

func NewOvertimeRepository() overtime.Repository {
	return &overtimeRepository{requests: make(map[string]overtime.Request)}
}

// Create implements overtime.Repository.
func (r *overtimeRepository) Create(ctx context.Context, req overtime.Request) (overtime.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.requests {
		if existing.AttendanceID == req.AttendanceID && existing.Status.IsOpen() {
			return overtime.Request{}, overtime.ErrDuplicateRequest
		}
	}
	if req.ID == "" {
		req.ID = newID()
	}
	now := time.Now().UTC()
	req.CreatedAt, req.UpdatedAt = now, now
	r.requests[req.ID] = req
	return req, nil
}

// GetByID implements overtime.Repository.
func (r *overtimeRepository) GetByID(ctx context.Context, id string) (overtime.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return overtime.Request{}, overtime.ErrRequestNotFound
	}
	return req, nil
}

// GetOpenByAttendanceID implements overtime.Repository.
func (r *overtimeRepository) GetOpenByAttendanceID(ctx context.Context, attendanceID string) (*overtime.Request, error) {
	return r.findOpen(func(req overtime.Request) bool {
		return req.AttendanceID == attendanceID
	}), nil
}

// GetOpenByEmployeeAndDate implements overtime.Repository.
func (r *overtimeRepository) GetOpenByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*overtime.Request, error) {
	day := dateKey(date)
	return r.findOpen(func(req overtime.Request) bool {
		return req.EmployeeID == employeeID && dateKey(req.Date) == day
	}), nil
}

func (r *overtimeRepository) findOpen(match func(overtime.Request) bool) *overtime.Request {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, req := range r.requests {
		if req.Status.IsOpen() && match(req) {
			found := req
			return &found
		}
	}
	return nil
}

// Transition implements overtime.Repository.
func (r *overtimeRepository) Transition(ctx context.Context, id string, from []overtime.Status, to overtime.Status, overtimeHours *float64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return false, overtime.ErrRequestNotFound
	}
	if !slices.Contains(from, req.Status) {
		return false, nil
	}

	req.Status = to
	if overtimeHours != nil {
		hours := *overtimeHours
		req.OvertimeHours = &hours
	}
	respondedAt := at.UTC()
	req.RespondedAt = &respondedAt
	req.UpdatedAt = time.Now().UTC()
	r.requests[id] = req
	return true, nil
}
