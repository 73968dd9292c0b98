package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
)

type LeaveRequestRepository struct {
	mu       sync.RWMutex
	requests []leave.LeaveRequest
}

func NewLeaveRequestRepository(seed ...leave.LeaveRequest) *LeaveRequestRepository {
	return &LeaveRequestRepository{requests: append([]leave.LeaveRequest(nil), seed...)}
}

func (r *LeaveRequestRepository) Put(req leave.LeaveRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = newID()
	}
	r.requests = append(r.requests, req)
}

func (r *LeaveRequestRepository) GetApprovedForDate(ctx context.Context, employeeID string, date time.Time) (*leave.LeaveRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *leave.LeaveRequest
	for _, req := range r.requests {
		if req.EmployeeID != employeeID || req.Status != leave.StatusApproved || !req.Covers(date) {
			continue
		}
		if found == nil || (req.IsWFH() && !found.IsWFH()) {
			match := req
			found = &match
		}
	}
	return found, nil
}

func (r *LeaveRequestRepository) ListApprovedForDate(ctx context.Context, companyID string, date time.Time) (map[string]leave.LeaveRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]leave.LeaveRequest)
	for _, req := range r.requests {
		if req.CompanyID != companyID || req.Status != leave.StatusApproved || !req.Covers(date) {
			continue
		}
		if existing, ok := out[req.EmployeeID]; ok && existing.IsWFH() {
			continue
		}
		out[req.EmployeeID] = req
	}
	return out, nil
}
