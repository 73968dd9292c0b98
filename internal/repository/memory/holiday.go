package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
)

type HolidayRepository struct {
	mu       sync.RWMutex
	holidays []holiday.Holiday
}

func NewHolidayRepository(seed ...holiday.Holiday) *HolidayRepository {
	return &HolidayRepository{holidays: append([]holiday.Holiday(nil), seed...)}
}

func (r *HolidayRepository) Put(h holiday.Holiday) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holidays = append(r.holidays, h)
}

func (r *HolidayRepository) GetActiveForDate(ctx context.Context, companyID string, date time.Time) (*holiday.Holiday, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := dateKey(date)
	for _, h := range r.holidays {
		if h.CompanyID == companyID && h.IsActive && dateKey(h.Date) == day {
			found := h
			return &found, nil
		}
	}
	return nil, nil
}
