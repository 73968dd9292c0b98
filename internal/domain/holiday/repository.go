package holiday

import (
	"context"
	"time"
)

type HolidayRepository interface {
	// GetActiveForDate returns the active holiday registered on the calendar
	// date, or nil when the day is not a holiday.
	GetActiveForDate(ctx context.Context, companyID string, date time.Time) (*Holiday, error)
}
