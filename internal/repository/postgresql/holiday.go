package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type holidayRepository struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) holiday.HolidayRepository {
	return &holidayRepository{db: db}
}

// GetActiveForDate implements holiday.HolidayRepository.
func (r *holidayRepository) GetActiveForDate(ctx context.Context, companyID string, date time.Time) (*holiday.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, date, name, is_active, created_at
		FROM holidays
		WHERE company_id = $1 AND date = $2 AND is_active
		LIMIT 1
	`

	var h holiday.Holiday
	err := q.QueryRow(ctx, query, companyID, date).Scan(&h.ID, &h.CompanyID, &h.Date, &h.Name, &h.IsActive, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get holiday: %w", err)
	}
	return &h, nil
}
