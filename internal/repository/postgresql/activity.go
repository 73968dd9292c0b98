package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type activityRepository struct {
	db *database.DB
}

func NewActivityRepository(db *database.DB) activity.Repository {
	return &activityRepository{db: db}
}

// Create implements activity.Repository.
func (r *activityRepository) Create(ctx context.Context, entry activity.Entry) error {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		entry.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := `
		INSERT INTO activity_logs (id, employee_id, type, action, details, related_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.Exec(ctx, query,
		entry.ID, entry.EmployeeID, string(entry.Type), entry.Action, entry.Details, entry.RelatedID,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}
