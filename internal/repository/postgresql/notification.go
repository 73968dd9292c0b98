package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type notificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

const insertNotification = `
	INSERT INTO notifications (id, company_id, recipient_id, type, priority, title, message, data, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Insert queues one INSERT per notification on a single pgx.Batch round trip.
func (r *notificationRepository) Insert(ctx context.Context, notifications ...*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.Must(uuid.NewV7()).String()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now().UTC()
		}
		if n.Priority == "" {
			n.Priority = notification.PriorityNormal
		}
		batch.Queue(insertNotification,
			n.ID, n.CompanyID, n.RecipientID, string(n.Type), string(n.Priority),
			n.Title, n.Message, n.Data, n.CreatedAt,
		)
	}

	if err := GetQuerier(ctx, r.db).SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert %d notifications: %w", len(notifications), err)
	}
	return nil
}

func (r *notificationRepository) List(ctx context.Context, recipientID string, q notification.ListQuery) (notification.Page, error) {
	db := GetQuerier(ctx, r.db)

	var page notification.Page
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE NOT $2 OR read_at IS NULL),
		       COUNT(*) FILTER (WHERE read_at IS NULL)
		FROM notifications
		WHERE recipient_id = $1`, recipientID, q.UnreadOnly,
	).Scan(&page.Total, &page.Unread)
	if err != nil {
		return notification.Page{}, fmt.Errorf("failed to count notifications: %w", err)
	}

	rows, err := db.Query(ctx, `
		SELECT id, company_id, recipient_id, type, priority, title, message, data, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR read_at IS NULL)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`, recipientID, q.UnreadOnly, q.PageSize, q.Offset(),
	)
	if err != nil {
		return notification.Page{}, fmt.Errorf("failed to query notifications: %w", err)
	}

	page.Items, err = pgx.CollectRows(rows, scanNotification)
	if err != nil {
		return notification.Page{}, fmt.Errorf("failed to scan notifications: %w", err)
	}
	return page, nil
}

func scanNotification(row pgx.CollectableRow) (*notification.Notification, error) {
	var n notification.Notification
	err := row.Scan(
		&n.ID, &n.CompanyID, &n.RecipientID, &n.Type, &n.Priority,
		&n.Title, &n.Message, &n.Data, &n.ReadAt, &n.CreatedAt,
	)
	return &n, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID string, ids []string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := GetQuerier(ctx, r.db).Exec(ctx, `
		UPDATE notifications
		SET read_at = $3
		WHERE recipient_id = $1 AND id::text = ANY($2) AND read_at IS NULL`,
		recipientID, ids, at,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *notificationRepository) PushEnabled(ctx context.Context, recipientID string, t notification.Type) (bool, error) {
	var enabled bool
	err := GetQuerier(ctx, r.db).QueryRow(ctx, `
		SELECT push_enabled FROM notification_preferences
		WHERE user_id = $1 AND notification_type = $2`, recipientID, string(t),
	).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read notification preference: %w", err)
	}
	return enabled, nil
}
