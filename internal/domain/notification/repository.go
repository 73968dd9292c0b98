package notification

import (
	"context"
	"time"
)

type Repository interface {
	// Insert stores notifications, assigning IDs to those without one.
	Insert(ctx context.Context, notifications ...*Notification) error
	List(ctx context.Context, recipientID string, q ListQuery) (Page, error)
	// MarkRead sets ReadAt on the recipient's unread notifications among ids
	// and returns how many changed.
	MarkRead(ctx context.Context, recipientID string, ids []string, at time.Time) (int, error)
	// PushEnabled reports the recipient's preference for t. Recipients without
	// a stored preference receive every type.
	PushEnabled(ctx context.Context, recipientID string, t Type) (bool, error)
}
