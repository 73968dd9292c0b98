package notification

import "context"

// Service is the recipient-facing inbox. Enqueue is asynchronous; delivery
// persists the notification and then pushes it to live subscribers.
type Service interface {
	Enqueue(ctx context.Context, req Request) error
	List(ctx context.Context, recipientID string, q ListQuery) (ListResponse, error)
	MarkRead(ctx context.Context, recipientID string, req MarkReadRequest) (int, error)
	Subscribe(ctx context.Context, recipientID string) (<-chan StreamEvent, func())
	// Stop delivers whatever is queued and stops the workers.
	Stop()
}
