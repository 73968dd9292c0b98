package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
)

type preferenceKey struct {
	recipientID string
	notifType   notification.Type
}

type NotificationRepository struct {
	mu    sync.RWMutex
	inbox map[string][]notification.Notification
	muted map[preferenceKey]bool
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		inbox: make(map[string][]notification.Notification),
		muted: make(map[preferenceKey]bool),
	}
}

// SetPushEnabled stores a recipient's preference for one type.
func (r *NotificationRepository) SetPushEnabled(recipientID string, t notification.Type, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted[preferenceKey{recipientID, t}] = !enabled
}

func (r *NotificationRepository) Insert(ctx context.Context, notifications ...*notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range notifications {
		if n.ID == "" {
			n.ID = newID()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now().UTC()
		}
		r.inbox[n.RecipientID] = append(r.inbox[n.RecipientID], *n)
	}
	return nil
}

func (r *NotificationRepository) List(ctx context.Context, recipientID string, q notification.ListQuery) (notification.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var page notification.Page
	var matches []*notification.Notification
	for _, n := range r.inbox[recipientID] {
		if !n.IsRead() {
			page.Unread++
		} else if q.UnreadOnly {
			continue
		}
		matches = append(matches, &n)
	}
	slices.SortStableFunc(matches, func(a, b *notification.Notification) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	page.Total = len(matches)
	start := min(q.Offset(), page.Total)
	end := min(start+q.PageSize, page.Total)
	page.Items = matches[start:end]
	return page, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID string, ids []string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	inbox := r.inbox[recipientID]
	for i := range inbox {
		if inbox[i].IsRead() || !slices.Contains(ids, inbox[i].ID) {
			continue
		}
		readAt := at
		inbox[i].ReadAt = &readAt
		updated++
	}
	return updated, nil
}

func (r *NotificationRepository) PushEnabled(ctx context.Context, recipientID string, t notification.Type) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.muted[preferenceKey{recipientID, t}], nil
}
