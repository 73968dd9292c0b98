package notification

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Request asks for a notification to be delivered to one recipient.
type Request struct {
	CompanyID   string
	RecipientID string
	Type        Type
	Priority    Priority
	Title       string
	Message     string
	Data        map[string]any
}

// ListQuery selects one page of a recipient's inbox, newest first.
type ListQuery struct {
	Page       int
	PageSize   int
	UnreadOnly bool
}

// Normalize clamps the paging values into range.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		q.PageSize = DefaultPageSize
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Page is what the repository returns for a ListQuery. Unread counts the
// whole inbox regardless of the query.
type Page struct {
	Items  []*Notification
	Total  int
	Unread int
}

type MarkReadRequest struct {
	IDs []string `json:"notification_ids"`
}

func (r *MarkReadRequest) Validate() error {
	var errs validator.ValidationErrors
	errs.Check(len(r.IDs) > 0, "notification_ids", "at least one notification id is required")
	errs.Check(len(r.IDs) <= MaxPageSize, "notification_ids", "at most 100 notification ids per request")
	return errs.Err()
}

type MarkReadResponse struct {
	Updated int `json:"updated"`
}

// View is the JSON shape of a notification.
type View struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"is_read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type ListResponse struct {
	Notifications []View `json:"notifications"`
	Total         int    `json:"total"`
	UnreadCount   int    `json:"unread_count"`
	Page          int    `json:"page"`
	PageSize      int    `json:"page_size"`
}

// StreamEvent is one message on a recipient's live stream.
type StreamEvent struct {
	Name string
	Data View
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
