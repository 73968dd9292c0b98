// Package effect describes best-effort side effects requested by the
// attendance core. The core returns them next to its primary result and a
// Dispatcher executes them; failures are logged by the dispatcher and never
// reach the caller.
package effect

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
)

type Effect interface {
	Kind() string
}

// Activity appends an entry to the activity audit sink.
type Activity struct {
	EmployeeID string
	Type       activity.Type
	Action     string
	Details    string
	RelatedID  string
}

func (Activity) Kind() string { return "activity" }

// Email sends a plain-text email.
type Email struct {
	To      string
	Subject string
	Text    string
}

func (Email) Kind() string { return "email" }

// Push sends an in-app/push notification to a user.
type Push struct {
	CompanyID string
	UserID    string
	Title     string
	Body      string
	EventType notification.Type
	Priority  notification.Priority
	Data      map[string]interface{}
}

func (Push) Kind() string { return "push" }

type Dispatcher interface {
	// Dispatch executes every effect independently. It never fails.
	Dispatch(ctx context.Context, effects []Effect)
}
