package effect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/effect"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/email"
)

type dispatcher struct {
	activityRepo    activity.Repository
	emailService    email.EmailService
	notificationSvc notification.Service
}

// NewDispatcher executes effects against the activity log, email and the
// notification queue. Any of them may be nil, in which case those effects
// are dropped.
func NewDispatcher(activityRepo activity.Repository, emailService email.EmailService, notificationSvc notification.Service) effect.Dispatcher {
	return &dispatcher{
		activityRepo:    activityRepo,
		emailService:    emailService,
		notificationSvc: notificationSvc,
	}
}

// Dispatch implements effect.Dispatcher. Each effect runs independently and a
// failure is logged, never returned.
func (d *dispatcher) Dispatch(ctx context.Context, effects []effect.Effect) {
	for _, e := range effects {
		if err := d.run(ctx, e); err != nil {
			slog.Warn("Side effect failed", "kind", e.Kind(), "error", err)
		}
	}
}

func (d *dispatcher) run(ctx context.Context, e effect.Effect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch e := e.(type) {
	case effect.Activity:
		if d.activityRepo == nil {
			return nil
		}
		return d.activityRepo.Create(ctx, activity.Entry{
			EmployeeID: e.EmployeeID,
			Type:       e.Type,
			Action:     e.Action,
			Details:    e.Details,
			RelatedID:  e.RelatedID,
		})
	case effect.Email:
		if d.emailService == nil {
			return nil
		}
		return d.emailService.SendText(ctx, e.To, e.Subject, e.Text)
	case effect.Push:
		if d.notificationSvc == nil {
			return nil
		}
		return d.notificationSvc.Enqueue(ctx, notification.Request{
			CompanyID:   e.CompanyID,
			RecipientID: e.UserID,
			Type:        e.EventType,
			Priority:    e.Priority,
			Title:       e.Title,
			Message:     e.Body,
			Data:        e.Data,
		})
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind())
	}
}
