package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
)

const streamEventName = "notification"

// Config tunes the delivery workers. Zero values take the defaults.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	WorkerCount   int
	QueueSize     int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 5 * time.Second
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1000
	}
	return c
}

type service struct {
	repo notification.Repository
	hub  *sse.Hub[notification.StreamEvent]
	cfg  Config
	now  func() time.Time

	queue    chan *notification.Notification
	done     chan struct{}
	stopOnce sync.Once
	workers  errgroup.Group
}

// NewNotificationService starts cfg.WorkerCount delivery workers. Normal
// priority notifications are stored in batches; high priority ones are stored
// and pushed as soon as a worker picks them up.
func NewNotificationService(repo notification.Repository, hub *sse.Hub[notification.StreamEvent], cfg Config) notification.Service {
	cfg = cfg.withDefaults()

	s := &service{
		repo:  repo,
		hub:   hub,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		queue: make(chan *notification.Notification, cfg.QueueSize),
		done:  make(chan struct{}),
	}

	for i := range cfg.WorkerCount {
		s.workers.Go(func() error {
			s.run(i)
			return nil
		})
	}

	slog.Info("Notification service started",
		"workers", cfg.WorkerCount, "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)
	return s
}

func (s *service) Enqueue(ctx context.Context, req notification.Request) error {
	enabled, err := s.repo.PushEnabled(ctx, req.RecipientID, req.Type)
	if err != nil {
		return fmt.Errorf("failed to read notification preference: %w", err)
	}
	if !enabled {
		slog.Debug("Notification muted by preference", "recipient_id", req.RecipientID, "type", req.Type)
		return nil
	}

	n := s.newNotification(req)
	select {
	case s.queue <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Queue is full: deliver on the caller's goroutine instead of dropping.
	if err := s.deliver(ctx, n); err != nil {
		return fmt.Errorf("%w: %w", notification.ErrQueueFull, err)
	}
	return nil
}

func (s *service) newNotification(req notification.Request) *notification.Notification {
	priority := req.Priority
	if priority == "" {
		priority = notification.PriorityNormal
	}
	return &notification.Notification{
		ID:          uuid.Must(uuid.NewV7()).String(),
		CompanyID:   req.CompanyID,
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Priority:    priority,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		CreatedAt:   s.now(),
	}
}

// run is one delivery worker. It exits after draining the queue on Stop.
func (s *service) run(worker int) {
	log := slog.With("worker", worker)
	pending := make([]*notification.Notification, 0, s.cfg.BatchSize)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.deliver(ctx, pending...); err != nil {
			log.Error("Notification batch insert failed", "count", len(pending), "error", err)
		} else {
			log.Debug("Notification batch inserted", "count", len(pending))
		}
		pending = pending[:0]
	}

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case n := <-s.queue:
			if n.Priority == notification.PriorityHigh {
				if err := s.deliver(context.Background(), n); err != nil {
					log.Error("Notification insert failed", "type", n.Type, "error", err)
				}
				continue
			}
			pending = append(pending, n)
			if len(pending) >= s.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			pending = s.drain(pending)
			flush()
			return
		}
	}
}

func (s *service) drain(pending []*notification.Notification) []*notification.Notification {
	for {
		select {
		case n := <-s.queue:
			pending = append(pending, n)
		default:
			return pending
		}
	}
}

// deliver stores notifications and then pushes them to live subscribers.
// Nothing is pushed when the insert fails.
func (s *service) deliver(ctx context.Context, notifications ...*notification.Notification) error {
	if err := s.repo.Insert(ctx, notifications...); err != nil {
		return err
	}
	for _, n := range notifications {
		s.hub.Publish(n.RecipientID, notification.StreamEvent{Name: streamEventName, Data: n.View()}, n.Priority == notification.PriorityHigh)
	}
	return nil
}

func (s *service) List(ctx context.Context, recipientID string, q notification.ListQuery) (notification.ListResponse, error) {
	q = q.Normalize()

	page, err := s.repo.List(ctx, recipientID, q)
	if err != nil {
		return notification.ListResponse{}, fmt.Errorf("failed to list notifications: %w", err)
	}

	views := make([]notification.View, len(page.Items))
	for i, n := range page.Items {
		views[i] = n.View()
	}
	return notification.ListResponse{
		Notifications: views,
		Total:         page.Total,
		UnreadCount:   page.Unread,
		Page:          q.Page,
		PageSize:      q.PageSize,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID string, req notification.MarkReadRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	updated, err := s.repo.MarkRead(ctx, recipientID, req.IDs, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return updated, nil
}

// Subscribe streams the recipient's new notifications until ctx ends or the
// returned cancel is called.
func (s *service) Subscribe(ctx context.Context, recipientID string) (<-chan notification.StreamEvent, func()) {
	events, cancel := s.hub.Subscribe(recipientID)
	stop := context.AfterFunc(ctx, cancel)
	return events, func() {
		stop()
		cancel()
	}
}

// Stop delivers what is still queued and waits for the workers. Safe to call twice.
func (s *service) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		_ = s.workers.Wait()
		slog.Info("Notification service stopped")
	})
}
