package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/memory"
)

func newTestService(t *testing.T, cfg Config) (notification.Service, *memory.NotificationRepository) {
	t.Helper()
	repo := memory.NewNotificationRepository()
	svc := NewNotificationService(repo, sse.NewHub[notification.StreamEvent](), cfg)
	t.Cleanup(svc.Stop)
	return svc, repo
}

func fastConfig() Config {
	return Config{BatchSize: 10, FlushInterval: 20 * time.Millisecond, WorkerCount: 1, QueueSize: 10}
}

func unread(t *testing.T, repo notification.Repository, recipientID string) int {
	t.Helper()
	page, err := repo.List(context.Background(), recipientID, notification.ListQuery{}.Normalize())
	require.NoError(t, err)
	return page.Unread
}

func TestEnqueue_StoredAfterFlush(t *testing.T) {
	svc, _ := newTestService(t, fastConfig())
	ctx := context.Background()

	require.NoError(t, svc.Enqueue(ctx, notification.Request{
		CompanyID:   "company-1",
		RecipientID: "user-1",
		Type:        notification.TypeShiftReminder,
		Title:       "Shift starts soon",
		Message:     "Your shift starts at 09:00.",
	}))

	var list notification.ListResponse
	require.Eventually(t, func() bool {
		var err error
		list, err = svc.List(ctx, "user-1", notification.ListQuery{})
		return err == nil && list.Total == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, list.UnreadCount)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, notification.DefaultPageSize, list.PageSize)
	assert.Equal(t, notification.PriorityNormal, list.Notifications[0].Priority)
	assert.False(t, list.Notifications[0].IsRead)
}

func TestEnqueue_MutedByPreference(t *testing.T) {
	svc, repo := newTestService(t, fastConfig())
	ctx := context.Background()
	repo.SetPushEnabled("user-1", notification.TypeBreakReminder, false)

	require.NoError(t, svc.Enqueue(ctx, notification.Request{
		RecipientID: "user-1",
		Type:        notification.TypeBreakReminder,
		Title:       "Lunch started",
	}))
	svc.Stop()

	assert.Zero(t, unread(t, repo, "user-1"))
}

func TestSubscribe_HighPriorityPushedWithoutWaitingForFlush(t *testing.T) {
	svc, _ := newTestService(t, Config{BatchSize: 100, FlushInterval: time.Hour, WorkerCount: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe := svc.Subscribe(ctx, "user-1")
	defer unsubscribe()

	require.NoError(t, svc.Enqueue(ctx, notification.Request{
		RecipientID: "user-1",
		Type:        notification.TypeOvertimePrompt,
		Priority:    notification.PriorityHigh,
		Title:       "Are you working overtime?",
	}))

	select {
	case ev := <-events:
		assert.Equal(t, "notification", ev.Name)
		assert.Equal(t, notification.TypeOvertimePrompt, ev.Data.Type)
		assert.Equal(t, notification.PriorityHigh, ev.Data.Priority)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestSubscribe_ClosedWhenContextEnds(t *testing.T) {
	svc, _ := newTestService(t, fastConfig())
	ctx, cancel := context.WithCancel(context.Background())

	events, unsubscribe := svc.Subscribe(ctx, "user-1")
	defer unsubscribe()
	cancel()

	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("stream was not closed")
	}
}

func TestStop_DeliversPendingBatch(t *testing.T) {
	repo := memory.NewNotificationRepository()
	svc := NewNotificationService(repo, sse.NewHub[notification.StreamEvent](), Config{
		BatchSize:     100,
		FlushInterval: time.Hour,
		WorkerCount:   1,
	})
	ctx := context.Background()

	for range 3 {
		require.NoError(t, svc.Enqueue(ctx, notification.Request{
			RecipientID: "user-1",
			Type:        notification.TypeAttendanceClockIn,
			Title:       "Clocked in",
		}))
	}
	svc.Stop()
	svc.Stop()

	assert.Equal(t, 3, unread(t, repo, "user-1"))
}

func TestEnqueue_FullQueueDeliversInline(t *testing.T) {
	repo := memory.NewNotificationRepository()
	svc := NewNotificationService(repo, sse.NewHub[notification.StreamEvent](), Config{
		BatchSize:     100,
		FlushInterval: time.Hour,
		WorkerCount:   1,
		QueueSize:     1,
	})
	svc.Stop()
	ctx := context.Background()

	for range 3 {
		require.NoError(t, svc.Enqueue(ctx, notification.Request{
			RecipientID: "user-1",
			Type:        notification.TypeAttendanceClockOut,
			Title:       "Clocked out",
		}))
	}

	// One waits in the queue with no worker left; the rest went straight to the store.
	assert.Equal(t, 2, unread(t, repo, "user-1"))
}

func TestMarkRead(t *testing.T) {
	svc, repo := newTestService(t, fastConfig())
	ctx := context.Background()

	n := &notification.Notification{RecipientID: "user-1", Type: notification.TypeAttendanceClockOut, Title: "Clocked out"}
	other := &notification.Notification{RecipientID: "user-2", Type: notification.TypeAttendanceClockOut, Title: "Clocked out"}
	require.NoError(t, repo.Insert(ctx, n, other))

	_, err := svc.MarkRead(ctx, "user-1", notification.MarkReadRequest{})
	assert.Error(t, err)

	updated, err := svc.MarkRead(ctx, "user-1", notification.MarkReadRequest{IDs: []string{n.ID, other.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Zero(t, unread(t, repo, "user-1"))
	assert.Equal(t, 1, unread(t, repo, "user-2"))

	updated, err = svc.MarkRead(ctx, "user-1", notification.MarkReadRequest{IDs: []string{n.ID}})
	require.NoError(t, err)
	assert.Zero(t, updated)
}
