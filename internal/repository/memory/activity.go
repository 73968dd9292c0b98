package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
)

type ActivityRepository struct {
	mu      sync.RWMutex
	entries []activity.Entry
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

func (r *ActivityRepository) Create(ctx context.Context, entry activity.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, entry)
	return nil
}

// Entries returns a snapshot of everything logged so far.
func (r *ActivityRepository) Entries() []activity.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]activity.Entry(nil), r.entries...)
}
