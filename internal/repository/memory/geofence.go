package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
)

type LocationRepository struct {
	mu        sync.RWMutex
	locations []geofence.Location
}

func NewLocationRepository(seed ...geofence.Location) *LocationRepository {
	return &LocationRepository{locations: append([]geofence.Location(nil), seed...)}
}

func (r *LocationRepository) Put(l geofence.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations = append(r.locations, l)
}

func (r *LocationRepository) ListActive(ctx context.Context, companyID string) ([]geofence.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []geofence.Location
	for _, l := range r.locations {
		if l.CompanyID == companyID && l.IsActive {
			out = append(out, l)
		}
	}
	return out, nil
}
