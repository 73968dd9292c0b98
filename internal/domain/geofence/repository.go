package geofence

import "context"

type LocationRepository interface {
	ListActive(ctx context.Context, companyID string) ([]Location, error)
}
