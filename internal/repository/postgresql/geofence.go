package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type locationRepository struct {
	db *database.DB
}

func NewLocationRepository(db *database.DB) geofence.LocationRepository {
	return &locationRepository{db: db}
}

// ListActive implements geofence.LocationRepository. Rows come back in a
// stable order so nearest-location ties resolve the same way every time.
func (r *locationRepository) ListActive(ctx context.Context, companyID string) ([]geofence.Location, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, latitude, longitude, radius_meters,
			   allowed_departments, allowed_employees, is_active, created_at, updated_at
		FROM geofence_locations
		WHERE company_id = $1 AND is_active
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query geofence locations: %w", err)
	}
	defer rows.Close()

	var locations []geofence.Location
	for rows.Next() {
		var l geofence.Location
		if err := rows.Scan(
			&l.ID, &l.CompanyID, &l.Name, &l.Latitude, &l.Longitude, &l.RadiusMeters,
			&l.AllowedDepartments, &l.AllowedEmployees, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan geofence location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate geofence locations: %w", err)
	}
	return locations, nil
}
