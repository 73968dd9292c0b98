package geofence

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/utils"
)

// Result describes where a point sits relative to a company's geofences.
// NearestLocation is the nearest containing location when one exists,
// otherwise the nearest allowed location, otherwise nil.
type Result struct {
	IsWithinAnyGeofence bool
	NearestLocation     *geofence.Location
	DistanceMeters      float64
}

// Resolve scores every active location the employee is allowed to use by
// haversine distance. Exact distance ties keep the first location seen.
func Resolve(point geofence.Point, employeeID, departmentID string, locations []geofence.Location) Result {
	var (
		nearest          *geofence.Location
		nearestDist      float64
		nearestInside    *geofence.Location
		nearestInsideDis float64
	)

	for i := range locations {
		loc := &locations[i]
		if !loc.IsActive || !loc.Allows(employeeID, departmentID) {
			continue
		}

		d := utils.CalculateHaversineDistance(point.Latitude, point.Longitude, loc.Latitude, loc.Longitude)

		if nearest == nil || d < nearestDist {
			nearest, nearestDist = loc, d
		}
		if d <= loc.RadiusMeters && (nearestInside == nil || d < nearestInsideDis) {
			nearestInside, nearestInsideDis = loc, d
		}
	}

	if nearestInside != nil {
		found := *nearestInside
		return Result{IsWithinAnyGeofence: true, NearestLocation: &found, DistanceMeters: nearestInsideDis}
	}
	if nearest != nil {
		found := *nearest
		return Result{NearestLocation: &found, DistanceMeters: nearestDist}
	}
	return Result{}
}

// Resolver resolves points against a company's stored geofences.
type Resolver struct {
	locationRepo geofence.LocationRepository
}

func NewResolver(locationRepo geofence.LocationRepository) *Resolver {
	return &Resolver{locationRepo: locationRepo}
}

func (r *Resolver) Resolve(ctx context.Context, companyID string, point geofence.Point, employeeID, departmentID string) (Result, error) {
	locations, err := r.locationRepo.ListActive(ctx, companyID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list geofence locations: %w", err)
	}
	return Resolve(point, employeeID, departmentID, locations), nil
}
