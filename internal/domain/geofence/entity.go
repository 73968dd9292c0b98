package geofence

import (
	"slices"
	"time"
)

// Location is a named office geofence: a circle of RadiusMeters around a point.
type Location struct {
	ID                 string
	CompanyID          string
	Name               string
	Latitude           float64
	Longitude          float64
	RadiusMeters       float64
	AllowedDepartments []string
	AllowedEmployees   []string
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Allows reports whether the location's allow-lists admit the employee.
// A location with both allow-lists empty is unrestricted.
func (l Location) Allows(employeeID, departmentID string) bool {
	if len(l.AllowedEmployees) == 0 && len(l.AllowedDepartments) == 0 {
		return true
	}
	if employeeID != "" && slices.Contains(l.AllowedEmployees, employeeID) {
		return true
	}
	return departmentID != "" && slices.Contains(l.AllowedDepartments, departmentID)
}

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
