package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Clock-in rejections
	ErrAlreadyClockedIn = errors.New("you have already clocked in today")
	ErrNotAWorkingDay   = errors.New("today is not a working day")
	ErrHolidayBlocked   = errors.New("clock-in is not allowed on a holiday")
	ErrOutsideGeofence  = errors.New("you are outside the allowed office location")
	ErrLocationRequired = errors.New("your location is required to clock in")

	// Clock-out rejections
	ErrNotClockedIn      = errors.New("you have not clocked in today")
	ErrAlreadyClockedOut = errors.New("you have already clocked out today")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrDuplicateRecord    = errors.New("attendance record already exists for this day")
	ErrNoOvertimePrompt   = errors.New("no open overtime prompt for today")
	ErrOvertimeClosed     = errors.New("overtime prompt is no longer open")
)

// OutsideGeofenceError is the strict-mode clock-in rejection. It carries the
// closest allowed office for display and matches ErrOutsideGeofence.
type OutsideGeofenceError struct {
	DistanceMeters  float64
	NearestLocation string
}

func (e *OutsideGeofenceError) Error() string {
	if e.NearestLocation == "" {
		return "you are outside the allowed office location: no office location is assigned to you"
	}
	return fmt.Sprintf("you are outside the allowed office location: closest office %s is %.0fm away",
		e.NearestLocation, e.DistanceMeters)
}

func (e *OutsideGeofenceError) Unwrap() error {
	return ErrOutsideGeofence
}
