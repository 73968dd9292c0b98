package attendance

import (
	"context"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/effect"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
)

var jakarta = mustLoad("Asia/Jakarta")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Monday 3 June 2024 in Jakarta.
func at(hour, minute int) time.Time {
	return time.Date(2024, time.June, 3, hour, minute, 0, 0, jakarta)
}

func onDay(day, hour, minute int) time.Time {
	return time.Date(2024, time.June, day, hour, minute, 0, 0, jakarta)
}

func testSettings() company.Settings {
	return company.Settings{
		CheckInTime:          company.MustTimeOfDay("09:00"),
		CheckOutTime:         company.MustTimeOfDay("18:00"),
		LateThresholdMinutes: 15,
		FullDayHours:         8,
		HalfDayHours:         4,
		WorkingDays: company.Weekdays(
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		),
		BreakTimings: []company.BreakWindow{
			{Name: "Lunch Break", Start: company.MustTimeOfDay("12:00"), End: company.MustTimeOfDay("13:00"), Active: true},
		},
		Geofence:               company.GeofenceConfig{Enabled: true, StrictMode: true, UseMultipleLocations: true},
		Timezone:               "Asia/Jakarta",
		AbsentThresholdMinutes: 120,
		Notifications: company.NotificationSettings{
			ClockInPush:   true,
			ClockOutEmail: true,
			ClockOutPush:  true,
			Reminders:     true,
		},
	}
}

func strPtr(s string) *string { return &s }

func testEmployee() employee.Employee {
	return employee.Employee{
		ID:               "emp-rina",
		UserID:           strPtr("user-rina"),
		CompanyID:        "company-1",
		DepartmentID:     "dept-eng",
		FullName:         "Rina Wijaya",
		Email:            "rina@example.com",
		EmploymentStatus: employee.EmploymentStatusActive,
	}
}

var headOffice = geofence.Location{
	ID:           "loc-hq",
	CompanyID:    "company-1",
	Name:         "Head Office",
	Latitude:     -6.1754,
	Longitude:    106.8272,
	RadiusMeters: 200,
	IsActive:     true,
}

var (
	insideHQ  = geofence.Point{Latitude: -6.1755, Longitude: 106.8273}
	farFromHQ = geofence.Point{Latitude: -6.1600, Longitude: 106.8272}
)

// openRecord is a Monday record checked in at the given local time.
func openRecord(checkIn time.Time) attendance.Attendance {
	in := checkIn.UTC()
	status := attendance.CheckInOnTime
	return attendance.Attendance{
		ID:            "att-1",
		EmployeeID:    "emp-rina",
		CompanyID:     "company-1",
		Date:          attendance.DateOf(checkIn, jakarta),
		CheckIn:       &in,
		CheckInStatus: &status,
		Status:        attendance.StatusInProgress,
	}
}

func effectKinds(effects []effect.Effect) []string {
	kinds := make([]string, len(effects))
	for i, e := range effects {
		kinds[i] = e.Kind()
	}
	return kinds
}

// recordingDispatcher keeps dispatched effects for assertions.
type recordingDispatcher struct {
	mu      sync.Mutex
	effects []effect.Effect
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, effects []effect.Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, effects...)
}

func (r *recordingDispatcher) pushes() []effect.Push {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []effect.Push
	for _, e := range r.effects {
		if p, ok := e.(effect.Push); ok {
			out = append(out, p)
		}
	}
	return out
}
