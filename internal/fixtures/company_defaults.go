package fixtures

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
)

// DefaultAttendanceSettings is the global settings layer used when no
// defaults file is configured. Companies and employees override it.
func DefaultAttendanceSettings() company.Settings {
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
			{
				Name:   "Lunch Break",
				Start:  company.MustTimeOfDay("12:00"),
				End:    company.MustTimeOfDay("13:00"),
				Active: true,
			},
		},
		Geofence: company.GeofenceConfig{
			Enabled:              true,
			StrictMode:           false,
			UseMultipleLocations: true,
		},
		Timezone:               "Asia/Jakarta",
		AbsentThresholdMinutes: 120,
		Notifications: company.NotificationSettings{
			ClockInEmail:  false,
			ClockInPush:   true,
			ClockOutEmail: true,
			ClockOutPush:  true,
			Reminders:     true,
		},
	}
}
