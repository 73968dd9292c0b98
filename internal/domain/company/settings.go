package company

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date, stored as "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (or "HH:MM:SS", seconds ignored).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q, use HH:MM", s)
}

// MustTimeOfDay is ParseTimeOfDay for literals.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On returns the instant this time of day occurs on the calendar date of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, loc)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Weekday wraps time.Weekday so it can be written as a name in config files.
type Weekday time.Weekday

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func (d Weekday) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(time.Weekday(d).String())), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(string(b)))]
	if !ok {
		return fmt.Errorf("invalid weekday %q", string(b))
	}
	*d = Weekday(wd)
	return nil
}

// Weekdays converts names-friendly weekdays into time.Weekday values.
func Weekdays(days ...time.Weekday) []Weekday {
	out := make([]Weekday, len(days))
	for i, d := range days {
		out[i] = Weekday(d)
	}
	return out
}

func containsWeekday(days []Weekday, wd time.Weekday) bool {
	for _, d := range days {
		if time.Weekday(d) == wd {
			return true
		}
	}
	return false
}

// BreakWindow is a named break applied to worked time on the listed weekdays.
// An empty Days list applies to every day.
type BreakWindow struct {
	Name   string    `json:"name" yaml:"name"`
	Start  TimeOfDay `json:"start" yaml:"start"`
	End    TimeOfDay `json:"end" yaml:"end"`
	Days   []Weekday `json:"days,omitempty" yaml:"days,omitempty"`
	Active bool      `json:"active" yaml:"active"`
}

// AppliesOn reports whether the break is active on the given weekday.
func (b BreakWindow) AppliesOn(wd time.Weekday) bool {
	if !b.Active {
		return false
	}
	return len(b.Days) == 0 || containsWeekday(b.Days, wd)
}

type GeofenceConfig struct {
	Enabled              bool `json:"enabled" yaml:"enabled"`
	StrictMode           bool `json:"strict_mode" yaml:"strict_mode"`
	UseMultipleLocations bool `json:"use_multiple_locations" yaml:"use_multiple_locations"`
}

// NotificationSettings gates the best-effort side effects of clock events.
type NotificationSettings struct {
	ClockInEmail  bool `json:"clock_in_email" yaml:"clock_in_email"`
	ClockInPush   bool `json:"clock_in_push" yaml:"clock_in_push"`
	ClockOutEmail bool `json:"clock_out_email" yaml:"clock_out_email"`
	ClockOutPush  bool `json:"clock_out_push" yaml:"clock_out_push"`
	Reminders     bool `json:"reminders" yaml:"reminders"`
}

// Settings is the fully resolved attendance configuration for one decision.
type Settings struct {
	CheckInTime            TimeOfDay            `json:"check_in_time" yaml:"check_in_time"`
	CheckOutTime           TimeOfDay            `json:"check_out_time" yaml:"check_out_time"`
	LateThresholdMinutes   int                  `json:"late_threshold_minutes" yaml:"late_threshold_minutes"`
	FullDayHours           float64              `json:"full_day_hours" yaml:"full_day_hours"`
	HalfDayHours           float64              `json:"half_day_hours" yaml:"half_day_hours"`
	WorkingDays            []Weekday            `json:"working_days" yaml:"working_days"`
	BreakTimings           []BreakWindow        `json:"break_timings" yaml:"break_timings"`
	Geofence               GeofenceConfig       `json:"geofence" yaml:"geofence"`
	Timezone               string               `json:"timezone" yaml:"timezone"`
	AbsentThresholdMinutes int                  `json:"absent_threshold_minutes" yaml:"absent_threshold_minutes"`
	Notifications          NotificationSettings `json:"notifications" yaml:"notifications"`
}

// Location loads the configured timezone, falling back to UTC.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsWorkingDay reports whether wd is in the configured working days.
func (s Settings) IsWorkingDay(wd time.Weekday) bool {
	return containsWeekday(s.WorkingDays, wd)
}

// Validate checks the invariants the attendance rules depend on.
func (s Settings) Validate() error {
	if s.FullDayHours <= 0 {
		return fmt.Errorf("full_day_hours must be positive")
	}
	if s.HalfDayHours < 0 || s.HalfDayHours > s.FullDayHours {
		return fmt.Errorf("half_day_hours must be between 0 and full_day_hours")
	}
	if s.LateThresholdMinutes < 0 || s.AbsentThresholdMinutes < 0 {
		return fmt.Errorf("threshold minutes must not be negative")
	}
	for _, b := range s.BreakTimings {
		if b.End.Minutes() <= b.Start.Minutes() {
			return fmt.Errorf("break %q must end after it starts", b.Name)
		}
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return nil
}

// Overrides is a partial Settings layer. Nil fields inherit from the layer below.
type Overrides struct {
	CheckInTime            *TimeOfDay            `json:"check_in_time,omitempty" yaml:"check_in_time,omitempty"`
	CheckOutTime           *TimeOfDay            `json:"check_out_time,omitempty" yaml:"check_out_time,omitempty"`
	LateThresholdMinutes   *int                  `json:"late_threshold_minutes,omitempty" yaml:"late_threshold_minutes,omitempty"`
	FullDayHours           *float64              `json:"full_day_hours,omitempty" yaml:"full_day_hours,omitempty"`
	HalfDayHours           *float64              `json:"half_day_hours,omitempty" yaml:"half_day_hours,omitempty"`
	WorkingDays            []Weekday             `json:"working_days,omitempty" yaml:"working_days,omitempty"`
	BreakTimings           []BreakWindow         `json:"break_timings,omitempty" yaml:"break_timings,omitempty"`
	Geofence               *GeofenceConfig       `json:"geofence,omitempty" yaml:"geofence,omitempty"`
	Timezone               *string               `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	AbsentThresholdMinutes *int                  `json:"absent_threshold_minutes,omitempty" yaml:"absent_threshold_minutes,omitempty"`
	Notifications          *NotificationSettings `json:"notifications,omitempty" yaml:"notifications,omitempty"`
}

// Resolve merges settings layers in precedence order: global defaults, then
// company overrides, then employee overrides. Nil layers are skipped.
// Slices replace the lower layer wholesale when non-nil.
func Resolve(global Settings, layers ...*Overrides) Settings {
	out := global
	out.WorkingDays = append([]Weekday(nil), global.WorkingDays...)
	out.BreakTimings = append([]BreakWindow(nil), global.BreakTimings...)

	for _, o := range layers {
		if o == nil {
			continue
		}
		if o.CheckInTime != nil {
			out.CheckInTime = *o.CheckInTime
		}
		if o.CheckOutTime != nil {
			out.CheckOutTime = *o.CheckOutTime
		}
		if o.LateThresholdMinutes != nil {
			out.LateThresholdMinutes = *o.LateThresholdMinutes
		}
		if o.FullDayHours != nil {
			out.FullDayHours = *o.FullDayHours
		}
		if o.HalfDayHours != nil {
			out.HalfDayHours = *o.HalfDayHours
		}
		if o.WorkingDays != nil {
			out.WorkingDays = append([]Weekday(nil), o.WorkingDays...)
		}
		if o.BreakTimings != nil {
			out.BreakTimings = append([]BreakWindow(nil), o.BreakTimings...)
		}
		if o.Geofence != nil {
			out.Geofence = *o.Geofence
		}
		if o.Timezone != nil {
			out.Timezone = *o.Timezone
		}
		if o.AbsentThresholdMinutes != nil {
			out.AbsentThresholdMinutes = *o.AbsentThresholdMinutes
		}
		if o.Notifications != nil {
			out.Notifications = *o.Notifications
		}
	}
	return out
}
