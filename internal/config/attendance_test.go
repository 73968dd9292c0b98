package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/fixtures"
)

func TestLoadAttendanceDefaults_EmptyPathUsesBuiltIn(t *testing.T) {
	s, err := LoadAttendanceDefaults("")
	require.NoError(t, err)
	assert.Equal(t, fixtures.DefaultAttendanceSettings(), s)
}

func TestLoadAttendanceDefaults_File(t *testing.T) {
	t.Setenv("HRIS_TZ", "Asia/Makassar")

	doc := `
attendance:
  check_in_time: "08:30"
  check_out_time: "17:30"
  full_day_hours: 7.5
  working_days: [monday, tuesday, wednesday, thursday, friday, saturday]
  break_timings:
    - name: Lunch
      start: "12:00"
      end: "12:45"
      days: [mon, tue, wed, thu, fri]
      active: true
  timezone: ${HRIS_TZ}
`
	path := filepath.Join(t.TempDir(), "attendance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := LoadAttendanceDefaults(path)
	require.NoError(t, err)

	assert.Equal(t, company.MustTimeOfDay("08:30"), s.CheckInTime)
	assert.Equal(t, company.MustTimeOfDay("17:30"), s.CheckOutTime)
	assert.Equal(t, 7.5, s.FullDayHours)
	assert.Equal(t, "Asia/Makassar", s.Timezone)
	assert.True(t, s.IsWorkingDay(time.Saturday))
	assert.False(t, s.IsWorkingDay(time.Sunday))
	require.Len(t, s.BreakTimings, 1)
	assert.True(t, s.BreakTimings[0].AppliesOn(time.Monday))
	assert.False(t, s.BreakTimings[0].AppliesOn(time.Saturday))

	// Untouched fields keep the built-in value.
	defaults := fixtures.DefaultAttendanceSettings()
	assert.Equal(t, defaults.LateThresholdMinutes, s.LateThresholdMinutes)
	assert.Equal(t, defaults.AbsentThresholdMinutes, s.AbsentThresholdMinutes)
}

func TestParseAttendanceDefaults_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad time":        "attendance:\n  check_in_time: \"9am\"\n",
		"bad weekday":     "attendance:\n  working_days: [funday]\n",
		"half above full": "attendance:\n  full_day_hours: 4\n  half_day_hours: 6\n",
		"bad timezone":    "attendance:\n  timezone: Mars/Olympus\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAttendanceDefaults([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadAttendanceDefaults_MissingFile(t *testing.T) {
	_, err := LoadAttendanceDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadAttendanceDefaults_ExampleFile(t *testing.T) {
	t.Setenv("ATTENDANCE_TIMEZONE", "Asia/Makassar")

	settings, err := LoadAttendanceDefaults("../../configs/attendance.example.yaml")
	require.NoError(t, err)

	assert.Equal(t, "Asia/Makassar", settings.Timezone)
	require.Len(t, settings.BreakTimings, 2)
	assert.False(t, settings.BreakTimings[1].AppliesOn(time.Friday))
	assert.True(t, settings.BreakTimings[0].AppliesOn(time.Saturday))
	assert.False(t, settings.IsWorkingDay(time.Saturday))
}
