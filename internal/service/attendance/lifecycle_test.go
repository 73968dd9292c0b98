package attendance

import (
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/effect"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/overtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockInAt(now time.Time) ClockInInput {
	point := insideHQ
	return ClockInInput{
		Now:       now,
		NewID:     "att-new",
		Employee:  testEmployee(),
		Settings:  testSettings(),
		Point:     &point,
		Locations: []geofence.Location{headOffice},
	}
}

func TestPlanClockIn_CheckInStatus(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want attendance.CheckInStatus
	}{
		{"before office start", at(8, 50), attendance.CheckInEarly},
		{"at office start", at(9, 0), attendance.CheckInOnTime},
		{"within late threshold", at(9, 10), attendance.CheckInOnTime},
		{"at the threshold boundary", at(9, 15), attendance.CheckInOnTime},
		{"past the threshold", at(9, 20), attendance.CheckInLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanClockIn(clockInAt(tt.now))
			require.NoError(t, err)
			require.NotNil(t, plan.Record.CheckInStatus)
			assert.Equal(t, tt.want, *plan.Record.CheckInStatus)
		})
	}
}

func TestPlanClockIn_BuildsInProgressRecord(t *testing.T) {
	plan, err := PlanClockIn(clockInAt(at(9, 20)))
	require.NoError(t, err)

	rec := plan.Record
	assert.False(t, plan.Reuse)
	assert.Equal(t, "att-new", rec.ID)
	assert.Equal(t, "emp-rina", rec.EmployeeID)
	assert.Equal(t, "company-1", rec.CompanyID)
	assert.Equal(t, time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, attendance.StatusInProgress, rec.Status)
	assert.Equal(t, at(9, 20).UTC(), *rec.CheckIn)
	assert.Nil(t, rec.CheckOut)
	assert.True(t, rec.GeofenceValidated)
	require.NotNil(t, rec.CheckInLocation)
	require.NotNil(t, rec.CheckInLocation.GeofenceName)
	assert.Equal(t, "Head Office", *rec.CheckInLocation.GeofenceName)
}

func TestPlanClockIn_LocalDateNearMidnight(t *testing.T) {
	s := testSettings()
	s.CheckInTime = s.CheckOutTime

	// 00:30 Tuesday in Jakarta is still Monday in UTC.
	in := clockInAt(onDay(4, 0, 30))
	in.Settings = s
	plan, err := PlanClockIn(in)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.June, 4, 0, 0, 0, 0, time.UTC), plan.Record.Date)
}

func TestPlanClockIn_Rejections(t *testing.T) {
	checkedIn := openRecord(at(8, 55))

	tests := []struct {
		name    string
		mutate  func(*ClockInInput)
		wantErr error
	}{
		{
			name:    "already clocked in",
			mutate:  func(in *ClockInInput) { in.Existing = &checkedIn },
			wantErr: attendance.ErrAlreadyClockedIn,
		},
		{
			name:    "saturday",
			mutate:  func(in *ClockInInput) { in.Now = onDay(8, 9, 0) },
			wantErr: attendance.ErrNotAWorkingDay,
		},
		{
			name: "active holiday",
			mutate: func(in *ClockInInput) {
				in.Holiday = &holiday.Holiday{ID: "hol-1", Name: "Company Day", IsActive: true}
			},
			wantErr: attendance.ErrHolidayBlocked,
		},
		{
			name: "outside every geofence in strict mode",
			mutate: func(in *ClockInInput) {
				p := farFromHQ
				in.Point = &p
			},
			wantErr: attendance.ErrOutsideGeofence,
		},
		{
			name:    "no coordinates in strict mode",
			mutate:  func(in *ClockInInput) { in.Point = nil },
			wantErr: attendance.ErrLocationRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := clockInAt(at(9, 0))
			tt.mutate(&in)

			plan, err := PlanClockIn(in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, plan.Effects)
		})
	}
}

func TestPlanClockIn_InactiveHolidayDoesNotBlock(t *testing.T) {
	in := clockInAt(at(9, 0))
	in.Holiday = &holiday.Holiday{ID: "hol-1", Name: "Cancelled", IsActive: false}

	_, err := PlanClockIn(in)
	assert.NoError(t, err)
}

func TestPlanClockIn_OutsideGeofenceErrorCarriesNearestOffice(t *testing.T) {
	in := clockInAt(at(9, 0))
	p := farFromHQ
	in.Point = &p

	_, err := PlanClockIn(in)

	var geoErr *attendance.OutsideGeofenceError
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, "Head Office", geoErr.NearestLocation)
	assert.InDelta(t, 1712, geoErr.DistanceMeters, 5)
}

func TestPlanClockIn_WeekendRejectedBeforeGeofence(t *testing.T) {
	in := clockInAt(onDay(8, 9, 0))
	p := farFromHQ
	in.Point = &p
	in.Leave = &leave.LeaveRequest{ID: "wfh-1", Kind: leave.KindWFH, Status: leave.StatusApproved}

	_, err := PlanClockIn(in)
	assert.ErrorIs(t, err, attendance.ErrNotAWorkingDay)
}

func TestPlanClockIn_WorkFromHomeBypassesGeofence(t *testing.T) {
	in := clockInAt(at(9, 0))
	p := farFromHQ
	in.Point = &p
	in.Leave = &leave.LeaveRequest{ID: "wfh-1", Kind: leave.KindWFH, Status: leave.StatusApproved}

	plan, err := PlanClockIn(in)
	require.NoError(t, err)

	assert.True(t, plan.Record.WorkFromHome)
	assert.False(t, plan.Record.GeofenceValidated)
	require.NotNil(t, plan.Record.CheckInLocation)
	assert.Nil(t, plan.Record.CheckInLocation.GeofenceName)
}

func TestPlanClockIn_NonStrictRecordsOutsideLocation(t *testing.T) {
	in := clockInAt(at(9, 0))
	in.Settings.Geofence.StrictMode = false
	p := farFromHQ
	in.Point = &p

	plan, err := PlanClockIn(in)
	require.NoError(t, err)

	assert.False(t, plan.Record.GeofenceValidated)
	require.NotNil(t, plan.Record.CheckInLocation)
	assert.Equal(t, farFromHQ.Latitude, plan.Record.CheckInLocation.Latitude)
}

func TestPlanClockIn_GeofenceDisabled(t *testing.T) {
	in := clockInAt(at(9, 0))
	in.Settings.Geofence.Enabled = false
	in.Point = nil

	plan, err := PlanClockIn(in)
	require.NoError(t, err)
	assert.False(t, plan.Record.GeofenceValidated)
	assert.Nil(t, plan.Record.CheckInLocation)
}

func TestPlanClockIn_ReusesSynthesizedRecord(t *testing.T) {
	absent := attendance.Attendance{
		ID:           "att-absent",
		EmployeeID:   "emp-rina",
		CompanyID:    "company-1",
		Date:         time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		Status:       attendance.StatusAbsent,
		StatusReason: "No clock-in by 11:00",
		Remarks:      "[2024-06-03T04:00:00Z] Marked absent",
	}
	in := clockInAt(at(11, 30))
	in.Existing = &absent

	plan, err := PlanClockIn(in)
	require.NoError(t, err)

	assert.True(t, plan.Reuse)
	assert.Equal(t, "att-absent", plan.Record.ID)
	assert.Equal(t, attendance.StatusInProgress, plan.Record.Status)
	assert.Empty(t, plan.Record.StatusReason)
	assert.Equal(t, attendance.CheckInLate, *plan.Record.CheckInStatus)
	assert.Contains(t, plan.Record.Remarks, "Marked absent")
	assert.Contains(t, plan.Record.Remarks, "Clocked in over absent record")
}

func TestPlanClockIn_EffectsFollowNotificationSettings(t *testing.T) {
	plan, err := PlanClockIn(clockInAt(at(9, 0)))
	require.NoError(t, err)
	assert.Equal(t, []string{"activity", "push"}, effectKinds(plan.Effects))

	in := clockInAt(at(9, 0))
	in.Settings.Notifications.ClockInEmail = true
	in.Settings.Notifications.ClockInPush = false
	plan, err = PlanClockIn(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"activity", "email"}, effectKinds(plan.Effects))

	mail := plan.Effects[1].(effect.Email)
	assert.Equal(t, "rina@example.com", mail.To)
	assert.Contains(t, mail.Text, "Head Office")
}

func TestPlanClockIn_PushTargetsUserAccount(t *testing.T) {
	plan, err := PlanClockIn(clockInAt(at(9, 0)))
	require.NoError(t, err)

	push := plan.Effects[1].(effect.Push)
	assert.Equal(t, "user-rina", push.UserID)
	assert.Equal(t, "company-1", push.CompanyID)
}

func clockOutAt(now time.Time, rec attendance.Attendance) ClockOutInput {
	point := insideHQ
	return ClockOutInput{
		Now:       now,
		Employee:  testEmployee(),
		Settings:  testSettings(),
		Record:    &rec,
		Point:     &point,
		Locations: []geofence.Location{headOffice},
	}
}

func TestPlanClockOut_Rejections(t *testing.T) {
	_, err := PlanClockOut(ClockOutInput{Now: at(18, 0), Settings: testSettings()})
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)

	absent := attendance.Attendance{ID: "att-1", Status: attendance.StatusAbsent}
	_, err = PlanClockOut(clockOutAt(at(18, 0), absent))
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)

	closed := openRecord(at(9, 0))
	out := at(17, 0).UTC()
	closed.CheckOut = &out
	closed.Status = attendance.StatusPresent
	_, err = PlanClockOut(clockOutAt(at(18, 0), closed))
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedOut)
}

func TestPlanClockOut_CheckOutStatus(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want attendance.CheckOutStatus
	}{
		{"an hour early", at(17, 0), attendance.CheckOutEarly},
		{"just outside the buffer", at(17, 58).Add(59 * time.Second), attendance.CheckOutEarly},
		{"inside the buffer", at(17, 59).Add(30 * time.Second), attendance.CheckOutOnTime},
		{"at scheduled end", at(18, 0), attendance.CheckOutOnTime},
		{"after scheduled end", at(18, 40), attendance.CheckOutOnTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanClockOut(clockOutAt(tt.now, openRecord(at(9, 0))))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *plan.Record.CheckOutStatus)
		})
	}
}

func TestPlanClockOut_FinalizesRecord(t *testing.T) {
	plan, err := PlanClockOut(clockOutAt(at(18, 0), openRecord(at(9, 0))))
	require.NoError(t, err)

	rec := plan.Record
	assert.Equal(t, at(18, 0).UTC(), *rec.CheckOut)
	assert.Equal(t, 9.0, rec.TotalLoggedHours)
	assert.Equal(t, 60.0, rec.BreakMinutes)
	assert.Equal(t, 8.0, rec.WorkHours)
	assert.Equal(t, 11.11, rec.ShrinkagePercentage)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.NotEmpty(t, rec.StatusReason)
	assert.Nil(t, rec.Overtime)
	assert.Nil(t, plan.Overtime)
	require.NotNil(t, rec.CheckOutLocation)
	assert.Equal(t, "Head Office", *rec.CheckOutLocation.GeofenceName)
}

func TestPlanClockOut_ShortDayIsHalfDayOrAbsent(t *testing.T) {
	plan, err := PlanClockOut(clockOutAt(at(14, 0), openRecord(at(9, 0))))
	require.NoError(t, err)
	assert.Equal(t, 4.0, plan.Record.WorkHours)
	assert.Equal(t, attendance.StatusHalfDay, plan.Record.Status)

	plan, err = PlanClockOut(clockOutAt(at(12, 30), openRecord(at(9, 0))))
	require.NoError(t, err)
	assert.Equal(t, 3.0, plan.Record.WorkHours)
	assert.Equal(t, attendance.StatusAbsent, plan.Record.Status)
}

func TestPlanClockOut_NeverRejectsOnLocation(t *testing.T) {
	in := clockOutAt(at(18, 0), openRecord(at(9, 0)))
	p := farFromHQ
	in.Point = &p

	plan, err := PlanClockOut(in)
	require.NoError(t, err)
	require.NotNil(t, plan.Record.CheckOutLocation)
	assert.Nil(t, plan.Record.CheckOutLocation.GeofenceName)
}

func TestPlanClockOut_ConfirmedOvertime(t *testing.T) {
	rec := openRecord(at(9, 0))
	ot := overtime.Request{
		ID:                "ot-1",
		AttendanceID:      rec.ID,
		ScheduledCheckOut: at(18, 0).UTC(),
		Status:            overtime.StatusConfirmed,
	}
	in := clockOutAt(at(20, 15), rec)
	in.Overtime = &ot

	plan, err := PlanClockOut(in)
	require.NoError(t, err)

	require.NotNil(t, plan.Record.Overtime)
	assert.Equal(t, 2.25, *plan.Record.Overtime)
	require.NotNil(t, plan.Overtime)
	assert.Equal(t, "ot-1", plan.Overtime.RequestID)
	assert.Equal(t, overtime.StatusConfirmed, plan.Overtime.From)
	assert.Equal(t, 2.25, *plan.Overtime.OvertimeHours)
	assert.Contains(t, effectKinds(plan.Effects), "activity")
	assert.Equal(t, 2, countActivities(plan.Effects))
}

func TestPlanClockOut_PendingOvertimeSettledWithoutHours(t *testing.T) {
	rec := openRecord(at(9, 0))
	ot := overtime.Request{
		ID:                "ot-1",
		ScheduledCheckOut: at(18, 0).UTC(),
		Status:            overtime.StatusPending,
	}
	in := clockOutAt(at(18, 45), rec)
	in.Overtime = &ot

	plan, err := PlanClockOut(in)
	require.NoError(t, err)

	assert.Nil(t, plan.Record.Overtime)
	require.NotNil(t, plan.Overtime)
	assert.Equal(t, overtime.StatusPending, plan.Overtime.From)
	assert.Nil(t, plan.Overtime.OvertimeHours)
}

func TestPlanClockOut_EffectsFollowNotificationSettings(t *testing.T) {
	plan, err := PlanClockOut(clockOutAt(at(18, 0), openRecord(at(9, 0))))
	require.NoError(t, err)
	assert.Equal(t, []string{"activity", "email", "push"}, effectKinds(plan.Effects))

	in := clockOutAt(at(18, 0), openRecord(at(9, 0)))
	in.Settings.Notifications.ClockOutEmail = false
	in.Settings.Notifications.ClockOutPush = false
	plan, err = PlanClockOut(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"activity"}, effectKinds(plan.Effects))
}

func countActivities(effects []effect.Effect) int {
	n := 0
	for _, e := range effects {
		if _, ok := e.(effect.Activity); ok {
			n++
		}
	}
	return n
}
