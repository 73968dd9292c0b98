package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/utils"
)

// Shrinkage is the worked-time breakdown of one check-in/check-out interval.
type Shrinkage struct {
	TotalLoggedHours    float64
	BreakMinutes        float64
	EffectiveWorkHours  float64
	ShrinkagePercentage float64
}

// ComputeShrinkage subtracts configured breaks from the logged interval.
// Breaks are placed on every local calendar date the interval touches, so an
// overnight shift picks up the breaks of both days.
func ComputeShrinkage(checkIn, checkOut time.Time, breaks []company.BreakWindow, loc *time.Location) Shrinkage {
	if !checkOut.After(checkIn) {
		return Shrinkage{}
	}
	if loc == nil {
		loc = time.UTC
	}

	totalHours := checkOut.Sub(checkIn).Hours()

	var breakMinutes float64
	first := attendance.DateOf(checkIn, loc)
	last := attendance.DateOf(checkOut, loc)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		for _, b := range breaks {
			if !b.AppliesOn(day.Weekday()) {
				continue
			}
			breakMinutes += overlapMinutes(checkIn, checkOut, b.Start.On(day, loc), b.End.On(day, loc))
		}
	}

	effective := totalHours - breakMinutes/60
	if effective < 0 {
		effective = 0
	}

	var shrinkage float64
	if totalHours > 0 {
		shrinkage = (breakMinutes / 60) / totalHours * 100
	}

	return Shrinkage{
		TotalLoggedHours:    utils.Round2(totalHours),
		BreakMinutes:        utils.Round2(breakMinutes),
		EffectiveWorkHours:  utils.Round2(effective),
		ShrinkagePercentage: utils.Round2(shrinkage),
	}
}

func overlapMinutes(start, end, windowStart, windowEnd time.Time) float64 {
	from := start
	if windowStart.After(from) {
		from = windowStart
	}
	to := end
	if windowEnd.Before(to) {
		to = windowEnd
	}
	if !to.After(from) {
		return 0
	}
	return to.Sub(from).Minutes()
}

// Thresholds are the worked-hour cut-offs of the 90/50 rule.
type Thresholds struct {
	FullDayHours float64
	HalfDayHours float64
}

func ThresholdsFrom(s company.Settings) Thresholds {
	return Thresholds{FullDayHours: s.FullDayHours, HalfDayHours: s.HalfDayHours}
}

type Classification struct {
	Status attendance.Status
	Reason string
}

// PresentRatio is the share of a full day that counts as present.
const PresentRatio = 0.9

// Tolerates float noise such as 0.9*8 = 7.200000000000001.
const hoursEpsilon = 1e-9

// Classify applies the 90/50 rule. HalfDayHours is configured independently
// of FullDayHours; when unset it falls back to half a full day.
func Classify(hours float64, th Thresholds) Classification {
	presentAt := PresentRatio * th.FullDayHours
	halfDayAt := th.HalfDayHours
	if halfDayAt <= 0 {
		halfDayAt = 0.5 * th.FullDayHours
	}

	switch {
	case hours+hoursEpsilon >= presentAt:
		return Classification{
			Status: attendance.StatusPresent,
			Reason: fmt.Sprintf("Worked %.2f hours, meeting the full-day threshold of %.2f hours (90%% of %.2f)",
				hours, presentAt, th.FullDayHours),
		}
	case hours+hoursEpsilon >= halfDayAt:
		return Classification{
			Status: attendance.StatusHalfDay,
			Reason: fmt.Sprintf("Worked %.2f hours, below the full-day threshold of %.2f hours but meeting the half-day threshold of %.2f hours",
				hours, presentAt, halfDayAt),
		}
	default:
		return Classification{
			Status: attendance.StatusAbsent,
			Reason: fmt.Sprintf("Worked %.2f hours, below the half-day threshold of %.2f hours",
				hours, halfDayAt),
		}
	}
}

// applyCheckout finalizes a record at the given checkout instant: it fills the
// shrinkage breakdown and classification.
func applyCheckout(rec *attendance.Attendance, at time.Time, status attendance.CheckOutStatus, settings company.Settings) {
	checkOut := at.UTC()
	rec.CheckOut = &checkOut
	rec.CheckOutStatus = &status

	sh := ComputeShrinkage(*rec.CheckIn, checkOut, settings.BreakTimings, settings.Location())
	rec.TotalLoggedHours = sh.TotalLoggedHours
	rec.BreakMinutes = sh.BreakMinutes
	rec.WorkHours = sh.EffectiveWorkHours
	rec.ShrinkagePercentage = sh.ShrinkagePercentage

	cl := Classify(sh.EffectiveWorkHours, ThresholdsFrom(settings))
	rec.Status = cl.Status
	rec.StatusReason = cl.Reason
}
