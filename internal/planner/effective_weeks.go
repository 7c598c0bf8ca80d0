package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/sekolahku/kurikulum/internal/curriculum"
)

// ComputeEffectiveWeeks derives the effective-week record of one month for a
// class and semester from the calendar:
//
//   - TotalWeeks is the number of Mondays falling inside the month, the
//     proxy for how many teaching weeks the month has.
//   - NonEffectiveWeeks counts the distinct week-of-month buckets that
//     contain at least one holiday.
//   - Notes lists the de-duplicated holiday titles of the month.
//
// A month without holidays yields zero non-effective weeks and empty notes.
func ComputeEffectiveWeeks(class string, semester int, month string, year curriculum.AcademicYear, events []curriculum.CalendarEvent) (curriculum.EffectiveWeeksRecord, error) {
	m, ok := curriculum.MonthNumber(month)
	if !ok {
		return curriculum.EffectiveWeeksRecord{}, fmt.Errorf("unknown month %q", month)
	}
	if !curriculum.InSemester(month, semester) {
		return curriculum.EffectiveWeeksRecord{}, fmt.Errorf("month %s is outside semester %d", month, semester)
	}

	calYear := year.YearFor(m)

	rec := curriculum.EffectiveWeeksRecord{
		Class:      class,
		Semester:   semester,
		Month:      month,
		TotalWeeks: countMondays(calYear, m),
	}

	weekBuckets := make(map[int]bool)
	var titles []string
	seenTitles := make(map[string]bool)

	for _, ev := range events {
		if ev.Type != curriculum.EventHoliday {
			continue
		}
		t := ev.Time()
		if t.IsZero() || t.Year() != calYear || t.Month() != m {
			continue
		}

		weekBuckets[curriculum.WeekOfMonth(t)] = true

		title := strings.TrimSpace(ev.Title)
		if title != "" && !seenTitles[title] {
			seenTitles[title] = true
			titles = append(titles, title)
		}
	}

	rec.NonEffectiveWeeks = len(weekBuckets)
	rec.Notes = strings.Join(titles, ", ")
	return rec, nil
}

func countMondays(year int, month time.Month) int {
	count := 0
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Month() == month {
		if d.Weekday() == time.Monday {
			count++
		}
		d = d.AddDate(0, 0, 1)
	}
	return count
}
