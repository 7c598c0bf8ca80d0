package planner

import (
	"errors"
	"sort"
	"time"

	"github.com/sekolahku/kurikulum/internal/curriculum"
)

// ErrNoSchedule is reported when a subject has no weekly schedule configured
// for the class. Scheduling aborts with zero side effects.
var ErrNoSchedule = errors.New("no weekly schedule configured for this subject and class")

// Slot is one effective teaching day for a subject: a calendar date carrying
// the number of periods the subject meets that day.
type Slot struct {
	Date    time.Time
	Ref     curriculum.DateRef
	Periods int
}

// WeeklyPattern reduces the weekly schedule to periods-per-weekday for one
// class and subject.
func WeeklyPattern(slots []curriculum.ScheduleSlot, class, subject string) map[time.Weekday]int {
	pattern := make(map[time.Weekday]int)
	for _, s := range slots {
		if s.Class != class || s.Subject != subject {
			continue
		}
		pattern[s.DayOfWeek]++
	}
	return pattern
}

// BuildSlots walks every calendar day of the semester and emits the ordered
// effective slot sequence: one slot per day the subject meets, skipping any
// date marked as a holiday.
func BuildSlots(pattern map[time.Weekday]int, semester int, year curriculum.AcademicYear, events []curriculum.CalendarEvent) []Slot {
	holidays := make(map[string]bool)
	for _, ev := range events {
		if ev.Type == curriculum.EventHoliday {
			holidays[ev.Date] = true
		}
	}

	start, end := year.SemesterRange(semester)

	var slots []Slot
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		periods := pattern[d.Weekday()]
		if periods == 0 {
			continue
		}
		if holidays[d.Format("2006-01-02")] {
			continue
		}
		slots = append(slots, Slot{
			Date: d,
			Ref: curriculum.DateRef{
				Month: curriculum.MonthName(d.Month()),
				Week:  curriculum.WeekOfMonth(d),
				Day:   d.Day(),
			},
			Periods: periods,
		})
	}
	return slots
}

// ScheduleItems distributes the slot sequence across curriculum items in
// order: each item consumes slots from the global cursor until its allocated
// hours are spent, then the next item continues from the next unconsumed
// slot. No slot is ever assigned twice. Items left over when the sequence
// runs out receive whatever dates were available, possibly none.
//
// The returned map carries the complete new assignment per item ID; callers
// overwrite, never merge.
func ScheduleItems(slots []Slot, items []curriculum.Item) map[string][]curriculum.DateRef {
	ordered := make([]curriculum.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	assigned := make(map[string][]curriculum.DateRef, len(ordered))
	cursor := 0

	for _, item := range ordered {
		assigned[item.ID] = nil

		remaining := item.AllocatedHours
		for remaining > 0 && cursor < len(slots) {
			slot := slots[cursor]
			cursor++
			remaining -= float64(slot.Periods)
			assigned[item.ID] = append(assigned[item.ID], slot.Ref)
		}
	}
	return assigned
}
