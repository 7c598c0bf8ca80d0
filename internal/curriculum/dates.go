package curriculum

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Indonesian month names, January first.
var monthNames = []string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the Indonesian name for a month.
func MonthName(m time.Month) string {
	return monthNames[int(m)-1]
}

// MonthNumber resolves an Indonesian month name (case-insensitive) to its
// time.Month. The second return is false for unknown names.
func MonthNumber(name string) (time.Month, bool) {
	for i, n := range monthNames {
		if strings.EqualFold(n, name) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// SemesterMonths returns the six months of a semester in order: Juli–Desember
// for semester 1, Januari–Juni for semester 2.
func SemesterMonths(semester int) []string {
	if semester == 2 {
		return monthNames[0:6]
	}
	return monthNames[6:12]
}

// InSemester reports whether the named month falls inside the semester's
// six-month window.
func InSemester(month string, semester int) bool {
	for _, m := range SemesterMonths(semester) {
		if strings.EqualFold(m, month) {
			return true
		}
	}
	return false
}

// AcademicYear is a school year like "2024/2025".
type AcademicYear struct {
	First  int // calendar year of semester 1 (Juli–Desember)
	Second int // calendar year of semester 2 (Januari–Juni)
}

// ParseAcademicYear parses "2024/2025".
func ParseAcademicYear(s string) (AcademicYear, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return AcademicYear{}, fmt.Errorf("academic year %q must look like 2024/2025", s)
	}
	first, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	second, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return AcademicYear{}, fmt.Errorf("academic year %q must look like 2024/2025", s)
	}
	if second != first+1 {
		return AcademicYear{}, fmt.Errorf("academic year %q years must be consecutive", s)
	}
	return AcademicYear{First: first, Second: second}, nil
}

func (y AcademicYear) String() string {
	return fmt.Sprintf("%d/%d", y.First, y.Second)
}

// YearFor returns the calendar year a month falls in: Juli–Desember belong
// to the first year, Januari–Juni to the second.
func (y AcademicYear) YearFor(m time.Month) int {
	if m >= time.July {
		return y.First
	}
	return y.Second
}

// SemesterRange returns the first and last calendar day of a semester.
func (y AcademicYear) SemesterRange(semester int) (time.Time, time.Time) {
	if semester == 2 {
		return time.Date(y.Second, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(y.Second, time.June, 30, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(y.First, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(y.First, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// DateRef locates one assigned teaching date inside a semester as the
// original records do: month name, week-of-month bucket and day-of-month.
type DateRef struct {
	Month string `json:"month"`
	Week  int    `json:"week"`
	Day   int    `json:"day"`
}

// Date resolves the reference to a calendar date within the academic year.
// Unknown month names return the zero time.
func (d DateRef) Date(year AcademicYear) time.Time {
	m, ok := MonthNumber(d.Month)
	if !ok {
		return time.Time{}
	}
	return time.Date(year.YearFor(m), m, d.Day, 0, 0, 0, 0, time.UTC)
}

// ParseDateRefs parses the store serialization: "Month|Week|Day" tokens
// joined by commas. Malformed tokens are skipped, matching the tolerance of
// the data already in the store.
func ParseDateRefs(s string) []DateRef {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var refs []DateRef
	for _, token := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(token), "|")
		if len(parts) != 3 {
			continue
		}
		week, err1 := strconv.Atoi(strings.TrimSpace(parts[1]))
		day, err2 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil {
			continue
		}
		month := strings.TrimSpace(parts[0])
		if month == "" {
			continue
		}
		refs = append(refs, DateRef{Month: month, Week: week, Day: day})
	}
	return refs
}

// FormatDateRefs renders refs back to the store serialization.
func FormatDateRefs(refs []DateRef) string {
	tokens := make([]string, 0, len(refs))
	for _, r := range refs {
		tokens = append(tokens, fmt.Sprintf("%s|%d|%d", r.Month, r.Week, r.Day))
	}
	return strings.Join(tokens, ",")
}

// ParseHours parses a locale-flexible decimal string: both "2,5" and "2.5"
// yield 2.5. Anything unparseable yields 0.
func ParseHours(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// WeekOfMonth returns the week-of-month bucket of a date: week 1 starts on
// the 1st, buckets advance at each Sunday-aligned boundary relative to the
// weekday of the 1st.
func WeekOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	offset := int(first.Weekday())
	return (t.Day() + offset + 6) / 7
}
