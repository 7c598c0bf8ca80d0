// Package curriculum defines the domain types shared by every planning
// stage: curriculum items, calendar events, weekly schedule slots,
// effective-week records, lesson plans and teaching journals.
package curriculum

import (
	"time"

	"github.com/sekolahku/kurikulum/internal/store"
)

// Stage identifies one of the five sequential curriculum stages.
type Stage int

const (
	StageOutcome  Stage = iota // capaian pembelajaran
	StageAnalysis              // analisis capaian
	StageFlow                  // alur tujuan pembelajaran
	StageYearly                // program tahunan
	StageSemester              // program semester
)

func (s Stage) String() string {
	switch s {
	case StageOutcome:
		return "outcome"
	case StageAnalysis:
		return "analysis"
	case StageFlow:
		return "flow"
	case StageYearly:
		return "yearly"
	case StageSemester:
		return "semester"
	default:
		return "unknown"
	}
}

// Collection returns the store collection backing a stage.
func (s Stage) Collection() string {
	switch s {
	case StageOutcome:
		return store.ColLearningOutcomes
	case StageAnalysis:
		return store.ColAnalysisEntries
	case StageFlow:
		return store.ColFlowObjectives
	case StageYearly:
		return store.ColYearlyPrograms
	case StageSemester:
		return store.ColSemesterPrograms
	default:
		return ""
	}
}

// StageByName maps the wire name back to a Stage.
func StageByName(name string) (Stage, bool) {
	for _, s := range []Stage{StageOutcome, StageAnalysis, StageFlow, StageYearly, StageSemester} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Item is the shape shared by all five curriculum stages. Semester-only
// fields (Semester, AssignedDates) are zero for upstream stages.
type Item struct {
	ID             string
	Phase          string // A, B or C
	Grade          string // class/grade label, e.g. "5"
	Subject        string
	ObjectiveText  string
	TopicText      string
	MaterialText   string
	AllocatedHours float64
	OrderIndex     int
	Semester       int // 1 or 2; 0 for stages without a semester scope
	AssignedDates  []DateRef
}

// EventType classifies a calendar event.
type EventType string

const (
	EventHoliday   EventType = "holiday"
	EventExam      EventType = "exam"
	EventActivity  EventType = "activity"
	EventImportant EventType = "important"
)

// CalendarEvent marks one calendar date, e.g. a public holiday.
type CalendarEvent struct {
	ID    string
	Date  string // yyyy-mm-dd
	Title string
	Type  EventType
}

// Time parses the event date. Malformed dates return the zero time.
func (e CalendarEvent) Time() time.Time {
	t, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ScheduleSlot assigns a subject to one teaching period of a weekday for a
// class. Absence of a slot means the period is free.
type ScheduleSlot struct {
	ID        string
	Class     string
	DayOfWeek time.Weekday
	Period    int
	Subject   string
}

// EffectiveWeeksRecord holds the teaching-week budget of one month for a
// class and semester.
type EffectiveWeeksRecord struct {
	ID                string
	Class             string
	Semester          int
	Month             string // Indonesian month name
	TotalWeeks        int
	NonEffectiveWeeks int
	Notes             string
}

// EffectiveWeeks is derived, never persisted. It is not clamped; callers
// decide what a negative budget means.
func (r EffectiveWeeksRecord) EffectiveWeeks() int {
	return r.TotalWeeks - r.NonEffectiveWeeks
}

// JournalEntry is one daily teaching journal record.
type JournalEntry struct {
	ID                 string
	Date               string // yyyy-mm-dd
	Class              string
	Subject            string
	TopicText          string
	NarrativeText      string
	PedagogyMethodText string
}

// LessonPlan is a teaching plan for one topic, including the three activity
// sections the drafting assistant fills in.
type LessonPlan struct {
	ID                 string
	Class              string
	Subject            string
	TopicText          string
	PedagogyMethodText string
	Opening            string // kegiatan awal
	Main               string // kegiatan inti
	Closing            string // kegiatan penutup
}

// Filter is the explicit selection context passed to every operation in
// place of the original ambient phase/class/subject/semester state. Empty
// fields match everything; Semester 0 matches any semester.
type Filter struct {
	Phase    string `json:"phase,omitempty"`
	Class    string `json:"class,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Semester int    `json:"semester,omitempty"`
}

// Matches reports whether an item falls inside the filter partition.
func (f Filter) Matches(item Item) bool {
	if f.Phase != "" && item.Phase != f.Phase {
		return false
	}
	if f.Class != "" && item.Grade != f.Class {
		return false
	}
	if f.Subject != "" && item.Subject != f.Subject {
		return false
	}
	if f.Semester != 0 && item.Semester != 0 && item.Semester != f.Semester {
		return false
	}
	return true
}
