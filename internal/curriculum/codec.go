package curriculum

import (
	"time"

	"github.com/sekolahku/kurikulum/internal/store"
)

// Store field names. Documents are schemaless; these codecs are the one
// place that knows the wire shape, including the comma-joined
// "Month|Week|Day" serialization of assigned dates.

// ItemFromDocument decodes a curriculum item from a store document.
func ItemFromDocument(doc store.Document) Item {
	return Item{
		ID:             doc.ID,
		Phase:          docString(doc, "phase"),
		Grade:          docString(doc, "grade"),
		Subject:        docString(doc, "subject"),
		ObjectiveText:  docString(doc, "objective_text"),
		TopicText:      docString(doc, "topic_text"),
		MaterialText:   docString(doc, "material_text"),
		AllocatedHours: docHours(doc, "allocated_hours"),
		OrderIndex:     docInt(doc, "order_index"),
		Semester:       docInt(doc, "semester"),
		AssignedDates:  ParseDateRefs(docString(doc, "assigned_dates")),
	}
}

// Document encodes the item for the store. AssignedDates keep the legacy
// string serialization for compatibility with existing data.
func (i Item) Document() map[string]any {
	return map[string]any{
		"phase":           i.Phase,
		"grade":           i.Grade,
		"subject":         i.Subject,
		"objective_text":  i.ObjectiveText,
		"topic_text":      i.TopicText,
		"material_text":   i.MaterialText,
		"allocated_hours": i.AllocatedHours,
		"order_index":     i.OrderIndex,
		"semester":        i.Semester,
		"assigned_dates":  FormatDateRefs(i.AssignedDates),
	}
}

// EventFromDocument decodes a calendar event.
func EventFromDocument(doc store.Document) CalendarEvent {
	return CalendarEvent{
		ID:    doc.ID,
		Date:  docString(doc, "date"),
		Title: docString(doc, "title"),
		Type:  EventType(docString(doc, "type")),
	}
}

// Document encodes the calendar event for the store.
func (e CalendarEvent) Document() map[string]any {
	return map[string]any{
		"date":  e.Date,
		"title": e.Title,
		"type":  string(e.Type),
	}
}

// SlotFromDocument decodes a weekly schedule slot.
func SlotFromDocument(doc store.Document) ScheduleSlot {
	return ScheduleSlot{
		ID:        doc.ID,
		Class:     docString(doc, "class"),
		DayOfWeek: time.Weekday(docInt(doc, "day_of_week")),
		Period:    docInt(doc, "period"),
		Subject:   docString(doc, "subject"),
	}
}

// Document encodes the schedule slot for the store.
func (s ScheduleSlot) Document() map[string]any {
	return map[string]any{
		"class":       s.Class,
		"day_of_week": int(s.DayOfWeek),
		"period":      s.Period,
		"subject":     s.Subject,
	}
}

// WeeksFromDocument decodes an effective-weeks record.
func WeeksFromDocument(doc store.Document) EffectiveWeeksRecord {
	return EffectiveWeeksRecord{
		ID:                doc.ID,
		Class:             docString(doc, "class"),
		Semester:          docInt(doc, "semester"),
		Month:             docString(doc, "month"),
		TotalWeeks:        docInt(doc, "total_weeks"),
		NonEffectiveWeeks: docInt(doc, "non_effective_weeks"),
		Notes:             docString(doc, "notes"),
	}
}

// Document encodes the effective-weeks record for the store. The derived
// effective-week count is deliberately absent.
func (r EffectiveWeeksRecord) Document() map[string]any {
	return map[string]any{
		"class":               r.Class,
		"semester":            r.Semester,
		"month":               r.Month,
		"total_weeks":         r.TotalWeeks,
		"non_effective_weeks": r.NonEffectiveWeeks,
		"notes":               r.Notes,
	}
}

// JournalFromDocument decodes a journal entry.
func JournalFromDocument(doc store.Document) JournalEntry {
	return JournalEntry{
		ID:                 doc.ID,
		Date:               docString(doc, "date"),
		Class:              docString(doc, "class"),
		Subject:            docString(doc, "subject"),
		TopicText:          docString(doc, "topic_text"),
		NarrativeText:      docString(doc, "narrative_text"),
		PedagogyMethodText: docString(doc, "pedagogy_method_text"),
	}
}

// Document encodes the journal entry for the store.
func (j JournalEntry) Document() map[string]any {
	return map[string]any{
		"date":                 j.Date,
		"class":                j.Class,
		"subject":              j.Subject,
		"topic_text":           j.TopicText,
		"narrative_text":       j.NarrativeText,
		"pedagogy_method_text": j.PedagogyMethodText,
	}
}

// PlanFromDocument decodes a lesson plan.
func PlanFromDocument(doc store.Document) LessonPlan {
	return LessonPlan{
		ID:                 doc.ID,
		Class:              docString(doc, "class"),
		Subject:            docString(doc, "subject"),
		TopicText:          docString(doc, "topic_text"),
		PedagogyMethodText: docString(doc, "pedagogy_method_text"),
		Opening:            docString(doc, "kegiatan_awal"),
		Main:               docString(doc, "kegiatan_inti"),
		Closing:            docString(doc, "kegiatan_penutup"),
	}
}

// Document encodes the lesson plan for the store.
func (p LessonPlan) Document() map[string]any {
	return map[string]any{
		"class":                p.Class,
		"subject":              p.Subject,
		"topic_text":           p.TopicText,
		"pedagogy_method_text": p.PedagogyMethodText,
		"kegiatan_awal":        p.Opening,
		"kegiatan_inti":        p.Main,
		"kegiatan_penutup":     p.Closing,
	}
}

func docString(doc store.Document, key string) string {
	if v, ok := doc.Data[key].(string); ok {
		return v
	}
	return ""
}

// docInt reads an integer that may have round-tripped through JSON as a
// float64 or been stored as a string.
func docInt(doc store.Document, key string) int {
	switch v := doc.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		return int(ParseHours(v))
	default:
		return 0
	}
}

// docHours reads an hour budget stored either as a number or as a
// locale-flexible decimal string like "2,5".
func docHours(doc store.Document, key string) float64 {
	switch v := doc.Data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return ParseHours(v)
	default:
		return 0
	}
}
