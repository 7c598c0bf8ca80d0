package planner

import (
	"fmt"
	"sort"

	"github.com/sekolahku/kurikulum/internal/curriculum"
)

// JournalPlan is the outcome of planning one journal sync.
type JournalPlan struct {
	Created []curriculum.JournalEntry
	Skipped int
}

// PlanJournalSync expands semester-program entries into daily journal
// entries, one per assigned date. Entries with several dates get a
// chronological " (Meeting N)" suffix on the topic. A lesson plan for the
// same class and subject with an overlapping topic contributes its pedagogy
// method; otherwise the field stays blank. An entry whose
// (date, subject, topic, class) tuple already exists is skipped.
func PlanJournalSync(items []curriculum.Item, journals []curriculum.JournalEntry, plans []curriculum.LessonPlan, year curriculum.AcademicYear) JournalPlan {
	ordered := make([]curriculum.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	contains := ContainsMatcher{}

	var plan JournalPlan
	for _, item := range ordered {
		if len(item.AssignedDates) == 0 {
			continue
		}

		topic := item.TopicText
		if topic == "" {
			topic = item.ObjectiveText
		}

		refs := sortRefsChronologically(item.AssignedDates, year)
		for i, ref := range refs {
			entryTopic := topic
			if len(refs) > 1 {
				entryTopic = fmt.Sprintf("%s (Meeting %d)", topic, i+1)
			}

			date := ref.Date(year)
			if date.IsZero() {
				continue
			}

			entry := curriculum.JournalEntry{
				Date:      date.Format("2006-01-02"),
				Class:     item.Grade,
				Subject:   item.Subject,
				TopicText: entryTopic,
			}

			if journalExists(entry, journals, plan.Created) {
				plan.Skipped++
				continue
			}

			for _, lp := range plans {
				if lp.Class != item.Grade || lp.Subject != item.Subject {
					continue
				}
				if contains.Match(lp.TopicText, topic) {
					entry.PedagogyMethodText = lp.PedagogyMethodText
					break
				}
			}

			plan.Created = append(plan.Created, entry)
		}
	}
	return plan
}

func sortRefsChronologically(refs []curriculum.DateRef, year curriculum.AcademicYear) []curriculum.DateRef {
	out := make([]curriculum.DateRef, len(refs))
	copy(out, refs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date(year).Before(out[j].Date(year))
	})
	return out
}

func journalExists(entry curriculum.JournalEntry, journals []curriculum.JournalEntry, planned []curriculum.JournalEntry) bool {
	same := func(j curriculum.JournalEntry) bool {
		return j.Date == entry.Date &&
			j.Subject == entry.Subject &&
			j.TopicText == entry.TopicText &&
			j.Class == entry.Class
	}
	for _, j := range journals {
		if same(j) {
			return true
		}
	}
	for _, j := range planned {
		if same(j) {
			return true
		}
	}
	return false
}
