package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sekolahku/kurikulum/internal/audit"
	"github.com/sekolahku/kurikulum/internal/curriculum"
	"github.com/sekolahku/kurikulum/internal/store"
)

// ErrInvalidFilter is reported when a sync operation is triggered without
// the selection it needs. Nothing is written.
var ErrInvalidFilter = errors.New("incomplete filter selection")

// SyncResult summarizes one sync run for the user: how many records were
// created, overwritten, already up to date, or failed to write.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ServiceConfig holds dependencies for the planner service.
type ServiceConfig struct {
	Store store.Store
	Audit audit.Log
	Year  curriculum.AcademicYear
}

// Service runs the sync operations against the document store. Writes are
// issued one at a time; a failed write is logged and counted, and the run
// continues with the next record.
type Service struct {
	store store.Store
	audit audit.Log
	year  curriculum.AcademicYear
}

// NewService creates a planner service.
func NewService(cfg ServiceConfig) *Service {
	auditLog := cfg.Audit
	if auditLog == nil {
		auditLog = audit.NopLog{}
	}
	return &Service{
		store: cfg.Store,
		audit: auditLog,
		year:  cfg.Year,
	}
}

// SyncEffectiveWeeks recomputes the effective-week record of every month in
// the semester from the calendar, overwriting existing records for the same
// class, semester and month.
func (s *Service) SyncEffectiveWeeks(ctx context.Context, filter curriculum.Filter) (SyncResult, error) {
	if filter.Class == "" || (filter.Semester != 1 && filter.Semester != 2) {
		return SyncResult{}, fmt.Errorf("%w: class and semester are required", ErrInvalidFilter)
	}

	events, err := s.events(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	existing, err := s.weekRecords(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	var result SyncResult
	for _, month := range curriculum.SemesterMonths(filter.Semester) {
		rec, err := ComputeEffectiveWeeks(filter.Class, filter.Semester, month, s.year, events)
		if err != nil {
			return result, err
		}

		prevID := ""
		for _, old := range existing {
			if old.Class == filter.Class && old.Semester == filter.Semester && old.Month == month {
				prevID = old.ID
				break
			}
		}

		if prevID != "" {
			if err := s.store.Update(ctx, store.ColEffectiveWeeks, prevID, rec.Document()); err != nil {
				slog.Error("failed to overwrite effective-weeks record", "month", month, "error", err)
				result.Failed++
				continue
			}
			result.Updated++
		} else {
			if _, err := s.store.Create(ctx, store.ColEffectiveWeeks, rec.Document()); err != nil {
				slog.Error("failed to create effective-weeks record", "month", month, "error", err)
				result.Failed++
				continue
			}
			result.Created++
		}
	}

	s.record(ctx, "sync_effective_weeks", store.ColEffectiveWeeks, filter, result)
	return result, nil
}

// ScheduleSemester assigns calendar dates to the semester program of one
// subject by walking the semester's effective teaching slots in order. Every
// item's assigned dates are fully overwritten. Without a weekly schedule for
// the subject the operation aborts with ErrNoSchedule and no side effects.
func (s *Service) ScheduleSemester(ctx context.Context, filter curriculum.Filter) (SyncResult, error) {
	if filter.Class == "" || filter.Subject == "" || (filter.Semester != 1 && filter.Semester != 2) {
		return SyncResult{}, fmt.Errorf("%w: class, subject and semester are required", ErrInvalidFilter)
	}

	slots, err := s.scheduleSlots(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	pattern := WeeklyPattern(slots, filter.Class, filter.Subject)
	if len(pattern) == 0 {
		return SyncResult{}, ErrNoSchedule
	}

	events, err := s.events(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	items, err := s.items(ctx, store.ColSemesterPrograms, filter)
	if err != nil {
		return SyncResult{}, err
	}

	assigned := ScheduleItems(BuildSlots(pattern, filter.Semester, s.year, events), items)

	var result SyncResult
	for _, item := range items {
		refs := assigned[item.ID]
		err := s.store.Update(ctx, store.ColSemesterPrograms, item.ID, map[string]any{
			"assigned_dates": curriculum.FormatDateRefs(refs),
		})
		if err != nil {
			slog.Error("failed to write assigned dates", "item", item.ID, "error", err)
			result.Failed++
			continue
		}
		result.Updated++
	}

	s.record(ctx, "schedule_semester", store.ColSemesterPrograms, filter, result)
	return result, nil
}

// Propagate copies records from one curriculum stage to the next, skipping
// sources whose objective text is already materialized downstream. Returns
// how many records were actually created versus already up to date.
func (s *Service) Propagate(ctx context.Context, from, to curriculum.Stage, filter curriculum.Filter) (SyncResult, error) {
	sources, err := s.items(ctx, from.Collection(), filter)
	if err != nil {
		return SyncResult{}, err
	}

	targets, err := s.items(ctx, to.Collection(), filter)
	if err != nil {
		return SyncResult{}, err
	}

	plan, err := PlanPropagation(from, to, sources, targets, ExactMatcher{}, filter.Semester)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{Skipped: plan.Skipped}
	for _, item := range plan.Created {
		if _, err := s.store.Create(ctx, to.Collection(), item.Document()); err != nil {
			slog.Error("failed to propagate item",
				"from", from.String(),
				"to", to.String(),
				"objective", item.ObjectiveText,
				"error", err,
			)
			result.Failed++
			continue
		}
		result.Created++
	}

	s.record(ctx, "propagate_"+from.String()+"_to_"+to.String(), to.Collection(), filter, result)
	return result, nil
}

// SyncJournal expands scheduled semester-program entries into daily journal
// entries, one per assigned date.
func (s *Service) SyncJournal(ctx context.Context, filter curriculum.Filter) (SyncResult, error) {
	items, err := s.items(ctx, store.ColSemesterPrograms, filter)
	if err != nil {
		return SyncResult{}, err
	}

	journals, err := s.journals(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	plans, err := s.lessonPlans(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	plan := PlanJournalSync(items, journals, plans, s.year)

	result := SyncResult{Skipped: plan.Skipped}
	for _, entry := range plan.Created {
		if _, err := s.store.Create(ctx, store.ColJournals, entry.Document()); err != nil {
			slog.Error("failed to create journal entry", "date", entry.Date, "topic", entry.TopicText, "error", err)
			result.Failed++
			continue
		}
		result.Created++
	}

	s.record(ctx, "sync_journal", store.ColJournals, filter, result)
	return result, nil
}

func (s *Service) items(ctx context.Context, collection string, filter curriculum.Filter) ([]curriculum.Item, error) {
	docs, err := s.store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", collection, err)
	}

	var items []curriculum.Item
	for _, doc := range docs {
		item := curriculum.ItemFromDocument(doc)
		if filter.Matches(item) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Service) events(ctx context.Context) ([]curriculum.CalendarEvent, error) {
	docs, err := s.store.List(ctx, store.ColCalendarEvents)
	if err != nil {
		return nil, fmt.Errorf("loading calendar events: %w", err)
	}

	events := make([]curriculum.CalendarEvent, 0, len(docs))
	for _, doc := range docs {
		events = append(events, curriculum.EventFromDocument(doc))
	}
	return events, nil
}

func (s *Service) scheduleSlots(ctx context.Context) ([]curriculum.ScheduleSlot, error) {
	docs, err := s.store.List(ctx, store.ColWeeklySchedule)
	if err != nil {
		return nil, fmt.Errorf("loading weekly schedule: %w", err)
	}

	slots := make([]curriculum.ScheduleSlot, 0, len(docs))
	for _, doc := range docs {
		slots = append(slots, curriculum.SlotFromDocument(doc))
	}
	return slots, nil
}

func (s *Service) weekRecords(ctx context.Context) ([]curriculum.EffectiveWeeksRecord, error) {
	docs, err := s.store.List(ctx, store.ColEffectiveWeeks)
	if err != nil {
		return nil, fmt.Errorf("loading effective weeks: %w", err)
	}

	recs := make([]curriculum.EffectiveWeeksRecord, 0, len(docs))
	for _, doc := range docs {
		recs = append(recs, curriculum.WeeksFromDocument(doc))
	}
	return recs, nil
}

func (s *Service) journals(ctx context.Context) ([]curriculum.JournalEntry, error) {
	docs, err := s.store.List(ctx, store.ColJournals)
	if err != nil {
		return nil, fmt.Errorf("loading journals: %w", err)
	}

	entries := make([]curriculum.JournalEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, curriculum.JournalFromDocument(doc))
	}
	return entries, nil
}

func (s *Service) lessonPlans(ctx context.Context) ([]curriculum.LessonPlan, error) {
	docs, err := s.store.List(ctx, store.ColLessonPlans)
	if err != nil {
		return nil, fmt.Errorf("loading lesson plans: %w", err)
	}

	plans := make([]curriculum.LessonPlan, 0, len(docs))
	for _, doc := range docs {
		plans = append(plans, curriculum.PlanFromDocument(doc))
	}
	return plans, nil
}

func (s *Service) record(ctx context.Context, action, collection string, filter curriculum.Filter, result SyncResult) {
	err := s.audit.Record(ctx, audit.Event{
		Actor:      audit.ActorFrom(ctx),
		Action:     action,
		Collection: collection,
		Data: map[string]any{
			"class":    filter.Class,
			"subject":  filter.Subject,
			"semester": filter.Semester,
			"created":  result.Created,
			"updated":  result.Updated,
			"skipped":  result.Skipped,
			"failed":   result.Failed,
		},
	})
	if err != nil {
		slog.Warn("failed to record audit event", "action", action, "error", err)
	}
}
