package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/sekolahku/kurikulum/internal/audit"
	"github.com/sekolahku/kurikulum/internal/curriculum"
	"github.com/sekolahku/kurikulum/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *audit.MemoryLog) {
	t.Helper()
	st := store.NewMemoryStore(store.NewBus())
	log := audit.NewMemoryLog()
	svc := NewService(ServiceConfig{Store: st, Audit: log, Year: year2024})
	return svc, st, log
}

func mustCreate(t *testing.T, st store.Store, collection string, data map[string]any) string {
	t.Helper()
	id, err := st.Create(context.Background(), collection, data)
	if err != nil {
		t.Fatalf("seeding %s: %v", collection, err)
	}
	return id
}

func TestSyncEffectiveWeeks_RequiresClassAndSemester(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.SyncEffectiveWeeks(context.Background(), curriculum.Filter{Semester: 1}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("missing class: error = %v, want ErrInvalidFilter", err)
	}
	if _, err := svc.SyncEffectiveWeeks(context.Background(), curriculum.Filter{Class: "5"}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("missing semester: error = %v, want ErrInvalidFilter", err)
	}
	if _, err := svc.SyncEffectiveWeeks(context.Background(), curriculum.Filter{Class: "5", Semester: 3}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("bad semester: error = %v, want ErrInvalidFilter", err)
	}
}

func TestSyncEffectiveWeeks_OverwritesInsteadOfAccumulating(t *testing.T) {
	svc, st, log := newTestService(t)
	ctx := context.Background()
	filter := curriculum.Filter{Class: "5", Semester: 1}

	first, err := svc.SyncEffectiveWeeks(ctx, filter)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.Created != 6 || first.Updated != 0 {
		t.Errorf("first sync = %+v, want 6 created (one per semester month)", first)
	}

	mustCreate(t, st, store.ColCalendarEvents, curriculum.CalendarEvent{
		Date: "2024-07-15", Title: "Libur", Type: curriculum.EventHoliday,
	}.Document())

	second, err := svc.SyncEffectiveWeeks(ctx, filter)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.Created != 0 || second.Updated != 6 {
		t.Errorf("second sync = %+v, want 6 updated, 0 created", second)
	}

	docs, err := st.List(ctx, store.ColEffectiveWeeks)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 6 {
		t.Errorf("stored records = %d, want 6 (overwritten, not accumulated)", len(docs))
	}

	var juli curriculum.EffectiveWeeksRecord
	for _, doc := range docs {
		rec := curriculum.WeeksFromDocument(doc)
		if rec.Month == "Juli" {
			juli = rec
		}
	}
	if juli.NonEffectiveWeeks != 1 {
		t.Errorf("Juli NonEffectiveWeeks = %d, want 1 after the holiday was added", juli.NonEffectiveWeeks)
	}

	if got := len(log.Events()); got != 2 {
		t.Errorf("audit events = %d, want 2", got)
	}
}

func TestScheduleSemester_WritesAssignedDates(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	for _, period := range []int{1, 2} {
		mustCreate(t, st, store.ColWeeklySchedule, curriculum.ScheduleSlot{
			Class: "5", DayOfWeek: 1, Period: period, Subject: "Matematika",
		}.Document())
	}
	itemID := mustCreate(t, st, store.ColSemesterPrograms, curriculum.Item{
		Grade: "5", Subject: "Matematika", TopicText: "Pecahan",
		AllocatedHours: 4, OrderIndex: 1, Semester: 1,
	}.Document())

	result, err := svc.ScheduleSemester(ctx, curriculum.Filter{Class: "5", Subject: "Matematika", Semester: 1})
	if err != nil {
		t.Fatalf("ScheduleSemester() error = %v", err)
	}
	if result.Updated != 1 {
		t.Errorf("Updated = %d, want 1", result.Updated)
	}

	doc, err := st.Get(ctx, store.ColSemesterPrograms, itemID)
	if err != nil {
		t.Fatal(err)
	}
	item := curriculum.ItemFromDocument(doc)
	want := []curriculum.DateRef{
		{Month: "Juli", Week: 1, Day: 1},
		{Month: "Juli", Week: 2, Day: 8},
	}
	if len(item.AssignedDates) != len(want) {
		t.Fatalf("assigned dates = %v, want %v", item.AssignedDates, want)
	}
	for i := range want {
		if item.AssignedDates[i] != want[i] {
			t.Errorf("assigned[%d] = %+v, want %+v", i, item.AssignedDates[i], want[i])
		}
	}
}

func TestScheduleSemester_OverwritesStaleDates(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	mustCreate(t, st, store.ColWeeklySchedule, curriculum.ScheduleSlot{
		Class: "5", DayOfWeek: 1, Period: 1, Subject: "Matematika",
	}.Document())
	itemID := mustCreate(t, st, store.ColSemesterPrograms, curriculum.Item{
		Grade: "5", Subject: "Matematika", TopicText: "Pecahan",
		AllocatedHours: 1, OrderIndex: 1, Semester: 1,
		AssignedDates: []curriculum.DateRef{{Month: "Desember", Week: 4, Day: 22}},
	}.Document())

	if _, err := svc.ScheduleSemester(ctx, curriculum.Filter{Class: "5", Subject: "Matematika", Semester: 1}); err != nil {
		t.Fatalf("ScheduleSemester() error = %v", err)
	}

	doc, err := st.Get(ctx, store.ColSemesterPrograms, itemID)
	if err != nil {
		t.Fatal(err)
	}
	item := curriculum.ItemFromDocument(doc)
	if len(item.AssignedDates) != 1 || item.AssignedDates[0].Month != "Juli" {
		t.Errorf("assigned dates = %v, want the stale Desember date replaced", item.AssignedDates)
	}
}

func TestScheduleSemester_NoScheduleNoSideEffects(t *testing.T) {
	svc, st, log := newTestService(t)
	ctx := context.Background()

	itemID := mustCreate(t, st, store.ColSemesterPrograms, curriculum.Item{
		Grade: "5", Subject: "Matematika", TopicText: "Pecahan",
		AllocatedHours: 2, OrderIndex: 1, Semester: 1,
	}.Document())

	_, err := svc.ScheduleSemester(ctx, curriculum.Filter{Class: "5", Subject: "Matematika", Semester: 1})
	if !errors.Is(err, ErrNoSchedule) {
		t.Fatalf("error = %v, want ErrNoSchedule", err)
	}

	doc, err := st.Get(ctx, store.ColSemesterPrograms, itemID)
	if err != nil {
		t.Fatal(err)
	}
	if curriculum.ItemFromDocument(doc).AssignedDates != nil {
		t.Error("aborted run must not touch assigned dates")
	}
	if len(log.Events()) != 0 {
		t.Errorf("audit events = %d, want 0 for an aborted run", len(log.Events()))
	}
}

func TestPropagate_SecondRunCreatesNothing(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	filter := curriculum.Filter{Class: "5", Subject: "Matematika"}

	for i, objective := range []string{"Memahami pecahan", "Mengenal desimal"} {
		mustCreate(t, st, store.ColFlowObjectives, curriculum.Item{
			Grade: "5", Subject: "Matematika", ObjectiveText: objective,
			MaterialText: "Bilangan", AllocatedHours: 2, OrderIndex: i + 1,
		}.Document())
	}

	first, err := svc.Propagate(ctx, curriculum.StageFlow, curriculum.StageYearly, filter)
	if err != nil {
		t.Fatalf("first propagate: %v", err)
	}
	if first.Created != 2 {
		t.Errorf("first Created = %d, want 2", first.Created)
	}

	second, err := svc.Propagate(ctx, curriculum.StageFlow, curriculum.StageYearly, filter)
	if err != nil {
		t.Fatalf("second propagate: %v", err)
	}
	if second.Created != 0 || second.Skipped != 2 {
		t.Errorf("second = %+v, want 0 created, 2 skipped", second)
	}

	docs, err := st.List(ctx, store.ColYearlyPrograms)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("yearly records = %d, want 2", len(docs))
	}
}

func TestPropagate_RejectsStageSkip(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Propagate(context.Background(), curriculum.StageOutcome, curriculum.StageYearly, curriculum.Filter{})
	if err == nil {
		t.Error("skipping stages should be rejected")
	}
}

func TestSyncJournal_Idempotent(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	filter := curriculum.Filter{Class: "5", Subject: "Matematika", Semester: 1}

	mustCreate(t, st, store.ColSemesterPrograms, curriculum.Item{
		Grade: "5", Subject: "Matematika", TopicText: "Pecahan",
		OrderIndex: 1, Semester: 1,
		AssignedDates: []curriculum.DateRef{
			{Month: "Juli", Week: 1, Day: 7},
			{Month: "Juli", Week: 2, Day: 14},
		},
	}.Document())
	mustCreate(t, st, store.ColLessonPlans, curriculum.LessonPlan{
		Class: "5", Subject: "Matematika", TopicText: "Pecahan",
		PedagogyMethodText: "Diskusi kelompok",
	}.Document())

	first, err := svc.SyncJournal(ctx, filter)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.Created != 2 {
		t.Errorf("first Created = %d, want 2", first.Created)
	}

	second, err := svc.SyncJournal(ctx, filter)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.Created != 0 || second.Skipped != 2 {
		t.Errorf("second = %+v, want 0 created, 2 skipped", second)
	}

	docs, err := st.List(ctx, store.ColJournals)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("journal entries = %d, want 2", len(docs))
	}
	for _, doc := range docs {
		entry := curriculum.JournalFromDocument(doc)
		if entry.PedagogyMethodText != "Diskusi kelompok" {
			t.Errorf("entry %s pedagogy = %q, want copied from lesson plan", entry.Date, entry.PedagogyMethodText)
		}
	}
}
