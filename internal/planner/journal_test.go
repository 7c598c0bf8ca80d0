package planner

import (
	"testing"

	"github.com/sekolahku/kurikulum/internal/curriculum"
)

func TestPlanJournalSync_OneEntryPerDate(t *testing.T) {
	items := []curriculum.Item{
		{
			ID: "sp1", Grade: "5", Subject: "Matematika",
			TopicText: "Pecahan", OrderIndex: 1,
			AssignedDates: []curriculum.DateRef{
				{Month: "Juli", Week: 1, Day: 7},
				{Month: "Juli", Week: 2, Day: 14},
			},
		},
	}

	plan := PlanJournalSync(items, nil, nil, year2024)

	if len(plan.Created) != 2 {
		t.Fatalf("Created = %d, want 2", len(plan.Created))
	}

	first, second := plan.Created[0], plan.Created[1]
	if first.Date != "2024-07-07" {
		t.Errorf("first date = %q, want 2024-07-07", first.Date)
	}
	if first.TopicText != "Pecahan (Meeting 1)" {
		t.Errorf("first topic = %q, want Pecahan (Meeting 1)", first.TopicText)
	}
	if second.Date != "2024-07-14" {
		t.Errorf("second date = %q, want 2024-07-14", second.Date)
	}
	if second.TopicText != "Pecahan (Meeting 2)" {
		t.Errorf("second topic = %q, want Pecahan (Meeting 2)", second.TopicText)
	}
}

func TestPlanJournalSync_SingleDateKeepsBareTopic(t *testing.T) {
	items := []curriculum.Item{
		{
			ID: "sp1", Grade: "5", Subject: "Matematika",
			TopicText:     "Pecahan",
			AssignedDates: []curriculum.DateRef{{Month: "Juli", Week: 1, Day: 7}},
		},
	}

	plan := PlanJournalSync(items, nil, nil, year2024)

	if len(plan.Created) != 1 {
		t.Fatalf("Created = %d, want 1", len(plan.Created))
	}
	if plan.Created[0].TopicText != "Pecahan" {
		t.Errorf("topic = %q, want Pecahan without a meeting suffix", plan.Created[0].TopicText)
	}
}

func TestPlanJournalSync_MeetingNumbersFollowDateOrder(t *testing.T) {
	// Dates supplied out of chronological order.
	items := []curriculum.Item{
		{
			ID: "sp1", Grade: "5", Subject: "Matematika",
			TopicText: "Pecahan",
			AssignedDates: []curriculum.DateRef{
				{Month: "Agustus", Week: 1, Day: 4},
				{Month: "Juli", Week: 2, Day: 14},
			},
		},
	}

	plan := PlanJournalSync(items, nil, nil, year2024)

	if plan.Created[0].Date != "2024-07-14" || plan.Created[0].TopicText != "Pecahan (Meeting 1)" {
		t.Errorf("entry 0 = %q %q, want 2024-07-14 Pecahan (Meeting 1)",
			plan.Created[0].Date, plan.Created[0].TopicText)
	}
	if plan.Created[1].Date != "2024-08-04" {
		t.Errorf("entry 1 date = %q, want 2024-08-04", plan.Created[1].Date)
	}
	if plan.Created[1].TopicText != "Pecahan (Meeting 2)" {
		t.Errorf("entry 1 topic = %q, want Pecahan (Meeting 2)", plan.Created[1].TopicText)
	}
}

func TestPlanJournalSync_SkipsExistingEntries(t *testing.T) {
	items := []curriculum.Item{
		{
			ID: "sp1", Grade: "5", Subject: "Matematika",
			TopicText:     "Pecahan",
			AssignedDates: []curriculum.DateRef{{Month: "Juli", Week: 1, Day: 7}},
		},
	}
	journals := []curriculum.JournalEntry{
		{Date: "2024-07-07", Class: "5", Subject: "Matematika", TopicText: "Pecahan"},
	}

	plan := PlanJournalSync(items, journals, nil, year2024)

	if len(plan.Created) != 0 {
		t.Errorf("Created = %d, want 0", len(plan.Created))
	}
	if plan.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", plan.Skipped)
	}
}

func TestPlanJournalSync_RerunCreatesNothing(t *testing.T) {
	items := []curriculum.Item{
		{
			ID: "sp1", Grade: "5", Subject: "Matematika",
			TopicText: "Pecahan",
			AssignedDates: []curriculum.DateRef{
				{Month: "Juli", Week: 1, Day: 7},
				{Month: "Juli", Week: 2, Day: 14},
			},
		},
	}

	first := PlanJournalSync(items, nil, nil, year2024)
	second := PlanJournalSync(items, first.Created, nil, year2024)

	if len(second.Created) != 0 {
		t.Errorf("second run Created = %d, want 0", len(second.Created))
	}
	if second.Skipped != 2 {
		t.Errorf("second run Skipped = %d, want 2", second.Skipped)
	}
}

func TestPlanJournalSync_TopicFallsBackToObjective(t *testing.T) {
	items := []curriculum.Item{
		{
			ID: "sp1", Grade: "5", Subject: "IPA",
			ObjectiveText: "Mengenal fotosintesis",
			AssignedDates: []curriculum.DateRef{{Month: "Juli", Week: 1, Day: 7}},
		},
	}

	plan := PlanJournalSync(items, nil, nil, year2024)

	if plan.Created[0].TopicText != "Mengenal fotosintesis" {
		t.Errorf("topic = %q, want objective text fallback", plan.Created[0].TopicText)
	}
}

func TestPlanJournalSync_CopiesPedagogyFromLessonPlan(t *testing.T) {
	items := []curriculum.Item{
		{
			ID: "sp1", Grade: "5", Subject: "Matematika",
			TopicText:     "Pecahan Senilai",
			AssignedDates: []curriculum.DateRef{{Month: "Juli", Week: 1, Day: 7}},
		},
	}
	plans := []curriculum.LessonPlan{
		{Class: "6", Subject: "Matematika", TopicText: "Pecahan Senilai", PedagogyMethodText: "Kelas lain"},
		{Class: "5", Subject: "Matematika", TopicText: "pecahan", PedagogyMethodText: "Diskusi kelompok"},
	}

	plan := PlanJournalSync(items, nil, plans, year2024)

	if plan.Created[0].PedagogyMethodText != "Diskusi kelompok" {
		t.Errorf("pedagogy = %q, want Diskusi kelompok from the class 5 lesson plan",
			plan.Created[0].PedagogyMethodText)
	}
}

func TestPlanJournalSync_NoDatesNoEntries(t *testing.T) {
	items := []curriculum.Item{
		{ID: "sp1", Grade: "5", Subject: "Matematika", TopicText: "Pecahan"},
	}

	plan := PlanJournalSync(items, nil, nil, year2024)

	if len(plan.Created) != 0 || plan.Skipped != 0 {
		t.Errorf("plan = %+v, want empty", plan)
	}
}
