package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const validLessonPlanJSON = `{
	"kegiatanAwal": "Guru membuka pelajaran dengan salam dan apersepsi.",
	"kegiatanInti": "Peserta didik berdiskusi tentang pecahan senilai.",
	"kegiatanPenutup": "Guru dan peserta didik menyimpulkan pembelajaran."
}`

func TestDrafter_LessonPlan(t *testing.T) {
	mock := NewMockProvider(validLessonPlanJSON)
	d := NewDrafter(mock, nil, "gpt-4o-mini")

	draft, err := d.Draft(context.Background(), DraftRequest{
		Task: TaskLessonPlan, Class: "5", Subject: "Matematika", Topic: "Pecahan Senilai",
	})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}

	if draft.LessonPlan == nil {
		t.Fatal("LessonPlan is nil")
	}
	if !strings.Contains(draft.LessonPlan.Main, "pecahan senilai") {
		t.Errorf("Main = %q, want the drafted core activity", draft.LessonPlan.Main)
	}
	if draft.Text != "" {
		t.Errorf("Text = %q, want empty for a structured draft", draft.Text)
	}
	if draft.Tokens == 0 {
		t.Error("Tokens = 0, want usage reported")
	}
}

func TestDrafter_LessonPlanStripsCodeFence(t *testing.T) {
	mock := NewMockProvider("```json\n" + validLessonPlanJSON + "\n```")
	d := NewDrafter(mock, nil, "gpt-4o-mini")

	draft, err := d.Draft(context.Background(), DraftRequest{
		Task: TaskLessonPlan, Class: "5", Subject: "Matematika", Topic: "Pecahan",
	})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}
	if draft.LessonPlan == nil || draft.LessonPlan.Opening == "" {
		t.Error("fenced JSON should decode like bare JSON")
	}
}

func TestDrafter_LessonPlanRejectsMissingPhase(t *testing.T) {
	mock := NewMockProvider(`{"kegiatanAwal": "Salam.", "kegiatanInti": "Diskusi."}`)
	d := NewDrafter(mock, nil, "gpt-4o-mini")

	_, err := d.Draft(context.Background(), DraftRequest{
		Task: TaskLessonPlan, Class: "5", Subject: "Matematika", Topic: "Pecahan",
	})
	if err == nil {
		t.Fatal("a draft missing kegiatanPenutup must be rejected")
	}
}

func TestDrafter_LessonPlanRejectsNonJSON(t *testing.T) {
	mock := NewMockProvider("Maaf, saya tidak bisa membantu.")
	d := NewDrafter(mock, nil, "gpt-4o-mini")

	_, err := d.Draft(context.Background(), DraftRequest{
		Task: TaskLessonPlan, Class: "5", Subject: "Matematika", Topic: "Pecahan",
	})
	if err == nil {
		t.Fatal("a prose answer to a structured task must be rejected")
	}
}

func TestDrafter_NarrativeReturnsText(t *testing.T) {
	mock := NewMockProvider("Hari ini peserta didik belajar pecahan dengan antusias.")
	d := NewDrafter(mock, nil, "gpt-4o-mini")

	draft, err := d.Draft(context.Background(), DraftRequest{
		Task: TaskNarrative, Class: "5", Subject: "Matematika", Topic: "Pecahan",
	})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}
	if draft.Text == "" || draft.LessonPlan != nil {
		t.Errorf("draft = %+v, want free text only", draft)
	}
}

func TestDrafter_RequiresSubjectAndTopic(t *testing.T) {
	d := NewDrafter(NewMockProvider("x"), nil, "gpt-4o-mini")

	if _, err := d.Draft(context.Background(), DraftRequest{Task: TaskNarrative, Topic: "Pecahan"}); err == nil {
		t.Error("missing subject should be rejected")
	}
	if _, err := d.Draft(context.Background(), DraftRequest{Task: TaskNarrative, Subject: "IPA"}); err == nil {
		t.Error("missing topic should be rejected")
	}
}

func TestDrafter_PromptMentionsTaskDetails(t *testing.T) {
	mock := NewMockProvider("soal latihan")
	d := NewDrafter(mock, nil, "gpt-4o-mini")

	_, err := d.Draft(context.Background(), DraftRequest{
		Task: TaskWorksheet, Class: "3", Subject: "IPA", Topic: "Fotosintesis", Notes: "fokus pada daun",
	})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}

	user := mock.LastRequest.Messages[1].Content
	for _, want := range []string{"IPA", "3", "Fotosintesis", "fokus pada daun"} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt %q does not mention %q", user, want)
		}
	}
}

func TestDrafter_BudgetExhausted(t *testing.T) {
	budget := NewInMemoryBudget(10)
	budget.Record("bu-siti", 10)

	mock := NewMockProvider(validLessonPlanJSON)
	d := NewDrafter(mock, budget, "gpt-4o-mini")

	_, err := d.Draft(context.Background(), DraftRequest{
		Task: TaskLessonPlan, UserID: "bu-siti", Class: "5", Subject: "Matematika", Topic: "Pecahan",
	})
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("error = %v, want ErrBudgetExhausted", err)
	}
	if mock.LastRequest != nil {
		t.Error("no completion call should be made over budget")
	}
}

func TestDrafter_RecordsUsage(t *testing.T) {
	budget := NewInMemoryBudget(0)
	d := NewDrafter(NewMockProvider("narasi"), budget, "gpt-4o-mini")

	_, err := d.Draft(context.Background(), DraftRequest{
		Task: TaskNarrative, UserID: "bu-siti", Class: "5", Subject: "IPA", Topic: "Gaya",
	})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}

	used, _, _ := budget.Usage("bu-siti")
	if used == 0 {
		t.Error("usage not recorded")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\": 1}", "{\"a\": 1}"},
		{"```json\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"```\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"  {\"a\": 1}  ", "{\"a\": 1}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
