package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrBudgetExhausted is reported when a user has spent their drafting
// budget. No completion call is made.
var ErrBudgetExhausted = errors.New("drafting budget exhausted")

// DraftRequest describes the document a teacher wants drafted.
type DraftRequest struct {
	Task    TaskType `json:"task"`
	UserID  string   `json:"-"`
	Class   string   `json:"class"`
	Subject string   `json:"subject"`
	Topic   string   `json:"topic"`
	Notes   string   `json:"notes,omitempty"`
}

// LessonPlanDraft is the structured result of a lesson-plan draft: the three
// activity phases of one lesson.
type LessonPlanDraft struct {
	Opening string `json:"kegiatanAwal"`
	Main    string `json:"kegiatanInti"`
	Closing string `json:"kegiatanPenutup"`
}

// Draft is the outcome of one drafting call. LessonPlan is set only for
// TaskLessonPlan; every other task yields free text.
type Draft struct {
	Task       TaskType         `json:"task"`
	Text       string           `json:"text,omitempty"`
	LessonPlan *LessonPlanDraft `json:"lesson_plan,omitempty"`
	Tokens     int              `json:"tokens"`
}

// Drafter turns draft requests into prompts, runs them through a provider
// and validates the result. One attempt per request; a malformed response
// is returned as an error for the user to retry.
type Drafter struct {
	provider Provider
	budget   BudgetChecker
	model    string
}

// NewDrafter creates a drafter. budget may be nil to disable budgeting.
func NewDrafter(provider Provider, budget BudgetChecker, model string) *Drafter {
	return &Drafter{provider: provider, budget: budget, model: model}
}

// Draft runs one drafting request.
func (d *Drafter) Draft(ctx context.Context, req DraftRequest) (Draft, error) {
	if req.Subject == "" || req.Topic == "" {
		return Draft{}, fmt.Errorf("subject and topic are required")
	}

	if d.budget != nil {
		ok, err := d.budget.Check(req.UserID)
		if err != nil {
			return Draft{}, fmt.Errorf("checking budget: %w", err)
		}
		if !ok {
			return Draft{}, ErrBudgetExhausted
		}
	}

	resp, err := d.provider.Complete(ctx, CompletionRequest{
		Messages:    buildPrompt(req),
		Model:       d.model,
		Temperature: 0.7,
	})
	if err != nil {
		return Draft{}, fmt.Errorf("completion failed: %w", err)
	}

	if d.budget != nil {
		if err := d.budget.Record(req.UserID, resp.TotalTokens()); err != nil {
			slog.Warn("failed to record token usage", "user", req.UserID, "error", err)
		}
	}

	content := stripCodeFence(resp.Content)
	draft := Draft{Task: req.Task, Tokens: resp.TotalTokens()}

	if req.Task == TaskLessonPlan {
		if err := validateLessonPlanJSON(content); err != nil {
			return Draft{}, err
		}
		var lp LessonPlanDraft
		if err := json.Unmarshal([]byte(content), &lp); err != nil {
			return Draft{}, fmt.Errorf("decoding draft: %w", err)
		}
		draft.LessonPlan = &lp
		return draft, nil
	}

	if strings.TrimSpace(content) == "" {
		return Draft{}, fmt.Errorf("empty draft")
	}
	draft.Text = content
	return draft, nil
}

func buildPrompt(req DraftRequest) []Message {
	system := "Anda adalah asisten guru sekolah dasar di Indonesia. " +
		"Jawab dalam Bahasa Indonesia dengan bahasa yang sesuai untuk dokumen kurikulum resmi."

	var user strings.Builder
	switch req.Task {
	case TaskLessonPlan:
		system += ` Balas HANYA dengan objek JSON berbentuk {"kegiatanAwal": "...", "kegiatanInti": "...", "kegiatanPenutup": "..."} tanpa teks lain.`
		fmt.Fprintf(&user, "Buat rencana pembelajaran untuk mata pelajaran %s kelas %s dengan topik %q.",
			req.Subject, req.Class, req.Topic)
	case TaskWorksheet:
		fmt.Fprintf(&user, "Buat lembar kerja peserta didik untuk mata pelajaran %s kelas %s dengan topik %q. Sertakan 5 soal latihan.",
			req.Subject, req.Class, req.Topic)
	case TaskAssessment:
		fmt.Fprintf(&user, "Buat instrumen penilaian untuk mata pelajaran %s kelas %s dengan topik %q, lengkap dengan rubrik.",
			req.Subject, req.Class, req.Topic)
	case TaskNarrative:
		fmt.Fprintf(&user, "Tulis narasi singkat kegiatan pembelajaran untuk jurnal harian guru: mata pelajaran %s, kelas %s, topik %q. Satu paragraf.",
			req.Subject, req.Class, req.Topic)
	}
	if req.Notes != "" {
		fmt.Fprintf(&user, " Catatan tambahan: %s", req.Notes)
	}

	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user.String()},
	}
}

// stripCodeFence removes a surrounding markdown code fence that models often
// wrap JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
