package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sekolahku/kurikulum/internal/ai"
	"github.com/sekolahku/kurikulum/internal/audit"
	"github.com/sekolahku/kurikulum/internal/auth"
	"github.com/sekolahku/kurikulum/internal/curriculum"
	"github.com/sekolahku/kurikulum/internal/export"
	"github.com/sekolahku/kurikulum/internal/planner"
	"github.com/sekolahku/kurikulum/internal/platform/config"
	"github.com/sekolahku/kurikulum/internal/platform/database"
	"github.com/sekolahku/kurikulum/internal/store"
)

// app holds the wired dependencies behind the HTTP surface.
type app struct {
	cfg     *config.Config
	store   store.Store
	bus     *store.Bus
	planner *planner.Service
	auth    *auth.Service
	drafter *ai.Drafter // nil when no provider is configured
	year    curriculum.AcademicYear
	db      *database.DB // nil in memory mode
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	mux.HandleFunc("POST /api/login", a.handleLogin)

	mux.Handle("POST /api/logout", a.requireAuth(a.handleLogout))
	mux.Handle("GET /api/me", a.requireAuth(a.handleMe))

	mux.Handle("GET /api/collections/{collection}", a.requireAuth(a.handleList))
	mux.Handle("POST /api/collections/{collection}", a.requireAuth(a.handleCreate))
	mux.Handle("GET /api/collections/{collection}/{id}", a.requireAuth(a.handleGet))
	mux.Handle("PUT /api/collections/{collection}/{id}", a.requireAuth(a.handleUpdate))
	mux.Handle("DELETE /api/collections/{collection}/{id}", a.requireAuth(a.handleDelete))

	mux.Handle("POST /api/sync/effective-weeks", a.requireAuth(a.handleSyncEffectiveWeeks))
	mux.Handle("POST /api/sync/schedule", a.requireAuth(a.handleSyncSchedule))
	mux.Handle("POST /api/sync/propagate", a.requireAuth(a.handleSyncPropagate))
	mux.Handle("POST /api/sync/journal", a.requireAuth(a.handleSyncJournal))

	mux.Handle("POST /api/draft", a.requireAuth(a.handleDraft))

	mux.Handle("GET /api/export/semester-program", a.requireAuth(a.handleExportSemesterProgram))
	mux.Handle("GET /api/export/journal", a.requireAuth(a.handleExportJournal))

	mux.Handle("GET /ws", a.requireAuth(a.handleWS))

	return mux
}

func (a *app) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		if err := a.db.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	user, token, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		a.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	writeJSON(w, http.StatusOK, user)
}

// collectionFrom resolves and validates the collection path segment. The
// users collection is managed through the auth endpoints only; its documents
// carry password hashes.
func collectionFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	collection := r.PathValue("collection")
	if !store.ValidCollection(collection) || collection == store.ColUsers {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown collection %q", collection))
		return "", false
	}
	return collection, true
}

func (a *app) handleList(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(w, r)
	if !ok {
		return
	}

	docs, err := a.store.List(r.Context(), collection)
	if err != nil {
		a.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (a *app) handleCreate(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(w, r)
	if !ok {
		return
	}

	var data map[string]any
	if !readJSON(w, r, &data) {
		return
	}

	id, err := a.store.Create(r.Context(), collection, data)
	if err != nil {
		a.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *app) handleGet(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(w, r)
	if !ok {
		return
	}

	doc, err := a.store.Get(r.Context(), collection, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *app) handleUpdate(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(w, r)
	if !ok {
		return
	}

	var partial map[string]any
	if !readJSON(w, r, &partial) {
		return
	}

	err := a.store.Update(r.Context(), collection, r.PathValue("id"), partial)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleDelete(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(w, r)
	if !ok {
		return
	}

	// There are no cascade deletes; removing an upstream record is an
	// administrative decision.
	if user, _ := userFrom(r.Context()); !user.IsAdmin() {
		writeError(w, http.StatusForbidden, fmt.Errorf("only an admin can delete documents"))
		return
	}

	err := a.store.Delete(r.Context(), collection, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		a.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleSyncEffectiveWeeks(w http.ResponseWriter, r *http.Request) {
	var filter curriculum.Filter
	if !readJSON(w, r, &filter) {
		return
	}
	a.writeSyncResult(w)(a.planner.SyncEffectiveWeeks(r.Context(), filter))
}

func (a *app) handleSyncSchedule(w http.ResponseWriter, r *http.Request) {
	var filter curriculum.Filter
	if !readJSON(w, r, &filter) {
		return
	}
	a.writeSyncResult(w)(a.planner.ScheduleSemester(r.Context(), filter))
}

func (a *app) handleSyncPropagate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string            `json:"from"`
		To     string            `json:"to"`
		Filter curriculum.Filter `json:"filter"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	from, okFrom := curriculum.StageByName(req.From)
	to, okTo := curriculum.StageByName(req.To)
	if !okFrom || !okTo {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown stage in %q -> %q", req.From, req.To))
		return
	}
	if to != from+1 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("stages are sequential; cannot propagate %s -> %s", req.From, req.To))
		return
	}

	a.writeSyncResult(w)(a.planner.Propagate(r.Context(), from, to, req.Filter))
}

func (a *app) handleSyncJournal(w http.ResponseWriter, r *http.Request) {
	var filter curriculum.Filter
	if !readJSON(w, r, &filter) {
		return
	}
	a.writeSyncResult(w)(a.planner.SyncJournal(r.Context(), filter))
}

// writeSyncResult maps planner errors to status codes: incomplete selections
// and impossible schedules are the user's to fix, everything else is ours.
func (a *app) writeSyncResult(w http.ResponseWriter) func(planner.SyncResult, error) {
	return func(result planner.SyncResult, err error) {
		switch {
		case errors.Is(err, planner.ErrInvalidFilter):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, planner.ErrNoSchedule):
			writeError(w, http.StatusConflict, fmt.Errorf("no weekly schedule for this class and subject; nothing was changed"))
		case err != nil:
			a.serverError(w, err)
		default:
			writeJSON(w, http.StatusOK, result)
		}
	}
}

func (a *app) handleDraft(w http.ResponseWriter, r *http.Request) {
	if a.drafter == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("no drafting provider configured"))
		return
	}

	var req struct {
		Task    string `json:"task"`
		Class   string `json:"class"`
		Subject string `json:"subject"`
		Topic   string `json:"topic"`
		Notes   string `json:"notes"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	task, ok := taskByName(req.Task)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown task %q", req.Task))
		return
	}

	user, _ := userFrom(r.Context())
	draft, err := a.drafter.Draft(r.Context(), ai.DraftRequest{
		Task:    task,
		UserID:  user.ID,
		Class:   req.Class,
		Subject: req.Subject,
		Topic:   req.Topic,
		Notes:   req.Notes,
	})
	if errors.Is(err, ai.ErrBudgetExhausted) {
		writeError(w, http.StatusTooManyRequests, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func taskByName(name string) (ai.TaskType, bool) {
	for _, t := range []ai.TaskType{ai.TaskLessonPlan, ai.TaskWorksheet, ai.TaskAssessment, ai.TaskNarrative} {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

func (a *app) handleExportSemesterProgram(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	if filter.Class == "" || filter.Subject == "" || filter.Semester == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("class, subject and semester are required"))
		return
	}

	items, err := a.listItems(r.Context(), store.ColSemesterPrograms, filter)
	if err != nil {
		a.serverError(w, err)
		return
	}

	weekDocs, err := a.store.List(r.Context(), store.ColEffectiveWeeks)
	if err != nil {
		a.serverError(w, err)
		return
	}
	var weeks []curriculum.EffectiveWeeksRecord
	for _, doc := range weekDocs {
		rec := curriculum.WeeksFromDocument(doc)
		if rec.Class == filter.Class && rec.Semester == filter.Semester {
			weeks = append(weeks, rec)
		}
	}

	buf, err := export.SemesterProgram(a.exportMeta(filter), items, weeks)
	if err != nil {
		a.serverError(w, err)
		return
	}
	writeWorkbook(w, "program-semester.xlsx", buf.Bytes())
}

func (a *app) handleExportJournal(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	docs, err := a.store.List(r.Context(), store.ColJournals)
	if err != nil {
		a.serverError(w, err)
		return
	}

	var entries []curriculum.JournalEntry
	for _, doc := range docs {
		entry := curriculum.JournalFromDocument(doc)
		if filter.Class != "" && entry.Class != filter.Class {
			continue
		}
		if filter.Subject != "" && entry.Subject != filter.Subject {
			continue
		}
		entries = append(entries, entry)
	}

	buf, err := export.Journal(a.exportMeta(filter), entries)
	if err != nil {
		a.serverError(w, err)
		return
	}
	writeWorkbook(w, "jurnal-harian.xlsx", buf.Bytes())
}

func (a *app) exportMeta(filter curriculum.Filter) export.Meta {
	return export.Meta{
		SchoolName: a.cfg.SchoolName,
		Class:      filter.Class,
		Subject:    filter.Subject,
		Semester:   filter.Semester,
		Year:       a.year,
	}
}

func (a *app) listItems(ctx context.Context, collection string, filter curriculum.Filter) ([]curriculum.Item, error) {
	docs, err := a.store.List(ctx, collection)
	if err != nil {
		return nil, err
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

func filterFromQuery(r *http.Request) curriculum.Filter {
	q := r.URL.Query()
	filter := curriculum.Filter{
		Phase:   q.Get("phase"),
		Class:   q.Get("class"),
		Subject: q.Get("subject"),
	}
	switch q.Get("semester") {
	case "1":
		filter.Semester = 1
	case "2":
		filter.Semester = 2
	}
	return filter
}

type userKey struct{}

func userFrom(ctx context.Context) (auth.User, bool) {
	user, ok := ctx.Value(userKey{}).(auth.User)
	return user, ok
}

// requireAuth resolves the bearer token and stamps the user onto the request
// context, both for handlers and for the audit trail.
func (a *app) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("missing bearer token"))
			return
		}

		user, err := a.auth.UserFromToken(r.Context(), token)
		if errors.Is(err, auth.ErrSessionNotFound) {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("session expired"))
			return
		}
		if err != nil {
			a.serverError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		ctx = audit.WithActor(ctx, user.Username)
		next(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	// The websocket handshake cannot set headers from a browser.
	return r.URL.Query().Get("token")
}

func (a *app) serverError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, fmt.Errorf("internal error"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return false
	}
	return true
}

func writeWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
