// Package audit records who ran which sync operation and what it changed.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// Event is one recorded operation.
type Event struct {
	Actor      string
	Action     string
	Collection string
	Data       map[string]any
	CreatedAt  time.Time
}

// Log defines audit recording behavior.
type Log interface {
	Record(ctx context.Context, event Event) error
}

// NopLog ignores all events.
type NopLog struct{}

func (NopLog) Record(context.Context, Event) error {
	return nil
}

// MemoryLog stores events in memory for tests.
type MemoryLog struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{events: []Event{}}
}

func (l *MemoryLog) Record(_ context.Context, event Event) error {
	if event.Action == "" {
		return fmt.Errorf("action is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// PostgresLog inserts events into the audit_events table.
type PostgresLog struct {
	pool *pgxpool.Pool
}

func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{pool: pool}
}

func (l *PostgresLog) Record(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("audit log pool is nil")
	}
	if event.Action == "" {
		return fmt.Errorf("action is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := l.pool.Exec(ctx,
		`INSERT INTO audit_events (actor, action, collection, data, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		event.Actor,
		event.Action,
		event.Collection,
		string(data),
		createdAt,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	slog.Debug("audit event recorded",
		"action", event.Action,
		"actor", event.Actor,
		"collection", event.Collection,
	)
	return nil
}

type actorKey struct{}

// WithActor attaches the acting user's name to the context.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorKey{}, name)
}

// ActorFrom returns the acting user's name, or "" when unauthenticated.
func ActorFrom(ctx context.Context) string {
	if name, ok := ctx.Value(actorKey{}).(string); ok {
		return name
	}
	return ""
}
