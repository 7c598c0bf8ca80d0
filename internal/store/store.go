// Package store implements the shared document store: named collections of
// schemaless JSON documents with point writes and collection-level change
// notification. Writes are last-write-wins per field, with no transactions.
package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Collection names. The HTTP layer only accepts names listed here; the store
// itself is generic.
const (
	ColCalendarEvents   = "calendar_events"
	ColWeeklySchedule   = "weekly_schedule"
	ColEffectiveWeeks   = "effective_weeks"
	ColLearningOutcomes = "learning_outcomes"
	ColAnalysisEntries  = "analysis_entries"
	ColFlowObjectives   = "flow_objectives"
	ColYearlyPrograms   = "yearly_programs"
	ColSemesterPrograms = "semester_programs"
	ColLessonPlans      = "lesson_plans"
	ColJournals         = "journals"
	ColWorksheets       = "worksheets"
	ColAssessments      = "assessments"
	ColGrades           = "grades"
	ColUsers            = "users"
)

var knownCollections = map[string]bool{
	ColCalendarEvents:   true,
	ColWeeklySchedule:   true,
	ColEffectiveWeeks:   true,
	ColLearningOutcomes: true,
	ColAnalysisEntries:  true,
	ColFlowObjectives:   true,
	ColYearlyPrograms:   true,
	ColSemesterPrograms: true,
	ColLessonPlans:      true,
	ColJournals:         true,
	ColWorksheets:       true,
	ColAssessments:      true,
	ColGrades:           true,
	ColUsers:            true,
}

// ValidCollection reports whether name is a known collection.
func ValidCollection(name string) bool {
	return knownCollections[name]
}

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one record in a collection.
type Document struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store is the document-store contract the rest of the application depends on.
// List returns a plain snapshot; live updates go through the Bus, never
// through Store reads.
type Store interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, partial map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}

// MemoryStore is a map-backed Store used by tests and as a fallback when no
// database is configured.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	bus         *Bus
}

// NewMemoryStore creates an empty in-memory store. A nil bus is allowed;
// changes are then simply not announced.
func NewMemoryStore(bus *Bus) *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		bus:         bus,
	}
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, cloneDocument(doc))
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Create(_ context.Context, collection string, data map[string]any) (string, error) {
	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}

	now := time.Now()
	doc := Document{
		ID:        generateID(),
		Data:      cloneData(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.collections[collection][doc.ID] = doc
	s.mu.Unlock()

	s.bus.Publish(Change{Collection: collection, Op: OpCreate, ID: doc.ID})
	return doc.ID, nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, partial map[string]any) error {
	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}

	for k, v := range partial {
		doc.Data[k] = v
	}
	doc.UpdatedAt = time.Now()
	s.collections[collection][id] = doc
	s.mu.Unlock()

	s.bus.Publish(Change{Collection: collection, Op: OpUpdate, ID: id})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.bus.Publish(Change{Collection: collection, Op: OpDelete, ID: id})
	return nil
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func cloneDocument(doc Document) Document {
	doc.Data = cloneData(doc.Data)
	return doc
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
