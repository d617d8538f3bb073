// Package lecturetest provides an in-memory lectures.Store for tests.
package lecturetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lecturenotes/backend/internal/lectures"
	"github.com/lecturenotes/backend/internal/models"
	"github.com/lecturenotes/backend/pkg/apperr"
)

// Store keeps lectures in a map. FailUpdates makes every update return a
// storage error.
type Store struct {
	mu          sync.Mutex
	lectures    map[uuid.UUID]models.Lecture
	FailUpdates error
	Writes      int
}

var _ lectures.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{lectures: make(map[uuid.UUID]models.Lecture)}
}

// Add inserts a lecture directly and returns it.
func (s *Store) Add(name string, unitID uuid.UUID) *models.Lecture {
	l := &models.Lecture{Name: name, UnitID: unitID}
	_ = s.Create(context.Background(), l)
	return l
}

// Get returns a copy of the stored lecture, or nil.
func (s *Store) Get(id uuid.UUID) *models.Lecture {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lectures[id]
	if !ok {
		return nil
	}
	return &l
}

func (s *Store) Create(_ context.Context, l *models.Lecture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	l.ID = uuid.New()
	l.CreatedAt, l.UpdatedAt = now, now
	s.lectures[l.ID] = *l
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*models.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lectures[id]
	if !ok {
		return nil, apperr.NotFound("lecture not found")
	}
	return &l, nil
}

func (s *Store) ListByUnit(_ context.Context, unitID uuid.UUID) ([]models.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []models.Lecture{}
	for _, l := range s.lectures {
		if l.UnitID == unitID {
			list = append(list, l)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) (*models.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lectures[id]
	if !ok {
		return nil, apperr.NotFound("lecture not found")
	}
	delete(s.lectures, id)
	return &l, nil
}

func (s *Store) UpdateAudioURL(_ context.Context, id uuid.UUID, v *string) (*models.Lecture, error) {
	return s.update(id, func(l *models.Lecture) { l.AudioURL = v })
}

func (s *Store) UpdateTranscript(_ context.Context, id uuid.UUID, v *string) (*models.Lecture, error) {
	return s.update(id, func(l *models.Lecture) { l.Transcript = v })
}

func (s *Store) UpdateNotes(_ context.Context, id uuid.UUID, v *string) (*models.Lecture, error) {
	return s.update(id, func(l *models.Lecture) { l.Notes = v })
}

func (s *Store) UpdateSummary(_ context.Context, id uuid.UUID, v *string) (*models.Lecture, error) {
	return s.update(id, func(l *models.Lecture) { l.AISummary = v })
}

func (s *Store) update(id uuid.UUID, apply func(*models.Lecture)) (*models.Lecture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdates != nil {
		return nil, apperr.Storage("failed to update lecture", s.FailUpdates)
	}
	l, ok := s.lectures[id]
	if !ok {
		return nil, apperr.NotFound("lecture not found")
	}
	apply(&l)
	l.UpdatedAt = time.Now()
	s.lectures[id] = l
	s.Writes++
	return &l, nil
}

// Notifier records notifications.
type Notifier struct {
	mu     sync.Mutex
	Events []Event
}

// Event is one recorded notification.
type Event struct {
	Name      string
	LectureID uuid.UUID
	Fields    []string
}

func (n *Notifier) NotifyLecture(event string, l *models.Lecture, fields ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, Event{Name: event, LectureID: l.ID, Fields: fields})
}

// Snapshot returns a copy of the recorded events.
func (n *Notifier) Snapshot() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.Events...)
}
