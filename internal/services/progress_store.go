package services

import (
	"context"
	"errors"
	"sync"

	"github.com/eduportal/progress-service/internal/models"
	"go.uber.org/zap"
)

// LessonSyncer is the part of the sync client the progress store depends on
type LessonSyncer interface {
	// FetchLessonProgress retrieves raw progress records for the given lessons
	FetchLessonProgress(ctx context.Context, identity models.Identity, lessonIDs []string) ([]models.LessonProgressRecord, error)
	// WriteLessonCompletion persists the completion flag of a lesson
	WriteLessonCompletion(ctx context.Context, identity models.Identity, lessonID string, isCompleted bool) error
}

// ErrToggleInFlight is returned when a lesson is toggled while its previous write is still pending
var ErrToggleInFlight = errors.New("lesson toggle already in flight")

// lessonEntry is the per-lesson state machine: Clean -> PendingWrite(previous) -> Clean
type lessonEntry struct {
	value    bool
	pending  bool
	previous bool
}

type progressStore struct {
	identity models.Identity
	syncer   LessonSyncer
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[string]*lessonEntry
}

// NewProgressStore creates an empty lesson completion cache for one identity
func NewProgressStore(identity models.Identity, syncer LessonSyncer, logger *zap.Logger) *progressStore {
	return &progressStore{
		identity: identity,
		syncer:   syncer,
		logger:   logger,
		entries:  make(map[string]*lessonEntry),
	}
}

// Load fetches progress records for exactly the given lessons and caches them
//
// Records of other users and malformed records are skipped. Entries with a write in flight keep their optimistic value.
// On fetch failure the error is logged and an empty mapping is returned.
func (s *progressStore) Load(ctx context.Context, lessonIDs []string) map[string]bool {
	result := make(map[string]bool)

	records, err := s.syncer.FetchLessonProgress(ctx, s.identity, lessonIDs)
	if err != nil {
		s.logger.Warn("lesson progress unavailable, showing nothing completed", zap.Error(err))
		return result
	}

	requested := make(map[string]struct{}, len(lessonIDs))
	for _, id := range lessonIDs {
		requested[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		userID, lessonID, err := record.Parse()
		if err != nil {
			s.logger.Warn("skipping malformed progress record", zap.String("key", record.Key), zap.Error(err))
			continue
		}
		if userID != s.identity.UserID {
			continue
		}
		if _, ok := requested[lessonID]; !ok {
			continue
		}

		entry, ok := s.entries[lessonID]
		if !ok {
			entry = &lessonEntry{}
			s.entries[lessonID] = entry
		}
		if !entry.pending {
			entry.value = record.IsCompleted
		}
		result[lessonID] = entry.value
	}

	return result
}

// Toggle flips the cached completion of a lesson and persists it
//
// The new value is applied before the remote write and reverted if the write fails.
// Returns the value currently believed true together with the write error, if any.
func (s *progressStore) Toggle(ctx context.Context, lessonID string) (bool, error) {
	s.mu.Lock()
	entry, ok := s.entries[lessonID]
	if !ok {
		entry = &lessonEntry{}
		s.entries[lessonID] = entry
	}
	if entry.pending {
		value := entry.value
		s.mu.Unlock()
		return value, ErrToggleInFlight
	}
	entry.previous = entry.value
	entry.value = !entry.value
	entry.pending = true
	next := entry.value
	s.mu.Unlock()

	err := s.syncer.WriteLessonCompletion(ctx, s.identity, lessonID, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		entry.value = entry.previous
	}
	entry.pending = false

	return entry.value, err
}

// IsComplete reports whether the lesson is cached as completed
func (s *progressStore) IsComplete(lessonID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[lessonID]
	return ok && entry.value
}

// IsAllComplete reports whether every lesson of a non-empty list is cached as completed
//
// Lessons with a write in flight do not count as completed until the write succeeds.
func (s *progressStore) IsAllComplete(lessonIDs []string) bool {
	if len(lessonIDs) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range lessonIDs {
		entry, ok := s.entries[id]
		if !ok || entry.pending || !entry.value {
			return false
		}
	}
	return true
}

// Snapshot returns the cached values of the given lessons that have a record
func (s *progressStore) Snapshot(lessonIDs []string) map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		if entry, ok := s.entries[id]; ok {
			result[id] = entry.value
		}
	}
	return result
}

// Reset drops every cached entry
func (s *progressStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*lessonEntry)
}
