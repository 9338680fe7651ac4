package services

import (
	"context"
	"errors"
	"testing"

	"github.com/eduportal/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgressStore(t *testing.T) {
	d := newTestDeps()

	store := NewProgressStore(testIdentity, d.syncer, d.logger)

	assert.NotNil(t, store)
	assert.Equal(t, testIdentity, store.identity)
	assert.Empty(t, store.entries)
}

func TestProgressStore_Load(t *testing.T) {
	tests := []struct {
		name      string
		records   []models.LessonProgressRecord
		fetchErr  error
		lessonIDs []string
		expected  map[string]bool
	}{
		{
			name: "keeps only records of the current user",
			records: []models.LessonProgressRecord{
				record("1_a", true),
				record("2_a", false),
				record("1_b", false),
				record("2_c", true),
			},
			lessonIDs: []string{"a", "b", "c"},
			expected:  map[string]bool{"a": true, "b": false},
		},
		{
			name: "user segment must match exactly",
			records: []models.LessonProgressRecord{
				record("11_a", true),
				record("1_a", false),
			},
			lessonIDs: []string{"a"},
			expected:  map[string]bool{"a": false},
		},
		{
			name: "malformed records are skipped",
			records: []models.LessonProgressRecord{
				record("garbage", true),
				record("_a", true),
				record("1_", true),
				record("1_b", true),
			},
			lessonIDs: []string{"a", "b"},
			expected:  map[string]bool{"b": true},
		},
		{
			name: "records for lessons that were not requested are ignored",
			records: []models.LessonProgressRecord{
				record("1_a", true),
				record("1_z", true),
			},
			lessonIDs: []string{"a"},
			expected:  map[string]bool{"a": true},
		},
		{
			name:      "network error degrades to empty mapping",
			fetchErr:  errors.New("connection refused"),
			lessonIDs: []string{"a"},
			expected:  map[string]bool{},
		},
		{
			name:      "empty id list",
			records:   []models.LessonProgressRecord{record("1_a", true)},
			lessonIDs: []string{},
			expected:  map[string]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			d.lessons.records = tt.records
			d.lessons.fetchErr = tt.fetchErr
			store := NewProgressStore(testIdentity, d.syncer, d.logger)

			result := store.Load(context.Background(), tt.lessonIDs)

			assert.Equal(t, tt.expected, result)
			for id, value := range tt.expected {
				assert.Equal(t, value, store.IsComplete(id))
			}
		})
	}
}

func TestProgressStore_Load_EmptyIDsSkipsRemoteCall(t *testing.T) {
	d := newTestDeps()
	store := NewProgressStore(testIdentity, d.syncer, d.logger)

	store.Load(context.Background(), nil)

	assert.Equal(t, 0, d.lessons.fetchCalls)
}

func TestProgressStore_Toggle(t *testing.T) {
	t.Run("success flips and persists", func(t *testing.T) {
		d := newTestDeps()
		store := NewProgressStore(testIdentity, d.syncer, d.logger)

		value, err := store.Toggle(context.Background(), "a")
		require.NoError(t, err)
		assert.True(t, value)
		assert.True(t, store.IsComplete("a"))

		value, err = store.Toggle(context.Background(), "a")
		require.NoError(t, err)
		assert.False(t, value)
		assert.False(t, store.IsComplete("a"))

		require.Len(t, d.lessons.upserts, 2)
		assert.Equal(t, upsertCall{key: "1_a", isCompleted: true}, d.lessons.upserts[0])
		assert.Equal(t, upsertCall{key: "1_a", isCompleted: false}, d.lessons.upserts[1])
	})

	t.Run("write failure rolls back", func(t *testing.T) {
		d := newTestDeps()
		d.lessons.records = []models.LessonProgressRecord{record("1_a", true)}
		d.lessons.upsertErr = errors.New("503 service unavailable")
		store := NewProgressStore(testIdentity, d.syncer, d.logger)
		store.Load(context.Background(), []string{"a"})
		before := store.IsComplete("a")

		value, err := store.Toggle(context.Background(), "a")

		require.Error(t, err)
		var netErr *NetworkError
		assert.ErrorAs(t, err, &netErr)
		assert.Equal(t, before, value)
		assert.Equal(t, before, store.IsComplete("a"))
	})

	t.Run("write failure on unknown lesson leaves it incomplete", func(t *testing.T) {
		d := newTestDeps()
		d.lessons.upsertErr = errors.New("timeout")
		store := NewProgressStore(testIdentity, d.syncer, d.logger)

		value, err := store.Toggle(context.Background(), "a")

		require.Error(t, err)
		assert.False(t, value)
		assert.False(t, store.IsComplete("a"))
		assert.Empty(t, store.Snapshot([]string{"a"})["a"])
	})
}

func TestProgressStore_Toggle_SecondCallWhileInFlight(t *testing.T) {
	d := newTestDeps()
	d.lessons.started = make(chan struct{})
	d.lessons.release = make(chan struct{})
	store := NewProgressStore(testIdentity, d.syncer, d.logger)

	type result struct {
		value bool
		err   error
	}
	first := make(chan result, 1)
	go func() {
		value, err := store.Toggle(context.Background(), "a")
		first <- result{value: value, err: err}
	}()

	<-d.lessons.started

	value, err := store.Toggle(context.Background(), "a")
	assert.ErrorIs(t, err, ErrToggleInFlight)
	assert.True(t, value, "second call echoes the optimistic value")

	close(d.lessons.release)
	firstResult := <-first

	require.NoError(t, firstResult.err)
	assert.True(t, firstResult.value)
	assert.True(t, store.IsComplete("a"))
	assert.Equal(t, 1, d.lessons.upsertCount())
}

func TestProgressStore_Load_KeepsPendingValue(t *testing.T) {
	d := newTestDeps()
	d.lessons.records = []models.LessonProgressRecord{record("1_a", false)}
	d.lessons.started = make(chan struct{})
	d.lessons.release = make(chan struct{})
	store := NewProgressStore(testIdentity, d.syncer, d.logger)

	done := make(chan struct{})
	go func() {
		store.Toggle(context.Background(), "a")
		close(done)
	}()
	<-d.lessons.started

	loaded := store.Load(context.Background(), []string{"a"})
	assert.True(t, loaded["a"])

	close(d.lessons.release)
	<-done
	assert.True(t, store.IsComplete("a"))
}

func TestProgressStore_IsAllComplete(t *testing.T) {
	d := newTestDeps()
	d.lessons.records = []models.LessonProgressRecord{
		record("1_a", true),
		record("1_b", true),
		record("1_c", false),
	}
	store := NewProgressStore(testIdentity, d.syncer, d.logger)
	store.Load(context.Background(), []string{"a", "b", "c"})

	assert.True(t, store.IsAllComplete([]string{"a", "b"}))
	assert.False(t, store.IsAllComplete([]string{"a", "b", "c"}))
	assert.False(t, store.IsAllComplete([]string{"a", "unknown"}))
	assert.False(t, store.IsAllComplete(nil))
}

func TestProgressStore_IsAllComplete_PendingWrite(t *testing.T) {
	d := newTestDeps()
	d.lessons.records = []models.LessonProgressRecord{record("1_a", true)}
	d.lessons.started = make(chan struct{})
	d.lessons.release = make(chan struct{})
	store := NewProgressStore(testIdentity, d.syncer, d.logger)
	store.Load(context.Background(), []string{"a", "b"})

	done := make(chan struct{})
	go func() {
		store.Toggle(context.Background(), "b")
		close(done)
	}()
	<-d.lessons.started

	assert.True(t, store.IsComplete("b"))
	assert.False(t, store.IsAllComplete([]string{"a", "b"}))

	close(d.lessons.release)
	<-done
	assert.True(t, store.IsAllComplete([]string{"a", "b"}))
}

func TestProgressStore_Reset(t *testing.T) {
	d := newTestDeps()
	d.lessons.records = []models.LessonProgressRecord{record("1_a", true)}
	store := NewProgressStore(testIdentity, d.syncer, d.logger)
	store.Load(context.Background(), []string{"a"})
	require.True(t, store.IsComplete("a"))

	store.Reset()

	assert.False(t, store.IsComplete("a"))
	assert.Empty(t, store.Snapshot([]string{"a"}))
}

func TestProgressStore_Unauthenticated(t *testing.T) {
	d := newTestDeps()
	d.lessons.records = []models.LessonProgressRecord{record("1_a", true)}
	store := NewProgressStore(models.Anonymous, d.syncer, d.logger)

	loaded := store.Load(context.Background(), []string{"a"})

	assert.Empty(t, loaded)
	assert.Equal(t, 0, d.lessons.fetchCalls)
}
