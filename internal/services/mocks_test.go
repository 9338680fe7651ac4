package services

import (
	"context"
	"sync"

	"github.com/eduportal/progress-service/internal/models"
	"go.uber.org/zap"
)

// mockLessonGateway is a mock implementation of LessonProgressGateway
type mockLessonGateway struct {
	mu         sync.Mutex
	records    []models.LessonProgressRecord
	fetchErr   error
	upsertErr  error
	fetchCalls int
	upserts    []upsertCall
	// per-key upsert errors, checked before upsertErr
	keyErrs map[string]error
	// when set, UpsertLessonProgress signals "started" and waits for "release"
	started chan struct{}
	release chan struct{}
	// limits the blocking above to one key, empty blocks every key
	blockKey string
}

type upsertCall struct {
	key         string
	isCompleted bool
}

func (m *mockLessonGateway) FetchLessonProgress(ctx context.Context, identity models.Identity, lessonIDs []string) ([]models.LessonProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.records, nil
}

func (m *mockLessonGateway) UpsertLessonProgress(ctx context.Context, identity models.Identity, key string, isCompleted bool) error {
	if m.started != nil && (m.blockKey == "" || m.blockKey == key) {
		m.started <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, upsertCall{key: key, isCompleted: isCompleted})
	if err, ok := m.keyErrs[key]; ok {
		return err
	}
	return m.upsertErr
}

func (m *mockLessonGateway) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserts)
}

// mockCourseStatusGateway is a mock implementation of CourseStatusGateway
type mockCourseStatusGateway struct {
	mu        sync.Mutex
	statuses  map[string]models.CourseStatus
	fetchErr  error
	upsertErr error
	upserts   []statusCall
}

type statusCall struct {
	key    string
	status models.CourseStatus
}

func (m *mockCourseStatusGateway) FetchCourseStatuses(ctx context.Context, identity models.Identity) (map[string]models.CourseStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	result := make(map[string]models.CourseStatus, len(m.statuses))
	for k, v := range m.statuses {
		result[k] = v
	}
	return result, nil
}

func (m *mockCourseStatusGateway) UpsertCourseStatus(ctx context.Context, identity models.Identity, key string, status models.CourseStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, statusCall{key: key, status: status})
	return m.upsertErr
}

func (m *mockCourseStatusGateway) callsWith(status models.CourseStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.upserts {
		if call.status == status {
			count++
		}
	}
	return count
}

// mockQuizGateway is a mock implementation of QuizAttemptGateway
type mockQuizGateway struct {
	err     error
	upserts []quizCall
}

type quizCall struct {
	key    string
	status models.QuizStatus
	score  *float64
}

func (m *mockQuizGateway) UpsertQuizAttempt(ctx context.Context, identity models.Identity, key string, status models.QuizStatus, score *float64) error {
	m.upserts = append(m.upserts, quizCall{key: key, status: status, score: score})
	return m.err
}

// mockContentRepository is a mock implementation of ContentRepository
type mockContentRepository struct {
	memberships []models.CourseLessonMembership
	courses     []models.Course
	err         error
	calls       int
}

func (m *mockContentRepository) GetAllCourseLessons(ctx context.Context, token string) ([]models.CourseLessonMembership, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.memberships, nil
}

func (m *mockContentRepository) GetCourses(ctx context.Context, token string) ([]models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.courses, nil
}

var testIdentity = models.Identity{UserID: "1", Token: "token-1"}

type testDeps struct {
	lessons *mockLessonGateway
	courses *mockCourseStatusGateway
	quizzes *mockQuizGateway
	content *mockContentRepository
	syncer  *syncClient
	logger  *zap.Logger
}

func newTestDeps() *testDeps {
	logger := zap.NewNop()
	d := &testDeps{
		lessons: &mockLessonGateway{},
		courses: &mockCourseStatusGateway{},
		quizzes: &mockQuizGateway{},
		content: &mockContentRepository{},
		logger:  logger,
	}
	d.syncer = NewSyncClient(d.lessons, d.courses, d.quizzes, logger)
	return d
}

func record(key string, completed bool) models.LessonProgressRecord {
	return models.LessonProgressRecord{Key: key, IsCompleted: completed}
}
