package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/eduportal/progress-service/internal/models"
	"go.uber.org/zap"
)

// LessonProgressGateway defines methods for lesson progress data access in the backing store
type LessonProgressGateway interface {
	// FetchLessonProgress retrieves progress records for the given lessons in a single request
	//
	// "identity" carries the bearer token (and user id) used for the request.
	// "lessonIDs" is the non-empty list of lesson document ids to look up.
	//
	// The backing store is not required to filter by user, so records of other users may be returned.
	FetchLessonProgress(ctx context.Context, identity models.Identity, lessonIDs []string) ([]models.LessonProgressRecord, error)
	// UpsertLessonProgress creates or updates the record identified by "key"
	UpsertLessonProgress(ctx context.Context, identity models.Identity, key string, isCompleted bool) error
}

// CourseStatusGateway defines methods for coarse course status data access
type CourseStatusGateway interface {
	// FetchCourseStatuses retrieves the coarse status of every course the user has a record for, keyed by course id
	FetchCourseStatuses(ctx context.Context, identity models.Identity) (map[string]models.CourseStatus, error)
	// UpsertCourseStatus creates or updates the status record identified by "key"
	UpsertCourseStatus(ctx context.Context, identity models.Identity, key string, status models.CourseStatus) error
}

// QuizAttemptGateway defines methods for quiz attempt data access
type QuizAttemptGateway interface {
	// UpsertQuizAttempt creates or updates the attempt record identified by "key"
	UpsertQuizAttempt(ctx context.Context, identity models.Identity, key string, status models.QuizStatus, score *float64) error
}

var (
	// ErrBackwardTransition is returned when a completed course would be moved back to in progress
	ErrBackwardTransition = errors.New("course status cannot move backward")
	// ErrInvalidScore is returned when a quiz submission carries no score or a negative one
	ErrInvalidScore = errors.New("invalid quiz score")
	// ErrInvalidStatus is returned for status values outside of the known set
	ErrInvalidStatus = errors.New("invalid status")
)

// NetworkError wraps a failure of the backing store transport
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type syncClient struct {
	lessons LessonProgressGateway
	courses CourseStatusGateway
	quizzes QuizAttemptGateway
	logger  *zap.Logger

	mu           sync.Mutex
	seenStatuses map[string]models.CourseStatus // key: composite user/course key
}

// NewSyncClient creates the only component allowed to read from and write to the backing store
func NewSyncClient(lessons LessonProgressGateway, courses CourseStatusGateway, quizzes QuizAttemptGateway, logger *zap.Logger) *syncClient {
	return &syncClient{
		lessons:      lessons,
		courses:      courses,
		quizzes:      quizzes,
		logger:       logger,
		seenStatuses: make(map[string]models.CourseStatus),
	}
}

// FetchLessonProgress retrieves raw progress records for the given lessons
//
// Returns an empty result without a remote call for an unauthenticated identity or an empty id list.
func (c *syncClient) FetchLessonProgress(ctx context.Context, identity models.Identity, lessonIDs []string) ([]models.LessonProgressRecord, error) {
	if !identity.IsAuthenticated() {
		c.logger.Debug("skipping lesson progress fetch for unauthenticated identity")
		return []models.LessonProgressRecord{}, nil
	}
	if len(lessonIDs) == 0 {
		return []models.LessonProgressRecord{}, nil
	}

	records, err := c.lessons.FetchLessonProgress(ctx, identity, lessonIDs)
	if err != nil {
		c.logger.Error("failed to fetch lesson progress", zap.Error(err), zap.Int("lessons", len(lessonIDs)))
		return nil, &NetworkError{Op: "fetch lesson progress", Err: err}
	}

	return records, nil
}

// WriteLessonCompletion persists the completion flag of a lesson for the identity's user
func (c *syncClient) WriteLessonCompletion(ctx context.Context, identity models.Identity, lessonID string, isCompleted bool) error {
	if !identity.IsAuthenticated() {
		c.logger.Debug("skipping lesson completion write for unauthenticated identity")
		return nil
	}

	key, err := models.CompositeKey(identity.UserID, lessonID)
	if err != nil {
		return fmt.Errorf("failed to build lesson progress key: %w", err)
	}

	if err := c.lessons.UpsertLessonProgress(ctx, identity, key, isCompleted); err != nil {
		c.logger.Error("failed to write lesson completion",
			zap.Error(err),
			zap.String("lesson_id", lessonID),
			zap.Bool("is_completed", isCompleted),
		)
		return &NetworkError{Op: "write lesson completion", Err: err}
	}

	return nil
}

// FetchCourseStatuses retrieves the coarse course statuses of the identity's user
func (c *syncClient) FetchCourseStatuses(ctx context.Context, identity models.Identity) (map[string]models.CourseStatus, error) {
	if !identity.IsAuthenticated() {
		return map[string]models.CourseStatus{}, nil
	}

	statuses, err := c.courses.FetchCourseStatuses(ctx, identity)
	if err != nil {
		c.logger.Error("failed to fetch course statuses", zap.Error(err))
		return nil, &NetworkError{Op: "fetch course statuses", Err: err}
	}

	c.mu.Lock()
	for courseID, status := range statuses {
		if key, err := models.CompositeKey(identity.UserID, courseID); err == nil {
			c.seenStatuses[key] = status
		}
	}
	c.mu.Unlock()

	return statuses, nil
}

// WriteCourseStatus persists the coarse status of a course for the identity's user
//
// A course already known to be completed is never moved back to in progress.
func (c *syncClient) WriteCourseStatus(ctx context.Context, identity models.Identity, courseID string, status models.CourseStatus) error {
	if !identity.IsAuthenticated() {
		c.logger.Debug("skipping course status write for unauthenticated identity")
		return nil
	}
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	key, err := models.CompositeKey(identity.UserID, courseID)
	if err != nil {
		return fmt.Errorf("failed to build course status key: %w", err)
	}

	c.mu.Lock()
	previous := c.seenStatuses[key]
	c.mu.Unlock()
	if previous == models.CourseStatusCompleted && status != models.CourseStatusCompleted {
		return fmt.Errorf("%w: course %s", ErrBackwardTransition, courseID)
	}

	if err := c.courses.UpsertCourseStatus(ctx, identity, key, status); err != nil {
		c.logger.Error("failed to write course status",
			zap.Error(err),
			zap.String("course_id", courseID),
			zap.String("status", string(status)),
		)
		return &NetworkError{Op: "write course status", Err: err}
	}

	c.mu.Lock()
	c.seenStatuses[key] = status
	c.mu.Unlock()

	return nil
}

// Forget drops the course statuses remembered for a user
func (c *syncClient) Forget(userID string) {
	prefix := userID + models.KeyDelimiter

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.seenStatuses {
		if strings.HasPrefix(key, prefix) {
			delete(c.seenStatuses, key)
		}
	}
}

// WriteQuizAttempt persists the state of a quiz attempt for the identity's user
//
// "in_progress" attempts carry no score, "completed" attempts require a non-negative one.
func (c *syncClient) WriteQuizAttempt(ctx context.Context, identity models.Identity, quizID string, status models.QuizStatus, score *float64) error {
	if !identity.IsAuthenticated() {
		c.logger.Debug("skipping quiz attempt write for unauthenticated identity")
		return nil
	}

	switch status {
	case models.QuizStatusInProgress:
		score = nil
	case models.QuizStatusCompleted:
		if score == nil || *score < 0 {
			return ErrInvalidScore
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	key, err := models.CompositeKey(identity.UserID, quizID)
	if err != nil {
		return fmt.Errorf("failed to build quiz attempt key: %w", err)
	}

	if err := c.quizzes.UpsertQuizAttempt(ctx, identity, key, status, score); err != nil {
		c.logger.Error("failed to write quiz attempt",
			zap.Error(err),
			zap.String("quiz_id", quizID),
			zap.String("status", string(status)),
		)
		return &NetworkError{Op: "write quiz attempt", Err: err}
	}

	return nil
}
