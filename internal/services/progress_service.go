package services

import (
	"context"
	"fmt"

	"github.com/eduportal/progress-service/internal/models"
)

type progressService struct {
	sessions *sessionRegistry
}

// NewProgressService creates the progress service exposed to the presentation layer
func NewProgressService(sessions *sessionRegistry) *progressService {
	return &progressService{
		sessions: sessions,
	}
}

// GetCoursesProgress retrieves every course with its progress summary
func (s *progressService) GetCoursesProgress(ctx context.Context, identity models.Identity) ([]models.CourseProgressResponse, error) {
	courses, err := s.sessions.Get(identity).CourseOverview(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	return courses, nil
}

// GetCourseProgress retrieves the progress summary of one course
func (s *progressService) GetCourseProgress(ctx context.Context, identity models.Identity, courseID string) models.CourseProgressSummary {
	return s.sessions.Get(identity).ProgressFor(ctx, courseID)
}

// GetProgressSummaries retrieves the progress summary of every course with lessons
func (s *progressService) GetProgressSummaries(ctx context.Context, identity models.Identity) []models.CourseProgressSummary {
	return s.sessions.Get(identity).ProgressForAll(ctx)
}

// ViewCourse records the first view of a course
func (s *progressService) ViewCourse(ctx context.Context, identity models.Identity, courseID string) error {
	if err := s.sessions.Get(identity).ViewCourse(ctx, courseID); err != nil {
		return fmt.Errorf("failed to record course view: %w", err)
	}
	return nil
}

// GetLessonCompletion reports whether a lesson is completed
func (s *progressService) GetLessonCompletion(ctx context.Context, identity models.Identity, lessonID string) bool {
	return s.sessions.Get(identity).IsLessonComplete(ctx, lessonID)
}

// ToggleLessonCompletion toggles the completion of a lesson and returns the resulting value
func (s *progressService) ToggleLessonCompletion(ctx context.Context, identity models.Identity, lessonID string) (bool, error) {
	value, err := s.sessions.Get(identity).MarkLessonComplete(ctx, lessonID)
	if err != nil {
		return value, fmt.Errorf("failed to toggle lesson completion: %w", err)
	}
	return value, nil
}

// StartQuiz records a quiz as in progress
func (s *progressService) StartQuiz(ctx context.Context, identity models.Identity, quizID string) error {
	if err := s.sessions.Get(identity).StartQuiz(ctx, quizID); err != nil {
		return fmt.Errorf("failed to start quiz: %w", err)
	}
	return nil
}

// SubmitQuiz records a quiz as completed with the earned score
func (s *progressService) SubmitQuiz(ctx context.Context, identity models.Identity, quizID string, score float64) error {
	if score < 0 {
		return ErrInvalidScore
	}
	if err := s.sessions.Get(identity).SubmitQuiz(ctx, quizID, score); err != nil {
		return fmt.Errorf("failed to submit quiz: %w", err)
	}
	return nil
}

// GetQuizStatus returns the session's view of a quiz attempt
func (s *progressService) GetQuizStatus(ctx context.Context, identity models.Identity, quizID string) models.QuizAttemptStatus {
	return s.sessions.Get(identity).QuizStatus(quizID)
}

// ResetSession drops the cached progress of the user
func (s *progressService) ResetSession(ctx context.Context, identity models.Identity) {
	if identity.UserID == "" {
		return
	}
	s.sessions.Reset(identity.UserID)
}
