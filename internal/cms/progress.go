package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/eduportal/progress-service/internal/models"
	"go.uber.org/zap"
)

const (
	lessonProgressPath = "/api/lesson-progresses"
	courseStatusPath   = "/api/course-statuses"
	quizAttemptPath    = "/api/quiz-attempts"
)

type lessonProgressDTO struct {
	DocumentID  string `json:"documentId"`
	Key         string `json:"key"`
	IsCompleted bool   `json:"isCompleted"`
}

type courseStatusDTO struct {
	DocumentID string              `json:"documentId"`
	Key        string              `json:"key"`
	Status     models.CourseStatus `json:"status"`
}

type lessonProgressPayload struct {
	IsCompleted bool `json:"isCompleted"`
}

type courseStatusPayload struct {
	Status models.CourseStatus `json:"status"`
}

type quizAttemptPayload struct {
	Status models.QuizStatus `json:"status"`
	Score  *float64          `json:"score,omitempty"`
}

// FetchLessonProgress retrieves the progress records whose key ends with one of the lesson ids
//
// The CMS filters by lesson only; records of other users sharing the lessons may be part of the result.
// Lesson ids are sent in batches of at most c.filterBatch per request.
func (c *client) FetchLessonProgress(ctx context.Context, identity models.Identity, lessonIDs []string) ([]models.LessonProgressRecord, error) {
	records := make([]models.LessonProgressRecord, 0, len(lessonIDs))

	for start := 0; start < len(lessonIDs); start += c.filterBatch {
		end := min(start+c.filterBatch, len(lessonIDs))

		query := url.Values{}
		for i, id := range lessonIDs[start:end] {
			query.Set(fmt.Sprintf("filters[$or][%d][key][$endsWith]", i), models.KeyDelimiter+id)
		}

		items, err := fetchAll[lessonProgressDTO](ctx, c, lessonProgressPath, query, identity.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch lesson progress: %w", err)
		}
		for _, item := range items {
			records = append(records, models.LessonProgressRecord{Key: item.Key, IsCompleted: item.IsCompleted})
		}
	}

	return records, nil
}

// UpsertLessonProgress creates or updates the lesson progress record identified by "key"
func (c *client) UpsertLessonProgress(ctx context.Context, identity models.Identity, key string, isCompleted bool) error {
	path := lessonProgressPath + "/by-key/" + url.PathEscape(key)
	body := dataBody{Data: lessonProgressPayload{IsCompleted: isCompleted}}

	if err := c.do(ctx, http.MethodPut, path, nil, identity.Token, body, nil); err != nil {
		return fmt.Errorf("failed to upsert lesson progress: %w", err)
	}
	return nil
}

// FetchCourseStatuses retrieves the coarse course statuses of the identity's user keyed by course id
//
// Records with a malformed key, another user's key or an unknown status are skipped.
func (c *client) FetchCourseStatuses(ctx context.Context, identity models.Identity) (map[string]models.CourseStatus, error) {
	query := url.Values{}
	query.Set("filters[key][$startsWith]", identity.UserID+models.KeyDelimiter)

	items, err := fetchAll[courseStatusDTO](ctx, c, courseStatusPath, query, identity.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch course statuses: %w", err)
	}

	statuses := make(map[string]models.CourseStatus, len(items))
	for _, item := range items {
		userID, courseID, err := models.ParseCompositeKey(item.Key)
		if err != nil {
			c.logger.Warn("skipping malformed course status", zap.String("key", item.Key), zap.Error(err))
			continue
		}
		if userID != identity.UserID || !item.Status.IsValid() {
			continue
		}
		statuses[courseID] = item.Status
	}
	return statuses, nil
}

// UpsertCourseStatus creates or updates the course status record identified by "key"
func (c *client) UpsertCourseStatus(ctx context.Context, identity models.Identity, key string, status models.CourseStatus) error {
	path := courseStatusPath + "/by-key/" + url.PathEscape(key)
	body := dataBody{Data: courseStatusPayload{Status: status}}

	if err := c.do(ctx, http.MethodPut, path, nil, identity.Token, body, nil); err != nil {
		return fmt.Errorf("failed to upsert course status: %w", err)
	}
	return nil
}

// UpsertQuizAttempt creates or updates the quiz attempt record identified by "key"
func (c *client) UpsertQuizAttempt(ctx context.Context, identity models.Identity, key string, status models.QuizStatus, score *float64) error {
	path := quizAttemptPath + "/by-key/" + url.PathEscape(key)
	body := dataBody{Data: quizAttemptPayload{Status: status, Score: score}}

	if err := c.do(ctx, http.MethodPut, path, nil, identity.Token, body, nil); err != nil {
		return fmt.Errorf("failed to upsert quiz attempt: %w", err)
	}
	return nil
}
