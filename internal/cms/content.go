package cms

import (
	"context"
	"fmt"
	"net/url"

	"github.com/eduportal/progress-service/internal/models"
)

const (
	courseLessonsPath = "/api/course-lessons"
	coursesPath       = "/api/courses"
)

type courseLessonDTO struct {
	CourseDocumentID string `json:"courseDocumentId"`
	LessonDocumentID string `json:"lessonDocumentId"`
	Order            int    `json:"order"`
}

type courseDTO struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Duration   string `json:"duration"`
}

// GetAllCourseLessons retrieves every course/lesson association ordered by position
func (c *client) GetAllCourseLessons(ctx context.Context, token string) ([]models.CourseLessonMembership, error) {
	query := url.Values{}
	query.Set("sort", "order:asc")

	items, err := fetchAll[courseLessonDTO](ctx, c, courseLessonsPath, query, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch course lessons: %w", err)
	}

	memberships := make([]models.CourseLessonMembership, 0, len(items))
	for _, item := range items {
		if item.CourseDocumentID == "" || item.LessonDocumentID == "" {
			continue
		}
		memberships = append(memberships, models.CourseLessonMembership{
			CourseID:         item.CourseDocumentID,
			LessonDocumentID: item.LessonDocumentID,
			Order:            item.Order,
		})
	}
	return memberships, nil
}

// GetCourses retrieves the metadata of every course
func (c *client) GetCourses(ctx context.Context, token string) ([]models.Course, error) {
	query := url.Values{}
	query.Set("fields[0]", "title")
	query.Set("fields[1]", "slug")
	query.Set("fields[2]", "duration")
	query.Set("sort", "title:asc")

	items, err := fetchAll[courseDTO](ctx, c, coursesPath, query, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}

	courses := make([]models.Course, 0, len(items))
	for _, item := range items {
		courses = append(courses, models.Course{
			DocumentID: item.DocumentID,
			Title:      item.Title,
			Slug:       item.Slug,
			Duration:   item.Duration,
		})
	}
	return courses, nil
}
