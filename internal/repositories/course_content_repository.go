package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eduportal/progress-service/internal/models"
)

type courseContentRepository struct {
	db *sql.DB
}

// NewCourseContentRepository creates a repository for course metadata and course/lesson membership
func NewCourseContentRepository(db *sql.DB) *courseContentRepository {
	return &courseContentRepository{
		db: db,
	}
}

// GetAllCourseLessons retrieves every course/lesson association ordered by course and display order
//
// "token" is ignored, the database is not scoped per user.
func (r *courseContentRepository) GetAllCourseLessons(ctx context.Context, token string) ([]models.CourseLessonMembership, error) {
	query := `
		SELECT course_document_id, lesson_document_id, sort_order
		FROM course_lessons
		ORDER BY course_document_id, sort_order
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query course lessons: %w", err)
	}
	defer rows.Close()

	var memberships []models.CourseLessonMembership
	for rows.Next() {
		var m models.CourseLessonMembership
		if err := rows.Scan(&m.CourseID, &m.LessonDocumentID, &m.Order); err != nil {
			return nil, fmt.Errorf("failed to scan course lesson: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course lessons: %w", err)
	}

	return memberships, nil
}

// GetCourses retrieves course metadata ordered by title
func (r *courseContentRepository) GetCourses(ctx context.Context, token string) ([]models.Course, error) {
	query := `SELECT document_id, title, slug, duration FROM courses ORDER BY title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var c models.Course
		var duration sql.NullString
		if err := rows.Scan(&c.DocumentID, &c.Title, &c.Slug, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		c.Duration = duration.String
		courses = append(courses, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return courses, nil
}
