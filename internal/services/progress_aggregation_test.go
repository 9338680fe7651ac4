package services

import (
	"testing"

	"github.com/eduportal/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentComplete(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		expected  int
	}{
		{name: "empty course", completed: 0, total: 0, expected: 0},
		{name: "one of three", completed: 1, total: 3, expected: 33},
		{name: "two of three", completed: 2, total: 3, expected: 67},
		{name: "half rounds up", completed: 1, total: 8, expected: 13},
		{name: "one of two", completed: 1, total: 2, expected: 50},
		{name: "all", completed: 4, total: 4, expected: 100},
		{name: "none", completed: 0, total: 5, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PercentComplete(tt.completed, tt.total))
		})
	}
}

func TestSummarize(t *testing.T) {
	memberships := []models.CourseLessonMembership{
		{CourseID: "c1", LessonDocumentID: "a", Order: 1},
		{CourseID: "c1", LessonDocumentID: "b", Order: 2},
		{CourseID: "c1", LessonDocumentID: "c", Order: 3},
		{CourseID: "c2", LessonDocumentID: "d", Order: 1},
	}

	tests := []struct {
		name        string
		memberships []models.CourseLessonMembership
		progress    map[string]bool
		coarse      map[string]models.CourseStatus
		expected    []models.CourseProgressSummary
	}{
		{
			name:        "lesson progress",
			memberships: memberships,
			progress:    map[string]bool{"a": true, "b": false, "d": true},
			expected: []models.CourseProgressSummary{
				{CourseID: "c1", PercentComplete: 33, CompletedCount: 1, TotalCount: 3, Source: models.SummarySourceLessons},
				{CourseID: "c2", PercentComplete: 100, CompletedCount: 1, TotalCount: 1, Source: models.SummarySourceLessons},
			},
		},
		{
			name:        "fallback to coarse status when no lesson data",
			memberships: memberships,
			progress:    map[string]bool{},
			coarse:      map[string]models.CourseStatus{"c1": models.CourseStatusInProgress, "c2": models.CourseStatusCompleted},
			expected: []models.CourseProgressSummary{
				{CourseID: "c1", PercentComplete: 50, TotalCount: 3, Source: models.SummarySourceCourseStatus},
				{CourseID: "c2", PercentComplete: 100, TotalCount: 1, Source: models.SummarySourceCourseStatus},
			},
		},
		{
			name:        "coarse status ignored when any lesson data exists",
			memberships: memberships,
			progress:    map[string]bool{"d": false},
			coarse:      map[string]models.CourseStatus{"c1": models.CourseStatusCompleted},
			expected: []models.CourseProgressSummary{
				{CourseID: "c1", PercentComplete: 0, TotalCount: 3, Source: models.SummarySourceLessons},
				{CourseID: "c2", PercentComplete: 0, TotalCount: 1, Source: models.SummarySourceLessons},
			},
		},
		{
			name:        "no data at all",
			memberships: memberships[3:],
			expected: []models.CourseProgressSummary{
				{CourseID: "c2", PercentComplete: 0, TotalCount: 1, Source: models.SummarySourceNone},
			},
		},
		{
			name: "duplicate membership rows are counted once",
			memberships: []models.CourseLessonMembership{
				{CourseID: "c1", LessonDocumentID: "a", Order: 1},
				{CourseID: "c1", LessonDocumentID: "a", Order: 1},
				{CourseID: "c1", LessonDocumentID: "b", Order: 2},
			},
			progress: map[string]bool{"a": true},
			expected: []models.CourseProgressSummary{
				{CourseID: "c1", PercentComplete: 50, CompletedCount: 1, TotalCount: 2, Source: models.SummarySourceLessons},
			},
		},
		{
			name:        "completed lesson removed from course is ignored",
			memberships: memberships[3:],
			progress:    map[string]bool{"d": true, "removed": true},
			expected: []models.CourseProgressSummary{
				{CourseID: "c2", PercentComplete: 100, CompletedCount: 1, TotalCount: 1, Source: models.SummarySourceLessons},
			},
		},
		{
			name:     "empty membership list",
			expected: []models.CourseProgressSummary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Summarize(tt.memberships, tt.progress, tt.coarse)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSummarizeCourse_EmptyCourse(t *testing.T) {
	coarse := map[string]models.CourseStatus{"empty": models.CourseStatusCompleted}

	summary := SummarizeCourse("empty", nil, map[string]bool{}, coarse)

	assert.Equal(t, 0, summary.PercentComplete)
	assert.Equal(t, 0, summary.TotalCount)
	assert.Equal(t, "empty", summary.CourseID)
}

func TestPartitionByCourse(t *testing.T) {
	partitions := PartitionByCourse([]models.CourseLessonMembership{
		{CourseID: "c1", LessonDocumentID: "b", Order: 2},
		{CourseID: "c1", LessonDocumentID: "a", Order: 1},
		{CourseID: "c2", LessonDocumentID: "x", Order: 1},
		{CourseID: "c1", LessonDocumentID: "a", Order: 5},
	})

	require.Len(t, partitions, 2)
	assert.Equal(t, []string{"a", "b"}, partitions["c1"])
	assert.Equal(t, []string{"x"}, partitions["c2"])
}
