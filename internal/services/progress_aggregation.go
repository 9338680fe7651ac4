package services

import (
	"sort"

	"github.com/eduportal/progress-service/internal/models"
)

// PercentComplete returns round_half_up(100 * completed / total), or 0 for an empty course
func PercentComplete(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*completed + total) / (2 * total)
}

// PartitionByCourse groups lesson ids by course, dropping duplicate (course, lesson) pairs
//
// Lessons keep the membership order.
func PartitionByCourse(memberships []models.CourseLessonMembership) map[string][]string {
	sorted := make([]models.CourseLessonMembership, len(memberships))
	copy(sorted, memberships)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	partitions := make(map[string][]string)
	seen := make(map[models.CourseLessonMembership]struct{}, len(sorted))
	for _, m := range sorted {
		pair := models.CourseLessonMembership{CourseID: m.CourseID, LessonDocumentID: m.LessonDocumentID}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		partitions[m.CourseID] = append(partitions[m.CourseID], m.LessonDocumentID)
	}
	return partitions
}

// Summarize computes one progress summary per course of the membership list
//
// "progress" is the granular lesson mapping for the whole batch. When it is empty, courses with lessons and a
// known coarse status in "coarse" fall back to that status. Courses without lessons are always at 0%.
func Summarize(memberships []models.CourseLessonMembership, progress map[string]bool, coarse map[string]models.CourseStatus) []models.CourseProgressSummary {
	partitions := PartitionByCourse(memberships)

	courseIDs := make([]string, 0, len(partitions))
	for courseID := range partitions {
		courseIDs = append(courseIDs, courseID)
	}
	sort.Strings(courseIDs)

	summaries := make([]models.CourseProgressSummary, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		summaries = append(summaries, summarizePartition(courseID, partitions[courseID], progress, coarse))
	}
	return summaries
}

// SummarizeCourse computes the progress summary of a single course
func SummarizeCourse(courseID string, memberships []models.CourseLessonMembership, progress map[string]bool, coarse map[string]models.CourseStatus) models.CourseProgressSummary {
	return summarizePartition(courseID, PartitionByCourse(memberships)[courseID], progress, coarse)
}

func summarizePartition(courseID string, lessonIDs []string, progress map[string]bool, coarse map[string]models.CourseStatus) models.CourseProgressSummary {
	summary := models.CourseProgressSummary{
		CourseID:   courseID,
		TotalCount: len(lessonIDs),
		Source:     models.SummarySourceNone,
	}

	if summary.TotalCount == 0 {
		return summary
	}

	if len(progress) == 0 {
		if status, ok := coarse[courseID]; ok {
			summary.PercentComplete = status.FallbackPercent()
			summary.Source = models.SummarySourceCourseStatus
		}
		return summary
	}

	for _, id := range lessonIDs {
		if progress[id] {
			summary.CompletedCount++
		}
	}
	summary.PercentComplete = PercentComplete(summary.CompletedCount, summary.TotalCount)
	summary.Source = models.SummarySourceLessons

	return summary
}
