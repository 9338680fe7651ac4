package models

// CourseStatus represents the coarse enrollment status of a user in a course
type CourseStatus string

const (
	CourseStatusNotStarted CourseStatus = "not_started"
	CourseStatusInProgress CourseStatus = "in_progress"
	CourseStatusCompleted  CourseStatus = "completed"
)

// IsValid reports whether the status is one of the known values
func (s CourseStatus) IsValid() bool {
	switch s {
	case CourseStatusNotStarted, CourseStatusInProgress, CourseStatusCompleted:
		return true
	}
	return false
}

// FallbackPercent maps a coarse status to the percentage shown when no lesson data exists
func (s CourseStatus) FallbackPercent() int {
	switch s {
	case CourseStatusCompleted:
		return 100
	case CourseStatusInProgress:
		return 50
	default:
		return 0
	}
}

// Course holds course metadata passed through to the presentation layer
type Course struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Duration   string `json:"duration,omitempty"`
}

// CourseLessonMembership associates a lesson with the course it belongs to
type CourseLessonMembership struct {
	CourseID         string `json:"courseId"`
	LessonDocumentID string `json:"lessonDocumentId"`
	Order            int    `json:"order"`
}

// SummarySource tells which policy produced a progress summary
type SummarySource string

const (
	SummarySourceLessons      SummarySource = "lessons"
	SummarySourceCourseStatus SummarySource = "course_status"
	SummarySourceNone         SummarySource = "none"
)

// CourseProgressSummary is the derived completion state of a course
type CourseProgressSummary struct {
	CourseID        string        `json:"courseId"`
	PercentComplete int           `json:"percentComplete"`
	CompletedCount  int           `json:"completedCount"`
	TotalCount      int           `json:"totalCount"`
	Source          SummarySource `json:"source"`
}

// CourseProgressResponse joins course metadata with its progress summary
type CourseProgressResponse struct {
	Course
	Progress CourseProgressSummary `json:"progress"`
}
