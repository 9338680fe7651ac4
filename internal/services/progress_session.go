package services

import (
	"context"
	"sync"
	"time"

	"github.com/eduportal/progress-service/internal/models"
	"go.uber.org/zap"
)

// ContentRepository defines read-only access to CMS content used by the progress core
type ContentRepository interface {
	// GetAllCourseLessons retrieves every course/lesson association
	//
	// "token" is the bearer token forwarded to the content repository, it may be empty for public content.
	GetAllCourseLessons(ctx context.Context, token string) ([]models.CourseLessonMembership, error)
	// GetCourses retrieves course metadata (title, slug, duration)
	GetCourses(ctx context.Context, token string) ([]models.Course, error)
}

// ProgressSyncer is the sync client as seen by a progress session
type ProgressSyncer interface {
	LessonSyncer
	// FetchCourseStatuses retrieves the coarse course statuses of the identity's user
	FetchCourseStatuses(ctx context.Context, identity models.Identity) (map[string]models.CourseStatus, error)
	// WriteCourseStatus persists the coarse status of a course
	WriteCourseStatus(ctx context.Context, identity models.Identity, courseID string, status models.CourseStatus) error
	// WriteQuizAttempt persists the state of a quiz attempt
	WriteQuizAttempt(ctx context.Context, identity models.Identity, quizID string, status models.QuizStatus, score *float64) error
	// Forget drops whatever the syncer remembers about a user
	Forget(userID string)
}

// progressSession is the per-identity context object tying the store, the aggregation and the sync client together
type progressSession struct {
	identity models.Identity
	store    *progressStore
	syncer   ProgressSyncer
	content  ContentRepository
	logger   *zap.Logger

	mu             sync.Mutex
	memberships    []models.CourseLessonMembership
	partitions     map[string][]string
	lessonCourse   map[string]string
	loadedCourses  map[string]bool
	courseStatuses map[string]models.CourseStatus
	completing     map[string]bool
	statusesLoaded bool
	quizzes        map[string]models.QuizAttemptStatus
	lastUsed       time.Time
}

// NewProgressSession creates a session for the given identity
func NewProgressSession(identity models.Identity, syncer ProgressSyncer, content ContentRepository, logger *zap.Logger) *progressSession {
	sessionLogger := logger.With(zap.String("user_id", identity.UserID))
	return &progressSession{
		identity:       identity,
		store:          NewProgressStore(identity, syncer, sessionLogger),
		syncer:         syncer,
		content:        content,
		logger:         sessionLogger,
		loadedCourses:  make(map[string]bool),
		courseStatuses: make(map[string]models.CourseStatus),
		completing:     make(map[string]bool),
		quizzes:        make(map[string]models.QuizAttemptStatus),
	}
}

// ProgressFor returns the progress summary of one course
//
// Progress of the whole batch is re-read on every call so the coarse-status fallback is decided the same way as in
// ProgressForAll. Read failures degrade to zero progress.
func (s *progressSession) ProgressFor(ctx context.Context, courseID string) models.CourseProgressSummary {
	if !s.identity.IsAuthenticated() {
		return models.CourseProgressSummary{CourseID: courseID, Source: models.SummarySourceNone}
	}

	memberships, progress, coarse := s.loadBatch(ctx)
	return SummarizeCourse(courseID, memberships, progress, coarse)
}

// ProgressForAll returns the progress summaries of every course with lessons
func (s *progressSession) ProgressForAll(ctx context.Context) []models.CourseProgressSummary {
	if !s.identity.IsAuthenticated() {
		return []models.CourseProgressSummary{}
	}

	memberships, progress, coarse := s.loadBatch(ctx)
	return Summarize(memberships, progress, coarse)
}

// CourseOverview joins course metadata with the progress summary of each course
func (s *progressSession) CourseOverview(ctx context.Context) ([]models.CourseProgressResponse, error) {
	courses, err := s.content.GetCourses(ctx, s.identity.Token)
	if err != nil {
		return nil, err
	}

	response := make([]models.CourseProgressResponse, 0, len(courses))
	if !s.identity.IsAuthenticated() {
		for _, course := range courses {
			response = append(response, models.CourseProgressResponse{
				Course:   course,
				Progress: models.CourseProgressSummary{CourseID: course.DocumentID, Source: models.SummarySourceNone},
			})
		}
		return response, nil
	}

	_, progress, coarse := s.loadBatch(ctx)

	s.mu.Lock()
	partitions := s.partitions
	s.mu.Unlock()

	for _, course := range courses {
		response = append(response, models.CourseProgressResponse{
			Course:   course,
			Progress: summarizePartition(course.DocumentID, partitions[course.DocumentID], progress, coarse),
		})
	}
	return response, nil
}

// IsLessonComplete reports whether the lesson is completed for the session's user
func (s *progressSession) IsLessonComplete(ctx context.Context, lessonID string) bool {
	if !s.identity.IsAuthenticated() {
		return false
	}

	courseID, ok := s.courseOf(ctx, lessonID)
	switch {
	case ok && !s.isCourseLoaded(courseID):
		s.store.Load(ctx, s.courseLessons(ctx, courseID))
		s.markCourseLoaded(courseID)
	case !ok:
		s.store.Load(ctx, []string{lessonID})
	}

	return s.store.IsComplete(lessonID)
}

// MarkLessonComplete toggles the completion of a lesson
//
// When the toggle completes the lesson's course, the course status is written as completed once per session.
// A failed write is returned after the cached value has been reverted.
func (s *progressSession) MarkLessonComplete(ctx context.Context, lessonID string) (bool, error) {
	if !s.identity.IsAuthenticated() {
		return false, nil
	}

	courseID, known := s.courseOf(ctx, lessonID)
	var lessonIDs []string
	if known {
		lessonIDs = s.courseLessons(ctx, courseID)
		if !s.isCourseLoaded(courseID) {
			s.store.Load(ctx, lessonIDs)
			s.markCourseLoaded(courseID)
		}
	}

	value, err := s.store.Toggle(ctx, lessonID)
	if err != nil {
		return value, err
	}

	if value && known && s.store.IsAllComplete(lessonIDs) {
		s.completeCourse(ctx, courseID)
	}

	return value, nil
}

// ViewCourse records the first view of a course as in progress
//
// Courses already in progress or completed are left untouched, and nothing is written while the current statuses
// cannot be read.
func (s *progressSession) ViewCourse(ctx context.Context, courseID string) error {
	if !s.identity.IsAuthenticated() {
		return nil
	}

	statuses, loaded := s.statuses(ctx)
	switch statuses[courseID] {
	case models.CourseStatusInProgress, models.CourseStatusCompleted:
		return nil
	}
	if !loaded {
		// the course may already be completed remotely
		s.logger.Warn("skipping course view, course statuses unavailable", zap.String("course_id", courseID))
		return nil
	}

	if err := s.syncer.WriteCourseStatus(ctx, s.identity, courseID, models.CourseStatusInProgress); err != nil {
		return err
	}

	s.mu.Lock()
	s.courseStatuses[courseID] = models.CourseStatusInProgress
	s.mu.Unlock()
	return nil
}

// StartQuiz records a quiz as in progress
func (s *progressSession) StartQuiz(ctx context.Context, quizID string) error {
	if !s.identity.IsAuthenticated() {
		return nil
	}

	if s.QuizStatus(quizID).Status == models.QuizStatusInProgress {
		return nil
	}

	if err := s.syncer.WriteQuizAttempt(ctx, s.identity, quizID, models.QuizStatusInProgress, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.quizzes[quizID] = models.QuizAttemptStatus{QuizID: quizID, Status: models.QuizStatusInProgress}
	s.mu.Unlock()
	return nil
}

// SubmitQuiz records a quiz as completed with the earned score
func (s *progressSession) SubmitQuiz(ctx context.Context, quizID string, score float64) error {
	if !s.identity.IsAuthenticated() {
		return nil
	}

	if err := s.syncer.WriteQuizAttempt(ctx, s.identity, quizID, models.QuizStatusCompleted, &score); err != nil {
		return err
	}

	s.mu.Lock()
	s.quizzes[quizID] = models.QuizAttemptStatus{QuizID: quizID, Status: models.QuizStatusCompleted, Score: &score}
	s.mu.Unlock()
	return nil
}

// QuizStatus returns the session's view of a quiz attempt
func (s *progressSession) QuizStatus(quizID string) models.QuizAttemptStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status, ok := s.quizzes[quizID]; ok {
		return status
	}
	return models.QuizAttemptStatus{QuizID: quizID, Status: models.QuizStatusNotStarted}
}

// completeCourse writes the completed status unless the session already knows the course as completed
func (s *progressSession) completeCourse(ctx context.Context, courseID string) {
	s.mu.Lock()
	if s.courseStatuses[courseID] == models.CourseStatusCompleted || s.completing[courseID] {
		s.mu.Unlock()
		return
	}
	s.completing[courseID] = true
	s.mu.Unlock()

	err := s.syncer.WriteCourseStatus(ctx, s.identity, courseID, models.CourseStatusCompleted)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.completing, courseID)
	if err != nil {
		// the lesson itself is persisted, the next completing toggle writes the course status again
		s.logger.Warn("failed to mark course completed", zap.String("course_id", courseID), zap.Error(err))
		return
	}
	s.courseStatuses[courseID] = models.CourseStatusCompleted
}

// loadBatch loads memberships, the progress of every lesson and, when no lesson data exists, the coarse statuses
func (s *progressSession) loadBatch(ctx context.Context) ([]models.CourseLessonMembership, map[string]bool, map[string]models.CourseStatus) {
	memberships := s.ensureMemberships(ctx)

	s.mu.Lock()
	lessonIDs := make([]string, 0, len(s.lessonCourse))
	for lessonID := range s.lessonCourse {
		lessonIDs = append(lessonIDs, lessonID)
	}
	courseIDs := make([]string, 0, len(s.partitions))
	for courseID := range s.partitions {
		courseIDs = append(courseIDs, courseID)
	}
	s.mu.Unlock()

	s.store.Load(ctx, lessonIDs)
	for _, courseID := range courseIDs {
		s.markCourseLoaded(courseID)
	}
	progress := s.store.Snapshot(lessonIDs)

	var coarse map[string]models.CourseStatus
	if len(progress) == 0 {
		coarse, _ = s.statuses(ctx)
	}
	return memberships, progress, coarse
}

// ensureMemberships loads the course/lesson associations once per session
func (s *progressSession) ensureMemberships(ctx context.Context) []models.CourseLessonMembership {
	s.mu.Lock()
	if s.partitions != nil {
		memberships := s.memberships
		s.mu.Unlock()
		return memberships
	}
	s.mu.Unlock()

	memberships, err := s.content.GetAllCourseLessons(ctx, s.identity.Token)
	if err != nil {
		s.logger.Warn("course lessons unavailable", zap.Error(err))
		return nil
	}

	partitions := PartitionByCourse(memberships)
	lessonCourse := make(map[string]string, len(memberships))
	for courseID, lessonIDs := range partitions {
		for _, lessonID := range lessonIDs {
			lessonCourse[lessonID] = courseID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = memberships
	s.partitions = partitions
	s.lessonCourse = lessonCourse
	return memberships
}

func (s *progressSession) courseLessons(ctx context.Context, courseID string) []string {
	s.ensureMemberships(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partitions[courseID]
}

func (s *progressSession) courseOf(ctx context.Context, lessonID string) (string, bool) {
	s.ensureMemberships(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	courseID, ok := s.lessonCourse[lessonID]
	return courseID, ok
}

// statuses loads the coarse course statuses once per session
//
// On failure the statuses known locally are returned and "loaded" is false.
func (s *progressSession) statuses(ctx context.Context) (statuses map[string]models.CourseStatus, loaded bool) {
	s.mu.Lock()
	if s.statusesLoaded {
		statuses := copyStatuses(s.courseStatuses)
		s.mu.Unlock()
		return statuses, true
	}
	s.mu.Unlock()

	fetched, err := s.syncer.FetchCourseStatuses(ctx, s.identity)
	if err != nil {
		s.logger.Warn("course statuses unavailable", zap.Error(err))
		s.mu.Lock()
		defer s.mu.Unlock()
		return copyStatuses(s.courseStatuses), false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for courseID, status := range fetched {
		// statuses written during this session are newer than the fetched ones
		if _, ok := s.courseStatuses[courseID]; !ok {
			s.courseStatuses[courseID] = status
		}
	}
	s.statusesLoaded = true
	return copyStatuses(s.courseStatuses), true
}

func (s *progressSession) isCourseLoaded(courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedCourses[courseID]
}

func (s *progressSession) markCourseLoaded(courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadedCourses[courseID] = true
}

func (s *progressSession) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = now
}

func (s *progressSession) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

func copyStatuses(statuses map[string]models.CourseStatus) map[string]models.CourseStatus {
	result := make(map[string]models.CourseStatus, len(statuses))
	for courseID, status := range statuses {
		result[courseID] = status
	}
	return result
}
