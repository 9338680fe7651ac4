package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eduportal/progress-service/internal/middleware"
	"github.com/eduportal/progress-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps methods for lesson and quiz progress operations
//
// Every method takes the caller's identity. For an anonymous identity reads return zero progress
// and writes are silent no-ops.
type ProgressService interface {
	// GetCoursesProgress retrieves every course joined with the caller's progress summary
	//
	// Returns an error only when the course list itself could not be loaded.
	GetCoursesProgress(ctx context.Context, identity models.Identity) ([]models.CourseProgressResponse, error)
	// GetCourseProgress retrieves the caller's progress summary of one course
	//
	// "courseID" is the document id of the course. Unknown courses yield a zero summary.
	GetCourseProgress(ctx context.Context, identity models.Identity, courseID string) models.CourseProgressSummary
	// GetProgressSummaries retrieves the caller's progress summary of every course that has lessons
	GetProgressSummaries(ctx context.Context, identity models.Identity) []models.CourseProgressSummary
	// ViewCourse records the first view of a course as "in_progress"
	//
	// A course already in progress or completed is left untouched.
	ViewCourse(ctx context.Context, identity models.Identity, courseID string) error
	// GetLessonCompletion reports whether the caller completed a lesson
	GetLessonCompletion(ctx context.Context, identity models.Identity, lessonID string) bool
	// ToggleLessonCompletion flips the completion of a lesson
	//
	// Returns the value now believed. On a failed write the value is rolled back and the error is returned.
	// A toggle issued while a previous toggle of the same lesson is still in flight is rejected.
	ToggleLessonCompletion(ctx context.Context, identity models.Identity, lessonID string) (bool, error)
	// StartQuiz records a quiz attempt as "in_progress"
	StartQuiz(ctx context.Context, identity models.Identity, quizID string) error
	// SubmitQuiz records a quiz attempt as "completed" with "score"
	SubmitQuiz(ctx context.Context, identity models.Identity, quizID string, score float64) error
	// GetQuizStatus returns the state of a quiz attempt known to the caller's session
	GetQuizStatus(ctx context.Context, identity models.Identity, quizID string) models.QuizAttemptStatus
	// ResetSession drops everything cached for the caller
	ResetSession(ctx context.Context, identity models.Identity)
}

// ProgressHandler handles HTTP requests for progress operations
type ProgressHandler struct {
	BaseHandler
	service ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router, identityMiddleware func(http.Handler) http.Handler) {
	r.Route("/progress", func(r chi.Router) {
		r.Use(identityMiddleware)
		r.Route("/courses", func(r chi.Router) {
			r.Get("/", h.GetCoursesProgress)
			r.Get("/{courseId}", h.GetCourseProgress)
			r.Post("/{courseId}/view", h.ViewCourse)
		})
		r.Get("/summaries", h.GetProgressSummaries)
		r.Route("/lessons", func(r chi.Router) {
			r.Get("/{lessonId}", h.GetLessonCompletion)
			r.Post("/{lessonId}/complete", h.ToggleLessonCompletion)
		})
		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/{quizId}", h.GetQuizStatus)
			r.Post("/{quizId}/start", h.StartQuiz)
			r.Post("/{quizId}/submit", h.SubmitQuiz)
		})
		r.Delete("/session", h.ResetSession)
	})
}

// GetCoursesProgress handles GET /progress/courses
// @Summary Get progress of all courses
// @Description Get every course with the caller's completion percentage
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.CourseProgressResponse
// @Failure 401 {object} map[string]string "Invalid token"
// @Failure 502 {object} map[string]string "Content repository unavailable"
// @Router /progress/courses [get]
func (h *ProgressHandler) GetCoursesProgress(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.GetCoursesProgress(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		h.RespondServiceError(w, err, "failed to get courses progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, courses)
}

// GetCourseProgress handles GET /progress/courses/{courseId}
// @Summary Get progress of a course
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course document id"
// @Success 200 {object} models.CourseProgressSummary
// @Failure 401 {object} map[string]string "Invalid token"
// @Router /progress/courses/{courseId} [get]
func (h *ProgressHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	summary := h.service.GetCourseProgress(r.Context(), middleware.GetIdentity(r.Context()), courseID)
	h.RespondJSON(w, http.StatusOK, summary)
}

// GetProgressSummaries handles GET /progress/summaries
// @Summary Get progress summaries
// @Description Get the completion summary of every course with lessons, without course metadata
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.CourseProgressSummary
// @Failure 401 {object} map[string]string "Invalid token"
// @Router /progress/summaries [get]
func (h *ProgressHandler) GetProgressSummaries(w http.ResponseWriter, r *http.Request) {
	summaries := h.service.GetProgressSummaries(r.Context(), middleware.GetIdentity(r.Context()))
	h.RespondJSON(w, http.StatusOK, summaries)
}

// ViewCourse handles POST /progress/courses/{courseId}/view
// @Summary Record a course view
// @Description Marks the course as in progress on its first view
// @Tags progress
// @Security ApiKeyAuth
// @Param courseId path string true "Course document id"
// @Success 204
// @Failure 502 {object} map[string]string "Write failed"
// @Router /progress/courses/{courseId}/view [post]
func (h *ProgressHandler) ViewCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")

	if err := h.service.ViewCourse(r.Context(), middleware.GetIdentity(r.Context()), courseID); err != nil {
		h.RespondServiceError(w, err, "failed to record course view")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLessonCompletion handles GET /progress/lessons/{lessonId}
// @Summary Get lesson completion
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param lessonId path string true "Lesson document id"
// @Success 200 {object} models.LessonCompletionResponse
// @Router /progress/lessons/{lessonId} [get]
func (h *ProgressHandler) GetLessonCompletion(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")

	completed := h.service.GetLessonCompletion(r.Context(), middleware.GetIdentity(r.Context()), lessonID)
	h.RespondJSON(w, http.StatusOK, models.LessonCompletionResponse{LessonID: lessonID, IsCompleted: completed})
}

// ToggleLessonCompletion handles POST /progress/lessons/{lessonId}/complete
// @Summary Toggle lesson completion
// @Description Flips the completion of a lesson, the change is rolled back when the write fails
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param lessonId path string true "Lesson document id"
// @Success 200 {object} models.LessonCompletionResponse
// @Failure 409 {object} map[string]string "Toggle already in flight"
// @Failure 502 {object} map[string]string "Write failed"
// @Router /progress/lessons/{lessonId}/complete [post]
func (h *ProgressHandler) ToggleLessonCompletion(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonId")

	completed, err := h.service.ToggleLessonCompletion(r.Context(), middleware.GetIdentity(r.Context()), lessonID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to toggle lesson completion")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.LessonCompletionResponse{LessonID: lessonID, IsCompleted: completed})
}

// GetQuizStatus handles GET /progress/quizzes/{quizId}
// @Summary Get quiz attempt status
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path string true "Quiz document id"
// @Success 200 {object} models.QuizAttemptStatus
// @Router /progress/quizzes/{quizId} [get]
func (h *ProgressHandler) GetQuizStatus(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")

	status := h.service.GetQuizStatus(r.Context(), middleware.GetIdentity(r.Context()), quizID)
	h.RespondJSON(w, http.StatusOK, status)
}

// StartQuiz handles POST /progress/quizzes/{quizId}/start
// @Summary Start a quiz
// @Tags progress
// @Security ApiKeyAuth
// @Param quizId path string true "Quiz document id"
// @Success 204
// @Failure 502 {object} map[string]string "Write failed"
// @Router /progress/quizzes/{quizId}/start [post]
func (h *ProgressHandler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")

	if err := h.service.StartQuiz(r.Context(), middleware.GetIdentity(r.Context()), quizID); err != nil {
		h.RespondServiceError(w, err, "failed to start quiz")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SubmitQuiz handles POST /progress/quizzes/{quizId}/submit
// @Summary Submit a quiz
// @Tags progress
// @Accept json
// @Security ApiKeyAuth
// @Param quizId path string true "Quiz document id"
// @Param request body models.SubmitQuizRequest true "Earned score"
// @Success 204
// @Failure 400 {object} map[string]string "Invalid score"
// @Failure 502 {object} map[string]string "Write failed"
// @Router /progress/quizzes/{quizId}/submit [post]
func (h *ProgressHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")

	var req models.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Score == nil {
		h.RespondError(w, http.StatusBadRequest, "score is required")
		return
	}

	if err := h.service.SubmitQuiz(r.Context(), middleware.GetIdentity(r.Context()), quizID, *req.Score); err != nil {
		h.RespondServiceError(w, err, "failed to submit quiz")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetSession handles DELETE /progress/session
// @Summary Reset the caller's progress session
// @Description Drops cached progress, typically called on sign-out
// @Tags progress
// @Security ApiKeyAuth
// @Success 204
// @Router /progress/session [delete]
func (h *ProgressHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.service.ResetSession(r.Context(), middleware.GetIdentity(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
