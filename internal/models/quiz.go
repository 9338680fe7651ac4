package models

// QuizStatus represents the state of a user's quiz attempt
type QuizStatus string

const (
	QuizStatusNotStarted QuizStatus = "not_started"
	QuizStatusInProgress QuizStatus = "in_progress"
	QuizStatusCompleted  QuizStatus = "completed"
)

// QuizAttemptStatus is the transient state of a quiz for the current session
type QuizAttemptStatus struct {
	QuizID string     `json:"quizId"`
	Status QuizStatus `json:"status"`
	Score  *float64   `json:"score,omitempty"`
}

// SubmitQuizRequest represents a request to submit a quiz
type SubmitQuizRequest struct {
	Score *float64 `json:"score"`
}
