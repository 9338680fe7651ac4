package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eduportal/progress-service/internal/models"
)

type quizAttemptRepository struct {
	db *sql.DB
}

// NewQuizAttemptRepository creates a new quiz attempt repository
func NewQuizAttemptRepository(db *sql.DB) *quizAttemptRepository {
	return &quizAttemptRepository{
		db: db,
	}
}

// UpsertQuizAttempt creates or updates the attempt record identified by "key"
//
// A nil "score" clears the stored score.
func (r *quizAttemptRepository) UpsertQuizAttempt(ctx context.Context, identity models.Identity, key string, status models.QuizStatus, score *float64) error {
	userID, quizID, err := ownedKey(identity, key)
	if err != nil {
		return err
	}

	var dbScore sql.NullFloat64
	if score != nil {
		dbScore = sql.NullFloat64{Float64: *score, Valid: true}
	}

	query := `
		INSERT INTO quiz_attempts (user_id, quiz_document_id, status, score)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE status = VALUES(status), score = VALUES(score)
	`

	if _, err := r.db.ExecContext(ctx, query, userID, quizID, status, dbScore); err != nil {
		return fmt.Errorf("failed to upsert quiz attempt: %w", err)
	}
	return nil
}
