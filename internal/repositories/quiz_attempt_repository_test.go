package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eduportal/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestQuizAttemptRepository_UpsertQuizAttempt(t *testing.T) {
	query := regexp.QuoteMeta(`INSERT INTO quiz_attempts (user_id, quiz_document_id, status, score) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE status = VALUES(status), score = VALUES(score)`)
	score := 8.5

	tests := []struct {
		name          string
		key           string
		status        models.QuizStatus
		score         *float64
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name:   "open without score",
			key:    "1_q1",
			status: models.QuizStatusInProgress,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(query).
					WithArgs("1", "q1", "in_progress", nil).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name:   "submit with score",
			key:    "1_q1",
			status: models.QuizStatusCompleted,
			score:  &score,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(query).
					WithArgs("1", "q1", "completed", 8.5).
					WillReturnResult(sqlmock.NewResult(0, 2))
			},
		},
		{
			name:          "malformed key",
			key:           "_q1",
			status:        models.QuizStatusInProgress,
			setupMock:     func(mock sqlmock.Sqlmock) {},
			expectedError: true,
		},
		{
			name:   "database error",
			key:    "1_q1",
			status: models.QuizStatusInProgress,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(query).
					WithArgs("1", "q1", "in_progress", nil).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupMockDB(t)
			defer cleanup()
			repo := NewQuizAttemptRepository(db)

			tt.setupMock(mock)

			err := repo.UpsertQuizAttempt(context.Background(), testIdentity, tt.key, tt.status, tt.score)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
