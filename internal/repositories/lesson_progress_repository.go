package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/eduportal/progress-service/internal/models"
)

type lessonProgressRepository struct {
	db *sql.DB
}

// NewLessonProgressRepository creates a new lesson progress repository
func NewLessonProgressRepository(db *sql.DB) *lessonProgressRepository {
	return &lessonProgressRepository{
		db: db,
	}
}

// FetchLessonProgress retrieves the identity user's progress records for the given lessons
func (r *lessonProgressRepository) FetchLessonProgress(ctx context.Context, identity models.Identity, lessonIDs []string) ([]models.LessonProgressRecord, error) {
	if len(lessonIDs) == 0 {
		return []models.LessonProgressRecord{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(lessonIDs)), ", ")
	query := fmt.Sprintf(`
		SELECT user_id, lesson_document_id, is_completed
		FROM lesson_progress
		WHERE user_id = ? AND lesson_document_id IN (%s)
	`, placeholders)

	args := make([]any, 0, len(lessonIDs)+1)
	args = append(args, identity.UserID)
	for _, id := range lessonIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson progress: %w", err)
	}
	defer rows.Close()

	records := make([]models.LessonProgressRecord, 0, len(lessonIDs))
	for rows.Next() {
		var userID, lessonID string
		var record models.LessonProgressRecord
		if err := rows.Scan(&userID, &lessonID, &record.IsCompleted); err != nil {
			return nil, fmt.Errorf("failed to scan lesson progress: %w", err)
		}
		record.Key = userID + models.KeyDelimiter + lessonID
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lesson progress: %w", err)
	}

	return records, nil
}

// UpsertLessonProgress creates or updates the record identified by "key"
func (r *lessonProgressRepository) UpsertLessonProgress(ctx context.Context, identity models.Identity, key string, isCompleted bool) error {
	userID, lessonID, err := ownedKey(identity, key)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO lesson_progress (user_id, lesson_document_id, is_completed)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE is_completed = VALUES(is_completed)
	`

	if _, err := r.db.ExecContext(ctx, query, userID, lessonID, isCompleted); err != nil {
		return fmt.Errorf("failed to upsert lesson progress: %w", err)
	}
	return nil
}

// ownedKey parses "key" and checks that it belongs to the identity's user
func ownedKey(identity models.Identity, key string) (userID, documentID string, err error) {
	userID, documentID, err = models.ParseCompositeKey(key)
	if err != nil {
		return "", "", err
	}
	if userID != identity.UserID {
		return "", "", fmt.Errorf("key %q does not belong to user %q", key, identity.UserID)
	}
	return userID, documentID, nil
}
