package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eduportal/progress-service/internal/models"
	"go.uber.org/zap"
)

type courseStatusRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCourseStatusRepository creates a new course status repository
func NewCourseStatusRepository(db *sql.DB, logger *zap.Logger) *courseStatusRepository {
	return &courseStatusRepository{
		db:     db,
		logger: logger,
	}
}

// FetchCourseStatuses retrieves the identity user's course statuses keyed by course id
func (r *courseStatusRepository) FetchCourseStatuses(ctx context.Context, identity models.Identity) (map[string]models.CourseStatus, error) {
	query := `SELECT course_document_id, status FROM course_status WHERE user_id = ?`

	rows, err := r.db.QueryContext(ctx, query, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]models.CourseStatus)
	for rows.Next() {
		var courseID string
		var status models.CourseStatus
		if err := rows.Scan(&courseID, &status); err != nil {
			return nil, fmt.Errorf("failed to scan course status: %w", err)
		}
		if !status.IsValid() {
			r.logger.Warn("skipping unknown course status",
				zap.String("course_id", courseID),
				zap.String("status", string(status)),
			)
			continue
		}
		statuses[courseID] = status
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course statuses: %w", err)
	}

	return statuses, nil
}

// UpsertCourseStatus creates or updates the status record identified by "key"
func (r *courseStatusRepository) UpsertCourseStatus(ctx context.Context, identity models.Identity, key string, status models.CourseStatus) error {
	userID, courseID, err := ownedKey(identity, key)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO course_status (user_id, course_document_id, status)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE status = VALUES(status)
	`

	if _, err := r.db.ExecContext(ctx, query, userID, courseID, status); err != nil {
		return fmt.Errorf("failed to upsert course status: %w", err)
	}
	return nil
}
