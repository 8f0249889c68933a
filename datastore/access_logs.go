package datastore

import (
	"context"
	"database/sql"
	"fmt"
)

// AccessLogRepository records which book resources a user has fetched.
// Writes are best-effort; callers log failures instead of surfacing them.
type AccessLogRepository struct {
	db *sql.DB
}

// NewAccessLogRepository creates a new AccessLogRepository.
func NewAccessLogRepository(db *sql.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

// RecordAccess upserts one access-log row per (user, book, resource),
// bumping the counter on repeat fetches.
func (r *AccessLogRepository) RecordAccess(ctx context.Context, userID, bookID int64, resourcePath string) error {
	if userID <= 0 || bookID <= 0 || resourcePath == "" {
		return fmt.Errorf("invalid access log entry (user %d, book %d)", userID, bookID)
	}

	query := `
		INSERT INTO book_resource_access_logs (user_id, book_id, resource_path, accessed_at, access_count)
		VALUES ($1, $2, $3, NOW(), 1)
		ON CONFLICT (user_id, book_id, resource_path)
		DO UPDATE SET
			accessed_at = NOW(),
			access_count = book_resource_access_logs.access_count + 1
	`
	if _, err := r.db.ExecContext(ctx, query, userID, bookID, resourcePath); err != nil {
		return fmt.Errorf("failed to record resource access: %w", err)
	}
	return nil
}
