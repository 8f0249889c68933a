package datastore

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadingSessionRepository tracks active reading sessions with a sliding
// 24-hour expiry.
type ReadingSessionRepository struct {
	db *sql.DB
}

// NewReadingSessionRepository creates a new ReadingSessionRepository.
func NewReadingSessionRepository(db *sql.DB) *ReadingSessionRepository {
	return &ReadingSessionRepository{db: db}
}

// EnsureSession creates a reading session for (user, book) or extends the
// existing one. The token is only stored on first creation; extensions keep
// the original token.
func (r *ReadingSessionRepository) EnsureSession(ctx context.Context, userID, bookID int64, token string) error {
	if userID <= 0 || bookID <= 0 || token == "" {
		return fmt.Errorf("invalid reading session (user %d, book %d)", userID, bookID)
	}

	query := `
		INSERT INTO reading_sessions (user_id, book_id, session_token, expires_at, last_activity)
		VALUES ($1, $2, $3, NOW() + INTERVAL '24 hours', NOW())
		ON CONFLICT (user_id, book_id)
		DO UPDATE SET
			expires_at = NOW() + INTERVAL '24 hours',
			last_activity = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, bookID, token); err != nil {
		return fmt.Errorf("failed to ensure reading session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and returns how
// many were deleted.
func (r *ReadingSessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reading_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reading sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted reading sessions: %w", err)
	}
	return n, nil
}
