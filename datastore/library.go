package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/readnwin/bookaccess/models"
)

// LibraryRepository answers access-grant questions against the tables owned
// by the commerce subsystem (user_library, orders, order_items).
type LibraryRepository struct {
	db *sql.DB
}

// NewLibraryRepository creates a new LibraryRepository.
func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// GetAccessGrant reports how a user is entitled to a book, if at all:
// a library entry, a paid completed order line, or being the book's
// creator. The three branches run as a single UNION so the decision is one
// consistent read rather than three sequential round-trips.
func (r *LibraryRepository) GetAccessGrant(ctx context.Context, userID, bookID int64) (models.AccessType, error) {
	if userID <= 0 || bookID <= 0 {
		return models.AccessDenied, fmt.Errorf("invalid user %d or book %d", userID, bookID)
	}

	query := `
		SELECT 'library' AS grant_source
		FROM user_library
		WHERE user_id = $1 AND book_id = $2
		UNION
		SELECT 'purchased'
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		WHERE o.user_id = $1 AND oi.book_id = $2
		  AND o.status = 'completed' AND o.payment_status = 'paid'
		UNION
		SELECT 'creator'
		FROM books
		WHERE id = $2 AND created_by = $1
		LIMIT 1
	`
	var source string
	err := r.db.QueryRowContext(ctx, query, userID, bookID).Scan(&source)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.AccessDenied, nil
		}
		return models.AccessDenied, fmt.Errorf("failed to query access grant for user %d, book %d: %w", userID, bookID, err)
	}
	return models.AccessType(source), nil
}
