package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/readnwin/bookaccess/models"
)

// BookRepository handles read-only database operations for books. The
// catalog itself is owned by the admin ingestion pipeline.
type BookRepository struct {
	db *sql.DB
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

// GetBookByID retrieves a published book by its id. Unpublished books are
// indistinguishable from absent ones.
func (r *BookRepository) GetBookByID(ctx context.Context, id int64) (*models.Book, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid book ID: %d", id)
	}

	query := `
		SELECT id, title, author, price, visibility, status, file_format, created_by
		FROM books
		WHERE id = $1 AND status = 'published'
	`
	var book models.Book
	var author sql.NullString
	var visibility, format sql.NullString
	var createdBy sql.NullInt64
	row := r.db.QueryRowContext(ctx, query, id)
	err := row.Scan(
		&book.ID, &book.Title, &author, &book.Price,
		&visibility, &book.Status, &format, &createdBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("book %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get book %d: %w", id, err)
	}

	book.Author = author.String
	book.Visibility = models.Visibility(visibility.String)
	book.Format = models.FileFormat(format.String)
	if createdBy.Valid {
		book.CreatedBy = &createdBy.Int64
	}
	return &book, nil
}
