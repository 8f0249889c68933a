package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/readnwin/bookaccess/models"
)

// BookFileRepository handles database operations for book files. Rows are
// written by the ingestion pipeline; this service only reads them.
type BookFileRepository struct {
	db *sql.DB
}

// NewBookFileRepository creates a new BookFileRepository.
func NewBookFileRepository(db *sql.DB) *BookFileRepository {
	return &BookFileRepository{db: db}
}

// GetEbookFile retrieves the 'ebook' file row for a book.
// Returns nil, nil when the book has no ebook file; absence is not an
// application error here, it means the book has no readable content yet.
func (r *BookFileRepository) GetEbookFile(ctx context.Context, bookID int64) (*models.BookFile, error) {
	if bookID <= 0 {
		return nil, fmt.Errorf("invalid book ID: %d", bookID)
	}

	query := `
		SELECT id, book_id, file_type, file_path, file_format,
		       original_format, preserve_structure, extraction_path, asset_count
		FROM book_files
		WHERE book_id = $1 AND file_type = $2
	`
	var file models.BookFile
	var fileType, format string
	var originalFormat, extractionPath sql.NullString
	var preserveStructure sql.NullBool
	var assetCount sql.NullInt64
	row := r.db.QueryRowContext(ctx, query, bookID, string(models.BookFileTypeEbook))
	err := row.Scan(
		&file.ID, &file.BookID, &fileType, &file.StoredPath, &format,
		&originalFormat, &preserveStructure, &extractionPath, &assetCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ebook file for book %d: %w", bookID, err)
	}

	file.FileType = models.BookFileType(fileType)
	file.Format = models.FileFormat(format)
	file.OriginalFormat = models.FileFormat(originalFormat.String)
	file.PreserveStructure = preserveStructure.Bool
	file.ExtractionPath = extractionPath.String
	file.AssetCount = int(assetCount.Int64)
	return &file, nil
}
