package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/readnwin/bookaccess/models"
)

// StructureRepository handles database operations for preserved book
// structure metadata (EPUB spine/manifest/navigation, HTML chapter/asset
// maps). One row per (book_id, file_id), written at ingestion time.
type StructureRepository struct {
	db *sql.DB
}

// NewStructureRepository creates a new StructureRepository.
func NewStructureRepository(db *sql.DB) *StructureRepository {
	return &StructureRepository{db: db}
}

// GetEpubStructure retrieves the preserved EPUB structure for a book file.
// Returns nil, nil when no row exists.
func (r *StructureRepository) GetEpubStructure(ctx context.Context, bookID, fileID int64) (*models.EpubStructure, error) {
	query := `
		SELECT title, creator, spine_order, manifest, navigation
		FROM epub_structures
		WHERE book_id = $1 AND file_id = $2
	`
	var title, creator sql.NullString
	var spineJSON, manifestJSON, navigationJSON []byte
	row := r.db.QueryRowContext(ctx, query, bookID, fileID)
	err := row.Scan(&title, &creator, &spineJSON, &manifestJSON, &navigationJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get epub structure for book %d: %w", bookID, err)
	}

	structure := models.EpubStructure{
		Title:   title.String,
		Creator: creator.String,
	}
	if len(spineJSON) > 0 {
		if err := json.Unmarshal(spineJSON, &structure.Spine); err != nil {
			return nil, fmt.Errorf("malformed spine_order for book %d: %w", bookID, err)
		}
	}
	if len(manifestJSON) > 0 {
		if err := json.Unmarshal(manifestJSON, &structure.Manifest); err != nil {
			return nil, fmt.Errorf("malformed manifest for book %d: %w", bookID, err)
		}
	}
	if len(navigationJSON) > 0 {
		if err := json.Unmarshal(navigationJSON, &structure.Navigation); err != nil {
			return nil, fmt.Errorf("malformed navigation for book %d: %w", bookID, err)
		}
	}
	return &structure, nil
}

// GetHTMLStructure retrieves the preserved HTML structure for a book file.
// Returns nil, nil when no row exists.
func (r *StructureRepository) GetHTMLStructure(ctx context.Context, bookID, fileID int64) (*models.HTMLStructure, error) {
	query := `
		SELECT title, author, chapter_structure, asset_files
		FROM html_structures
		WHERE book_id = $1 AND file_id = $2
	`
	var title, author sql.NullString
	var chaptersJSON, assetsJSON []byte
	row := r.db.QueryRowContext(ctx, query, bookID, fileID)
	err := row.Scan(&title, &author, &chaptersJSON, &assetsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get html structure for book %d: %w", bookID, err)
	}

	structure := models.HTMLStructure{
		Title:  title.String,
		Author: author.String,
	}
	if len(chaptersJSON) > 0 {
		if err := json.Unmarshal(chaptersJSON, &structure.Chapters); err != nil {
			return nil, fmt.Errorf("malformed chapter_structure for book %d: %w", bookID, err)
		}
	}
	if len(assetsJSON) > 0 {
		if err := json.Unmarshal(assetsJSON, &structure.AssetFiles); err != nil {
			return nil, fmt.Errorf("malformed asset_files for book %d: %w", bookID, err)
		}
	}
	return &structure, nil
}
