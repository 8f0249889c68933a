// Package structure looks up preserved book structure metadata.
package structure

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/readnwin/bookaccess/models"
)

// htmlContentCandidates are the document names the ingestion pipeline
// writes for HTML books, probed in order for the disk fallback.
var htmlContentCandidates = []string{"content.html", "index.html"}

// FileSource provides the ebook file row for a book.
type FileSource interface {
	GetEbookFile(ctx context.Context, bookID int64) (*models.BookFile, error)
}

// MetadataSource provides the ingestion pipeline's structure rows.
type MetadataSource interface {
	GetEpubStructure(ctx context.Context, bookID, fileID int64) (*models.EpubStructure, error)
	GetHTMLStructure(ctx context.Context, bookID, fileID int64) (*models.HTMLStructure, error)
}

// TreeLocator maps a book to its extraction root on disk.
type TreeLocator interface {
	Root(bookID int64) string
}

// Service resolves the tagged-union structure for a book. Reads go to the
// database first; when the ingestion row is missing but the extracted tree
// exists, the structure is derived from disk on demand. Read-only and
// idempotent, no caching: reads are rare next to write-once ingestion.
type Service struct {
	files FileSource
	meta  MetadataSource
	trees TreeLocator
}

// NewService creates a new structure Service.
func NewService(files FileSource, meta MetadataSource, trees TreeLocator) *Service {
	return &Service{files: files, meta: meta, trees: trees}
}

// GetStructure returns the preserved structure for a book, or nil when the
// book has no ebook file or its structure is not preserved (callers then
// fall back to flat-file serving).
func (s *Service) GetStructure(ctx context.Context, bookID int64) (*models.BookStructure, error) {
	file, err := s.files.GetEbookFile(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if file == nil || !file.PreserveStructure {
		return nil, nil
	}

	switch file.Format {
	case models.FileFormatEPUB:
		epub, err := s.meta.GetEpubStructure(ctx, bookID, file.ID)
		if err != nil {
			return nil, err
		}
		if epub == nil {
			epub = s.epubFromDisk(bookID)
		}
		if epub == nil {
			return nil, nil
		}
		return &models.BookStructure{Type: models.FileFormatEPUB, Epub: epub}, nil

	case models.FileFormatHTML:
		htmlStructure, err := s.meta.GetHTMLStructure(ctx, bookID, file.ID)
		if err != nil {
			return nil, err
		}
		if htmlStructure == nil {
			htmlStructure = s.htmlFromDisk(bookID)
		}
		if htmlStructure == nil {
			return nil, nil
		}
		return &models.BookStructure{Type: models.FileFormatHTML, HTML: htmlStructure}, nil

	default:
		return nil, nil
	}
}

// epubFromDisk parses the extracted tree directly. Failures are logged and
// swallowed: a missing or malformed tree means "no structure", not an
// internal error.
func (s *Service) epubFromDisk(bookID int64) *models.EpubStructure {
	root := s.trees.Root(bookID)
	epub, err := ParseEpubTree(root)
	if err != nil {
		if !errors.Is(err, ErrNoContainer) {
			slog.Warn("failed to derive epub structure from disk",
				"book_id", bookID, "root", root, "error", err)
		}
		return nil
	}
	return epub
}

func (s *Service) htmlFromDisk(bookID int64) *models.HTMLStructure {
	root := s.trees.Root(bookID)
	for _, name := range htmlContentCandidates {
		htmlStructure, err := ParseHTMLFile(filepath.Join(root, name))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("failed to derive html structure from disk",
					"book_id", bookID, "document", name, "error", err)
			}
			continue
		}
		return htmlStructure
	}
	return nil
}
