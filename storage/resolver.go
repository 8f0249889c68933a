// Package storage maps books to their extracted file trees on disk.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// extractedDirName is the subfolder holding the unpacked archive contents,
// exactly as ingested.
const extractedDirName = "extracted"

// ErrPathViolation marks a requested path that does not stay within a
// book's extraction root. Callers must answer it exactly like a missing
// file so that probing reveals nothing about the filesystem.
var ErrPathViolation = errors.New("storage: path escapes extraction root")

// ExtractionResolver resolves attacker-controlled relative paths inside a
// book's extraction root. The root is always derived from the configured
// base directory plus the book id, never from stored or user data.
type ExtractionResolver struct {
	baseDir string
}

// NewExtractionResolver creates a resolver anchored at baseDir
// (e.g. "storage/books"). The base directory is made absolute once so every
// later containment check compares canonical paths.
func NewExtractionResolver(baseDir string) (*ExtractionResolver, error) {
	if baseDir == "" {
		return nil, errors.New("storage: base directory cannot be empty")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to resolve base directory %q: %w", baseDir, err)
	}
	return &ExtractionResolver{baseDir: abs}, nil
}

// Root returns the extraction root for a book:
// <base>/<bookID>/extracted.
func (er *ExtractionResolver) Root(bookID int64) string {
	return filepath.Join(er.baseDir, strconv.FormatInt(bookID, 10), extractedDirName)
}

// Resolve maps a slash-separated relative path to an absolute filesystem
// path inside the book's extraction root. It rejects null bytes, absolute
// paths, ".." segments and anything that, once joined and normalized, no
// longer sits under the root. The containment check compares canonical
// paths segment-wise via filepath.Rel, not a string prefix, so a sibling
// directory like "42extra" can never satisfy it.
func (er *ExtractionResolver) Resolve(bookID int64, relPath string) (string, error) {
	if bookID <= 0 {
		return "", ErrPathViolation
	}
	if relPath == "" || strings.ContainsRune(relPath, 0) || strings.Contains(relPath, "~") {
		return "", ErrPathViolation
	}
	if strings.HasPrefix(relPath, "/") || filepath.IsAbs(relPath) {
		return "", ErrPathViolation
	}
	for _, segment := range strings.Split(relPath, "/") {
		if segment == ".." {
			return "", ErrPathViolation
		}
	}

	root := er.Root(bookID)
	resolved := filepath.Clean(filepath.Join(root, filepath.FromSlash(relPath)))

	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return "", ErrPathViolation
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathViolation
	}
	return resolved, nil
}
