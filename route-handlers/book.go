package routehandlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/readnwin/bookaccess/identity"
	"github.com/readnwin/bookaccess/models"
	"github.com/readnwin/bookaccess/webutil"
)

// BookStore provides published books.
type BookStore interface {
	GetBookByID(ctx context.Context, id int64) (*models.Book, error)
}

// FileStore provides the ebook file row for a book.
type FileStore interface {
	GetEbookFile(ctx context.Context, bookID int64) (*models.BookFile, error)
}

// PolicyEvaluator decides whether a user may read a book.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, userID *int64, book *models.Book) (models.AccessType, error)
}

// StructureSource provides the tagged-union structure for a book.
type StructureSource interface {
	GetStructure(ctx context.Context, bookID int64) (*models.BookStructure, error)
}

// SessionStore ensures reading sessions for authenticated readers.
type SessionStore interface {
	EnsureSession(ctx context.Context, userID, bookID int64, token string) error
}

// Holds dependencies for book metadata route handlers.
type BookHandler struct {
	Books      BookStore
	Files      FileStore
	Policy     PolicyEvaluator
	Structures StructureSource
	Sessions   SessionStore
}

// Creates a new BookHandler. Sessions may be nil when session tracking is
// disabled.
func NewBookHandler(books BookStore, files FileStore, policy PolicyEvaluator, structures StructureSource, sessions SessionStore) *BookHandler {
	return &BookHandler{
		Books:      books,
		Files:      files,
		Policy:     policy,
		Structures: structures,
		Sessions:   sessions,
	}
}

type bookMetadataResponse struct {
	ID                 int64                 `json:"id"`
	Title              string                `json:"title"`
	Format             models.FileFormat     `json:"format"`
	OriginalFormat     models.FileFormat     `json:"originalFormat,omitempty"`
	PreservedStructure bool                  `json:"preservedStructure"`
	AssetCount         int                   `json:"assetCount"`
	AccessType         models.AccessType     `json:"accessType"`
	Structure          *models.BookStructure `json:"structure"`
}

func (h *BookHandler) HandleGetBookMetadata(w http.ResponseWriter, r *http.Request) error {
	bookID, err := parseBookID(r)
	if err != nil {
		return webutil.ErrBadRequest("Invalid book ID")
	}

	book, err := h.Books.GetBookByID(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("Book not found")
		}
		return fmt.Errorf("failed to retrieve book %d: %w", bookID, err)
	}

	userID := identity.UserIDFromContext(r.Context())
	grant, err := h.Policy.Evaluate(r.Context(), userID, book)
	if err != nil {
		return fmt.Errorf("failed to evaluate access for book %d: %w", bookID, err)
	}
	if !grant.Granted() {
		return accessDeniedError(userID)
	}

	file, err := h.Files.GetEbookFile(r.Context(), bookID)
	if err != nil {
		return fmt.Errorf("failed to retrieve ebook file for book %d: %w", bookID, err)
	}

	structure, err := h.Structures.GetStructure(r.Context(), bookID)
	if err != nil {
		return fmt.Errorf("failed to retrieve structure for book %d: %w", bookID, err)
	}

	// Best-effort: a failed session write must not break the read path.
	if userID != nil && h.Sessions != nil {
		if err := h.Sessions.EnsureSession(r.Context(), *userID, bookID, uuid.NewString()); err != nil {
			slog.Warn("failed to record reading session",
				"user_id", *userID, "book_id", bookID, "error", err)
		}
	}

	resp := bookMetadataResponse{
		ID:         book.ID,
		Title:      book.Title,
		Format:     book.Format,
		AccessType: grant,
		Structure:  structure,
	}
	if file != nil {
		resp.OriginalFormat = file.OriginalFormat
		resp.PreservedStructure = file.PreserveStructure
		resp.AssetCount = file.AssetCount
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp)
	return nil
}

// parseBookID extracts and validates the numeric book id path parameter.
func parseBookID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "bookID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid book ID %q: %w", raw, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid book ID %d", id)
	}
	return id, nil
}

// accessDeniedError maps a policy denial to 401 for anonymous requests and
// 403 for authenticated ones.
func accessDeniedError(userID *int64) error {
	if userID == nil {
		return webutil.ErrUnauthorized("Sign in to access this book")
	}
	return webutil.ErrForbidden("You do not have access to this book")
}
