package routehandlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/readnwin/bookaccess/fileserve"
	"github.com/readnwin/bookaccess/identity"
	"github.com/readnwin/bookaccess/storage"
	"github.com/readnwin/bookaccess/webutil"
)

// PathResolver maps a relative request path into a book's extraction root.
type PathResolver interface {
	Resolve(bookID int64, relPath string) (string, error)
}

// AssetResponder streams a resolved file.
type AssetResponder interface {
	ServeFile(w http.ResponseWriter, r *http.Request, absPath string) error
}

// AccessLogStore records served resources.
type AccessLogStore interface {
	RecordAccess(ctx context.Context, userID, bookID int64, resourcePath string) error
}

// Holds dependencies for book asset route handlers.
type AssetHandler struct {
	Books      BookStore
	Files      FileStore
	Policy     PolicyEvaluator
	Resolver   PathResolver
	Responder  AssetResponder
	AccessLogs AccessLogStore
}

// Creates a new AssetHandler. AccessLogs may be nil when access logging is
// disabled.
func NewAssetHandler(books BookStore, files FileStore, policy PolicyEvaluator, resolver PathResolver, responder AssetResponder, accessLogs AccessLogStore) *AssetHandler {
	return &AssetHandler{
		Books:      books,
		Files:      files,
		Policy:     policy,
		Resolver:   resolver,
		Responder:  responder,
		AccessLogs: accessLogs,
	}
}

// HandleGetBookAsset serves one file from a book's extracted tree. Every
// request passes the full policy check; a book whose structure is not
// preserved has no serveable tree and answers 404. Traversal attempts are
// answered exactly like missing files.
func (h *AssetHandler) HandleGetBookAsset(w http.ResponseWriter, r *http.Request) error {
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
	if file == nil || !file.PreserveStructure {
		return webutil.ErrNotFound("Book content not available")
	}

	relPath, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		return webutil.ErrNotFound("")
	}

	absPath, err := h.Resolver.Resolve(bookID, relPath)
	if err != nil {
		if errors.Is(err, storage.ErrPathViolation) {
			slog.Warn("book asset path violation",
				"event_id", uuid.NewString(),
				"book_id", bookID,
				"path", relPath,
				"remote_addr", r.RemoteAddr,
			)
			return webutil.ErrNotFound("")
		}
		return fmt.Errorf("failed to resolve asset path for book %d: %w", bookID, err)
	}

	if err := h.Responder.ServeFile(w, r, absPath); err != nil {
		if errors.Is(err, fileserve.ErrNotFound) {
			return webutil.ErrNotFound("")
		}
		return fmt.Errorf("failed to serve asset %q for book %d: %w", relPath, bookID, err)
	}

	// Best-effort access log; failures never reach the client.
	if userID != nil && h.AccessLogs != nil && r.Method == http.MethodGet {
		if err := h.AccessLogs.RecordAccess(r.Context(), *userID, bookID, relPath); err != nil {
			slog.Warn("failed to record resource access",
				"user_id", *userID, "book_id", bookID, "path", relPath, "error", err)
		}
	}
	return nil
}
