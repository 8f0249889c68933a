package routehandlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readnwin/bookaccess/identity"
	"github.com/readnwin/bookaccess/models"
	"github.com/readnwin/bookaccess/webutil"
)

// --- Stubs shared by the handler tests ---

type stubBooks struct {
	book *models.Book
	err  error
}

func (s stubBooks) GetBookByID(ctx context.Context, id int64) (*models.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.book == nil || s.book.ID != id {
		return nil, fmt.Errorf("book %d not found: %w", id, sql.ErrNoRows)
	}
	return s.book, nil
}

type stubFiles struct {
	file *models.BookFile
	err  error
}

func (s stubFiles) GetEbookFile(ctx context.Context, bookID int64) (*models.BookFile, error) {
	return s.file, s.err
}

type stubPolicy struct {
	grant models.AccessType
	err   error
}

func (s stubPolicy) Evaluate(ctx context.Context, userID *int64, book *models.Book) (models.AccessType, error) {
	return s.grant, s.err
}

type stubStructures struct {
	structure *models.BookStructure
	err       error
}

func (s stubStructures) GetStructure(ctx context.Context, bookID int64) (*models.BookStructure, error) {
	return s.structure, s.err
}

type recordingSessions struct {
	calls  int
	userID int64
	bookID int64
	err    error
}

func (s *recordingSessions) EnsureSession(ctx context.Context, userID, bookID int64, token string) error {
	s.calls++
	s.userID = userID
	s.bookID = bookID
	return s.err
}

func freeEpubBook() *models.Book {
	return &models.Book{
		ID:         42,
		Title:      "Voyage Out",
		Price:      0,
		Visibility: models.VisibilityPrivate,
		Status:     "published",
		Format:     models.FileFormatEPUB,
	}
}

func preservedEpubFile() *models.BookFile {
	return &models.BookFile{
		ID:                7,
		BookID:            42,
		FileType:          models.BookFileTypeEbook,
		Format:            models.FileFormatEPUB,
		OriginalFormat:    models.FileFormatEPUB,
		PreserveStructure: true,
		AssetCount:        12,
	}
}

func newMetadataRouter(h *BookHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(identity.Middleware)
	r.Get("/api/books/{bookID}/metadata", webutil.MakeHandler(h.HandleGetBookMetadata))
	return r
}

func doRequest(t *testing.T, router http.Handler, method, target string, userID *int64) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	if userID != nil {
		r.Header.Set(identity.UserIDHeader, strconv.FormatInt(*userID, 10))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func userID(id int64) *int64 {
	return &id
}

// --- Metadata endpoint ---

func TestMetadataFreeEpubAnonymous(t *testing.T) {
	handler := NewBookHandler(
		stubBooks{book: freeEpubBook()},
		stubFiles{file: preservedEpubFile()},
		stubPolicy{grant: models.AccessFree},
		stubStructures{structure: &models.BookStructure{
			Type: models.FileFormatEPUB,
			Epub: &models.EpubStructure{Title: "Voyage Out", Spine: []string{"ch1"}},
		}},
		nil,
	)

	w := doRequest(t, newMetadataRouter(handler), http.MethodGet, "/api/books/42/metadata", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ID                 int64  `json:"id"`
		Title              string `json:"title"`
		Format             string `json:"format"`
		PreservedStructure bool   `json:"preservedStructure"`
		AssetCount         int    `json:"assetCount"`
		AccessType         string `json:"accessType"`
		Structure          *struct {
			Type string `json:"type"`
		} `json:"structure"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "Voyage Out", resp.Title)
	assert.Equal(t, "epub", resp.Format)
	assert.True(t, resp.PreservedStructure)
	assert.Equal(t, 12, resp.AssetCount)
	assert.Equal(t, "free", resp.AccessType)
	require.NotNil(t, resp.Structure)
	assert.Equal(t, "epub", resp.Structure.Type)
}

func TestMetadataNonNumericID(t *testing.T) {
	handler := NewBookHandler(stubBooks{}, stubFiles{}, stubPolicy{}, stubStructures{}, nil)

	for _, target := range []string{"/api/books/abc/metadata", "/api/books/-5/metadata", "/api/books/1e3/metadata"} {
		w := doRequest(t, newMetadataRouter(handler), http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "target %q", target)
	}
}

func TestMetadataUnknownBook(t *testing.T) {
	handler := NewBookHandler(stubBooks{}, stubFiles{}, stubPolicy{}, stubStructures{}, nil)

	w := doRequest(t, newMetadataRouter(handler), http.MethodGet, "/api/books/999/metadata", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetadataDeniedAnonymousGets401(t *testing.T) {
	book := freeEpubBook()
	book.Price = 12.99
	handler := NewBookHandler(stubBooks{book: book}, stubFiles{}, stubPolicy{grant: models.AccessDenied}, stubStructures{}, nil)

	w := doRequest(t, newMetadataRouter(handler), http.MethodGet, "/api/books/42/metadata", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetadataDeniedUserGets403(t *testing.T) {
	book := freeEpubBook()
	book.Price = 12.99
	handler := NewBookHandler(stubBooks{book: book}, stubFiles{}, stubPolicy{grant: models.AccessDenied}, stubStructures{}, nil)

	w := doRequest(t, newMetadataRouter(handler), http.MethodGet, "/api/books/42/metadata", userID(9))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetadataPolicyFailureIsInternalError(t *testing.T) {
	handler := NewBookHandler(
		stubBooks{book: freeEpubBook()},
		stubFiles{},
		stubPolicy{err: fmt.Errorf("connection reset")},
		stubStructures{},
		nil,
	)

	w := doRequest(t, newMetadataRouter(handler), http.MethodGet, "/api/books/42/metadata", userID(7))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset", "internals must not leak")
}

func TestMetadataNullStructureWhenNotPreserved(t *testing.T) {
	file := preservedEpubFile()
	file.PreserveStructure = false
	handler := NewBookHandler(
		stubBooks{book: freeEpubBook()},
		stubFiles{file: file},
		stubPolicy{grant: models.AccessFree},
		stubStructures{},
		nil,
	)

	w := doRequest(t, newMetadataRouter(handler), http.MethodGet, "/api/books/42/metadata", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp["structure"])
	assert.Equal(t, false, resp["preservedStructure"])
}

func TestMetadataEnsuresReadingSession(t *testing.T) {
	sessions := &recordingSessions{}
	handler := NewBookHandler(
		stubBooks{book: freeEpubBook()},
		stubFiles{file: preservedEpubFile()},
		stubPolicy{grant: models.AccessFree},
		stubStructures{},
		sessions,
	)
	router := newMetadataRouter(handler)

	w := doRequest(t, router, http.MethodGet, "/api/books/42/metadata", userID(7))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sessions.calls)
	assert.Equal(t, int64(7), sessions.userID)
	assert.Equal(t, int64(42), sessions.bookID)

	// Anonymous reads never create sessions.
	w = doRequest(t, router, http.MethodGet, "/api/books/42/metadata", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sessions.calls)
}

func TestMetadataSessionFailureDoesNotBreakRead(t *testing.T) {
	sessions := &recordingSessions{err: fmt.Errorf("table missing")}
	handler := NewBookHandler(
		stubBooks{book: freeEpubBook()},
		stubFiles{file: preservedEpubFile()},
		stubPolicy{grant: models.AccessFree},
		stubStructures{},
		sessions,
	)

	w := doRequest(t, newMetadataRouter(handler), http.MethodGet, "/api/books/42/metadata", userID(7))
	assert.Equal(t, http.StatusOK, w.Code)
}
