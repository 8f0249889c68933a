package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/readnwin/bookaccess/identity"
	rh "github.com/readnwin/bookaccess/route-handlers"
	"github.com/readnwin/bookaccess/webutil"
)

const (
	apiBasePath   = "/api"
	booksBasePath = "/books"

	metadataSubPath = "/metadata"

	paramBookID = "bookID"
)

func SetupRoutes(
	bookHandler *rh.BookHandler,
	assetHandler *rh.AssetHandler,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(identity.Middleware)

	r.Route(apiBasePath, func(r chi.Router) {
		configureBookRoutes(r, bookHandler, assetHandler)
	})

	// Health check endpoint
	r.Get("/healthz", handleHealthCheck)

	return r
}

// --- Book Routes ---
func configureBookRoutes(r chi.Router, bookHandler *rh.BookHandler, assetHandler *rh.AssetHandler) {
	bookSpecificPath := booksBasePath + "/{" + paramBookID + "}"

	r.Route(bookSpecificPath, func(r chi.Router) {
		// GET /api/books/{bookID}/metadata
		r.Get(metadataSubPath, webutil.MakeHandler(bookHandler.HandleGetBookMetadata))

		// GET|HEAD /api/books/{bookID}/{...path}: asset within the
		// book's extracted tree. The static metadata route above takes
		// precedence over the wildcard.
		r.Get("/*", webutil.MakeHandler(assetHandler.HandleGetBookAsset))
		r.Head("/*", webutil.MakeHandler(assetHandler.HandleGetBookAsset))
	})
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
