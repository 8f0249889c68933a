package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/readnwin/bookaccess/access"
	"github.com/readnwin/bookaccess/api"
	"github.com/readnwin/bookaccess/datastore"
	"github.com/readnwin/bookaccess/fileserve"
	"github.com/readnwin/bookaccess/maintenance"
	rh "github.com/readnwin/bookaccess/route-handlers"
	"github.com/readnwin/bookaccess/storage"
	"github.com/readnwin/bookaccess/structure"
)

const (
	defaultPort        = "8080"
	defaultDatabaseURL = "user=postgres password=password dbname=readnwin host=localhost port=5432 sslmode=disable"
	defaultStorageDir  = "storage/books"
	dbPingTimeout      = 5 * time.Second
	shutdownTimeout    = 15 * time.Second
	dbMaxOpenConns     = 25
	dbMaxIdleConns     = 25
	dbConnMaxLifetime  = 5 * time.Minute
)

type config struct {
	port        string
	databaseURL string
	storageDir  string
}

func main() {
	cfg := loadConfig()

	db, err := setupDatabase(cfg.databaseURL)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	defer db.Close()

	bookRepo := datastore.NewBookRepository(db)
	bookFileRepo := datastore.NewBookFileRepository(db)
	structureRepo := datastore.NewStructureRepository(db)
	libraryRepo := datastore.NewLibraryRepository(db)
	accessLogRepo := datastore.NewAccessLogRepository(db)
	sessionRepo := datastore.NewReadingSessionRepository(db)

	resolver, err := storage.NewExtractionResolver(cfg.storageDir)
	if err != nil {
		log.Fatalf("Storage setup failed: %v", err)
	}

	evaluator := access.NewEvaluator(libraryRepo)
	structureService := structure.NewService(bookFileRepo, structureRepo, resolver)
	responder := fileserve.NewResponder()

	bookHandler := rh.NewBookHandler(bookRepo, bookFileRepo, evaluator, structureService, sessionRepo)
	assetHandler := rh.NewAssetHandler(bookRepo, bookFileRepo, evaluator, resolver, responder, accessLogRepo)

	apiRouter := api.SetupRoutes(bookHandler, assetHandler)

	sessionJanitor := maintenance.New(sessionRepo)

	mainRouter := chi.NewRouter()
	mainRouter.Mount("/", apiRouter)
	mainRouter.Post("/maintenance/tick", sessionJanitor.HandleTick)

	startServer(cfg.port, mainRouter)
}

func loadConfig() config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		dbURL = defaultDatabaseURL
		log.Println("WARNING: DB_CONNECTION_STRING not set, using default local connection string.")
	}

	storageDir := os.Getenv("BOOK_STORAGE_DIR")
	if storageDir == "" {
		storageDir = defaultStorageDir
	}

	return config{
		port:        port,
		databaseURL: dbURL,
		storageDir:  storageDir,
	}
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close() // Close unusable connection pool
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection successful")
	return db, nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal // Block until signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
