package ingest

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"redactd/pkg/bus"
	gos3 "redactd/pkg/s3"
	"redactd/pkg/validate"
)

// Store holds external dependencies required by the ingest API.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
	S3  *gos3.Client
	Bus *bus.Bus
}

// API wires dependencies and configuration for the HTTP handlers.
type API struct {
	store     *Store
	config    Config
	validator *validate.Validator
	lifecycle *Lifecycle
	auditor   *Auditor
	logger    *log.Logger
}

// New initialises the API layer. The bus may be nil; uploads then stay
// persisted but never reach the worker, which the lifecycle logs.
func New(store *Store, cfg Config, logger *log.Logger) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if store.ORM == nil {
		return nil, errors.New("store ORM is required")
	}
	if cfg.ContentBucket == "" {
		return nil, errors.New("content bucket is required")
	}
	if logger == nil {
		logger = log.Default()
	}

	policy, err := validate.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}

	var queue queuePublisher
	if store.Bus != nil {
		queue = store.Bus
	}
	var storage blobDeleter
	if store.S3 != nil {
		storage = store.S3
	}

	lifecycle, err := NewLifecycle(store.ORM, storage, queue, cfg.ContentBucket, logger)
	if err != nil {
		return nil, err
	}

	return &API{
		store:     store,
		config:    cfg,
		validator: validate.New(policy),
		lifecycle: lifecycle,
		auditor:   NewAuditor(store.ORM, logger),
		logger:    logger,
	}, nil
}

// Routes constructs the chi router containing all ingest endpoints.
func (a *API) Routes() (http.Handler, error) {
	if a == nil {
		return nil, errors.New("nil api")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/items", a.handleUpload)
		r.Get("/items", a.handleListItems)
		r.Get("/items/{id}", a.handleGetItem)
		r.Get("/items/{id}/jobs", a.handleItemJobs)
		r.Get("/items/{id}/progress", a.handleItemProgress)
		r.Get("/items/{id}/download", a.handleDownload)
		r.Post("/items/{id}/retry", a.handleRetry)
		r.Delete("/items/{id}", a.handleDeleteItem)
	})

	return r, nil
}
