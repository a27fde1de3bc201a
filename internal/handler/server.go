// Package handler implements the HTTP handlers for the store finder API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, store.go, tag.go) but all share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/storefinder/internal/domain"
)

// StoreServicer defines the business operations the store handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type StoreServicer interface {
	Create(ctx context.Context, in domain.StoreInput, up *domain.Upload) (domain.Store, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.StorePatch, up *domain.Upload) (domain.Store, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Store, error)
	GetBySlug(ctx context.Context, slug string) (domain.Store, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Store, int64, error)
}

// TagServicer defines the tag operations the tag handlers depend on.
type TagServicer interface {
	TagPage(ctx context.Context, tag string) (domain.TagPage, error)
}

// ExportServicer defines the export operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// Server holds the dependencies shared by every API handler.
// Register its routes on a chi router with Routes.
type Server struct {
	stores StoreServicer
	tags   TagServicer
	export ExportServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(stores StoreServicer, tags TagServicer, export ExportServicer) *Server {
	return &Server{stores: stores, tags: tags, export: export}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil)
}

// Routes registers every API endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)

	r.Route("/stores", func(r chi.Router) {
		r.Get("/", s.ListStores)
		r.Post("/", s.CreateStore)
		r.Get("/slug/{slug}", s.GetStoreBySlug)
		r.Get("/{id}", s.GetStore)
		r.Put("/{id}", s.UpdateStore)
	})

	r.Get("/tags", s.GetTagPage)
	r.Get("/tags/{tag}", s.GetTagPage)

	r.Get("/export", s.GetExport)
}

// Handler returns a chi router with only the API routes registered.
// main.go adds middleware and the static routes around the same Routes call.
func Handler(s *Server) chi.Router {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}
