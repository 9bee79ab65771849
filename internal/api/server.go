package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/org/adlist/internal/audit"
	"github.com/org/adlist/internal/auth"
	"github.com/org/adlist/internal/businessunit"
	"github.com/org/adlist/internal/formulary"
	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/internal/pharmacy"
	"github.com/org/adlist/internal/reference"
	"github.com/org/adlist/internal/search"
	"github.com/org/adlist/internal/storage"
	"github.com/org/adlist/pkg/models"
	"github.com/rs/zerolog/log"
)

// Config holds server configuration.
type Config struct {
	ListenAddr    string
	DBUrl         string
	MigrationsDir string
	JWTSecret     string
	TokenTTL      time.Duration
}

// AuditLogger is the interface the server needs from an audit logger.
type AuditLogger interface {
	LogRequest(ctx context.Context, entry *models.AuditEntry)
	Query(ctx context.Context, filter storage.AuditFilter) ([]*models.AuditEntry, error)
}

// Server is the API server.
type Server struct {
	store      storage.StorageBackend
	tokens     *auth.TokenIssuer
	auth       *auth.Service
	pharmacies *pharmacy.Service
	inventory  *inventory.Service
	references *reference.Service
	units      *businessunit.Service
	forms      *formulary.Service
	search     *search.Service
	auditor    AuditLogger
	cfg        Config
	httpSrv    *http.Server
}

// NewServer creates a fully wired Server.
func NewServer(store storage.StorageBackend, mailer auth.Mailer, cfg Config) *Server {
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	refSvc := reference.NewService(store)

	return &Server{
		store:      store,
		tokens:     tokens,
		auth:       auth.NewService(store, tokens, mailer),
		pharmacies: pharmacy.NewService(store),
		inventory:  inventory.NewService(store, refSvc),
		references: refSvc,
		units:      businessunit.NewService(store),
		forms:      formulary.NewService(store),
		search:     search.NewService(store),
		auditor:    audit.NewLogger(store),
		cfg:        cfg,
	}
}

// BuildRouter wires up all routes and returns a chi router.
func (s *Server) BuildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware)
	r.Use(newRateLimiter(100, 200).middleware)
	r.Use(auditMiddleware(s.auditor))

	// Prometheus metrics (unauthenticated)
	r.Handle("/metrics", MetricsHandler())

	// Public routes (no auth required)
	r.Group(func(r chi.Router) {
		r.Get("/v1/sys/health", s.HealthHandler)
		r.Post("/v1/auth/register", s.RegisterHandler)
		r.Post("/v1/auth/login", s.LoginHandler)
		r.Post("/v1/auth/forgot-password", s.ForgotPasswordHandler)
		r.Post("/v1/auth/verify-token", s.VerifyResetTokenHandler)
		r.Post("/v1/auth/reset-password", s.ResetPasswordHandler)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(s.tokens, s.store))

		r.Post("/v1/auth/change-password", s.ChangePasswordHandler)

		// Pharmacies
		r.Get("/v1/pharmacies", s.PharmacyListHandler)
		r.Get("/v1/pharmacies/assigned", s.PharmacyAssignedHandler)
		r.Get("/v1/pharmacies/{pharmacyID}", s.PharmacyGetHandler)

		// Inventory
		r.Get("/v1/pharmacies/{pharmacyID}/inventory", s.InventoryFetchHandler)
		r.Post("/v1/pharmacies/{pharmacyID}/inventory/stock", s.TakeStockHandler)
		r.Post("/v1/pharmacies/{pharmacyID}/inventory/new-products", s.RegisterProductHandler)
		r.Patch("/v1/pharmacies/{pharmacyID}/inventory/new-products/{entryID}", s.EditProductHandler)
		r.Get("/v1/pharmacies/{pharmacyID}/inventory/check/{code}", s.CheckReferenceHandler)

		// Reference list
		r.Get("/v1/reference-list", s.ReferenceListHandler)

		// Search
		r.Get("/v1/search/pharmacies", s.SearchPharmaciesHandler)
		r.Get("/v1/search/reference-list", s.SearchReferenceHandler)

		// Business units
		r.Get("/v1/business-units", s.BusinessUnitListHandler)
		r.Get("/v1/business-units/search", s.BusinessUnitSearchHandler)
		r.Get("/v1/business-units/{unitID}", s.BusinessUnitGetHandler)
		r.Get("/v1/business-units/{unitID}/products", s.BusinessUnitProductsHandler)
		r.Get("/v1/reports/business-units/stock", s.StockReportHandler)
		r.Get("/v1/reports/business-units/dosage-forms", s.DosageFormReportHandler)

		// Formularies
		r.Get("/v1/formularies", s.FormularyListHandler)
		r.Get("/v1/formularies/{formularyID}", s.FormularyGetHandler)

		// Admin-only management
		r.Group(func(r chi.Router) {
			r.Use(requireRole(models.RoleAdmin))

			r.Post("/v1/pharmacies", s.PharmacyCreateHandler)
			r.Post("/v1/business-units", s.BusinessUnitCreateHandler)
			r.Patch("/v1/business-units/{unitID}", s.BusinessUnitUpdateHandler)
			r.Delete("/v1/business-units/{unitID}", s.BusinessUnitDeleteHandler)
			r.Post("/v1/business-units/{unitID}/products", s.BusinessUnitAssignProductHandler)
			r.Post("/v1/formularies", s.FormularyCreateHandler)
			r.Patch("/v1/formularies/{formularyID}", s.FormularyUpdateHandler)
			r.Delete("/v1/formularies/{formularyID}", s.FormularyDeleteHandler)
			r.Post("/v1/formularies/import", s.FormularyImportHandler)
			r.Get("/v1/sys/audit-log", s.AuditLogHandler)
		})

		// Entry deletion is for admins and agents; pharmacists cannot delete.
		r.Group(func(r chi.Router) {
			r.Use(requireRole(models.RoleAdmin, models.RoleAgent))
			r.Delete("/v1/pharmacies/{pharmacyID}/inventory/{entryID}", s.DeleteEntryHandler)
		})
	})

	return r
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	handler := s.BuildRouter()

	s.httpSrv = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.cfg.ListenAddr).Msg("starting HTTP server")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// RefreshMetrics updates the pharmacy and inventory gauges from storage.
func (s *Server) RefreshMetrics(ctx context.Context) {
	if n, err := s.store.CountPharmacies(ctx); err == nil {
		pharmaciesTotal.Set(float64(n))
	}
	if n, err := s.store.CountProducts(ctx); err == nil {
		productsTotal.Set(float64(n))
	}
}
