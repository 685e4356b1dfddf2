package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/credgate/internal/api/handler"
	mw "github.com/edvin/credgate/internal/api/middleware"
	"github.com/edvin/credgate/internal/core"
	"github.com/edvin/credgate/internal/gateway"
)

// Server is the gateway's HTTP surface: tenant-scoped self-service routes
// behind the gateway middleware, the admin plane behind the admin gateway,
// plus health and metrics endpoints.
type Server struct {
	router     chi.Router
	logger     zerolog.Logger
	services   *core.Services
	dispatcher *gateway.Dispatcher
	audit      gateway.AuditRecorder
	pool       *pgxpool.Pool
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, services *core.Services,
	dispatcher *gateway.Dispatcher, audit gateway.AuditRecorder) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger,
		services:   services,
		dispatcher: dispatcher,
		audit:      audit,
		pool:       pool,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	credential := handler.NewCredential(s.services.Credential, s.audit)
	audit := handler.NewAudit(s.services.Audit)
	tenant := handler.NewTenant(s.services.Tenant)
	user := handler.NewUser(s.services.User)

	// Tenant-scoped surface. The gateway middleware authorizes every
	// request against the tenant in the path before any handler runs.
	s.router.Route("/api/v1/tenants/{tenantID}", func(r chi.Router) {
		r.Use(mw.Gateway(s.dispatcher))

		r.With(mw.RequireScope("credentials", "read")).Get("/credentials", credential.List)
		r.With(mw.RequireScope("credentials", "write")).Post("/credentials", credential.Issue)
		r.With(mw.RequireScope("credentials", "read")).Get("/credentials/{id}", credential.Get)
		r.With(mw.RequireScope("credentials", "write")).Delete("/credentials/{id}", credential.Revoke)

		r.With(mw.RequireScope("audit", "read")).Get("/audit-records", audit.List)
	})

	// Platform-admin plane: ADMIN tier required, every request audited as
	// an admin action.
	s.router.Route("/admin/v1", func(r chi.Router) {
		r.Use(mw.AdminGateway(s.dispatcher))

		r.Get("/tenants", tenant.List)
		r.Post("/tenants", tenant.Create)
		r.Get("/tenants/{id}", tenant.Get)
		r.Post("/tenants/{id}/suspend", tenant.Suspend)
		r.Post("/tenants/{id}/unsuspend", tenant.Unsuspend)

		r.Post("/users", user.Create)
		r.Get("/users/{id}", user.Get)

		r.Get("/credentials", credential.AdminList)
		r.Post("/credentials", credential.Mint)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["store"] = err.Error()
		healthy = false
	} else {
		checks["store"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
