package api

import (
	"net/http"

	"github.com/ayo6706/banking-ledger/internal/api/handler"
	"github.com/ayo6706/banking-ledger/internal/api/middleware"
	"github.com/ayo6706/banking-ledger/internal/api/problem"
	"github.com/ayo6706/banking-ledger/internal/api/spec"
	"github.com/ayo6706/banking-ledger/internal/config"
	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/idempotency"
	"github.com/ayo6706/banking-ledger/internal/repository"
	"github.com/ayo6706/banking-ledger/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Services bundles what the handlers call into.
type Services struct {
	Identity *service.IdentityService
	Ledger   *service.LedgerService
	Admin    *service.AdminService
	Journal  *service.Journal
	Receipts *service.ReceiptService
}

type Router struct {
	cfg      *config.Config
	logger   *zap.Logger
	repo     *repository.Repository
	tokens   middleware.TokenVerifier
	services Services
	idem     *idempotency.Store
	redis    redis.Cmdable
}

func NewRouter(cfg *config.Config, logger *zap.Logger, repo *repository.Repository, tokens middleware.TokenVerifier, services Services, idem *idempotency.Store, redis redis.Cmdable) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		tokens:   tokens,
		services: services,
		idem:     idem,
		redis:    redis,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem.Respond(w, r, http.StatusNotFound, "not-found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.Respond(w, r, http.StatusMethodNotAllowed, "method-not-allowed", "Method not allowed")
	})

	// Handlers
	authHandler := handler.NewAuthHandler(api.services.Identity)
	accountHandler := handler.NewAccountHandler(api.services.Identity, api.services.Journal, api.services.Receipts)
	ledgerHandler := handler.NewLedgerHandler(api.services.Ledger)
	adminHandler := handler.NewAdminHandler(api.services.Admin)
	healthHandler := handler.NewHealthHandler(api.repo, api.redis)

	idempotent := middleware.Idempotency(api.idem, api.logger)

	// Operational
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/admin/login", authHandler.AdminLogin)
		})

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(api.tokens))
			r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

			r.Get("/profile", accountHandler.Profile)
			r.Get("/transactions", accountHandler.Transactions)
			r.Get("/receipts", accountHandler.Receipts)
			r.Get("/user/{accountNumber}", accountHandler.Lookup)

			r.With(idempotent).Post("/deposit", ledgerHandler.Deposit)
			r.With(idempotent).Post("/withdraw", ledgerHandler.Withdraw)
			r.With(idempotent).Post("/transfer", ledgerHandler.Transfer)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Get("/users", adminHandler.Users)
				r.Get("/transactions", adminHandler.Transactions)
				r.Get("/stats", adminHandler.Stats)
				r.Get("/reconciliation", adminHandler.Reconciliation)
				r.With(idempotent).Post("/fund-user", adminHandler.FundUser)
				r.With(idempotent).Post("/edit-balance", adminHandler.EditBalance)
				r.Post("/ban-user", adminHandler.Ban)
				r.Post("/unban-user", adminHandler.Unban)
				r.Post("/update-status", adminHandler.UpdateStatus)
				r.Delete("/delete-user", adminHandler.DeleteUser)
			})
		})
	})

	return r
}
