package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/ubdirahman/loan-management-app/docs"
	"github.com/ubdirahman/loan-management-app/internal/api/handler"
	mw "github.com/ubdirahman/loan-management-app/internal/api/middleware"
	"github.com/ubdirahman/loan-management-app/internal/config"
	"github.com/ubdirahman/loan-management-app/internal/domain/customer"
	"github.com/ubdirahman/loan-management-app/internal/domain/loan"
	"github.com/ubdirahman/loan-management-app/internal/domain/user"
	"github.com/ubdirahman/loan-management-app/internal/export"
)

// Services bundles everything the router needs behind the HTTP surface.
type Services struct {
	Users     user.Service
	Customers customer.Service
	Loans     loan.Service
	Export    *export.Service
}

func SetupRouter(services Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, services, cfg, logger)
	setupCustomerRoutes(router, cfg, services.Customers, logger)
	setupLoanRoutes(router, services, cfg, logger)
	setupExportRoutes(router, services, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiter(cfg.Server.RateLimit, logger).Handler)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, services Services, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(services.Users, cfg.Server.Auth, logger)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCustomerRoutes(r chi.Router, cfg *config.Config, svc customer.Service, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, logger)

	r.Route("/customers", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.CreateCustomer)
		r.Get("/", h.ListCustomers)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.Put("/", h.UpdateCustomer)
			r.Delete("/", h.DeleteCustomer)
			r.Get("/summary", h.GetCustomerSummary)
		})
	})
}

func setupLoanRoutes(router *chi.Mux, services Services, cfg *config.Config, logger *slog.Logger) {
	loanHandler := handler.NewLoanHandler(services.Loans, logger)

	router.Route("/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", loanHandler.CreateLoan)
		r.Get("/", loanHandler.ListLoans)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", loanHandler.GetLoan)
			r.Put("/", loanHandler.UpdateLoan)
			r.Delete("/", loanHandler.DeleteLoan)
			r.Put("/status", loanHandler.SetLoanStatus)
			r.Post("/payments", loanHandler.RecordPayment)
			r.Get("/payments", loanHandler.ListPayments)
		})
	})

	router.Route("/dashboard", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", loanHandler.GetDashboard)
	})
}

func setupExportRoutes(router *chi.Mux, services Services, cfg *config.Config, logger *slog.Logger) {
	exportHandler := handler.NewExportHandler(services.Export, logger)

	router.Route("/export", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", exportHandler.Snapshot)
		r.Get("/overdue", exportHandler.OverdueReport)
	})
}
