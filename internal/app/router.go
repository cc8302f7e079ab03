package app

import (
	"log/slog"
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting"
	audithttp "github.com/odyssey-erp/lending-backoffice/internal/audit/http"
	"github.com/odyssey-erp/lending-backoffice/internal/auth"
	"github.com/odyssey-erp/lending-backoffice/internal/loanproducts"
	"github.com/odyssey-erp/lending-backoffice/internal/observability"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/lending-backoffice/internal/rbac"
	"github.com/odyssey-erp/lending-backoffice/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	Tokens              *auth.Tokens
	AuthHandler         *auth.Handler
	Accounting          *accounting.Module
	LoanProductsHandler *loanproducts.Handler
	PermissionsHandler  *rbac.PermissionsHandler
	AuditHandler        *audithttp.Handler
	JobHandler          *jobs.Handler
	RBACMiddleware      rbac.Middleware
	Metrics             *observability.Metrics
	Sentry              bool
}

// NewRouter constructs the chi.Router with back office defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		Tokens:  params.Tokens,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/rbac/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.Accounting != nil {
		r.Route("/accounting", params.Accounting.MountRoutes)
	}
	if params.LoanProductsHandler != nil {
		r.Route("/loan_products", params.LoanProductsHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireAdmin())
			params.JobHandler.MountRoutes(r)
		})
	}

	if params.Sentry {
		return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(r)
	}
	return r
}
