package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lending-backoffice/internal/audit"
	audithttp "github.com/odyssey-erp/lending-backoffice/internal/audit/http"
	"github.com/odyssey-erp/lending-backoffice/internal/auth"
	"github.com/odyssey-erp/lending-backoffice/internal/observability"
	"github.com/odyssey-erp/lending-backoffice/internal/rbac"
	"github.com/odyssey-erp/lending-backoffice/jobs"
)

type emptyTimeline struct{}

func (emptyTimeline) Timeline(context.Context, audit.TimelineFilters) (audit.Result, error) {
	return audit.Result{Rows: []audit.TimelineRow{}}, nil
}

func (emptyTimeline) Export(context.Context, audit.TimelineFilters) ([]audit.TimelineRow, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.Tokens) {
	t.Helper()
	cfg := &Config{AppEnv: "test", RateLimitPerMinute: 1000, AppRequestTimeout: 5 * time.Second, CORSAllowedOrigins: []string{"http://localhost:5173"}}
	tokens := auth.NewTokens("secret", "backoffice", time.Hour)
	logger := NewLogger(cfg)
	mw := rbac.Middleware{Service: rbac.NewService(nil), Logger: logger}
	router := NewRouter(RouterParams{
		Logger:             logger,
		Config:             cfg,
		Tokens:             tokens,
		AuthHandler:        auth.NewHandler(logger, auth.NewService(nil, tokens, logger)),
		PermissionsHandler: rbac.NewPermissionsHandler(mw.Service, mw),
		AuditHandler:       audithttp.NewHandler(logger, emptyTimeline{}, mw),
		JobHandler:         jobs.NewHandler(nil, logger),
		RBACMiddleware:     mw,
		Metrics:            observability.NewMetrics(),
	})
	return router, tokens
}

func do(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPublicEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/metrics", "").Code)
	require.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/auth/me", "").Code)
}

func TestSecureHeadersApplied(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(router, http.MethodGet, "/healthz", "")
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestJobsHealthIsAdminOnly(t *testing.T) {
	router, tokens := newTestRouter(t)
	admin, _, err := tokens.Issue(auth.User{ID: 1, Roles: []string{"admin"}})
	require.NoError(t, err)
	auditor, _, err := tokens.Issue(auth.User{ID: 2, Roles: []string{"auditor"}})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/jobs/health", admin).Code)
	require.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/jobs/health", auditor).Code)
}

func TestPermissionsForCaller(t *testing.T) {
	router, tokens := newTestRouter(t)
	auditor, _, err := tokens.Issue(auth.User{ID: 2, Roles: []string{"auditor"}})
	require.NoError(t, err)

	rec := do(router, http.MethodGet, "/rbac/permissions/mine", auditor)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"isAdmin":false`)
	require.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/rbac/permissions/", auditor).Code)
}

func TestAuditTimelineRequiresAuditPermission(t *testing.T) {
	router, tokens := newTestRouter(t)
	auditor, _, err := tokens.Issue(auth.User{ID: 2, Roles: []string{"auditor"}})
	require.NoError(t, err)
	accountant, _, err := tokens.Issue(auth.User{ID: 3, Roles: []string{"accountant"}})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/audit/timeline", auditor).Code)
	require.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/audit/timeline", accountant).Code)
}
