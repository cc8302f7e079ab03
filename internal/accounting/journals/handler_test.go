package journals

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/lending-backoffice/internal/rbac"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

func newTestHandler(svc *Service) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, svc, rbac.Middleware{Service: rbac.NewService(nil), Logger: logger})
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/accounting/journal", h.MountRoutes)
	return r
}

func send(t *testing.T, h http.Handler, method, target, body string, roles ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(roles) > 0 {
		p := internalShared.NewPrincipal("7", "ana@example.com", "Ana", roles)
		req = req.WithContext(internalShared.ContextWithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func withID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestPostHandlerMapsRepeatedPostToConflict(t *testing.T) {
	svc, _, _, _ := newTestService()
	draft, err := svc.Create(context.Background(), 7, balancedInput("100"))
	require.NoError(t, err)
	router := newTestRouter(newTestHandler(svc))

	rec := send(t, router, http.MethodPost, "/accounting/journal/1/post", "", "accountant")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var posted EntryDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))
	require.Equal(t, draft.ID, posted.ID)
	require.Equal(t, StatePosted, posted.State)

	rec = send(t, router, http.MethodPost, "/accounting/journal/1/post", "", "accountant")
	require.Equal(t, http.StatusConflict, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, "Conflict", problem.Title)
}

func TestCreateHandlerReturnsFieldErrors(t *testing.T) {
	svc, repo, _, _ := newTestService()
	router := newTestRouter(newTestHandler(svc))

	body := `{"date":"2024-03-15","description":"Ajuste","periodId":2,"lines":[{"accountId":10,"debit":"100","credit":"0"}]}`
	rec := send(t, router, http.MethodPost, "/accounting/journal/", body, "accountant")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Contains(t, problem.Errors, "lines")
	require.Empty(t, repo.entries)

	rec = send(t, router, http.MethodPost, "/accounting/journal/", `{"unknown":true}`, "accountant")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostAndVoidRequirePostPermission(t *testing.T) {
	svc, _, _, bumps := newTestService()
	ctx := context.Background()
	draft, err := svc.Create(ctx, 7, balancedInput("100"))
	require.NoError(t, err)
	router := newTestRouter(newTestHandler(svc))

	rec := send(t, router, http.MethodPost, "/accounting/journal/1/post", "", "auditor")
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = send(t, router, http.MethodPost, "/accounting/journal/1/void", `{"reason":"duplicado"}`, "auditor")
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = send(t, router, http.MethodPost, "/accounting/journal/1/post", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	stored, err := svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, StateDraft, stored.State)
	require.Zero(t, bumps.n)

	rec = send(t, router, http.MethodGet, "/accounting/journal/1", "", "auditor")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVoidHandlerStatusMapping(t *testing.T) {
	svc, _, _, _ := newTestService()
	draft, err := svc.Create(context.Background(), 7, balancedInput("100"))
	require.NoError(t, err)
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/accounting/journal/1/void", strings.NewReader(`{"reason":"duplicado"}`))
	req = withID(req, "1")
	rec := httptest.NewRecorder()
	handler.void(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	_, err = svc.Post(context.Background(), 7, draft.ID)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/accounting/journal/1/void", strings.NewReader(`{"reason":"  "}`))
	req = withID(req, "1")
	rec = httptest.NewRecorder()
	handler.void(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/accounting/journal/abc/void", strings.NewReader(`{"reason":"duplicado"}`))
	req = withID(req, "abc")
	rec = httptest.NewRecorder()
	handler.void(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/accounting/journal/1/void", strings.NewReader(`{"reason":"duplicado"}`))
	req = withID(req, "1")
	rec = httptest.NewRecorder()
	handler.void(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var voided EntryDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &voided))
	require.Equal(t, StateVoided, voided.State)
	require.NotNil(t, voided.ReversedBy)
}
