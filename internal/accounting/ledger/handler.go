package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/lending-backoffice/internal/rbac"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// Handler serves account ledgers.
type Handler struct {
	service *Service
	logger  *slog.Logger
	rbac    rbac.Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers /ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(internalShared.PermFinanceGLView))
	r.Get("/", h.query)
	r.Get("/export", h.export)
	r.Get("/trial_balance", h.trialBalance)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	var asOf *internalShared.Date
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		d, err := internalShared.ParseDate(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"asOf": "must be a date (YYYY-MM-DD)"})
			return
		}
		asOf = &d
	}
	tb, err := h.service.TrialBalance(r.Context(), asOf)
	if err != nil {
		h.fail(w, "trial balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.Query(r.Context(), q)
	if err != nil {
		h.fail(w, "ledger query", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatXLSX
	}
	file, err := h.service.Export(r.Context(), q, format)
	if err != nil {
		h.fail(w, "ledger export", err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Body)
}

func parseQuery(r *http.Request) (Query, error) {
	accountID, err := httpx.QueryInt64Ptr(r, "accountId")
	if err != nil {
		return Query{}, err
	}
	costCenterID, err := httpx.QueryInt64Ptr(r, "costCenterId")
	if err != nil {
		return Query{}, err
	}
	q := Query{CostCenterID: costCenterID}
	if accountID != nil {
		q.AccountID = *accountID
	}
	for _, field := range []struct {
		name string
		dest **internalShared.Date
	}{{"from", &q.From}, {"to", &q.To}} {
		raw := r.URL.Query().Get(field.name)
		if raw == "" {
			continue
		}
		d, err := internalShared.ParseDate(raw)
		if err != nil {
			return Query{}, httpx.FieldErrors{field.name: "must be a date (YYYY-MM-DD)"}
		}
		*field.dest = &d
	}
	return q, nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.Classify(err) == nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err, shared.Classify)
}
