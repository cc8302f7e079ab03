package periods

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

// Handler exposes the period ledger.
type Handler struct {
	service *Service
	logger  *slog.Logger
	rbac    rbac.Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers /periods routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(internalShared.PermFinanceGLView))
	r.Get("/", h.list)
	r.Get("/current", h.current)
	r.Get("/{id}", h.show)
	r.With(h.rbac.RequireAny(internalShared.PermFinancePeriodClose)).Post("/open", h.open)
	r.With(h.rbac.RequireAny(internalShared.PermFinancePeriodClose)).Post("/{id}/close", h.close)
	r.With(h.rbac.RequireAny(internalShared.PermFinanceOverride)).Post("/{id}/lock", h.lock)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.QueryInt(r, "page", 1)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pageSize, err := httpx.QueryInt(r, "pageSize", internalShared.DefaultPageSize)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter := ListFilter{Page: page, PageSize: pageSize}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"year": "must be a number"})
			return
		}
		filter.Year = &year
	}
	if raw := r.URL.Query().Get("state"); raw != "" {
		state := State(raw)
		switch state {
		case StateOpen, StateClosed, StateLocked:
		default:
			httpx.RespondError(w, httpx.FieldErrors{"state": "must be one of open closed locked"})
			return
		}
		filter.State = &state
	}
	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list periods", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Current(r.Context())
	if err != nil {
		h.fail(w, "current period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var in OpenInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Open(r.Context(), in)
	if err != nil {
		h.fail(w, "open period", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in CloseInput
	if err := httpx.DecodeOptionalJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Close(r.Context(), id, in)
	if err != nil {
		h.fail(w, "close period", err)
		return
	}
	h.logger.Info("period closed",
		slog.String("closed", result.ClosedPeriod.Code()),
		slog.String("opened", result.OpenedPeriod.Code()))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) lock(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Lock(r.Context(), id)
	if err != nil {
		h.fail(w, "lock period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.Classify(err) == nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err, shared.Classify)
}
