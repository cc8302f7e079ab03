package costcenters

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/lending-backoffice/internal/rbac"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// Handler exposes cost centers over JSON.
type Handler struct {
	service *Service
	logger  *slog.Logger
	rbac    rbac.Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers /cost_centers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(internalShared.PermFinanceGLView))
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin())
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/sync_with_agencies", h.sync)
	})
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
	agencyID, err := httpx.QueryInt64Ptr(r, "agencyId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	active, err := httpx.QueryBoolPtr(r, "isActive")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.List(r.Context(), ListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   r.URL.Query().Get("search"),
		AgencyID: agencyID,
		Active:   active,
	})
	if err != nil {
		h.fail(w, "list cost centers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cc, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get cost center", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CostCenterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cc, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create cost center", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cc)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in CostCenterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cc, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update cost center", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cc)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SyncWithAgencies(r.Context())
	if err != nil {
		h.fail(w, "sync cost centers", err)
		return
	}
	h.logger.Info("cost centers synced", slog.Int("created", result.Created), slog.Int("updated", result.Updated))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.Classify(err) == nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err, shared.Classify)
}
