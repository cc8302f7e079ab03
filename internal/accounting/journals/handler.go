package journals

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/lending-backoffice/internal/rbac"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// IdempotencyHeader lets clients retry journal creation safely.
const IdempotencyHeader = "Idempotency-Key"

const idempotencyModule = "journal.create"

// IdempotencyPort remembers processed request keys.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

type Handler struct {
	service     *Service
	logger      *slog.Logger
	rbac        rbac.Middleware
	idempotency IdempotencyPort
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// WithIdempotency enables Idempotency-Key handling on create.
func (h *Handler) WithIdempotency(store IdempotencyPort) *Handler {
	h.idempotency = store
	return h
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
	periodID, err := httpx.QueryInt64Ptr(r, "periodId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter := ListFilter{Page: page, PageSize: pageSize, PeriodID: periodID, Search: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("state"); raw != "" {
		state := State(strings.ToLower(raw))
		switch state {
		case StateDraft, StatePosted, StateVoided:
		default:
			httpx.RespondError(w, httpx.FieldErrors{"state": "must be one of draft posted voided"})
			return
		}
		filter.State = &state
	}
	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list journals", err)
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
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get journal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in EntryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			if errors.Is(err, internalShared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Conflict", "request already processed")
				return
			}
			h.fail(w, "journal idempotency", err)
			return
		}
	}
	detail, err := h.service.Create(r.Context(), internalShared.ActorID(r.Context()), in)
	if err != nil {
		if key != "" && h.idempotency != nil {
			_ = h.idempotency.Delete(r.Context(), key)
		}
		h.fail(w, "create journal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, detail)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in EntryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.Update(r.Context(), internalShared.ActorID(r.Context()), id, in)
	if err != nil {
		h.fail(w, "update journal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.Post(r.Context(), internalShared.ActorID(r.Context()), id)
	if err != nil {
		h.fail(w, "post journal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in VoidInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.Void(r.Context(), internalShared.ActorID(r.Context()), id, in)
	if err != nil {
		h.fail(w, "void journal", err)
		return
	}
	h.logger.Info("journal voided", slog.Int64("entry_id", id), slog.Any("reversed_by", detail.ReversedBy))
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if shared.Classify(err) == nil && !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err, shared.Classify)
}
