package journals

import (
	"github.com/go-chi/chi/v5"

	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(internalShared.PermFinanceGLView))
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermFinanceGLEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermFinanceGLPost))
		r.Post("/{id}/post", h.post)
		r.Post("/{id}/void", h.void)
	})
}
