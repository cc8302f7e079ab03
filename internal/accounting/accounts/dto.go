package accounts

import (
	"strings"

	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// AccountInput is the create/update payload.
type AccountInput struct {
	Code          string        `json:"code" validate:"required,max=32"`
	Name          string        `json:"name" validate:"required,max=160"`
	Slug          string        `json:"slug" validate:"omitempty,max=160"`
	ParentID      *int64        `json:"parentId" validate:"omitempty,gt=0"`
	NormalBalance NormalBalance `json:"normalBalance" validate:"required,oneof=debit credit"`
	IsGroup       bool          `json:"isGroup"`
	IsActive      *bool         `json:"isActive"`
}

// Normalize trims text fields and derives the slug when absent.
func (in *AccountInput) Normalize() {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = shared.Slugify(in.Name)
	}
}

// Validate checks field constraints.
func (in AccountInput) Validate() error {
	return httpx.ValidateStruct(in)
}

func (in AccountInput) active() bool {
	return in.IsActive == nil || *in.IsActive
}

// ListFilter narrows account listings.
type ListFilter struct {
	Page         int
	PageSize     int
	Search       string
	Active       *bool
	PostableOnly bool
}
