package costcenters

import "time"

// CostCenter mirrors an agency for cost allocation.
type CostCenter struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	AgencyID  int64     `json:"agencyId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Agency is the read-only branch catalog entry a cost center mirrors.
type Agency struct {
	ID       int64
	Code     string
	Name     string
	IsActive bool
}

// SyncResult summarises a sync_with_agencies run.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// CostCenterInput is the create/update payload.
type CostCenterInput struct {
	Code     string `json:"code" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=160"`
	Slug     string `json:"slug" validate:"omitempty,max=160"`
	AgencyID int64  `json:"agencyId" validate:"required,gt=0"`
	IsActive *bool  `json:"isActive"`
}

// ListFilter narrows cost center listings.
type ListFilter struct {
	Page     int
	PageSize int
	Search   string
	AgencyID *int64
	Active   *bool
}

// CodeForAgency is the code given to the cost center mirroring an agency.
func CodeForAgency(agencyCode string) string {
	return "CC-" + agencyCode
}
