package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/costcenters"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Page         int
	PageSize     int
	Search       string
	Active       *bool
	PostableOnly bool
}

func (c *Client) ListAccounts(ctx context.Context, f AccountFilter) (shared.PagedResult[accounts.Account], error) {
	q := pageQuery(f.Page, f.PageSize)
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.Active != nil {
		q.Set("isActive", strconv.FormatBool(*f.Active))
	}
	if f.PostableOnly {
		q.Set("postable", "true")
	}
	var out shared.PagedResult[accounts.Account]
	err := c.do(ctx, request{method: http.MethodGet, path: "/accounting/chart", action: ActionListAccounts, query: q}, &out)
	return out, err
}

// SearchAccounts returns postable accounts matching term, as used by the
// journal line account picker.
func (c *Client) SearchAccounts(ctx context.Context, term string, limit int) ([]accounts.Account, error) {
	res, err := c.ListAccounts(ctx, AccountFilter{Page: 1, PageSize: limit, Search: term, PostableOnly: true})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *Client) CreateAccount(ctx context.Context, in accounts.AccountInput) (accounts.Account, error) {
	var out accounts.Account
	err := c.do(ctx, request{method: http.MethodPost, path: "/accounting/chart", action: ActionCreateAccount, body: in}, &out)
	return out, err
}

func (c *Client) UpdateAccount(ctx context.Context, id int64, in accounts.AccountInput) (accounts.Account, error) {
	var out accounts.Account
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/accounting/chart/" + strconv.FormatInt(id, 10),
		action: ActionUpdateAccount,
		body:   in,
	}, &out)
	return out, err
}

// CostCenterFilter narrows ListCostCenters.
type CostCenterFilter struct {
	Page     int
	PageSize int
	Search   string
	AgencyID int64
	Active   *bool
}

func (c *Client) ListCostCenters(ctx context.Context, f CostCenterFilter) (shared.PagedResult[costcenters.CostCenter], error) {
	q := pageQuery(f.Page, f.PageSize)
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.AgencyID > 0 {
		q.Set("agencyId", strconv.FormatInt(f.AgencyID, 10))
	}
	if f.Active != nil {
		q.Set("isActive", strconv.FormatBool(*f.Active))
	}
	var out shared.PagedResult[costcenters.CostCenter]
	err := c.do(ctx, request{method: http.MethodGet, path: "/accounting/cost_centers", action: ActionListCostCenters, query: q}, &out)
	return out, err
}

// SyncCostCenters mirrors the agency catalog into cost centers.
func (c *Client) SyncCostCenters(ctx context.Context) (costcenters.SyncResult, error) {
	var out costcenters.SyncResult
	err := c.do(ctx, request{method: http.MethodPost, path: "/accounting/cost_centers/sync_with_agencies", action: ActionSyncCostCenters}, &out)
	return out, err
}
