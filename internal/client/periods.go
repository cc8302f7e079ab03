package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/periods"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// PeriodFilter narrows ListPeriods.
type PeriodFilter struct {
	Page     int
	PageSize int
	Year     int
	State    periods.State
}

func (c *Client) ListPeriods(ctx context.Context, f PeriodFilter) (shared.PagedResult[periods.Period], error) {
	q := pageQuery(f.Page, f.PageSize)
	if f.Year > 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if f.State != "" {
		q.Set("state", string(f.State))
	}
	var out shared.PagedResult[periods.Period]
	err := c.do(ctx, request{method: http.MethodGet, path: "/accounting/periods", action: ActionListPeriods, query: q}, &out)
	return out, err
}

// CurrentPeriod returns the single open period.
func (c *Client) CurrentPeriod(ctx context.Context) (periods.Period, error) {
	var out periods.Period
	err := c.do(ctx, request{method: http.MethodGet, path: "/accounting/periods/current", action: ActionCurrentPeriod}, &out)
	return out, err
}

func (c *Client) OpenPeriod(ctx context.Context, in periods.OpenInput) (periods.Period, error) {
	var out periods.Period
	err := c.do(ctx, request{method: http.MethodPost, path: "/accounting/periods/open", action: ActionOpenPeriod, body: in}, &out)
	return out, err
}

// ClosePeriod closes the period and returns it together with the newly opened
// next month. Callers should drop any cached current period afterwards.
func (c *Client) ClosePeriod(ctx context.Context, id int64, in periods.CloseInput) (periods.CloseResult, error) {
	var out periods.CloseResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/accounting/periods/%d/close", id),
		action: ActionClosePeriod,
		body:   in,
	}, &out)
	return out, err
}

func (c *Client) LockPeriod(ctx context.Context, id int64) (periods.Period, error) {
	var out periods.Period
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/accounting/periods/%d/lock", id),
		action: ActionLockPeriod,
	}, &out)
	return out, err
}
