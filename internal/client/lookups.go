package client

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/costcenters"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/periods"
)

const lookupPageSize = 100

// Lookup names used in JournalLookups.Failed.
const (
	LookupAccounts    = "accounts"
	LookupCostCenters = "cost_centers"
	LookupOpenPeriod  = "open_period"
)

// JournalLookups are the catalogs a journal entry form needs.
type JournalLookups struct {
	Accounts    []accounts.Account
	CostCenters []costcenters.CostCenter
	OpenPeriod  *periods.Period
	// Failed names the lookups that did not load.
	Failed []string
}

// LoadJournalLookups fetches the lookups concurrently. A failing lookup does
// not cancel the others: whatever loaded is returned along with the first error.
func (c *Client) LoadJournalLookups(ctx context.Context) (JournalLookups, error) {
	var (
		out JournalLookups
		mu  sync.Mutex
		g   errgroup.Group
	)
	failed := func(name string) {
		mu.Lock()
		out.Failed = append(out.Failed, name)
		mu.Unlock()
	}

	g.Go(func() error {
		res, err := c.ListAccounts(ctx, AccountFilter{Page: 1, PageSize: lookupPageSize, PostableOnly: true})
		if err != nil {
			failed(LookupAccounts)
			return err
		}
		mu.Lock()
		out.Accounts = res.Items
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		active := true
		res, err := c.ListCostCenters(ctx, CostCenterFilter{Page: 1, PageSize: lookupPageSize, Active: &active})
		if err != nil {
			failed(LookupCostCenters)
			return err
		}
		mu.Lock()
		out.CostCenters = res.Items
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		p, err := c.CurrentPeriod(ctx)
		if err != nil {
			failed(LookupOpenPeriod)
			return err
		}
		mu.Lock()
		out.OpenPeriod = &p
		mu.Unlock()
		return nil
	})

	err := g.Wait()
	return out, err
}
