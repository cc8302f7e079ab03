package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/periods"
	"github.com/odyssey-erp/lending-backoffice/internal/client"
)

// PeriodsOptions selects a periods sub-command.
type PeriodsOptions struct {
	Action     string
	ID         int64
	Year       int
	Month      int
	Notes      string
	JSONOutput bool
}

// Periods runs list, current, open, close or lock.
func (r *Runner) Periods(ctx context.Context, opts PeriodsOptions) int {
	var notes *string
	if opts.Notes != "" {
		notes = &opts.Notes
	}
	switch opts.Action {
	case "", "list":
		res, err := r.Client.ListPeriods(ctx, client.PeriodFilter{Year: opts.Year, PageSize: 24})
		if err != nil {
			return r.fail("periods list", err)
		}
		if opts.JSONOutput {
			return r.writeJSON("periods list", res)
		}
		r.renderPeriods(res.Items...)
		return 0
	case "current":
		p, err := r.Client.CurrentPeriod(ctx)
		if err != nil {
			return r.fail("periods current", err)
		}
		if opts.JSONOutput {
			return r.writeJSON("periods current", p)
		}
		r.renderPeriods(p)
		return 0
	case "open":
		if opts.Year == 0 || opts.Month == 0 {
			return r.usage("periods open", "--year and --month are required")
		}
		p, err := r.Client.OpenPeriod(ctx, periods.OpenInput{FiscalYear: opts.Year, Month: opts.Month, Notes: notes})
		if err != nil {
			return r.fail("periods open", err)
		}
		_, _ = fmt.Fprintf(r.stdout(), "opened %s\n", p.Code())
		return 0
	case "close":
		if opts.ID <= 0 {
			return r.usage("periods close", "--id is required")
		}
		res, err := r.Client.ClosePeriod(ctx, opts.ID, periods.CloseInput{Notes: notes})
		if err != nil {
			return r.fail("periods close", err)
		}
		if opts.JSONOutput {
			return r.writeJSON("periods close", res)
		}
		_, _ = fmt.Fprintf(r.stdout(), "closed %s, opened %s\n", res.ClosedPeriod.Code(), res.OpenedPeriod.Code())
		return 0
	case "lock":
		if opts.ID <= 0 {
			return r.usage("periods lock", "--id is required")
		}
		p, err := r.Client.LockPeriod(ctx, opts.ID)
		if err != nil {
			return r.fail("periods lock", err)
		}
		_, _ = fmt.Fprintf(r.stdout(), "locked %s\n", p.Code())
		return 0
	default:
		return r.usage("periods", fmt.Sprintf("unknown action %q", opts.Action))
	}
}

func (r *Runner) renderPeriods(items ...periods.Period) {
	tw := tabwriter.NewWriter(r.stdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPERIOD\tSTATE")
	for _, p := range items {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Code(), p.State)
	}
	_ = tw.Flush()
}
