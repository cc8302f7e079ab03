package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/odyssey-erp/lending-backoffice/internal/client"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// LedgerOptions defines the flags of the ledger command.
type LedgerOptions struct {
	AccountID    int64
	CostCenterID int64
	From         string
	To           string
	Export       string
	OutputDir    string
	JSONOutput   bool
}

// Ledger prints an account ledger or downloads it as xlsx/pdf.
func (r *Runner) Ledger(ctx context.Context, opts LedgerOptions) int {
	if opts.AccountID <= 0 {
		return r.usage("ledger", "--account is required and must be positive")
	}
	q := client.LedgerQuery{AccountID: opts.AccountID, CostCenterID: opts.CostCenterID}
	for _, f := range []struct {
		raw  string
		dest **shared.Date
		name string
	}{{opts.From, &q.From, "from"}, {opts.To, &q.To, "to"}} {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		d, err := shared.ParseDate(strings.TrimSpace(f.raw))
		if err != nil {
			return r.usage("ledger", fmt.Sprintf("invalid --%s %q (expected YYYY-MM-DD)", f.name, f.raw))
		}
		*f.dest = &d
	}

	if opts.Export != "" {
		file, err := r.Client.ExportLedger(ctx, q, opts.Export)
		if err != nil {
			return r.fail("ledger export", err)
		}
		path := filepath.Join(opts.OutputDir, filepath.Base(file.Filename))
		if err := os.WriteFile(path, file.Body, 0o644); err != nil {
			return r.fail("ledger export", err)
		}
		_, _ = fmt.Fprintf(r.stdout(), "wrote %s (%d bytes)\n", path, len(file.Body))
		return 0
	}

	res, err := r.Client.Ledger(ctx, q)
	if err != nil {
		return r.fail("ledger", err)
	}
	if opts.JSONOutput {
		return r.writeJSON("ledger", res)
	}
	if res.Account != nil {
		_, _ = fmt.Fprintf(r.stdout(), "%s %s (%s normal)\n", res.Account.Code, res.Account.Name, res.Account.NormalBalance)
	}
	if res.OpeningBalance != nil {
		_, _ = fmt.Fprintf(r.stdout(), "opening balance %s\n", res.OpeningBalance.StringFixed(2))
	}
	tw := tabwriter.NewWriter(r.stdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "DATE\tJE\tDEBIT\tCREDIT\tBALANCE\tDESCRIPTION\t")
	for _, it := range res.Items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			it.Date.String(), entryNumber(it.JournalNumber),
			it.Debit.StringFixed(2), it.Credit.StringFixed(2), it.Balance.StringFixed(2), orDash(it.Description))
	}
	_ = tw.Flush()
	if len(res.Items) == 0 {
		_, _ = fmt.Fprintln(r.stdout(), "no movements")
	}
	return 0
}
