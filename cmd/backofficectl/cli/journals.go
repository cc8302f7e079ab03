package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/journals"
	"github.com/odyssey-erp/lending-backoffice/internal/client"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// PostJournal fetches the entry, runs the balance precheck and posts it.
func (r *Runner) PostJournal(ctx context.Context, id int64) int {
	if id <= 0 {
		return r.usage("journal post", "--id is required")
	}
	detail, err := r.Client.GetJournal(ctx, id)
	if err != nil {
		return r.fail("journal post", err)
	}
	if err := client.CanPost(detail); err != nil {
		return r.fail("journal post", err)
	}
	posted, err := r.Client.PostJournal(ctx, detail)
	if err != nil {
		return r.fail("journal post", err)
	}
	_, _ = fmt.Fprintf(r.stdout(), "posted entry %d as JE %s\n", posted.ID, entryNumber(posted.Number))
	return 0
}

// VoidJournal voids a posted entry and reports the reversal. An empty date
// lets the server date the reversal.
func (r *Runner) VoidJournal(ctx context.Context, id int64, reason, date string) int {
	if id <= 0 {
		return r.usage("journal void", "--id is required")
	}
	in := journals.VoidInput{Reason: reason}
	if raw := strings.TrimSpace(date); raw != "" {
		d, err := shared.ParseDate(raw)
		if err != nil {
			return r.usage("journal void", fmt.Sprintf("invalid --date %q (expected YYYY-MM-DD)", date))
		}
		in.Date = &d
	}
	voided, err := r.Client.VoidJournal(ctx, id, in)
	if err != nil {
		return r.fail("journal void", err)
	}
	reversal := "-"
	if voided.ReversedBy != nil {
		reversal = fmt.Sprint(*voided.ReversedBy)
	}
	_, _ = fmt.Fprintf(r.stdout(), "voided entry %d, reversal entry %s\n", voided.ID, reversal)
	return 0
}

func entryNumber(n *int64) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}
