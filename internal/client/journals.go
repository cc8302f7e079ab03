package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/journals"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// JournalFilter narrows ListJournals.
type JournalFilter struct {
	Page     int
	PageSize int
	PeriodID int64
	State    journals.State
	Search   string
}

func (c *Client) ListJournals(ctx context.Context, f JournalFilter) (shared.PagedResult[journals.Entry], error) {
	q := pageQuery(f.Page, f.PageSize)
	if f.PeriodID > 0 {
		q.Set("periodId", strconv.FormatInt(f.PeriodID, 10))
	}
	if f.State != "" {
		q.Set("state", string(f.State))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	var out shared.PagedResult[journals.Entry]
	err := c.do(ctx, request{method: http.MethodGet, path: "/accounting/journal", action: ActionListJournals, query: q}, &out)
	return out, err
}

func (c *Client) GetJournal(ctx context.Context, id int64) (journals.EntryDetail, error) {
	var out journals.EntryDetail
	err := c.do(ctx, request{method: http.MethodGet, path: journalPath(id, ""), action: ActionGetJournal}, &out)
	return out, err
}

// CreateJournal submits a draft under a newly generated Idempotency-Key.
// Callers that retry must use CreateJournalWithKey and reuse the key.
func (c *Client) CreateJournal(ctx context.Context, in journals.EntryInput) (journals.EntryDetail, error) {
	return c.CreateJournalWithKey(ctx, uuid.NewString(), in)
}

// CreateJournalWithKey submits a draft under the given Idempotency-Key. The
// server answers a repeated key with 409 instead of storing a second draft.
func (c *Client) CreateJournalWithKey(ctx context.Context, key string, in journals.EntryInput) (journals.EntryDetail, error) {
	var out journals.EntryDetail
	headers := map[string]string{}
	if key != "" {
		headers[journals.IdempotencyHeader] = key
	}
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/accounting/journal",
		action:  ActionCreateJournal,
		body:    in,
		headers: headers,
	}, &out)
	return out, err
}

func (c *Client) UpdateJournal(ctx context.Context, id int64, in journals.EntryInput) (journals.EntryDetail, error) {
	var out journals.EntryDetail
	err := c.do(ctx, request{method: http.MethodPut, path: journalPath(id, ""), action: ActionUpdateJournal, body: in}, &out)
	return out, err
}

// PostJournal posts a draft. It refuses locally when the totals are not
// balanced; the server repeats the check together with the period check.
func (c *Client) PostJournal(ctx context.Context, detail journals.EntryDetail) (journals.EntryDetail, error) {
	if err := CanPost(detail); err != nil {
		return journals.EntryDetail{}, err
	}
	var out journals.EntryDetail
	err := c.do(ctx, request{method: http.MethodPost, path: journalPath(detail.ID, "post"), action: ActionPostJournal}, &out)
	return out, err
}

// VoidJournal voids a posted entry and returns it with its reversal link.
func (c *Client) VoidJournal(ctx context.Context, id int64, in journals.VoidInput) (journals.EntryDetail, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		return journals.EntryDetail{}, &APIError{
			Action:  ActionVoidJournal,
			Message: "a reason is required to void an entry",
			Fields:  map[string]string{"reason": "required"},
		}
	}
	var out journals.EntryDetail
	err := c.do(ctx, request{method: http.MethodPost, path: journalPath(id, "void"), action: ActionVoidJournal, body: in}, &out)
	return out, err
}

// CanPost is the precheck behind the post action: the entry must be a draft
// with equal, positive totals computed from its lines.
func CanPost(detail journals.EntryDetail) error {
	if detail.State != "" && detail.State != journals.StateDraft {
		return &APIError{Action: ActionPostJournal, Message: "only draft entries can be posted"}
	}
	debit, credit := journals.Totals(detail.Lines)
	if !debit.Equal(credit) {
		return &APIError{
			Action:  ActionPostJournal,
			Message: fmt.Sprintf("entry is not balanced: debits %s, credits %s", debit.StringFixed(2), credit.StringFixed(2)),
		}
	}
	if !debit.IsPositive() {
		return &APIError{Action: ActionPostJournal, Message: "entry has no amounts to post"}
	}
	return nil
}

func journalPath(id int64, op string) string {
	p := "/accounting/journal/" + strconv.FormatInt(id, 10)
	if op != "" {
		p += "/" + op
	}
	return p
}
