package client

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/ledger"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// LedgerResponse is the single shape every ledger payload is normalized to.
type LedgerResponse struct {
	Account        *ledger.AccountRef `json:"account,omitempty"`
	Items          []ledger.Item      `json:"items"`
	OpeningBalance *decimal.Decimal   `json:"openingBalance,omitempty"`
	ClosingBalance *decimal.Decimal   `json:"closingBalance,omitempty"`
}

// NormalizeLedger accepts every ledger shape the API has served:
//
//	[ ...items ]                         bare array
//	{ "items": [...], ... }              current shape
//	{ "entries": [...], "openingBalance" } legacy shape
//
// Anything else yields an empty ledger. It never fails.
func NormalizeLedger(raw []byte) LedgerResponse {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return emptyLedger()
	}
	switch raw[0] {
	case '[':
		return LedgerResponse{Items: decodeItems(raw)}
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return emptyLedger()
		}
		rows, ok := fields["items"]
		if !ok {
			rows, ok = fields["entries"]
		}
		if !ok {
			return emptyLedger()
		}
		out := LedgerResponse{
			Items:          decodeItems(rows),
			OpeningBalance: decodeDecimal(fields["openingBalance"]),
			ClosingBalance: decodeDecimal(fields["closingBalance"]),
		}
		if acc, ok := fields["account"]; ok {
			var ref ledger.AccountRef
			if err := json.Unmarshal(acc, &ref); err == nil && ref.ID > 0 {
				out.Account = &ref
			}
		}
		return out
	default:
		return emptyLedger()
	}
}

func emptyLedger() LedgerResponse {
	return LedgerResponse{Items: []ledger.Item{}}
}

// decodeItems keeps every row that decodes and drops the rest.
func decodeItems(raw json.RawMessage) []ledger.Item {
	items := []ledger.Item{}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return items
	}
	for _, row := range rows {
		var item ledger.Item
		if err := json.Unmarshal(row, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

func decodeDecimal(raw json.RawMessage) *decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil
	}
	return &d
}

// LedgerQuery selects one account's ledger.
type LedgerQuery struct {
	AccountID    int64
	CostCenterID int64
	From         *shared.Date
	To           *shared.Date
}

func (q LedgerQuery) values() url.Values {
	v := url.Values{}
	v.Set("accountId", strconv.FormatInt(q.AccountID, 10))
	if q.CostCenterID > 0 {
		v.Set("costCenterId", strconv.FormatInt(q.CostCenterID, 10))
	}
	if q.From != nil && !q.From.IsZero() {
		v.Set("from", q.From.String())
	}
	if q.To != nil && !q.To.IsZero() {
		v.Set("to", q.To.String())
	}
	return v
}

// Ledger fetches and normalizes an account ledger. Only transport and HTTP
// errors are returned; an unrecognised body is an empty ledger.
func (c *Client) Ledger(ctx context.Context, q LedgerQuery) (LedgerResponse, error) {
	body, _, err := c.send(ctx, request{method: http.MethodGet, path: "/accounting/ledger", action: ActionLedger, query: q.values()})
	if err != nil {
		return LedgerResponse{}, err
	}
	return NormalizeLedger(body), nil
}

// ExportFile is a downloaded ledger export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportLedger downloads the ledger as xlsx or pdf.
func (c *Client) ExportLedger(ctx context.Context, q LedgerQuery, format string) (ExportFile, error) {
	v := q.values()
	if format != "" {
		v.Set("format", format)
	}
	body, header, err := c.send(ctx, request{method: http.MethodGet, path: "/accounting/ledger/export", action: ActionLedgerExport, query: v})
	if err != nil {
		return ExportFile{}, err
	}
	file := ExportFile{ContentType: header.Get("Content-Type"), Body: body}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		file.Filename = params["filename"]
	}
	if file.Filename == "" {
		file.Filename = "ledger." + format
	}
	return file, nil
}

func (c *Client) TrialBalance(ctx context.Context, asOf *shared.Date) (ledger.TrialBalance, error) {
	q := url.Values{}
	if asOf != nil && !asOf.IsZero() {
		q.Set("asOf", asOf.String())
	}
	var out ledger.TrialBalance
	err := c.do(ctx, request{method: http.MethodGet, path: "/accounting/ledger/trial_balance", action: ActionTrialBalance, query: q}, &out)
	return out, err
}
