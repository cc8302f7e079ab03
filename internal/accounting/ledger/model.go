package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// Query selects the ledger of one account.
type Query struct {
	AccountID    int64
	From         *internalShared.Date
	To           *internalShared.Date
	CostCenterID *int64
}

// Movement is one journal line touching the account.
type Movement struct {
	Date          internalShared.Date
	EntryID       int64
	JournalNumber *int64
	Description   string
	State         string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}

// Item is a ledger row with its running balance.
type Item struct {
	Date          internalShared.Date `json:"date"`
	EntryID       int64               `json:"entryId"`
	JournalNumber *int64              `json:"journalNumber,omitempty"`
	Description   string              `json:"description"`
	State         string              `json:"state"`
	Debit         decimal.Decimal     `json:"debit"`
	Credit        decimal.Decimal     `json:"credit"`
	Balance       decimal.Decimal     `json:"balance"`
}

// AccountRef identifies the account a ledger belongs to.
type AccountRef struct {
	ID            int64                  `json:"id"`
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	NormalBalance accounts.NormalBalance `json:"normalBalance"`
}

// Response is the canonical ledger payload.
type Response struct {
	Account        AccountRef       `json:"account"`
	Items          []Item           `json:"items"`
	OpeningBalance *decimal.Decimal `json:"openingBalance,omitempty"`
	ClosingBalance decimal.Decimal  `json:"closingBalance"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}
