package journals

import (
	"time"

	"github.com/shopspring/decimal"

	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// State enumerates journal lifecycle values.
type State string

const (
	StateDraft  State = "draft"
	StatePosted State = "posted"
	StateVoided State = "voided"
)

// Source tells manual entries apart from system generated ones.
type Source string

const (
	SourceManual Source = "manual"
	SourceSystem Source = "system"
)

// Entry captures journal header and posting metadata.
type Entry struct {
	ID           int64               `json:"id"`
	Number       *int64              `json:"number,omitempty"`
	Date         internalShared.Date `json:"date"`
	Description  string              `json:"description"`
	PeriodID     int64               `json:"periodId"`
	CostCenterID *int64              `json:"costCenterId,omitempty"`
	State        State               `json:"state"`
	Source       Source              `json:"source"`
	TotalDebit   decimal.Decimal     `json:"totalDebit"`
	TotalCredit  decimal.Decimal     `json:"totalCredit"`
	ReversalOf   *int64              `json:"reversalOf,omitempty"`
	ReversedBy   *int64              `json:"reversedBy,omitempty"`
	VoidReason   *string             `json:"voidReason,omitempty"`
	CreatedBy    *int64              `json:"createdBy,omitempty"`
	PostedBy     *int64              `json:"postedBy,omitempty"`
	PostedAt     *time.Time          `json:"postedAt,omitempty"`
	VoidedBy     *int64              `json:"voidedBy,omitempty"`
	VoidedAt     *time.Time          `json:"voidedAt,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// Line stores a debit or credit amount for an account.
type Line struct {
	ID          int64           `json:"id"`
	EntryID     int64           `json:"entryId"`
	LineNo      int             `json:"lineNo"`
	AccountID   int64           `json:"accountId"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description *string         `json:"description,omitempty"`
	Reference   *string         `json:"reference,omitempty"`
}

// EntryDetail is an entry with its lines.
type EntryDetail struct {
	Entry
	Lines    []Line `json:"lines"`
	Balanced bool   `json:"balanced"`
}

// Totals sums debit and credit across lines.
func Totals(lines []Line) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

func newDetail(e Entry, lines []Line) EntryDetail {
	if lines == nil {
		lines = []Line{}
	}
	e.TotalDebit, e.TotalCredit = Totals(lines)
	return EntryDetail{
		Entry:    e,
		Lines:    lines,
		Balanced: e.TotalDebit.Equal(e.TotalCredit) && e.TotalDebit.IsPositive(),
	}
}

func reverseLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for i, l := range lines {
		out = append(out, Line{
			LineNo:      i + 1,
			AccountID:   l.AccountID,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
			Reference:   l.Reference,
		})
	}
	return out
}
