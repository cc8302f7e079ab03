package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// NormalBalance is the side on which an account grows.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

// Sign returns +1 for debit-normal accounts and -1 for credit-normal ones.
// A line contributes Sign * (debit - credit) to the account balance.
func (n NormalBalance) Sign() decimal.Decimal {
	if n == NormalBalanceCredit {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Account models a chart of accounts node.
type Account struct {
	ID            int64         `json:"id"`
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Level         int           `json:"level"`
	ParentID      *int64        `json:"parentId"`
	NormalBalance NormalBalance `json:"normalBalance"`
	IsGroup       bool          `json:"isGroup"`
	IsActive      bool          `json:"isActive"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Postable reports whether journal lines may target the account.
func (a Account) Postable() bool {
	return !a.IsGroup && a.IsActive
}
