package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
)

// Project accumulates movements into running balances seeded with opening.
// Debit-normal accounts grow with debits; credit-normal accounts grow with credits.
func Project(normal accounts.NormalBalance, opening decimal.Decimal, movements []Movement) ([]Item, decimal.Decimal) {
	sign := normal.Sign()
	balance := opening
	items := make([]Item, 0, len(movements))
	for _, m := range movements {
		balance = balance.Add(m.Debit.Sub(m.Credit).Mul(sign))
		items = append(items, Item{
			Date:          m.Date,
			EntryID:       m.EntryID,
			JournalNumber: m.JournalNumber,
			Description:   m.Description,
			State:         m.State,
			Debit:         m.Debit,
			Credit:        m.Credit,
			Balance:       balance,
		})
	}
	return items, balance
}

// SignedBalance converts raw debit and credit sums into a balance for the account side.
func SignedBalance(normal accounts.NormalBalance, debit, credit decimal.Decimal) decimal.Decimal {
	return debit.Sub(credit).Mul(normal.Sign())
}
