package client

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLedgerBareArray(t *testing.T) {
	got := NormalizeLedger([]byte(`[{"date":"2024-01-01","debit":100,"credit":0,"balance":100}]`))
	require.Len(t, got.Items, 1)
	require.Nil(t, got.OpeningBalance)
	require.True(t, got.Items[0].Balance.Equal(decimal.NewFromInt(100)))
	require.Equal(t, "2024-01-01", got.Items[0].Date.String())
}

func TestNormalizeLedgerLegacyEntries(t *testing.T) {
	got := NormalizeLedger([]byte(`{"entries":[{"date":"2024-01-01","debit":100,"credit":0,"balance":150}],"openingBalance":50}`))
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.OpeningBalance)
	require.True(t, got.OpeningBalance.Equal(decimal.NewFromInt(50)))
}

func TestNormalizeLedgerItemsPassThrough(t *testing.T) {
	raw := `{"account":{"id":7,"code":"1101","name":"Caja","normalBalance":"debit"},
		"items":[{"date":"2024-02-01","entryId":3,"debit":"10.00","credit":"0","balance":"60.00"},
		         {"date":"2024-02-02","entryId":4,"debit":"0","credit":"5.00","balance":"55.00"}],
		"openingBalance":"50.00","closingBalance":"55.00"}`
	got := NormalizeLedger([]byte(raw))
	require.Len(t, got.Items, 2)
	require.NotNil(t, got.Account)
	require.Equal(t, "1101", got.Account.Code)
	require.Equal(t, int64(4), got.Items[1].EntryID)
	require.True(t, got.OpeningBalance.Equal(decimal.NewFromInt(50)))
	require.True(t, got.ClosingBalance.Equal(decimal.NewFromInt(55)))
}

func TestNormalizeLedgerFallsBackToEmpty(t *testing.T) {
	for _, raw := range []string{``, `null`, `42`, `"ledger"`, `{}`, `{"rows":[]}`, `{"items":`, `{"items":"nope"}`} {
		got := NormalizeLedger([]byte(raw))
		require.NotNil(t, got.Items, raw)
		require.Empty(t, got.Items, raw)
		require.Nil(t, got.OpeningBalance, raw)
	}
}

func TestNormalizeLedgerSkipsMalformedRows(t *testing.T) {
	got := NormalizeLedger([]byte(`[{"date":"2024-01-01","debit":1,"credit":0,"balance":1},{"date":"not-a-date"}]`))
	require.Len(t, got.Items, 1)
}
