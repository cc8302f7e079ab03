package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// IntegrityReport summarises the general ledger health check.
type IntegrityReport struct {
	CheckedAt         time.Time       `json:"checkedAt"`
	TotalDebit        decimal.Decimal `json:"totalDebit"`
	TotalCredit       decimal.Decimal `json:"totalCredit"`
	UnbalancedEntries []int64         `json:"unbalancedEntries"`
	OpenPeriods       int             `json:"openPeriods"`
}

// Healthy reports whether the ledger satisfies every accounting invariant checked.
func (r IntegrityReport) Healthy() bool {
	return r.TotalDebit.Equal(r.TotalCredit) && len(r.UnbalancedEntries) == 0 && r.OpenPeriods <= 1
}

// TrialBalance aggregates posted movements per account through asOf (today when nil).
func (s *Service) TrialBalance(ctx context.Context, asOf *internalShared.Date) (TrialBalance, error) {
	through := internalShared.NewDate(s.now())
	if asOf != nil && !asOf.IsZero() {
		through = *asOf
	}
	balances, err := s.repo.AccountTotals(ctx, through.Time)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(through, balances), nil
}

// CheckIntegrity verifies global balance, per entry balance and the single open period rule.
func (s *Service) CheckIntegrity(ctx context.Context) (IntegrityReport, error) {
	tb, err := s.TrialBalance(ctx, nil)
	if err != nil {
		return IntegrityReport{}, err
	}
	unbalanced, err := s.repo.UnbalancedEntries(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}
	open, err := s.repo.CountOpenPeriods(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}
	if unbalanced == nil {
		unbalanced = []int64{}
	}
	return IntegrityReport{
		CheckedAt:         s.now().UTC(),
		TotalDebit:        tb.TotalDebit,
		TotalCredit:       tb.TotalCredit,
		UnbalancedEntries: unbalanced,
		OpenPeriods:       open,
	}, nil
}
