package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// Repository reads posted movements. Drafts never reach the ledger.
type Repository interface {
	Movements(ctx context.Context, q Query) ([]Movement, error)
	TotalsBefore(ctx context.Context, accountID int64, before time.Time, costCenterID *int64) (debit, credit decimal.Decimal, err error)
	AccountTotals(ctx context.Context, through time.Time) ([]AccountBalance, error)
	UnbalancedEntries(ctx context.Context) ([]int64, error)
	CountOpenPeriods(ctx context.Context) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed ledger reader.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) Movements(ctx context.Context, q Query) ([]Movement, error) {
	rows, err := r.db.Query(ctx, `SELECT e.date, e.id, e.number, COALESCE(l.description, e.description), e.state, l.debit, l.credit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1
  AND e.state IN ('posted','voided')
  AND ($2::date IS NULL OR e.date >= $2)
  AND ($3::date IS NULL OR e.date <= $3)
  AND ($4::bigint IS NULL OR e.cost_center_id = $4)
ORDER BY e.date, e.number NULLS LAST, e.id, l.line_no`, q.AccountID, dateArg(q.From), dateArg(q.To), q.CostCenterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		var (
			m    Movement
			date time.Time
		)
		if err := rows.Scan(&date, &m.EntryID, &m.JournalNumber, &m.Description, &m.State, &m.Debit, &m.Credit); err != nil {
			return nil, err
		}
		m.Date = internalShared.NewDate(date)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) TotalsBefore(ctx context.Context, accountID int64, before time.Time, costCenterID *int64) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1
  AND e.state IN ('posted','voided')
  AND e.date < $2
  AND ($3::bigint IS NULL OR e.cost_center_id = $3)`, accountID, before, costCenterID).Scan(&debit, &credit)
	return debit, credit, err
}

func (r *repository) AccountTotals(ctx context.Context, through time.Time) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.code, a.name, a.normal_balance, SUM(l.debit), SUM(l.credit)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN chart_accounts a ON a.id = l.account_id
WHERE e.state IN ('posted','voided') AND e.date <= $1
GROUP BY a.id, a.code, a.name, a.normal_balance
ORDER BY a.code`, through)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.NormalBalance, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) UnbalancedEntries(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT e.id
FROM journal_entries e
LEFT JOIN journal_lines l ON l.entry_id = e.id
WHERE e.state IN ('posted','voided')
GROUP BY e.id, e.total_debit, e.total_credit
HAVING COALESCE(SUM(l.debit),0) <> COALESCE(SUM(l.credit),0)
    OR COALESCE(SUM(l.debit),0) <> e.total_debit
    OR e.total_debit <> e.total_credit
ORDER BY e.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) CountOpenPeriods(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounting_periods WHERE state='open'`).Scan(&n)
	return n, err
}

func dateArg(d *internalShared.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
