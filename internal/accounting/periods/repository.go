package periods

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/db"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// Repository persists accounting periods.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Period, int, error)
	Get(ctx context.Context, id int64) (Period, error)
	FindOpen(ctx context.Context) (Period, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a period ledger transaction.
type TxRepository interface {
	LockLedger(ctx context.Context) error
	GetForUpdate(ctx context.Context, id int64) (Period, error)
	FindByYearMonth(ctx context.Context, year, month int) (Period, bool, error)
	FindOpenForUpdate(ctx context.Context) (Period, bool, error)
	Insert(ctx context.Context, p Period) (Period, error)
	UpdateState(ctx context.Context, id int64, state State, notes *string, at time.Time) (Period, error)
	CountBlockingEntries(ctx context.Context, periodID int64) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const periodColumns = `id, fiscal_year, month, state, notes, opened_at, closed_at, locked_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.FiscalYear, &p.Month, &p.State, &p.Notes, &p.OpenedAt, &p.ClosedAt, &p.LockedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Period, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Year != nil {
		args = append(args, *filter.Year)
		where = append(where, "fiscal_year = $"+strconv.Itoa(len(args)))
	}
	if filter.State != nil {
		args = append(args, string(*filter.State))
		where = append(where, "state = $"+strconv.Itoa(len(args)))
	}
	clause := strings.Join(where, " AND ")
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounting_periods WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE `+clause+
		fmt.Sprintf(` ORDER BY fiscal_year DESC, month DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, shared.ErrInvalidPeriod
	}
	return p, err
}

func (r *repository) FindOpen(ctx context.Context) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE state='open' LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, shared.ErrNoOpenPeriod
	}
	return p, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) LockLedger(ctx context.Context) error {
	return db.AdvisoryXactLock(ctx, r.tx, internalShared.PeriodLedgerLock)
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, shared.ErrInvalidPeriod
	}
	return p, err
}

func (r *txRepository) FindByYearMonth(ctx context.Context, year, month int) (Period, bool, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE fiscal_year=$1 AND month=$2 FOR UPDATE`, year, month))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, false, nil
	}
	if err != nil {
		return Period{}, false, err
	}
	return p, true, nil
}

func (r *txRepository) FindOpenForUpdate(ctx context.Context) (Period, bool, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE state='open' LIMIT 1 FOR UPDATE`))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, false, nil
	}
	if err != nil {
		return Period{}, false, err
	}
	return p, true, nil
}

func (r *txRepository) Insert(ctx context.Context, p Period) (Period, error) {
	created, err := scanPeriod(r.tx.QueryRow(ctx, `INSERT INTO accounting_periods (fiscal_year, month, state, notes, opened_at)
VALUES ($1,$2,$3,$4,$5) RETURNING `+periodColumns, p.FiscalYear, p.Month, string(p.State), p.Notes, p.OpenedAt))
	switch {
	case db.IsUniqueViolation(err, "uq_accounting_periods_year_month"):
		return Period{}, shared.ErrPeriodExists
	case db.IsUniqueViolation(err, "uq_accounting_periods_single_open"):
		return Period{}, shared.ErrAnotherPeriodOpen
	}
	return created, err
}

func (r *txRepository) UpdateState(ctx context.Context, id int64, state State, notes *string, at time.Time) (Period, error) {
	var query string
	switch state {
	case StateClosed:
		query = `UPDATE accounting_periods SET state=$2, notes=COALESCE($3, notes), closed_at=$4, updated_at=NOW() WHERE id=$1 RETURNING ` + periodColumns
	case StateLocked:
		query = `UPDATE accounting_periods SET state=$2, notes=COALESCE($3, notes), locked_at=$4, updated_at=NOW() WHERE id=$1 RETURNING ` + periodColumns
	default:
		query = `UPDATE accounting_periods SET state=$2, notes=COALESCE($3, notes), opened_at=$4, closed_at=NULL, updated_at=NOW() WHERE id=$1 RETURNING ` + periodColumns
	}
	p, err := scanPeriod(r.tx.QueryRow(ctx, query, id, string(state), notes, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, shared.ErrInvalidPeriod
	}
	if db.IsUniqueViolation(err, "uq_accounting_periods_single_open") {
		return Period{}, shared.ErrAnotherPeriodOpen
	}
	return p, err
}

func (r *txRepository) CountBlockingEntries(ctx context.Context, periodID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries
WHERE period_id=$1 AND (state='draft' OR (state IN ('posted','voided') AND total_debit <> total_credit))`, periodID).Scan(&n)
	return n, err
}
