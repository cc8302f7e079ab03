package journals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/periods"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/db"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// Repository encapsulates DB operations for journals.
// It also needs access to periods for transaction-safe checks.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Entry, int, error)
	Get(ctx context.Context, id int64) (Entry, []Line, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetEntryForUpdate(ctx context.Context, id int64) (Entry, error)
	GetLines(ctx context.Context, entryID int64) ([]Line, error)
	InsertEntry(ctx context.Context, e Entry) (Entry, error)
	UpdateDraft(ctx context.Context, e Entry) (Entry, error)
	ReplaceLines(ctx context.Context, entryID int64, lines []Line) ([]Line, error)
	NextNumber(ctx context.Context) (int64, error)
	MarkPosted(ctx context.Context, id, number int64, actor *int64, at time.Time) (Entry, error)
	MarkVoided(ctx context.Context, id int64, reason string, reversedBy int64, actor *int64, at time.Time) (Entry, error)

	// Period operations needed within journal transactions
	GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error)
	FindOpenPeriodForUpdate(ctx context.Context) (periods.Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const entryColumns = `id, number, date, description, period_id, cost_center_id, state, source,
total_debit, total_credit, reversal_of, reversed_by, void_reason, created_by, posted_by, posted_at,
voided_by, voided_at, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e    Entry
		date time.Time
	)
	err := row.Scan(&e.ID, &e.Number, &date, &e.Description, &e.PeriodID, &e.CostCenterID, &e.State, &e.Source,
		&e.TotalDebit, &e.TotalCredit, &e.ReversalOf, &e.ReversedBy, &e.VoidReason, &e.CreatedBy, &e.PostedBy, &e.PostedAt,
		&e.VoidedBy, &e.VoidedAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.ErrJournalNotFound
	}
	e.Date = internalShared.NewDate(date)
	return e, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.PeriodID != nil {
		args = append(args, *filter.PeriodID)
		where = append(where, "period_id = $"+strconv.Itoa(len(args)))
	}
	if filter.State != nil {
		args = append(args, string(*filter.State))
		where = append(where, "state = $"+strconv.Itoa(len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(description ILIKE $"+n+" OR number::text ILIKE $"+n+")")
	}
	clause := strings.Join(where, " AND ")
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE `+clause+
		fmt.Sprintf(` ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Entry, []Line, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		return Entry{}, nil, err
	}
	lines, err := selectLines(ctx, r.db, id)
	if err != nil {
		return Entry{}, nil, err
	}
	return e, lines, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func selectLines(ctx context.Context, q db.Querier, entryID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, line_no, account_id, debit, credit, description, reference
FROM journal_lines WHERE entry_id=$1 ORDER BY line_no`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.EntryID, &l.LineNo, &l.AccountID, &l.Debit, &l.Credit, &l.Description, &l.Reference); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (Entry, error) {
	return scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) GetLines(ctx context.Context, entryID int64) ([]Line, error) {
	return selectLines(ctx, r.tx, entryID)
}

func (r *txRepository) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	return scanEntry(r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(date, description, period_id, cost_center_id, state, source, total_debit, total_credit, reversal_of, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING `+entryColumns,
		e.Date.Time, e.Description, e.PeriodID, e.CostCenterID, string(e.State), string(e.Source),
		e.TotalDebit, e.TotalCredit, e.ReversalOf, e.CreatedBy))
}

func (r *txRepository) UpdateDraft(ctx context.Context, e Entry) (Entry, error) {
	return scanEntry(r.tx.QueryRow(ctx, `UPDATE journal_entries SET date=$2, description=$3, period_id=$4,
cost_center_id=$5, total_debit=$6, total_credit=$7, updated_at=NOW()
WHERE id=$1 AND state='draft' RETURNING `+entryColumns,
		e.ID, e.Date.Time, e.Description, e.PeriodID, e.CostCenterID, e.TotalDebit, e.TotalCredit))
}

func (r *txRepository) ReplaceLines(ctx context.Context, entryID int64, lines []Line) ([]Line, error) {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id=$1`, entryID); err != nil {
		return nil, err
	}
	batch := &pgx.Batch{}
	for i, l := range lines {
		batch.Queue(`INSERT INTO journal_lines (entry_id, line_no, account_id, debit, credit, description, reference)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, entryID, i+1, l.AccountID, l.Debit, l.Credit, l.Description, l.Reference)
	}
	if err := r.tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, err
	}
	return selectLines(ctx, r.tx, entryID)
}

func (r *txRepository) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.tx.QueryRow(ctx, `SELECT nextval('journal_number_seq')`).Scan(&n)
	return n, err
}

func (r *txRepository) MarkPosted(ctx context.Context, id, number int64, actor *int64, at time.Time) (Entry, error) {
	return scanEntry(r.tx.QueryRow(ctx, `UPDATE journal_entries j SET state='posted', number=$2, posted_by=$3, posted_at=$4,
total_debit=t.debit, total_credit=t.credit, updated_at=NOW()
FROM (SELECT COALESCE(SUM(debit),0) AS debit, COALESCE(SUM(credit),0) AS credit FROM journal_lines WHERE entry_id=$1) t
WHERE j.id=$1 RETURNING `+prefixed("j", entryColumns), id, number, actor, at))
}

func (r *txRepository) MarkVoided(ctx context.Context, id int64, reason string, reversedBy int64, actor *int64, at time.Time) (Entry, error) {
	return scanEntry(r.tx.QueryRow(ctx, `UPDATE journal_entries SET state='voided', void_reason=$2, reversed_by=$3,
voided_by=$4, voided_at=$5, updated_at=NOW() WHERE id=$1 AND state='posted' RETURNING `+entryColumns,
		id, reason, reversedBy, actor, at))
}

const periodColumns = `id, fiscal_year, month, state, notes, opened_at, closed_at, locked_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (periods.Period, error) {
	var p periods.Period
	err := row.Scan(&p.ID, &p.FiscalYear, &p.Month, &p.State, &p.Notes, &p.OpenedAt, &p.ClosedAt, &p.LockedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1 FOR UPDATE`, periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return periods.Period{}, shared.ErrInvalidPeriod
	}
	return p, err
}

func (r *txRepository) FindOpenPeriodForUpdate(ctx context.Context) (periods.Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE state='open' LIMIT 1 FOR UPDATE`))
	if errors.Is(err, pgx.ErrNoRows) {
		return periods.Period{}, shared.ErrNoOpenPeriod
	}
	return p, err
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
