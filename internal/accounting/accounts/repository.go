package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/db"
)

// Repository persists chart accounts.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Account, int, error)
	Get(ctx context.Context, id int64) (Account, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]Account, error)
	Insert(ctx context.Context, a Account) (Account, error)
	Update(ctx context.Context, a Account) (Account, error)
	HasChildren(ctx context.Context, id int64) (bool, error)
	HasLines(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const accountColumns = `id, code, name, slug, level, parent_id, normal_balance, is_group, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Slug, &a.Level, &a.ParentID, &a.NormalBalance, &a.IsGroup, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Account, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(code ILIKE $"+n+" OR name ILIKE $"+n+")")
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, "is_active = $"+strconv.Itoa(len(args)))
	}
	if filter.PostableOnly {
		where = append(where, "is_group = FALSE AND is_active = TRUE")
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chart_accounts WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM chart_accounts WHERE `+clause+
		fmt.Sprintf(` ORDER BY code LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM chart_accounts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, err
}

func (r *repository) GetMany(ctx context.Context, ids []int64) (map[int64]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM chart_accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]Account, len(ids))
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, a Account) (Account, error) {
	created, err := scanAccount(r.db.QueryRow(ctx, `INSERT INTO chart_accounts (code, name, slug, level, parent_id, normal_balance, is_group, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING `+accountColumns,
		a.Code, a.Name, a.Slug, a.Level, a.ParentID, a.NormalBalance, a.IsGroup, a.IsActive))
	if db.IsUniqueViolation(err, "uq_chart_accounts_code") {
		return Account{}, shared.ErrDuplicateCode
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, a Account) (Account, error) {
	updated, err := scanAccount(r.db.QueryRow(ctx, `UPDATE chart_accounts SET code=$2, name=$3, slug=$4, level=$5, parent_id=$6,
normal_balance=$7, is_group=$8, is_active=$9, updated_at=NOW() WHERE id=$1 RETURNING `+accountColumns,
		a.ID, a.Code, a.Name, a.Slug, a.Level, a.ParentID, a.NormalBalance, a.IsGroup, a.IsActive))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Account{}, shared.ErrAccountNotFound
	case db.IsUniqueViolation(err, "uq_chart_accounts_code"):
		return Account{}, shared.ErrDuplicateCode
	}
	return updated, err
}

func (r *repository) HasChildren(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chart_accounts WHERE parent_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) HasLines(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_lines WHERE account_id=$1)`, id).Scan(&exists)
	return exists, err
}
