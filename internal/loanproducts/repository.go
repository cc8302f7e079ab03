package loanproducts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/lending-backoffice/internal/platform/db"
)

// Repository persists loan products. Fees, insurances and collateral rules
// live in JSONB columns.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]LoanProduct, int, error)
	Get(ctx context.Context, id int64) (LoanProduct, error)
	Insert(ctx context.Context, p LoanProduct) (LoanProduct, error)
	Update(ctx context.Context, p LoanProduct) (LoanProduct, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const productColumns = `id, code, name, currency_code, min_amount, max_amount, min_term, max_term, interest_rate,
requires_collateral, min_collateral_ratio, has_insurance, fees, insurances, collateral_rules, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (LoanProduct, error) {
	var p LoanProduct
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.CurrencyCode, &p.MinAmount, &p.MaxAmount, &p.MinTerm, &p.MaxTerm, &p.InterestRate,
		&p.RequiresCollateral, &p.MinCollateralRatio, &p.HasInsurance, &p.Fees, &p.Insurances, &p.CollateralRules,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return LoanProduct{}, ErrNotFound
	case db.IsUniqueViolation(err, "uq_loan_products_code"):
		return LoanProduct{}, ErrDuplicateCode
	}
	return p, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]LoanProduct, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(code ILIKE $"+n+" OR name ILIKE $"+n+")")
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, "is_active = $"+strconv.Itoa(len(args)))
	}
	clause := strings.Join(where, " AND ")
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM loan_products WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM loan_products WHERE `+clause+
		fmt.Sprintf(` ORDER BY code LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []LoanProduct
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (LoanProduct, error) {
	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM loan_products WHERE id=$1`, id))
}

func (r *repository) Insert(ctx context.Context, p LoanProduct) (LoanProduct, error) {
	return scanProduct(r.db.QueryRow(ctx, `INSERT INTO loan_products (code, name, currency_code, min_amount, max_amount,
min_term, max_term, interest_rate, requires_collateral, min_collateral_ratio, has_insurance, fees, insurances,
collateral_rules, is_active) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15) RETURNING `+productColumns,
		p.Code, p.Name, p.CurrencyCode, p.MinAmount, p.MaxAmount, p.MinTerm, p.MaxTerm, p.InterestRate,
		p.RequiresCollateral, p.MinCollateralRatio, p.HasInsurance, nonNil(p.Fees), nonNil(p.Insurances),
		nonNil(p.CollateralRules), p.IsActive))
}

func (r *repository) Update(ctx context.Context, p LoanProduct) (LoanProduct, error) {
	return scanProduct(r.db.QueryRow(ctx, `UPDATE loan_products SET code=$2, name=$3, currency_code=$4, min_amount=$5,
max_amount=$6, min_term=$7, max_term=$8, interest_rate=$9, requires_collateral=$10, min_collateral_ratio=$11,
has_insurance=$12, fees=$13, insurances=$14, collateral_rules=$15, is_active=$16, updated_at=NOW()
WHERE id=$1 RETURNING `+productColumns,
		p.ID, p.Code, p.Name, p.CurrencyCode, p.MinAmount, p.MaxAmount, p.MinTerm, p.MaxTerm, p.InterestRate,
		p.RequiresCollateral, p.MinCollateralRatio, p.HasInsurance, nonNil(p.Fees), nonNil(p.Insurances),
		nonNil(p.CollateralRules), p.IsActive))
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
