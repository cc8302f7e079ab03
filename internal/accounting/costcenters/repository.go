package costcenters

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

// Repository persists cost centers and reads the agency catalog.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]CostCenter, int, error)
	Get(ctx context.Context, id int64) (CostCenter, error)
	Insert(ctx context.Context, cc CostCenter) (CostCenter, error)
	Update(ctx context.Context, cc CostCenter) (CostCenter, error)
	GetAgency(ctx context.Context, id int64) (Agency, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations used by the bulk agency sync.
type TxRepository interface {
	ListAgencies(ctx context.Context) ([]Agency, error)
	ListByAgency(ctx context.Context) (map[int64]CostCenter, error)
	Insert(ctx context.Context, cc CostCenter) (CostCenter, error)
	Update(ctx context.Context, cc CostCenter) (CostCenter, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const costCenterColumns = `id, code, name, slug, agency_id, is_active, created_at, updated_at`

func scanCostCenter(row pgx.Row) (CostCenter, error) {
	var cc CostCenter
	err := row.Scan(&cc.ID, &cc.Code, &cc.Name, &cc.Slug, &cc.AgencyID, &cc.IsActive, &cc.CreatedAt, &cc.UpdatedAt)
	return cc, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]CostCenter, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(code ILIKE $"+n+" OR name ILIKE $"+n+")")
	}
	if filter.AgencyID != nil {
		args = append(args, *filter.AgencyID)
		where = append(where, "agency_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where = append(where, "is_active = $"+strconv.Itoa(len(args)))
	}
	clause := strings.Join(where, " AND ")
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cost_centers WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	rows, err := r.db.Query(ctx, `SELECT `+costCenterColumns+` FROM cost_centers WHERE `+clause+
		fmt.Sprintf(` ORDER BY code LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []CostCenter
	for rows.Next() {
		cc, err := scanCostCenter(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, cc)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (CostCenter, error) {
	cc, err := scanCostCenter(r.db.QueryRow(ctx, `SELECT `+costCenterColumns+` FROM cost_centers WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return CostCenter{}, shared.ErrCostCenterNotFound
	}
	return cc, err
}

func (r *repository) Insert(ctx context.Context, cc CostCenter) (CostCenter, error) {
	return insertCostCenter(ctx, r.db, cc)
}

func (r *repository) Update(ctx context.Context, cc CostCenter) (CostCenter, error) {
	return updateCostCenter(ctx, r.db, cc)
}

func (r *repository) GetAgency(ctx context.Context, id int64) (Agency, error) {
	var a Agency
	err := r.db.QueryRow(ctx, `SELECT id, code, name, is_active FROM agencies WHERE id=$1`, id).Scan(&a.ID, &a.Code, &a.Name, &a.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agency{}, shared.ErrAgencyNotFound
	}
	return a, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) ListAgencies(ctx context.Context) ([]Agency, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, code, name, is_active FROM agencies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Agency
	for rows.Next() {
		var a Agency
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.IsActive); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *txRepository) ListByAgency(ctx context.Context) (map[int64]CostCenter, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+costCenterColumns+` FROM cost_centers ORDER BY id FOR UPDATE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]CostCenter{}
	for rows.Next() {
		cc, err := scanCostCenter(rows)
		if err != nil {
			return nil, err
		}
		if _, exists := out[cc.AgencyID]; !exists {
			out[cc.AgencyID] = cc
		}
	}
	return out, rows.Err()
}

func (r *txRepository) Insert(ctx context.Context, cc CostCenter) (CostCenter, error) {
	return insertCostCenter(ctx, r.tx, cc)
}

func (r *txRepository) Update(ctx context.Context, cc CostCenter) (CostCenter, error) {
	return updateCostCenter(ctx, r.tx, cc)
}

func insertCostCenter(ctx context.Context, q db.Querier, cc CostCenter) (CostCenter, error) {
	created, err := scanCostCenter(q.QueryRow(ctx, `INSERT INTO cost_centers (code, name, slug, agency_id, is_active)
VALUES ($1,$2,$3,$4,$5) RETURNING `+costCenterColumns, cc.Code, cc.Name, cc.Slug, cc.AgencyID, cc.IsActive))
	if db.IsUniqueViolation(err, "uq_cost_centers_code") {
		return CostCenter{}, shared.ErrDuplicateCode
	}
	return created, err
}

func updateCostCenter(ctx context.Context, q db.Querier, cc CostCenter) (CostCenter, error) {
	updated, err := scanCostCenter(q.QueryRow(ctx, `UPDATE cost_centers SET code=$2, name=$3, slug=$4, agency_id=$5, is_active=$6, updated_at=NOW()
WHERE id=$1 RETURNING `+costCenterColumns, cc.ID, cc.Code, cc.Name, cc.Slug, cc.AgencyID, cc.IsActive))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return CostCenter{}, shared.ErrCostCenterNotFound
	case db.IsUniqueViolation(err, "uq_cost_centers_code"):
		return CostCenter{}, shared.ErrDuplicateCode
	}
	return updated, err
}
