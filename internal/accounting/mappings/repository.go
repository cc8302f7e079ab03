package mappings

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/db"
)

type Repository interface {
	Get(ctx context.Context, module, key string) (AccountMapping, error)
	ListByPrefix(ctx context.Context, module, prefix string) ([]AccountMapping, error)
	Replace(ctx context.Context, module, prefix string, accounts map[string]int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Get resolves an account mapping for the specified key.
func (r *repository) Get(ctx context.Context, module, key string) (AccountMapping, error) {
	if module == "" || key == "" {
		return AccountMapping{}, errors.New("accounting: module and key required")
	}
	normalized := strings.ToUpper(module)
	var mapping AccountMapping
	err := r.db.QueryRow(ctx, `SELECT module, key, account_id, created_at, updated_at FROM account_mappings WHERE module=$1 AND key=$2`, normalized, key).
		Scan(&mapping.Module, &mapping.Key, &mapping.AccountID, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, shared.ErrMappingNotFound
		}
		return AccountMapping{}, err
	}
	return mapping, nil
}

// ListByPrefix returns mappings whose key starts with prefix.
func (r *repository) ListByPrefix(ctx context.Context, module, prefix string) ([]AccountMapping, error) {
	rows, err := r.db.Query(ctx, `SELECT module, key, account_id, created_at, updated_at FROM account_mappings
WHERE module=$1 AND key LIKE $2 ORDER BY key`, strings.ToUpper(module), prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountMapping
	for rows.Next() {
		var m AccountMapping
		if err := rows.Scan(&m.Module, &m.Key, &m.AccountID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Replace swaps every mapping under prefix for the given key suffix to account set.
func (r *repository) Replace(ctx context.Context, module, prefix string, accounts map[string]int64) error {
	normalized := strings.ToUpper(module)
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM account_mappings WHERE module=$1 AND key LIKE $2`, normalized, prefix+"%"); err != nil {
			return err
		}
		for suffix, accountID := range accounts {
			if _, err := tx.Exec(ctx, `INSERT INTO account_mappings (module, key, account_id) VALUES ($1,$2,$3)`,
				normalized, prefix+suffix, accountID); err != nil {
				return err
			}
		}
		return nil
	})
}
