package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/cache"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
)

// AccountReader resolves the account a ledger is requested for.
type AccountReader interface {
	Get(ctx context.Context, id int64) (accounts.Account, error)
}

// Service builds account ledgers with cached projections.
type Service struct {
	repo     Repository
	accounts AccountReader
	cache    *cache.Versioned
	group    singleflight.Group
	company  string
	now      func() time.Time
}

// NewService constructs the ledger service. A nil cache disables caching.
func NewService(repo Repository, accounts AccountReader, c *cache.Versioned) *Service {
	return &Service{repo: repo, accounts: accounts, cache: c, company: "Back Office", now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithCompanyName sets the title printed on exports.
func (s *Service) WithCompanyName(name string) {
	if name != "" {
		s.company = name
	}
}

// Query returns the ledger for q, serving repeated requests from cache.
func (s *Service) Query(ctx context.Context, q Query) (Response, error) {
	if err := validateQuery(q); err != nil {
		return Response{}, err
	}
	key, err := s.cache.BuildKey(ctx, cacheParts(q)...)
	if err != nil {
		return Response{}, err
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		var resp Response
		err := s.cache.FetchJSON(ctx, key, &resp, func(ctx context.Context) (any, error) {
			return s.load(ctx, q)
		})
		return resp, err
	})
	if err != nil {
		return Response{}, err
	}
	return result.(Response), nil
}

func (s *Service) load(ctx context.Context, q Query) (Response, error) {
	account, err := s.accounts.Get(ctx, q.AccountID)
	if err != nil {
		return Response{}, err
	}
	opening := decimal.Zero
	var openingRef *decimal.Decimal
	if q.From != nil && !q.From.IsZero() {
		debit, credit, err := s.repo.TotalsBefore(ctx, q.AccountID, q.From.Time, q.CostCenterID)
		if err != nil {
			return Response{}, err
		}
		opening = SignedBalance(account.NormalBalance, debit, credit)
		openingRef = &opening
	}
	movements, err := s.repo.Movements(ctx, q)
	if err != nil {
		return Response{}, err
	}
	items, closing := Project(account.NormalBalance, opening, movements)
	return Response{
		Account: AccountRef{
			ID:            account.ID,
			Code:          account.Code,
			Name:          account.Name,
			NormalBalance: account.NormalBalance,
		},
		Items:          items,
		OpeningBalance: openingRef,
		ClosingBalance: closing,
		GeneratedAt:    s.now().UTC(),
	}, nil
}

func validateQuery(q Query) error {
	errs := httpx.FieldErrors{}
	if q.AccountID <= 0 {
		errs["accountId"] = "is required"
	}
	if q.From != nil && q.To != nil && !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To.Time) {
		errs["from"] = "must be on or before to"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func cacheParts(q Query) []string {
	parts := []string{"account", strconv.FormatInt(q.AccountID, 10)}
	if q.From != nil && !q.From.IsZero() {
		parts = append(parts, "from", q.From.String())
	}
	if q.To != nil && !q.To.IsZero() {
		parts = append(parts, "to", q.To.String())
	}
	if q.CostCenterID != nil {
		parts = append(parts, "cc", strconv.FormatInt(*q.CostCenterID, 10))
	}
	return parts
}
