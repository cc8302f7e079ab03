package loanproducts

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/mappings"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// AuditPort records product changes.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// MappingStore keeps the GL accounts each product posts to.
type MappingStore interface {
	ListByPrefix(ctx context.Context, module, prefix string) ([]mappings.AccountMapping, error)
	Replace(ctx context.Context, module, prefix string, accounts map[string]int64) error
}

// AccountResolver validates mapped GL accounts.
type AccountResolver interface {
	ResolvePostable(ctx context.Context, ids []int64) (map[int64]accounts.Account, error)
}

// Service manages loan products.
type Service struct {
	repo     Repository
	mappings MappingStore
	accounts AccountResolver
	audit    AuditPort
	now      func() time.Time
}

// NewService constructs the product service. mappings and accounts may be nil
// when GL mapping is not needed.
func NewService(repo Repository, mappings MappingStore, accounts AccountResolver, audit AuditPort) *Service {
	return &Service{repo: repo, mappings: mappings, accounts: accounts, audit: audit, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, filter ListFilter) (internalShared.PagedResult[LoanProduct], error) {
	filter.Page, filter.PageSize = internalShared.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return internalShared.PagedResult[LoanProduct]{}, err
	}
	return internalShared.NewPagedResult(items, filter.Page, filter.PageSize, total), nil
}

// Get loads a product with its GL account mapping.
func (s *Service) Get(ctx context.Context, id int64) (LoanProduct, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return LoanProduct{}, err
	}
	if s.mappings == nil {
		return p, nil
	}
	rows, err := s.mappings.ListByPrefix(ctx, mappings.ModuleLoanProduct, mappingPrefix(id))
	if err != nil {
		return LoanProduct{}, err
	}
	if len(rows) > 0 {
		p.GLAccounts = make(map[string]int64, len(rows))
		for _, m := range rows {
			p.GLAccounts[strings.TrimPrefix(m.Key, mappingPrefix(id))] = m.AccountID
		}
	}
	return p, nil
}

// Create validates and stores a product.
func (s *Service) Create(ctx context.Context, in LoanProduct) (LoanProduct, error) {
	if err := s.prepare(ctx, &in); err != nil {
		return LoanProduct{}, err
	}
	created, err := s.repo.Insert(ctx, in)
	if err != nil {
		return LoanProduct{}, err
	}
	if err := s.saveMappings(ctx, created.ID, in.GLAccounts); err != nil {
		return LoanProduct{}, err
	}
	created.GLAccounts = in.GLAccounts
	s.record(ctx, "loan_product.create", created)
	return created, nil
}

// Update validates and replaces a product.
func (s *Service) Update(ctx context.Context, id int64, in LoanProduct) (LoanProduct, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return LoanProduct{}, err
	}
	if err := s.prepare(ctx, &in); err != nil {
		return LoanProduct{}, err
	}
	in.ID = id
	updated, err := s.repo.Update(ctx, in)
	if err != nil {
		return LoanProduct{}, err
	}
	if err := s.saveMappings(ctx, id, in.GLAccounts); err != nil {
		return LoanProduct{}, err
	}
	updated.GLAccounts = in.GLAccounts
	s.record(ctx, "loan_product.update", updated)
	return updated, nil
}

func (s *Service) prepare(ctx context.Context, p *LoanProduct) error {
	Normalize(p)
	if errs := Validate(p); errs != nil {
		return errs
	}
	if len(p.GLAccounts) > 0 && s.accounts != nil {
		ids := make([]int64, 0, len(p.GLAccounts))
		for _, id := range p.GLAccounts {
			ids = append(ids, id)
		}
		if _, err := s.accounts.ResolvePostable(ctx, ids); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) saveMappings(ctx context.Context, id int64, gl map[string]int64) error {
	if s.mappings == nil || gl == nil {
		return nil
	}
	return s.mappings.Replace(ctx, mappings.ModuleLoanProduct, mappingPrefix(id), gl)
}

func (s *Service) record(ctx context.Context, action string, p LoanProduct) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorID(ctx),
		Action:   action,
		Entity:   "loan_product",
		EntityID: strconv.FormatInt(p.ID, 10),
		Meta:     map[string]any{"code": p.Code, "is_active": p.IsActive},
		At:       s.now(),
	})
}

func mappingPrefix(id int64) string {
	return strconv.FormatInt(id, 10) + ":"
}
