package loanproducts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/mappings"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

type memoryRepo struct {
	nextID   int64
	products map[int64]LoanProduct
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: map[int64]LoanProduct{}}
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]LoanProduct, int, error) {
	var out []LoanProduct
	for _, p := range m.products {
		if filter.Active != nil && p.IsActive != *filter.Active {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name+p.Code), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (LoanProduct, error) {
	p, ok := m.products[id]
	if !ok {
		return LoanProduct{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Insert(_ context.Context, p LoanProduct) (LoanProduct, error) {
	for _, existing := range m.products {
		if existing.Code == p.Code {
			return LoanProduct{}, ErrDuplicateCode
		}
	}
	m.nextID++
	p.ID = m.nextID
	p.GLAccounts = nil
	m.products[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(_ context.Context, p LoanProduct) (LoanProduct, error) {
	if _, ok := m.products[p.ID]; !ok {
		return LoanProduct{}, ErrNotFound
	}
	p.GLAccounts = nil
	m.products[p.ID] = p
	return p, nil
}

type memoryMappings struct {
	rows map[string]int64
}

func (m *memoryMappings) ListByPrefix(_ context.Context, module, prefix string) ([]mappings.AccountMapping, error) {
	var out []mappings.AccountMapping
	for key, id := range m.rows {
		if strings.HasPrefix(key, module+"/"+prefix) {
			out = append(out, mappings.AccountMapping{Module: module, Key: strings.TrimPrefix(key, module+"/"), AccountID: id})
		}
	}
	return out, nil
}

func (m *memoryMappings) Replace(_ context.Context, module, prefix string, accounts map[string]int64) error {
	for key := range m.rows {
		if strings.HasPrefix(key, module+"/"+prefix) {
			delete(m.rows, key)
		}
	}
	for suffix, id := range accounts {
		m.rows[module+"/"+prefix+suffix] = id
	}
	return nil
}

type stubAccounts struct{}

func (stubAccounts) ResolvePostable(_ context.Context, ids []int64) (map[int64]accounts.Account, error) {
	out := make(map[int64]accounts.Account, len(ids))
	for _, id := range ids {
		if id == 99 {
			return nil, fmt.Errorf("%w: 1100", shared.ErrGroupAccount)
		}
		out[id] = accounts.Account{ID: id}
	}
	return out, nil
}

type recordingAudit struct {
	actions []string
}

func (a *recordingAudit) Record(_ context.Context, log internalShared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

func newTestService() (*Service, *memoryRepo, *memoryMappings, *recordingAudit) {
	repo := newMemoryRepo()
	maps := &memoryMappings{rows: map[string]int64{}}
	audit := &recordingAudit{}
	svc := NewService(repo, maps, stubAccounts{}, audit)
	svc.WithNow(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })
	return svc, repo, maps, audit
}

func TestCreateNormalizesAndStoresMappings(t *testing.T) {
	svc, _, maps, audit := newTestService()
	in := validProduct()
	in.Code = " agro-01 "
	in.CurrencyCode = "hnl"
	in.GLAccounts = map[string]int64{GLPortfolio: 10, GLInterestIncome: 20}

	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "AGRO-01", created.Code)
	require.Equal(t, "HNL", created.CurrencyCode)
	require.Len(t, maps.rows, 2)
	require.Equal(t, int64(10), maps.rows["LOAN_PRODUCT/1:portfolio"])

	loaded, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{GLPortfolio: 10, GLInterestIncome: 20}, loaded.GLAccounts)
	require.Equal(t, []string{"loan_product.create"}, audit.actions)
}

func TestCreateRejectsInvalidProduct(t *testing.T) {
	svc, repo, _, _ := newTestService()
	in := validProduct()
	in.MaxAmount = dec("10")

	_, err := svc.Create(context.Background(), in)
	var fields httpx.FieldErrors
	require.True(t, errors.As(err, &fields))
	require.Contains(t, fields, "maxAmount")
	require.Empty(t, repo.products)
}

func TestCreateRejectsGroupGLAccount(t *testing.T) {
	svc, repo, _, _ := newTestService()
	in := validProduct()
	in.GLAccounts = map[string]int64{GLPortfolio: 99}

	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrGroupAccount)
	require.Empty(t, repo.products)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Create(context.Background(), validProduct())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validProduct())
	require.ErrorIs(t, err, ErrDuplicateCode)
	require.ErrorIs(t, Classify(err), httpx.ErrConflict)
}

func TestUpdateReplacesMappings(t *testing.T) {
	svc, _, maps, audit := newTestService()
	in := validProduct()
	in.GLAccounts = map[string]int64{GLPortfolio: 10, GLFeeIncome: 30}
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	in.Name = "Crédito Agrícola Plus"
	in.GLAccounts = map[string]int64{GLPortfolio: 11}
	updated, err := svc.Update(context.Background(), created.ID, in)
	require.NoError(t, err)
	require.Equal(t, "Crédito Agrícola Plus", updated.Name)
	require.Equal(t, map[string]int64{"LOAN_PRODUCT/1:portfolio": 11}, maps.rows)
	require.Equal(t, []string{"loan_product.create", "loan_product.update"}, audit.actions)
}

func TestUpdateUnknownProduct(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Update(context.Background(), 42, validProduct())
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, Classify(err), httpx.ErrNotFound)
}

func TestListFiltersActive(t *testing.T) {
	svc, _, _, _ := newTestService()
	active := validProduct()
	_, err := svc.Create(context.Background(), active)
	require.NoError(t, err)
	inactive := validProduct()
	inactive.Code = "PYME-02"
	inactive.IsActive = false
	_, err = svc.Create(context.Background(), inactive)
	require.NoError(t, err)

	only := true
	page, err := svc.List(context.Background(), ListFilter{Active: &only})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "AGRO-01", page.Items[0].Code)
	require.Equal(t, internalShared.DefaultPageSize, page.PageSize)
}
