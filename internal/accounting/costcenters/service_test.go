package costcenters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
)

type memoryRepo struct {
	nextID   int64
	centers  map[int64]CostCenter
	agencies []Agency
}

func (m *memoryRepo) List(_ context.Context, _ ListFilter) ([]CostCenter, int, error) {
	var out []CostCenter
	for _, cc := range m.centers {
		out = append(out, cc)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (CostCenter, error) {
	cc, ok := m.centers[id]
	if !ok {
		return CostCenter{}, shared.ErrCostCenterNotFound
	}
	return cc, nil
}

func (m *memoryRepo) Insert(_ context.Context, cc CostCenter) (CostCenter, error) {
	for _, existing := range m.centers {
		if existing.Code == cc.Code {
			return CostCenter{}, shared.ErrDuplicateCode
		}
	}
	m.nextID++
	cc.ID = m.nextID
	m.centers[cc.ID] = cc
	return cc, nil
}

func (m *memoryRepo) Update(_ context.Context, cc CostCenter) (CostCenter, error) {
	m.centers[cc.ID] = cc
	return cc, nil
}

func (m *memoryRepo) GetAgency(_ context.Context, id int64) (Agency, error) {
	for _, a := range m.agencies {
		if a.ID == id {
			return a, nil
		}
	}
	return Agency{}, shared.ErrAgencyNotFound
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) ListAgencies(context.Context) ([]Agency, error) {
	return m.agencies, nil
}

func (m *memoryRepo) ListByAgency(context.Context) (map[int64]CostCenter, error) {
	out := map[int64]CostCenter{}
	for _, cc := range m.centers {
		out[cc.AgencyID] = cc
	}
	return out, nil
}

func TestSyncWithAgenciesMirrorsCatalog(t *testing.T) {
	repo := &memoryRepo{
		centers: map[int64]CostCenter{},
		agencies: []Agency{
			{ID: 1, Code: "TGU", Name: "Tegucigalpa Centro", IsActive: true},
			{ID: 2, Code: "SPS", Name: "San Pedro Sula", IsActive: true},
		},
	}
	svc := NewService(repo, nil)
	ctx := context.Background()

	result, err := svc.SyncWithAgencies(ctx)
	require.NoError(t, err)
	require.Equal(t, SyncResult{Created: 2, Updated: 0, Total: 2}, result)
	require.Len(t, repo.centers, 2)

	// second run is a no-op
	result, err = svc.SyncWithAgencies(ctx)
	require.NoError(t, err)
	require.Equal(t, SyncResult{Created: 0, Updated: 0, Total: 2}, result)

	repo.agencies[1].Name = "San Pedro Sula Norte"
	repo.agencies[1].IsActive = false
	repo.agencies = append(repo.agencies, Agency{ID: 3, Code: "CEI", Name: "La Ceiba", IsActive: true})
	result, err = svc.SyncWithAgencies(ctx)
	require.NoError(t, err)
	require.Equal(t, SyncResult{Created: 1, Updated: 1, Total: 3}, result)

	var sps CostCenter
	for _, cc := range repo.centers {
		if cc.AgencyID == 2 {
			sps = cc
		}
	}
	require.Equal(t, "CC-SPS", sps.Code)
	require.Equal(t, "san-pedro-sula-norte", sps.Slug)
	require.False(t, sps.IsActive)
}

func TestCreateRequiresKnownAgency(t *testing.T) {
	repo := &memoryRepo{centers: map[int64]CostCenter{}}
	svc := NewService(repo, nil)
	_, err := svc.Create(context.Background(), CostCenterInput{Code: "CC-X", Name: "X", AgencyID: 9})
	require.ErrorIs(t, err, shared.ErrAgencyNotFound)
}
