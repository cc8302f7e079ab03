package costcenters

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// AuditPort records cost center changes.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service manages cost centers.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the cost center service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns a page of cost centers.
func (s *Service) List(ctx context.Context, filter ListFilter) (internalShared.PagedResult[CostCenter], error) {
	filter.Page, filter.PageSize = internalShared.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return internalShared.PagedResult[CostCenter]{}, err
	}
	return internalShared.NewPagedResult(items, filter.Page, filter.PageSize, total), nil
}

// Get loads one cost center.
func (s *Service) Get(ctx context.Context, id int64) (CostCenter, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a cost center owned by an existing agency.
func (s *Service) Create(ctx context.Context, in CostCenterInput) (CostCenter, error) {
	cc, err := s.prepare(ctx, in)
	if err != nil {
		return CostCenter{}, err
	}
	created, err := s.repo.Insert(ctx, cc)
	if err != nil {
		return CostCenter{}, err
	}
	s.record(ctx, "cost_center.create", strconv.FormatInt(created.ID, 10), map[string]any{"code": created.Code})
	return created, nil
}

// Update replaces the mutable fields of a cost center.
func (s *Service) Update(ctx context.Context, id int64, in CostCenterInput) (CostCenter, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return CostCenter{}, err
	}
	cc, err := s.prepare(ctx, in)
	if err != nil {
		return CostCenter{}, err
	}
	cc.ID = id
	updated, err := s.repo.Update(ctx, cc)
	if err != nil {
		return CostCenter{}, err
	}
	s.record(ctx, "cost_center.update", strconv.FormatInt(id, 10), map[string]any{"code": updated.Code, "is_active": updated.IsActive})
	return updated, nil
}

// SyncWithAgencies mirrors the agency catalog one-to-one: agencies without a
// cost center get one, existing mirrors pick up name and active flag changes.
func (s *Service) SyncWithAgencies(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		result = SyncResult{}
		agencies, err := tx.ListAgencies(ctx)
		if err != nil {
			return err
		}
		existing, err := tx.ListByAgency(ctx)
		if err != nil {
			return err
		}
		for _, agency := range agencies {
			cc, ok := existing[agency.ID]
			if !ok {
				if _, err := tx.Insert(ctx, CostCenter{
					Code:     CodeForAgency(agency.Code),
					Name:     agency.Name,
					Slug:     internalShared.Slugify(agency.Name),
					AgencyID: agency.ID,
					IsActive: agency.IsActive,
				}); err != nil {
					return err
				}
				result.Created++
				continue
			}
			if cc.Name == agency.Name && cc.IsActive == agency.IsActive {
				continue
			}
			cc.Name = agency.Name
			cc.Slug = internalShared.Slugify(agency.Name)
			cc.IsActive = agency.IsActive
			if _, err := tx.Update(ctx, cc); err != nil {
				return err
			}
			result.Updated++
		}
		result.Total = len(agencies)
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}
	s.record(ctx, "cost_center.sync", "agencies", map[string]any{"created": result.Created, "updated": result.Updated})
	return result, nil
}

func (s *Service) prepare(ctx context.Context, in CostCenterInput) (CostCenter, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if strings.TrimSpace(in.Slug) == "" {
		in.Slug = internalShared.Slugify(in.Name)
	}
	if err := httpx.ValidateStruct(in); err != nil {
		return CostCenter{}, err
	}
	if _, err := s.repo.GetAgency(ctx, in.AgencyID); err != nil {
		return CostCenter{}, err
	}
	return CostCenter{
		Code:     in.Code,
		Name:     in.Name,
		Slug:     in.Slug,
		AgencyID: in.AgencyID,
		IsActive: in.IsActive == nil || *in.IsActive,
	}, nil
}

func (s *Service) record(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorID(ctx),
		Action:   action,
		Entity:   "cost_center",
		EntityID: entityID,
		Meta:     meta,
		At:       s.now(),
	})
}
