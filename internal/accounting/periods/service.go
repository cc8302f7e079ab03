package periods

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// AuditPort records period transitions.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service coordinates the period ledger. Every transition runs inside one
// transaction holding the ledger advisory lock, so at most one period is open.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the period service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns periods, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (internalShared.PagedResult[Period], error) {
	filter.Page, filter.PageSize = internalShared.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return internalShared.PagedResult[Period]{}, err
	}
	return internalShared.NewPagedResult(items, filter.Page, filter.PageSize, total), nil
}

// Get loads a period by id.
func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.Get(ctx, id)
}

// Current returns the open period.
func (s *Service) Current(ctx context.Context) (Period, error) {
	return s.repo.FindOpen(ctx)
}

// Open starts a fiscal month when no other period is open.
func (s *Service) Open(ctx context.Context, in OpenInput) (Period, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return Period{}, err
	}
	var opened Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockLedger(ctx); err != nil {
			return err
		}
		if _, exists, err := tx.FindByYearMonth(ctx, in.FiscalYear, in.Month); err != nil {
			return err
		} else if exists {
			return shared.ErrPeriodExists
		}
		if _, open, err := tx.FindOpenForUpdate(ctx); err != nil {
			return err
		} else if open {
			return shared.ErrAnotherPeriodOpen
		}
		p, err := tx.Insert(ctx, Period{
			FiscalYear: in.FiscalYear,
			Month:      in.Month,
			State:      StateOpen,
			Notes:      in.Notes,
			OpenedAt:   s.now(),
		})
		if err != nil {
			return err
		}
		opened = p
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, "period.open", opened, nil)
	return opened, nil
}

// Close closes an open period and opens the following calendar month.
func (s *Service) Close(ctx context.Context, id int64, in CloseInput) (CloseResult, error) {
	if err := httpx.ValidateStruct(in); err != nil {
		return CloseResult{}, err
	}
	var result CloseResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockLedger(ctx); err != nil {
			return err
		}
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := internalShared.ValidatePeriodTransition(string(current.State), internalShared.PeriodStateClosed, false); err != nil {
			return shared.ErrPeriodNotOpen
		}
		pending, err := tx.CountBlockingEntries(ctx, current.ID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return shared.ErrPeriodHasPending
		}
		now := s.now()
		closed, err := tx.UpdateState(ctx, current.ID, StateClosed, in.Notes, now)
		if err != nil {
			return err
		}
		year, month := NextMonth(current.FiscalYear, current.Month)
		next, exists, err := tx.FindByYearMonth(ctx, year, month)
		if err != nil {
			return err
		}
		switch {
		case !exists:
			next, err = tx.Insert(ctx, Period{FiscalYear: year, Month: month, State: StateOpen, OpenedAt: now})
			if err != nil {
				return err
			}
		case next.State != StateOpen:
			return shared.ErrNextPeriodUnavailable
		}
		result = CloseResult{ClosedPeriod: closed, OpenedPeriod: next}
		return nil
	})
	if err != nil {
		return CloseResult{}, err
	}
	s.record(ctx, "period.close", result.ClosedPeriod, map[string]any{"opened_period_id": result.OpenedPeriod.ID})
	return result, nil
}

// Lock freezes a closed period permanently.
func (s *Service) Lock(ctx context.Context, id int64) (Period, error) {
	var locked Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockLedger(ctx); err != nil {
			return err
		}
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := internalShared.ValidatePeriodTransition(string(current.State), internalShared.PeriodStateLocked, true); err != nil {
			if errors.Is(err, internalShared.ErrInvalidPeriodTransition) {
				return shared.ErrInvalidStatus
			}
			return err
		}
		p, err := tx.UpdateState(ctx, current.ID, StateLocked, nil, s.now())
		if err != nil {
			return err
		}
		locked = p
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, "period.lock", locked, nil)
	return locked, nil
}

func (s *Service) record(ctx context.Context, action string, p Period, extra map[string]any) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{"period": p.Code(), "state": string(p.State)}
	for k, v := range extra {
		meta[k] = v
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorID(ctx),
		Action:   action,
		Entity:   "accounting_period",
		EntityID: strconv.FormatInt(p.ID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
