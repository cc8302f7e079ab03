package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// AuditPort records chart changes.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// LedgerInvalidator drops cached ledger reports after chart edits.
type LedgerInvalidator interface {
	Bump(ctx context.Context) error
}

// maxDepth bounds the ancestor walk when re-parenting.
const maxDepth = 64

// Service manages the chart of accounts.
type Service struct {
	repo   Repository
	audit  AuditPort
	ledger LedgerInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the chart service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, logger: slog.Default(), now: time.Now}
}

// WithLedgerInvalidator wires the ledger cache so reports see chart edits.
func (s *Service) WithLedgerInvalidator(l LedgerInvalidator) {
	s.ledger = l
}

// WithLogger overrides the logger.
func (s *Service) WithLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns a page of accounts ordered by code.
func (s *Service) List(ctx context.Context, filter ListFilter) (internalShared.PagedResult[Account], error) {
	filter.Page, filter.PageSize = internalShared.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return internalShared.PagedResult[Account]{}, err
	}
	return internalShared.NewPagedResult(items, filter.Page, filter.PageSize, total), nil
}

// Get loads a single account.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and inserts an account, deriving its level from the parent.
func (s *Service) Create(ctx context.Context, in AccountInput) (Account, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	level, err := s.levelFor(ctx, 0, in.ParentID)
	if err != nil {
		return Account{}, err
	}
	created, err := s.repo.Insert(ctx, Account{
		Code:          in.Code,
		Name:          in.Name,
		Slug:          in.Slug,
		Level:         level,
		ParentID:      in.ParentID,
		NormalBalance: in.NormalBalance,
		IsGroup:       in.IsGroup,
		IsActive:      in.active(),
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, "chart.create", created)
	return created, nil
}

// Update replaces the mutable fields. Deactivation is an update with isActive=false.
func (s *Service) Update(ctx context.Context, id int64, in AccountInput) (Account, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err := s.checkRestructure(ctx, current, in); err != nil {
		return Account{}, err
	}
	level, err := s.levelFor(ctx, id, in.ParentID)
	if err != nil {
		return Account{}, err
	}
	current.Code = in.Code
	current.Name = in.Name
	current.Slug = in.Slug
	current.Level = level
	current.ParentID = in.ParentID
	current.NormalBalance = in.NormalBalance
	current.IsGroup = in.IsGroup
	current.IsActive = in.active()
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, "chart.update", updated)
	if s.ledger != nil {
		if err := s.ledger.Bump(ctx); err != nil {
			s.logger.Warn("bump ledger cache", slog.Int64("account_id", id), slog.Any("error", err))
		}
	}
	return updated, nil
}

// ResolvePostable loads the accounts and rejects group, inactive or unknown ones.
func (s *Service) ResolvePostable(ctx context.Context, ids []int64) (map[int64]Account, error) {
	unique := uniqueIDs(ids)
	found, err := s.repo.GetMany(ctx, unique)
	if err != nil {
		return nil, err
	}
	for _, id := range unique {
		acc, ok := found[id]
		switch {
		case !ok:
			return nil, fmt.Errorf("%w: %d", shared.ErrAccountNotFound, id)
		case acc.IsGroup:
			return nil, fmt.Errorf("%w: %s", shared.ErrGroupAccount, acc.Code)
		case !acc.IsActive:
			return nil, fmt.Errorf("%w: %s", shared.ErrAccountInactive, acc.Code)
		}
	}
	return found, nil
}

// checkRestructure guards group flips and moves that would orphan lines or
// leave descendant levels stale.
func (s *Service) checkRestructure(ctx context.Context, current Account, in AccountInput) error {
	switch {
	case in.IsGroup && !current.IsGroup:
		used, err := s.repo.HasLines(ctx, current.ID)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: %s", shared.ErrAccountHasLines, current.Code)
		}
	case !in.IsGroup && current.IsGroup:
		hasChildren, err := s.repo.HasChildren(ctx, current.ID)
		if err != nil {
			return err
		}
		if hasChildren {
			return fmt.Errorf("%w: %s", shared.ErrAccountHasChildren, current.Code)
		}
	}
	if sameParent(current.ParentID, in.ParentID) {
		return nil
	}
	hasChildren, err := s.repo.HasChildren(ctx, current.ID)
	if err != nil {
		return err
	}
	if hasChildren {
		return fmt.Errorf("%w: move children before re-parenting %s", shared.ErrAccountHasChildren, current.Code)
	}
	return nil
}

func (s *Service) levelFor(ctx context.Context, selfID int64, parentID *int64) (int, error) {
	if parentID == nil {
		return 1, nil
	}
	if *parentID == selfID {
		return 0, shared.ErrInvalidParent
	}
	parent, err := s.repo.Get(ctx, *parentID)
	if err != nil {
		return 0, err
	}
	if !parent.IsGroup {
		return 0, shared.ErrInvalidParent
	}
	if selfID != 0 {
		if err := s.checkAncestors(ctx, selfID, parent); err != nil {
			return 0, err
		}
	}
	return parent.Level + 1, nil
}

// checkAncestors rejects a parent whose ancestor chain contains selfID.
func (s *Service) checkAncestors(ctx context.Context, selfID int64, parent Account) error {
	node := parent
	for depth := 0; node.ParentID != nil; depth++ {
		if *node.ParentID == selfID {
			return fmt.Errorf("%w: parent is a descendant", shared.ErrInvalidParent)
		}
		if depth >= maxDepth {
			return fmt.Errorf("%w: hierarchy too deep", shared.ErrInvalidParent)
		}
		next, err := s.repo.Get(ctx, *node.ParentID)
		if err != nil {
			return err
		}
		node = next
	}
	return nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Service) record(ctx context.Context, action string, a Account) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorID(ctx),
		Action:   action,
		Entity:   "chart_account",
		EntityID: strconv.FormatInt(a.ID, 10),
		Meta:     map[string]any{"code": a.Code, "is_active": a.IsActive, "is_group": a.IsGroup},
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("record chart audit", slog.String("action", action), slog.Any("error", err))
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
