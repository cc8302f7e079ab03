package journals

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/costcenters"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/periods"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// AccountResolver loads postable accounts, rejecting group or inactive ones.
type AccountResolver interface {
	ResolvePostable(ctx context.Context, ids []int64) (map[int64]accounts.Account, error)
}

// CostCenterLookup verifies cost center references.
type CostCenterLookup interface {
	Get(ctx context.Context, id int64) (costcenters.CostCenter, error)
}

// LedgerInvalidator is told when posted balances change.
type LedgerInvalidator interface {
	Bump(ctx context.Context) error
}

type Service struct {
	repo        Repository
	accounts    AccountResolver
	costCenters CostCenterLookup
	audit       AuditPort
	ledger      LedgerInvalidator
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo Repository, accounts AccountResolver, costCenters CostCenterLookup, audit AuditPort) *Service {
	return &Service{repo: repo, accounts: accounts, costCenters: costCenters, audit: audit, logger: slog.Default(), now: time.Now}
}

// WithLogger overrides the logger used for best-effort side effects.
func (s *Service) WithLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithLedgerInvalidator registers the ledger cache to bump after post and void.
func (s *Service) WithLedgerInvalidator(l LedgerInvalidator) {
	s.ledger = l
}

func (s *Service) List(ctx context.Context, filter ListFilter) (internalShared.PagedResult[Entry], error) {
	filter.Page, filter.PageSize = internalShared.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return internalShared.PagedResult[Entry]{}, err
	}
	return internalShared.NewPagedResult(items, filter.Page, filter.PageSize, total), nil
}

func (s *Service) Get(ctx context.Context, id int64) (EntryDetail, error) {
	e, lines, err := s.repo.Get(ctx, id)
	if err != nil {
		return EntryDetail{}, err
	}
	return newDetail(e, lines), nil
}

// Create stores a manual draft entry.
func (s *Service) Create(ctx context.Context, actor int64, in EntryInput) (EntryDetail, error) {
	if err := s.prepare(ctx, &in); err != nil {
		return EntryDetail{}, err
	}
	lines := in.toLines()
	debit, credit := Totals(lines)
	var detail EntryDetail
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := ensureDraftPeriod(ctx, tx, in); err != nil {
			return err
		}
		entry, err := tx.InsertEntry(ctx, Entry{
			Date:         in.Date,
			Description:  in.Description,
			PeriodID:     in.PeriodID,
			CostCenterID: in.CostCenterID,
			State:        StateDraft,
			Source:       SourceManual,
			TotalDebit:   debit,
			TotalCredit:  credit,
			CreatedBy:    actorRef(actor),
		})
		if err != nil {
			return err
		}
		stored, err := tx.ReplaceLines(ctx, entry.ID, lines)
		if err != nil {
			return err
		}
		detail = newDetail(entry, stored)
		return nil
	})
	if err != nil {
		return EntryDetail{}, err
	}
	s.record(ctx, actor, "journal.create", detail.ID, map[string]any{"period_id": detail.PeriodID, "total_debit": detail.TotalDebit.String()})
	return detail, nil
}

// Update replaces header and lines of a draft entry.
func (s *Service) Update(ctx context.Context, actor int64, id int64, in EntryInput) (EntryDetail, error) {
	if err := s.prepare(ctx, &in); err != nil {
		return EntryDetail{}, err
	}
	lines := in.toLines()
	debit, credit := Totals(lines)
	var detail EntryDetail
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.State != StateDraft {
			return fmt.Errorf("%w: only draft entries can be edited", shared.ErrInvalidStatus)
		}
		if err := ensureDraftPeriod(ctx, tx, in); err != nil {
			return err
		}
		current.Date = in.Date
		current.Description = in.Description
		current.PeriodID = in.PeriodID
		current.CostCenterID = in.CostCenterID
		current.TotalDebit, current.TotalCredit = debit, credit
		updated, err := tx.UpdateDraft(ctx, current)
		if err != nil {
			return err
		}
		stored, err := tx.ReplaceLines(ctx, id, lines)
		if err != nil {
			return err
		}
		detail = newDetail(updated, stored)
		return nil
	})
	if err != nil {
		return EntryDetail{}, err
	}
	s.record(ctx, actor, "journal.update", id, map[string]any{"total_debit": detail.TotalDebit.String()})
	return detail, nil
}

// Post validates balance against stored lines and assigns the entry number.
func (s *Service) Post(ctx context.Context, actor int64, id int64) (EntryDetail, error) {
	var detail EntryDetail
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := transition(ctx, current.State, eventPost); err != nil {
			return err
		}
		period, err := tx.GetPeriodForUpdate(ctx, current.PeriodID)
		if err != nil {
			return err
		}
		if err := ensurePostable(period); err != nil {
			return err
		}
		lines, err := tx.GetLines(ctx, id)
		if err != nil {
			return err
		}
		if len(lines) < 2 {
			return shared.ErrTooFewLines
		}
		debit, credit := Totals(lines)
		if !debit.Equal(credit) {
			return fmt.Errorf("%w: debits sum is %s and credits sum is %s", shared.ErrUnbalanced, debit.StringFixed(2), credit.StringFixed(2))
		}
		if !debit.IsPositive() {
			return shared.ErrZeroTotal
		}
		if err := s.resolveAccounts(ctx, lineAccountIDs(lines)); err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx)
		if err != nil {
			return err
		}
		posted, err := tx.MarkPosted(ctx, id, number, actorRef(actor), s.now())
		if err != nil {
			return err
		}
		detail = newDetail(posted, lines)
		return nil
	})
	if err != nil {
		return EntryDetail{}, err
	}
	s.invalidateLedger(ctx)
	s.record(ctx, actor, "journal.post", id, map[string]any{"number": *detail.Number, "total": detail.TotalDebit.String()})
	return detail, nil
}

// Void flips a posted entry to voided and books a reversing entry in the open period.
func (s *Service) Void(ctx context.Context, actor int64, id int64, in VoidInput) (EntryDetail, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := httpx.ValidateStruct(in); err != nil {
		return EntryDetail{}, err
	}
	var (
		detail     EntryDetail
		reversalID int64
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := transition(ctx, original.State, eventVoid); err != nil {
			return err
		}
		open, err := tx.FindOpenPeriodForUpdate(ctx)
		if err != nil {
			return err
		}
		date := internalShared.NewDate(open.Clamp(s.now()))
		if in.Date != nil && !in.Date.IsZero() {
			if !open.Contains(in.Date.Time) {
				return fmt.Errorf("%w: %s is not in open period %s", shared.ErrDateOutOfRange, in.Date, open.Code())
			}
			date = *in.Date
		}
		lines, err := tx.GetLines(ctx, id)
		if err != nil {
			return err
		}
		reversed := reverseLines(lines)
		debit, credit := Totals(reversed)
		originalID := original.ID
		reversal, err := tx.InsertEntry(ctx, Entry{
			Date:         date,
			Description:  reversalMemo(original, in.Reason),
			PeriodID:     open.ID,
			CostCenterID: original.CostCenterID,
			State:        StateDraft,
			Source:       SourceSystem,
			TotalDebit:   debit,
			TotalCredit:  credit,
			ReversalOf:   &originalID,
			CreatedBy:    actorRef(actor),
		})
		if err != nil {
			return err
		}
		if _, err := tx.ReplaceLines(ctx, reversal.ID, reversed); err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx)
		if err != nil {
			return err
		}
		at := s.now()
		if _, err := tx.MarkPosted(ctx, reversal.ID, number, actorRef(actor), at); err != nil {
			return err
		}
		voided, err := tx.MarkVoided(ctx, id, in.Reason, reversal.ID, actorRef(actor), at)
		if err != nil {
			return err
		}
		reversalID = reversal.ID
		detail = newDetail(voided, lines)
		return nil
	})
	if err != nil {
		return EntryDetail{}, err
	}
	s.invalidateLedger(ctx)
	s.record(ctx, actor, "journal.void", id, map[string]any{"reason": in.Reason, "reversal_id": reversalID})
	return detail, nil
}

func (s *Service) prepare(ctx context.Context, in *EntryInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if err := s.resolveAccounts(ctx, in.accountIDs()); err != nil {
		return err
	}
	if in.CostCenterID != nil && s.costCenters != nil {
		if _, err := s.costCenters.Get(ctx, *in.CostCenterID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) resolveAccounts(ctx context.Context, ids []int64) error {
	if s.accounts == nil {
		return nil
	}
	_, err := s.accounts.ResolvePostable(ctx, ids)
	return err
}

func (s *Service) invalidateLedger(ctx context.Context) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Bump(ctx); err != nil {
		s.logger.Warn("bump ledger cache", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actor int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("record journal audit", slog.String("action", action), slog.Int64("entry_id", id), slog.Any("error", err))
	}
}

// ensureDraftPeriod checks that drafts target an existing, unlocked period
// and carry a date inside it.
func ensureDraftPeriod(ctx context.Context, tx TxRepository, in EntryInput) error {
	period, err := tx.GetPeriodForUpdate(ctx, in.PeriodID)
	if err != nil {
		return err
	}
	if period.State == periods.StateLocked {
		return shared.ErrPeriodLocked
	}
	if !period.Contains(in.Date.Time) {
		return fmt.Errorf("%w: %s is not in period %s", shared.ErrDateOutOfRange, in.Date, period.Code())
	}
	return nil
}

func ensurePostable(period periods.Period) error {
	switch period.State {
	case periods.StateOpen:
		return nil
	case periods.StateLocked:
		return shared.ErrPeriodLocked
	default:
		return fmt.Errorf("%w: %s", shared.ErrPeriodNotOpen, period.Code())
	}
}

func reversalMemo(original Entry, reason string) string {
	if original.Number != nil {
		return fmt.Sprintf("Reversal of JE %d: %s", *original.Number, reason)
	}
	return fmt.Sprintf("Reversal of entry %d: %s", original.ID, reason)
}

func lineAccountIDs(lines []Line) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.AccountID)
	}
	return ids
}

func actorRef(actor int64) *int64 {
	if actor <= 0 {
		return nil
	}
	return &actor
}
