package journals

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// LineInput describes a journal line in a create or update request.
type LineInput struct {
	AccountID   int64           `json:"accountId" validate:"required,gt=0"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description *string         `json:"description" validate:"omitempty,max=255"`
	Reference   *string         `json:"reference" validate:"omitempty,max=100"`
}

// EntryInput is the editable part of a draft entry.
type EntryInput struct {
	Date         internalShared.Date `json:"date"`
	Description  string              `json:"description" validate:"required,max=500"`
	PeriodID     int64               `json:"periodId" validate:"required,gt=0"`
	CostCenterID *int64              `json:"costCenterId" validate:"omitempty,gt=0"`
	Lines        []LineInput         `json:"lines" validate:"required,dive"`
}

// Validate checks field constraints and per-line amount rules.
func (in *EntryInput) Validate() error {
	in.Description = strings.TrimSpace(in.Description)
	errs := httpx.FieldErrors{}
	if err := httpx.ValidateStruct(in); err != nil {
		fe, ok := err.(httpx.FieldErrors)
		if !ok {
			return err
		}
		errs = fe
	}
	if in.Date.IsZero() {
		errs["date"] = "is required"
	}
	if len(in.Lines) < 2 {
		errs["lines"] = "must contain at least 2 lines"
	}
	for i, line := range in.Lines {
		key := fmt.Sprintf("lines[%d]", i)
		switch {
		case line.Debit.IsNegative():
			errs[key+".debit"] = "must be zero or positive"
		case line.Credit.IsNegative():
			errs[key+".credit"] = "must be zero or positive"
		case !line.Debit.Equal(line.Debit.Round(2)):
			errs[key+".debit"] = "must have at most 2 decimal places"
		case !line.Credit.Equal(line.Credit.Round(2)):
			errs[key+".credit"] = "must have at most 2 decimal places"
		case line.Debit.IsPositive() && line.Credit.IsPositive():
			errs[key] = "cannot carry both debit and credit"
		case line.Debit.IsZero() && line.Credit.IsZero():
			errs[key] = "requires a debit or credit amount"
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (in EntryInput) toLines() []Line {
	lines := make([]Line, 0, len(in.Lines))
	for i, l := range in.Lines {
		lines = append(lines, Line{
			LineNo:      i + 1,
			AccountID:   l.AccountID,
			Debit:       l.Debit.Round(2),
			Credit:      l.Credit.Round(2),
			Description: trimmed(l.Description),
			Reference:   trimmed(l.Reference),
		})
	}
	return lines
}

func (in EntryInput) accountIDs() []int64 {
	ids := make([]int64, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.AccountID)
	}
	return ids
}

// VoidInput carries the void reason and an optional reversal date.
type VoidInput struct {
	Reason string               `json:"reason" validate:"required,max=500"`
	Date   *internalShared.Date `json:"date"`
}

// ListFilter narrows journal listings.
type ListFilter struct {
	Page     int
	PageSize int
	PeriodID *int64
	State    *State
	Search   string
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
