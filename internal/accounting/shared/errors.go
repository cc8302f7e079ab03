package shared

import (
	"errors"

	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
)

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrZeroTotal indicates a balanced entry that moves no money.
	ErrZeroTotal = errors.New("accounting: journal total must be greater than zero")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrInvalidLine indicates a malformed journal line.
	ErrInvalidLine = errors.New("accounting: invalid journal line")
	// ErrInvalidPeriod indicates a missing period.
	ErrInvalidPeriod = errors.New("accounting: period not found")
	// ErrPeriodNotOpen indicates the period does not accept postings or closing.
	ErrPeriodNotOpen = errors.New("accounting: period is not open")
	// ErrPeriodLocked indicates locked period.
	ErrPeriodLocked = errors.New("accounting: period locked")
	// ErrPeriodExists indicates the fiscal year and month already has a period.
	ErrPeriodExists = errors.New("accounting: period already exists")
	// ErrAnotherPeriodOpen indicates the single open period slot is taken.
	ErrAnotherPeriodOpen = errors.New("accounting: another period is already open")
	// ErrNoOpenPeriod indicates no period is currently open.
	ErrNoOpenPeriod = errors.New("accounting: no open period")
	// ErrPeriodHasPending indicates draft or unbalanced entries block closing.
	ErrPeriodHasPending = errors.New("accounting: period has unposted or unbalanced entries")
	// ErrNextPeriodUnavailable indicates the following month exists and cannot be opened.
	ErrNextPeriodUnavailable = errors.New("accounting: next period already closed")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrInvalidStatus indicates action can't proceed.
	ErrInvalidStatus = errors.New("accounting: invalid status transition")
	// ErrDateOutOfRange indicates journal date mismatch.
	ErrDateOutOfRange = errors.New("accounting: date outside period")
	// ErrReasonRequired indicates a void without reason.
	ErrReasonRequired = errors.New("accounting: void reason required")
	// ErrAccountNotFound indicates an unknown chart account.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrGroupAccount indicates a posting aimed at a group account.
	ErrGroupAccount = errors.New("accounting: group accounts cannot receive postings")
	// ErrAccountInactive indicates a posting aimed at a deactivated account.
	ErrAccountInactive = errors.New("accounting: account is inactive")
	// ErrInvalidParent indicates a parent that is not a group account.
	ErrInvalidParent = errors.New("accounting: parent must be a group account")
	// ErrAccountHasLines indicates an account with journal lines cannot become a group.
	ErrAccountHasLines = errors.New("accounting: account already has journal lines")
	// ErrAccountHasChildren indicates a group with children cannot become a leaf or move.
	ErrAccountHasChildren = errors.New("accounting: account has child accounts")
	// ErrDuplicateCode indicates code uniqueness violation.
	ErrDuplicateCode = errors.New("accounting: code already in use")
	// ErrCostCenterNotFound indicates an unknown cost center.
	ErrCostCenterNotFound = errors.New("accounting: cost center not found")
	// ErrAgencyNotFound indicates an unknown agency.
	ErrAgencyNotFound = errors.New("accounting: agency not found")
	// ErrMappingNotFound indicates missing account mapping.
	ErrMappingNotFound = errors.New("accounting: account mapping not found")
)

// Classify maps accounting errors onto HTTP sentinel categories.
func Classify(err error) error {
	switch {
	case errors.Is(err, ErrJournalNotFound), errors.Is(err, ErrInvalidPeriod),
		errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrCostCenterNotFound),
		errors.Is(err, ErrAgencyNotFound), errors.Is(err, ErrNoOpenPeriod),
		errors.Is(err, ErrMappingNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrPeriodExists), errors.Is(err, ErrAnotherPeriodOpen),
		errors.Is(err, ErrPeriodNotOpen), errors.Is(err, ErrPeriodLocked),
		errors.Is(err, ErrPeriodHasPending), errors.Is(err, ErrNextPeriodUnavailable),
		errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrUnbalanced),
		errors.Is(err, ErrZeroTotal), errors.Is(err, ErrDuplicateCode),
		errors.Is(err, ErrAccountHasLines), errors.Is(err, ErrAccountHasChildren):
		return httpx.ErrConflict
	case errors.Is(err, ErrTooFewLines), errors.Is(err, ErrInvalidLine),
		errors.Is(err, ErrDateOutOfRange), errors.Is(err, ErrReasonRequired),
		errors.Is(err, ErrGroupAccount), errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrInvalidParent):
		return httpx.ErrValidation
	}
	return nil
}
