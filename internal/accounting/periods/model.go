package periods

import (
	"fmt"
	"time"

	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// State enumerates valid period states.
type State string

const (
	StateOpen   State = internalShared.PeriodStateOpen
	StateClosed State = internalShared.PeriodStateClosed
	StateLocked State = internalShared.PeriodStateLocked
)

// Period represents a fiscal month.
type Period struct {
	ID         int64      `json:"id"`
	FiscalYear int        `json:"fiscalYear"`
	Month      int        `json:"month"`
	State      State      `json:"state"`
	Notes      *string    `json:"notes,omitempty"`
	OpenedAt   time.Time  `json:"openedAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
	LockedAt   *time.Time `json:"lockedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Code renders the period as YYYY-MM.
func (p Period) Code() string {
	return fmt.Sprintf("%04d-%02d", p.FiscalYear, p.Month)
}

// StartDate is the first day of the period (UTC).
func (p Period) StartDate() time.Time {
	return time.Date(p.FiscalYear, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// EndDate is the last day of the period (UTC).
func (p Period) EndDate() time.Time {
	return p.StartDate().AddDate(0, 1, -1)
}

// Contains reports whether the calendar date of d falls inside the period.
func (p Period) Contains(d time.Time) bool {
	y, m, _ := d.Date()
	return y == p.FiscalYear && int(m) == p.Month
}

// Clamp moves d into the period, keeping it when already inside.
func (p Period) Clamp(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if p.Contains(day) {
		return day
	}
	if day.Before(p.StartDate()) {
		return p.StartDate()
	}
	return p.EndDate()
}

// NextMonth returns the fiscal year and month immediately after (year, month).
func NextMonth(year, month int) (int, int) {
	if month >= 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// OpenInput opens a period explicitly.
type OpenInput struct {
	FiscalYear int     `json:"fiscalYear" validate:"required,gte=2000,lte=2100"`
	Month      int     `json:"month" validate:"required,gte=1,lte=12"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

// CloseInput carries optional closing notes.
type CloseInput struct {
	Notes *string `json:"notes" validate:"omitempty,max=500"`
}

// CloseResult is the outcome of closing a period.
type CloseResult struct {
	ClosedPeriod Period `json:"closedPeriod"`
	OpenedPeriod Period `json:"openedPeriod"`
}

// ListFilter narrows period listings.
type ListFilter struct {
	Page     int
	PageSize int
	Year     *int
	State    *State
}
