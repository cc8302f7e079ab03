package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
)

// DefaultDebounce is the quiet period before a search request is sent.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the last function triggered within its delay.
type Debouncer struct {
	delay time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing anything scheduled earlier.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels a pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// AccountSearch is the search-as-you-type account picker: keystrokes are
// debounced and a slow response for an older term never replaces a newer one.
type AccountSearch struct {
	client   *Client
	debounce *Debouncer
	seq      SeqGuard
	limit    int
	deliver  func(term string, items []accounts.Account, err error)
}

// NewAccountSearch builds a picker delivering results to deliver.
func NewAccountSearch(c *Client, delay time.Duration, limit int, deliver func(term string, items []accounts.Account, err error)) *AccountSearch {
	if limit <= 0 {
		limit = 20
	}
	return &AccountSearch{client: c, debounce: NewDebouncer(delay), limit: limit, deliver: deliver}
}

// Search records a new term. Blank terms cancel any pending lookup.
func (s *AccountSearch) Search(ctx context.Context, term string) {
	token := s.seq.Begin()
	term = strings.TrimSpace(term)
	if term == "" {
		s.debounce.Stop()
		return
	}
	s.debounce.Trigger(func() {
		if !s.seq.Current(token) {
			return
		}
		items, err := s.client.SearchAccounts(ctx, term, s.limit)
		if !s.seq.Current(token) {
			return
		}
		s.deliver(term, items, err)
	})
}

// Close cancels a pending lookup and discards any in flight.
func (s *AccountSearch) Close() {
	s.seq.Begin()
	s.debounce.Stop()
}
