package journals

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/periods"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

type memoryRepo struct {
	entries map[int64]Entry
	lines   map[int64][]Line
	periods map[int64]periods.Period
	nextID  int64
	number  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		entries: map[int64]Entry{},
		lines:   map[int64][]Line{},
		periods: map[int64]periods.Period{
			1: {ID: 1, FiscalYear: 2024, Month: 2, State: periods.StateClosed},
			2: {ID: 2, FiscalYear: 2024, Month: 3, State: periods.StateOpen},
			3: {ID: 3, FiscalYear: 2024, Month: 1, State: periods.StateLocked},
		},
	}
}

func (m *memoryRepo) List(context.Context, ListFilter) ([]Entry, int, error) {
	var out []Entry
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Entry, []Line, error) {
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, nil, shared.ErrJournalNotFound
	}
	return e, append([]Line(nil), m.lines[id]...), nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	entries := make(map[int64]Entry, len(m.entries))
	for k, v := range m.entries {
		entries[k] = v
	}
	lines := make(map[int64][]Line, len(m.lines))
	for k, v := range m.lines {
		lines[k] = v
	}
	if err := fn(ctx, m); err != nil {
		m.entries, m.lines = entries, lines
		return err
	}
	return nil
}

func (m *memoryRepo) GetEntryForUpdate(_ context.Context, id int64) (Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, shared.ErrJournalNotFound
	}
	return e, nil
}

func (m *memoryRepo) GetLines(_ context.Context, entryID int64) ([]Line, error) {
	return append([]Line(nil), m.lines[entryID]...), nil
}

func (m *memoryRepo) InsertEntry(_ context.Context, e Entry) (Entry, error) {
	m.nextID++
	e.ID = m.nextID
	m.entries[e.ID] = e
	return e, nil
}

func (m *memoryRepo) UpdateDraft(_ context.Context, e Entry) (Entry, error) {
	m.entries[e.ID] = e
	return e, nil
}

func (m *memoryRepo) ReplaceLines(_ context.Context, entryID int64, lines []Line) ([]Line, error) {
	stored := make([]Line, len(lines))
	for i, l := range lines {
		l.ID = entryID*100 + int64(i+1)
		l.EntryID = entryID
		l.LineNo = i + 1
		stored[i] = l
	}
	m.lines[entryID] = stored
	return append([]Line(nil), stored...), nil
}

func (m *memoryRepo) NextNumber(context.Context) (int64, error) {
	m.number++
	return m.number, nil
}

func (m *memoryRepo) MarkPosted(_ context.Context, id, number int64, actor *int64, at time.Time) (Entry, error) {
	e := m.entries[id]
	e.State = StatePosted
	e.Number = &number
	e.PostedBy = actor
	e.PostedAt = &at
	e.TotalDebit, e.TotalCredit = Totals(m.lines[id])
	m.entries[id] = e
	return e, nil
}

func (m *memoryRepo) MarkVoided(_ context.Context, id int64, reason string, reversedBy int64, actor *int64, at time.Time) (Entry, error) {
	e := m.entries[id]
	e.State = StateVoided
	e.VoidReason = &reason
	e.ReversedBy = &reversedBy
	e.VoidedBy = actor
	e.VoidedAt = &at
	m.entries[id] = e
	return e, nil
}

func (m *memoryRepo) GetPeriodForUpdate(_ context.Context, id int64) (periods.Period, error) {
	p, ok := m.periods[id]
	if !ok {
		return periods.Period{}, shared.ErrInvalidPeriod
	}
	return p, nil
}

func (m *memoryRepo) FindOpenPeriodForUpdate(context.Context) (periods.Period, error) {
	for _, p := range m.periods {
		if p.State == periods.StateOpen {
			return p, nil
		}
	}
	return periods.Period{}, shared.ErrNoOpenPeriod
}

type stubAccounts map[int64]accounts.Account

func (s stubAccounts) ResolvePostable(_ context.Context, ids []int64) (map[int64]accounts.Account, error) {
	out := map[int64]accounts.Account{}
	for _, id := range ids {
		acc, ok := s[id]
		switch {
		case !ok:
			return nil, fmt.Errorf("%w: %d", shared.ErrAccountNotFound, id)
		case acc.IsGroup:
			return nil, fmt.Errorf("%w: %s", shared.ErrGroupAccount, acc.Code)
		case !acc.IsActive:
			return nil, fmt.Errorf("%w: %s", shared.ErrAccountInactive, acc.Code)
		}
		out[id] = acc
	}
	return out, nil
}

type auditSpy struct{ actions []string }

func (a *auditSpy) Record(_ context.Context, log internalShared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

type bumpCounter struct {
	n   int
	err error
}

func (b *bumpCounter) Bump(context.Context) error {
	b.n++
	return b.err
}

var testAccounts = stubAccounts{
	10: {ID: 10, Code: "1101", IsActive: true},
	11: {ID: 11, Code: "4101", IsActive: true},
	12: {ID: 12, Code: "1100", IsActive: true, IsGroup: true},
	13: {ID: 13, Code: "5101", IsActive: false},
}

func newTestService() (*Service, *memoryRepo, *auditSpy, *bumpCounter) {
	repo := newMemoryRepo()
	audit := &auditSpy{}
	bumps := &bumpCounter{}
	svc := NewService(repo, testAccounts, nil, audit)
	svc.WithLedgerInvalidator(bumps)
	svc.WithNow(func() time.Time { return time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC) })
	return svc, repo, audit, bumps
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func date(y int, m time.Month, d int) internalShared.Date {
	return internalShared.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func balancedInput(amount string) EntryInput {
	return EntryInput{
		Date:        date(2024, 3, 15),
		Description: "Desembolso préstamo 0042",
		PeriodID:    2,
		Lines: []LineInput{
			{AccountID: 10, Debit: dec(amount)},
			{AccountID: 11, Credit: dec(amount)},
		},
	}
}

func TestCreateComputesTotalsFromLines(t *testing.T) {
	svc, _, audit, _ := newTestService()
	in := balancedInput("150.25")
	in.Lines = append(in.Lines, LineInput{AccountID: 10, Debit: dec("49.75")}, LineInput{AccountID: 11, Credit: dec("49.75")})

	detail, err := svc.Create(context.Background(), 7, in)
	require.NoError(t, err)
	require.Equal(t, StateDraft, detail.State)
	require.Equal(t, SourceManual, detail.Source)
	require.Nil(t, detail.Number)
	require.True(t, detail.TotalDebit.Equal(dec("200")))
	require.True(t, detail.TotalCredit.Equal(dec("200")))
	require.True(t, detail.Balanced)
	require.Len(t, detail.Lines, 4)
	require.Equal(t, []string{"journal.create"}, audit.actions)
}

func TestCreateRejectsGroupAccount(t *testing.T) {
	svc, repo, _, _ := newTestService()
	in := balancedInput("100")
	in.Lines[0].AccountID = 12

	_, err := svc.Create(context.Background(), 7, in)
	require.ErrorIs(t, err, shared.ErrGroupAccount)
	require.Empty(t, repo.entries)
}

func TestCreateValidatesLines(t *testing.T) {
	svc, _, _, _ := newTestService()
	in := balancedInput("100")
	in.Lines[0].Credit = dec("5")
	in.Lines[1].Credit = dec("-1")

	_, err := svc.Create(context.Background(), 7, in)
	var fe httpx.FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe, "lines[0]")
	require.Contains(t, fe, "lines[1].credit")
}

func TestCreateRejectsSubCentAmounts(t *testing.T) {
	svc, repo, _, _ := newTestService()
	in := balancedInput("100")
	in.Lines = append(in.Lines, LineInput{AccountID: 10, Debit: dec("0.001")}, LineInput{AccountID: 11, Credit: dec("0.001")})

	_, err := svc.Create(context.Background(), 7, in)
	var fe httpx.FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe, "lines[2].debit")
	require.Contains(t, fe, "lines[3].credit")
	require.Empty(t, repo.entries)

	in = balancedInput("100.500")
	detail, err := svc.Create(context.Background(), 7, in)
	require.NoError(t, err)
	require.True(t, detail.TotalDebit.Equal(dec("100.5")))
}

func TestPostLogsLedgerBumpFailure(t *testing.T) {
	svc, _, _, bumps := newTestService()
	var buf bytes.Buffer
	svc.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	bumps.err = errors.New("redis down")
	ctx := context.Background()
	draft, err := svc.Create(ctx, 7, balancedInput("100"))
	require.NoError(t, err)

	posted, err := svc.Post(ctx, 7, draft.ID)
	require.NoError(t, err)
	require.Equal(t, StatePosted, posted.State)
	require.Contains(t, buf.String(), "bump ledger cache")
	require.Contains(t, buf.String(), "redis down")
}

func TestCreateRejectsLockedPeriodAndForeignDate(t *testing.T) {
	svc, _, _, _ := newTestService()
	in := balancedInput("100")
	in.PeriodID = 3
	in.Date = date(2024, 1, 10)
	_, err := svc.Create(context.Background(), 7, in)
	require.ErrorIs(t, err, shared.ErrPeriodLocked)

	in = balancedInput("100")
	in.Date = date(2024, 4, 1)
	_, err = svc.Create(context.Background(), 7, in)
	require.ErrorIs(t, err, shared.ErrDateOutOfRange)
}

func TestPostRequiresBalancedEntry(t *testing.T) {
	svc, _, _, bumps := newTestService()
	ctx := context.Background()
	in := balancedInput("100")
	in.Lines[1].Credit = dec("90")
	draft, err := svc.Create(ctx, 7, in)
	require.NoError(t, err)
	require.False(t, draft.Balanced)

	_, err = svc.Post(ctx, 7, draft.ID)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.Equal(t, 0, bumps.n)

	stored, err := svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, StateDraft, stored.State)
}

func TestPostAssignsNumberAndLocksLines(t *testing.T) {
	svc, _, _, bumps := newTestService()
	ctx := context.Background()
	draft, err := svc.Create(ctx, 7, balancedInput("100"))
	require.NoError(t, err)

	posted, err := svc.Post(ctx, 7, draft.ID)
	require.NoError(t, err)
	require.Equal(t, StatePosted, posted.State)
	require.NotNil(t, posted.Number)
	require.Equal(t, int64(1), *posted.Number)
	require.Equal(t, 1, bumps.n)

	_, err = svc.Update(ctx, 7, draft.ID, balancedInput("300"))
	require.ErrorIs(t, err, shared.ErrInvalidStatus)

	_, err = svc.Post(ctx, 7, draft.ID)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestPostRejectsClosedPeriod(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	draft, err := svc.Create(ctx, 7, balancedInput("100"))
	require.NoError(t, err)
	p := repo.periods[2]
	p.State = periods.StateClosed
	repo.periods[2] = p

	_, err = svc.Post(ctx, 7, draft.ID)
	require.ErrorIs(t, err, shared.ErrPeriodNotOpen)
}

func TestVoidRejectsDraftAndVoided(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	draft, err := svc.Create(ctx, 7, balancedInput("100"))
	require.NoError(t, err)

	_, err = svc.Void(ctx, 7, draft.ID, VoidInput{Reason: "duplicado"})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)

	_, err = svc.Post(ctx, 7, draft.ID)
	require.NoError(t, err)
	_, err = svc.Void(ctx, 7, draft.ID, VoidInput{Reason: "duplicado"})
	require.NoError(t, err)

	_, err = svc.Void(ctx, 7, draft.ID, VoidInput{Reason: "otra vez"})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestVoidRequiresReason(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Void(context.Background(), 7, 1, VoidInput{Reason: "   "})
	var fe httpx.FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe, "reason")
}

func TestVoidRoundTripCreatesSingleReversal(t *testing.T) {
	svc, repo, audit, bumps := newTestService()
	ctx := context.Background()
	in := balancedInput("100")
	in.Lines = []LineInput{
		{AccountID: 10, Debit: dec("60")},
		{AccountID: 10, Debit: dec("40")},
		{AccountID: 11, Credit: dec("100")},
	}
	draft, err := svc.Create(ctx, 7, in)
	require.NoError(t, err)
	_, err = svc.Post(ctx, 7, draft.ID)
	require.NoError(t, err)
	originalLines := append([]Line(nil), repo.lines[draft.ID]...)

	voided, err := svc.Void(ctx, 7, draft.ID, VoidInput{Reason: "monto equivocado"})
	require.NoError(t, err)
	require.Equal(t, StateVoided, voided.State)
	require.Equal(t, "monto equivocado", *voided.VoidReason)
	require.NotNil(t, voided.ReversedBy)
	require.Equal(t, originalLines, repo.lines[draft.ID])

	var reversals []Entry
	for _, e := range repo.entries {
		if e.ReversalOf != nil {
			reversals = append(reversals, e)
		}
	}
	require.Len(t, reversals, 1)
	reversal := reversals[0]
	require.Equal(t, *voided.ReversedBy, reversal.ID)
	require.Equal(t, draft.ID, *reversal.ReversalOf)
	require.Equal(t, StatePosted, reversal.State)
	require.Equal(t, SourceSystem, reversal.Source)
	require.Equal(t, int64(2), *reversal.Number)
	require.Equal(t, "Reversal of JE 1: monto equivocado", reversal.Description)
	require.Equal(t, int64(2), reversal.PeriodID)
	require.Equal(t, date(2024, 3, 20), reversal.Date)

	reversedLines := repo.lines[reversal.ID]
	require.Len(t, reversedLines, len(originalLines))
	for i := range originalLines {
		require.Equal(t, originalLines[i].AccountID, reversedLines[i].AccountID)
		require.True(t, originalLines[i].Debit.Equal(reversedLines[i].Credit))
		require.True(t, originalLines[i].Credit.Equal(reversedLines[i].Debit))
	}
	require.Equal(t, 2, bumps.n)
	require.Equal(t, []string{"journal.create", "journal.post", "journal.void"}, audit.actions)
}

func TestVoidDateMustFallInOpenPeriod(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	draft, err := svc.Create(ctx, 7, balancedInput("100"))
	require.NoError(t, err)
	_, err = svc.Post(ctx, 7, draft.ID)
	require.NoError(t, err)

	outside := date(2024, 2, 28)
	_, err = svc.Void(ctx, 7, draft.ID, VoidInput{Reason: "error", Date: &outside})
	require.ErrorIs(t, err, shared.ErrDateOutOfRange)
	require.Equal(t, StatePosted, repo.entries[draft.ID].State)

	inside := date(2024, 3, 5)
	_, err = svc.Void(ctx, 7, draft.ID, VoidInput{Reason: "error", Date: &inside})
	require.NoError(t, err)
	reversal := repo.entries[*repo.entries[draft.ID].ReversedBy]
	require.Equal(t, inside, reversal.Date)
}

func TestFSMTransitions(t *testing.T) {
	require.True(t, Can(StateDraft, eventPost))
	require.False(t, Can(StateDraft, eventVoid))
	require.True(t, Can(StatePosted, eventVoid))
	require.False(t, Can(StateVoided, eventVoid))
	require.False(t, Can(StateVoided, eventPost))

	next, err := transition(context.Background(), StatePosted, eventVoid)
	require.NoError(t, err)
	require.Equal(t, StateVoided, next)
}
