package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/periods"
	"github.com/odyssey-erp/lending-backoffice/internal/client"
	"github.com/odyssey-erp/lending-backoffice/jobs"
)

func newRunner(t *testing.T, h http.Handler) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL, nil)
	require.NoError(t, err)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	return &Runner{Client: c, Stdout: stdout, Stderr: stderr}, stdout, stderr
}

func TestPeriodsCloseReportsBothPeriods(t *testing.T) {
	runner, stdout, stderr := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounting/periods/4/close", r.URL.Path)
		_ = json.NewEncoder(w).Encode(periods.CloseResult{
			ClosedPeriod: periods.Period{ID: 4, FiscalYear: 2024, Month: 12, State: periods.StateClosed},
			OpenedPeriod: periods.Period{ID: 5, FiscalYear: 2025, Month: 1, State: periods.StateOpen},
		})
	}))

	code := runner.Periods(context.Background(), PeriodsOptions{Action: "close", ID: 4})
	require.Zero(t, code)
	require.Empty(t, stderr.String())
	require.Equal(t, "closed 2024-12, opened 2025-01\n", stdout.String())
}

func TestPeriodsOpenConflictExitCode(t *testing.T) {
	runner, _, stderr := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"accounting: another period is open"}`))
	}))

	code := runner.Periods(context.Background(), PeriodsOptions{Action: "open", Year: 2024, Month: 2})
	require.Equal(t, 3, code)
	require.Contains(t, stderr.String(), client.ConflictMessages[client.ActionOpenPeriod])
}

func TestPeriodsOpenRequiresMonth(t *testing.T) {
	runner, _, stderr := newRunner(t, http.NotFoundHandler())
	require.Equal(t, 2, runner.Periods(context.Background(), PeriodsOptions{Action: "open", Year: 2024}))
	require.Contains(t, stderr.String(), "--month")
}

func TestPostJournalRefusesUnbalancedDraft(t *testing.T) {
	posts := 0
	runner, _, stderr := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts++
		}
		_, _ = w.Write([]byte(`{"id":9,"state":"draft","lines":[
			{"lineNo":1,"accountId":1,"debit":"100","credit":"0"},
			{"lineNo":2,"accountId":2,"debit":"0","credit":"40"}]}`))
	}))

	require.Equal(t, 1, runner.PostJournal(context.Background(), 9))
	require.Contains(t, stderr.String(), "not balanced")
	require.Zero(t, posts)
}

func TestVoidJournalSendsDate(t *testing.T) {
	runner, stdout, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounting/journal/9/void", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "2024-03-31", body["date"])
		require.Equal(t, "duplicado", body["reason"])
		_, _ = w.Write([]byte(`{"id":9,"state":"voided","reversedBy":12}`))
	}))

	require.Zero(t, runner.VoidJournal(context.Background(), 9, "duplicado", "2024-03-31"))
	require.Equal(t, "voided entry 9, reversal entry 12\n", stdout.String())
}

func TestVoidJournalRejectsBadDate(t *testing.T) {
	runner, _, stderr := newRunner(t, http.NotFoundHandler())
	require.Equal(t, 2, runner.VoidJournal(context.Background(), 9, "duplicado", "31/03/2024"))
	require.Contains(t, stderr.String(), "invalid --date")
}

func TestLedgerPrintsLegacyShape(t *testing.T) {
	runner, stdout, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entries":[{"date":"2024-03-01","debit":25,"credit":0,"balance":75,"description":"Desembolso"}],"openingBalance":50}`))
	}))

	code := runner.Ledger(context.Background(), LedgerOptions{AccountID: 3, From: "2024-03-01"})
	require.Zero(t, code)
	require.Contains(t, stdout.String(), "opening balance 50.00")
	require.Contains(t, stdout.String(), "Desembolso")
	require.Contains(t, stdout.String(), "75.00")
}

func TestLedgerRejectsBadDate(t *testing.T) {
	runner, _, stderr := newRunner(t, http.NotFoundHandler())
	require.Equal(t, 2, runner.Ledger(context.Background(), LedgerOptions{AccountID: 3, From: "03/01/2024"}))
	require.Contains(t, stderr.String(), "invalid --from")
}

func TestLedgerExportWritesFile(t *testing.T) {
	runner, stdout, _ := newRunner(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "pdf", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="ledger-1101.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.3"))
	}))
	dir := t.TempDir()

	code := runner.Ledger(context.Background(), LedgerOptions{AccountID: 3, Export: "pdf", OutputDir: dir})
	require.Zero(t, code)
	body, err := os.ReadFile(filepath.Join(dir, "ledger-1101.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.3", string(body))
	require.Contains(t, stdout.String(), "wrote")
}

type stubQueue struct {
	triggered []string
	err       error
	stats     jobs.QueueStats
}

func (s *stubQueue) Trigger(_ context.Context, name string) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.triggered = append(s.triggered, name)
	return &asynq.TaskInfo{ID: "t-1", Type: name, Queue: jobs.QueueDefault}, nil
}

func (s *stubQueue) InspectQueue() (jobs.QueueStats, error) { return s.stats, s.err }

func (s *stubQueue) Close() error { return nil }

func TestJobsTriggerCommand(t *testing.T) {
	queue := &stubQueue{}
	jc := NewJobsCLIWithQueue(queue)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	jc.Stdout, jc.Stderr = stdout, stderr

	require.Zero(t, jc.TriggerCommand(context.Background(), jobs.TaskGLIntegrity))
	require.Equal(t, []string{jobs.TaskGLIntegrity}, queue.triggered)
	require.Contains(t, stdout.String(), "enqueued gl:integrity")

	require.Equal(t, 2, jc.TriggerCommand(context.Background(), ""))

	queue.err = errors.New("jobs: unsupported task nope")
	require.Equal(t, 1, jc.TriggerCommand(context.Background(), "nope"))
	require.Contains(t, stderr.String(), "unsupported task")
}

func TestJobsStatsCommand(t *testing.T) {
	queue := &stubQueue{stats: jobs.QueueStats{Queue: jobs.QueueDefault, Pending: 2, Failed: 1}}
	jc := NewJobsCLIWithQueue(queue)
	stdout := new(bytes.Buffer)
	jc.Stdout = stdout

	require.Zero(t, jc.StatsCommand())
	require.Contains(t, stdout.String(), "pending=2")
	require.Contains(t, stdout.String(), "failed=1")
}
