package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type stubTimelineRepo struct {
	rows     []TimelineRow
	lastCall TimelineQuery
}

func (s *stubTimelineRepo) Timeline(ctx context.Context, q TimelineQuery) ([]TimelineRow, error) {
	s.lastCall = q
	if int(q.Limit) < len(s.rows) {
		return s.rows[:q.Limit], nil
	}
	return s.rows, nil
}

func row(at, actor, action, entity, id string) TimelineRow {
	ts, _ := time.Parse(time.RFC3339, at)
	return TimelineRow{At: ts, Actor: actor, Action: action, Entity: entity, EntityID: id}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{
		rows: []TimelineRow{
			row("2024-03-10T10:00:00Z", "ana@example.com", "journal.post", "journal_entry", "1"),
			row("2024-03-09T09:00:00Z", "ana@example.com", "period.close", "accounting_period", "2"),
			row("2024-03-08T08:00:00Z", "ana@example.com", "period.open", "accounting_period", "3"),
		},
	}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{
		From:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Page:     1,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if !result.Paging.HasNext || result.Paging.NextPage != 2 {
		t.Fatalf("expected next page 2, got %+v", result.Paging)
	}
	if repo.lastCall.Limit != 3 {
		t.Fatalf("expected limit 3, got %d", repo.lastCall.Limit)
	}
	if repo.lastCall.Offset != 0 {
		t.Fatalf("expected offset 0, got %d", repo.lastCall.Offset)
	}
	wantTo := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if !repo.lastCall.ToAt.Valid || !repo.lastCall.ToAt.Time.Equal(wantTo) {
		t.Fatalf("expected exclusive upper bound %s, got %+v", wantTo, repo.lastCall.ToAt)
	}
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 500, Entity: " journal_entry "})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if result.Paging.PageSize != maxPageSize || result.Paging.PrevPage != 2 {
		t.Fatalf("unexpected paging %+v", result.Paging)
	}
	if repo.lastCall.Offset != int32(2*maxPageSize) {
		t.Fatalf("expected offset %d, got %d", 2*maxPageSize, repo.lastCall.Offset)
	}
	if repo.lastCall.Entity != (pgtype.Text{String: "journal_entry", Valid: true}) {
		t.Fatalf("expected trimmed entity filter, got %+v", repo.lastCall.Entity)
	}
	if result.Rows == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestServiceExportReturnsAllRows(t *testing.T) {
	repo := &stubTimelineRepo{
		rows: []TimelineRow{
			row("2024-03-10T10:00:00Z", "actor", "journal.void", "journal_entry", "1"),
			row("2024-03-09T09:00:00Z", "actor", "period.open", "accounting_period", "2"),
		},
	}
	svc := NewService(repo)
	rows, err := svc.Export(context.Background(), TimelineFilters{From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if repo.lastCall.Actor != (pgtype.Text{}) {
		t.Fatalf("expected actor filter empty")
	}
	if repo.lastCall.Limit != MaxExportRows {
		t.Fatalf("expected export cap %d, got %d", MaxExportRows, repo.lastCall.Limit)
	}
}

func TestWriteCSV(t *testing.T) {
	actor := int64(7)
	r := row("2024-03-10T10:00:00Z", "ana@example.com", "journal.void", "journal_entry", "12")
	r.ActorID = &actor
	r.Meta = map[string]any{"reason": "duplicado, revisar"}
	out, err := WriteCSV([]TimelineRow{r})
	if err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", out)
	}
	if !strings.HasPrefix(lines[1], "2024-03-10T10:00:00Z,7,ana@example.com,journal.void,journal_entry,12,") {
		t.Fatalf("unexpected row %q", lines[1])
	}
	if !strings.Contains(lines[1], `"{""reason"":""duplicado, revisar""}"`) {
		t.Fatalf("meta not quoted as JSON: %q", lines[1])
	}
}
