package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"o3enc/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []history.Entry{
		{RunID: "run-a", Input: "/in/a.mkv", Preset: "x264_720p", Output: "/out/a_x264_720p_v00.mp4", Status: history.StatusSucceeded, FinalState: "cleaned_up", SizeBytes: 1024, Elapsed: 1500 * time.Millisecond, LoudnessApplied: true, CreatedAt: base},
		{RunID: "run-a", Input: "/in/a.mkv", Preset: "x264_1080p", Status: history.StatusFailed, FinalState: "failed", Error: "second pass encoding failed", CreatedAt: base.Add(time.Minute)},
		{RunID: "run-b", Input: "/in/b.mkv", Preset: "x264_720p", Status: history.StatusSucceeded, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, entry := range entries {
		if _, err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].RunID != "run-b" || recent[1].Preset != "x264_1080p" {
		t.Fatalf("unexpected order: %+v", recent)
	}
	if recent[1].Error != "second pass encoding failed" || recent[1].Status != history.StatusFailed {
		t.Fatalf("failure fields not kept: %+v", recent[1])
	}

	run, err := store.ForRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("ForRun: %v", err)
	}
	if len(run) != 2 {
		t.Fatalf("expected 2 entries for run-a, got %d", len(run))
	}
	first := run[0]
	if !first.LoudnessApplied || first.SizeBytes != 1024 || first.Elapsed != 1500*time.Millisecond {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if !first.CreatedAt.Equal(base) {
		t.Fatalf("created_at = %v, want %v", first.CreatedAt, base)
	}
}

func TestRecordRequiresPreset(t *testing.T) {
	store := openStore(t)
	if _, err := store.Record(context.Background(), history.Entry{RunID: "x"}); err == nil {
		t.Fatal("expected error for entry without preset")
	}
}

func TestRecordDefaultsStatusAndTime(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.Record(ctx, history.Entry{RunID: "r", Preset: "p"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	all, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 1 || all[0].Status != history.StatusFailed || all[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", all)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(ctx, history.Entry{RunID: "r", Preset: "p", Status: history.StatusSucceeded}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	all, err := reopened.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 entry after reopen, got %d", len(all))
	}
	if reopened.Path() != path {
		t.Fatalf("path = %q", reopened.Path())
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := history.Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(ctx, path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
