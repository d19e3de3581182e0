package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vpxmerge/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return store
}

func TestRecordAndListRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &history.Run{
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			SourcePath: "/tables/source.vpx",
			DestPath:   "/tables/baked.vpx",
			Mode:       "remove",
			ItemsKept:  10 + i,
			ItemsAdded: 4,
			Digest:     "00112233445566778899aabbccddeeff",
		}
		if err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
		if run.ID == "" {
			t.Fatal("expected assigned run ID")
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if !runs[0].StartedAt.After(runs[2].StartedAt) {
		t.Fatalf("expected newest-first ordering, got %v then %v", runs[0].StartedAt, runs[2].StartedAt)
	}
	if runs[0].ItemsKept != 12 {
		t.Fatalf("unexpected items kept on newest run: %d", runs[0].ItemsKept)
	}
	if runs[0].ErrorMessage != "" {
		t.Fatalf("expected empty error message, got %q", runs[0].ErrorMessage)
	}
}

func TestListRunsHonorsLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.RecordRun(ctx, &history.Run{Mode: "default", Digest: "ff"}); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
}

func TestRecordRunStoresErrorMessage(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run := &history.Run{Mode: "hide", ErrorMessage: "missing packmap 3"}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := store.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if runs[0].ErrorMessage != "missing packmap 3" {
		t.Fatalf("unexpected error message: %q", runs[0].ErrorMessage)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "history.db")

	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.RecordRun(context.Background(), &history.Run{Mode: "default", Digest: "aa"}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected persisted run after reopen, got %d", len(runs))
	}
}
