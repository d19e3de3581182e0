package main

import (
	"context"
	"path/filepath"
	"testing"

	"vpxmerge/internal/history"
)

func TestHistoryCommandListsRuns(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)

	store, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	run := &history.Run{
		SourcePath: "/tables/Firepower.vpx",
		DestPath:   "/tables/Firepower.merged.vpx",
		Mode:       "remove",
		ItemsKept:  42,
		Digest:     "deadbeefcafef00d",
	}
	if err := store.RecordRun(context.Background(), run); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close history: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, configPath)
	if err != nil {
		t.Fatalf("history command: %v", err)
	}
	requireContains(t, out, "Firepower.vpx")
	requireContains(t, out, "remove")
	requireContains(t, out, "deadbeef")
}

func TestHistoryCommandEmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)

	out, _, err := runCLI(t, []string{"history"}, configPath)
	if err != nil {
		t.Fatalf("history command: %v", err)
	}
	requireContains(t, out, "No merge runs recorded yet.")
}
