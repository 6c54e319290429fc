package badgerrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

func openTestRepo(t *testing.T) *BadgerRepository {
	t.Helper()
	repo, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndActiveRecords(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.Append(ctx, model.NewEvents([]string{"a.com", "b.com", "c.com"}, model.ActionAdded, t0)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, model.NewEvents([]string{"b.com"}, model.ActionRemoved, t0.Add(time.Hour))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := repo.ActiveRecords(ctx)
	if err != nil {
		t.Fatalf("ActiveRecords failed: %v", err)
	}
	got := model.ActiveSet(records).Sorted()
	if len(got) != 2 || got[0] != "a.com" || got[1] != "c.com" {
		t.Errorf("Expected [a.com c.com], got %v", got)
	}
	for _, record := range records {
		if !record.Since.Equal(t0) {
			t.Errorf("Expected %s since %v, got %v", record.Domain, t0, record.Since)
		}
	}
}

func TestTieGoesToLaterInsert(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionAdded, ts)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionRemoved, ts)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := repo.ActiveRecords(ctx)
	if err != nil {
		t.Fatalf("ActiveRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected the later removal to win, got %v", records)
	}
}

func TestOlderEventAppendedLaterDoesNotWin(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionRemoved, t0.Add(time.Hour))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionAdded, t0)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := repo.ActiveRecords(ctx)
	if err != nil {
		t.Fatalf("ActiveRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected the newer removal to win, got %v", records)
	}
}

func TestHistoryAndIDs(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.Append(ctx, model.NewEvents([]string{"a.com", "ab.com"}, model.ActionAdded, t0)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionRemoved, t0.Add(time.Minute))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	history, err := repo.History(ctx, "a.com")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 events for a.com (not ab.com), got %d", len(history))
	}
	if history[0].Action != model.ActionAdded || history[1].Action != model.ActionRemoved {
		t.Errorf("Expected Added then Removed, got %s then %s", history[0].Action, history[1].Action)
	}
	if history[0].ID != "1" || history[1].ID != "3" {
		t.Errorf("Expected sequence ids 1 and 3, got %s and %s", history[0].ID, history[1].ID)
	}

	if _, err := repo.History(ctx, "missing.com"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionAdded, time.Now())); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.ActiveRecords(ctx)
	if err != nil {
		t.Fatalf("ActiveRecords failed: %v", err)
	}
	if len(records) != 1 || records[0].Domain != "a.com" {
		t.Errorf("Expected a.com after reopen, got %v", records)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	repo := openTestRepo(t)

	bad := []model.Event{
		{Domain: "ok.com", Action: model.ActionAdded, Timestamp: time.Now()},
		{Domain: "", Action: model.ActionAdded, Timestamp: time.Now()},
	}
	if err := repo.Append(context.Background(), bad); err == nil {
		t.Fatal("Expected error for empty domain")
	}

	records, _ := repo.ActiveRecords(context.Background())
	if len(records) != 0 {
		t.Errorf("Expected nothing written from a rejected batch, got %v", records)
	}
}
