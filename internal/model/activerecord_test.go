package model

import (
	"testing"
	"time"
)

func TestActiveRecordsFromEvents_LatestEventWins(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "1", Domain: "a.com", Action: ActionAdded, Timestamp: t0},
		{ID: "2", Domain: "b.com", Action: ActionAdded, Timestamp: t0},
		{ID: "3", Domain: "a.com", Action: ActionRemoved, Timestamp: t0.Add(time.Hour)},
		{ID: "4", Domain: "c.com", Action: ActionRemoved, Timestamp: t0},
		{ID: "5", Domain: "c.com", Action: ActionAdded, Timestamp: t0.Add(2 * time.Hour)},
	}

	records := ActiveRecordsFromEvents(events)

	set := ActiveSet(records)
	if set.Len() != 2 {
		t.Fatalf("expected 2 active domains, got %d: %v", set.Len(), set.Sorted())
	}
	if set.Has("a.com") {
		t.Errorf("a.com was removed last and should not be active")
	}
	if !set.Has("b.com") || !set.Has("c.com") {
		t.Errorf("expected b.com and c.com to be active, got %v", set.Sorted())
	}

	for _, record := range records {
		if record.Domain == "c.com" {
			if record.ID != "5" {
				t.Errorf("expected c.com record to carry id of latest event, got %s", record.ID)
			}
			if !record.Since.Equal(t0.Add(2 * time.Hour)) {
				t.Errorf("expected c.com since %v, got %v", t0.Add(2*time.Hour), record.Since)
			}
		}
	}
}

func TestActiveRecordsFromEvents_OutOfOrderTimestamps(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Domain: "a.com", Action: ActionRemoved, Timestamp: t0.Add(time.Hour)},
		{Domain: "a.com", Action: ActionAdded, Timestamp: t0},
	}

	if records := ActiveRecordsFromEvents(events); len(records) != 0 {
		t.Errorf("older addition must not override a newer removal, got %v", records)
	}
}

func TestActiveRecordsFromEvents_TieGoesToLaterInsert(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("removal inserted last", func(t *testing.T) {
		events := []Event{
			{Domain: "a.com", Action: ActionAdded, Timestamp: t0},
			{Domain: "a.com", Action: ActionRemoved, Timestamp: t0},
		}
		if records := ActiveRecordsFromEvents(events); len(records) != 0 {
			t.Errorf("expected no active records, got %v", records)
		}
	})

	t.Run("addition inserted last", func(t *testing.T) {
		events := []Event{
			{Domain: "a.com", Action: ActionRemoved, Timestamp: t0},
			{Domain: "a.com", Action: ActionAdded, Timestamp: t0},
		}
		if records := ActiveRecordsFromEvents(events); len(records) != 1 {
			t.Errorf("expected a.com to be active, got %v", records)
		}
	})
}

func TestActiveRecordsFromEvents_Empty(t *testing.T) {
	records := ActiveRecordsFromEvents(nil)
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", records)
	}
}

func TestNewEventsSharesActionAndTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	events := NewEvents([]string{"a.com", "b.com"}, ActionRemoved, ts)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Action != ActionRemoved {
			t.Errorf("expected Removed, got %s", ev.Action)
		}
		if !ev.Timestamp.Equal(ts) {
			t.Errorf("expected timestamp %v, got %v", ts, ev.Timestamp)
		}
		if ev.ID != "" {
			t.Errorf("unpersisted events should have no id, got %q", ev.ID)
		}
	}

	domains, actions, timestamps := EventColumns(events)
	if len(domains) != 2 || len(actions) != 2 || len(timestamps) != 2 {
		t.Fatalf("columns must have equal length: %d %d %d", len(domains), len(actions), len(timestamps))
	}
	if domains[0] != "a.com" || domains[1] != "b.com" {
		t.Errorf("unexpected domain column: %v", domains)
	}
	if actions[0] != "Removed" {
		t.Errorf("unexpected action column: %v", actions)
	}
}

func TestActionValid(t *testing.T) {
	if !ActionAdded.Valid() || !ActionRemoved.Valid() {
		t.Error("Added and Removed must be valid")
	}
	if Action("Deleted").Valid() {
		t.Error("unknown actions must be invalid")
	}
}
