package livetrack

import (
	"strings"
	"testing"
	"time"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/event"
)

func snapshotAt(t *testing.T, minute int, fights ...FightState) Snapshot {
	t.Helper()
	return Snapshot{
		CapturedAt:  time.Date(2026, 3, 14, 22, minute, 0, 0, time.UTC),
		EventName:   "Big Fight Night 12",
		EventStatus: event.StatusUpcoming,
		Fights:      fights,
	}
}

func upcomingFight(order int, name1, last1, name2, last2 string) FightState {
	return FightState{
		Fighter1Name:     name1,
		Fighter1LastName: last1,
		Fighter2Name:     name2,
		Fighter2LastName: last2,
		OrderOnCard:      order,
	}
}

func TestDiffFirstSnapshotReportsNewFights(t *testing.T) {
	t.Parallel()

	first := snapshotAt(t, 0, upcomingFight(1, "Alex Smith", "Smith", "Brian Jones", "Jones"))

	merged, changes := Diff(nil, first)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d: %+v", len(changes), changes)
	}
	if changes[0].Type != ChangeFightAdded {
		t.Fatalf("unexpected change type %q", changes[0].Type)
	}
	if changes[0].Description != "new fight: Smith vs Jones" {
		t.Fatalf("unexpected description %q", changes[0].Description)
	}

	// The identical follow-up snapshot is a quiet tick.
	_, changes = Diff(&merged, snapshotAt(t, 1, upcomingFight(1, "Alex Smith", "Smith", "Brian Jones", "Jones")))
	if len(changes) != 0 {
		t.Fatalf("expected quiet tick, got %+v", changes)
	}
}

func TestDiffCompletionAttribution(t *testing.T) {
	t.Parallel()

	before := snapshotAt(t, 0, upcomingFight(2, "Alex Smith", "Smith", "Brian Jones", "Jones"))
	merged, _ := Diff(nil, before)

	completed := upcomingFight(2, "Alex Smith", "Smith", "Brian Jones", "Jones")
	completed.HasStarted = true
	completed.IsComplete = true
	completed.WinnerName = "Alex Smith"
	completed.Method = "Submission"
	completed.Round = 2
	completed.Time = "3:41"

	after, changes := Diff(&merged, snapshotAt(t, 5, completed))

	var completions []ChangeRecord
	for _, change := range changes {
		if change.Type == ChangeFightComplete {
			completions = append(completions, change)
		}
	}
	if len(completions) != 1 {
		t.Fatalf("expected exactly one completion record, got %+v", changes)
	}
	if !strings.Contains(completions[0].Description, "Alex Smith defeated Brian Jones by Submission") {
		t.Fatalf("unexpected attribution %q", completions[0].Description)
	}
	if !strings.Contains(completions[0].Description, "round 2 3:41") {
		t.Fatalf("missing round detail in %q", completions[0].Description)
	}
	if after.EventStatus != event.StatusComplete {
		t.Fatalf("single-fight card should be complete, got %q", after.EventStatus)
	}
}

func TestDiffNeverRegressesStatus(t *testing.T) {
	t.Parallel()

	done := upcomingFight(1, "Alex Smith", "Smith", "Brian Jones", "Jones")
	done.HasStarted = true
	done.IsComplete = true
	done.WinnerName = "Alex Smith"

	merged, _ := Diff(nil, snapshotAt(t, 0, done))
	if merged.EventStatus != event.StatusComplete {
		t.Fatalf("setup: expected complete event, got %q", merged.EventStatus)
	}

	// A noisy poll forgets the result entirely.
	regressed := upcomingFight(1, "Alex Smith", "Smith", "Brian Jones", "Jones")
	after, changes := Diff(&merged, snapshotAt(t, 1, regressed))

	if len(changes) != 0 {
		t.Fatalf("regression must not emit transitions, got %+v", changes)
	}
	if !after.Fights[0].IsComplete || !after.Fights[0].HasStarted {
		t.Fatalf("fight flags regressed: %+v", after.Fights[0])
	}
	if after.Fights[0].WinnerName != "Alex Smith" {
		t.Fatalf("result field regressed: %+v", after.Fights[0])
	}
	if after.EventStatus != event.StatusComplete {
		t.Fatalf("event status regressed to %q", after.EventStatus)
	}
}

func TestDiffEventGoesLiveOnFirstStartedFight(t *testing.T) {
	t.Parallel()

	f1 := upcomingFight(1, "Alex Smith", "Smith", "Brian Jones", "Jones")
	f2 := upcomingFight(2, "Carl Davis", "Davis", "Dan Moore", "Moore")
	merged, _ := Diff(nil, snapshotAt(t, 0, f1, f2))
	if merged.EventStatus != event.StatusUpcoming {
		t.Fatalf("expected upcoming event, got %q", merged.EventStatus)
	}

	f1.HasStarted = true
	after, changes := Diff(&merged, snapshotAt(t, 3, f1, f2))
	if after.EventStatus != event.StatusLive {
		t.Fatalf("expected live event, got %q", after.EventStatus)
	}

	var sawFightStart, sawEventStart bool
	for _, change := range changes {
		switch change.Type {
		case ChangeFightStarted:
			sawFightStart = true
		case ChangeEventStarted:
			sawEventStart = true
		}
	}
	if !sawFightStart || !sawEventStart {
		t.Fatalf("expected fight and event start records, got %+v", changes)
	}
}

func TestDiffKeepsFightMissingFromNewCapture(t *testing.T) {
	t.Parallel()

	f1 := upcomingFight(1, "Alex Smith", "Smith", "Brian Jones", "Jones")
	f2 := upcomingFight(2, "Carl Davis", "Davis", "Dan Moore", "Moore")
	merged, _ := Diff(nil, snapshotAt(t, 0, f1, f2))

	after, _ := Diff(&merged, snapshotAt(t, 2, f2))
	if len(after.Fights) != 2 {
		t.Fatalf("fight missing from capture must be carried, got %d fights", len(after.Fights))
	}
}

func TestCurrentlyLiveUsesHighestIncompleteOrder(t *testing.T) {
	t.Parallel()

	prelim := upcomingFight(1, "Carl Davis", "Davis", "Dan Moore", "Moore")
	prelim.HasStarted = true
	prelim.IsComplete = true
	main := upcomingFight(5, "Alex Smith", "Smith", "Brian Jones", "Jones")

	merged, _ := Diff(nil, snapshotAt(t, 0, prelim, main))
	current := CurrentlyLive(merged)
	if current == nil {
		t.Fatal("expected a current fight on a live card")
	}
	if current.Fighter1LastName != "Smith" {
		t.Fatalf("expected the main event, got %+v", current)
	}
}

func TestSessionHistoryDocument(t *testing.T) {
	t.Parallel()

	session := NewSession("https://example.test/event/big-fight-night-12")
	session.Observe(snapshotAt(t, 0, upcomingFight(1, "Alex Smith", "Smith", "Brian Jones", "Jones")))
	session.Observe(snapshotAt(t, 1, upcomingFight(1, "Alex Smith", "Smith", "Brian Jones", "Jones")))

	doc := session.History()
	if doc.TotalSnapshots != 2 || len(doc.Snapshots) != 2 {
		t.Fatalf("unexpected history size %d/%d", doc.TotalSnapshots, len(doc.Snapshots))
	}
	if doc.SourceURL != "https://example.test/event/big-fight-night-12" {
		t.Fatalf("unexpected source url %q", doc.SourceURL)
	}
	if !doc.FirstScrapeTimestamp.Before(doc.LastScrapeTimestamp) {
		t.Fatalf("timestamps out of order: %s / %s", doc.FirstScrapeTimestamp, doc.LastScrapeTimestamp)
	}
	if len(doc.Snapshots[0].Changes) != 1 {
		t.Fatalf("first entry should carry the new-fight record, got %+v", doc.Snapshots[0].Changes)
	}
	if len(doc.Snapshots[1].Changes) != 0 {
		t.Fatalf("second entry should be quiet, got %+v", doc.Snapshots[1].Changes)
	}
}

func TestSessionWriteHistory(t *testing.T) {
	t.Parallel()

	session := NewSession("https://example.test/event/big-fight-night-12")
	session.Observe(snapshotAt(t, 0, upcomingFight(1, "Alex Smith", "Smith", "Brian Jones", "Jones")))

	dir := t.TempDir()
	path, err := session.WriteHistory(dir)
	if err != nil {
		t.Fatalf("WriteHistory returned error: %v", err)
	}
	if path == "" {
		t.Fatal("expected a written file path")
	}

	empty := NewSession("https://example.test/quiet")
	path, err = empty.WriteHistory(dir)
	if err != nil {
		t.Fatalf("WriteHistory on empty session returned error: %v", err)
	}
	if path != "" {
		t.Fatalf("empty session must not write a file, got %q", path)
	}
}
