package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape"
)

func TestParseRecord(t *testing.T) {
	t.Parallel()

	got, err := ParseRecord("21-1-1")
	if err != nil {
		t.Fatalf("ParseRecord returned error: %v", err)
	}
	if got != (fighter.Record{Wins: 21, Losses: 1, Draws: 1}) {
		t.Fatalf("unexpected record %+v", got)
	}

	got, err = ParseRecord("10-0")
	if err != nil {
		t.Fatalf("ParseRecord returned error: %v", err)
	}
	if got != (fighter.Record{Wins: 10, Losses: 0, Draws: 0}) {
		t.Fatalf("unexpected record %+v", got)
	}

	got, err = ParseRecord("26-1-0 (1 NC)")
	if err != nil {
		t.Fatalf("ParseRecord returned error: %v", err)
	}
	if got != (fighter.Record{Wins: 26, Losses: 1, Draws: 0}) {
		t.Fatalf("unexpected record %+v", got)
	}

	if _, err := ParseRecord("21-x-1"); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
	if _, err := ParseRecord(""); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input for empty record, got %v", err)
	}
}

func TestSplitName(t *testing.T) {
	t.Parallel()

	first, last, nickname, err := SplitName(`Israel "The Last Stylebender" Adesanya`)
	if err != nil {
		t.Fatalf("SplitName returned error: %v", err)
	}
	if first != "Israel" || last != "Adesanya" || nickname != "The Last Stylebender" {
		t.Fatalf("unexpected split %q %q %q", first, last, nickname)
	}

	first, last, nickname, err = SplitName("Shogun")
	if err != nil {
		t.Fatalf("SplitName returned error: %v", err)
	}
	if first != "Shogun" || last != "" || nickname != "" {
		t.Fatalf("single token must keep empty last name, got %q %q %q", first, last, nickname)
	}

	first, last, _, err = SplitName("Jose Aldo Jr")
	if err != nil {
		t.Fatalf("SplitName returned error: %v", err)
	}
	if first != "Jose" || last != "Aldo Jr" {
		t.Fatalf("multi-token last name broken: %q %q", first, last)
	}

	if _, _, _, err := SplitName("   "); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input for blank name, got %v", err)
	}
}

func TestResolveLocalTimeAcrossDST(t *testing.T) {
	t.Parallel()

	got, err := ResolveLocalTime("2026-02-21", "5:00 PM", "America/New_York")
	if err != nil {
		t.Fatalf("ResolveLocalTime returned error: %v", err)
	}
	want := time.Date(2026, 2, 21, 22, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("EST resolution: got %s want %s", got, want)
	}

	got, err = ResolveLocalTime("2026-07-04", "7:00 PM", "America/New_York")
	if err != nil {
		t.Fatalf("ResolveLocalTime returned error: %v", err)
	}
	want = time.Date(2026, 7, 4, 23, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("EDT resolution: got %s want %s", got, want)
	}
}

func TestResolveLocalTimeDefaultsToMidnight(t *testing.T) {
	t.Parallel()

	got, err := ResolveLocalTime("January 2, 2026", "", "America/New_York")
	if err != nil {
		t.Fatalf("ResolveLocalTime returned error: %v", err)
	}
	want := time.Date(2026, 1, 2, 5, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("midnight resolution: got %s want %s", got, want)
	}
}

func TestWeightClassFromName(t *testing.T) {
	t.Parallel()

	class, ok := WeightClassFromName("Women's Flyweight Title Bout")
	if !ok || class != fighter.WomensFlyweight {
		t.Fatalf("unexpected mapping %q ok=%t", class, ok)
	}
	if gender := fighter.GenderForClass(class); gender != fighter.GenderFemale {
		t.Fatalf("expected female inference, got %q", gender)
	}

	if _, ok := WeightClassFromName("Sumo Openweight"); ok {
		t.Fatal("unmapped division must not resolve")
	}
}

func TestBuildBatchSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	raws := []scrape.RawEvent{
		{
			Name:     "Big Fight Night 12",
			DateText: "2026-03-14",
			TimeText: "10:00 PM",
			Timezone: "America/New_York",
			Fighters: []scrape.RawFighter{
				{Name: "Alex Smith", RecordText: "10-2"},
				{Name: "", RecordText: "3-0"},
				{Name: "Brian Jones", RecordText: "not-a-record"},
			},
			Fights: []scrape.RawFight{
				{Fighter1Name: "Alex Smith", Fighter2Name: "Brian Jones", OrderOnCard: 1},
			},
		},
	}

	batch, stats := BuildBatch(raws)
	if stats.Malformed != 2 {
		t.Fatalf("expected 2 malformed records, got %d", stats.Malformed)
	}
	if len(batch.Fighters) != 1 {
		t.Fatalf("expected 1 fighter, got %d", len(batch.Fighters))
	}
	if len(batch.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch.Events))
	}
	if len(batch.Fights) != 1 {
		t.Fatalf("expected 1 fight, got %d", len(batch.Fights))
	}
	if batch.Fights[0].Status != fight.StatusUpcoming {
		t.Fatalf("expected upcoming fight, got %q", batch.Fights[0].Status)
	}
}

func TestFightFromRawCompletionResult(t *testing.T) {
	t.Parallel()

	raws := []scrape.RawEvent{{
		Name:     "Big Fight Night 12",
		DateText: "2026-03-14",
		Timezone: "UTC",
		Fights: []scrape.RawFight{{
			Fighter1Name: "Alex Smith",
			Fighter2Name: "Brian Jones",
			Complete:     true,
			WinnerName:   "Alex Smith",
			Method:       "Submission",
			RoundText:    "R2",
			TimeText:     "3:41",
			OrderOnCard:  5,
		}},
	}}

	batch, stats := BuildBatch(raws)
	if stats.Malformed != 0 {
		t.Fatalf("unexpected malformed count %d", stats.Malformed)
	}
	if len(batch.Fights) != 1 {
		t.Fatalf("expected 1 fight, got %d", len(batch.Fights))
	}

	got := batch.Fights[0]
	if got.Status != fight.StatusComplete {
		t.Fatalf("expected complete status, got %q", got.Status)
	}
	if got.Result == nil {
		t.Fatal("expected a result on completed fight")
	}
	if got.Result.Winner != fighter.NewNameKey("Alex", "Smith") {
		t.Fatalf("unexpected winner %+v", got.Result.Winner)
	}
	if got.Result.Round != 2 || got.Result.Method != "Submission" || got.Result.Time != "3:41" {
		t.Fatalf("unexpected result %+v", got.Result)
	}
}
