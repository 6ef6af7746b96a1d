package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/assets"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/rawdata"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/infrastructure/repository/memory"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape"
)

type stubSource struct {
	name string
	raws []scrape.RawEvent
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchEvents(_ context.Context) ([]scrape.RawEvent, []rawdata.Payload, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.raws, nil, nil
}

type stubAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *stubAlerter) SendAlert(_ context.Context, source, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, source+": "+message)
	return nil
}

func (a *stubAlerter) sent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

// stubAssetFetcher records the download targets it is handed and fails the
// first fail items of each batch.
type stubAssetFetcher struct {
	mu    sync.Mutex
	items []assets.Asset
	fail  int
}

func (f *stubAssetFetcher) DownloadBatch(_ context.Context, items []assets.Asset) []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, items...)
	var errs []error
	for i := 0; i < f.fail && i < len(items); i++ {
		errs = append(errs, errors.New("download failed"))
	}
	return errs
}

func (f *stubAssetFetcher) seen() []assets.Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]assets.Asset(nil), f.items...)
}

type orchestratorFixture struct {
	fighters *memory.FighterRepository
	events   *memory.EventRepository
	fights   *memory.FightRepository
	raw      *memory.RawDataRepository
	alerter  *stubAlerter
	assets   *stubAssetFetcher
}

func newOrchestratorFixture() orchestratorFixture {
	return orchestratorFixture{
		fighters: memory.NewFighterRepository(),
		events:   memory.NewEventRepository(),
		fights:   memory.NewFightRepository(),
		raw:      memory.NewRawDataRepository(),
		alerter:  &stubAlerter{},
		assets:   &stubAssetFetcher{},
	}
}

func (fx orchestratorFixture) orchestrator(sources ...scrape.Source) *OrchestratorService {
	logger := logging.NewNop()
	importer := NewImportService(fx.fighters, fx.events, fx.fights, logger)
	enricher := NewEnrichmentService(fx.fighters, fx.fights, 2, logger)
	return NewOrchestratorService(
		sources, importer, enricher,
		fx.fighters, fx.events, fx.fights, fx.raw,
		fx.alerter, fx.assets, OrchestratorConfig{AssetDir: "assets"}, logger,
	)
}

func rawCardEvent(fights ...scrape.RawFight) scrape.RawEvent {
	return scrape.RawEvent{
		Name:      "FC 300",
		Promotion: "FC",
		DateText:  "2026-03-14",
		TimeText:  "5:00 PM",
		Timezone:  "UTC",
		Venue:     "T-Mobile Arena",
		SourceURL: "https://example.com/fc-300",
		Fighters: []scrape.RawFighter{
			{Name: "Alex Smith", RecordText: "20-2"},
			{Name: "Brian Jones", RecordText: "15-4-1"},
			{Name: "Casey Nguyen", RecordText: "9-0"},
			{Name: "Drew Hall", RecordText: "11-3"},
		},
		Fights: fights,
	}
}

func upcomingRawFight(fighter1, fighter2 string, order int) scrape.RawFight {
	return scrape.RawFight{
		Fighter1Name:    fighter1,
		Fighter2Name:    fighter2,
		WeightClass:     "Lightweight",
		ScheduledRounds: "3",
		OrderOnCard:     order,
	}
}

func TestRunCancelsFightsMissingFromLatestScrape(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	source := &stubSource{name: "ufc", raws: []scrape.RawEvent{rawCardEvent(
		upcomingRawFight("Alex Smith", "Brian Jones", 12),
		upcomingRawFight("Casey Nguyen", "Drew Hall", 11),
	)}}

	if _, err := fx.orchestrator(source).Run(context.Background()); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	// Next scrape of the still-upcoming event no longer lists the co-main.
	source.raws = []scrape.RawEvent{rawCardEvent(
		upcomingRawFight("Alex Smith", "Brian Jones", 12),
	)}
	stats, err := fx.orchestrator(source).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Cancelled != 1 {
		t.Fatalf("expected 1 cancelled fight, got %d", stats.Cancelled)
	}

	byStatus := map[string]int{}
	for _, stored := range fx.fights.List() {
		byStatus[fight.NormalizeStatus(stored.Status)]++
	}
	if byStatus[fight.StatusCancelled] != 1 || byStatus[fight.StatusUpcoming] != 1 {
		t.Fatalf("unexpected fight statuses: %v", byStatus)
	}
}

func TestRunDoesNotCancelForEventsAbsentFromRun(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	source := &stubSource{name: "ufc", raws: []scrape.RawEvent{rawCardEvent(
		upcomingRawFight("Alex Smith", "Brian Jones", 12),
	)}}
	if _, err := fx.orchestrator(source).Run(context.Background()); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	// A later run that never sees the event says nothing about its fights.
	other := &stubSource{name: "ufc", raws: []scrape.RawEvent{{
		Name:     "FC 301",
		DateText: "2026-04-18",
		TimeText: "5:00 PM",
		Timezone: "UTC",
		Fighters: []scrape.RawFighter{{Name: "Erin Cole"}, {Name: "Frank Diaz"}},
		Fights:   []scrape.RawFight{upcomingRawFight("Erin Cole", "Frank Diaz", 12)},
	}}}
	stats, err := fx.orchestrator(other).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Cancelled != 0 {
		t.Fatalf("absent event must not trigger cancellations, got %d", stats.Cancelled)
	}
}

func TestRunContinuesPastFailedSource(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	broken := &stubSource{name: "tapology", err: errors.New("connection reset")}
	working := &stubSource{name: "ufc", raws: []scrape.RawEvent{rawCardEvent(
		upcomingRawFight("Alex Smith", "Brian Jones", 12),
	)}}

	stats, err := fx.orchestrator(broken, working).Run(context.Background())
	if err != nil {
		t.Fatalf("degraded run should not fail: %v", err)
	}
	if len(stats.Sources) != 2 {
		t.Fatalf("expected 2 source entries, got %d", len(stats.Sources))
	}
	if !stats.Sources[0].FetchFailed {
		t.Fatalf("broken source not marked failed: %+v", stats.Sources[0])
	}
	if stats.Totals.FightsImported != 1 {
		t.Fatalf("working source should still import, got %+v", stats.Totals)
	}
}

func TestRunAlertsOnStructuralFailure(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	source := &stubSource{name: "ufc", err: fmt.Errorf("%w: page layout changed", ErrStructural)}

	_, err := fx.orchestrator(source).Run(context.Background())
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if sent := fx.alerter.sent(); len(sent) != 1 {
		t.Fatalf("expected exactly one alert, got %v", sent)
	}
}

func TestRunWithNoSourcesIsStructural(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	_, err := fx.orchestrator().Run(context.Background())
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if sent := fx.alerter.sent(); len(sent) != 1 {
		t.Fatalf("expected exactly one alert, got %v", sent)
	}
}

func TestRunTimeoutIsFatal(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	source := &stubSource{name: "ufc"}
	logger := logging.NewNop()
	importer := NewImportService(fx.fighters, fx.events, fx.fights, logger)
	svc := NewOrchestratorService(
		[]scrape.Source{source, slowSource{}}, importer, nil,
		fx.fighters, fx.events, fx.fights, fx.raw,
		fx.alerter, nil, OrchestratorConfig{RunTimeout: 20 * time.Millisecond}, logger,
	)

	_, err := svc.Run(context.Background())
	if !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("expected run timeout, got %v", err)
	}
}

// slowSource blocks until the run deadline fires.
type slowSource struct{}

func (slowSource) Name() string { return "slow" }

func (slowSource) FetchEvents(ctx context.Context) ([]scrape.RawEvent, []rawdata.Payload, error) {
	<-ctx.Done()
	return nil, nil, ctx.Err()
}

func TestRunDownloadsImageAssets(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	card := rawCardEvent(upcomingRawFight("Alex Smith", "Brian Jones", 12))
	card.BannerURL = "https://cdn.example.com/banners/fc-300.png"
	card.Fighters[0].ImageURL = "https://cdn.example.com/fighters/alex-smith.jpg"
	source := &stubSource{name: "ufc", raws: []scrape.RawEvent{card}}

	stats, err := fx.orchestrator(source).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.AssetsFetched != 2 || stats.AssetsFailed != 0 {
		t.Fatalf("expected 2 fetched assets, got %+v", stats)
	}

	byTarget := map[string]string{}
	for _, item := range fx.assets.seen() {
		byTarget[item.TargetPath] = item.URL
	}
	wantBanner := filepath.Join("assets", "events", "fc_300.png")
	if byTarget[wantBanner] != card.BannerURL {
		t.Fatalf("banner target missing or wrong: %v", byTarget)
	}
	wantHeadshot := filepath.Join("assets", "fighters", "alex_smith.jpg")
	if byTarget[wantHeadshot] != card.Fighters[0].ImageURL {
		t.Fatalf("headshot target missing or wrong: %v", byTarget)
	}
}

func TestRunCountsFailedAssetDownloads(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	fx.assets.fail = 1
	card := rawCardEvent(upcomingRawFight("Alex Smith", "Brian Jones", 12))
	card.BannerURL = "https://cdn.example.com/banners/fc-300.png"
	source := &stubSource{name: "ufc", raws: []scrape.RawEvent{card}}

	stats, err := fx.orchestrator(source).Run(context.Background())
	if err != nil {
		t.Fatalf("asset failures must not fail the run: %v", err)
	}
	if stats.AssetsFailed != 1 || stats.AssetsFetched != 0 {
		t.Fatalf("expected 1 failed asset, got %+v", stats)
	}
}

func TestRunAllSourcesFailedIsTransient(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	first := &stubSource{name: "ufc", err: errors.New("connection reset")}
	second := &stubSource{name: "tapology", err: errors.New("503 from host")}

	_, err := fx.orchestrator(first, second).Run(context.Background())
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if sent := fx.alerter.sent(); len(sent) != 0 {
		t.Fatalf("transient whole-run failure must not alert, got %v", sent)
	}
}

func TestRunAllEventsMalformedIsMalformedInput(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	// A nameless record is dropped by normalization.
	source := &stubSource{name: "ufc", raws: []scrape.RawEvent{{DateText: "2026-03-14"}}}

	_, err := fx.orchestrator(source).Run(context.Background())
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input error, got %v", err)
	}
	if sent := fx.alerter.sent(); len(sent) != 0 {
		t.Fatalf("malformed-only run must not alert, got %v", sent)
	}
}

func TestRunEnrichesFightersTouchedThisRun(t *testing.T) {
	t.Parallel()

	fx := newOrchestratorFixture()
	finished := rawCardEvent(scrape.RawFight{
		Fighter1Name:    "Alex Smith",
		Fighter2Name:    "Brian Jones",
		WeightClass:     "Lightweight",
		ScheduledRounds: "3",
		OrderOnCard:     12,
		Started:         true,
		Complete:        true,
		WinnerName:      "Alex Smith",
		Method:          "KO",
		RoundText:       "1",
		TimeText:        "4:59",
	})
	source := &stubSource{name: "ufc", raws: []scrape.RawEvent{finished}}

	stats, err := fx.orchestrator(source).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Enriched == 0 {
		t.Fatalf("expected enrichment to cover touched fighters, got %+v", stats)
	}

	var winner, loser int
	for _, stored := range fx.fighters.List() {
		switch stored.LastName {
		case "Smith":
			winner = stored.WinStreak
			if stored.FinishCount != 1 {
				t.Fatalf("KO win should count as a finish: %+v", stored)
			}
		case "Jones":
			loser = stored.WinStreak
		}
	}
	if winner != 1 || loser != 0 {
		t.Fatalf("derived streaks wrong: winner=%d loser=%d", winner, loser)
	}
}
