package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/assets"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/event"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/rawdata"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/normalize"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape"
)

// Alerter is the out-of-band operator notification boundary.
type Alerter interface {
	SendAlert(ctx context.Context, source, message string) error
}

// AssetFetcher mirrors assets.Downloader. The returned slice holds only the
// failures, one entry per item that could not be fetched.
type AssetFetcher interface {
	DownloadBatch(ctx context.Context, items []assets.Asset) []error
}

// RunStats is the orchestrator's only return value. There is no partial
// success shape distinct from these counts plus a returned error.
type RunStats struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	DurationMs int64            `json:"duration_ms"`
	Sources    []SourceRunStats `json:"sources"`
	Totals     ImportStats      `json:"totals"`
	Cancelled  int              `json:"cancelled"`
	Enriched   int              `json:"enriched"`

	AssetsFetched int `json:"assets_fetched"`
	AssetsFailed  int `json:"assets_failed,omitempty"`
}

type SourceRunStats struct {
	Source        string      `json:"source"`
	EventsScraped int         `json:"events_scraped"`
	Malformed     int         `json:"malformed"`
	FetchFailed   bool        `json:"fetch_failed,omitempty"`
	Import        ImportStats `json:"import"`
}

type OrchestratorConfig struct {
	// RunTimeout is the hard wall-clock budget for one invocation.
	RunTimeout time.Duration
	// AlertTimeout bounds the fire-and-forget failure notification.
	AlertTimeout time.Duration
	// AssetDir is the local root for downloaded fighter and event images.
	AssetDir string
}

// OrchestratorService sequences fetch, extract, normalize and import for
// every configured source, then runs the cancellation and enrichment passes.
// Sources run sequentially on purpose: parallel requests against the same
// third-party host invite rate limiting that would poison the whole run.
type OrchestratorService struct {
	sources      []scrape.Source
	importer     *ImportService
	enricher     *EnrichmentService
	fighters     fighter.Repository
	events       event.Repository
	fights       fight.Repository
	rawRepo      rawdata.Repository
	alerter      Alerter
	assetFetcher AssetFetcher
	assetDir     string
	runTimeout   time.Duration
	alertTimeout time.Duration
	logger       *logging.Logger
}

func NewOrchestratorService(
	sources []scrape.Source,
	importer *ImportService,
	enricher *EnrichmentService,
	fighters fighter.Repository,
	events event.Repository,
	fights fight.Repository,
	rawRepo rawdata.Repository,
	alerter Alerter,
	assetFetcher AssetFetcher,
	cfg OrchestratorConfig,
	logger *logging.Logger,
) *OrchestratorService {
	if logger == nil {
		logger = logging.Default()
	}
	alertTimeout := cfg.AlertTimeout
	if alertTimeout <= 0 {
		alertTimeout = 10 * time.Second
	}
	return &OrchestratorService{
		sources:      sources,
		importer:     importer,
		enricher:     enricher,
		fighters:     fighters,
		events:       events,
		fights:       fights,
		rawRepo:      rawRepo,
		alerter:      alerter,
		assetFetcher: assetFetcher,
		assetDir:     cfg.AssetDir,
		runTimeout:   cfg.RunTimeout,
		alertTimeout: alertTimeout,
		logger:       logger,
	}
}

// Run executes one full pipeline pass. A fatal error (structural failure or
// wall-clock timeout) raises an operator alert before propagating; per-source
// fetch failures degrade the run but do not abort it. When every source
// failed or yielded only malformed records, Run returns the joined causes,
// wrapped in ErrTransient and ErrMalformedInput respectively, without
// alerting.
func (s *OrchestratorService) Run(ctx context.Context) (RunStats, error) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	ctx, span := startUsecaseSpan(ctx, "OrchestratorService.Run")
	defer span.End()

	stats := RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Sources:   make([]SourceRunStats, 0, len(s.sources)),
	}
	logger := s.logger.With("run_id", stats.RunID)
	logger.InfoContext(ctx, "pipeline run starting", "sources", len(s.sources))

	if len(s.sources) == 0 {
		err := fmt.Errorf("%w: no sources configured", ErrStructural)
		s.raiseAlert(ctx, "orchestrator", err)
		return stats, err
	}

	// Fight pairs seen per event this run, for the cancellation pass.
	seenPairs := make(map[event.Key]map[fight.Key]bool)
	seenEvents := make(map[event.Key]bool)
	touchedFighters := make(map[fighter.NameKey]bool)
	assetTargets := make(map[string]assets.Asset)
	var unusable []error

	for _, source := range s.sources {
		sourceStats := SourceRunStats{Source: source.Name()}

		raws, payloads, err := source.FetchEvents(ctx)
		if err != nil {
			if fatal := s.classifyFatal(ctx, err); fatal != nil {
				s.raiseAlert(ctx, source.Name(), fatal)
				stats.DurationMs = time.Since(stats.StartedAt).Milliseconds()
				return stats, fatal
			}
			logger.ErrorContext(ctx, "source fetch failed, continuing run",
				"source", source.Name(), "error", err)
			sourceStats.FetchFailed = true
			stats.Sources = append(stats.Sources, sourceStats)
			unusable = append(unusable, fmt.Errorf("%w: source %s: %v", ErrTransient, source.Name(), err))
			continue
		}
		sourceStats.EventsScraped = len(raws)

		batch, normStats := normalize.BuildBatch(raws)
		sourceStats.Malformed = normStats.Malformed
		for _, normErr := range normStats.Errors {
			logger.WarnContext(ctx, "dropped malformed record", "source", source.Name(), "error", normErr)
		}
		if len(raws) > 0 && len(batch.Events) == 0 && normStats.Malformed > 0 {
			unusable = append(unusable, fmt.Errorf("%w: source %s: all %d scraped events dropped",
				ErrMalformedInput, source.Name(), len(raws)))
		}

		imported, err := s.importer.ImportBatch(ctx, batch)
		sourceStats.Import = imported
		stats.Totals = stats.Totals.add(imported)
		stats.Totals.Errored += normStats.Malformed
		if err != nil {
			s.raiseAlert(ctx, source.Name(), err)
			stats.Sources = append(stats.Sources, sourceStats)
			stats.DurationMs = time.Since(stats.StartedAt).Milliseconds()
			return stats, err
		}

		s.archivePayloads(ctx, source.Name(), payloads)

		for _, item := range batch.Fighters {
			touchedFighters[item.Key()] = true
		}
		s.collectAssets(assetTargets, batch)
		for _, item := range batch.Fights {
			seenEvents[item.EventKey] = true
			if seenPairs[item.EventKey] == nil {
				seenPairs[item.EventKey] = make(map[fight.Key]bool)
			}
			seenPairs[item.EventKey][pairKeyForNames(item.Fighter1, item.Fighter2)] = true
		}

		stats.Sources = append(stats.Sources, sourceStats)
	}

	// Every source either failed to fetch or produced nothing importable.
	// That is a bad night for the scrapers, not a broken pipeline, so no
	// operator alert; the caller decides whether to retry.
	if len(unusable) == len(s.sources) {
		stats.DurationMs = time.Since(stats.StartedAt).Milliseconds()
		return stats, errors.Join(unusable...)
	}

	cancelled, err := s.cancellationPass(ctx, seenEvents, seenPairs)
	stats.Cancelled = cancelled
	if err != nil {
		s.raiseAlert(ctx, "orchestrator", err)
		stats.DurationMs = time.Since(stats.StartedAt).Milliseconds()
		return stats, err
	}

	enriched, err := s.enrichmentPass(ctx, touchedFighters)
	stats.Enriched = enriched
	if err != nil {
		logger.ErrorContext(ctx, "enrichment pass failed", "error", err)
	}

	stats.AssetsFetched, stats.AssetsFailed = s.assetPass(ctx, assetTargets)

	stats.DurationMs = time.Since(stats.StartedAt).Milliseconds()
	logger.InfoContext(ctx, "pipeline run finished",
		"duration_ms", stats.DurationMs,
		"fighters", stats.Totals.FightersImported,
		"events", stats.Totals.EventsImported,
		"fights", stats.Totals.FightsImported,
		"skipped", stats.Totals.FightsSkipped,
		"cancelled", stats.Cancelled,
		"assets_fetched", stats.AssetsFetched,
		"assets_failed", stats.AssetsFailed,
	)
	return stats, nil
}

// collectAssets records one download target per fighter profile image and
// event banner seen this run, keyed by target path so sources that list the
// same person do not race for the same file.
func (s *OrchestratorService) collectAssets(targets map[string]assets.Asset, batch normalize.Batch) {
	if s.assetFetcher == nil {
		return
	}
	for _, item := range batch.Fighters {
		if item.ProfileImageRef == "" {
			continue
		}
		key := item.Key()
		target := filepath.Join(s.assetDir, "fighters",
			assetSlug(key.FirstName+" "+key.LastName)+assetExt(item.ProfileImageRef))
		targets[target] = assets.Asset{URL: item.ProfileImageRef, TargetPath: target}
	}
	for _, item := range batch.Events {
		if item.BannerImageRef == "" {
			continue
		}
		target := filepath.Join(s.assetDir, "events",
			assetSlug(item.Key().Name)+assetExt(item.BannerImageRef))
		targets[target] = assets.Asset{URL: item.BannerImageRef, TargetPath: target}
	}
}

// assetPass downloads the run's collected images. Failures are degraded, not
// fatal; the downloader logs each one itself and returns the failure set.
func (s *OrchestratorService) assetPass(ctx context.Context, targets map[string]assets.Asset) (fetched, failed int) {
	if s.assetFetcher == nil || len(targets) == 0 {
		return 0, 0
	}
	items := make([]assets.Asset, 0, len(targets))
	for _, item := range targets {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].TargetPath < items[j].TargetPath })

	failed = len(s.assetFetcher.DownloadBatch(ctx, items))
	return len(items) - failed, failed
}

// assetSlug flattens a natural-key name into a filesystem-safe file stem.
func assetSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('_')
		}
	}
	return b.String()
}

// assetExt pulls the file extension off a source URL, defaulting to .jpg when
// the URL path carries none.
func assetExt(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	if ext := path.Ext(parsed.Path); ext != "" {
		return ext
	}
	return ".jpg"
}

// cancellationPass marks stored upcoming fights CANCELLED when the latest
// scrape of their still-unstarted event no longer lists them. Events absent
// from this run are left alone; silence about an event proves nothing.
func (s *OrchestratorService) cancellationPass(
	ctx context.Context,
	seenEvents map[event.Key]bool,
	seenPairs map[event.Key]map[fight.Key]bool,
) (int, error) {
	if len(seenEvents) == 0 {
		return 0, nil
	}

	upcoming, err := s.events.ListUpcoming(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list upcoming events: %v", ErrStructural, err)
	}

	cancelled := 0
	for _, storedEvent := range upcoming {
		key := storedEvent.Key()
		if !seenEvents[key] {
			continue
		}

		storedFights, err := s.fights.ListByEvent(ctx, storedEvent.ID)
		if err != nil {
			return cancelled, fmt.Errorf("%w: list fights event_id=%d: %v", ErrStructural, storedEvent.ID, err)
		}

		for _, storedFight := range storedFights {
			if fight.NormalizeStatus(storedFight.Status) != fight.StatusUpcoming {
				continue
			}
			pair, err := s.pairKeyForIDs(ctx, storedFight)
			if err != nil {
				s.logger.WarnContext(ctx, "cancellation pass: cannot resolve fight pair",
					"fight_id", storedFight.ID, "error", err)
				continue
			}
			if seenPairs[key][pair] {
				continue
			}
			if err := s.fights.UpdateStatus(ctx, storedFight.ID, fight.StatusCancelled); err != nil {
				return cancelled, fmt.Errorf("%w: cancel fight_id=%d: %v", ErrStructural, storedFight.ID, err)
			}
			cancelled++
			s.logger.InfoContext(ctx, "fight cancelled: absent from latest scrape",
				"fight_id", storedFight.ID, "event", storedEvent.Name)
		}
	}

	return cancelled, nil
}

func (s *OrchestratorService) enrichmentPass(ctx context.Context, touched map[fighter.NameKey]bool) (int, error) {
	if s.enricher == nil || len(touched) == 0 {
		return 0, nil
	}

	keys := make([]fighter.NameKey, 0, len(touched))
	for key := range touched {
		keys = append(keys, key)
	}
	ids, err := s.fighters.ResolveIDs(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("resolve fighters for enrichment: %w", err)
	}

	fighterIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		fighterIDs = append(fighterIDs, id)
	}
	result, err := s.enricher.EnrichFighters(ctx, fighterIDs)
	if err != nil {
		return 0, err
	}
	return result.Updated, nil
}

func (s *OrchestratorService) archivePayloads(ctx context.Context, source string, payloads []rawdata.Payload) {
	if s.rawRepo == nil || len(payloads) == 0 {
		return
	}
	// Archive failures degrade audit history only; the run continues.
	if err := s.rawRepo.UpsertMany(ctx, payloads); err != nil {
		s.logger.WarnContext(ctx, "raw payload archive failed", "source", source, "error", err)
	}
}

func (s *OrchestratorService) classifyFatal(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrRunTimeout, err)
	}
	if errors.Is(err, ErrStructural) {
		return err
	}
	return nil
}

// raiseAlert is fire-and-forget: a failed notification is logged and can
// never block or replace the run's own error propagation.
func (s *OrchestratorService) raiseAlert(ctx context.Context, source string, cause error) {
	if s.alerter == nil {
		return
	}
	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.alertTimeout)
	defer cancel()
	if err := s.alerter.SendAlert(alertCtx, source, cause.Error()); err != nil {
		s.logger.ErrorContext(ctx, "failure alert could not be delivered", "source", source, "error", err)
	}
}

func (s *OrchestratorService) pairKeyForIDs(ctx context.Context, storedFight fight.Fight) (fight.Key, error) {
	fighter1, err := s.fighters.GetByID(ctx, storedFight.Fighter1ID)
	if err != nil {
		return fight.Key{}, err
	}
	fighter2, err := s.fighters.GetByID(ctx, storedFight.Fighter2ID)
	if err != nil {
		return fight.Key{}, err
	}
	return pairKeyForNames(fighter1.Key(), fighter2.Key()), nil
}

// pairKeyForNames folds an unordered fighter-name pair into a fight.Key so
// scraped and stored fights can be compared without persisted identifiers.
// The IDs in the key are synthetic hashes, never database IDs.
func pairKeyForNames(a, b fighter.NameKey) fight.Key {
	return fight.NewKey(0, nameKeyHash(a), nameKeyHash(b))
}

func nameKeyHash(key fighter.NameKey) int64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	hash := uint64(offset64)
	for _, r := range key.FirstName + "\x00" + key.LastName {
		hash ^= uint64(r)
		hash *= prime64
	}
	return int64(hash & 0x7FFFFFFFFFFFFFFF)
}
