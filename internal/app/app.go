package app

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/assets"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/config"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/infrastructure/repository/postgres"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/notify"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape/tapology"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/scrape/ufc"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/usecase"
)

// Application bundles the wired pipeline. Close releases the DB pool.
type Application struct {
	Config       config.Config
	Logger       *logging.Logger
	DB           *sqlx.DB
	Fetcher      *scrape.Fetcher
	Sources      []scrape.Source
	Orchestrator *usecase.OrchestratorService
	Assets       *assets.Downloader
}

func New(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	fighterRepo := postgres.NewFighterRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	fightRepo := postgres.NewFightRepository(db)
	rawRepo := postgres.NewRawDataRepository(db)

	fetcher := scrape.NewFetcher(scrape.FetcherConfig{
		Timeout:           cfg.FetchTimeout,
		MaxRetries:        cfg.FetchMaxRetries,
		UserAgent:         cfg.FetchUserAgent,
		RequestsPerSecond: cfg.FetchRequestsPerSecond,
		Logger:            logger,
	})

	sources := buildSources(cfg.Sources, fetcher, logger)

	importer := usecase.NewImportService(fighterRepo, eventRepo, fightRepo, logger)
	enricher := usecase.NewEnrichmentService(fighterRepo, fightRepo, cfg.EnrichWorkers, logger)

	var alerter usecase.Alerter
	if cfg.AlertWebhookURL != "" {
		alerter = notify.NewWebhook(notify.WebhookConfig{
			URL:     cfg.AlertWebhookURL,
			Token:   cfg.AlertWebhookToken,
			Timeout: cfg.AlertTimeout,
		}, logger)
	}

	downloader := assets.NewDownloader(assets.DownloaderConfig{
		Timeout:           cfg.FetchTimeout,
		MaxRetries:        cfg.AssetMaxRetries,
		InterRequestDelay: cfg.AssetInterRequestDelay,
		Logger:            logger,
	})

	orchestrator := usecase.NewOrchestratorService(
		sources,
		importer,
		enricher,
		fighterRepo,
		eventRepo,
		fightRepo,
		rawRepo,
		alerter,
		downloader,
		usecase.OrchestratorConfig{
			RunTimeout:   cfg.RunTimeout,
			AlertTimeout: cfg.AlertTimeout,
			AssetDir:     cfg.AssetDir,
		},
		logger,
	)

	return &Application{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Fetcher:      fetcher,
		Sources:      sources,
		Orchestrator: orchestrator,
		Assets:       downloader,
	}, nil
}

func (a *Application) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	return otelsqlx.Connect("postgres", dbURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
}

func buildSources(settings config.SourceSettings, fetcher *scrape.Fetcher, logger *logging.Logger) []scrape.Source {
	var sources []scrape.Source
	if settings.UFCEnabled {
		sources = append(sources, ufc.NewSource(ufc.SourceConfig{
			Fetcher:   fetcher,
			EventsURL: settings.UFCEventsURL,
			Logger:    logger,
		}))
	}
	if settings.TapologyEnabled {
		sources = append(sources, tapology.NewSource(tapology.SourceConfig{
			Fetcher:   fetcher,
			ListURL:   settings.TapologyListURL,
			MaxEvents: settings.TapologyMaxEvents,
			Logger:    logger,
		}))
	}
	return sources
}
