package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	"NewsAgent/internal/infrastructure/feed"
	"NewsAgent/internal/infrastructure/llm"
	"NewsAgent/internal/infrastructure/scheduler"
	"NewsAgent/internal/infrastructure/storage"
	"NewsAgent/internal/infrastructure/telegram"
	"NewsAgent/internal/infrastructure/websearch"
	"NewsAgent/internal/logging"
	"NewsAgent/internal/ports"
	"NewsAgent/internal/usecase"
)

// Bundle is the set of components built from one configuration. It is never mutated after
// construction; a configuration change builds a new bundle.
type Bundle struct {
	Config   config.Config
	Router   *usecase.Router
	Pipeline *usecase.Pipeline
}

// Application wires configs to use cases and owns the store shared by every bundle.
type Application struct {
	repository *storage.Repository
	configPath string
	logger     *slog.Logger
	httpClient *http.Client

	bundle   atomic.Pointer[Bundle]
	ticker   atomic.Pointer[scheduler.IntervalScheduler]
	configMu sync.Mutex
}

// Open connects the store described by cfg and builds the first bundle.
func Open(ctx context.Context, cfg config.Config, configPath string, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return New(cfg, repo, configPath, baseLogger), nil
}

// New builds an application around an already opened store.
func New(cfg config.Config, repo *storage.Repository, configPath string, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{
		repository: repo,
		configPath: configPath,
		logger:     baseLogger,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	a.bundle.Store(a.build(cfg))
	return a
}

func (a *Application) build(cfg config.Config) *Bundle {
	var engine ports.CompletionClient
	if client := llm.NewClient(cfg.LLM); client != nil {
		engine = client
	} else {
		a.logger.Warn("classification engine not configured, using mock judgments")
	}

	var notifier ports.Notifier
	if n := telegram.NewNotifier(cfg.Notifications.Telegram); n != nil {
		notifier = n
	}

	fetcher := feed.NewFetcher(a.httpClient, cfg.Feeds, a.repository, a.logger.With("component", "feed"))
	analyzer := usecase.NewAnalyzer(engine, usecase.Taxonomy{
		Interests:  cfg.Tagging.Interests,
		Categories: cfg.Tagging.Categories,
	}, a.logger.With("component", "analyzer"))

	router := usecase.NewRouter(usecase.RouterDeps{
		Engine:     engine,
		Repository: a.repository,
		Web:        websearch.NewDuckDuckGo(a.httpClient, cfg.Search.Endpoint),
		WebLimit:   cfg.Search.MaxResults,
		Logger:     a.logger.With("component", "router"),
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     fetcher,
		Analyzer:   analyzer,
		Repository: a.repository,
		Notifier:   notifier,
		Logger:     a.logger.With("component", "pipeline"),
	})

	return &Bundle{
		Config:   cfg,
		Router:   router,
		Pipeline: pipeline,
	}
}

// Current returns the bundle visible to new calls.
func (a *Application) Current() *Bundle {
	return a.bundle.Load()
}

// Reload builds a bundle from cfg and swaps it in. Calls already running keep their bundle.
// A running scheduler picks up the new interval.
func (a *Application) Reload(cfg config.Config) *Bundle {
	previous := a.Current()
	if previous != nil && previous.Config.Database != cfg.Database {
		a.logger.Warn("database settings changed, restart to apply", "driver", cfg.Database.Driver)
	}

	next := a.build(cfg)
	a.bundle.Store(next)
	if ticker := a.ticker.Load(); ticker != nil && ticker.Interval() != cfg.Scheduler.Interval {
		ticker.SetInterval(cfg.Scheduler.Interval)
		a.logger.Info("scheduler interval changed", "interval", cfg.Scheduler.Interval)
	}
	a.logger.Info("configuration reloaded", "feeds", len(cfg.Feeds), "categories", len(cfg.Tagging.Categories))
	return next
}

// Ingest runs one ingestion with the current bundle.
func (a *Application) Ingest(ctx context.Context, progress usecase.Progress) (usecase.IngestReport, error) {
	return a.Current().Pipeline.Ingest(ctx, progress)
}

// Query routes text and returns the results together with their text rendering.
func (a *Application) Query(ctx context.Context, text string) (usecase.QueryResult, string, error) {
	result, err := a.Current().Router.Handle(ctx, text)
	if err != nil {
		return result, "", err
	}
	return result, usecase.FormatResults(result.Items), nil
}

// ListArticles returns stored articles matching filter.
func (a *Application) ListArticles(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	return a.repository.List(ctx, filter)
}

// ConfigRaw returns the configuration file as stored on disk.
func (a *Application) ConfigRaw() ([]byte, error) {
	raw, err := os.ReadFile(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return raw, nil
}

// UpdateConfig validates raw, writes it to the configuration file and swaps in a new bundle.
// Validation failures wrap config.ErrInvalid and leave both file and bundle untouched.
func (a *Application) UpdateConfig(raw []byte) error {
	cfg, err := config.Parse(raw)
	if err != nil {
		return err
	}

	a.configMu.Lock()
	defer a.configMu.Unlock()

	if err := os.WriteFile(a.configPath, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	a.Reload(cfg)
	return nil
}

// NewScheduler drives periodic ingestion at the configured interval; the job always uses
// the bundle current at trigger time. Later reloads retune the most recently created scheduler.
func (a *Application) NewScheduler() *usecase.Scheduler {
	ticker := scheduler.NewIntervalScheduler(a.Current().Config.Scheduler.Interval)
	a.ticker.Store(ticker)

	ingest := func(ctx context.Context) (int, error) {
		report, err := a.Ingest(ctx, nil)
		return report.Stored, err
	}
	return usecase.NewScheduler(ticker, ingest, a.logger.With("component", "scheduler"))
}

// Close releases the store.
func (a *Application) Close() error {
	if a.repository == nil {
		return nil
	}
	return a.repository.Close()
}
