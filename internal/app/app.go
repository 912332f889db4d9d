package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NormasScanner/internal/config"
	"NormasScanner/internal/infrastructure/archive"
	"NormasScanner/internal/infrastructure/gazette"
	"NormasScanner/internal/infrastructure/scheduler"
	"NormasScanner/internal/infrastructure/storage"
	"NormasScanner/internal/infrastructure/telegram"
	"NormasScanner/internal/keywords"
	"NormasScanner/internal/logging"
	"NormasScanner/internal/ports"
	"NormasScanner/internal/usecase"
)

// Application wires configuration to adapters and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *keywords.Registry
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		registry: keywords.NewRegistry(cfg.KeywordLists()),
	}
}

// Run executes the pipeline once, or keeps it on a cron loop when the
// scheduler is configured for loop mode.
func (a *Application) Run(ctx context.Context) error {
	if !a.cfg.Scheduler.Loop {
		return a.runOnce(ctx, time.Now().In(a.cfg.Scheduler.Location()))
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	job := func(trigger time.Time) {
		if err := a.runOnce(ctx, trigger); err != nil {
			a.logger.Error("scheduled run failed", "error", err)
		}
	}
	if err := driver.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case <-sig:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return driver.Stop(stopCtx)
}

// runOnce assembles fresh per-run resources (database connection, browser
// session) and executes the pipeline.
func (a *Application) runOnce(ctx context.Context, today time.Time) error {
	var (
		corpusStore ports.CorpusStore
		reportSink  ports.ReportSink
	)
	if dsn := a.cfg.Database.DSN; dsn != "" {
		db, err := storage.Open(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		corpusStore = storage.NewCorpusStore(db, a.cfg.Corpus.Name)
		reportSink = storage.NewReportSink(db)
	} else {
		a.logger.Warn("no database configured, corpus and report persistence disabled")
	}

	var notifier ports.Notifier
	if tg := a.cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	} else {
		a.logger.Warn("telegram not configured, notifications disabled")
	}

	extractor := gazette.New(a.cfg.Gazette.BaseURL, a.cfg.Gazette.MaxScrolls, a.logger.With("component", "gazette"))
	defer extractor.Close()

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Extractor: extractor,
		Corpus:    corpusStore,
		Archive:   archive.New(a.cfg.Archive.Dir, today, nil),
		Report:    reportSink,
		Notifier:  notifier,
		Registry:  a.registry,
		Logger:    a.logger.With("component", "pipeline"),
	})

	return pipeline.Run(ctx, today)
}
