package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"NewsForge/internal/config"
	"NewsForge/internal/domain"
	"NewsForge/internal/infrastructure/cloudinary"
	"NewsForge/internal/infrastructure/openai"
	"NewsForge/internal/infrastructure/scheduler"
	"NewsForge/internal/infrastructure/storage"
	"NewsForge/internal/infrastructure/telegram"
	"NewsForge/internal/infrastructure/weather"
	"NewsForge/internal/logging"
	"NewsForge/internal/ports"
	"NewsForge/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration. It is
// the facade an outer delivery layer consumes: generation cycles run through
// the scheduler, votes and reads go through the exported methods.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	aggregator *usecase.Aggregator
	controller *usecase.CycleController
	scheduler  *usecase.Scheduler
	weather    ports.WeatherProvider
}

// New connects the store and builds the full component graph.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}

	repository := storage.NewPostgresRepository(db)
	if err := repository.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	provider := openai.NewClient(cfg.OpenAI)
	media := cloudinary.NewStore(cfg.Cloudinary)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Provider:     provider,
		Media:        media,
		Repository:   repository,
		MaxBodyChars: cfg.Generation.MaxBodyChars,
		Logger:       baseLogger.With("component", "pipeline"),
	})

	aggregator := usecase.NewAggregator(repository, cfg.Generation.BatchSize,
		baseLogger.With("component", "aggregator"))

	controller := usecase.NewCycleController(usecase.CycleControllerDeps{
		Pipeline:   pipeline,
		Aggregator: aggregator,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "cycle"),
	})

	if _, err := aggregator.Bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap votable batch: %w", err)
	}

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Period())

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		db:         db,
		aggregator: aggregator,
		controller: controller,
		scheduler:  usecase.NewScheduler(driver, controller),
		weather:    weather.NewClient(cfg.Weather),
	}, nil
}

// Run starts the generation scheduler and blocks until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// RunOnce executes a single generation cycle and returns.
func (a *Application) RunOnce(ctx context.Context) error {
	return a.controller.RunCycle(ctx, time.Now().In(a.cfg.Scheduler.Location()))
}

// ApplyVotes submits one user's vote batch for the current cycle.
func (a *Application) ApplyVotes(ctx context.Context, userID string, batch domain.VoteBatch) error {
	return a.aggregator.ApplyVotes(ctx, userID, batch)
}

// TopNews returns the k highest-scoring items of the archive.
func (a *Application) TopNews(ctx context.Context, k int) ([]domain.NewsItem, error) {
	return a.aggregator.TopNews(ctx, k)
}

// Archive returns every published item, newest first.
func (a *Application) Archive(ctx context.Context) ([]domain.NewsItem, error) {
	return a.aggregator.Archive(ctx)
}

// CurrentBatch returns the votable batch of the running cycle.
func (a *Application) CurrentBatch() domain.Batch {
	return a.controller.CurrentBatch()
}

// Weather returns the cached current-conditions reading for coordinates.
func (a *Application) Weather(ctx context.Context, lat, lon float64) (string, error) {
	return a.weather.CurrentWeather(ctx, lat, lon)
}

// Close releases the store connection.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
