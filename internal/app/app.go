package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"DailyByte/internal/config"
	"DailyByte/internal/infrastructure/buttondown"
	"DailyByte/internal/infrastructure/llm"
	"DailyByte/internal/infrastructure/parser"
	"DailyByte/internal/infrastructure/scheduler"
	"DailyByte/internal/infrastructure/storage"
	"DailyByte/internal/logging"
	"DailyByte/internal/ports"
	"DailyByte/internal/render"
	"DailyByte/internal/scanner"
	"DailyByte/internal/usecase"
	"DailyByte/pkg/progress"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	closers  []func() error
}

// New builds a runnable application instance. Trace lines go to traceOut.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, traceOut io.Writer) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	state, closeState, err := storage.Open(ctx, cfg.State)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	fetchOpts := func(component string) parser.Options {
		return parser.Options{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.Fetch.Timeout,
			Logger:    baseLogger.With("component", component),
		}
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewFeedScanner(fetchOpts("scanner.feed")))
	registry.Register(parser.NewNewsletterScanner(fetchOpts("scanner.newsletter")))
	registry.Register(parser.NewSocialScanner(fetchOpts("scanner.social"), cfg.X.BaseURL, cfg.X.BearerToken))

	source := parser.NewStrategySource(registry, cfg.Families, baseLogger.With("component", "source"))

	location := digestLocation(cfg.Digest.Timezone)
	renderer := render.New(cfg.Digest.Locale, location)

	modelKeyName, modelKey := cfg.ModelAPIKey()
	deliveryKeyName, deliveryKey := cfg.DeliveryAPIKey()

	curator := usecase.NewCurator(usecase.CuratorConfig{
		MaxPromptItems:      cfg.Curator.MaxPromptItems,
		ContentLimit:        cfg.Curator.ContentLimit,
		MaxItems:            cfg.Curator.MaxItems,
		MinHeatScore:        cfg.Curator.MinHeatScore,
		MaxAttempts:         cfg.Curator.MaxAttempts,
		BaseBackoff:         cfg.Curator.BaseBackoff,
		Freshness:           cfg.Curator.Freshness,
		NewsletterFreshness: cfg.Curator.NewsletterFresh,
		OverridePath:        cfg.Curator.OverridePath,
		Language:            renderer.PromptLanguage(),
		Location:            location,
	}, usecase.CuratorDeps{
		Model:  modelClient(cfg),
		State:  state,
		Logger: baseLogger.With("component", "curator"),
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Collector:   usecase.NewCollector(source, baseLogger.With("component", "collector"), nil),
		Curator:     curator,
		Renderer:    renderer,
		Sender:      usecase.NewSender(buttondown.NewClient(cfg.Buttondown), cfg.Digest.PreviewPath, baseLogger.With("component", "sender")),
		State:       state,
		ModelKey:    usecase.Credential{Name: modelKeyName, Value: modelKey},
		DeliveryKey: usecase.Credential{Name: deliveryKeyName, Value: deliveryKey},
		Tracer:      progress.New("dailybyte", traceOut),
		Logger:      baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		closers:  []func() error{closeState},
	}, nil
}

func modelClient(cfg config.Config) ports.ModelClient {
	if cfg.Curator.Provider == config.ProviderOpenAI {
		return llm.NewChatGPTClient(cfg.ChatGPT)
	}
	return llm.NewAnthropicClient(cfg.Anthropic)
}

func digestLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context, opts usecase.RunOptions) (usecase.RunReport, error) {
	return a.pipeline.Run(ctx, opts)
}

// Serve runs the pipeline on the configured cron expression until ctx is cancelled.
func (a *Application) Serve(ctx context.Context, opts usecase.RunOptions) error {
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	if next, err := driver.Next(time.Now()); err == nil {
		a.logger.Info("daemon started", "cron", a.cfg.Scheduler.CronExpression, "next_run", next)
	}

	daily := usecase.NewScheduler(driver, a.pipeline, opts, a.logger.With("component", "scheduler"))
	if err := daily.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return daily.Stop(stopCtx)
}

// Close releases the state backend.
func (a *Application) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
