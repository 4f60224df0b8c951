// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/AustinWp/soul-agent/internal/config"
	"github.com/AustinWp/soul-agent/pkg/capture"
	"github.com/AustinWp/soul-agent/pkg/classify"
	"github.com/AustinWp/soul-agent/pkg/dailylog"
	"github.com/AustinWp/soul-agent/pkg/ingest"
	"github.com/AustinWp/soul-agent/pkg/insight"
	"github.com/AustinWp/soul-agent/pkg/lifecycle"
	"github.com/AustinWp/soul-agent/pkg/llm"
	"github.com/AustinWp/soul-agent/pkg/pipeline"
	"github.com/AustinWp/soul-agent/pkg/server"
	"github.com/AustinWp/soul-agent/pkg/todo"
	"github.com/AustinWp/soul-agent/pkg/vault"
)

// App is a fully wired daemon ready to run.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *vault.Store
	queue     *ingest.Queue
	dailyLog  *dailylog.Log
	todos     *todo.Store
	provider  llm.Provider
	consumer  *pipeline.Consumer
	terminal  *capture.TerminalBuffer
	srv       *server.Server
	scheduler *insight.Scheduler
	janitor   *lifecycle.Janitor
}

// New builds the daemon from configuration. Producers that are
// disabled in the config are simply not started by Run.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := vault.New(cfg.VaultPath)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	queue := ingest.NewQueue(
		ingest.WithBatchSize(cfg.Queue.BatchSize),
		ingest.WithFlushInterval(cfg.FlushInterval()),
		ingest.WithDedupWindow(cfg.DedupWindow()),
	)

	provider, err := llm.NewProvider(llm.Config{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.APIBase,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	dailyLog := dailylog.New(store, logger)
	todos := todo.New(store, logger)
	classifier := classify.New(provider, classify.WithLogger(logger))
	consumer := pipeline.New(queue, classifier, dailyLog, store, todos, logger)
	terminal := capture.NewTerminalBuffer(queue, logger)

	engine := insight.New(dailyLog, todos, store, provider, logger)
	scheduler, err := insight.NewScheduler(engine, cfg.Insight.DailyTime, logger)
	if err != nil {
		return nil, fmt.Errorf("insight scheduler: %w", err)
	}

	janitor := lifecycle.New(store, 0, logger)

	srv := server.New(cfg.Port, server.Deps{
		Queue:    queue,
		Terminal: terminal,
		Vault:    store,
		Todos:    todos,
		Insights: engine,
	}, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		queue:     queue,
		dailyLog:  dailyLog,
		todos:     todos,
		provider:  provider,
		consumer:  consumer,
		terminal:  terminal,
		srv:       srv,
		scheduler: scheduler,
		janitor:   janitor,
	}, nil
}

// Run starts every enabled component and blocks until ctx is canceled
// or the HTTP server fails. Shutdown order matters: producers stop
// with the shared context, the terminal buffer flushes into the queue,
// and the consumer performs a final drain before Run returns.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("pipeline.start",
		"vault", a.cfg.VaultPath,
		"port", a.cfg.Port,
		"provider", a.provider.Name(),
	)

	g, ctx := errgroup.WithContext(ctx)

	a.scheduler.Start()
	defer a.scheduler.Stop()

	a.srv.SetComponent("janitor", "running")
	g.Go(func() error {
		a.janitor.Run(ctx)
		return nil
	})

	if a.cfg.Clipboard.IsEnabled() {
		a.srv.SetComponent("clipboard", "running")
		poller := capture.NewClipboardPoller(a.queue, a.cfg.Clipboard.IntervalDuration(), a.logger)
		g.Go(func() error {
			poller.Run(ctx)
			return nil
		})
	} else {
		a.srv.SetComponent("clipboard", "disabled")
	}

	if a.cfg.Browser.IsEnabled() {
		a.srv.SetComponent("browser", "running")
		poller := capture.NewBrowserPoller(a.queue, a.cfg.Browser.IntervalDuration(), a.logger)
		g.Go(func() error {
			poller.Run(ctx)
			return nil
		})
	} else {
		a.srv.SetComponent("browser", "disabled")
	}

	if len(a.cfg.WatchDirs) > 0 {
		a.srv.SetComponent("fswatch", "running")
		watcher := capture.NewFileWatcher(a.queue, a.cfg.WatchDirs, a.logger)
		g.Go(func() error {
			watcher.Run(ctx)
			return nil
		})
	} else {
		a.srv.SetComponent("fswatch", "disabled")
	}

	if a.cfg.InputHook.Enabled {
		a.srv.SetComponent("input_hook", "running")
		tap := capture.NewKeystrokeTap(a.queue, nil, a.cfg.InputHook.DedicatedApps, a.logger)
		g.Go(func() error {
			tap.Run(ctx)
			return nil
		})
	} else {
		a.srv.SetComponent("input_hook", "disabled")
	}

	// The consumer outlives the shared context by one step: buffered
	// terminal commands are flushed into the queue first, then the
	// consumer is canceled and performs its final drain.
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	g.Go(func() error {
		a.consumer.Run(consumerCtx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.terminal.FlushAll()
		stopConsumer()
		return nil
	})

	g.Go(func() error {
		return a.srv.Run(ctx)
	})

	err := g.Wait()
	a.logger.Info("pipeline.stop")
	return err
}
