package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/opencaption/subedit/internal/autosave"
	"github.com/opencaption/subedit/internal/config"
	"github.com/opencaption/subedit/internal/correction"
	"github.com/opencaption/subedit/internal/document"
	"github.com/opencaption/subedit/internal/httpapi"
	"github.com/opencaption/subedit/internal/session"
	"github.com/opencaption/subedit/internal/subtitle"
	"github.com/opencaption/subedit/internal/tabs"
	"github.com/opencaption/subedit/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronRunner interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	// .env is optional, environment variables win either way.
	_ = godotenv.Load()

	log.InitLogger(log.ParseLevel(os.Getenv("LOG_LEVEL")))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal("%v", err)
	}
}

func loadConfig() (*config.Config, error) {
	opts := make([]config.Option, 0, 1)
	settingsPath := config.RuntimeSettingsFilePath()
	if settings, err := config.LoadRuntimeSettingsFile(settingsPath); err == nil {
		opts = append(opts, config.WithRuntimeSettings(settings))
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return config.NewFromEnv(opts...)
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := session.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	registry := tabs.NewRegistry(
		document.WithEntryDuration(cfg.Editor.EntryDurationMs),
		document.WithHistoryCapacity(cfg.Editor.HistoryCapacity),
	)
	reader := subtitle.NewReader()
	writer := subtitle.NewWriter()

	restoreSession(ctx, registry, reader, store)

	serverOpts := []httpapi.Option{
		httpapi.WithRecentFilesStore(store),
	}

	var queue *correction.Queue
	if cfg.Correction.Enabled() {
		provider, err := correction.NewHTTPProvider(&correction.ProviderConfig{
			APIURL:  cfg.Correction.APIURL,
			APIKey:  cfg.Correction.APIKey,
			Model:   cfg.Correction.Model,
			Timeout: cfg.Correction.Timeout,
		})
		if err != nil {
			return err
		}
		queue = correction.NewQueue(cfg.Correction.Workers, provider, registry)
		queue.Start()
		defer queue.Stop()
		serverOpts = append(serverOpts, httpapi.WithCorrectionQueue(queue))
	}

	settingsStore, err := config.NewRuntimeSettingsStore(config.RuntimeSettingsFilePath(), cfg.RuntimeSettings())
	if err == nil {
		serverOpts = append(serverOpts, httpapi.WithRuntimeSettingsStore(settingsStore))
	} else {
		log.Warn("Runtime settings store disabled: %v", err)
	}

	cronEngine := cron.New()
	var svc scheduler
	if cfg.Autosave.Enabled {
		svc = autosave.NewService(registry, writer, cfg.Autosave.CronExpr, cronEngine)
	}

	httpSrv := httpapi.NewServer(registry, reader, writer, serverOpts...)

	err = runWithComponents(ctx, cfg, svc, cronEngine, httpSrv)

	saveSession(registry, store)
	return err
}

func runWithComponents(
	ctx context.Context,
	cfg *config.Config,
	svc scheduler,
	cronEngine cronRunner,
	httpSrv httpServer,
) error {
	if svc != nil {
		if err := svc.Schedule(ctx); err != nil {
			return err
		}
	}
	cronEngine.Start()
	defer cronEngine.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP API listening on %s", cfg.System.HTTPAddr)
		errCh <- httpSrv.ListenAndServe(cfg.System.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func restoreSession(ctx context.Context, registry *tabs.Registry, reader subtitle.Reader, store *session.SQLiteStore) {
	openTabs, err := store.LoadOpenTabs(ctx)
	if err != nil {
		log.Warn("Failed to load previous session: %v", err)
		return
	}

	activeID := 0
	for _, saved := range openTabs {
		file, err := reader.Read(saved.Path)
		if err != nil {
			log.Warn("Skipping unreadable session file %s: %v", saved.Path, err)
			_ = store.RemoveRecentFile(ctx, saved.Path)
			continue
		}
		snapshot, _ := registry.CreateTab(saved.Path, file.Entries)
		if saved.Active {
			activeID = snapshot.ID
		}
	}
	if activeID != 0 {
		registry.SetActiveTab(activeID)
	}
	if n := registry.Len(); n > 0 {
		log.Info("Restored %d tab(s) from previous session", n)
	}
}

func saveSession(registry *tabs.Registry, store *session.SQLiteStore) {
	tabList := registry.Tabs()
	openTabs := make([]session.OpenTab, 0, len(tabList))
	for _, snapshot := range tabList {
		if snapshot.FilePath == "" {
			continue
		}
		openTabs = append(openTabs, session.OpenTab{
			Path:   snapshot.FilePath,
			Active: snapshot.Active,
		})
	}
	if err := store.SaveOpenTabs(context.Background(), openTabs); err != nil {
		log.Warn("Failed to save session: %v", err)
	}
}
