package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/Jrogbaaa/Project-X-sub001/internal/data/db"
	server "github.com/Jrogbaaa/Project-X-sub001/internal/http"
	"github.com/Jrogbaaa/Project-X-sub001/internal/jobs/worker"
	"github.com/Jrogbaaa/Project-X-sub001/internal/observability"
	"github.com/Jrogbaaa/Project-X-sub001/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Metrics  *observability.Metrics
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *server.Server
	Worker   *worker.Worker

	store        *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	dotenvErr := LoadDotEnv()

	logMode := strings.TrimSpace(os.Getenv("LOG_MODE"))
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		log.Warn("Could not load .env file", "error", dotenvErr)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	store, err := db.Open(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	reposet := wireRepos(store.DB(), log)

	clients, err := wireClients(log, metrics, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	serviceset := wireServices(log, metrics, cfg, clients, reposet)
	if err := seed(context.Background(), log, cfg, serviceset); err != nil {
		closeRedis(clients.Redis)
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	var w *worker.Worker
	if serviceset.Enrichment != nil && cfg.EnrichEnabled {
		w = worker.NewWorker(log, serviceset.Enrichment, cfg.EnrichInterval)
	}

	handlerset := wireHandlers(log, serviceset, store)
	srv := wireServer(log, metrics, reg, cfg, handlerset)

	return &App{
		Log:          log,
		DB:           store.DB(),
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       srv,
		Worker:       w,
		store:        store,
		otelShutdown: otelShutdown,
	}, nil
}

// seed installs the built-in preset, then the optional preset and brand files.
func seed(ctx context.Context, log *logger.Logger, cfg Config, s Services) error {
	if err := s.Weights.EnsureSystem(ctx); err != nil {
		return fmt.Errorf("seed system preset: %w", err)
	}
	if cfg.PresetsFile != "" {
		n, err := s.Weights.SeedFile(ctx, cfg.PresetsFile)
		if err != nil {
			return fmt.Errorf("seed presets from %s: %w", cfg.PresetsFile, err)
		}
		log.Info("Seeded weight presets", "file", cfg.PresetsFile, "count", n)
	}
	if cfg.BrandsFile != "" {
		res, err := s.Brands.SeedFile(ctx, cfg.BrandsFile)
		if err != nil {
			return fmt.Errorf("seed brands from %s: %w", cfg.BrandsFile, err)
		}
		log.Info("Seeded brand knowledge base", "file", cfg.BrandsFile, "stored", res.Stored, "duplicates", res.Duplicates)
	}
	return nil
}

// Start launches background workers. They stop when Close is called.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Worker != nil {
		a.Worker.Start(ctx)
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + strings.TrimPrefix(a.Cfg.Port, ":")
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Worker != nil {
		a.Worker.Wait()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("Tracer shutdown failed", "error", err)
		}
		cancel()
	}
	closeRedis(a.Clients.Redis)
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
