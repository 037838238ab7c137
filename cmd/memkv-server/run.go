package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yndnr/memkv/internal/infra/buildinfo"
	"github.com/yndnr/memkv/internal/infra/confloader"
	"github.com/yndnr/memkv/internal/infra/shutdown"
	"github.com/yndnr/memkv/internal/server/config"
	"github.com/yndnr/memkv/internal/server/httpserver"
	"github.com/yndnr/memkv/internal/server/redisserver"
	"github.com/yndnr/memkv/internal/storage/memory"
	"github.com/yndnr/memkv/internal/telemetry/logger"
	"github.com/yndnr/memkv/internal/telemetry/metric"
	"github.com/yndnr/memkv/pkg/resp"
)

const shutdownTimeout = 30 * time.Second

func run(ctx context.Context, cfg *config.ServerConfig, configFile string, overrides map[string]any) error {
	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting memkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	store := memory.New()

	metrics := metric.Global()
	if err := metrics.RegisterStoreKeys(storeKeys(store)); err != nil {
		return fmt.Errorf("register store metrics: %w", err)
	}

	redisServer := redisserver.New(redisConfig(&cfg.Server.Redis), store,
		redisserver.WithLogger(log),
		redisserver.WithMetrics(metrics),
	)
	if err := redisServer.Start(ctx); err != nil {
		return fmt.Errorf("start redis server: %w", err)
	}

	// Hooks run in reverse order of registration.
	shutdownHandler := shutdown.NewHandler(shutdownTimeout)
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down redis server")
		return redisServer.Shutdown(ctx)
	})

	if cfg.Server.Admin.Enabled {
		router := httpserver.NewRouter(httpserver.RouterConfig{
			Status:  &adminStatus{store: store, server: redisServer},
			Metrics: metrics,
			Logger:  log,
		})
		adminServer := httpserver.New(cfg.Server.Admin.Addr, router, log)
		if err := adminServer.Start(); err != nil {
			_ = redisServer.Shutdown(context.Background())
			return fmt.Errorf("start admin server: %w", err)
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down admin server")
			return adminServer.Shutdown(ctx)
		})
	}

	if configFile != "" {
		watcher, err := watchConfig(configFile, overrides, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initLogger creates the process logger and installs it as the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    os.Stdout,
		AddSource: cfg.Log.AddSource,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

func redisConfig(cfg *config.RedisConfig) *redisserver.Config {
	return &redisserver.Config{
		Address:      cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
		Limits: resp.Limits{
			MaxBulkLen:  cfg.MaxBulkLen,
			MaxArrayLen: cfg.MaxArrayLen,
			MaxLineLen:  cfg.MaxLineLen,
			MaxDepth:    cfg.MaxDepth,
		},
	}
}

// watchConfig reloads the file on change and applies a new log level. Other
// settings take effect on restart.
func watchConfig(configFile string, overrides map[string]any, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg, err := loadConfig(path, overrides)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "path", path, "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("failed to apply log level", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	watcher.StartAsync()
	return watcher, nil
}

func storeKeys(store *memory.Store) func() float64 {
	return func() float64 {
		n, err := store.Len()
		if err != nil {
			return 0
		}
		return float64(n)
	}
}

// adminStatus reports the server state to the admin endpoints.
type adminStatus struct {
	store  *memory.Store
	server *redisserver.Server
}

func (s *adminStatus) Ready() error {
	if s.store.Poisoned() {
		return memory.ErrPoisoned
	}
	return nil
}

func (s *adminStatus) ActiveConnections() int {
	return s.server.ActiveConnections()
}

func (s *adminStatus) Keys() (int, error) {
	return s.store.Len()
}
