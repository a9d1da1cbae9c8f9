// Package main provides the entry point for snapkv-server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/yndnr/snapkv/internal/infra/buildinfo"
	"github.com/yndnr/snapkv/internal/infra/confloader"
	"github.com/yndnr/snapkv/internal/infra/shutdown"
	"github.com/yndnr/snapkv/internal/server/config"
	"github.com/yndnr/snapkv/internal/server/httpserver"
	"github.com/yndnr/snapkv/internal/server/localserver"
	"github.com/yndnr/snapkv/internal/server/redisserver"
	"github.com/yndnr/snapkv/internal/storage/memory"
	"github.com/yndnr/snapkv/internal/telemetry/logger"
	"github.com/yndnr/snapkv/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("snapkv-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	safe := config.Sanitize(cfg)
	log.Info("starting snapkv-server",
		"version", buildinfo.Version,
		"config", *configFile,
		"http_addr", safe.Server.HTTP.Addr,
		"redis_enabled", safe.Server.Redis.Enabled,
		"redis_password", safe.Server.Redis.Password,
		"local_enabled", safe.Server.Local.Enabled,
		"snapshot", cfg.Storage.SnapshotPath())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := metric.Global()

	store, err := memory.Open(ctx, cfg.Storage.SnapshotPath(), memory.WithRecorder(reg))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := reg.Register(metric.NewCollector(store)); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}
	log.Info("store loaded", "keys", store.Len(ctx))

	routerCfg := httpserver.RouterConfig{
		Store:        store,
		Logger:       log,
		Metrics:      reg,
		RateLimit:    cfg.Server.HTTP.RateLimit,
		RateBurst:    cfg.Server.HTTP.RateBurst,
		MaxBodyBytes: cfg.Server.HTTP.MaxBodyBytes,
		MaxTextBytes: httpserver.DefaultRouterConfig().MaxTextBytes,
		EnableAudit:  true,
	}
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(&routerCfg))

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log)

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if cfg.Server.Redis.Enabled {
		redisServer, err := startRedis(ctx, cfg, store, reg, log)
		if err != nil {
			return fmt.Errorf("start redis server: %w", err)
		}
		shutdownHandler.OnShutdown("resp", func(ctx context.Context) error {
			log.Info("shutting down RESP server")
			return redisServer.Shutdown(ctx)
		})
	}

	if cfg.Server.Local.Enabled {
		localServer := localserver.New(cfg.Server.Local.Path, localserver.NewHandler(routerCfg), log)
		if err := localServer.Listen(); err != nil {
			return fmt.Errorf("start local server: %w", err)
		}
		go func() {
			if err := localServer.Serve(); err != nil {
				log.Error("local server error", "error", err)
				cancel()
			}
		}()
		shutdownHandler.OnShutdown("local", func(ctx context.Context) error {
			log.Info("shutting down local server")
			return localServer.Shutdown(ctx)
		})
	}

	if *configFile != "" {
		watcher, err := confloader.NewWatcher(*configFile, reloadLogLevel(log),
			confloader.WithWatcherLogger(log))
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.WaitContext(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully", "keys", store.Len(context.Background()))
	return nil
}

// loadConfig loads configuration from defaults, file and environment, then
// validates it.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger and installs it as the
// process default.
func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

func startRedis(ctx context.Context, cfg *config.ServerConfig, store *memory.Store, reg *metric.Registry, log *slog.Logger) (*redisserver.Server, error) {
	rc := redisserver.DefaultConfig()
	rc.Addr = cfg.Server.Redis.Addr
	rc.Password = cfg.Server.Redis.Password
	rc.RateLimit = cfg.Server.Redis.RateLimit
	rc.RateBurst = cfg.Server.Redis.RateBurst

	srv := redisserver.New(rc, store, log, redisserver.WithMetrics(reg))
	if err := srv.Start(ctx); err != nil {
		return nil, err
	}
	return srv, nil
}

// reloadLogLevel re-reads the configuration file on change and applies
// the new log level. Other settings require a restart.
func reloadLogLevel(log *slog.Logger) func(path string) {
	return func(path string) {
		cfg, err := config.Load(path)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if !logger.ValidLevel(cfg.Log.Level) {
			log.Warn("config reload ignored invalid log level", "level", cfg.Log.Level)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	}
}
