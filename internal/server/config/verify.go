package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/snapkv/internal/telemetry/logger"
)

// Verify validates the configuration and creates the data directory.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		return err
	}
	if err := verifyRate("server.http", cfg.HTTP.RateLimit, cfg.HTTP.RateBurst); err != nil {
		return err
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		return errors.New("server.http.max_body_bytes must be positive")
	}

	if cfg.Redis.Enabled {
		if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
			return err
		}
		if cfg.Redis.Addr == cfg.HTTP.Addr {
			return fmt.Errorf("server.redis.addr conflicts with server.http.addr (%s)", cfg.HTTP.Addr)
		}
		if err := verifyRate("server.redis", cfg.Redis.RateLimit, cfg.Redis.RateBurst); err != nil {
			return err
		}
	}

	if cfg.Local.Enabled && cfg.Local.Path == "" {
		return errors.New("server.local.path is required when the local socket is enabled")
	}

	if cfg.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	return nil
}

func verifyAddr(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", name)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: invalid address %q: %w", name, addr, err)
	}
	return nil
}

func verifyRate(prefix string, limit float64, burst int) error {
	if limit < 0 {
		return fmt.Errorf("%s.rate_limit must not be negative", prefix)
	}
	if limit > 0 && burst < 1 {
		return fmt.Errorf("%s.rate_burst must be at least 1 when rate limiting is enabled", prefix)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if cfg.FileName == "" {
		return errors.New("storage.file_name is required")
	}
	if strings.ContainsAny(cfg.FileName, `/\`) {
		return fmt.Errorf("storage.file_name must be a bare file name, got %q", cfg.FileName)
	}

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	if !logger.ValidFormat(cfg.Format) {
		return fmt.Errorf("log.format: unknown format %q, want one of %s", cfg.Format, strings.Join(logger.Formats(), ", "))
	}
	return nil
}
