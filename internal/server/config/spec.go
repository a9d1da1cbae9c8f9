package config

import (
	"path/filepath"
	"time"
)

// ServerConfig is the root configuration for snapkv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Redis RedisConfig `koanf:"redis"`
	Local LocalConfig `koanf:"local"`

	// ShutdownTimeout bounds graceful shutdown of all listeners.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `koanf:"addr"`

	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// RedisConfig configures the RESP protocol server.
type RedisConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Addr      string  `koanf:"addr"`
	Password  string  `koanf:"password"`
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// LocalConfig configures the local management socket.
type LocalConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// StorageSection configures the snapshot file.
type StorageSection struct {
	DataDir  string `koanf:"data_dir"`
	FileName string `koanf:"file_name"`
}

// SnapshotPath returns the full path of the snapshot file.
func (s StorageSection) SnapshotPath() string {
	return filepath.Join(s.DataDir, s.FileName)
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
