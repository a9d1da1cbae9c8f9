package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:5080"
	DefaultRateLimit    = 100.0
	DefaultRateBurst    = 200
	DefaultMaxBodyBytes = 4 << 20

	DefaultRedisAddr   = "127.0.0.1:6379"
	DefaultLocalSocket = "/var/run/snapkv/snapkv.sock"

	DefaultShutdownTimeout = 10 * time.Second

	DefaultDataDir  = "/var/lib/snapkv"
	DefaultFileName = "store.json"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				RateLimit:    DefaultRateLimit,
				RateBurst:    DefaultRateBurst,
				MaxBodyBytes: DefaultMaxBodyBytes,
			},
			Redis: RedisConfig{
				Enabled:   false,
				Addr:      DefaultRedisAddr,
				RateLimit: DefaultRateLimit,
				RateBurst: DefaultRateBurst,
			},
			Local: LocalConfig{
				Enabled: false,
				Path:    DefaultLocalSocket,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			DataDir:  DefaultDataDir,
			FileName: DefaultFileName,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultMap returns the defaults keyed by dotted koanf path.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.http.addr":           d.Server.HTTP.Addr,
		"server.http.rate_limit":     d.Server.HTTP.RateLimit,
		"server.http.rate_burst":     d.Server.HTTP.RateBurst,
		"server.http.max_body_bytes": d.Server.HTTP.MaxBodyBytes,
		"server.redis.enabled":       d.Server.Redis.Enabled,
		"server.redis.addr":          d.Server.Redis.Addr,
		"server.redis.password":      d.Server.Redis.Password,
		"server.redis.rate_limit":    d.Server.Redis.RateLimit,
		"server.redis.rate_burst":    d.Server.Redis.RateBurst,
		"server.local.enabled":       d.Server.Local.Enabled,
		"server.local.path":          d.Server.Local.Path,
		"server.shutdown_timeout":    d.Server.ShutdownTimeout.String(),
		"storage.data_dir":           d.Storage.DataDir,
		"storage.file_name":          d.Storage.FileName,
		"log.level":                  d.Log.Level,
		"log.format":                 d.Log.Format,
	}
}
