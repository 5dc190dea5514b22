package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keys
const (
	KeyAPIBaseURL    = "api.base_url"
	KeyAPITimeout    = "api.timeout"
	KeyStoreDriver   = "store.driver"
	KeyStorePath     = "store.path"
	KeyRedisAddr     = "store.redis_addr"
	KeyRedisDB       = "store.redis_db"
	KeyRedisPrefix   = "store.redis_prefix"
	KeyCameraCommand = "camera.command"
	KeyCameraFile    = "camera.file"
	KeyDecodeWorkers = "capture.decode_workers"
	KeyHistoryDir    = "history.dir"
	KeyLogLevel      = "log.level"
)

// Store drivers
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// DefaultAPIBaseURL is the backend the original deployment talks to
const DefaultAPIBaseURL = "http://localhost:8000/api/"

// Config is the resolved client configuration
type Config struct {
	APIBaseURL    string
	APITimeout    time.Duration
	StoreDriver   string
	StorePath     string
	RedisAddr     string
	RedisDB       int
	RedisPrefix   string
	CameraCommand []string
	CameraFile    string
	DecodeWorkers int
	HistoryDir    string
	LogLevel      string
}

// NewViper returns a viper instance carrying the defaults for paths. Values
// are overridden by config.yaml, then ATTENDANCE_* environment variables,
// then bound flags.
func NewViper(paths StatePaths) *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault(KeyAPIBaseURL, DefaultAPIBaseURL)
	v.SetDefault(KeyAPITimeout, 60*time.Second)
	v.SetDefault(KeyStoreDriver, DriverSQLite)
	v.SetDefault(KeyStorePath, paths.SessionDBPath())
	v.SetDefault(KeyRedisAddr, "localhost:6379")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyRedisPrefix, "attendance:")
	v.SetDefault(KeyCameraCommand, []string{})
	v.SetDefault(KeyCameraFile, "")
	v.SetDefault(KeyDecodeWorkers, 4)
	v.SetDefault(KeyHistoryDir, paths.HistoryDir())
	v.SetDefault(KeyLogLevel, "info")

	v.SetEnvPrefix("ATTENDANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads envFile (if present) into the environment, then
// configFile (if present), and resolves the configuration
func LoadConfig(v *viper.Viper, configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
			}
			LogDebug("No config file at %s, using defaults", configFile)
		}
	}

	cfg := &Config{
		APIBaseURL:    v.GetString(KeyAPIBaseURL),
		APITimeout:    v.GetDuration(KeyAPITimeout),
		StoreDriver:   strings.ToLower(v.GetString(KeyStoreDriver)),
		StorePath:     v.GetString(KeyStorePath),
		RedisAddr:     v.GetString(KeyRedisAddr),
		RedisDB:       v.GetInt(KeyRedisDB),
		RedisPrefix:   v.GetString(KeyRedisPrefix),
		CameraCommand: v.GetStringSlice(KeyCameraCommand),
		CameraFile:    v.GetString(KeyCameraFile),
		DecodeWorkers: v.GetInt(KeyDecodeWorkers),
		HistoryDir:    v.GetString(KeyHistoryDir),
		LogLevel:      v.GetString(KeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved values
func (c *Config) Validate() error {
	fields := map[string]string{}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fields[KeyAPIBaseURL] = "must be an absolute http(s) URL"
	}
	if c.APITimeout < 0 {
		fields[KeyAPITimeout] = "must not be negative"
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.StorePath == "" {
			fields[KeyStorePath] = "is required for the sqlite driver"
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			fields[KeyRedisAddr] = "is required for the redis driver"
		}
	case DriverMemory:
	default:
		fields[KeyStoreDriver] = "must be one of sqlite, redis, memory"
	}
	if c.DecodeWorkers < 1 {
		fields[KeyDecodeWorkers] = "must be at least 1"
	}
	if _, ok := ParseLogLevel(c.LogLevel); !ok {
		fields[KeyLogLevel] = "must be one of error, warn, info, debug"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// OpenStore opens the configured session store
func (c *Config) OpenStore() (KeyValueStore, error) {
	switch c.StoreDriver {
	case DriverRedis:
		return NewRedisStore(c.RedisAddr, c.RedisDB, c.RedisPrefix)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return NewSQLiteStore(c.StorePath)
	}
}

// FrameSource returns the configured live camera. The snapshot command wins
// over the snapshot file.
func (c *Config) FrameSource() (FrameSource, error) {
	if len(c.CameraCommand) > 0 {
		return NewCommandSource(c.CameraCommand), nil
	}
	if c.CameraFile != "" {
		return &FileSource{Path: c.CameraFile}, nil
	}
	return nil, fmt.Errorf("set %s or %s: %w", KeyCameraCommand, KeyCameraFile, ErrNoLiveFrame)
}

// BaseURL returns the API base URL with a guaranteed trailing slash
func (c *Config) BaseURL() string {
	if strings.HasSuffix(c.APIBaseURL, "/") {
		return c.APIBaseURL
	}
	return c.APIBaseURL + "/"
}
