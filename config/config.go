// Package config loads runtime settings with viper: defaults, an optional
// config file, PARTSLEDGER_* environment variables (a .env file in the working
// directory is loaded into the environment first) and bound CLI flags, in
// increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. PARTSLEDGER_DB_PATH.
const EnvPrefix = "PARTSLEDGER"

// Keys shared with the CLI flag bindings.
const (
	KeyEnv         = "env"
	KeyLogLevel    = "log.level"
	KeyDBPath      = "db.path"
	KeyHTTPHost    = "http.host"
	KeyHTTPPort    = "http.port"
	KeyCORSOrigins = "http.cors_origins"
	KeyPageSize    = "api.page_size"

	KeyFlushSchedule   = "store.flush_schedule"
	KeyRebuildSchedule = "store.rebuild_schedule"
)

// MaxPageSize bounds api.page_size and the ?size query parameter.
const MaxPageSize = 100

// Config groups the application settings.
type Config struct {
	Env  string // development, production
	Log  LogConfig
	DB   DBConfig
	HTTP HTTPConfig
	API  APIConfig
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level string
}

// DBConfig locates the SQLite file. ":memory:" keeps everything in RAM.
type DBConfig struct {
	Path string

	// FlushSchedule retries writes the backend rejected earlier (cron spec).
	FlushSchedule string
	// RebuildSchedule periodically reconciles stock; empty disables it.
	RebuildSchedule string
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIConfig holds request-level defaults.
type APIConfig struct {
	PageSize int
}

// New returns a viper instance with defaults and environment lookup set up.
// Callers bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyEnv, "production")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDBPath, "partsledger.db")
	v.SetDefault(KeyHTTPHost, "127.0.0.1")
	v.SetDefault(KeyHTTPPort, 8080)
	v.SetDefault(KeyCORSOrigins, []string{"*"})
	v.SetDefault(KeyPageSize, 10)
	v.SetDefault(KeyFlushSchedule, "@every 30s")
	v.SetDefault(KeyRebuildSchedule, "")
}

// Load reads configFile when given, otherwise an optional partsledger.yaml in
// the working directory, and returns the validated settings.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// A missing .env is normal; the environment may be set directly.
	_ = godotenv.Load()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("partsledger")
		v.AddConfigPath(".")
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Env: getString(v, KeyEnv, "production"),
		Log: LogConfig{
			Level: getString(v, KeyLogLevel, "info"),
		},
		DB: DBConfig{
			Path:            getString(v, KeyDBPath, "partsledger.db"),
			FlushSchedule:   getString(v, KeyFlushSchedule, "@every 30s"),
			RebuildSchedule: strings.TrimSpace(v.GetString(KeyRebuildSchedule)),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, KeyHTTPHost, "127.0.0.1"),
			Port:        getInt(v, KeyHTTPPort, 8080),
			CORSOrigins: getStrings(v, KeyCORSOrigins),
		},
		API: APIConfig{
			PageSize: getInt(v, KeyPageSize, 10),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return errors.New("db.path must not be empty")
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.API.PageSize < 1 || c.API.PageSize > MaxPageSize {
		return fmt.Errorf("api.page_size must be between 1 and %d", MaxPageSize)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	switch val := v.Get(key).(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return -1
		}
		return n
	default:
		return v.GetInt(key)
	}
}

// getStrings accepts a list or a comma-separated string (the env form).
func getStrings(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
