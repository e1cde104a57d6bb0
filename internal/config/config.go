package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hejijunhao/sawmill/internal/storage"
)

// EnvPrefix is prepended to every environment override, e.g.
// SAWMILL_SERVER_ADDR for server.addr.
const EnvPrefix = "SAWMILL"

// Config holds all sawmill configuration.
type Config struct {
	Engine    EngineConfig
	Connector ConnectorConfig
	Output    OutputConfig
	Server    ServerConfig
	Storage   StorageConfig
	LogLevel  string
}

// EngineConfig extends the built-in severity rules and sizes the worker pool.
type EngineConfig struct {
	ExtraErrorLevels   []string
	ExtraErrorKeywords []string
	Workers            int
	Verbosity          string // "minimal", "standard", "full"
}

// ConnectorConfig holds connector-specific settings.
type ConnectorConfig struct {
	Provider string
	APIKey   string
	Endpoint string
	MaxBytes int64
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	Format           string // "text", "json", "yaml"
	Pretty           bool
	File             string // .jsonl or .csv path; empty disables
	Webhook          string // URL; empty disables
	WebhookBatchSize int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string
	MaxUploadBytes    int64
	Retention         time.Duration // 0 keeps uploads forever
	RetentionSchedule string        // cron spec for the sweep
	CacheTTL          time.Duration
}

// StorageConfig selects where uploads live.
type StorageConfig struct {
	Type     string // "local" or "s3"
	LocalDir string
	S3       storage.S3Config
}

// StoreConfig converts to the storage package's configuration.
func (s StorageConfig) StoreConfig() storage.Config {
	return storage.Config{Type: s.Type, LocalDir: s.LocalDir, S3: s.S3}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("engine.extra_error_levels", []string{})
	v.SetDefault("engine.extra_error_keywords", []string{})
	v.SetDefault("engine.workers", 4)
	v.SetDefault("engine.verbosity", "standard")

	v.SetDefault("connector.provider", "file")
	v.SetDefault("connector.api_key", "")
	v.SetDefault("connector.endpoint", "")
	v.SetDefault("connector.max_bytes", int64(256<<20))

	v.SetDefault("output.format", "text")
	v.SetDefault("output.pretty", false)
	v.SetDefault("output.file", "")
	v.SetDefault("output.webhook", "")
	v.SetDefault("output.webhook_batch_size", 10)

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.max_upload_bytes", int64(100<<20))
	v.SetDefault("server.retention", 24*time.Hour)
	v.SetDefault("server.retention_schedule", "@every 1h")
	v.SetDefault("server.cache_ttl", 10*time.Minute)

	v.SetDefault("storage.type", storage.TypeLocal)
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.bucket", "sawmill")
	v.SetDefault("storage.s3.path_prefix", "uploads")
	v.SetDefault("storage.s3.secure", true)
}

// Load reads configuration from defaults, an optional YAML file at path, and
// SAWMILL_* environment variables, in increasing order of precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Config{
		LogLevel: v.GetString("log_level"),
		Engine: EngineConfig{
			ExtraErrorLevels:   getStrings(v, "engine.extra_error_levels"),
			ExtraErrorKeywords: getStrings(v, "engine.extra_error_keywords"),
			Workers:            v.GetInt("engine.workers"),
			Verbosity:          v.GetString("engine.verbosity"),
		},
		Connector: ConnectorConfig{
			Provider: v.GetString("connector.provider"),
			APIKey:   v.GetString("connector.api_key"),
			Endpoint: v.GetString("connector.endpoint"),
			MaxBytes: v.GetInt64("connector.max_bytes"),
		},
		Output: OutputConfig{
			Format:           v.GetString("output.format"),
			Pretty:           v.GetBool("output.pretty"),
			File:             v.GetString("output.file"),
			Webhook:          v.GetString("output.webhook"),
			WebhookBatchSize: v.GetInt("output.webhook_batch_size"),
		},
		Server: ServerConfig{
			Addr:              v.GetString("server.addr"),
			MaxUploadBytes:    v.GetInt64("server.max_upload_bytes"),
			Retention:         v.GetDuration("server.retention"),
			RetentionSchedule: v.GetString("server.retention_schedule"),
			CacheTTL:          v.GetDuration("server.cache_ttl"),
		},
		Storage: StorageConfig{
			Type:     v.GetString("storage.type"),
			LocalDir: v.GetString("storage.local_dir"),
			S3: storage.S3Config{
				Endpoint:   v.GetString("storage.s3.endpoint"),
				AccessKey:  v.GetString("storage.s3.access_key"),
				SecretKey:  v.GetString("storage.s3.secret_key"),
				Bucket:     v.GetString("storage.s3.bucket"),
				PathPrefix: v.GetString("storage.s3.path_prefix"),
				Secure:     v.GetBool("storage.s3.secure"),
			},
		},
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	if c.Engine.Workers < 1 {
		errs = append(errs, fmt.Errorf("engine.workers must be at least 1, got %d", c.Engine.Workers))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive"))
	}
	if c.Server.Retention < 0 {
		errs = append(errs, fmt.Errorf("server.retention must not be negative"))
	}
	switch c.Storage.Type {
	case storage.TypeLocal:
		if c.Storage.LocalDir == "" {
			errs = append(errs, fmt.Errorf("storage.local_dir is required for local storage"))
		}
	case storage.TypeS3:
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.s3.endpoint and storage.s3.bucket are required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be local or s3, got %q", c.Storage.Type))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// getStrings accepts both YAML lists and comma-separated strings (the
// only form an environment variable can carry).
func getStrings(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}
	out := []string{}
	for _, val := range raw {
		if trim := strings.TrimSpace(val); trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
