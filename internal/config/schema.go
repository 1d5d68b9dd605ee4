package config

import (
	"fmt"
	"strings"
)

// Storage backends.
const (
	BackendCDN   = "cdn"
	BackendS3    = "s3"
	BackendLocal = "local"
)

// Config is the top-level gameshelf configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Plans     map[string]int  `mapstructure:"plans" yaml:"plans"`
	Scan      ScanConfig      `mapstructure:"scan" yaml:"scan"`
	Reconcile ReconcileConfig `mapstructure:"reconcile" yaml:"reconcile"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// DatabaseConfig locates the metadata store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// StorageConfig selects and configures the blob store.
type StorageConfig struct {
	Backend  string      `mapstructure:"backend" yaml:"backend"`
	Root     string      `mapstructure:"root" yaml:"root"` // root folder every key lives under
	PageSize int         `mapstructure:"page_size" yaml:"page_size"`
	CDN      CDNConfig   `mapstructure:"cdn" yaml:"cdn"`
	S3       S3Config    `mapstructure:"s3" yaml:"s3"`
	Local    LocalConfig `mapstructure:"local" yaml:"local"`
}

// CDNConfig holds media CDN API settings.
type CDNConfig struct {
	Cloud        string `mapstructure:"cloud" yaml:"cloud"`
	APIBase      string `mapstructure:"api_base" yaml:"api_base"`
	APIKeyEnv    string `mapstructure:"api_key_env" yaml:"api_key_env"`
	APISecretEnv string `mapstructure:"api_secret_env" yaml:"api_secret_env"`
	APIKey       string `mapstructure:"-" yaml:"-"` // resolved at runtime, never written
	APISecret    string `mapstructure:"-" yaml:"-"`
}

// S3Config holds S3-compatible bucket settings.
type S3Config struct {
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`
	Bucket       string `mapstructure:"bucket" yaml:"bucket"`
	Region       string `mapstructure:"region" yaml:"region"`
	Secure       bool   `mapstructure:"secure" yaml:"secure"`
	PublicURL    string `mapstructure:"public_url" yaml:"public_url"`
	AccessKeyEnv string `mapstructure:"access_key_env" yaml:"access_key_env"`
	SecretKeyEnv string `mapstructure:"secret_key_env" yaml:"secret_key_env"`
	AccessKey    string `mapstructure:"-" yaml:"-"`
	SecretKey    string `mapstructure:"-" yaml:"-"`
}

// LocalConfig holds filesystem store settings.
type LocalConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir"`
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`
}

// ScanConfig tunes the orphan scanners.
type ScanConfig struct {
	Ignore []string `mapstructure:"ignore" yaml:"ignore"` // doublestar patterns matched against keys
}

// ReconcileConfig drives the scheduled reconciler.
type ReconcileConfig struct {
	Schedule    string `mapstructure:"schedule" yaml:"schedule"`
	Apply       bool   `mapstructure:"apply" yaml:"apply"`
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	LockFile    string `mapstructure:"lock_file" yaml:"lock_file"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// PlanLimit returns the record quota for plan. A negative limit means
// unlimited. Unknown plans report ok=false.
func (c *Config) PlanLimit(plan string) (limit int, ok bool) {
	limit, ok = c.Plans[strings.ToLower(plan)]
	return limit, ok
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	s := c.Storage
	if strings.Trim(s.Root, "/") == "" {
		return fmt.Errorf("storage.root must not be empty")
	}
	if s.PageSize <= 0 {
		return fmt.Errorf("storage.page_size must be positive, got %d", s.PageSize)
	}

	switch s.Backend {
	case BackendCDN:
		if s.CDN.Cloud == "" {
			return fmt.Errorf("storage.cdn.cloud is required")
		}
		if s.CDN.APIKey == "" || s.CDN.APISecret == "" {
			return fmt.Errorf("CDN credentials missing: set %s and %s", s.CDN.APIKeyEnv, s.CDN.APISecretEnv)
		}
	case BackendS3:
		if s.S3.Endpoint == "" || s.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.endpoint and storage.s3.bucket are required")
		}
		if s.S3.AccessKey == "" || s.S3.SecretKey == "" {
			return fmt.Errorf("S3 credentials missing: set %s and %s", s.S3.AccessKeyEnv, s.S3.SecretKeyEnv)
		}
	case BackendLocal:
		if s.Local.Dir == "" {
			return fmt.Errorf("storage.local.dir is required")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (want %s, %s or %s)", s.Backend, BackendCDN, BackendS3, BackendLocal)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
