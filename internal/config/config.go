package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gameshelf", "config.yml")
}

// Path returns the config file in effect: GAMESHELF_CONFIG or the default.
func Path() string {
	if p := os.Getenv("GAMESHELF_CONFIG"); p != "" {
		return p
	}
	return DefaultPath()
}

// Load reads the config from path (or Path() when empty) with the env
// overlay applied. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GAMESHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = Path()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// Not finding the config file is fine, init creates it.
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Credentials come from env only.
	cdn := &cfg.Storage.CDN
	cdn.APIKey = os.Getenv(cdn.APIKeyEnv)
	cdn.APISecret = os.Getenv(cdn.APISecretEnv)
	s3 := &cfg.Storage.S3
	s3.AccessKey = os.Getenv(s3.AccessKeyEnv)
	s3.SecretKey = os.Getenv(s3.SecretKeyEnv)

	cfg.Database.Path = ExpandHome(cfg.Database.Path)
	cfg.Storage.Local.Dir = ExpandHome(cfg.Storage.Local.Dir)
	cfg.Reconcile.LockFile = ExpandHome(cfg.Reconcile.LockFile)

	lower := make(map[string]int, len(cfg.Plans))
	for name, limit := range cfg.Plans {
		lower[strings.ToLower(name)] = limit
	}
	cfg.Plans = lower

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(dataDir(), "gameshelf.db"))

	v.SetDefault("storage.backend", BackendCDN)
	v.SetDefault("storage.root", "gameshelf")
	v.SetDefault("storage.page_size", 500)
	v.SetDefault("storage.cdn.api_key_env", "GAMESHELF_CDN_API_KEY")
	v.SetDefault("storage.cdn.api_secret_env", "GAMESHELF_CDN_API_SECRET")
	v.SetDefault("storage.s3.access_key_env", "GAMESHELF_S3_ACCESS_KEY")
	v.SetDefault("storage.s3.secret_key_env", "GAMESHELF_S3_SECRET_KEY")
	v.SetDefault("storage.s3.secure", true)
	v.SetDefault("storage.local.dir", filepath.Join(dataDir(), "blobs"))
	v.SetDefault("storage.local.public_url", "http://127.0.0.1:8080/media")

	v.SetDefault("plans", map[string]int{
		"free":      25,
		"collector": 500,
		"unlimited": -1,
	})

	v.SetDefault("reconcile.schedule", "@daily")
	v.SetDefault("reconcile.apply", false)
	v.SetDefault("reconcile.metrics_addr", "127.0.0.1:9464")
	v.SetDefault("reconcile.lock_file", filepath.Join(dataDir(), "reconcile.lock"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(cfg)
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func dataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "gameshelf")
}
