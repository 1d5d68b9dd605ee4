package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/gameshelf/internal/config"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != config.BackendCDN {
		t.Errorf("Backend = %q, want %q", cfg.Storage.Backend, config.BackendCDN)
	}
	if cfg.Storage.PageSize != 500 {
		t.Errorf("PageSize = %d, want 500", cfg.Storage.PageSize)
	}
	if cfg.Reconcile.Schedule != "@daily" {
		t.Errorf("Schedule = %q, want @daily", cfg.Reconcile.Schedule)
	}
	if limit, ok := cfg.PlanLimit("unlimited"); !ok || limit >= 0 {
		t.Errorf("unlimited plan = %d, %v", limit, ok)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
storage:
  backend: s3
  root: /games/
  s3:
    endpoint: minio:9000
    bucket: media
    access_key_env: TEST_S3_AK
    secret_key_env: TEST_S3_SK
scan:
  ignore:
    - "games/samples/**"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_S3_AK", "ak")
	t.Setenv("TEST_S3_SK", "sk")
	t.Setenv("GAMESHELF_STORAGE_PAGE_SIZE", "50")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != config.BackendS3 {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Storage.S3.AccessKey != "ak" || cfg.Storage.S3.SecretKey != "sk" {
		t.Errorf("credentials not resolved from env: %+v", cfg.Storage.S3)
	}
	if cfg.Storage.PageSize != 50 {
		t.Errorf("PageSize = %d, want env override 50", cfg.Storage.PageSize)
	}
	if len(cfg.Scan.Ignore) != 1 {
		t.Errorf("Ignore = %v", cfg.Scan.Ignore)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Storage.Root = "shelf"
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if again.Storage.Root != "shelf" {
		t.Errorf("Root = %q, want shelf", again.Storage.Root)
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	if got := config.ExpandHome("~/x"); got != filepath.Join(home, "x") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := config.ExpandHome("/abs"); got != "/abs" {
		t.Errorf("ExpandHome = %q", got)
	}
}
