package app

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gameshelf/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		backend  string
		root     string
		localDir string
		cloud    string
		endpoint string
		bucket   string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a config file with the defaults filled in.

Credentials are never written: the file names the environment variables
they are read from.

Examples:
  gameshelf init --backend local --local-dir ~/gameshelf-media
  gameshelf init --backend cdn --cloud demo
  gameshelf init --backend s3 --endpoint s3.example.com --bucket games`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = config.Path()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			next := *cfg
			if backend != "" {
				next.Storage.Backend = backend
			}
			if root != "" {
				next.Storage.Root = root
			}
			if localDir != "" {
				next.Storage.Local.Dir = config.ExpandHome(localDir)
			}
			if cloud != "" {
				next.Storage.CDN.Cloud = cloud
			}
			if endpoint != "" {
				next.Storage.S3.Endpoint = endpoint
			}
			if bucket != "" {
				next.Storage.S3.Bucket = bucket
			}

			switch next.Storage.Backend {
			case config.BackendCDN, config.BackendS3, config.BackendLocal:
			default:
				return fmt.Errorf("unknown backend %q", next.Storage.Backend)
			}

			if err := config.Save(path, &next); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			ok("Wrote %s", path)

			if err := next.Validate(); err != nil {
				warn("Config is not usable yet: %v", err)
			}
			switch next.Storage.Backend {
			case config.BackendCDN:
				printLine("Set credentials with:")
				printLine("  " + color.CyanString("export %s=... %s=...", next.Storage.CDN.APIKeyEnv, next.Storage.CDN.APISecretEnv))
			case config.BackendS3:
				printLine("Set credentials with:")
				printLine("  " + color.CyanString("export %s=... %s=...", next.Storage.S3.AccessKeyEnv, next.Storage.S3.SecretKeyEnv))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Storage backend: cdn, s3 or local")
	cmd.Flags().StringVar(&root, "root", "", "Root folder every storage key lives under")
	cmd.Flags().StringVar(&localDir, "local-dir", "", "Directory for the local backend")
	cmd.Flags().StringVar(&cloud, "cloud", "", "CDN cloud name")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "S3 endpoint host")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
