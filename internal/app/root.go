package app

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/config"
	"github.com/blackwell-systems/gameshelf/internal/logging"
	"github.com/blackwell-systems/gameshelf/internal/util"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()

	// out and errOut are swapped by tests.
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	flagNoColor       bool
	flagNoInteractive bool
	flagConfig        string
	flagLogLevel      string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gameshelf",
		Short: "Manage game collections whose artwork lives in an external media store",
		Long: `gameshelf keeps a catalog of game records (title + platform) per owner.

Each record references a cover, a back cover and up to six screenshots held
in a media store (CDN, S3-compatible bucket or a local directory). Record
metadata lives in a local SQLite database.

Destructive batch tools report first and delete only with --apply.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Never prompt; --apply then requires --yes")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/gameshelf/config.yml)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Log.Level
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		logger, err = logging.New(level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	}

	root.AddCommand(
		newInitCmd(),
		newOwnerCmd(),
		newAddCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newShowCmd(),
		newListCmd(),
		newExportCmd(),
		newImportCmd(),
		newOrphansCmd(),
		newReconcileCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Fprintln(out, color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(errOut, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Fprintln(out, color.CyanString(fmt.Sprintf(format, a...)))
}

// printLine writes a plain line.
func printLine(a ...interface{}) {
	fmt.Fprintln(out, a...)
}
