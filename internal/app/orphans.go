package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gameshelf/internal/scan"
	"github.com/blackwell-systems/gameshelf/internal/util"
)

// batchFlags are shared by every destructive batch tool.
type batchFlags struct {
	apply bool
	yes   bool
}

func newOrphansCmd() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Find and remove data no longer referenced",
		Long: `Find and remove orphans left behind by failed or partial operations.

Every subcommand reports first. Nothing is deleted without --apply; on a
terminal --apply asks you to type "delete", elsewhere it also needs --yes.
A listing failure stops the command before anything is deleted.`,
	}
	cmd.PersistentFlags().BoolVar(&flags.apply, "apply", false, "Delete what the report lists")
	cmd.PersistentFlags().BoolVarP(&flags.yes, "yes", "y", false, "Skip confirmation")

	cmd.AddCommand(
		newOrphanFoldersCmd(&flags),
		newOrphanFilesCmd(&flags),
		newOrphanPruneCmd(&flags),
		newOrphanRecordsCmd(&flags),
	)
	return cmd
}

// runBatch opens the runtime, reports, and applies behind the lock and the
// confirmation gate. report returns the rendered report, the items the apply
// step would remove and the apply step itself.
func runBatch(cmd *cobra.Command, flags *batchFlags, title string,
	report func(ctx context.Context, sc *scan.Scanner) (string, []string, func(context.Context) scan.Result, error),
) error {
	rt, err := openRuntime(nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if flags.apply {
		lock, err := util.AcquireLock(cfg.Reconcile.LockFile)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	ctx := cmd.Context()
	rendered, items, apply, err := report(ctx, rt.scanner())
	if err != nil {
		return err
	}
	printLine(rendered)

	if !flags.apply {
		header("Dry run: rerun with --apply to delete")
		return nil
	}
	if len(items) == 0 {
		ok("Nothing to delete")
		return nil
	}

	if err := confirmApply(cmd, flags.yes, confirmation(fmt.Sprintf(title, len(items)), items)); err != nil {
		return err
	}

	res := apply(ctx)
	printLine(renderResults(res))
	if res.Err != nil {
		warn("%d deletion(s) failed: %v", res.Failed, res.Err)
		return nil
	}
	ok("Deleted %d of %d", res.Deleted, res.Attempted)
	return nil
}

func newOrphanFoldersCmd(flags *batchFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "Owner folders with no matching owner",
		Long: `List the owner folders under the storage root and report those that
belong to no current owner. A folder ending in an existing owner's id is a
renamed owner's folder and is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, flags, "Delete %d orphan folder(s) and their contents",
				func(ctx context.Context, sc *scan.Scanner) (string, []string, func(context.Context) scan.Result, error) {
					report, err := sc.Folders(ctx)
					if err != nil {
						return "", nil, nil, err
					}
					items := make([]string, 0, len(report.Orphans))
					for _, f := range report.Orphans {
						items = append(items, f.Path)
					}
					return renderFolderReport(report), items, func(ctx context.Context) scan.Result {
						return sc.ApplyFolders(ctx, report)
					}, nil
				})
		},
	}
}

func newOrphanFilesCmd(flags *batchFlags) *cobra.Command {
	var (
		global  bool
		compare string
	)

	cmd := &cobra.Command{
		Use:   "files",
		Short: "Stored files no record references",
		Long: `List every stored file and report those no record references.

By default storage keys are compared, so a version change in a locator does
not produce a false orphan. --compare locator matches full locator strings.
--global lists the whole store; unreferenced files outside the root are
reported as misplaced and never deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := scan.ParseCompareMode(compare)
			if err != nil {
				return err
			}
			return runBatch(cmd, flags, "Delete %d orphan file(s)",
				func(ctx context.Context, sc *scan.Scanner) (string, []string, func(context.Context) scan.Result, error) {
					report, err := sc.Files(ctx, scan.FileOptions{Global: global, Compare: mode})
					if err != nil {
						return "", nil, nil, err
					}
					return renderFileReport(report), objectKeys(report.Orphans), func(ctx context.Context) scan.Result {
						return sc.ApplyFiles(ctx, report)
					}, nil
				})
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "Scan the whole store, not just the root folder")
	cmd.Flags().StringVar(&compare, "compare", string(scan.CompareKey), "Comparison: key or locator")
	return cmd
}

func newOrphanPruneCmd(flags *batchFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Empty folders under the storage root",
		Long: `Walk the folder tree under the storage root and report folders that hold
no files. Children are always deleted before their parents; the root itself
is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, flags, "Delete %d empty folder(s)",
				func(ctx context.Context, sc *scan.Scanner) (string, []string, func(context.Context) scan.Result, error) {
					report, err := sc.Prune(ctx)
					if err != nil {
						return "", nil, nil, err
					}
					return renderPruneReport(report), report.Empty, func(ctx context.Context) scan.Result {
						return sc.ApplyPrune(ctx, report)
					}, nil
				})
		},
	}
}

func newOrphanRecordsCmd(flags *batchFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "Records whose owner no longer exists",
		Long: `Report records whose owner no longer exists, and owners without records.
Applying deletes the orphan records only; their files become orphan files
for 'gameshelf orphans files'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, flags, "Delete %d orphan record(s)",
				func(ctx context.Context, sc *scan.Scanner) (string, []string, func(context.Context) scan.Result, error) {
					report, err := sc.Records(ctx)
					if err != nil {
						return "", nil, nil, err
					}
					items := make([]string, 0, len(report.Orphans))
					for _, r := range report.Orphans {
						items = append(items, r.ID)
					}
					return renderRecordReport(report), items, func(ctx context.Context) scan.Result {
						return sc.ApplyRecords(ctx, report)
					}, nil
				})
		},
	}
}
