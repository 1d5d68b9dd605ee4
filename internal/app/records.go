package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/locator"
	"github.com/blackwell-systems/gameshelf/internal/media"
)

func newAddCmd() *cobra.Command {
	var (
		req    media.CreateRequest
		assets assetFlags
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a game record with its artwork",
		Long: `Add a game record and upload its artwork.

Files are uploaded first. If the record then fails validation, exceeds the
owner's plan or cannot be saved, every file this command uploaded is deleted
again.

Examples:
  gameshelf add --owner <id> --title "Chrono Trigger" --platform SNES \
    --cover ct-front.jpg --back-cover ct-back.jpg --screenshot s1.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			files, closeFiles, err := assets.open(cmd.Context())
			defer closeFiles()
			if err != nil {
				return err
			}
			req.Assets = files

			if n := files.Count(); n > 0 {
				header("Uploading %d file(s) …", n)
			}
			rec, err := media.NewCoordinator(rt.deps()).Create(cmd.Context(), req)
			if err != nil {
				return mediaErr(err)
			}
			ok("Added %s (%s)", color.WhiteString(rec.Title), rec.ID)
			printLine(renderRecord(rec, rt.codec))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.OwnerID, "owner", "", "Owner id (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Game title (required)")
	cmd.Flags().StringVar(&req.Platform, "platform", "", "Platform (required)")
	cmd.Flags().StringVar(&req.Publisher, "publisher", "", "Publisher")
	cmd.Flags().IntVar(&req.ReleaseYear, "year", 0, "Release year")
	assets.register(cmd)
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newEditCmd() *cobra.Command {
	var (
		title, platform, publisher string
		year                       int
		ifVersion                  int64
		assets                     assetFlags
	)

	cmd := &cobra.Command{
		Use:   "edit <record-id>",
		Short: "Change a record's fields or artwork",
		Long: `Change a record's fields or artwork.

A new cover or back cover replaces the old one, which is deleted once the
record is saved. Screenshots are appended; beyond six the oldest drop off.

The update only succeeds if the record was not changed concurrently. Pass
--if-version to pin the version you last saw.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := media.UpdateRequest{RecordID: args[0], IfVersion: ifVersion}
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Patch.Title = &title
			}
			if flags.Changed("platform") {
				req.Patch.Platform = &platform
			}
			if flags.Changed("publisher") {
				req.Patch.Publisher = &publisher
			}
			if flags.Changed("year") {
				req.Patch.ReleaseYear = &year
			}

			rt, err := openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			files, closeFiles, err := assets.open(cmd.Context())
			defer closeFiles()
			if err != nil {
				return err
			}
			req.Assets = files

			res, err := media.NewReconciler(rt.deps()).Update(cmd.Context(), req)
			if err != nil {
				return mediaErr(err)
			}
			ok("Updated %s (version %d)", res.Record.ID, res.Record.Version)
			if res.Superseded.Failed > 0 {
				warn("%d replaced file(s) could not be deleted; the orphan scan will pick them up", res.Superseded.Failed)
			}
			if len(res.Dropped) > 0 {
				warn("%d old screenshot(s) dropped from the record", len(res.Dropped))
			}
			printLine(renderRecord(res.Record, rt.codec))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&platform, "platform", "", "New platform")
	cmd.Flags().StringVar(&publisher, "publisher", "", "New publisher")
	cmd.Flags().IntVar(&year, "year", 0, "New release year")
	cmd.Flags().Int64Var(&ifVersion, "if-version", 0, "Fail unless the stored version matches")
	assets.register(cmd)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Delete a record and its artwork",
		Long: `Delete a record and its artwork.

The record is removed first. Each file is then deleted independently; files
that cannot be deleted are reported and left for the orphan scan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			rec, err := rt.store.Record(ctx, args[0])
			if err != nil {
				return mediaErr(err)
			}

			printLine(renderRecord(rec, rt.codec))
			if err := confirmApply(cmd, skipConfirm, confirmation(
				fmt.Sprintf("Delete %q (%s)", rec.Title, rec.Platform),
				rec.Locators(),
			)); err != nil {
				return err
			}

			res, err := media.NewReconciler(rt.deps()).Delete(ctx, rec.ID)
			if err != nil {
				return mediaErr(err)
			}
			ok("Deleted %s: %d file(s) removed", rec.ID, res.Deleted)
			if res.Failed > 0 {
				warn("%d file(s) could not be deleted", res.Failed)
			}
			if res.Skipped > 0 {
				warn("%d unresolvable locator(s) skipped", res.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show a record with its decoded locators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Record(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printLine(renderRecord(rec, locator.New(cfg.Storage.Root)))
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		ownerID string
		filter  catalog.Filter
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			ownerIDs := []string{ownerID}
			if ownerID == "" {
				if ownerIDs, err = store.DistinctOwnerIDs(ctx); err != nil {
					return err
				}
			}

			var all []catalog.Record
			for _, id := range ownerIDs {
				recs, err := store.RecordsByOwner(ctx, id)
				if err != nil {
					return err
				}
				all = append(all, recs...)
			}

			matched := filter.Apply(all)
			printLine(renderRecords(matched))
			header("%d record(s)", len(matched))
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerID, "owner", "", "Only this owner's records")
	cmd.Flags().StringVar(&filter.Platform, "platform", "", "Only this platform")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Match title or publisher")
	return cmd
}
