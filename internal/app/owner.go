package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/util"
)

func newOwnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage collection owners",
	}
	cmd.AddCommand(
		newOwnerCreateCmd(),
		newOwnerListCmd(),
		newOwnerRenameCmd(),
		newOwnerPlanCmd(),
		newOwnerRemoveCmd(),
	)
	return cmd
}

func newOwnerCreateCmd() *cobra.Command {
	var plan string

	cmd := &cobra.Command{
		Use:   "create <display-name>",
		Short: "Create an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, known := cfg.PlanLimit(plan); !known {
				warn("Plan %q has no configured limit; the free plan's limit applies", plan)
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			owner, err := store.CreateOwner(cmd.Context(), args[0], plan)
			if err != nil {
				return err
			}
			ok("Created owner %s (%s)", color.WhiteString(owner.DisplayName), owner.ID)
			printLine(owner.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&plan, "plan", "free", "Subscription plan")
	return cmd
}

func newOwnerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List owners with their record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			owners, err := store.Owners(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := store.RecordCounts(cmd.Context())
			if err != nil {
				return err
			}
			printLine(renderOwners(owners, counts))
			return nil
		},
	}
}

func renderOwners(owners []catalog.Owner, counts map[string]int) string {
	rows := make([][]string, 0, len(owners))
	for _, o := range owners {
		rows = append(rows, []string{
			o.ID,
			o.DisplayName,
			o.Plan,
			quota(o.Plan, counts[o.ID]),
			util.Ago(o.CreatedAt),
		})
	}
	return util.RenderTable(
		[]string{"ID", "Name", "Plan", "Records", "Created"},
		rows,
		[]util.Align{util.AlignLeft, util.AlignLeft, util.AlignLeft, util.AlignRight, util.AlignLeft},
	)
}

func quota(plan string, n int) string {
	limit, known := cfg.PlanLimit(plan)
	if !known || limit < 0 {
		return util.Count(n)
	}
	return fmt.Sprintf("%s/%s", util.Count(n), util.Count(limit))
}

func newOwnerRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <owner-id> <display-name>",
		Short: "Change an owner's display name",
		Long: `Change an owner's display name.

Stored assets keep their locators. New uploads land in a folder named after
the new display name; the scanners recognise the old folder by its owner id
suffix and never treat it as an orphan.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.RenameOwner(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			ok("Renamed %s to %q", args[0], args[1])
			return nil
		},
	}
}

func newOwnerPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <owner-id> <plan>",
		Short: "Change an owner's plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, known := cfg.PlanLimit(args[1]); !known {
				warn("Plan %q has no configured limit; the free plan's limit applies", args[1])
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetPlan(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			ok("Owner %s is now on plan %s", args[0], args[1])
			return nil
		},
	}
}

func newOwnerRemoveCmd() *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "remove <owner-id>",
		Short: "Remove an owner (records are kept)",
		Long: `Remove an owner.

The owner's records and assets are not deleted. They become orphan records,
which 'gameshelf orphans records' reports and removes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			owner, err := store.Owner(ctx, args[0])
			if err != nil {
				return err
			}
			n, err := store.CountByOwner(ctx, owner.ID)
			if err != nil {
				return err
			}

			if err := confirmApply(cmd, skipConfirm, confirmation(
				fmt.Sprintf("Remove owner %s", owner.DisplayName),
				[]string{fmt.Sprintf("%d record(s) will be left without an owner", n)},
			)); err != nil {
				return err
			}

			if err := store.DeleteOwner(ctx, owner.ID); err != nil {
				return err
			}
			ok("Removed owner %s", owner.ID)
			if n > 0 {
				warn("%d record(s) are now orphaned; run 'gameshelf orphans records'", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation")
	return cmd
}
