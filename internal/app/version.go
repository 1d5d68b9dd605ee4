package app

import (
	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion records the build version reported by `gameshelf version`.
func SetVersion(v string) {
	appVersion = v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gameshelf version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printLine("gameshelf " + appVersion)
		},
	}
}
