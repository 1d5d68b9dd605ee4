package tui

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gameshelf/internal/util"
)

// ShouldPrompt returns true if the command may ask for confirmation
// interactively. Prompting is enabled when:
// - stdin and stdout are terminals
// - --no-interactive flag is not set
func ShouldPrompt(cmd *cobra.Command) bool {
	if !util.IsInteractive() {
		return false
	}

	noInteractive, _ := cmd.Flags().GetBool("no-interactive")
	return !noInteractive
}
