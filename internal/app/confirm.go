package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gameshelf/internal/tui"
)

// maxPromptLines bounds the items listed in a confirmation prompt.
const maxPromptLines = 10

var errNeedsYes = errors.New("refusing to delete without confirmation: pass --yes when not running in a terminal")

// confirmApply gates a destructive step. --yes skips the gate; otherwise a
// terminal prompt must be answered, and without a terminal the step is refused.
func confirmApply(cmd *cobra.Command, yes bool, p tui.ConfirmPrompt) error {
	if yes {
		return nil
	}
	if !tui.ShouldPrompt(cmd) {
		return errNeedsYes
	}
	if err := tui.RunConfirm(p); err != nil {
		if errors.Is(err, tui.ErrCanceled) {
			return fmt.Errorf("aborted")
		}
		return err
	}
	return nil
}

func confirmation(title string, lines []string) tui.ConfirmPrompt {
	if len(lines) > maxPromptLines {
		more := len(lines) - maxPromptLines
		lines = append(lines[:maxPromptLines:maxPromptLines], fmt.Sprintf("… and %d more", more))
	}
	return tui.ConfirmPrompt{Title: title, Lines: lines}
}
