package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jameskraus/nab/pkg/revert"
)

var (
	undoDryRun bool
	undoWait   bool
)

// undoCmd represents the undo command.
var undoCmd = &cobra.Command{
	Use:   "undo <action-id>",
	Short: "Revert a journaled action",
	Long: `Revert a journaled action by replaying its inverse patches.

The revert is journaled as a new action with freshly computed inverses,
so it can itself be undone. Restored deletions come back under new ids;
the id mapping is printed.

Example:
  nab undo 4f6b1c3a-...
  nab undo 4f6b1c3a-... --dry-run`,
	Args: cobra.ExactArgs(1),
	Run:  runUndo,
}

func init() {
	undoCmd.Flags().BoolVar(&undoDryRun, "dry-run", false, "show what would change without writing")
	undoCmd.Flags().BoolVar(&undoWait, "wait-for-cooldown", false, "block on rate limits instead of failing")
}

func runUndo(cmd *cobra.Command, args []string) {
	a := newApp(undoWait)
	defer a.Close()

	actionID := args[0]
	slog.Info("reverting action", "action", actionID, "dry_run", undoDryRun)

	outcome, err := a.engine.Revert(context.Background(), actionID, revert.Options{DryRun: undoDryRun})
	if outcome != nil {
		printResults(outcome.Results)
		for original, created := range outcome.Remap {
			fmt.Printf("restored %s as %s\n", original, created)
		}
		if outcome.Action != nil {
			fmt.Printf("journaled as %s\n", outcome.Action.ID)
		}
	}
	exitOnError(err, "undo failed")
}
