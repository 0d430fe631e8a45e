package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jameskraus/nab/pkg/journal"
	"github.com/jameskraus/nab/pkg/mutate"
)

var (
	removeDryRun bool
	removeWait   bool
)

// removeCmd represents the remove command.
var removeCmd = &cobra.Command{
	Use:   "remove <transaction-id>...",
	Short: "Delete one or more transactions",
	Long: `Delete one or more transactions.

A full snapshot of each transaction is journaled before deletion, so
"nab undo" can recreate an equivalent transaction (the service assigns a
new id on restore).

Example:
  nab remove tx-1
  nab remove tx-1 tx-2 --dry-run`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRemove,
}

func init() {
	removeCmd.Flags().BoolVar(&removeDryRun, "dry-run", false, "show what would be deleted without writing")
	removeCmd.Flags().BoolVar(&removeWait, "wait-for-cooldown", false, "block on rate limits instead of failing")
}

func runRemove(cmd *cobra.Command, args []string) {
	a := newApp(removeWait)
	defer a.Close()

	slog.Info("removing transactions", "ids", args, "dry_run", removeDryRun)

	results, err := a.service.Delete(context.Background(), args, mutate.Options{DryRun: removeDryRun})
	printResults(results)
	exitOnError(err, "remove aborted")

	if removeDryRun {
		return
	}

	action := journal.BuildAction(journal.ActionRemove, commandLine(), results)
	if action == nil {
		fmt.Println("nothing to do")
		return
	}
	exitOnError(a.store.Record(context.Background(), action), "failed to journal removal")
	fmt.Printf("journaled as %s\n", action.ID)
}
