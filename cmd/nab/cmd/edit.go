package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jameskraus/nab/pkg/journal"
	"github.com/jameskraus/nab/pkg/mutate"
	"github.com/jameskraus/nab/pkg/ynab"
)

var (
	editMemo          string
	editClearMemo     bool
	editPayee         string
	editClearPayee    bool
	editCategory      string
	editClearCategory bool
	editFlag          string
	editClearFlag     bool
	editCleared       string
	editApprove       bool
	editUnapprove     bool
	editAmount        int64
	editDate          string
	editDryRun        bool
	editWait          bool
)

// editCmd represents the edit command.
var editCmd = &cobra.Command{
	Use:   "edit <transaction-id>...",
	Short: "Apply a field patch to one or more transactions",
	Long: `Apply a sparse field patch to one or more transactions.

Each transaction is fetched first; fields that already hold the desired
value are dropped, so re-running an edit is a no-op. Applied changes are
journaled with their inverse and can be undone with "nab undo".

Example:
  nab edit tx-1 tx-2 --memo "team lunch" --approve
  nab edit tx-3 --clear-category --flag red --dry-run`,
	Args: cobra.MinimumNArgs(1),
	Run:  runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editMemo, "memo", "", "set the memo")
	editCmd.Flags().BoolVar(&editClearMemo, "clear-memo", false, "clear the memo")
	editCmd.Flags().StringVar(&editPayee, "payee", "", "set the payee name")
	editCmd.Flags().BoolVar(&editClearPayee, "clear-payee", false, "clear the payee name")
	editCmd.Flags().StringVar(&editCategory, "category", "", "set the category id")
	editCmd.Flags().BoolVar(&editClearCategory, "clear-category", false, "uncategorize")
	editCmd.Flags().StringVar(&editFlag, "flag", "", "set the flag color")
	editCmd.Flags().BoolVar(&editClearFlag, "clear-flag", false, "remove the flag")
	editCmd.Flags().StringVar(&editCleared, "cleared", "", "set cleared state (cleared|uncleared|reconciled)")
	editCmd.Flags().BoolVar(&editApprove, "approve", false, "approve the transaction")
	editCmd.Flags().BoolVar(&editUnapprove, "unapprove", false, "unapprove the transaction")
	editCmd.Flags().Int64Var(&editAmount, "amount", 0, "set the amount in milliunits")
	editCmd.Flags().StringVar(&editDate, "date", "", "set the date (YYYY-MM-DD)")
	editCmd.Flags().BoolVar(&editDryRun, "dry-run", false, "show what would change without writing")
	editCmd.Flags().BoolVar(&editWait, "wait-for-cooldown", false, "block on rate limits instead of failing")
}

// buildEditPatch assembles the patch from the flags that were set.
func buildEditPatch(cmd *cobra.Command) (ynab.Patch, error) {
	var patch ynab.Patch

	if editClearMemo {
		patch.Memo = ynab.Null()
	} else if cmd.Flags().Changed("memo") {
		patch.Memo = ynab.String(editMemo)
	}

	if editClearPayee {
		patch.PayeeName = ynab.Null()
	} else if cmd.Flags().Changed("payee") {
		patch.PayeeName = ynab.String(editPayee)
	}

	if editClearCategory {
		patch.CategoryID = ynab.Null()
	} else if cmd.Flags().Changed("category") {
		patch.CategoryID = ynab.String(editCategory)
	}

	if editClearFlag {
		patch.FlagColor = ynab.Null()
	} else if cmd.Flags().Changed("flag") {
		patch.FlagColor = ynab.String(editFlag)
	}

	if cmd.Flags().Changed("cleared") {
		patch.Cleared = &editCleared
	}

	if editApprove && editUnapprove {
		return patch, fmt.Errorf("--approve and --unapprove are mutually exclusive")
	}
	if editApprove || editUnapprove {
		approved := editApprove
		patch.Approved = &approved
	}

	if cmd.Flags().Changed("amount") {
		patch.Amount = &editAmount
	}
	if cmd.Flags().Changed("date") {
		patch.Date = &editDate
	}

	return patch, nil
}

func runEdit(cmd *cobra.Command, args []string) {
	patch, err := buildEditPatch(cmd)
	exitOnError(err, "invalid flags")

	a := newApp(editWait)
	defer a.Close()

	slog.Info("applying patch", "ids", args, "fields", patch.FieldNames(), "dry_run", editDryRun)

	results, err := a.service.ApplyPatch(context.Background(), args, patch, mutate.Options{DryRun: editDryRun})
	printResults(results)
	exitOnError(err, "edit aborted")

	if editDryRun {
		return
	}

	action := journal.BuildAction(journal.ActionEdit, commandLine(), results)
	if action == nil {
		fmt.Println("nothing to do")
		return
	}
	exitOnError(a.store.Record(context.Background(), action), "failed to journal edit")
	fmt.Printf("journaled as %s\n", action.ID)
}

// printResults prints one line per requested id.
func printResults(results []mutate.Result) {
	for _, r := range results {
		switch r.Status {
		case mutate.StatusFailed:
			fmt.Printf("%s\t%s\t%v\n", r.ID, r.Status, r.Err)
		case mutate.StatusDryRun, mutate.StatusUpdated:
			if r.Forward != nil {
				fmt.Printf("%s\t%s\t%v\n", r.ID, r.Status, r.Forward.FieldNames())
			} else {
				fmt.Printf("%s\t%s\n", r.ID, r.Status)
			}
		default:
			fmt.Printf("%s\t%s\n", r.ID, r.Status)
		}
	}
}
