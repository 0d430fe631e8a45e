package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jameskraus/nab/pkg/journal"
)

var (
	historyLimit int
	historySince string
)

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journaled actions",
	Long: `List journaled actions, most recent first.

Example:
  nab history --limit 10
  nab history --since 2026-01-01`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of actions to list (0 for all)")
	historyCmd.Flags().StringVar(&historySince, "since", "", "only actions on or after this date (YYYY-MM-DD)")
}

func runHistory(cmd *cobra.Command, args []string) {
	a := newApp(false)
	defer a.Close()

	opts := journal.ListOptions{Limit: historyLimit}
	if historySince != "" {
		since, err := time.Parse("2006-01-02", historySince)
		exitOnError(err, "invalid --since date")
		opts.Since = since
	}

	actions, err := a.store.List(context.Background(), opts)
	exitOnError(err, "failed to list actions")

	if len(actions) == 0 {
		fmt.Println("no journaled actions")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tTYPE\tIDS\tCOMMAND")
	for _, action := range actions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			action.ID,
			action.CreatedAt.Local().Format("2006-01-02 15:04"),
			action.Type,
			len(action.Payload.IDs),
			action.Payload.Command,
		)
	}
	w.Flush()
}
