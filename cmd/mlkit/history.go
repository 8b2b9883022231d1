package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/viant/mlkit/model/task"
)

var historyLimit int

func init() {
	flags := historyCmd.Flags()
	flags.IntVar(&historyLimit, "limit", 20, "Maximum number of entries to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:          "history",
	Short:        "Show recent task submissions recorded in the local journal.",
	RunE:         runHistory,
	SilenceUsage: true,
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	entries, err := service.History(ctx, historyLimit)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "TIME\tTASK\tNAME\tQUEUE\tSTATE")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			entry.SubmittedAt.Format("2006-01-02 15:04"),
			entry.TaskID,
			entry.Name,
			entry.QueueID,
			colorState(task.State(entry.State)))
	}
	return writer.Flush()
}
