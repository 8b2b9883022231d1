package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/viant/mlkit/service/platform"
)

var (
	tasksPage int
	tasksSize int
	tasksName string
)

func init() {
	rootCmd.AddCommand(tasksCmd)
	flags := tasksCmd.Flags()
	flags.IntVar(&tasksPage, "page", 0, "Page number.")
	flags.IntVar(&tasksSize, "size", 0, "Page size.")
	flags.StringVar(&tasksName, "name", "", "Filter tasks by name.")
}

var tasksCmd = &cobra.Command{
	Use:          "tasks",
	Short:        "List tasks visible to the caller.",
	RunE:         runTasks,
	SilenceUsage: true,
}

func runTasks(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	tasks, err := service.ListTasks(ctx, &platform.ListQuery{
		PageNumber: tasksPage,
		PageSize:   tasksSize,
		Name:       tasksName,
	})
	if err != nil {
		return err
	}
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tSTATE\tQUEUE\tCREATED")
	for _, status := range tasks {
		created := ""
		if !status.CreateTime.IsZero() {
			created = status.CreateTime.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			status.ID, status.Name, colorState(status.State), status.ResourceQueueID, created)
	}
	return writer.Flush()
}
