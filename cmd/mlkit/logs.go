package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var logsLines int

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().IntVar(&logsLines, "lines", 100, "Number of recent log lines to fetch.")
}

var logsCmd = &cobra.Command{
	Use:          "logs TASK_ID",
	Short:        "Print recent container logs of a task.",
	Args:         cobra.ExactArgs(1),
	RunE:         runLogs,
	SilenceUsage: true,
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	lines, err := service.TaskLogs(ctx, args[0], logsLines)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}
