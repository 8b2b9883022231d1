package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(stopCmd)
}

var stopCmd = &cobra.Command{
	Use:          "stop TASK_ID",
	Short:        "Request the platform to stop a running task.",
	Args:         cobra.ExactArgs(1),
	RunE:         runStop,
	SilenceUsage: true,
}

func runStop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	stopped, err := service.StopTask(ctx, args[0])
	if err != nil {
		return err
	}
	if !stopped {
		os.Exit(1)
	}
	return nil
}
