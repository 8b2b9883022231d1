package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:          "delete TASK_ID",
	Short:        "Request the platform to delete a terminal task.",
	Args:         cobra.ExactArgs(1),
	RunE:         runDelete,
	SilenceUsage: true,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	deleted, err := service.DeleteTask(ctx, args[0])
	if err != nil {
		return err
	}
	if !deleted {
		os.Exit(1)
	}
	return nil
}
