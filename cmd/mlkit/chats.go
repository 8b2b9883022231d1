package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(chatsCmd)
}

var chatsCmd = &cobra.Command{
	Use:          "chats",
	Short:        "List group chats the configured bot is a member of.",
	RunE:         runChats,
	SilenceUsage: true,
}

func runChats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	chats, err := service.ListGroupChats(ctx)
	if err != nil {
		return err
	}
	for _, chatID := range chats {
		fmt.Println(chatID)
	}
	return nil
}
