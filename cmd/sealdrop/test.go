package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/flemzord/sealdrop/pkg/app"
)

func testCmd() *cobra.Command {
	var token, chatID string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check the bot token and send a test message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (token == "") != (chatID == "") {
				return errors.New("--token and --chat-id must be given together")
			}
			return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				var err error
				if token == "" {
					err = rt.Delivery.TestConfigured(ctx)
				} else {
					err = rt.Delivery.TestConnection(ctx, token, chatID)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.Green.Sprint("✅ Connected: the test message was sent"))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Bot token to test instead of the stored one")
	cmd.Flags().StringVar(&chatID, "chat-id", "", "Chat id to test instead of the stored one")
	return cmd
}
