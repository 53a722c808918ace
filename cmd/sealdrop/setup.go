package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/pkg/app"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactively configure the bot token and chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				return runSetup(ctx, cmd, rt)
			})
		},
	}
}

func runSetup(ctx context.Context, cmd *cobra.Command, rt *app.Runtime) error {
	current := prefs.Load(rt.Prefs)
	token := current.BotToken
	chatID := current.ChatID
	enable := current.UploadEnabled
	runTest := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bot token").
				Description("From @BotFather, e.g. 123456:ABC-DEF...").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(requireValue("bot token")),
			huh.NewInput().
				Title("Chat ID").
				Description("Numeric id of the user, group or channel").
				Value(&chatID).
				Validate(requireValue("chat id")),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Upload completed downloads automatically?").
				Value(&enable),
			huh.NewConfirm().
				Title("Send a test message now?").
				Value(&runTest),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), "Setup cancelled; nothing changed")
			return nil
		}
		return err
	}

	settings := prefs.NewSettings(rt.Prefs)
	if err := settings.SetBotToken(strings.TrimSpace(token)); err != nil {
		return err
	}
	if err := settings.SetChatID(strings.TrimSpace(chatID)); err != nil {
		return err
	}
	if err := settings.SetUploadEnabled(enable); err != nil {
		return err
	}
	rt.SyncSecrets()
	fmt.Fprintln(cmd.OutOrStdout(), color.Green.Sprint("✅ Preferences saved"))

	if !runTest {
		return nil
	}
	if err := rt.Delivery.TestConfigured(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), color.Green.Sprint("✅ Connected: the test message was sent"))
	return nil
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
