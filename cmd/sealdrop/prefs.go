package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/flemzord/sealdrop/internal/prefs"
	"github.com/flemzord/sealdrop/pkg/app"
)

// prefKeys maps CLI names to setters.
var prefKeys = map[string]func(s *prefs.Settings, value string) error{
	"bot-token": func(s *prefs.Settings, v string) error { return s.SetBotToken(v) },
	"chat-id":   func(s *prefs.Settings, v string) error { return s.SetChatID(v) },
	"upload":    boolSetter((*prefs.Settings).SetUploadEnabled),
	"fast-mode": boolSetter((*prefs.Settings).SetFastMode),
}

func boolSetter(set func(*prefs.Settings, bool) error) func(*prefs.Settings, string) error {
	return func(s *prefs.Settings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		return set(s, b)
	}
}

func prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change stored preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show stored preferences (the bot token is masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(_ context.Context, rt *app.Runtime) error {
				printPrefs(cmd, prefs.Load(rt.Prefs))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <bot-token|chat-id|upload|fast-mode> <value>",
		Short:     "Change a stored preference",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"bot-token", "chat-id", "upload", "fast-mode"},
		RunE: func(cmd *cobra.Command, args []string) error {
			set, ok := prefKeys[args[0]]
			if !ok {
				return fmt.Errorf("unknown preference %q", args[0])
			}
			return withRuntime(cmd, func(_ context.Context, rt *app.Runtime) error {
				if err := set(prefs.NewSettings(rt.Prefs), strings.TrimSpace(args[1])); err != nil {
					return err
				}
				rt.SyncSecrets()
				printPrefs(cmd, prefs.Load(rt.Prefs))
				return nil
			})
		},
	})
	return cmd
}

func printPrefs(cmd *cobra.Command, cfg prefs.DeliveryConfiguration) {
	token := color.Gray.Sprint("(not set)")
	if cfg.BotToken != "" {
		token = prefs.MaskToken(cfg.BotToken)
	}
	chat := color.Gray.Sprint("(not set)")
	if cfg.ChatID != "" {
		chat = cfg.ChatID
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "bot-token  %s\n", token)
	fmt.Fprintf(w, "chat-id    %s\n", chat)
	fmt.Fprintf(w, "upload     %s\n", onOff(cfg.UploadEnabled))
	fmt.Fprintf(w, "fast-mode  %s\n", onOff(cfg.FastModeEnabled))
	if !cfg.Configured() {
		fmt.Fprintln(w, color.Yellow.Sprint("Run `sealdrop setup` to configure the bot token and chat id"))
	}
}

func onOff(b bool) string {
	if b {
		return color.Green.Sprint("on")
	}
	return color.Gray.Sprint("off")
}
