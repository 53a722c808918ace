package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/flemzord/sealdrop/internal/delivery"
	"github.com/flemzord/sealdrop/pkg/app"
)

func sendCmd() *cobra.Command {
	var (
		title          string
		notificationID int
		auto           bool
		quiet          bool
	)

	cmd := &cobra.Command{
		Use:   "send <file>",
		Short: "Upload a file to the configured chat",
		Long: `Upload a file to the configured Telegram chat.

Videos (mp4, mkv, webm, mov, avi) are sent as videos, audio files (mp3, m4a,
opus, flac, wav, ogg) as audio, anything else as a document. With --auto the
file is only sent when automatic upload is enabled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = filepath.Base(path)
			}
			target := delivery.UploadTarget{Path: path, Title: title, NotificationID: notificationID}

			return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				out := cmd.ErrOrStderr()
				var onProgress delivery.ProgressFunc
				if !quiet {
					onProgress = progressPrinter(out)
				}

				if auto {
					attempted, err := rt.Delivery.AutoDeliver(ctx, target, onProgress)
					if !attempted {
						fmt.Fprintln(cmd.OutOrStdout(), color.Yellow.Sprint("Automatic upload is disabled; nothing sent"))
						return nil
					}
					return report(cmd, target, err)
				}
				return report(cmd, target, rt.Delivery.Deliver(ctx, target, onProgress))
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Title recorded in logs and history (default: file name)")
	cmd.Flags().IntVar(&notificationID, "notification-id", 0, "Caller-side notification identifier")
	cmd.Flags().BoolVar(&auto, "auto", false, "Only send when automatic upload is enabled")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print upload progress")
	return cmd
}

func report(cmd *cobra.Command, target delivery.UploadTarget, err error) error {
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr())
		return fmt.Errorf("%s: %w", target.Title, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	fmt.Fprintln(cmd.OutOrStdout(), color.Green.Sprintf("✅ %s sent to Telegram", target.Title))
	return nil
}

// progressPrinter redraws a single progress line on w.
func progressPrinter(w io.Writer) delivery.ProgressFunc {
	return func(percent int) {
		const width = 30
		filled := percent * width / 100
		bar := make([]byte, width)
		for i := range bar {
			if i < filled {
				bar[i] = '#'
			} else {
				bar[i] = '.'
			}
		}
		fmt.Fprintf(w, "\rUploading [%s] %3d%%", bar, percent)
	}
}
