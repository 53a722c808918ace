package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/flemzord/sealdrop/internal/history"
	"github.com/flemzord/sealdrop/pkg/app"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent deliveries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				recs, err := rt.History.Recent(ctx, limit)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No deliveries yet")
					return nil
				}
				renderHistory(cmd, recs)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")
	return cmd
}

func renderHistory(cmd *cobra.Command, recs []history.Record) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Finished", "Outcome", "Endpoint", "Size", "Duration", "Title", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, r := range recs {
		detail := r.Error
		if detail == "" {
			detail = r.DetectedMIME
		}
		table.Append([]string{
			r.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			string(r.Outcome),
			r.Endpoint,
			units.BytesSize(float64(r.Size)),
			r.Duration().Round(10 * time.Millisecond).String(),
			r.Title,
			detail,
		})
	}
	table.Render()
	fmt.Fprintln(cmd.OutOrStdout(), strconv.Itoa(len(recs))+" record(s)")
}
