package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"murmur/internal/config"
	"murmur/internal/linkstore"
	"murmur/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently dispatched clips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *linkstore.Store) error {
				plays, err := store.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(plays))
				for _, p := range plays {
					rows = append(rows, []string{
						formatTimestamp(p.PlayedAt),
						strconv.Itoa(p.Slot),
						textutil.DisplayTitle(p.Title, p.Link),
						formatSeconds(p.Effective),
						fmt.Sprintf("%.2f", p.Speed),
						fmt.Sprintf("%.3f", p.Amplitude),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), tableSpec{
					headers: []string{"Played", "Slot", "Title", "Length", "Speed", "Amplitude"},
					aligns:  []columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight},
					empty:   "No plays recorded yet",
				}.render(rows))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to show (0 for all)")
	return cmd
}
