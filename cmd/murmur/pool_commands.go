package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"murmur/internal/candidate"
	"murmur/internal/config"
	"murmur/internal/linkstore"
)

func newPoolCommand(ctx *commandContext) *cobra.Command {
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Manage the SQLite candidate link pool",
	}
	poolCmd.AddCommand(newPoolImportCommand(ctx))
	poolCmd.AddCommand(newPoolListCommand(ctx))
	poolCmd.AddCommand(newPoolStatsCommand(ctx))
	return poolCmd
}

func newPoolImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import [links.json]",
		Short: "Import a harvester links file into the state database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *linkstore.Store) error {
				path := cfg.Pool.LinksFile
				if len(args) == 1 {
					expanded, err := config.ExpandPath(args[0])
					if err != nil {
						return fmt.Errorf("resolve links path: %w", err)
					}
					path = expanded
				}
				entries, err := candidate.LoadJSON(path)
				if err != nil {
					return err
				}
				result, err := store.Import(cmd.Context(), entries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d links from %s (%d new, %d updated)\n",
					result.Inserted+result.Updated, path, result.Inserted, result.Updated)
				return nil
			})
		},
	}
}

func newPoolListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored links, most seen first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *linkstore.Store) error {
				links, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(links))
				for _, l := range links {
					rows = append(rows, []string{
						l.URL,
						strconv.FormatUint(l.Seen, 10),
						strconv.FormatUint(l.Visited, 10),
						strconv.Itoa(l.Plays),
						formatTimestamp(l.LastPlayed),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), tableSpec{
					headers: []string{"Link", "Seen", "Visited", "Plays", "Last played"},
					aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
					empty:   "No links stored; run `murmur pool import` first",
				}.render(rows))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to show (0 for all)")
	return cmd
}

func newPoolStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the stored pool and play history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *linkstore.Store) error {
				summary, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFields("Link pool", [][2]string{
					{"Links", strconv.Itoa(summary.Links)},
					{"Links played", strconv.Itoa(summary.PlayedLinks)},
					{"Plays", strconv.Itoa(summary.Plays)},
					{"Max seen", strconv.FormatUint(summary.MaxSeen, 10)},
					{"Max visited", strconv.FormatUint(summary.MaxVisited, 10)},
					{"Last played", formatTimestamp(summary.LastPlayed)},
				}))
				return nil
			})
		},
	}
}
