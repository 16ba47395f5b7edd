package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/config"
	"murmur/internal/session"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var (
		players     int
		engine      string
		linksFile   string
		exitDrained bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Fetch clips and play them until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("players") {
				cfg.Playback.Players = players
			}
			if flags.Changed("engine") {
				cfg.Playback.Engine = engine
			}
			if flags.Changed("links") {
				expanded, err := config.ExpandPath(linksFile)
				if err != nil {
					return fmt.Errorf("resolve links path: %w", err)
				}
				cfg.Pool.Source = config.PoolSourceJSON
				cfg.Pool.LinksFile = expanded
			}
			if flags.Changed("exit-when-drained") {
				cfg.Playback.ExitWhenDrained = exitDrained
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			summary, err := session.Run(cmd.Context(), cfg, session.Options{LogLevel: ctx.logLevel()})
			if errors.Is(err, session.ErrAlreadyRunning) {
				return fmt.Errorf("%w (lock %s)", err, cfg.LockPath())
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderFields("Session "+summary.RunID, [][2]string{
				{"Candidates", fmt.Sprintf("%d", summary.Candidates)},
				{"Fetched", fmt.Sprintf("%d", summary.Fetch.Succeeded)},
				{"Fetch failures", fmt.Sprintf("%d", summary.Fetch.FailedTotal())},
				{"Dispatched", fmt.Sprintf("%d", summary.Dispatched)},
				{"Dropped", fmt.Sprintf("%d", summary.Dropped)},
				{"Files reclaimed", fmt.Sprintf("%d", summary.Reclaimed)},
				{"Elapsed", summary.Elapsed.Round(time.Second).String()},
			}))
			return nil
		},
	}

	cmd.Flags().IntVar(&players, "players", 0, "Override playback.players")
	cmd.Flags().StringVar(&engine, "engine", "", "Override playback.engine (speaker or null)")
	cmd.Flags().StringVar(&linksFile, "links", "", "Read candidates from this harvester JSON file")
	cmd.Flags().BoolVar(&exitDrained, "exit-when-drained", false, "Exit once every candidate has been played")
	return cmd
}
