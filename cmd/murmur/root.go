package main

import (
	"github.com/spf13/cobra"
)

const rootLong = `murmur fetches short clips from a pool of media links and layers them
across a fixed number of playback slots, crossfading each slot as new clips
arrive. Louder clips come from links the harvester saw or visited most.`

func newRootCommand() *cobra.Command {
	var (
		configFlag   string
		logLevelFlag string
	)
	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "murmur",
		Short:         "Ambient clip collage player",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newPlayCommand(ctx),
		newPoolCommand(ctx),
		newHistoryCommand(ctx),
		newStatusCommand(ctx),
		newLogsCommand(ctx),
		newConfigCommand(ctx),
	)
	return rootCmd
}
