package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"murmur/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Create or check the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the sample configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configTarget(targetPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(target); err == nil && !overwrite {
				return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check config path: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(cmd.OutOrStdout(), "Set [pool] links_file to your harvester's links.json, then run `murmur status`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the file (default ~/.config/murmur/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func configTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		return config.ExpandPath(target)
	}
	return config.DefaultConfigPath()
}

// newConfigValidateCommand loads the file itself so parse and validation
// errors are reported here rather than by the root pre-run hook.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlagValue())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			source := path
			if !exists {
				source = path + " (missing, defaults used)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderFields("Configuration", [][2]string{
				{"File", source},
				{"Pool", cfg.Pool.Source + " " + poolLocation(cfg)},
				{"Clip length", fmt.Sprintf("%d-%ds", cfg.Fetch.MinDuration, cfg.Fetch.MaxDuration)},
				{"Fetch workers", strconv.Itoa(cfg.Fetch.MaxConcurrency)},
				{"Queue capacity", strconv.Itoa(cfg.Fetch.QueueCapacity)},
				{"Players", strconv.Itoa(cfg.Playback.Players)},
				{"Engine", cfg.Playback.Engine},
				{"Slot policy", cfg.Playback.SlotPolicy},
			}))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func poolLocation(cfg *config.Config) string {
	if cfg.Pool.Source == config.PoolSourceSQLite {
		return cfg.DatabasePath()
	}
	return cfg.Pool.LinksFile
}
