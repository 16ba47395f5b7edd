package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"murmur/internal/deps"
	"murmur/internal/preflight"
)

var errStatusFailed = errors.New("status checks failed")

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check external tools, directories, and the link source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string
			failed := false

			lines = append(lines, renderSectionHeader("Session", colorize))
			if ctx.configPath != "" {
				lines = append(lines, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			}
			lines = append(lines, renderStatusLine("Engine", statusInfo,
				fmt.Sprintf("%s, %d players", cfg.Playback.Engine, cfg.Playback.Players), colorize))
			lines = append(lines, lockStatusLine(cfg.LockPath(), colorize))

			lines = append(lines, "", renderSectionHeader("Dependencies", colorize))
			statuses := preflight.CheckSystemDeps(cfg)
			for _, status := range statuses {
				lines = append(lines, dependencyLine(status, colorize))
			}
			if len(deps.MissingRequired(statuses)) > 0 {
				failed = true
			}

			lines = append(lines, "", renderSectionHeader("Preflight", colorize))
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				lines = append(lines, preflightLine(result, colorize))
			}
			if len(preflight.Failed(results)) > 0 {
				failed = true
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failed {
				return errStatusFailed
			}
			return nil
		},
	}
}

// lockStatusLine probes the single-instance lock without holding it.
func lockStatusLine(path string, colorize bool) string {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return renderStatusLine("Player", statusWarn, err.Error(), colorize)
	}
	if !locked {
		return renderStatusLine("Player", statusInfo, "running", colorize)
	}
	_ = lock.Unlock()
	return renderStatusLine("Player", statusInfo, "idle", colorize)
}
