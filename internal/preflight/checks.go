package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"murmur/internal/candidate"
	"murmur/internal/config"
	"murmur/internal/deps"
	"murmur/internal/linkstore"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLinkSource verifies the configured candidate pool can be loaded and
// is not empty.
func CheckLinkSource(ctx context.Context, cfg *config.Config) Result {
	const name = "Link pool"

	switch cfg.Pool.Source {
	case config.PoolSourceSQLite:
		if _, err := os.Stat(cfg.DatabasePath()); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: run 'murmur pool import' first)", cfg.DatabasePath())}
		}
		store, err := linkstore.Open(cfg)
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.DatabasePath(), err)}
		}
		defer store.Close()
		summary, err := store.Stats(ctx)
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.DatabasePath(), err)}
		}
		return linkCountResult(name, cfg.DatabasePath(), summary.Links)
	default:
		entries, err := candidate.LoadJSON(cfg.Pool.LinksFile)
		if err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Pool.LinksFile, err)}
		}
		return linkCountResult(name, cfg.Pool.LinksFile, len(entries))
	}
}

func linkCountResult(name, path string, n int) Result {
	if n == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no links)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d links)", path, n)}
}

// CheckSystemDeps evaluates the external binaries for the given config. Both
// `murmur play` and `murmur status` use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Fetch.YTDLPBinary,
			Description: "Required to resolve links to audio streams",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Fetch.FFmpegBinary,
			Description: "Required to trim clips",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Fetch.FFprobeBinary,
			Description: "Measures clip durations for the headless engine",
			Optional:    cfg.Playback.Engine != config.EngineNull,
		},
	}
	return deps.CheckBinaries(requirements)
}

// thumbnailDir is where now-playing frames are written.
func thumbnailDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Thumbnail.OutputPath)
}
