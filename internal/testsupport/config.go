package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"murmur/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The headless engine is selected and fetch jitter is disabled so sessions
// run without an audio device or waits.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ClipDir = filepath.Join(base, "clips")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Pool.LinksFile = filepath.Join(base, "links.json")
	cfgVal.Playback.Engine = config.EngineNull
	cfgVal.Fetch.DownloadDelay = 0
	cfgVal.Thumbnail.OutputPath = filepath.Join(base, "now_playing.jpg")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPlayers overrides the slot count.
func WithPlayers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Playback.Players = n
	}
}

// WithLinks writes content as the harvester links file.
func WithLinks(content string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.WriteFile(b.cfg.Pool.LinksFile, []byte(content), 0o644); err != nil {
			b.t.Fatalf("write links file: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default murmur external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.Fetch.YTDLPBinary, b.cfg.Fetch.FFmpegBinary, b.cfg.Fetch.FFprobeBinary}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ClipDir)
}
