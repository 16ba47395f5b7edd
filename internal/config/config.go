package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Pool sources.
const (
	PoolSourceJSON   = "json"
	PoolSourceSQLite = "sqlite"
)

// Audio engines.
const (
	EngineSpeaker = "speaker"
	EngineNull    = "null"
)

// Clip audio formats the speaker engine can decode.
const (
	AudioFormatFLAC = "flac"
	AudioFormatWAV  = "wav"
)

// Slot selection policies.
const (
	SlotPolicyOldest = "oldest"
	SlotPolicyRandom = "random"
)

// Paths contains directory configuration.
type Paths struct {
	ClipDir  string `toml:"clip_dir"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Pool selects where the candidate link pool is read from at startup.
type Pool struct {
	Source    string `toml:"source"`
	LinksFile string `toml:"links_file"`
}

// Fetch contains configuration for the clip fetch pipeline.
type Fetch struct {
	MinDuration    int     `toml:"min_duration"`
	MaxDuration    int     `toml:"max_duration"`
	MaxConcurrency int     `toml:"max_concurrency"`
	QueueCapacity  int     `toml:"queue_capacity"`
	DownloadDelay  float64 `toml:"download_delay"`

	ResolveTimeout   int `toml:"resolve_timeout"`
	TranscodeTimeout int `toml:"transcode_timeout"`
	ThumbnailTimeout int `toml:"thumbnail_timeout"`

	AudioFormat   string `toml:"audio_format"`
	YTDLPBinary   string `toml:"ytdlp_binary"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Playback contains configuration for the rotation scheduler and audio engine.
type Playback struct {
	Players    int    `toml:"players"`
	Engine     string `toml:"engine"`
	SlotPolicy string `toml:"slot_policy"`

	FadeSeconds   float64 `toml:"fade_seconds"`
	AttackSeconds float64 `toml:"attack_seconds"`
	ReleaseRatio  float64 `toml:"release_ratio"`
	SpeedMin      float64 `toml:"speed_min"`
	SpeedMax      float64 `toml:"speed_max"`

	// PacingScale and PacingFloor shape the delay between dispatches:
	// ((duration - min_duration) / max_duration) * scale + floor.
	PacingScale  float64 `toml:"pacing_scale"`
	PacingFloor  float64 `toml:"pacing_floor"`
	IdleInterval float64 `toml:"idle_interval"`

	SampleRate      int  `toml:"sample_rate"`
	BufferMillis    int  `toml:"buffer_ms"`
	ExitWhenDrained bool `toml:"exit_when_drained"`

	// LowShelfHz and LowShelfGainDB shape the mix bus; a zero gain disables the shelf.
	LowShelfHz     float64 `toml:"low_shelf_hz"`
	LowShelfGainDB float64 `toml:"low_shelf_gain_db"`
}

// Thumbnail contains configuration for the now-playing image transitions.
type Thumbnail struct {
	Enabled           bool    `toml:"enabled"`
	OutputPath        string  `toml:"output_path"`
	TransitionSeconds float64 `toml:"transition_seconds"`
	FrameRate         int     `toml:"frame_rate"`
	// BlurRadius softens each thumbnail with a box blur before it is shown; 0 disables.
	BlurRadius        int     `toml:"blur_radius"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for murmur.
//
// Configuration sections by subsystem:
//   - Paths: clip scratch space, state database, and logs
//   - Pool: candidate link pool source
//   - Fetch: clip acquisition (durations, concurrency, back-pressure, tools)
//   - Playback: slots, crossfades, pacing, and the audio engine
//   - Thumbnail: optional now-playing image transitions
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Pool      Pool      `toml:"pool"`
	Fetch     Fetch     `toml:"fetch"`
	Playback  Playback  `toml:"playback"`
	Thumbnail Thumbnail `toml:"thumbnail"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPathTemplate)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPathTemplate)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a playback session writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ClipDir, c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Thumbnail.Enabled {
		if err := os.MkdirAll(filepath.Dir(c.Thumbnail.OutputPath), 0o755); err != nil {
			return fmt.Errorf("create thumbnail directory: %w", err)
		}
	}
	return nil
}

// LockPath is the single-instance lock guarding the audio device.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, defaultLockFileName)
}

// DatabasePath is the SQLite file holding the link pool and dispatch history.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, defaultStateDatabaseName)
}

// RunLogPath returns the per-run log file for runID.
func (c *Config) RunLogPath(runID string) string {
	return filepath.Join(c.Paths.LogDir, defaultRunLogFilePrefix+runID+defaultRunLogFileExtension)
}

// RunLogPattern matches every per-run log file, for retention sweeps.
func (c *Config) RunLogPattern() string {
	return defaultRunLogFilePrefix + "*" + defaultRunLogFileExtension
}

// DownloadDelayDuration returns the upper bound of the pre-fetch jitter.
func (f Fetch) DownloadDelayDuration() time.Duration {
	return secondsToDuration(f.DownloadDelay)
}

// ResolveTimeoutDuration bounds one metadata lookup.
func (f Fetch) ResolveTimeoutDuration() time.Duration {
	return time.Duration(f.ResolveTimeout) * time.Second
}

// TranscodeTimeoutDuration bounds one ffmpeg trim.
func (f Fetch) TranscodeTimeoutDuration() time.Duration {
	return time.Duration(f.TranscodeTimeout) * time.Second
}

// ThumbnailTimeoutDuration bounds one thumbnail download.
func (f Fetch) ThumbnailTimeoutDuration() time.Duration {
	return time.Duration(f.ThumbnailTimeout) * time.Second
}

// FadeDuration is the fade-out and fade-in window of one crossfade.
func (p Playback) FadeDuration() time.Duration {
	return secondsToDuration(p.FadeSeconds)
}

// AttackDuration is the envelope attack applied to every clip.
func (p Playback) AttackDuration() time.Duration {
	return secondsToDuration(p.AttackSeconds)
}

// PacingFloorDuration is the constant part of the inter-dispatch delay.
func (p Playback) PacingFloorDuration() time.Duration {
	return secondsToDuration(p.PacingFloor)
}

// IdleDuration is the delay before the next tick when nothing was dispatched.
func (p Playback) IdleDuration() time.Duration {
	return secondsToDuration(p.IdleInterval)
}

// BufferDuration is the speaker buffer length.
func (p Playback) BufferDuration() time.Duration {
	return time.Duration(p.BufferMillis) * time.Millisecond
}

// TransitionDuration is the length of one thumbnail cross-dissolve.
func (t Thumbnail) TransitionDuration() time.Duration {
	return secondsToDuration(t.TransitionSeconds)
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
