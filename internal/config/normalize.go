package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizePool(); err != nil {
		return err
	}
	c.normalizeFetch()
	if err := c.normalizePlayback(); err != nil {
		return err
	}
	if err := c.normalizeThumbnail(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ClipDir) == "" {
		c.Paths.ClipDir = defaultClipDir
	}
	if c.Paths.ClipDir, err = expandPath(c.Paths.ClipDir); err != nil {
		return fmt.Errorf("paths.clip_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePool() error {
	c.Pool.Source = strings.ToLower(strings.TrimSpace(c.Pool.Source))
	if c.Pool.Source == "" {
		c.Pool.Source = defaultPoolSource
	}
	if value, ok := os.LookupEnv("MURMUR_LINKS_FILE"); ok && strings.TrimSpace(value) != "" {
		c.Pool.LinksFile = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Pool.LinksFile) == "" {
		c.Pool.LinksFile = defaultLinksFile
	}
	var err error
	if c.Pool.LinksFile, err = expandPath(c.Pool.LinksFile); err != nil {
		return fmt.Errorf("pool.links_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeFetch() {
	c.Fetch.AudioFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Fetch.AudioFormat), "."))
	if c.Fetch.AudioFormat == "" {
		c.Fetch.AudioFormat = defaultAudioFormat
	}
	c.Fetch.YTDLPBinary = strings.TrimSpace(c.Fetch.YTDLPBinary)
	if c.Fetch.YTDLPBinary == "" {
		c.Fetch.YTDLPBinary = defaultYTDLPBinary
	}
	c.Fetch.FFmpegBinary = strings.TrimSpace(c.Fetch.FFmpegBinary)
	if c.Fetch.FFmpegBinary == "" {
		c.Fetch.FFmpegBinary = defaultFFmpegBinary
	}
	c.Fetch.FFprobeBinary = strings.TrimSpace(c.Fetch.FFprobeBinary)
	if c.Fetch.FFprobeBinary == "" {
		c.Fetch.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Fetch.DownloadDelay < 0 {
		c.Fetch.DownloadDelay = 0
	}
}

func (c *Config) normalizePlayback() error {
	if value, ok := os.LookupEnv("MURMUR_PLAYERS"); ok && strings.TrimSpace(value) != "" {
		players, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("MURMUR_PLAYERS: %w", err)
		}
		c.Playback.Players = players
	}
	c.Playback.Engine = strings.ToLower(strings.TrimSpace(c.Playback.Engine))
	if c.Playback.Engine == "" {
		c.Playback.Engine = defaultEngine
	}
	c.Playback.SlotPolicy = strings.ToLower(strings.TrimSpace(c.Playback.SlotPolicy))
	if c.Playback.SlotPolicy == "" {
		c.Playback.SlotPolicy = defaultSlotPolicy
	}
	if c.Playback.SampleRate <= 0 {
		c.Playback.SampleRate = defaultSampleRate
	}
	if c.Playback.BufferMillis <= 0 {
		c.Playback.BufferMillis = defaultBufferMillis
	}
	return nil
}

func (c *Config) normalizeThumbnail() error {
	if strings.TrimSpace(c.Thumbnail.OutputPath) == "" {
		c.Thumbnail.OutputPath = defaultThumbnailOutput
	}
	var err error
	if c.Thumbnail.OutputPath, err = expandPath(c.Thumbnail.OutputPath); err != nil {
		return fmt.Errorf("thumbnail.output_path: %w", err)
	}
	if c.Thumbnail.FrameRate <= 0 {
		c.Thumbnail.FrameRate = defaultThumbnailFrameRate
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
