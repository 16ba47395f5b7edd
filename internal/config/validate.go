package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePool(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateThumbnail(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePool() error {
	switch c.Pool.Source {
	case PoolSourceJSON, PoolSourceSQLite:
		return nil
	default:
		return fmt.Errorf("pool.source must be %q or %q, got %q", PoolSourceJSON, PoolSourceSQLite, c.Pool.Source)
	}
}

func (c *Config) validateFetch() error {
	if err := ensurePositiveMap(map[string]int{
		"fetch.min_duration":      c.Fetch.MinDuration,
		"fetch.max_duration":      c.Fetch.MaxDuration,
		"fetch.max_concurrency":   c.Fetch.MaxConcurrency,
		"fetch.queue_capacity":    c.Fetch.QueueCapacity,
		"fetch.resolve_timeout":   c.Fetch.ResolveTimeout,
		"fetch.transcode_timeout": c.Fetch.TranscodeTimeout,
		"fetch.thumbnail_timeout": c.Fetch.ThumbnailTimeout,
	}); err != nil {
		return err
	}
	if c.Fetch.MinDuration > c.Fetch.MaxDuration {
		return errors.New("fetch.min_duration must not exceed fetch.max_duration")
	}
	switch c.Fetch.AudioFormat {
	case AudioFormatFLAC, AudioFormatWAV:
	default:
		return fmt.Errorf("fetch.audio_format must be %q or %q, got %q", AudioFormatFLAC, AudioFormatWAV, c.Fetch.AudioFormat)
	}
	return nil
}

func (c *Config) validatePlayback() error {
	p := c.Playback
	if p.Players <= 0 {
		return errors.New("playback.players must be positive")
	}
	switch p.Engine {
	case EngineSpeaker, EngineNull:
	default:
		return fmt.Errorf("playback.engine must be %q or %q, got %q", EngineSpeaker, EngineNull, p.Engine)
	}
	switch p.SlotPolicy {
	case SlotPolicyOldest, SlotPolicyRandom:
	default:
		return fmt.Errorf("playback.slot_policy must be %q or %q, got %q", SlotPolicyOldest, SlotPolicyRandom, p.SlotPolicy)
	}
	if p.FadeSeconds < 0 || p.AttackSeconds < 0 {
		return errors.New("playback.fade_seconds and playback.attack_seconds must be >= 0")
	}
	if p.ReleaseRatio < 0 || p.ReleaseRatio > 1 {
		return errors.New("playback.release_ratio must be between 0 and 1")
	}
	if p.SpeedMin <= 0 || p.SpeedMax < p.SpeedMin {
		return errors.New("playback.speed_min must be positive and not exceed playback.speed_max")
	}
	if p.PacingScale < 0 || p.PacingFloor < 0 {
		return errors.New("playback.pacing_scale and playback.pacing_floor must be >= 0")
	}
	if p.IdleInterval <= 0 {
		return errors.New("playback.idle_interval must be positive")
	}
	if p.LowShelfGainDB != 0 && (p.LowShelfHz <= 0 || p.LowShelfHz >= float64(p.SampleRate)/2) {
		return fmt.Errorf("playback.low_shelf_hz must be between 0 and half of playback.sample_rate, got %v", p.LowShelfHz)
	}
	return nil
}

func (c *Config) validateThumbnail() error {
	if !c.Thumbnail.Enabled {
		return nil
	}
	if c.Thumbnail.TransitionSeconds < 0 {
		return errors.New("thumbnail.transition_seconds must be >= 0")
	}
	if c.Thumbnail.BlurRadius < 0 {
		return errors.New("thumbnail.blur_radius must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
