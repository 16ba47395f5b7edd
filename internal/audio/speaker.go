package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"murmur/internal/logging"
)

const resampleQuality = 3

// SpeakerEngine plays every slot through the system speaker.
type SpeakerEngine struct {
	sampleRate beep.SampleRate
	buffer     time.Duration
	mixer      *slotMixer
	logger     *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewSpeakerEngine creates an engine with slots voices at sampleRate.
func NewSpeakerEngine(slots, sampleRate int, buffer time.Duration, logger *slog.Logger) *SpeakerEngine {
	return &SpeakerEngine{
		sampleRate: beep.SampleRate(sampleRate),
		buffer:     buffer,
		mixer:      newSlotMixer(slots),
		logger:     logging.NewComponentLogger(logger, "audio"),
	}
}

// SetLowShelf applies a low-shelf EQ of gainDB below freq to the summed
// output. A zero gain removes it.
func (e *SpeakerEngine) SetLowShelf(freq, gainDB float64) {
	e.mixer.setShelf(newLowShelf(float64(e.sampleRate), freq, gainDB))
}

// Start opens the output device and begins streaming the mixer.
func (e *SpeakerEngine) Start(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	if err := speaker.Init(e.sampleRate, e.sampleRate.N(e.buffer)); err != nil {
		return fmt.Errorf("initialize speaker: %w", err)
	}
	speaker.Play(e.mixer)
	e.started = true
	e.logger.Info("audio engine started",
		logging.Int("sample_rate", int(e.sampleRate)),
		logging.Duration("buffer", e.buffer),
		logging.Int("slots", len(e.mixer.voices)),
		logging.String(logging.FieldEventType, "engine_started"),
	)
	return nil
}

// Stop silences output, closes every open decoder, and releases the device.
func (e *SpeakerEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return nil
	}
	speaker.Clear()
	for _, v := range e.mixer.reset() {
		closeVoice(v)
	}
	speaker.Close()
	e.started = false
	e.logger.Debug("audio engine stopped", logging.String(logging.FieldEventType, "engine_stopped"))
	return nil
}

// Duration reads the clip header and returns its length at normal speed.
func (e *SpeakerEngine) Duration(_ context.Context, path string) (time.Duration, error) {
	stream, format, err := decode(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()
	n := stream.Len()
	if n <= 0 {
		return 0, fmt.Errorf("audio duration: %s reports no samples", filepath.Base(path))
	}
	return format.SampleRate.D(n), nil
}

// Assign decodes v.Path and installs it on slot, closing the previous voice.
func (e *SpeakerEngine) Assign(slot int, v Voice) error {
	if err := e.checkSlot(slot); err != nil {
		return err
	}
	stream, format, err := decode(v.Path)
	if err != nil {
		return err
	}

	speed := math.Abs(v.Speed)
	if speed == 0 {
		speed = 1
	}
	ratio := speed * float64(format.SampleRate) / float64(e.sampleRate)
	resampled := beep.ResampleRatio(resampleQuality, ratio, stream)

	total := int(float64(stream.Len()) / ratio)
	next := newVoice(v.ClipID, resampled, stream.Close, v,
		total, e.sampleRate.N(v.Attack), e.sampleRate.N(v.Release))

	if prev := e.mixer.swap(slot, next); prev != nil {
		closeVoice(prev)
	}
	return nil
}

// Fade ramps the slot's gain to target over ramp.
func (e *SpeakerEngine) Fade(slot int, target float64, ramp time.Duration) error {
	if err := e.checkSlot(slot); err != nil {
		return err
	}
	e.mixer.ramp(slot, target, e.sampleRate.N(ramp))
	return nil
}

func (e *SpeakerEngine) checkSlot(slot int) error {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if !started {
		return ErrNotStarted
	}
	if slot < 0 || slot >= len(e.mixer.voices) {
		return fmt.Errorf("audio: slot %d out of range [0,%d)", slot, len(e.mixer.voices))
	}
	return nil
}

func closeVoice(v *voice) {
	if v != nil && v.closer != nil {
		_ = v.closer()
	}
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open clip: %w", err)
	}
	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("unsupported clip format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode clip %s: %w", filepath.Base(path), err)
	}
	return stream, format, nil
}
