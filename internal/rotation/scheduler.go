package rotation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"murmur/internal/audio"
	"murmur/internal/clip"
	"murmur/internal/config"
	"murmur/internal/logging"
	"murmur/internal/reclaim"
	"murmur/internal/services"
	"murmur/internal/textutil"
)

// Config holds the scheduler's tunables.
type Config struct {
	Players      int
	MinDuration  time.Duration
	MaxDuration  time.Duration
	Fade         time.Duration
	Attack       time.Duration
	ReleaseRatio float64
	SpeedMin     float64
	SpeedMax     float64
	PacingScale  float64
	PacingFloor  time.Duration
	Idle         time.Duration

	MaxSeen    uint64
	MaxVisited uint64

	ExitWhenDrained bool
}

// ConfigFrom derives scheduler settings from the application config and the
// pool's snapshotted maxima.
func ConfigFrom(cfg *config.Config, maxSeen, maxVisited uint64) Config {
	return Config{
		Players:         cfg.Playback.Players,
		MinDuration:     time.Duration(cfg.Fetch.MinDuration) * time.Second,
		MaxDuration:     time.Duration(cfg.Fetch.MaxDuration) * time.Second,
		Fade:            cfg.Playback.FadeDuration(),
		Attack:          cfg.Playback.AttackDuration(),
		ReleaseRatio:    cfg.Playback.ReleaseRatio,
		SpeedMin:        cfg.Playback.SpeedMin,
		SpeedMax:        cfg.Playback.SpeedMax,
		PacingScale:     cfg.Playback.PacingScale,
		PacingFloor:     cfg.Playback.PacingFloorDuration(),
		Idle:            cfg.Playback.IdleDuration(),
		MaxSeen:         maxSeen,
		MaxVisited:      maxVisited,
		ExitWhenDrained: cfg.Playback.ExitWhenDrained,
	}
}

// Dispatch describes one clip handed to a slot.
type Dispatch struct {
	ClipID    string
	Link      string
	Title     string
	Slot      int
	Duration  time.Duration
	Effective time.Duration
	Speed     float64
	Amplitude float64
	At        time.Time
}

// Recorder persists dispatch history.
type Recorder interface {
	RecordDispatch(ctx context.Context, d Dispatch) error
}

// Reclaimer takes ownership of clip files once they are swapped in or dropped.
type Reclaimer interface {
	Observe(ev reclaim.Event)
	Discard(paths ...string)
}

// Thumbnails shows a clip's image when it starts playing.
type Thumbnails interface {
	Show(path string) error
}

// Deps are the scheduler's collaborators. Recorder, Thumbnails, and Drained
// are optional.
type Deps struct {
	Queue      *clip.Queue
	Engine     audio.Engine
	Reclaimer  Reclaimer
	Recorder   Recorder
	Thumbnails Thumbnails
	// Drained reports that no more clips will be queued.
	Drained func() bool
	Logger  *slog.Logger
	Rand    *rand.Rand
}

// Scheduler owns the slot array and runs the dispatch loop.
type Scheduler struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	rng    *rand.Rand

	mu    sync.Mutex
	slots []Slot

	background sync.WaitGroup
	dispatched int
	dropped    int
}

// New creates a scheduler with cfg.Players empty slots.
func New(cfg Config, deps Deps) (*Scheduler, error) {
	if cfg.Players <= 0 {
		return nil, fmt.Errorf("rotation: players must be positive, got %d", cfg.Players)
	}
	if deps.Queue == nil || deps.Engine == nil || deps.Reclaimer == nil {
		return nil, errors.New("rotation: queue, engine, and reclaimer are required")
	}
	if cfg.SpeedMin <= 0 {
		cfg.SpeedMin = 1
	}
	if cfg.SpeedMax < cfg.SpeedMin {
		cfg.SpeedMax = cfg.SpeedMin
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 500 * time.Millisecond
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	slots := make([]Slot, cfg.Players)
	for i := range slots {
		slots[i].Index = i
	}
	return &Scheduler{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "rotation"),
		rng:    rng,
		slots:  slots,
	}, nil
}

// Run ticks until ctx is cancelled, or until the producer is drained and the
// last clip has played when ExitWhenDrained is set. Running crossfades are
// stopped before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.shutdown()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		delay, finished := s.Tick(ctx)
		if finished {
			s.logger.Info("queue drained; rotation finished",
				logging.Int("dispatched", s.Dispatched()),
				logging.String(logging.FieldEventType, "rotation_finished"),
			)
			return nil
		}
		timer.Reset(delay)
	}
}

// Tick performs one scheduling step and returns the delay before the next.
// finished is true once ExitWhenDrained applies and every slot has gone
// quiet.
func (s *Scheduler) Tick(ctx context.Context) (delay time.Duration, finished bool) {
	c, ok := s.deps.Queue.TryPop()
	if !ok {
		if s.cfg.ExitWhenDrained && s.deps.Drained != nil && s.deps.Drained() && s.deps.Queue.Len() == 0 {
			if remaining := s.remaining(time.Now()); remaining > 0 {
				return remaining, false
			}
			return 0, true
		}
		return s.cfg.Idle, false
	}

	ctx = services.WithClipID(services.WithLink(ctx, c.Link), c.ID)
	delay, err := s.dispatch(ctx, c)
	if err != nil {
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.deps.Reclaimer.Discard(c.Path, c.Thumbnail)
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "clip dropped before dispatch", "dispatch_failed",
			logging.String(logging.FieldErrorKind, string(services.KindOf(err))),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
			logging.String(logging.FieldImpact, "clip skipped; rotation continues"),
		)
		return s.cfg.Idle, false
	}
	return delay, false
}

func (s *Scheduler) dispatch(ctx context.Context, c clip.Clip) (time.Duration, error) {
	if _, err := os.Stat(c.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, services.Wrap(services.KindMissingFile, "dispatch", c.Path, nil)
		}
		return 0, services.Wrap(services.KindMissingFile, "dispatch", c.Path, err)
	}
	raw, err := s.deps.Engine.Duration(ctx, c.Path)
	if err != nil {
		return 0, services.Wrap(services.KindSlotUnavailable, "duration", c.Path, err)
	}
	if raw <= 0 {
		return 0, services.Errorf(services.KindSlotUnavailable, "duration", c.Path, "non-positive duration %v", raw)
	}

	now := time.Now()
	speed := s.cfg.SpeedMin + s.rng.Float64()*(s.cfg.SpeedMax-s.cfg.SpeedMin)
	effective := time.Duration(float64(raw) / speed)
	amplitude := Amplitude(c.Stats, s.cfg.MaxSeen, s.cfg.MaxVisited)

	s.mu.Lock()
	index := selectSlot(s.slots, c, now)
	slot := &s.slots[index]
	prior := slot.fade
	hadOccupant := slot.Occupied()
	s.mu.Unlock()

	if prior != nil && !prior.Done() {
		prior.Stop()
		s.logger.Debug("crossfade superseded",
			logging.Int(logging.FieldSlot, index),
			logging.String("phase", prior.Phase().String()),
			logging.String(logging.FieldEventType, "crossfade_cancelled"),
		)
	}

	voice := audio.Voice{
		ClipID:    c.ID,
		Path:      c.Path,
		Speed:     speed,
		Amplitude: amplitude,
		Pan:       audio.SlotPan(index, s.cfg.Players),
		Attack:    s.cfg.Attack,
		Release:   time.Duration(s.cfg.ReleaseRatio * float64(effective)),
		Gain:      0,
	}
	event := reclaim.Event{Path: c.Path, Slot: index, Sidecar: c.Thumbnail}
	logger := logging.WithContext(services.WithSlot(ctx, index), s.logger)
	fade := startCrossfade(&crossfade{
		engine:  s.deps.Engine,
		slot:    index,
		next:    voice,
		window:  s.cfg.Fade,
		fadeOut: hadOccupant,
		onSwap: func() {
			s.deps.Reclaimer.Observe(event)
			s.showThumbnail(c.Thumbnail)
		},
		onAbort: func(err error) {
			s.deps.Reclaimer.Discard(c.Path, c.Thumbnail)
			if err != nil {
				logging.WarnWithContext(logger, "slot assignment failed", "assign_failed",
					logging.String(logging.FieldErrorKind, string(services.KindSlotUnavailable)),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the clip file decodes with the configured audio format"),
					logging.String(logging.FieldImpact, "slot stays silent until its next dispatch"),
				)
			}
		},
	})

	s.mu.Lock()
	slot.ClipID = c.ID
	slot.Path = c.Path
	slot.Link = c.Link
	slot.Amplitude = amplitude
	slot.Speed = speed
	slot.Effective = effective
	slot.DispatchedAt = now
	slot.fade = fade
	s.dispatched++
	s.mu.Unlock()

	title := textutil.DisplayTitle(c.Title, c.Link)
	logger.Info("clip dispatched",
		logging.String("title", title),
		logging.Duration("duration", raw),
		logging.Duration("effective", effective),
		logging.Float64("amplitude", amplitude),
		logging.Float64("speed", speed),
		logging.String(logging.FieldEventType, "dispatch"),
	)

	if s.deps.Recorder != nil {
		record := Dispatch{
			ClipID:    c.ID,
			Link:      c.Link,
			Title:     title,
			Slot:      index,
			Duration:  raw,
			Effective: effective,
			Speed:     speed,
			Amplitude: amplitude,
			At:        now,
		}
		if err := s.deps.Recorder.RecordDispatch(ctx, record); err != nil {
			logger.Debug("dispatch history write failed", logging.Error(err))
		}
	}

	return Pacing(raw, s.cfg.MinDuration, s.cfg.MaxDuration, s.cfg.PacingScale, s.cfg.PacingFloor), nil
}

func (s *Scheduler) showThumbnail(path string) {
	if s.deps.Thumbnails == nil || path == "" {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := s.deps.Thumbnails.Show(path); err != nil {
			s.logger.Debug("thumbnail transition skipped", logging.String("path", path), logging.Error(err))
		}
	}()
}

// remaining is how long until the last active slot goes quiet.
func (s *Scheduler) remaining(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var longest time.Duration
	for _, slot := range s.slots {
		if slot.Active(now) {
			longest = max(longest, slot.DispatchedAt.Add(slot.Effective).Sub(now))
		}
	}
	return longest
}

// StopFades stops and joins every running crossfade.
func (s *Scheduler) StopFades() {
	s.mu.Lock()
	fades := make([]*crossfade, 0, len(s.slots))
	for i := range s.slots {
		if s.slots[i].fade != nil {
			fades = append(fades, s.slots[i].fade)
		}
	}
	s.mu.Unlock()
	for _, f := range fades {
		f.Stop()
	}
}

func (s *Scheduler) shutdown() {
	s.StopFades()
	s.background.Wait()
}

// Slots returns a copy of the slot array.
func (s *Scheduler) Slots() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	for i := range out {
		out[i].fade = nil
	}
	return out
}

// Dispatched reports how many clips were handed to slots.
func (s *Scheduler) Dispatched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatched
}

// Dropped reports how many clips were discarded at dispatch.
func (s *Scheduler) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func hintFor(err error) string {
	switch services.KindOf(err) {
	case services.KindMissingFile:
		return "clip file was removed from clip_dir before playback"
	case services.KindSlotUnavailable:
		return "the audio engine could not read the clip; check audio_format"
	default:
		return "check logs for details"
	}
}
