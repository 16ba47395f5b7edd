package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"murmur/internal/candidate"
	"murmur/internal/clip"
	"murmur/internal/config"
	"murmur/internal/fileutil"
	"murmur/internal/logging"
	"murmur/internal/media/ytdlp"
	"murmur/internal/services"
)

// Resolver looks up metadata and a stream locator for a link.
type Resolver interface {
	Resolve(ctx context.Context, link string) (ytdlp.Info, error)
}

// Trimmer writes a window of a remote or local input to output.
type Trimmer interface {
	Trim(ctx context.Context, input string, start, length time.Duration, output string) error
}

// ThumbnailFetcher stores a clip's thumbnail image at dest.
type ThumbnailFetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// WorkerConfig holds the per-clip limits and directories.
type WorkerConfig struct {
	MinDuration    time.Duration
	MaxDuration    time.Duration
	ResolveTimeout time.Duration
	AudioFormat    string
	ClipDir        string
	PartialDir     string
	// Players > 0 with RandomSlots pre-assigns a uniformly random slot.
	Players     int
	RandomSlots bool
}

// WorkerConfigFrom derives worker settings from the application config.
func WorkerConfigFrom(cfg *config.Config, clipDir, partialDir string) WorkerConfig {
	return WorkerConfig{
		MinDuration:    time.Duration(cfg.Fetch.MinDuration) * time.Second,
		MaxDuration:    time.Duration(cfg.Fetch.MaxDuration) * time.Second,
		ResolveTimeout: cfg.Fetch.ResolveTimeoutDuration(),
		AudioFormat:    cfg.Fetch.AudioFormat,
		ClipDir:        clipDir,
		PartialDir:     partialDir,
		Players:        cfg.Playback.Players,
		RandomSlots:    cfg.Playback.SlotPolicy == config.SlotPolicyRandom,
	}
}

// Worker produces one clip per candidate.
type Worker struct {
	cfg        WorkerConfig
	resolver   Resolver
	trimmer    Trimmer
	thumbnails ThumbnailFetcher
	logger     *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand

	newID func() string
}

// WorkerOption customizes a Worker.
type WorkerOption func(*Worker)

// WithThumbnails enables best-effort thumbnail downloads.
func WithThumbnails(f ThumbnailFetcher) WorkerOption {
	return func(w *Worker) { w.thumbnails = f }
}

// WithRand replaces the random source, for reproducible windows in tests.
func WithRand(rng *rand.Rand) WorkerOption {
	return func(w *Worker) { w.rng = rng }
}

// WithIDGenerator replaces uuid clip identifiers.
func WithIDGenerator(fn func() string) WorkerOption {
	return func(w *Worker) { w.newID = fn }
}

// NewWorker constructs a worker. resolver and trimmer are required.
func NewWorker(cfg WorkerConfig, resolver Resolver, trimmer Trimmer, logger *slog.Logger, opts ...WorkerOption) (*Worker, error) {
	if resolver == nil || trimmer == nil {
		return nil, errors.New("fetch: resolver and trimmer are required")
	}
	if cfg.MinDuration <= 0 || cfg.MaxDuration < cfg.MinDuration {
		return nil, fmt.Errorf("fetch: invalid duration bounds %v..%v", cfg.MinDuration, cfg.MaxDuration)
	}
	if strings.TrimSpace(cfg.ClipDir) == "" {
		return nil, errors.New("fetch: clip dir is required")
	}
	if cfg.PartialDir == "" {
		cfg.PartialDir = cfg.ClipDir
	}
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = config.AudioFormatFLAC
	}
	w := &Worker{
		cfg:      cfg,
		resolver: resolver,
		trimmer:  trimmer,
		logger:   logging.NewComponentLogger(logger, "fetch"),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Fetch resolves cand, trims a random window and moves the result into the
// clip dir. The returned clip's files belong to the caller.
func (w *Worker) Fetch(ctx context.Context, cand candidate.Candidate) (clip.Clip, error) {
	link, err := ValidateLink(cand.Link)
	if err != nil {
		return clip.Clip{}, err
	}
	target := w.targetDuration()

	resolveCtx := ctx
	if w.cfg.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		resolveCtx, cancel = context.WithTimeout(ctx, w.cfg.ResolveTimeout)
		defer cancel()
	}
	info, err := w.resolver.Resolve(resolveCtx, link)
	if err != nil {
		return clip.Clip{}, services.Wrap(services.KindUnresolvable, "resolve", link, err)
	}
	if info.Playlist {
		return clip.Clip{}, services.Errorf(services.KindUnresolvable, "resolve", link, "link is a playlist")
	}
	if info.Live || !info.HasDuration() {
		return clip.Clip{}, services.Errorf(services.KindLive, "resolve", link, "source has no finite duration")
	}
	total := time.Duration(info.Duration * float64(time.Second))
	if total < w.cfg.MinDuration {
		return clip.Clip{}, services.Errorf(services.KindTooShort, "resolve", link, "source is %v, minimum is %v", total, w.cfg.MinDuration)
	}
	if total < target {
		target = total.Truncate(time.Second)
	}
	if strings.TrimSpace(info.StreamURL) == "" {
		return clip.Clip{}, services.Errorf(services.KindUnresolvable, "resolve", link, "no audio stream url")
	}
	start := w.startOffset(total, target)

	id := w.newID()
	name := id + "." + w.cfg.AudioFormat
	partial := filepath.Join(w.cfg.PartialDir, name)
	if err := w.trimmer.Trim(ctx, info.StreamURL, start, target, partial); err != nil {
		_ = os.Remove(partial)
		return clip.Clip{}, services.Wrap(services.KindTranscodeFailed, "trim", link, err)
	}
	final := filepath.Join(w.cfg.ClipDir, name)
	if err := fileutil.Move(partial, final); err != nil {
		_ = os.Remove(partial)
		return clip.Clip{}, services.Wrap(services.KindTranscodeFailed, "store", link, err)
	}

	result := clip.Clip{
		ID:        id,
		Link:      link,
		Title:     info.Title,
		Path:      final,
		Duration:  target,
		Stats:     cand.Stats,
		Slot:      w.slot(),
		FetchedAt: time.Now(),
	}
	result.Thumbnail = w.fetchThumbnail(ctx, info.Thumbnail, filepath.Join(w.cfg.ClipDir, id+".jpg"))
	return result, nil
}

func (w *Worker) fetchThumbnail(ctx context.Context, url, dest string) string {
	if w.thumbnails == nil || strings.TrimSpace(url) == "" {
		return ""
	}
	if err := w.thumbnails.Fetch(ctx, url, dest); err != nil {
		_ = os.Remove(dest)
		w.logger.Debug("thumbnail unavailable", logging.String("url", url), logging.Error(err))
		return ""
	}
	return dest
}

// targetDuration draws whole seconds uniformly from [MinDuration, MaxDuration].
func (w *Worker) targetDuration() time.Duration {
	lo := int(w.cfg.MinDuration / time.Second)
	hi := int(w.cfg.MaxDuration / time.Second)
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Duration(lo+w.rng.IntN(hi-lo+1)) * time.Second
}

// startOffset draws whole seconds uniformly from [0, total-length).
func (w *Worker) startOffset(total, length time.Duration) time.Duration {
	span := int((total - length) / time.Second)
	if span <= 0 {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Duration(w.rng.IntN(span)) * time.Second
}

func (w *Worker) slot() int {
	if !w.cfg.RandomSlots || w.cfg.Players <= 0 {
		return clip.NoSlot
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rng.IntN(w.cfg.Players)
}
