package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"murmur/internal/audio"
	"murmur/internal/candidate"
	"murmur/internal/clip"
	"murmur/internal/config"
	"murmur/internal/deps"
	"murmur/internal/fetch"
	"murmur/internal/linkstore"
	"murmur/internal/logging"
	"murmur/internal/media/ffmpeg"
	"murmur/internal/media/ffprobe"
	"murmur/internal/media/ytdlp"
	"murmur/internal/preflight"
	"murmur/internal/reclaim"
	"murmur/internal/rotation"
	"murmur/internal/services"
	"murmur/internal/thumbnail"
)

// ErrAlreadyRunning is returned when another process holds the session lock.
var ErrAlreadyRunning = errors.New("another murmur session is already running")

// Options configures one session. Nil collaborators are built from config.
type Options struct {
	LogLevel string

	Logger     *slog.Logger
	Engine     audio.Engine
	Resolver   fetch.Resolver
	Trimmer    fetch.Trimmer
	Thumbnails fetch.ThumbnailFetcher
}

// Summary describes a finished session.
type Summary struct {
	RunID      string
	Candidates int
	Fetch      fetch.Stats
	Dispatched int
	Dropped    int
	Reclaimed  int
	Elapsed    time.Duration
}

// Run plays until the pool drains (with playback.exit_when_drained) or ctx
// is cancelled. SIGINT and SIGTERM cancel the session.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (Summary, error) {
	if cfg == nil {
		return Summary{}, errors.New("config is required")
	}
	started := time.Now()

	ctx, cancelSignals := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancelSignals()

	if err := cfg.EnsureDirectories(); err != nil {
		return Summary{}, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return Summary{}, ErrAlreadyRunning
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	summary := Summary{RunID: runID}

	logger := opts.Logger
	if logger == nil {
		level := opts.LogLevel
		if level == "" {
			level = cfg.Logging.Level
		}
		logPath := cfg.RunLogPath(runID)
		logger, err = logging.NewForRun(level, cfg.Logging.Format, logPath)
		if err != nil {
			return summary, fmt.Errorf("init logger: %w", err)
		}
		logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.RunLogPattern(), cfg.Logging.RetentionDays, logPath)
	}
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "session"))

	if opts.Resolver == nil || opts.Trimmer == nil {
		if missing := deps.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
			return summary, fmt.Errorf("missing required dependencies: %s", deps.Names(missing))
		}
	}
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run 'murmur status' for details"),
			logging.String(logging.FieldImpact, "session may produce no audio"),
		)
	}

	var store *linkstore.Store
	if opened, err := linkstore.Open(cfg); err != nil {
		logging.WarnWithContext(logger, "state database unavailable", "history_disabled",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
			logging.String(logging.FieldImpact, "dispatch history is not recorded"),
		)
	} else {
		store = opened
		defer store.Close()
	}

	entries, err := loadCandidates(ctx, cfg, store)
	if err != nil {
		return summary, err
	}
	pool := candidate.NewPool(entries)
	summary.Candidates = pool.Total()

	runDir := filepath.Join(cfg.Paths.ClipDir, runID)
	partialDir := filepath.Join(runDir, ".partial")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return summary, fmt.Errorf("create run clip dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(runDir); err != nil {
			logger.Warn("run clip dir cleanup failed", logging.String("path", runDir), logging.Error(err))
		}
	}()

	engine := opts.Engine
	if engine == nil {
		engine = newEngine(cfg, logger)
	}
	if err := engine.Start(ctx); err != nil {
		return summary, services.Wrap(services.KindEngineInit, "start", cfg.Playback.Engine, err)
	}
	stopEngine := sync.OnceFunc(func() {
		if err := engine.Stop(); err != nil {
			logger.Warn("audio engine stop failed", logging.Error(err))
		}
	})
	defer stopEngine()

	queue := clip.NewQueue(cfg.Fetch.QueueCapacity)
	reclaimer := reclaim.New(logger)

	worker, err := newWorker(cfg, opts, runDir, partialDir, logger)
	if err != nil {
		return summary, err
	}
	pipeline, err := fetch.NewPipeline(fetch.PipelineConfig{
		MaxConcurrency: cfg.Fetch.MaxConcurrency,
		DownloadDelay:  cfg.Fetch.DownloadDelayDuration(),
		PartialDir:     partialDir,
	}, pool, queue, worker, logger)
	if err != nil {
		return summary, err
	}

	schedDeps := rotation.Deps{
		Queue:     queue,
		Engine:    engine,
		Reclaimer: reclaimer,
		Drained:   pipeline.Drained,
		Logger:    logger,
	}
	if store != nil {
		schedDeps.Recorder = store
	}
	if cfg.Thumbnail.Enabled {
		renderer := thumbnail.NewRenderer(cfg.Thumbnail.OutputPath, cfg.Thumbnail.TransitionDuration(), cfg.Thumbnail.FrameRate, cfg.Thumbnail.BlurRadius, logger)
		defer renderer.Close()
		schedDeps.Thumbnails = renderer
	}
	scheduler, err := rotation.New(rotation.ConfigFrom(cfg, pool.MaxSeen(), pool.MaxVisited()), schedDeps)
	if err != nil {
		return summary, err
	}

	logger.Info("session started",
		logging.Int("candidates", summary.Candidates),
		logging.Int("players", cfg.Playback.Players),
		logging.String("engine", cfg.Playback.Engine),
		logging.String(logging.FieldEventType, "session_started"),
	)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		return pipeline.Run(groupCtx)
	})
	group.Go(func() error {
		err := scheduler.Run(groupCtx)
		// Fades are stopped once Run returns; silence the device before
		// fetch workers are joined.
		stopEngine()
		cancelRun()
		return err
	})
	runErr := group.Wait()

	var leftover int
	for _, c := range queue.Drain() {
		reclaimer.Discard(c.Path, c.Thumbnail)
		leftover++
	}
	reclaimer.Release()

	stats := pipeline.Stats()
	summary.Fetch = stats
	summary.Dispatched = scheduler.Dispatched()
	summary.Dropped = scheduler.Dropped()
	summary.Reclaimed = reclaimer.Deleted()
	summary.Elapsed = time.Since(started)

	logger.Info("session finished",
		logging.Int("dispatched", summary.Dispatched),
		logging.Int("dropped", summary.Dropped),
		logging.Int("fetched", stats.Succeeded),
		logging.Int("fetch_failed", stats.FailedTotal()),
		logging.Int("discarded_queued", leftover),
		logging.Int("reclaimed", summary.Reclaimed),
		logging.Duration("elapsed", summary.Elapsed),
		logging.String(logging.FieldEventType, "session_finished"),
	)
	return summary, runErr
}

func loadCandidates(ctx context.Context, cfg *config.Config, store *linkstore.Store) (map[string]candidate.Stats, error) {
	if cfg.Pool.Source == config.PoolSourceSQLite {
		if store == nil {
			return nil, errors.New("pool source is sqlite but the state database could not be opened")
		}
		entries, err := store.Candidates(ctx)
		if err != nil {
			return nil, fmt.Errorf("load link pool: %w", err)
		}
		return entries, nil
	}
	entries, err := candidate.LoadJSON(cfg.Pool.LinksFile)
	if err != nil {
		return nil, fmt.Errorf("load link pool: %w", err)
	}
	return entries, nil
}

func newEngine(cfg *config.Config, logger *slog.Logger) audio.Engine {
	if cfg.Playback.Engine == config.EngineNull {
		return audio.NewNullEngine(cfg.Playback.Players, ffprobe.Prober{Binary: cfg.Fetch.FFprobeBinary})
	}
	engine := audio.NewSpeakerEngine(cfg.Playback.Players, cfg.Playback.SampleRate, cfg.Playback.BufferDuration(), logger)
	engine.SetLowShelf(cfg.Playback.LowShelfHz, cfg.Playback.LowShelfGainDB)
	return engine
}

func newWorker(cfg *config.Config, opts Options, clipDir, partialDir string, logger *slog.Logger) (*fetch.Worker, error) {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = ytdlp.NewClient(cfg.Fetch.YTDLPBinary)
	}
	trimmer := opts.Trimmer
	if trimmer == nil {
		trimmer = ffmpeg.Trimmer{Binary: cfg.Fetch.FFmpegBinary, Timeout: cfg.Fetch.TranscodeTimeoutDuration()}
	}
	var workerOpts []fetch.WorkerOption
	if cfg.Thumbnail.Enabled {
		thumbs := opts.Thumbnails
		if thumbs == nil {
			thumbs = thumbnail.NewFetcher(cfg.Fetch.ThumbnailTimeoutDuration())
		}
		workerOpts = append(workerOpts, fetch.WithThumbnails(thumbs))
	}
	return fetch.NewWorker(fetch.WorkerConfigFrom(cfg, clipDir, partialDir), resolver, trimmer, logger, workerOpts...)
}
