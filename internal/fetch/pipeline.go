package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"murmur/internal/candidate"
	"murmur/internal/clip"
	"murmur/internal/logging"
	"murmur/internal/services"
)

// Fetcher produces one clip for a candidate.
type Fetcher interface {
	Fetch(ctx context.Context, cand candidate.Candidate) (clip.Clip, error)
}

// PipelineConfig bounds the pipeline.
type PipelineConfig struct {
	MaxConcurrency int
	DownloadDelay  time.Duration
	// PartialDir holds in-progress trims and is removed when Run returns.
	PartialDir string
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	Active    int
	Started   int
	Succeeded int
	Failed    map[services.Kind]int
}

// FailedTotal sums failures across kinds.
func (s Stats) FailedTotal() int {
	total := 0
	for _, n := range s.Failed {
		total += n
	}
	return total
}

// Pipeline draws candidates and fills the ready queue.
type Pipeline struct {
	cfg     PipelineConfig
	pool    *candidate.Pool
	queue   *clip.Queue
	fetcher Fetcher
	logger  *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	mu    sync.Mutex
	stats Stats

	done chan struct{}
}

// NewPipeline wires a pipeline. Nothing runs until Run.
func NewPipeline(cfg PipelineConfig, pool *candidate.Pool, queue *clip.Queue, fetcher Fetcher, logger *slog.Logger) (*Pipeline, error) {
	if pool == nil || queue == nil || fetcher == nil {
		return nil, errors.New("fetch: pool, queue, and fetcher are required")
	}
	if cfg.MaxConcurrency <= 0 {
		return nil, fmt.Errorf("fetch: max concurrency must be positive, got %d", cfg.MaxConcurrency)
	}
	return &Pipeline{
		cfg:     cfg,
		pool:    pool,
		queue:   queue,
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "fetch"),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		stats:   Stats{Failed: make(map[services.Kind]int)},
		done:    make(chan struct{}),
	}, nil
}

// Run draws until the pool is empty or ctx is cancelled, then joins every
// in-flight worker. It always returns nil once workers are joined; ctx
// cancellation is the normal shutdown path.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.done)
	if p.cfg.PartialDir != "" {
		if err := os.MkdirAll(p.cfg.PartialDir, 0o755); err != nil {
			return fmt.Errorf("create partial dir: %w", err)
		}
		defer func() {
			if err := os.RemoveAll(p.cfg.PartialDir); err != nil {
				p.logger.Warn("partial dir cleanup failed", logging.String("path", p.cfg.PartialDir), logging.Error(err))
			}
		}()
	}

	// The slot is taken before the capacity check so a worker never starts
	// against a queue that filled while it waited for concurrency.
	slots := semaphore.NewWeighted(int64(p.cfg.MaxConcurrency))
	var group errgroup.Group

	p.logger.Info("fetch pipeline started",
		logging.Int("candidates", p.pool.Len()),
		logging.Int("max_concurrency", p.cfg.MaxConcurrency),
		logging.String(logging.FieldEventType, "pipeline_started"),
	)
	for ctx.Err() == nil {
		if err := slots.Acquire(ctx, 1); err != nil {
			break
		}
		if err := p.queue.WaitForSpace(ctx); err != nil {
			slots.Release(1)
			break
		}
		cand, ok := p.pool.Draw()
		if !ok {
			slots.Release(1)
			break
		}
		p.mu.Lock()
		p.stats.Started++
		p.mu.Unlock()
		group.Go(func() error {
			defer slots.Release(1)
			p.work(ctx, cand)
			return nil
		})
	}
	_ = group.Wait()

	stats := p.Stats()
	p.logger.Info("fetch pipeline finished",
		logging.Int("started", stats.Started),
		logging.Int("succeeded", stats.Succeeded),
		logging.Int("failed", stats.FailedTotal()),
		logging.Bool("cancelled", ctx.Err() != nil),
		logging.String(logging.FieldEventType, "pipeline_finished"),
	)
	return nil
}

func (p *Pipeline) work(ctx context.Context, cand candidate.Candidate) {
	if !p.jitter(ctx) {
		return
	}
	p.mu.Lock()
	p.stats.Active++
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.stats.Active--
		p.mu.Unlock()
	}()

	ctx = services.WithLink(ctx, cand.Link)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("clip download started", logging.String(logging.FieldEventType, "download_started"))

	c, err := p.fetcher.Fetch(ctx, cand)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		kind := services.KindOf(err)
		p.mu.Lock()
		p.stats.Failed[kind]++
		p.mu.Unlock()
		logging.WarnWithContext(logger, "clip download failed", "download_failed",
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, failureHint(kind)),
			logging.String(logging.FieldImpact, "candidate skipped"),
		)
		return
	}

	if err := p.queue.Push(ctx, c); err != nil {
		removeClipFiles(c)
		return
	}
	p.mu.Lock()
	p.stats.Succeeded++
	p.mu.Unlock()
	logging.WithContext(services.WithClipID(ctx, c.ID), p.logger).Info("clip download finished",
		logging.Duration("duration", c.Duration),
		logging.Int("queued", p.queue.Len()),
		logging.String(logging.FieldEventType, "download_succeeded"),
	)
}

// jitter sleeps a uniform delay in [0, DownloadDelay]; false means ctx ended.
func (p *Pipeline) jitter(ctx context.Context) bool {
	if p.cfg.DownloadDelay <= 0 {
		return ctx.Err() == nil
	}
	p.rngMu.Lock()
	delay := time.Duration(p.rng.Int64N(int64(p.cfg.DownloadDelay) + 1))
	p.rngMu.Unlock()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.stats
	out.Failed = make(map[services.Kind]int, len(p.stats.Failed))
	for k, v := range p.stats.Failed {
		out.Failed[k] = v
	}
	return out
}

// Done is closed once Run has joined every worker.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

// Drained reports whether Run has finished.
func (p *Pipeline) Drained() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func removeClipFiles(c clip.Clip) {
	for _, path := range []string{c.Path, c.Thumbnail} {
		if path != "" {
			_ = os.Remove(path)
		}
	}
}

func failureHint(kind services.Kind) string {
	switch kind {
	case services.KindInvalidLink:
		return "only youtube watch and youtu.be links are supported"
	case services.KindUnresolvable:
		return "yt-dlp could not resolve the link; update yt-dlp or check network access"
	case services.KindLive:
		return "live streams and sources without a duration are skipped"
	case services.KindTooShort:
		return "source is shorter than fetch.min_duration"
	case services.KindTranscodeFailed:
		return "ffmpeg failed or exceeded fetch.transcode_timeout"
	default:
		return "check logs for details"
	}
}
