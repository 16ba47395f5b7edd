package fetch

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"murmur/internal/candidate"
	"murmur/internal/clip"
	"murmur/internal/logging"
	"murmur/internal/media/ytdlp"
	"murmur/internal/services"
)

type stubResolver struct {
	info ytdlp.Info
	err  error
}

func (r stubResolver) Resolve(context.Context, string) (ytdlp.Info, error) {
	return r.info, r.err
}

type trimCall struct {
	input         string
	start, length time.Duration
	output        string
}

type stubTrimmer struct {
	mu    sync.Mutex
	calls []trimCall
	err   error
}

func (s *stubTrimmer) Trim(_ context.Context, input string, start, length time.Duration, output string) error {
	s.mu.Lock()
	s.calls = append(s.calls, trimCall{input, start, length, output})
	s.mu.Unlock()
	if s.err != nil {
		_ = os.WriteFile(output, []byte("partial"), 0o644)
		return s.err
	}
	return os.WriteFile(output, []byte("audio"), 0o644)
}

type stubThumbs struct{ err error }

func (s stubThumbs) Fetch(_ context.Context, _ string, dest string) error {
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(dest, []byte("jpeg"), 0o644)
}

func newTestWorker(t *testing.T, resolver Resolver, trimmer Trimmer, mutate func(*WorkerConfig), opts ...WorkerOption) (*Worker, WorkerConfig) {
	t.Helper()
	base := t.TempDir()
	cfg := WorkerConfig{
		MinDuration: 8 * time.Second,
		MaxDuration: 32 * time.Second,
		AudioFormat: "flac",
		ClipDir:     filepath.Join(base, "clips"),
		PartialDir:  filepath.Join(base, "clips", ".partial"),
		Players:     4,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	for _, dir := range []string{cfg.ClipDir, cfg.PartialDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	opts = append([]WorkerOption{WithRand(rand.New(rand.NewPCG(7, 9)))}, opts...)
	w, err := NewWorker(cfg, resolver, trimmer, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	return w, cfg
}

var goodInfo = ytdlp.Info{
	ID:        "abc",
	Title:     "some ambient recording",
	Duration:  600,
	StreamURL: "https://media.example/abc.webm",
	Thumbnail: "https://i.example/abc.jpg",
}

func TestWorkerFetchProducesClip(t *testing.T) {
	trimmer := &stubTrimmer{}
	w, cfg := newTestWorker(t, stubResolver{info: goodInfo}, trimmer, nil,
		WithIDGenerator(func() string { return "clip-1" }),
		WithThumbnails(stubThumbs{}),
	)
	cand := candidate.Candidate{Link: "https://youtu.be/abc", Stats: candidate.Stats{Seen: 3, Visited: 1}}

	c, err := w.Fetch(context.Background(), cand)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if c.ID != "clip-1" || c.Path != filepath.Join(cfg.ClipDir, "clip-1.flac") {
		t.Fatalf("unexpected clip identity %+v", c)
	}
	if c.Stats != cand.Stats || c.Title != goodInfo.Title || c.Slot != clip.NoSlot {
		t.Fatalf("unexpected clip metadata %+v", c)
	}
	if c.Duration < cfg.MinDuration || c.Duration > cfg.MaxDuration || c.Duration%time.Second != 0 {
		t.Fatalf("duration %v outside whole-second bounds", c.Duration)
	}
	if _, err := os.Stat(c.Path); err != nil {
		t.Fatalf("clip file missing: %v", err)
	}
	if c.Thumbnail != filepath.Join(cfg.ClipDir, "clip-1.jpg") {
		t.Fatalf("unexpected thumbnail %q", c.Thumbnail)
	}
	entries, _ := os.ReadDir(cfg.PartialDir)
	if len(entries) != 0 {
		t.Fatalf("partial dir should be empty after rename, has %d entries", len(entries))
	}

	call := trimmer.calls[0]
	if call.input != goodInfo.StreamURL || call.length != c.Duration {
		t.Fatalf("unexpected trim call %+v", call)
	}
	if call.start < 0 || call.start+call.length > 600*time.Second {
		t.Fatalf("window [%v, +%v) exceeds source", call.start, call.length)
	}
}

func TestWorkerFetchFailureKinds(t *testing.T) {
	cases := []struct {
		name     string
		link     string
		resolver stubResolver
		trimErr  error
		want     services.Kind
	}{
		{"invalid link", "https://example.com/x", stubResolver{info: goodInfo}, nil, services.KindInvalidLink},
		{"resolver error", "https://youtu.be/a", stubResolver{err: errors.New("HTTP 404")}, nil, services.KindUnresolvable},
		{"playlist", "https://youtu.be/a", stubResolver{info: ytdlp.Info{Playlist: true, Duration: 100}}, nil, services.KindUnresolvable},
		{"live", "https://youtu.be/a", stubResolver{info: ytdlp.Info{Live: true, Duration: 100, StreamURL: "u"}}, nil, services.KindLive},
		{"no duration", "https://youtu.be/a", stubResolver{info: ytdlp.Info{StreamURL: "u"}}, nil, services.KindLive},
		{"too short", "https://youtu.be/a", stubResolver{info: ytdlp.Info{Duration: 5, StreamURL: "u"}}, nil, services.KindTooShort},
		{"no stream", "https://youtu.be/a", stubResolver{info: ytdlp.Info{Duration: 100}}, nil, services.KindUnresolvable},
		{"trim failure", "https://youtu.be/a", stubResolver{info: goodInfo}, errors.New("exit status 1"), services.KindTranscodeFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trimmer := &stubTrimmer{err: tc.trimErr}
			w, cfg := newTestWorker(t, tc.resolver, trimmer, nil)
			_, err := w.Fetch(context.Background(), candidate.Candidate{Link: tc.link})
			if got := services.KindOf(err); got != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
			for _, dir := range []string{cfg.ClipDir, cfg.PartialDir} {
				entries, _ := os.ReadDir(dir)
				for _, e := range entries {
					if !e.IsDir() {
						t.Fatalf("failure left %s in %s", e.Name(), dir)
					}
				}
			}
		})
	}
}

func TestWorkerShortensTargetToSource(t *testing.T) {
	trimmer := &stubTrimmer{}
	info := goodInfo
	info.Duration = 9.6
	w, _ := newTestWorker(t, stubResolver{info: info}, trimmer, func(c *WorkerConfig) {
		c.MinDuration = 9 * time.Second
		c.MaxDuration = 30 * time.Second
	})
	for range 20 {
		c, err := w.Fetch(context.Background(), candidate.Candidate{Link: "https://youtu.be/a"})
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if c.Duration != 9*time.Second {
			t.Fatalf("expected target shortened to 9s, got %v", c.Duration)
		}
	}
	for _, call := range trimmer.calls {
		if call.start != 0 {
			t.Fatalf("expected zero offset for a source barely longer than the clip, got %v", call.start)
		}
	}
}

func TestWorkerThumbnailFailureIsNotFatal(t *testing.T) {
	w, _ := newTestWorker(t, stubResolver{info: goodInfo}, &stubTrimmer{}, nil, WithThumbnails(stubThumbs{err: errors.New("404")}))
	c, err := w.Fetch(context.Background(), candidate.Candidate{Link: "https://youtu.be/a"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if c.Thumbnail != "" {
		t.Fatalf("expected no thumbnail, got %q", c.Thumbnail)
	}
}

func TestWorkerRandomSlotPolicy(t *testing.T) {
	w, _ := newTestWorker(t, stubResolver{info: goodInfo}, &stubTrimmer{}, func(c *WorkerConfig) { c.RandomSlots = true })
	for range 20 {
		c, err := w.Fetch(context.Background(), candidate.Candidate{Link: "https://youtu.be/a"})
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if !c.HasSlot(4) {
			t.Fatalf("expected pre-assigned slot in [0,4), got %d", c.Slot)
		}
	}
}

func TestNewWorkerValidates(t *testing.T) {
	if _, err := NewWorker(WorkerConfig{MinDuration: time.Second, MaxDuration: time.Second, ClipDir: "x"}, nil, &stubTrimmer{}, nil); err == nil {
		t.Fatal("expected error without resolver")
	}
	if _, err := NewWorker(WorkerConfig{MinDuration: 5 * time.Second, MaxDuration: time.Second, ClipDir: "x"}, stubResolver{}, &stubTrimmer{}, nil); err == nil {
		t.Fatal("expected error for inverted bounds")
	}
}
