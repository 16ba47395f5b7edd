package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"murmur/internal/logging"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func decodeJPEG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img
}

func TestBlendEndpointsAndMidpoint(t *testing.T) {
	black := solid(2, 2, color.RGBA{0, 0, 0, 255})
	white := solid(2, 2, color.RGBA{255, 255, 255, 255})

	if got := Blend(black, white, 0).RGBAAt(0, 0); got.R != 0 {
		t.Fatalf("t=0 should be source, got %v", got)
	}
	if got := Blend(black, white, 1).RGBAAt(0, 0); got.R != 255 {
		t.Fatalf("t=1 should be target, got %v", got)
	}
	mid := Blend(black, white, 0.5).RGBAAt(1, 1)
	if mid.R < 120 || mid.R > 135 {
		t.Fatalf("expected mid grey, got %v", mid)
	}
}

func TestBoxBlurSpreadsPoint(t *testing.T) {
	img := solid(5, 5, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(2, 2, color.RGBA{255, 255, 255, 255})

	if BoxBlur(img, 0) != img {
		t.Fatal("radius 0 should return the source")
	}
	out := BoxBlur(img, 1)
	if got := out.RGBAAt(2, 2); got.R != 255/9 || got.A != 255 {
		t.Fatalf("centre should average 3x3 window, got %v", got)
	}
	if got := out.RGBAAt(1, 1); got.R != 255/9 {
		t.Fatalf("neighbour should pick up the point, got %v", got)
	}
	if got := out.RGBAAt(0, 0); got.R != 0 {
		t.Fatalf("corner outside the window should stay black, got %v", got)
	}
	if img.RGBAAt(2, 2).R != 255 {
		t.Fatal("source must not be modified")
	}
}

func TestRendererFirstImageIsImmediate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writePNG(t, src, solid(4, 4, color.RGBA{255, 0, 0, 255}))
	out := filepath.Join(dir, "out", "now.jpg")

	renderer := NewRenderer(out, time.Second, 30, 2, logging.NewNop())
	defer renderer.Close()
	if err := renderer.Show(src); err != nil {
		t.Fatalf("Show: %v", err)
	}
	red, green, _, _ := decodeJPEG(t, out).At(1, 1).RGBA()
	if red>>8 < 200 || green>>8 > 60 {
		t.Fatalf("expected red frame, got r=%d g=%d", red>>8, green>>8)
	}
}

func TestRendererDissolvesToNextImage(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.png")
	second := filepath.Join(dir, "b.png")
	writePNG(t, first, solid(4, 4, color.RGBA{0, 0, 0, 255}))
	writePNG(t, second, solid(8, 8, color.RGBA{255, 255, 255, 255}))
	out := filepath.Join(dir, "now.jpg")

	renderer := NewRenderer(out, 100*time.Millisecond, 50, 2, logging.NewNop())
	defer renderer.Close()
	if err := renderer.Show(first); err != nil {
		t.Fatalf("Show first: %v", err)
	}
	if err := renderer.Show(second); err != nil {
		t.Fatalf("Show second: %v", err)
	}
	renderer.Wait()

	img := decodeJPEG(t, out)
	if img.Bounds().Dx() != 4 {
		t.Fatalf("expected canvas to keep first image size, got %v", img.Bounds())
	}
	r, _, _, _ := img.At(2, 2).RGBA()
	if r>>8 < 240 {
		t.Fatalf("expected white after transition, got %d", r>>8)
	}
}

func TestRendererNewTransitionStopsPrevious(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"), filepath.Join(dir, "c.png")}
	colors := []color.RGBA{{0, 0, 0, 255}, {255, 255, 255, 255}, {0, 0, 255, 255}}
	for i, p := range paths {
		writePNG(t, p, solid(4, 4, colors[i]))
	}
	renderer := NewRenderer(filepath.Join(dir, "now.jpg"), 5*time.Second, 30, 0, logging.NewNop())
	for _, p := range paths {
		if err := renderer.Show(p); err != nil {
			t.Fatalf("Show: %v", err)
		}
	}
	done := make(chan struct{})
	go func() {
		renderer.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not stop the running transition")
	}
}

func TestRendererRejectsUndecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewRenderer(filepath.Join(t.TempDir(), "o.jpg"), 0, 0, 0, nil).Show(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetcherWritesJPEG(t *testing.T) {
	var body bytes.Buffer
	if err := png.Encode(&body, solid(3, 3, color.RGBA{10, 200, 10, 255})); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(body.Bytes())
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "thumb.jpg")
	fetcher := NewFetcher(2 * time.Second)
	if err := fetcher.Fetch(context.Background(), srv.URL+"/ok.png", dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if decodeJPEG(t, dest).Bounds().Dx() != 3 {
		t.Fatal("unexpected image size")
	}
	if err := fetcher.Fetch(context.Background(), srv.URL+"/missing.jpg", dest); err == nil {
		t.Fatal("expected error for 404")
	}
	if err := fetcher.Fetch(context.Background(), "", dest); err == nil {
		t.Fatal("expected error for empty url")
	}
}
