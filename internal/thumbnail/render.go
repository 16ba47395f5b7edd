package thumbnail

import (
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"murmur/internal/logging"
)

const jpegQuality = 85

// Renderer writes cross-dissolve frames to a single output JPEG.
type Renderer struct {
	output     string
	transition time.Duration
	frameRate  int
	blur       int
	logger     *slog.Logger

	// ctl serializes Show and Close; mu guards current only.
	ctl     sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	current *image.RGBA
}

// NewRenderer creates a renderer writing to output. Each image is box
// blurred with blurRadius before it is scaled and dissolved.
func NewRenderer(output string, transition time.Duration, frameRate, blurRadius int, logger *slog.Logger) *Renderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &Renderer{
		output:     output,
		transition: transition,
		frameRate:  frameRate,
		blur:       max(0, blurRadius),
		logger:     logging.NewComponentLogger(logger, "thumbnail"),
	}
}

// Show starts a transition to the image stored at path. It returns once the
// image is decoded; frames are written in the background.
func (r *Renderer) Show(path string) error {
	next, err := loadRGBA(path)
	if err != nil {
		return err
	}
	next = BoxBlur(next, r.blur)

	r.ctl.Lock()
	defer r.ctl.Unlock()
	r.stopLocked()

	r.mu.Lock()
	from := r.current
	r.mu.Unlock()
	if from != nil && from.Bounds() != next.Bounds() {
		next = resize(next, from.Bounds())
	}

	if from == nil || r.transition <= 0 {
		r.publish(next)
		return nil
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.dissolve(from, next, r.stop, r.done)
	return nil
}

// Wait blocks until the running transition, if any, has finished.
func (r *Renderer) Wait() {
	r.ctl.Lock()
	done := r.done
	r.ctl.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops any running transition.
func (r *Renderer) Close() {
	r.ctl.Lock()
	defer r.ctl.Unlock()
	r.stopLocked()
}

func (r *Renderer) stopLocked() {
	if r.stop == nil {
		return
	}
	close(r.stop)
	<-r.done
	r.stop, r.done = nil, nil
}

func (r *Renderer) dissolve(from, to *image.RGBA, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	frames := max(1, int(r.transition.Seconds()*float64(r.frameRate)))
	ticker := time.NewTicker(time.Second / time.Duration(r.frameRate))
	defer ticker.Stop()

	for i := 1; i <= frames; i++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		r.publish(Blend(from, to, smoothstep(float64(i)/float64(frames))))
	}
}

func (r *Renderer) publish(frame *image.RGBA) {
	r.mu.Lock()
	r.current = frame
	r.mu.Unlock()
	if err := writeJPEG(r.output, frame); err != nil {
		r.logger.Debug("thumbnail frame write failed", logging.Error(err), logging.String("path", r.output))
	}
}

// Blend mixes a and b with weight t in [0,1] toward b. Both must share bounds.
func Blend(a, b *image.RGBA, t float64) *image.RGBA {
	out := image.NewRGBA(a.Bounds())
	wb := uint32(t*256 + 0.5)
	wa := 256 - wb
	for i := 0; i < len(out.Pix) && i < len(b.Pix); i++ {
		out.Pix[i] = uint8((uint32(a.Pix[i])*wa + uint32(b.Pix[i])*wb) >> 8)
	}
	return out
}

// BoxBlur averages each pixel with its neighbours within radius, one pass
// per axis. Edges repeat the border pixel. radius <= 0 returns src.
func BoxBlur(src *image.RGBA, radius int) *image.RGBA {
	if radius <= 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}
	tmp := image.NewRGBA(b)
	boxPass(src.Pix, tmp.Pix, src.Stride, w, h, radius, true)
	out := image.NewRGBA(b)
	boxPass(tmp.Pix, out.Pix, tmp.Stride, w, h, radius, false)
	return out
}

func boxPass(in, out []uint8, stride, w, h, radius int, horizontal bool) {
	lines, length := h, w
	if !horizontal {
		lines, length = w, h
	}
	offset := func(line, i int) int {
		i = min(max(i, 0), length-1)
		if horizontal {
			return line*stride + i*4
		}
		return i*stride + line*4
	}
	window := 2*radius + 1
	for line := range lines {
		var sum [4]int
		for i := -radius; i <= radius; i++ {
			o := offset(line, i)
			for c := range 4 {
				sum[c] += int(in[o+c])
			}
		}
		for i := range length {
			o := offset(line, i)
			for c := range 4 {
				out[o+c] = uint8(sum[c] / window)
			}
			drop, add := offset(line, i-radius), offset(line, i+radius+1)
			for c := range 4 {
				sum[c] += int(in[add+c]) - int(in[drop+c])
			}
		}
	}
}

func smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

func loadRGBA(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open thumbnail: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail: %w", err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		for x := range b.Dx() {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// resize scales src to bounds with nearest-neighbour sampling.
func resize(src *image.RGBA, bounds image.Rectangle) *image.RGBA {
	out := image.NewRGBA(bounds)
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return out
	}
	for y := range bounds.Dy() {
		sy := sb.Min.Y + y*sb.Dy()/bounds.Dy()
		for x := range bounds.Dx() {
			sx := sb.Min.X + x*sb.Dx()/bounds.Dx()
			out.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, src.RGBAAt(sx, sy))
		}
	}
	return out
}

// writeJPEG replaces path atomically so readers never see a torn frame.
func writeJPEG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create thumbnail directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*.jpg")
	if err != nil {
		return fmt.Errorf("create thumbnail temp: %w", err)
	}
	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close thumbnail temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace thumbnail: %w", err)
	}
	return nil
}
