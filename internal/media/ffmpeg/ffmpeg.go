// Package ffmpeg cuts a time window out of a remote audio stream into a local
// clip file.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Args   []string
	Stderr string
	Err    error
}

// Trimmer runs ffmpeg with a per-call timeout.
type Trimmer struct {
	Binary  string
	Timeout time.Duration
}

// BuildArgs returns the ffmpeg argument list for one trim, excluding the
// binary. The output container is chosen from the path extension.
func BuildArgs(input string, start, length time.Duration, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-y",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", input,
		"-map", "0:a:0",
		"-vn",
		output,
	}
}

// Trim writes the [start, start+length) window of input to output. On any
// failure output is removed.
func (t Trimmer) Trim(ctx context.Context, input string, start, length time.Duration, output string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("ffmpeg trim: empty input")
	}
	if length <= 0 {
		return fmt.Errorf("ffmpeg trim: non-positive length %v", length)
	}
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	res := t.execute(ctx, BuildArgs(input, start, length, output))
	if res.Err == nil {
		if info, err := os.Stat(output); err != nil || info.Size() == 0 {
			res.Err = errors.New("no output written")
		}
	}
	if res.Err != nil {
		_ = os.Remove(output)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("ffmpeg trim: timed out after %v", t.Timeout)
		}
		if detail := lastLine(res.Stderr); detail != "" {
			return fmt.Errorf("ffmpeg trim: %w: %s", res.Err, detail)
		}
		return fmt.Errorf("ffmpeg trim: %w", res.Err)
	}
	return nil
}

func (t Trimmer) execute(ctx context.Context, args []string) ExecResult {
	binary := strings.TrimSpace(t.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	return ExecResult{Args: args, Stderr: stderrBuf.String(), Err: err}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
