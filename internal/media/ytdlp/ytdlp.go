// Package ytdlp resolves remote media links into playable audio locators by
// running yt-dlp in JSON mode.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Info is the subset of yt-dlp metadata the fetch pipeline consumes.
type Info struct {
	ID        string
	Title     string
	Duration  float64
	Live      bool
	Playlist  bool
	StreamURL string
	Thumbnail string
}

// HasDuration reports whether the source advertised a finite length.
func (i Info) HasDuration() bool { return i.Duration > 0 }

type rawInfo struct {
	ID         string         `json:"id"`
	Type       string         `json:"_type"`
	Title      string         `json:"title"`
	Duration   *float64       `json:"duration"`
	IsLive     *bool          `json:"is_live"`
	URL        string         `json:"url"`
	Thumbnail  string         `json:"thumbnail"`
	Entries    []any          `json:"entries"`
	Formats    []rawFormat    `json:"formats"`
	Thumbnails []rawThumbnail `json:"thumbnails"`
}

type rawThumbnail struct {
	URL string `json:"url"`
}

type rawFormat struct {
	URL    string `json:"url"`
	ACodec string `json:"acodec"`
	VCodec string `json:"vcodec"`
}

// Client runs the yt-dlp binary.
type Client struct {
	Binary string
	Format string
}

// NewClient returns a client requesting the best audio-only format.
func NewClient(binary string) *Client {
	return &Client{Binary: binary, Format: "bestaudio"}
}

// Resolve fetches metadata for link. The caller bounds runtime through ctx.
func (c *Client) Resolve(ctx context.Context, link string) (Info, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return Info{}, errors.New("ytdlp resolve: empty link")
	}
	binary := strings.TrimSpace(c.Binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	format := c.Format
	if format == "" {
		format = "bestaudio"
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "--no-warnings", "--flat-playlist", "-f", format, "-J", "--", link)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Info{}, fmt.Errorf("ytdlp resolve: %w", ctxErr)
		}
		return Info{}, fmt.Errorf("ytdlp resolve: %w: %s", err, lastLine(stderr.String()))
	}
	return Parse(output)
}

// Parse decodes yt-dlp -J output. When the top-level entry carries no direct
// URL, the first audio-only format is used.
func Parse(data []byte) (Info, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return Info{}, fmt.Errorf("ytdlp parse: %w", err)
	}
	info := Info{
		ID:        raw.ID,
		Title:     raw.Title,
		Thumbnail: pickThumbnail(raw),
		Playlist:  raw.Type == "playlist" || raw.Entries != nil,
		Live:      raw.IsLive != nil && *raw.IsLive,
		StreamURL: raw.URL,
	}
	if raw.Duration != nil {
		info.Duration = *raw.Duration
	}
	if info.StreamURL == "" {
		for _, f := range raw.Formats {
			if f.URL != "" && f.ACodec != "" && f.ACodec != "none" && f.VCodec == "none" {
				info.StreamURL = f.URL
				break
			}
		}
	}
	return info, nil
}

// pickThumbnail prefers the advertised thumbnail when it is a JPEG or PNG,
// else the last (largest) such entry of the thumbnail list.
func pickThumbnail(raw rawInfo) string {
	if decodable(raw.Thumbnail) {
		return raw.Thumbnail
	}
	for i := len(raw.Thumbnails) - 1; i >= 0; i-- {
		if decodable(raw.Thumbnails[i].URL) {
			return raw.Thumbnails[i].URL
		}
	}
	return ""
}

func decodable(u string) bool {
	if u == "" {
		return false
	}
	if idx := strings.IndexAny(u, "?#"); idx >= 0 {
		u = u[:idx]
	}
	u = strings.ToLower(u)
	return strings.HasSuffix(u, ".jpg") || strings.HasSuffix(u, ".jpeg") || strings.HasSuffix(u, ".png")
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
