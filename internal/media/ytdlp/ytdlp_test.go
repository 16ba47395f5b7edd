package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDirectURL(t *testing.T) {
	info, err := Parse([]byte(`{"id":"abc","title":"Rain","duration":123.5,"is_live":false,"url":"https://cdn/a","thumbnail":"https://i/a.jpg"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if info.StreamURL != "https://cdn/a" || info.Duration != 123.5 || info.Live || info.Playlist {
		t.Fatalf("unexpected info %+v", info)
	}
	if !info.HasDuration() || info.Thumbnail != "https://i/a.jpg" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestParseFallsBackToAudioOnlyFormat(t *testing.T) {
	info, err := Parse([]byte(`{"id":"abc","duration":60,"formats":[
		{"url":"https://cdn/video","acodec":"none","vcodec":"avc1"},
		{"url":"https://cdn/muxed","acodec":"mp4a","vcodec":"avc1"},
		{"url":"https://cdn/audio","acodec":"opus","vcodec":"none"},
		{"url":"https://cdn/audio2","acodec":"mp4a","vcodec":"none"}
	]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if info.StreamURL != "https://cdn/audio" {
		t.Fatalf("expected first audio-only format, got %q", info.StreamURL)
	}
}

func TestParseLiveAndPlaylist(t *testing.T) {
	live, err := Parse([]byte(`{"id":"l","is_live":true,"duration":null}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !live.Live || live.HasDuration() {
		t.Fatalf("expected live without duration, got %+v", live)
	}
	list, err := Parse([]byte(`{"_type":"playlist","entries":[{"id":"x"}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !list.Playlist {
		t.Fatal("expected playlist flag")
	}
}

func TestResolveRunsBinary(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "yt-dlp")
	script := "#!/bin/sh\necho '{\"id\":\"x\",\"title\":\"stub\",\"duration\":40,\"url\":\"https://cdn/x\"}'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	info, err := NewClient(stub).Resolve(context.Background(), "https://youtu.be/x")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Title != "stub" || info.Duration != 40 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestResolveReportsStderr(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "yt-dlp")
	script := "#!/bin/sh\necho 'ERROR: Video unavailable' >&2\nexit 1\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	_, err := NewClient(stub).Resolve(context.Background(), "https://youtu.be/x")
	if err == nil || !strings.Contains(err.Error(), "Video unavailable") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestParsePicksDecodableThumbnail(t *testing.T) {
	info, err := Parse([]byte(`{"id":"a","thumbnail":"https://i/a.webp","thumbnails":[
		{"url":"https://i/small.jpg"},
		{"url":"https://i/big.jpg?sqp=1"},
		{"url":"https://i/big.webp"}
	]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if info.Thumbnail != "https://i/big.jpg?sqp=1" {
		t.Fatalf("unexpected thumbnail %q", info.Thumbnail)
	}
}
