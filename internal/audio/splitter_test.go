package audio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitIfNeeded_SmallFilePassthrough(t *testing.T) {
	s := NewSplitter(SplitterOptions{MaxUploadBytes: 25 * 1024 * 1024})

	buf := bytes.Repeat([]byte{0xAB}, 10*1024*1024)
	result, err := s.SplitIfNeeded(context.Background(), buf, "episode.mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Chunked {
		t.Error("10MB file under a 25MB limit should not be chunked")
	}
	if len(result.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(result.Chunks))
	}
	chunk := result.Chunks[0]
	if chunk.Index != 0 || chunk.Filename != "episode.mp3" || !bytes.Equal(chunk.Buffer, buf) {
		t.Error("passthrough chunk should be the input unchanged")
	}
	if chunk.Size != int64(len(buf)) {
		t.Errorf("chunk size = %d, want %d", chunk.Size, len(buf))
	}
}

func TestSplitIfNeeded_AbsoluteCeiling(t *testing.T) {
	s := NewSplitter(SplitterOptions{
		MaxUploadBytes:   64,
		AbsoluteMaxBytes: 128,
	})

	_, err := s.SplitIfNeeded(context.Background(), make([]byte, 256), "huge.mp3")
	if err == nil {
		t.Fatal("expected error for file beyond the absolute ceiling")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Capability != "upload size" {
		t.Errorf("capability = %q", cfgErr.Capability)
	}
}

func TestChunkDuration(t *testing.T) {
	s := NewSplitter(SplitterOptions{
		TargetChunkBytes: 20 * 1024 * 1024,
		MaxChunkSeconds:  20 * 60,
		MinChunkSeconds:  60,
	})

	tests := []struct {
		name     string
		size     int64
		duration float64
		want     float64
	}{
		// 60MB over 30 min: ~34952 B/s, 20MB target => 600s chunks.
		{"typical podcast", 60 * 1024 * 1024, 1800, 600},
		// Low bitrate: raw target exceeds the 20 min cap.
		{"low bitrate capped", 30 * 1024 * 1024, 7200, 1200},
		// Very high bitrate: floor at one minute.
		{"high bitrate floored", 600 * 1024 * 1024, 600, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.chunkDuration(tt.size, tt.duration)
			if got < tt.want-1 || got > tt.want+1 {
				t.Errorf("chunkDuration(%d, %.0f) = %.1f, want ~%.1f", tt.size, tt.duration, got, tt.want)
			}
		})
	}
}

func TestChunkDuration_YieldsChunksUnderTarget(t *testing.T) {
	s := NewSplitter(SplitterOptions{
		TargetChunkBytes: 20 * 1024 * 1024,
		MaxChunkSeconds:  20 * 60,
		MinChunkSeconds:  60,
	})

	// 60MB / 1 hour: every chunk at the computed duration must come out at
	// or under the target size (modulo bitrate estimation error).
	size := int64(60 * 1024 * 1024)
	duration := 3600.0
	chunkSec := s.chunkDuration(size, duration)

	bytesPerSecond := float64(size) / duration
	chunkBytes := chunkSec * bytesPerSecond
	if chunkBytes > float64(s.opts.TargetChunkBytes)*1.01 {
		t.Errorf("chunk of %.0fs is %.0f bytes, exceeds target %d", chunkSec, chunkBytes, s.opts.TargetChunkBytes)
	}

	expectedChunks := int(duration/chunkSec) + 1
	if expectedChunks < 3 || expectedChunks > 4 {
		t.Errorf("60MB at 20MB target should produce 3-4 chunks, got %d", expectedChunks)
	}
}

func TestCollectChunks_OrderedByName(t *testing.T) {
	dir := t.TempDir()

	// Written out of order; lexical collection must restore chronology.
	for _, f := range []struct {
		name string
		body string
	}{
		{"chunk_002.mp3", "third"},
		{"chunk_000.mp3", "first"},
		{"chunk_001.mp3", "second"},
		{"input.mp3", "ignored"},
		{"notes.txt", "ignored"},
	} {
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(f.body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	s := NewSplitter(SplitterOptions{})
	chunks, err := s.collectChunks(dir, ".mp3", "episode.mp3")
	if err != nil {
		t.Fatalf("collectChunks: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []string{"first", "second", "third"} {
		if chunks[i].Index != i {
			t.Errorf("chunks[%d].Index = %d", i, chunks[i].Index)
		}
		if string(chunks[i].Buffer) != want {
			t.Errorf("chunks[%d] body = %q, want %q", i, chunks[i].Buffer, want)
		}
	}
	if chunks[1].Filename != "episode_chunk_001.mp3" {
		t.Errorf("chunk filename = %q", chunks[1].Filename)
	}
}

func TestNewSplitter_Defaults(t *testing.T) {
	s := NewSplitter(SplitterOptions{})

	if s.opts.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Errorf("MaxUploadBytes = %d", s.opts.MaxUploadBytes)
	}
	if s.opts.TargetChunkBytes != DefaultTargetChunkBytes {
		t.Errorf("TargetChunkBytes = %d", s.opts.TargetChunkBytes)
	}
	if s.opts.MaxChunkSeconds != DefaultMaxChunkSeconds {
		t.Errorf("MaxChunkSeconds = %f", s.opts.MaxChunkSeconds)
	}
}
