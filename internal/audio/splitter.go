// Package audio makes oversized uploads tractable for transcription
// providers: it probes duration, splits files that exceed the provider's
// single-file limit into time-bounded chunks via ffmpeg, and merges ordered
// per-chunk transcription results back into one transcript.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"podforge/pkg/logger"
)

const (
	// DefaultMaxUploadBytes is the provider's hard single-file limit (25 MB).
	DefaultMaxUploadBytes = 25 * 1024 * 1024
	// DefaultTargetChunkBytes is the desired chunk size, with margin under
	// the upload limit.
	DefaultTargetChunkBytes = 20 * 1024 * 1024
	// DefaultAbsoluteMaxBytes is the ceiling beyond which files are
	// rejected rather than split.
	DefaultAbsoluteMaxBytes = 500 * 1024 * 1024
	// DefaultMaxChunkSeconds caps chunk duration regardless of bitrate.
	DefaultMaxChunkSeconds = 20 * 60
	// DefaultMinChunkSeconds floors chunk duration so segmentation never
	// produces confetti.
	DefaultMinChunkSeconds = 60
)

// Chunk is one time-bounded segment of an upload, held in memory for the
// duration of a transcription request. Index order is the load-bearing
// invariant: chunks must be transcribed and reassembled in index order.
type Chunk struct {
	Buffer   []byte
	Filename string
	Index    int
	Size     int64
}

// SplitResult is the outcome of SplitIfNeeded. DurationSeconds is only
// known when the file was actually probed (i.e. when Chunked is true).
type SplitResult struct {
	Chunked         bool
	Chunks          []Chunk
	DurationSeconds float64
}

// SplitterOptions configures a Splitter. Zero values take the package
// defaults.
type SplitterOptions struct {
	TempDir          string
	MaxUploadBytes   int64
	TargetChunkBytes int64
	AbsoluteMaxBytes int64
	MaxChunkSeconds  float64
	MinChunkSeconds  float64
}

// Splitter splits oversized audio uploads into provider-sized chunks using
// the external ffmpeg toolchain. All temporary state is scoped to a single
// call and removed on every exit path.
type Splitter struct {
	opts SplitterOptions
}

// NewSplitter creates a Splitter, applying defaults for unset options.
func NewSplitter(opts SplitterOptions) *Splitter {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.TargetChunkBytes <= 0 {
		opts.TargetChunkBytes = DefaultTargetChunkBytes
	}
	if opts.AbsoluteMaxBytes <= 0 {
		opts.AbsoluteMaxBytes = DefaultAbsoluteMaxBytes
	}
	if opts.MaxChunkSeconds <= 0 {
		opts.MaxChunkSeconds = DefaultMaxChunkSeconds
	}
	if opts.MinChunkSeconds <= 0 {
		opts.MinChunkSeconds = DefaultMinChunkSeconds
	}
	return &Splitter{opts: opts}
}

// SplitIfNeeded returns the buffer as a single unchanged chunk when it is
// within the provider limit. Otherwise it persists the buffer to a unique
// temporary directory, probes its duration, segments it by time with stream
// copy (no re-encode), and returns the segment buffers in chronological
// order. The temporary directory is removed before returning, success or
// failure.
func (s *Splitter) SplitIfNeeded(ctx context.Context, buf []byte, filename string) (*SplitResult, error) {
	size := int64(len(buf))

	if size > s.opts.AbsoluteMaxBytes {
		return nil, &ConfigError{
			Capability: "upload size",
			Detail: fmt.Sprintf("file %q is %d bytes, beyond the absolute ceiling of %d bytes",
				filename, size, s.opts.AbsoluteMaxBytes),
		}
	}

	if size <= s.opts.MaxUploadBytes {
		return &SplitResult{
			Chunked: false,
			Chunks:  []Chunk{{Buffer: buf, Filename: filename, Index: 0, Size: size}},
		}, nil
	}

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return nil, &ConfigError{
				Capability: tool,
				Detail:     fmt.Sprintf("%s is required to split files over %d bytes but was not found in PATH", tool, s.opts.MaxUploadBytes),
			}
		}
	}

	workDir := filepath.Join(s.opts.TempDir, "podforge-split-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("failed to remove work directory", "dir", workDir, "error", err)
		}
	}()

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".mp3"
	}
	inputPath := filepath.Join(workDir, "input"+ext)
	if err := os.WriteFile(inputPath, buf, 0o600); err != nil {
		return nil, fmt.Errorf("write input file: %w", err)
	}

	duration, err := s.ProbeDuration(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	chunkSeconds := s.chunkDuration(size, duration)
	logger.Info("splitting audio file",
		"file", filename,
		"size_mb", float64(size)/(1024*1024),
		"duration_sec", duration,
		"chunk_sec", chunkSeconds)

	// Stream copy keeps segmentation fast and bit-exact; segment boundaries
	// land on the nearest keyframe/packet, which is fine for speech.
	outputPattern := filepath.Join(workDir, "chunk_%03d"+ext)
	args := []string{
		"-i", inputPath,
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%.0f", chunkSeconds),
		"-c", "copy",
		"-reset_timestamps", "1",
		"-map", "0:a",
		outputPattern,
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, &ProcessError{Tool: "ffmpeg", Stderr: tail(output), Err: err}
	}

	chunks, err := s.collectChunks(workDir, ext, filename)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, &ProcessError{
			Tool: "ffmpeg",
			Err:  errors.New("segmentation produced no output files"),
		}
	}

	logger.Info("audio split complete", "chunks", len(chunks), "duration_sec", duration)

	return &SplitResult{
		Chunked:         true,
		Chunks:          chunks,
		DurationSeconds: duration,
	}, nil
}

// ProbeDuration returns the duration of an audio file in seconds via
// ffprobe.
func (s *Splitter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)

	output, err := cmd.Output()
	if err != nil {
		stderr := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = tail(exitErr.Stderr)
		}
		return 0, &ProcessError{Tool: "ffprobe", Stderr: stderr, Err: err}
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, &ProcessError{Tool: "ffprobe", Err: fmt.Errorf("unparseable duration %q: %w", strings.TrimSpace(string(output)), err)}
	}
	if duration <= 0 {
		return 0, &ProcessError{Tool: "ffprobe", Err: fmt.Errorf("non-positive duration %.3f", duration)}
	}
	return duration, nil
}

// chunkDuration solves for the segment duration that yields the target
// chunk size at the file's estimated bitrate, clamped to the configured
// duration bounds.
func (s *Splitter) chunkDuration(sizeBytes int64, durationSeconds float64) float64 {
	bytesPerSecond := float64(sizeBytes) / durationSeconds
	target := float64(s.opts.TargetChunkBytes) / bytesPerSecond

	if target < s.opts.MinChunkSeconds {
		target = s.opts.MinChunkSeconds
	}
	if target > s.opts.MaxChunkSeconds {
		target = s.opts.MaxChunkSeconds
	}
	return target
}

// collectChunks reads the segment files produced by ffmpeg into memory.
// The chunk_%03d naming makes lexical order chronological order.
func (s *Splitter) collectChunks(workDir, ext, originalName string) ([]Chunk, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, fmt.Errorf("read work directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "chunk_") || !strings.HasSuffix(name, ext) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	base := strings.TrimSuffix(filepath.Base(originalName), ext)
	chunks := make([]Chunk, 0, len(names))
	for i, name := range names {
		buf, err := os.ReadFile(filepath.Join(workDir, name))
		if err != nil {
			return nil, fmt.Errorf("read chunk %s: %w", name, err)
		}
		chunks = append(chunks, Chunk{
			Buffer:   buf,
			Filename: fmt.Sprintf("%s_chunk_%03d%s", base, i, ext),
			Index:    i,
			Size:     int64(len(buf)),
		})
	}
	return chunks, nil
}
