package audio

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"podforge/pkg/logger"
)

// chunkSeparator joins per-chunk transcripts in the merged output.
const chunkSeparator = "\n\n"

// ChunkTranscription is the per-chunk result delivered by the injected
// transcription function.
type ChunkTranscription struct {
	Index      int
	Transcript string
	Cost       float64
}

// TranscribeFunc transcribes one chunk. It is supplied by the caller and
// ultimately talks to a speech-to-text provider; this package imposes no
// retry or timeout on it.
type TranscribeFunc func(ctx context.Context, chunk Chunk) (*ChunkTranscription, error)

// MergedTranscript is the final reassembled transcript for one upload.
type MergedTranscript struct {
	Text            string
	TotalCost       float64
	DurationSeconds float64
	ChunkCount      int
}

// Transcriber drives per-chunk transcription over a split upload and
// reassembles the ordered results.
type Transcriber struct {
	splitter *Splitter
}

// NewTranscriber creates a Transcriber on top of a Splitter.
func NewTranscriber(splitter *Splitter) *Transcriber {
	return &Transcriber{splitter: splitter}
}

// Transcribe splits the upload if needed and transcribes each chunk
// sequentially. Sequential execution bounds concurrent provider load and
// keeps per-chunk cost and failure attribution unambiguous. Any chunk
// failure aborts the whole operation; partial transcripts are never
// returned.
func (t *Transcriber) Transcribe(ctx context.Context, buf []byte, filename string, transcribe TranscribeFunc) (*MergedTranscript, error) {
	split, err := t.splitter.SplitIfNeeded(ctx, buf, filename)
	if err != nil {
		return nil, err
	}

	if !split.Chunked {
		result, err := transcribe(ctx, split.Chunks[0])
		if err != nil {
			return nil, fmt.Errorf("transcribe %s: %w", filename, err)
		}
		return &MergedTranscript{
			Text:       strings.TrimSpace(result.Transcript),
			TotalCost:  result.Cost,
			ChunkCount: 1,
		}, nil
	}

	results := make([]ChunkTranscription, 0, len(split.Chunks))
	for _, chunk := range split.Chunks {
		logger.Info("transcribing chunk",
			"file", filename,
			"chunk", chunk.Index,
			"total", len(split.Chunks),
			"size_mb", float64(chunk.Size)/(1024*1024))

		result, err := transcribe(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("transcribe chunk %d of %s: %w", chunk.Index, filename, err)
		}
		result.Index = chunk.Index
		results = append(results, *result)
	}

	merged := MergeResults(results)
	merged.DurationSeconds = split.DurationSeconds

	logger.Info("chunked transcription complete",
		"file", filename,
		"chunks", merged.ChunkCount,
		"cost", merged.TotalCost)

	return merged, nil
}

// MergeResults reassembles per-chunk results into one transcript. Results
// are sorted by index before joining even though chunks are generated and
// processed in order — the sort is an explicit correctness guarantee, so
// the merge stays right under any future execution order.
func MergeResults(results []ChunkTranscription) *MergedTranscript {
	sorted := make([]ChunkTranscription, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	var parts []string
	var totalCost float64
	for _, r := range sorted {
		if text := strings.TrimSpace(r.Transcript); text != "" {
			parts = append(parts, text)
		}
		totalCost += r.Cost
	}

	return &MergedTranscript{
		Text:       strings.Join(parts, chunkSeparator),
		TotalCost:  totalCost,
		ChunkCount: len(sorted),
	}
}
