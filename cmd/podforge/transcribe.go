package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"podforge/internal/audio"
	"podforge/internal/config"
	"podforge/internal/llm"
	"podforge/pkg/logger"
)

// transcribeConcurrency bounds how many files are processed at once.
// Chunks within one file are always sequential; this only fans out across
// independent files.
const transcribeConcurrency = 2

func newTranscribeCmd(cfg **config.Config) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "transcribe <file> [file...]",
		Short: "Transcribe audio files, splitting oversized ones into chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if c.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is not set")
			}

			splitter := audio.NewSplitter(audio.SplitterOptions{
				TempDir:          c.TempDir,
				MaxUploadBytes:   c.MaxUploadBytes,
				TargetChunkBytes: c.TargetChunkBytes,
				AbsoluteMaxBytes: c.AbsoluteMaxBytes,
				MaxChunkSeconds:  c.MaxChunkSeconds,
				MinChunkSeconds:  c.MinChunkSeconds,
			})
			transcriber := audio.NewTranscriber(splitter)
			service := llm.NewService(c.OpenAIAPIKey, c.TranscriptionModel, c.ChatModel)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(transcribeConcurrency)

			for _, path := range args {
				g.Go(func() error {
					buf, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("read %s: %w", path, err)
					}

					merged, err := transcriber.Transcribe(ctx, buf, filepath.Base(path), service.TranscribeChunk)
					if err != nil {
						return err
					}

					outPath := transcriptPath(outDir, path)
					if err := os.WriteFile(outPath, []byte(merged.Text+"\n"), 0o644); err != nil {
						return fmt.Errorf("write %s: %w", outPath, err)
					}

					logger.Info("transcript written",
						"file", path,
						"output", outPath,
						"chunks", merged.ChunkCount,
						"cost_usd", fmt.Sprintf("%.4f", merged.TotalCost))
					return nil
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for transcript output (default: alongside input)")
	return cmd
}

func transcriptPath(outDir, inputPath string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + ".txt"
	if outDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}
	return filepath.Join(outDir, base)
}
