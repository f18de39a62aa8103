// Package llm wraps the OpenAI API for the two calls this service makes:
// chunk transcription and chat completion. It is the network-bound provider
// layer, so transient-failure retry lives here rather than in the
// preparation core, which fails fast by design.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"podforge/internal/audio"
	"podforge/pkg/logger"
)

// whisperCostPerMinute is the provider's published per-minute price used
// for per-chunk cost estimates.
const whisperCostPerMinute = 0.006

const maxRetryElapsed = 2 * time.Minute

// Service is an explicitly constructed OpenAI client. There is no package
// singleton; callers build one and pass it where needed so tests can
// instantiate isolated instances.
type Service struct {
	client             *openai.Client
	transcriptionModel string
	chatModel          string
}

// NewService creates a Service. Model names left empty take provider
// defaults.
func NewService(apiKey, transcriptionModel, chatModel string) *Service {
	if transcriptionModel == "" {
		transcriptionModel = openai.Whisper1
	}
	if chatModel == "" {
		chatModel = openai.GPT4o
	}
	return &Service{
		client:             openai.NewClient(apiKey),
		transcriptionModel: transcriptionModel,
		chatModel:          chatModel,
	}
}

// TranscribeChunk transcribes one audio chunk. It satisfies
// audio.TranscribeFunc so it can be handed to a Transcriber directly.
func (s *Service) TranscribeChunk(ctx context.Context, chunk audio.Chunk) (*audio.ChunkTranscription, error) {
	var resp openai.AudioResponse

	op := func() error {
		var err error
		resp, err = s.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    s.transcriptionModel,
			FilePath: chunk.Filename,
			Reader:   bytes.NewReader(chunk.Buffer),
			Format:   openai.AudioResponseFormatVerboseJSON,
		})
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			logger.Warn("transcription call failed, will retry", "chunk", chunk.Index, "error", err)
			return err
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxRetryElapsed
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}

	return &audio.ChunkTranscription{
		Index:      chunk.Index,
		Transcript: resp.Text,
		Cost:       resp.Duration / 60 * whisperCostPerMinute,
	}, nil
}

// ChatCompletion sends a system+user message pair and returns the raw
// assistant text. Callers feed the reply to the recovery parser; this
// method does no parsing of its own.
func (s *Service) ChatCompletion(ctx context.Context, system, user string, temperature float32) (string, error) {
	var resp openai.ChatCompletionResponse

	op := func() error {
		var err error
		resp, err = s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.chatModel,
			Temperature: temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		})
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			logger.Warn("chat call failed, will retry", "model", s.chatModel, "error", err)
			return err
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxRetryElapsed
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// retryable reports whether an API failure is worth retrying: server-side
// errors and rate limits are, everything else (auth, bad request) is not.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= http.StatusInternalServerError ||
			apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	// Non-API errors are transport-level (timeouts, resets) and retryable.
	return true
}
