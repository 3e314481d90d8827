// Copyright 2025 SeisSparrow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/core"
	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ErrTranscriptionStatus is returned when the speech-to-text endpoint answers with a non-2xx status.
var ErrTranscriptionStatus = errors.New("transcription request failed")

const defaultTranscriptionTimeout = 10 * time.Minute

// Transcriber implements ai.Transcriber against an OpenAI-compatible
// /audio/transcriptions endpoint, requesting verbose_json with segment timestamps.
type Transcriber struct {
	client     *goopenai.Client
	httpClient *http.Client
	model      string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ ai.Transcriber = (*Transcriber)(nil)

func newTranscriber(config *ai.Config, httpClient *http.Client) (*Transcriber, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTranscriptionTimeout}
	}

	clientConfig := goopenai.DefaultConfig(token(config.APIKey))
	clientConfig.BaseURL = config.TranscriptionHost
	clientConfig.HTTPClient = httpClient

	t := &Transcriber{
		client:     goopenai.NewClientWithConfig(clientConfig),
		httpClient: httpClient,
		model:      config.TranscriptionModel,
		logger:     slog.Default().With("component", "openai-transcriber"),
	}
	if config.TranscriptionRate > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(config.TranscriptionRate), 1)
	}
	return t, nil
}

// NewTranscriber creates a speech-to-text client using the provided configuration.
// A nil client selects an http.Client with a ten minute timeout.
func NewTranscriber(config *ai.Config, client *http.Client) (ai.Transcriber, error) {
	return newTranscriber(config, client)
}

// Transcribe uploads the audio read from r and maps the verbose transcription.
func (t *Transcriber) Transcribe(ctx context.Context, name string, r io.Reader) (*core.SegmentTranscript, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	t.logger.Debug("submitting audio", "name", name)
	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:                  t.model,
		FilePath:               name,
		Reader:                 r,
		Format:                 goopenai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []goopenai.TranscriptionTimestampGranularity{goopenai.TranscriptionTimestampGranularitySegment},
	})
	if err != nil {
		return nil, statusError(err)
	}

	transcript := &core.SegmentTranscript{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: make([]core.TranscriptSegment, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		transcript.Segments = append(transcript.Segments, core.TranscriptSegment{
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}
	t.logger.Debug("audio transcribed", "name", name, "segments", len(transcript.Segments),
		"duration", transcript.Duration, "language", transcript.Language)
	return transcript, nil
}

// statusError tags HTTP failures with ErrTranscriptionStatus and the status code.
func statusError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", ErrTranscriptionStatus, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: status %d: %w", ErrTranscriptionStatus, reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Errorf("transcription request: %w", err)
}
