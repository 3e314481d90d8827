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

package mock

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/SeisSparrow/RAG/ai"
	"github.com/SeisSparrow/RAG/core"
)

// MockTranscriber is a test double for ai.Transcriber.
type MockTranscriber struct {
	// TranscribeFunc is called by Transcribe if set.
	// If nil, returns one ten second segment naming the clip.
	TranscribeFunc func(ctx context.Context, name string, audio []byte) (*core.SegmentTranscript, error)

	mu    sync.Mutex
	names []string
}

var _ ai.Transcriber = (*MockTranscriber)(nil)

// NewMockTranscriber creates a mock transcriber with default behavior.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe reads the whole clip and returns the injected or default transcript.
func (m *MockTranscriber) Transcribe(ctx context.Context, name string, r io.Reader) (*core.SegmentTranscript, error) {
	audio, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.names = append(m.names, name)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, name, audio)
	}

	text := fmt.Sprintf("transcript of %s", name)
	return &core.SegmentTranscript{
		Text:     text,
		Language: "english",
		Duration: 10,
		Segments: []core.TranscriptSegment{{Start: 0, End: 10, Text: text}},
	}, nil
}

// CallCount returns the number of clips submitted.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.names)
}

// Names returns the clip names in submission order.
func (m *MockTranscriber) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}
