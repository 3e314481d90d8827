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

package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Transcoder cuts [start, start+duration) out of src into dst without re-encoding.
type Transcoder interface {
	Extract(ctx context.Context, src, dst string, start, duration float64) error
}

// FFmpeg extracts segments with an ffmpeg stream copy.
type FFmpeg struct {
	// Binary is the ffmpeg executable. Empty means "ffmpeg" on PATH.
	Binary string
}

var _ Transcoder = FFmpeg{}

// Extract runs ffmpeg -i src -ss start -t duration -c copy -y dst.
func (f FFmpeg) Extract(ctx context.Context, src, dst string, start, duration float64) error {
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" {
		return ErrEmptyPath
	}
	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary, extractArgs(src, dst, start, duration)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func extractArgs(src, dst string, start, duration float64) []string {
	return []string{
		"-hide_banner", "-v", "error",
		"-i", src,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-c", "copy",
		"-y", dst,
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
