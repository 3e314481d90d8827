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
	"fmt"
	"os"
)

// DefaultSizeLimit is the largest payload the speech-to-text service accepts.
const DefaultSizeLimit int64 = 25 * 1024 * 1024

// SizeGate reports whether a file must be split before transcription.
type SizeGate struct {
	Limit int64
}

// NewSizeGate returns a gate with the given limit in bytes.
// A non-positive limit selects DefaultSizeLimit.
func NewSizeGate(limit int64) SizeGate {
	if limit <= 0 {
		limit = DefaultSizeLimit
	}
	return SizeGate{Limit: limit}
}

// SplitRequired reports whether a payload of size bytes exceeds the limit.
func (g SizeGate) SplitRequired(size int64) bool {
	return size > g.limit()
}

// NeedsSplit stats path and reports whether it exceeds the limit.
func (g SizeGate) NeedsSplit(path string) (bool, error) {
	if path == "" {
		return false, ErrEmptyPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return g.SplitRequired(info.Size()), nil
}

func (g SizeGate) limit() int64 {
	if g.Limit <= 0 {
		return DefaultSizeLimit
	}
	return g.Limit
}
