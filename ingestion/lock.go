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

package ingestion

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SeisSparrow/RAG/core"
	"github.com/gofrs/flock"
)

// lockFile returns the path of the ingest lock for a file identity.
func lockFile(dir string, fileID core.ID) string {
	return filepath.Join(dir, fmt.Sprintf("ingest-%016x.lock", uint64(fileID)))
}

// acquireLock takes an exclusive, non-blocking lock on fileID.
// The lock spans processes as well as goroutines of this one.
func acquireLock(dir string, fileID core.ID) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock := flock.New(lockFile(dir, fileID))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIngestInProgress, lock.Path())
	}
	return lock, nil
}
