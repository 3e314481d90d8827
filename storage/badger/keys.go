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

package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/SeisSparrow/RAG/core"
)

// Key prefixes for different data types.
// Prefixes are always followed by ':' so that none is a prefix of another.
const (
	documentPrefix     = "docrec"
	documentFilePrefix = "docfile"
	documentIDSeq      = "docseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentFileKey generates a composite key for the file index.
// Format: prefix:fileID:docID
func makeDocumentFileKey(fileID, docID core.ID) []byte {
	prefixBytes := []byte(documentFilePrefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	// BigEndian keeps one file's entries contiguous
	binary.BigEndian.PutUint64(buf[offset:], uint64(fileID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}

// makePartialDocumentFileKey generates the prefix of every file index key for fileID.
// Format: prefix:fileID
func makePartialDocumentFileKey(fileID core.ID) []byte {
	prefixBytes := []byte(documentFilePrefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(fileID))
	return buf
}
