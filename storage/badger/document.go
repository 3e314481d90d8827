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
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/SeisSparrow/RAG/core"
	"github.com/SeisSparrow/RAG/storage"
	"github.com/dgraph-io/badger/v4"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// FindSimilar delegates to the backend.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int, filters ...storage.Filter) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit, filters...)
}

// IndexDocument stores doc under a freshly generated ID.
// Writing the same chunk twice produces two documents.
func (r *DocumentRepository) IndexDocument(ctx context.Context, doc *core.IndexDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateDocument(doc); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrIndexRejected, err)
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := r.nextID()
		if err != nil {
			return err
		}
		doc.Id = id
		doc.InsertedAt = time.Now().UTC()
		doc.UpdatedAt = doc.InsertedAt

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentFileKey(doc.FileID, doc.Id), storage.MarshalID(doc.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.IndexDocument, error) {
	var result *core.IndexDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentsByFile retrieves every document of a file, ordered by chunk id.
// Documents without a chunk id sort last.
func (r *DocumentRepository) GetDocumentsByFile(ctx context.Context, fileID core.ID) ([]*core.IndexDocument, error) {
	var results []*core.IndexDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := fileDocumentIDs(tx, fileID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, compareByChunk)
	return results, nil
}

// ListDocuments retrieves every stored document in ID key order.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.IndexDocument, error) {
	var results []*core.IndexDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc *core.IndexDocument
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, doc)
		}
		return nil
	}, false)
	return results, err
}

// UpdateDocuments overwrites existing documents.
// InsertedAt is preserved from the stored copy.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.IndexDocument) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			key := makeDocumentKey(doc.Id)

			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: document %d", storage.ErrNotFound, doc.Id)
			}

			doc.InsertedAt = old.InsertedAt
			doc.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}

			if old.FileID != doc.FileID {
				if err := tx.Delete(makeDocumentFileKey(old.FileID, doc.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeDocumentFileKey(doc.FileID, doc.Id), storage.MarshalID(doc.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteDocumentsByFile removes every document of a file.
func (r *DocumentRepository) DeleteDocumentsByFile(ctx context.Context, fileID core.ID) (int, error) {
	var deleted int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := fileDocumentIDs(tx, fileID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.Delete(makeDocumentKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentFileKey(fileID, id)); err != nil {
				return err
			}
		}
		deleted = len(ids)
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *DocumentRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		if nextID, err = r.idSeq.Next(); err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// fileDocumentIDs collects document IDs from the file index.
func fileDocumentIDs(tx *badger.Txn, fileID core.ID) ([]core.ID, error) {
	prefix := makePartialDocumentFileKey(fileID)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		var id core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func readDocument(tx *badger.Txn, key []byte) (*core.IndexDocument, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.IndexDocument
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

func compareByChunk(a, b *core.IndexDocument) int {
	switch {
	case a.ChunkID == nil && b.ChunkID == nil:
		return cmp.Compare(a.Id, b.Id)
	case a.ChunkID == nil:
		return 1
	case b.ChunkID == nil:
		return -1
	}
	if c := cmp.Compare(*a.ChunkID, *b.ChunkID); c != 0 {
		return c
	}
	return cmp.Compare(a.Id, b.Id)
}
