package vectorservice

import (
	"context"
	"fmt"

	"github.com/liliang-cn/vectordb/internal/apperr"
)

// Search checks library existence and query dimension, ensures the
// in-memory index is materialized under the write lock (the same
// index-as-cache-projection path CreateChunk/UpdateChunk use, so a
// library touched for the first time after a restart self-heals here
// too), then searches it under the read lock. If includeChunk is set,
// results are hydrated from persistence AFTER releasing the lock.
func (s *Service) Search(ctx context.Context, libraryID string, query []float32, k int, includeChunk bool, metadataFilters map[string]string) ([]SearchResult, error) {
	lib, found, err := s.store.Libraries().Load(ctx, libraryID)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if !found {
		return nil, apperr.New("search", apperr.KindParentMissing, nil)
	}
	if len(query) != lib.Dims {
		return nil, apperr.New("search", apperr.KindDimensionMismatch,
			fmt.Errorf("expected %d dims, got %d", lib.Dims, len(query)))
	}

	lock := s.lockFor(libraryID)

	lock.Lock()
	idx, err := s.ensureIndexLocked(ctx, lib)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	lock.RLock()
	hits, err := idx.Search(query, k, metadataFilters)
	lock.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		results[i] = SearchResult{ChunkID: h.ChunkID, Score: h.Score}
	}

	if includeChunk {
		for i := range results {
			chunk, found, err := s.store.Chunks().Load(ctx, results[i].ChunkID)
			if err != nil {
				return nil, fmt.Errorf("search: hydrate chunk %s: %w", results[i].ChunkID, err)
			}
			if found {
				results[i].Chunk = chunk
			}
		}
	}

	return results, nil
}
