package vectorservice

import (
	"context"
	"fmt"

	"github.com/liliang-cn/vectordb/internal/apperr"
)

// LibraryStats reports document/chunk counts alongside the index's own
// introspection snapshot, a supplemented read-only operation layered on
// top of the core contract for observability.
type LibraryStats struct {
	LibraryID     string
	DocumentCount int
	ChunkCount    int
	IndexBuilt    bool
	Index         map[string]any
}

// GetLibraryStats returns LibraryStats for libraryID. No write lock is
// required: document/chunk counts come from persistence, and the index
// snapshot is taken under the read lock. IndexBuilt reports whether the
// in-memory index is currently materialized, without materializing it —
// unlike Search, stats must not have the side effect of building the
// index it is reporting on.
func (s *Service) GetLibraryStats(ctx context.Context, libraryID string) (*LibraryStats, error) {
	if _, found, err := s.store.Libraries().Load(ctx, libraryID); err != nil {
		return nil, fmt.Errorf("get_library_stats: %w", err)
	} else if !found {
		return nil, apperr.New("get_library_stats", apperr.KindNotFound, nil)
	}

	docs, err := s.store.Documents().LoadForLibrary(ctx, libraryID)
	if err != nil {
		return nil, fmt.Errorf("get_library_stats: %w", err)
	}
	chunks, err := s.store.Chunks().LoadForLibrary(ctx, libraryID)
	if err != nil {
		return nil, fmt.Errorf("get_library_stats: %w", err)
	}

	stats := &LibraryStats{
		LibraryID:     libraryID,
		DocumentCount: len(docs),
		ChunkCount:    len(chunks),
	}

	lock := s.lockFor(libraryID)
	lock.RLock()
	if idx, ok := s.getIndex(libraryID); ok {
		stats.IndexBuilt = true
		stats.Index = idx.Stats()
	}
	lock.RUnlock()

	return stats, nil
}
