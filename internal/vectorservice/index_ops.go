package vectorservice

import (
	"context"
	"fmt"

	"github.com/liliang-cn/vectordb/internal/apperr"
)

// RebuildIndex validates that the library's index_type is still
// registered, builds a fresh index from persisted chunks without holding
// any lock (reading persistence for a projection is safe to do
// concurrently), then swaps it in under the write lock. The previous
// index is discarded.
func (s *Service) RebuildIndex(ctx context.Context, libraryID string) error {
	lib, found, err := s.store.Libraries().Load(ctx, libraryID)
	if err != nil {
		return fmt.Errorf("rebuild_index: %w", err)
	}
	if !found {
		return apperr.New("rebuild_index", apperr.KindNotFound, nil)
	}
	if !s.registry.Has(lib.IndexType) {
		return apperr.New("rebuild_index", apperr.KindUnsupportedIndex, nil)
	}

	newIdx, err := s.registry.New(lib.IndexType, lib.Dims)
	if err != nil {
		return apperr.New("rebuild_index", apperr.KindUnsupportedIndex, err)
	}

	chunks, err := s.store.Chunks().LoadForLibrary(ctx, libraryID)
	if err != nil {
		return fmt.Errorf("rebuild_index: load chunks: %w", err)
	}
	for _, c := range chunks {
		if err := newIdx.AddChunk(*c); err != nil {
			s.logger.Warn("skipping chunk during rebuild", "library_id", libraryID, "chunk_id", c.ID, "error", err)
		}
	}

	lock := s.lockFor(libraryID)
	lock.Lock()
	s.setIndex(libraryID, newIdx, lib.IndexType)
	lock.Unlock()

	return nil
}

// TrainIndex validates library and registry support, then under the
// write lock invokes the index's Train. If sample is empty and the
// index variant has no cached vectors, fails with nothing-to-train.
func (s *Service) TrainIndex(ctx context.Context, libraryID string, sample [][]float32) error {
	lib, found, err := s.store.Libraries().Load(ctx, libraryID)
	if err != nil {
		return fmt.Errorf("train_index: %w", err)
	}
	if !found {
		return apperr.New("train_index", apperr.KindNotFound, nil)
	}
	if !s.registry.Has(lib.IndexType) {
		return apperr.New("train_index", apperr.KindUnsupportedIndex, nil)
	}

	lock := s.lockFor(libraryID)
	lock.Lock()
	defer lock.Unlock()

	idx, ok := s.getIndex(libraryID)
	if !ok {
		return apperr.New("train_index", apperr.KindNoIndex, nil)
	}

	if len(sample) == 0 {
		cached, _ := idx.Stats()["size"].(int)
		if cached == 0 {
			return apperr.New("train_index", apperr.KindNothingToTrain, nil)
		}
	}

	if err := idx.Train(sample); err != nil {
		return fmt.Errorf("train_index: %w", err)
	}
	return nil
}
