package vectorservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/liliang-cn/vectordb/internal/apperr"
	"github.com/liliang-cn/vectordb/internal/model"
)

// CreateChunk validates library and document existence and parentage and
// the embedding dimension, persists the chunk, then under the library's
// write lock ensures an index exists and adds the chunk to it.
func (s *Service) CreateChunk(ctx context.Context, libraryID, documentID, text string, embedding []float32, metadata map[string]string) (*model.Chunk, error) {
	lib, found, err := s.store.Libraries().Load(ctx, libraryID)
	if err != nil {
		return nil, fmt.Errorf("create_chunk: %w", err)
	}
	if !found {
		return nil, apperr.New("create_chunk", apperr.KindParentMissing, nil)
	}

	doc, found, err := s.store.Documents().Load(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("create_chunk: %w", err)
	}
	if !found || doc.LibraryID != libraryID {
		return nil, apperr.New("create_chunk", apperr.KindParentMissing, nil)
	}

	if len(embedding) != lib.Dims {
		return nil, apperr.New("create_chunk", apperr.KindDimensionMismatch,
			fmt.Errorf("expected %d dims, got %d", lib.Dims, len(embedding)))
	}

	chunk := &model.Chunk{
		ID:         uuid.NewString(),
		LibraryID:  libraryID,
		DocumentID: documentID,
		Text:       text,
		Embedding:  embedding,
		Metadata:   metadata,
	}
	if err := s.store.Chunks().Save(ctx, chunk); err != nil {
		return nil, fmt.Errorf("create_chunk: %w", err)
	}

	lock := s.lockFor(libraryID)
	lock.Lock()
	defer lock.Unlock()

	idx, err := s.ensureIndexLocked(ctx, lib)
	if err != nil {
		return nil, err
	}
	if err := idx.AddChunk(*chunk); err != nil {
		return nil, fmt.Errorf("create_chunk: %w", err)
	}
	return chunk, nil
}

// CreateChunks inserts multiple chunks into the same library, reusing a
// single write-lock critical section for the in-memory index updates.
func (s *Service) CreateChunks(ctx context.Context, libraryID string, inputs []ChunkInput) ([]*model.Chunk, error) {
	lib, found, err := s.store.Libraries().Load(ctx, libraryID)
	if err != nil {
		return nil, fmt.Errorf("create_chunks: %w", err)
	}
	if !found {
		return nil, apperr.New("create_chunks", apperr.KindParentMissing, nil)
	}

	chunks := make([]*model.Chunk, 0, len(inputs))
	for _, in := range inputs {
		doc, found, err := s.store.Documents().Load(ctx, in.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("create_chunks: %w", err)
		}
		if !found || doc.LibraryID != libraryID {
			return nil, apperr.New("create_chunks", apperr.KindParentMissing, nil)
		}
		if len(in.Embedding) != lib.Dims {
			return nil, apperr.New("create_chunks", apperr.KindDimensionMismatch,
				fmt.Errorf("expected %d dims, got %d", lib.Dims, len(in.Embedding)))
		}
		chunk := &model.Chunk{
			ID:         uuid.NewString(),
			LibraryID:  libraryID,
			DocumentID: in.DocumentID,
			Text:       in.Text,
			Embedding:  in.Embedding,
			Metadata:   in.Metadata,
		}
		if err := s.store.Chunks().Save(ctx, chunk); err != nil {
			return nil, fmt.Errorf("create_chunks: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	lock := s.lockFor(libraryID)
	lock.Lock()
	defer lock.Unlock()

	idx, err := s.ensureIndexLocked(ctx, lib)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if err := idx.AddChunk(*c); err != nil {
			s.logger.Warn("failed to index chunk during batch create", "chunk_id", c.ID, "error", err)
		}
	}
	return chunks, nil
}

// ChunkInput is one element of a CreateChunks batch request.
type ChunkInput struct {
	DocumentID string
	Text       string
	Embedding  []float32
	Metadata   map[string]string
}

// UpdateChunk dimension-validates a changed embedding, updates
// persistence, and if the embedding changed, updates the index under the
// write lock. library_id and document_id are immutable after creation;
// a patch attempting to reparent a chunk is rejected up front.
func (s *Service) UpdateChunk(ctx context.Context, libraryID, chunkID string, patch model.ChunkPatch) (*model.Chunk, error) {
	if patch.LibraryID != nil || patch.DocumentID != nil {
		return nil, apperr.New("update_chunk", apperr.KindInvalidUpdate, fmt.Errorf("library_id and document_id are immutable after creation"))
	}

	existing, found, err := s.store.Chunks().Load(ctx, chunkID)
	if err != nil {
		return nil, fmt.Errorf("update_chunk: %w", err)
	}
	if !found || existing.LibraryID != libraryID {
		return nil, apperr.New("update_chunk", apperr.KindNotFound, nil)
	}

	if patch.Embedding != nil {
		lib, found, err := s.store.Libraries().Load(ctx, libraryID)
		if err != nil {
			return nil, fmt.Errorf("update_chunk: %w", err)
		}
		if !found {
			return nil, apperr.New("update_chunk", apperr.KindParentMissing, nil)
		}
		if len(patch.Embedding) != lib.Dims {
			return nil, apperr.New("update_chunk", apperr.KindDimensionMismatch,
				fmt.Errorf("expected %d dims, got %d", lib.Dims, len(patch.Embedding)))
		}
	}

	updated, found, err := s.store.Chunks().Update(ctx, chunkID, patch)
	if err != nil {
		return nil, fmt.Errorf("update_chunk: %w", err)
	}
	if !found {
		return nil, apperr.New("update_chunk", apperr.KindNotFound, nil)
	}

	if patch.Embedding != nil {
		lock := s.lockFor(libraryID)
		lock.Lock()
		if idx, ok := s.getIndex(libraryID); ok {
			if _, err := idx.UpdateChunk(chunkID, *updated); err != nil {
				lock.Unlock()
				return nil, fmt.Errorf("update_chunk: %w", err)
			}
		}
		lock.Unlock()
	}

	return updated, nil
}

// DeleteChunk deletes the chunk from persistence first; on success, under
// the write lock, removes it from the index if present.
func (s *Service) DeleteChunk(ctx context.Context, libraryID, chunkID string) error {
	existing, found, err := s.store.Chunks().Load(ctx, chunkID)
	if err != nil {
		return fmt.Errorf("delete_chunk: %w", err)
	}
	if !found || existing.LibraryID != libraryID {
		return apperr.New("delete_chunk", apperr.KindNotFound, nil)
	}

	ok, err := s.store.Chunks().Delete(ctx, chunkID)
	if err != nil {
		return fmt.Errorf("delete_chunk: %w", err)
	}
	if !ok {
		return apperr.New("delete_chunk", apperr.KindNotFound, nil)
	}

	lock := s.lockFor(libraryID)
	lock.Lock()
	if idx, ok := s.getIndex(libraryID); ok {
		idx.RemoveChunk(chunkID)
	}
	lock.Unlock()

	return nil
}

// DeleteChunks removes multiple chunks from the same library. Membership
// is validated against libraryID in a first pass, then each validated id
// is deleted in a second pass; no lock is held across the two passes, so
// this is best-effort atomic with respect to membership at validation
// time, not a transaction.
func (s *Service) DeleteChunks(ctx context.Context, libraryID string, chunkIDs []string) (int, error) {
	validIDs := make([]string, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		existing, found, err := s.store.Chunks().Load(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("delete_chunks: %w", err)
		}
		if found && existing.LibraryID == libraryID {
			validIDs = append(validIDs, id)
		}
	}

	deleted := 0
	for _, id := range validIDs {
		ok, err := s.store.Chunks().Delete(ctx, id)
		if err != nil {
			return deleted, fmt.Errorf("delete_chunks: %w", err)
		}
		if ok {
			deleted++
		}
	}

	lock := s.lockFor(libraryID)
	lock.Lock()
	if idx, ok := s.getIndex(libraryID); ok {
		for _, id := range validIDs {
			idx.RemoveChunk(id)
		}
	}
	lock.Unlock()

	return deleted, nil
}
