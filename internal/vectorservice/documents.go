package vectorservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/liliang-cn/vectordb/internal/apperr"
	"github.com/liliang-cn/vectordb/internal/model"
)

// CreateDocument persists a new document under libraryID, failing with
// parent-missing if the library does not exist.
func (s *Service) CreateDocument(ctx context.Context, libraryID, title string, metadata map[string]string) (*model.Document, error) {
	if _, found, err := s.store.Libraries().Load(ctx, libraryID); err != nil {
		return nil, fmt.Errorf("create_document: %w", err)
	} else if !found {
		return nil, apperr.New("create_document", apperr.KindParentMissing, nil)
	}

	doc := &model.Document{
		ID:        uuid.NewString(),
		LibraryID: libraryID,
		Title:     title,
		Metadata:  metadata,
	}
	if err := s.store.Documents().Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("create_document: %w", err)
	}
	return doc, nil
}

// GetDocument is a pure persistence read.
func (s *Service) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	doc, found, err := s.store.Documents().Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_document: %w", err)
	}
	if !found {
		return nil, apperr.New("get_document", apperr.KindNotFound, nil)
	}
	return doc, nil
}

// ListDocuments returns every document belonging to libraryID.
func (s *Service) ListDocuments(ctx context.Context, libraryID string) ([]*model.Document, error) {
	docs, err := s.store.Documents().LoadForLibrary(ctx, libraryID)
	if err != nil {
		return nil, fmt.Errorf("list_documents: %w", err)
	}
	return docs, nil
}

// UpdateDocument applies patch. library_id is immutable after creation;
// a patch attempting to move a document between libraries is rejected
// before reaching persistence.
func (s *Service) UpdateDocument(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error) {
	if patch.LibraryID != nil {
		return nil, apperr.New("update_document", apperr.KindInvalidUpdate, fmt.Errorf("library_id is immutable after creation"))
	}

	doc, found, err := s.store.Documents().Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update_document: %w", err)
	}
	if !found {
		return nil, apperr.New("update_document", apperr.KindNotFound, nil)
	}
	return doc, nil
}

// DeleteDocument verifies documentID belongs to libraryID, removes every
// chunk of that document from the in-memory index under the library's
// write lock, then cascades the chunk and document deletes in
// persistence.
func (s *Service) DeleteDocument(ctx context.Context, libraryID, documentID string) error {
	doc, found, err := s.store.Documents().Load(ctx, documentID)
	if err != nil {
		return fmt.Errorf("delete_document: %w", err)
	}
	if !found {
		return apperr.New("delete_document", apperr.KindNotFound, nil)
	}
	if doc.LibraryID != libraryID {
		return apperr.New("delete_document", apperr.KindNotFound, nil)
	}

	lock := s.lockFor(libraryID)
	lock.Lock()
	if idx, ok := s.getIndex(libraryID); ok {
		chunks, err := s.store.Chunks().LoadForDocument(ctx, documentID)
		if err != nil {
			lock.Unlock()
			return fmt.Errorf("delete_document: load chunks: %w", err)
		}
		for _, c := range chunks {
			idx.RemoveChunk(c.ID)
		}
	}
	lock.Unlock()

	if _, err := s.store.Chunks().DeleteForDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete_document: cascade chunks: %w", err)
	}
	ok, err := s.store.Documents().Delete(ctx, documentID)
	if err != nil {
		return fmt.Errorf("delete_document: %w", err)
	}
	if !ok {
		return apperr.New("delete_document", apperr.KindNotFound, nil)
	}
	return nil
}
