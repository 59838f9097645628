// Package persistence defines the storage contract the vector DB service
// consumes (spec.md §6): CRUD over libraries, documents, and chunks, plus
// the bulk delete-by-parent operations used for cascades. The service
// holds no schema assumptions beyond the shapes defined here.
package persistence

import (
	"context"

	"github.com/liliang-cn/vectordb/internal/model"
)

// Libraries is the persistence contract over the libraries collection.
type Libraries interface {
	Save(ctx context.Context, lib *model.Library) error
	Load(ctx context.Context, id string) (*model.Library, bool, error)
	LoadAll(ctx context.Context) (map[string]*model.Library, error)
	Update(ctx context.Context, id string, patch model.LibraryPatch) (*model.Library, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Documents is the persistence contract over the documents collection.
type Documents interface {
	Save(ctx context.Context, doc *model.Document) error
	Load(ctx context.Context, id string) (*model.Document, bool, error)
	LoadForLibrary(ctx context.Context, libraryID string) ([]*model.Document, error)
	Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteForLibrary(ctx context.Context, libraryID string) (int, error)
}

// Chunks is the persistence contract over the chunks collection.
type Chunks interface {
	Save(ctx context.Context, chunk *model.Chunk) error
	Load(ctx context.Context, id string) (*model.Chunk, bool, error)
	LoadForLibrary(ctx context.Context, libraryID string) ([]*model.Chunk, error)
	LoadForDocument(ctx context.Context, documentID string) ([]*model.Chunk, error)
	Update(ctx context.Context, id string, patch model.ChunkPatch) (*model.Chunk, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteForDocument(ctx context.Context, documentID string) (int, error)
	DeleteForLibrary(ctx context.Context, libraryID string) (int, error)
}

// Store bundles the three collections plus lifecycle management, the
// shape the vectorservice package depends on.
type Store interface {
	Libraries() Libraries
	Documents() Documents
	Chunks() Chunks
	Close() error
}
