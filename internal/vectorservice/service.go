// Package vectorservice implements the per-library vector database
// service: it composes a persistence.Store with one pkg/index.Index per
// library behind a writer-preferring rwlock.RWLock, following the
// teacher's SQLiteStore composition of index + storage + locking in
// pkg/core/store.go, generalized from a single-collection store to a
// multi-library one.
package vectorservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/liliang-cn/vectordb/internal/apperr"
	"github.com/liliang-cn/vectordb/internal/corelog"
	"github.com/liliang-cn/vectordb/internal/model"
	"github.com/liliang-cn/vectordb/internal/persistence"
	"github.com/liliang-cn/vectordb/internal/rwlock"
	"github.com/liliang-cn/vectordb/pkg/index"
)

// Service is the vector database core described in spec: one index per
// library, a process-wide mutex guarding the bookkeeping maps, and a
// per-library write-preferring RW lock guarding index mutation.
type Service struct {
	store            persistence.Store
	registry         *index.Registry
	defaultIndexType string
	logger           corelog.Logger

	mu           sync.Mutex
	indexes      map[string]index.Index
	indexLocks   map[string]*rwlock.RWLock
	libIndexType map[string]string
}

// New builds a Service backed by store, using registry to materialize
// indexes and falling back to defaultIndexType for unknown/unset types.
func New(store persistence.Store, registry *index.Registry, defaultIndexType string, logger corelog.Logger) *Service {
	if logger == nil {
		logger = corelog.Nop()
	}
	return &Service{
		store:            store,
		registry:         registry,
		defaultIndexType: defaultIndexType,
		logger:           logger,
		indexes:          make(map[string]index.Index),
		indexLocks:       make(map[string]*rwlock.RWLock),
		libIndexType:     make(map[string]string),
	}
}

// SearchResult is one hit returned by Search, optionally hydrated with
// its full chunk.
type SearchResult struct {
	ChunkID string
	Score   float64
	Chunk   *model.Chunk
}

func (s *Service) lockFor(libraryID string) *rwlock.RWLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.indexLocks[libraryID]
	if !ok {
		l = rwlock.New()
		s.indexLocks[libraryID] = l
	}
	return l
}

func (s *Service) getIndex(libraryID string) (index.Index, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[libraryID]
	return idx, ok
}

func (s *Service) setIndex(libraryID string, idx index.Index, indexType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[libraryID] = idx
	s.libIndexType[libraryID] = indexType
}

func (s *Service) dropIndex(libraryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, libraryID)
	delete(s.indexLocks, libraryID)
	delete(s.libIndexType, libraryID)
}

// resolveIndexType returns indexType if it is registered, the service
// default otherwise.
func (s *Service) resolveIndexType(indexType string) string {
	if indexType != "" && s.registry.Has(indexType) {
		return indexType
	}
	return s.defaultIndexType
}

// ensureIndexLocked materializes the in-memory index for lib if absent,
// populating it from persisted chunks. Callers must hold lib's write
// lock. This is the only path that creates an index outside
// CreateLibrary, so a crashed-and-restarted process self-heals the first
// time a library is touched again — except IVF, whose centroids are not
// persisted and must be retrained explicitly.
func (s *Service) ensureIndexLocked(ctx context.Context, lib *model.Library) (index.Index, error) {
	if idx, ok := s.getIndex(lib.ID); ok {
		return idx, nil
	}

	idx, err := s.registry.New(lib.IndexType, lib.Dims)
	if err != nil {
		return nil, apperr.New("ensure_index", apperr.KindUnsupportedIndex, err)
	}

	chunks, err := s.store.Chunks().LoadForLibrary(ctx, lib.ID)
	if err != nil {
		return nil, fmt.Errorf("ensure_index: load chunks for library %s: %w", lib.ID, err)
	}
	for _, c := range chunks {
		if err := idx.AddChunk(*c); err != nil {
			s.logger.Warn("skipping chunk while rebuilding index", "library_id", lib.ID, "chunk_id", c.ID, "error", err)
		}
	}

	s.setIndex(lib.ID, idx, lib.IndexType)
	return idx, nil
}

// CreateLibrary persists a new library and creates its empty index.
func (s *Service) CreateLibrary(ctx context.Context, name string, dims int, indexType string, metadata map[string]string) (*model.Library, error) {
	resolved := s.resolveIndexType(indexType)

	lib := &model.Library{
		ID:        uuid.NewString(),
		Name:      name,
		Dims:      dims,
		IndexType: resolved,
		Metadata:  metadata,
	}

	if err := s.store.Libraries().Save(ctx, lib); err != nil {
		return nil, fmt.Errorf("create_library: %w", err)
	}

	idx, err := s.registry.New(resolved, dims)
	if err != nil {
		return nil, apperr.New("create_library", apperr.KindUnsupportedIndex, err)
	}
	s.setIndex(lib.ID, idx, resolved)
	s.lockFor(lib.ID)

	return lib, nil
}

// GetLibrary loads a library by id. No library lock is required: this is
// a pure persistence read.
func (s *Service) GetLibrary(ctx context.Context, id string) (*model.Library, error) {
	lib, found, err := s.store.Libraries().Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_library: %w", err)
	}
	if !found {
		return nil, apperr.New("get_library", apperr.KindNotFound, nil)
	}
	return lib, nil
}

// ListLibraries returns a snapshot sequence of all libraries.
func (s *Service) ListLibraries(ctx context.Context) ([]*model.Library, error) {
	all, err := s.store.Libraries().LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_libraries: %w", err)
	}
	out := make([]*model.Library, 0, len(all))
	for _, lib := range all {
		out = append(out, lib)
	}
	return out, nil
}

// UpdateLibrary applies patch. dims is immutable after creation; a
// patch attempting to set it is rejected before reaching persistence.
func (s *Service) UpdateLibrary(ctx context.Context, id string, patch model.LibraryPatch) (*model.Library, error) {
	if patch.Dims != nil {
		return nil, apperr.New("update_library", apperr.KindInvalidUpdate, fmt.Errorf("dims is immutable after creation"))
	}

	lib, found, err := s.store.Libraries().Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update_library: %w", err)
	}
	if !found {
		return nil, apperr.New("update_library", apperr.KindNotFound, nil)
	}
	return lib, nil
}

// DeleteLibrary removes the library and every dependent document and
// chunk, then drops the in-memory index, its lock, and the type cache.
func (s *Service) DeleteLibrary(ctx context.Context, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.Chunks().DeleteForLibrary(ctx, id); err != nil {
		return fmt.Errorf("delete_library: cascade chunks: %w", err)
	}
	if _, err := s.store.Documents().DeleteForLibrary(ctx, id); err != nil {
		return fmt.Errorf("delete_library: cascade documents: %w", err)
	}

	ok, err := s.store.Libraries().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete_library: %w", err)
	}
	if !ok {
		return apperr.New("delete_library", apperr.KindNotFound, nil)
	}

	s.dropIndex(id)
	return nil
}
