package vectorservice

import (
	"context"
	"sync"

	"github.com/liliang-cn/vectordb/internal/model"
	"github.com/liliang-cn/vectordb/internal/persistence"
)

// memStore is a minimal in-memory persistence.Store for exercising the
// service without a real database, following the teacher's preference
// for testing the composing layer against a fake rather than a live
// SQLite file wherever the test doesn't care about SQL specifics.
type memStore struct {
	mu        sync.Mutex
	libraries map[string]*model.Library
	documents map[string]*model.Document
	chunks    map[string]*model.Chunk
}

func newMemStore() *memStore {
	return &memStore{
		libraries: make(map[string]*model.Library),
		documents: make(map[string]*model.Document),
		chunks:    make(map[string]*model.Chunk),
	}
}

func (m *memStore) Libraries() persistence.Libraries { return &memLibraries{m} }
func (m *memStore) Documents() persistence.Documents { return &memDocuments{m} }
func (m *memStore) Chunks() persistence.Chunks       { return &memChunks{m} }
func (m *memStore) Close() error                     { return nil }

type memLibraries struct{ s *memStore }

func (l *memLibraries) Save(_ context.Context, lib *model.Library) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	cp := *lib
	l.s.libraries[lib.ID] = &cp
	return nil
}

func (l *memLibraries) Load(_ context.Context, id string) (*model.Library, bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	lib, ok := l.s.libraries[id]
	if !ok {
		return nil, false, nil
	}
	cp := *lib
	return &cp, true, nil
}

func (l *memLibraries) LoadAll(_ context.Context) (map[string]*model.Library, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	out := make(map[string]*model.Library, len(l.s.libraries))
	for id, lib := range l.s.libraries {
		cp := *lib
		out[id] = &cp
	}
	return out, nil
}

func (l *memLibraries) Update(_ context.Context, id string, patch model.LibraryPatch) (*model.Library, bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	lib, ok := l.s.libraries[id]
	if !ok {
		return nil, false, nil
	}
	if patch.Name != nil {
		lib.Name = *patch.Name
	}
	if patch.Metadata != nil {
		lib.Metadata = patch.Metadata
	}
	cp := *lib
	return &cp, true, nil
}

func (l *memLibraries) Delete(_ context.Context, id string) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	_, ok := l.s.libraries[id]
	delete(l.s.libraries, id)
	return ok, nil
}

type memDocuments struct{ s *memStore }

func (d *memDocuments) Save(_ context.Context, doc *model.Document) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	cp := *doc
	d.s.documents[doc.ID] = &cp
	return nil
}

func (d *memDocuments) Load(_ context.Context, id string) (*model.Document, bool, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	doc, ok := d.s.documents[id]
	if !ok {
		return nil, false, nil
	}
	cp := *doc
	return &cp, true, nil
}

func (d *memDocuments) LoadForLibrary(_ context.Context, libraryID string) ([]*model.Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var out []*model.Document
	for _, doc := range d.s.documents {
		if doc.LibraryID == libraryID {
			cp := *doc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (d *memDocuments) Update(_ context.Context, id string, patch model.DocumentPatch) (*model.Document, bool, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	doc, ok := d.s.documents[id]
	if !ok {
		return nil, false, nil
	}
	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.Metadata != nil {
		doc.Metadata = patch.Metadata
	}
	cp := *doc
	return &cp, true, nil
}

func (d *memDocuments) Delete(_ context.Context, id string) (bool, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	_, ok := d.s.documents[id]
	delete(d.s.documents, id)
	return ok, nil
}

func (d *memDocuments) DeleteForLibrary(_ context.Context, libraryID string) (int, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	n := 0
	for id, doc := range d.s.documents {
		if doc.LibraryID == libraryID {
			delete(d.s.documents, id)
			n++
		}
	}
	return n, nil
}

type memChunks struct{ s *memStore }

func (c *memChunks) Save(_ context.Context, chunk *model.Chunk) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cp := chunk.Clone()
	c.s.chunks[chunk.ID] = &cp
	return nil
}

func (c *memChunks) Load(_ context.Context, id string) (*model.Chunk, bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	chunk, ok := c.s.chunks[id]
	if !ok {
		return nil, false, nil
	}
	cp := chunk.Clone()
	return &cp, true, nil
}

func (c *memChunks) LoadForLibrary(_ context.Context, libraryID string) ([]*model.Chunk, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var out []*model.Chunk
	for _, chunk := range c.s.chunks {
		if chunk.LibraryID == libraryID {
			cp := chunk.Clone()
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (c *memChunks) LoadForDocument(_ context.Context, documentID string) ([]*model.Chunk, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var out []*model.Chunk
	for _, chunk := range c.s.chunks {
		if chunk.DocumentID == documentID {
			cp := chunk.Clone()
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (c *memChunks) Update(_ context.Context, id string, patch model.ChunkPatch) (*model.Chunk, bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	chunk, ok := c.s.chunks[id]
	if !ok {
		return nil, false, nil
	}
	if patch.Text != nil {
		chunk.Text = *patch.Text
	}
	if patch.Embedding != nil {
		chunk.Embedding = patch.Embedding
	}
	if patch.Metadata != nil {
		chunk.Metadata = patch.Metadata
	}
	cp := chunk.Clone()
	return &cp, true, nil
}

func (c *memChunks) Delete(_ context.Context, id string) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	_, ok := c.s.chunks[id]
	delete(c.s.chunks, id)
	return ok, nil
}

func (c *memChunks) DeleteForDocument(_ context.Context, documentID string) (int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	n := 0
	for id, chunk := range c.s.chunks {
		if chunk.DocumentID == documentID {
			delete(c.s.chunks, id)
			n++
		}
	}
	return n, nil
}

func (c *memChunks) DeleteForLibrary(_ context.Context, libraryID string) (int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	n := 0
	for id, chunk := range c.s.chunks {
		if chunk.LibraryID == libraryID {
			delete(c.s.chunks, id)
			n++
		}
	}
	return n, nil
}
