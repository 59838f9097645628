package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/liliang-cn/vectordb/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sqlite")
	s, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLibraryCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	lib := &model.Library{ID: "lib1", Name: "docs", Dims: 3, IndexType: "flat", Metadata: map[string]string{"k": "v"}}
	if err := s.Libraries().Save(ctx, lib); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, found, err := s.Libraries().Load(ctx, "lib1")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.Name != "docs" || got.Dims != 3 || got.Metadata["k"] != "v" {
		t.Fatalf("unexpected library: %+v", got)
	}

	name := "renamed"
	updated, found, err := s.Libraries().Update(ctx, "lib1", model.LibraryPatch{Name: &name})
	if err != nil || !found || updated.Name != "renamed" {
		t.Fatalf("update: found=%v err=%v lib=%+v", found, err, updated)
	}

	all, err := s.Libraries().LoadAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("load_all: %v %v", all, err)
	}

	ok, err := s.Libraries().Delete(ctx, "lib1")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if _, found, _ := s.Libraries().Load(ctx, "lib1"); found {
		t.Fatal("expected library gone after delete")
	}
}

func TestDocumentAndChunkCascade(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	lib := &model.Library{ID: "lib1", Name: "docs", Dims: 2, IndexType: "flat"}
	if err := s.Libraries().Save(ctx, lib); err != nil {
		t.Fatalf("save library: %v", err)
	}

	doc := &model.Document{ID: "doc1", LibraryID: "lib1", Title: "t"}
	if err := s.Documents().Save(ctx, doc); err != nil {
		t.Fatalf("save document: %v", err)
	}

	chunk := &model.Chunk{ID: "c1", LibraryID: "lib1", DocumentID: "doc1", Text: "hello", Embedding: []float32{1, 2}}
	if err := s.Chunks().Save(ctx, chunk); err != nil {
		t.Fatalf("save chunk: %v", err)
	}

	loaded, found, err := s.Chunks().Load(ctx, "c1")
	if err != nil || !found {
		t.Fatalf("load chunk: found=%v err=%v", found, err)
	}
	if len(loaded.Embedding) != 2 || loaded.Embedding[0] != 1 || loaded.Embedding[1] != 2 {
		t.Fatalf("unexpected embedding roundtrip: %+v", loaded.Embedding)
	}

	n, err := s.Chunks().DeleteForDocument(ctx, "doc1")
	if err != nil || n != 1 {
		t.Fatalf("delete_for_document: n=%d err=%v", n, err)
	}

	chunks, err := s.Chunks().LoadForLibrary(ctx, "lib1")
	if err != nil || len(chunks) != 0 {
		t.Fatalf("expected no chunks left, got %d err=%v", len(chunks), err)
	}
}

func TestChunkUpdatePatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	lib := &model.Library{ID: "lib1", Name: "docs", Dims: 2, IndexType: "flat"}
	_ = s.Libraries().Save(ctx, lib)
	doc := &model.Document{ID: "doc1", LibraryID: "lib1"}
	_ = s.Documents().Save(ctx, doc)

	chunk := &model.Chunk{ID: "c1", LibraryID: "lib1", DocumentID: "doc1", Text: "hello", Embedding: []float32{1, 2}}
	if err := s.Chunks().Save(ctx, chunk); err != nil {
		t.Fatalf("save: %v", err)
	}

	newText := "updated"
	updated, found, err := s.Chunks().Update(ctx, "c1", model.ChunkPatch{Text: &newText, Embedding: []float32{3, 4}})
	if err != nil || !found {
		t.Fatalf("update: found=%v err=%v", found, err)
	}
	if updated.Text != "updated" || updated.Embedding[0] != 3 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}
