package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/liliang-cn/vectordb/internal/corelog"
	"github.com/liliang-cn/vectordb/internal/persistence/sqlite"
	"github.com/liliang-cn/vectordb/internal/vectorservice"
	"github.com/liliang-cn/vectordb/pkg/index"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.Open(context.Background(), t.TempDir()+"/test.db", corelog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := index.NewRegistry(map[string]index.Constructor{
		"flat": index.NewFlatCosine,
	})
	service := vectorservice.New(store, registry, "flat", corelog.Nop())
	return New(service, stubEmbedder{})
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestLibraryCreateGetSearch(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, "POST", "/v1/libraries", createLibraryRequest{Name: "lib", Dims: 2, IndexType: "flat"})
	if rec.Code != 201 {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var lib map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &lib); err != nil {
		t.Fatalf("unmarshal library: %v", err)
	}
	libraryID, _ := lib["id"].(string)
	if libraryID == "" {
		t.Fatal("expected library id in response")
	}

	rec = doJSON(t, srv, "POST", "/v1/libraries/"+libraryID+"/documents", createDocumentRequest{Title: "doc"})
	if rec.Code != 201 {
		t.Fatalf("expected 201 creating document, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	documentID, _ := doc["id"].(string)

	rec = doJSON(t, srv, "POST", "/v1/libraries/"+libraryID+"/chunks", createChunkRequest{
		DocumentID: documentID,
		Text:       "hello",
		Embedding:  []float32{1, 0},
	})
	if rec.Code != 201 {
		t.Fatalf("expected 201 creating chunk, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, "POST", "/v1/libraries/"+libraryID+"/search", searchRequest{
		Query: []float32{1, 0}, K: 1, IncludeChunk: true,
	})
	if rec.Code != 200 {
		t.Fatalf("expected 200 searching, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetLibraryNotFoundReturns404(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "GET", "/v1/libraries/does-not-exist", nil)
	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateChunkDimensionMismatchReturns422(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, "POST", "/v1/libraries", createLibraryRequest{Name: "lib", Dims: 3, IndexType: "flat"})
	var lib map[string]any
	json.Unmarshal(rec.Body.Bytes(), &lib)
	libraryID := lib["id"].(string)

	rec = doJSON(t, srv, "POST", "/v1/libraries/"+libraryID+"/documents", createDocumentRequest{Title: "doc"})
	var doc map[string]any
	json.Unmarshal(rec.Body.Bytes(), &doc)
	documentID := doc["id"].(string)

	rec = doJSON(t, srv, "POST", "/v1/libraries/"+libraryID+"/chunks", createChunkRequest{
		DocumentID: documentID,
		Text:       "bad",
		Embedding:  []float32{1, 0},
	})
	if rec.Code != 422 {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEmbedEmptyBatchReturns400(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "POST", "/v1/embed", embedRequest{Texts: nil})
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateLibraryDimsChangeReturns409(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, "POST", "/v1/libraries", createLibraryRequest{Name: "lib", Dims: 2, IndexType: "flat"})
	var lib map[string]any
	json.Unmarshal(rec.Body.Bytes(), &lib)
	libraryID := lib["id"].(string)

	rec = doJSON(t, srv, "PATCH", "/v1/libraries/"+libraryID, map[string]any{"dims": 5})
	if rec.Code != 409 {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}
