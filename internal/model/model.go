// Package model defines the persisted entities shared by the vector
// service and its persistence adapter: libraries, documents, and chunks.
package model

// Library is a container of documents and chunks sharing a common
// embedding dimension and index type. Dims and IndexType are immutable
// after creation.
type Library struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Dims      int               `json:"dims"`
	IndexType string            `json:"index_type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Document is a logical grouping of chunks within a library. LibraryID
// is immutable after creation.
type Document struct {
	ID        string            `json:"id"`
	LibraryID string            `json:"library_id"`
	Title     string            `json:"title"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Chunk is the indexed unit: a piece of text together with its embedding
// vector. LibraryID must equal the parent document's LibraryID.
type Chunk struct {
	ID         string            `json:"id"`
	LibraryID  string            `json:"library_id"`
	DocumentID string            `json:"document_id"`
	Text       string            `json:"text"`
	Embedding  []float32         `json:"embedding"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy so callers can mutate without aliasing
// internal state held by the persistence adapter or the index.
func (c Chunk) Clone() Chunk {
	out := c
	if c.Embedding != nil {
		out.Embedding = append([]float32(nil), c.Embedding...)
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// LibraryPatch carries shallow field updates for Update operations. A
// nil pointer means "leave the field unchanged". Dims is present only
// so an attempt to set it can be detected and rejected by the service
// as an invalid update; it is never applied to the stored library.
type LibraryPatch struct {
	Name     *string           `json:"name,omitempty"`
	Dims     *int              `json:"dims,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DocumentPatch carries shallow field updates for Update operations.
// LibraryID is present only so an attempt to move a document between
// libraries can be detected and rejected by the service as an invalid
// update; it is never applied.
type DocumentPatch struct {
	Title     *string           `json:"title,omitempty"`
	LibraryID *string           `json:"library_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ChunkPatch carries shallow field updates for Update operations.
// LibraryID and DocumentID are present only so an attempt to reparent a
// chunk can be detected and rejected by the service as an invalid
// update; neither is ever applied.
type ChunkPatch struct {
	Text       *string           `json:"text,omitempty"`
	Embedding  []float32         `json:"embedding,omitempty"`
	LibraryID  *string           `json:"library_id,omitempty"`
	DocumentID *string           `json:"document_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
