// Package index implements the per-library in-memory vector indexes:
// an exact Flat index, an inverted-file IVF index, and a multi-band
// SimHash LSH index. All three satisfy the Index interface so the
// service layer can treat them polymorphically through a Registry of
// named constructors, following the teacher's registry-of-constructors
// idiom in pkg/index/multi_index.go (there used to combine index types;
// here used to select one per library).
package index

import (
	"container/heap"

	"github.com/liliang-cn/vectordb/internal/apperr"
	"github.com/liliang-cn/vectordb/internal/metric"
	"github.com/liliang-cn/vectordb/internal/model"
)

// Result is one scored hit from a Search call.
type Result struct {
	ChunkID string
	Score   float64
}

// Index is the capability set every vector index variant implements.
type Index interface {
	// AddChunk inserts chunk's vector under chunk.ID. Fails with
	// apperr.KindDimensionMismatch if the embedding length is wrong.
	AddChunk(chunk model.Chunk) error
	// UpdateChunk replaces the vector stored for chunkID with newChunk's
	// embedding, inserting it if absent. Reports whether it previously
	// existed.
	UpdateChunk(chunkID string, newChunk model.Chunk) (existed bool, err error)
	// RemoveChunk deletes chunkID from the index, reporting whether it
	// was present.
	RemoveChunk(chunkID string) bool
	// Search returns the top-k chunk ids ordered by decreasing
	// preference under the index's metric. metadataFilters is accepted
	// for interface parity with the public contract but has no effect.
	Search(query []float32, k int, metadataFilters map[string]string) ([]Result, error)
	// Train prepares variant-specific auxiliary structures (a no-op for
	// variants that don't need training). sample is nil when the caller
	// wants the index to train from its own cached vectors.
	Train(sample [][]float32) error
	// Dimension reports the vector dimension this index was built for.
	Dimension() int
	// Stats returns a snapshot of index introspection fields, used by
	// the service's GetLibraryStats operation.
	Stats() map[string]any
}

// Constructor builds a new, empty Index for the given dimension.
type Constructor func(dims int) Index

// Registry maps index-type names to constructors, mirroring spec.md's
// "registry: index_type_name -> index-constructor". Names are stored and
// looked up exactly as given; no case folding is applied.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry builds a Registry with the given name->constructor
// entries already registered.
func NewRegistry(entries map[string]Constructor) *Registry {
	r := &Registry{ctors: make(map[string]Constructor, len(entries))}
	for name, ctor := range entries {
		r.ctors[name] = ctor
	}
	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, ctor Constructor) {
	r.ctors[name] = ctor
}

// Has reports whether name is a registered index type.
func (r *Registry) Has(name string) bool {
	_, ok := r.ctors[name]
	return ok
}

// New constructs an index of the given type and dimension. Returns
// apperr.KindUnsupportedIndex if the type isn't registered.
func (r *Registry) New(indexType string, dims int) (Index, error) {
	ctor, ok := r.ctors[indexType]
	if !ok {
		return nil, apperr.New("registry.New", apperr.KindUnsupportedIndex, nil)
	}
	return ctor(dims), nil
}

// heapEntry is one candidate in the bounded top-k min-heap. key is the
// comparison value: for higher-is-better metrics it's the raw score;
// for lower-is-better metrics it's the negated raw score, so the heap
// root (smallest key) is always the weakest candidate currently kept.
type heapEntry struct {
	chunkID  string
	rawScore float64
	key      float64
}

type topKHeap []heapEntry

func (h topKHeap) Len() int            { return len(h) }
func (h topKHeap) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h topKHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *topKHeap) Push(x interface{}) { *h = append(*h, x.(heapEntry)) }
func (h *topKHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topKCollector accumulates the best k (chunkID, rawScore) pairs seen so
// far under m's preference ordering, using a bounded min-heap as
// prescribed in spec.md §9 ("Heap-based top-k").
type topKCollector struct {
	k int
	m metric.Metric
	h topKHeap
}

func newTopKCollector(k int, m metric.Metric) *topKCollector {
	return &topKCollector{k: k, m: m}
}

func (c *topKCollector) offer(chunkID string, rawScore float64) {
	key := rawScore
	if !c.m.HigherIsBetter() {
		key = -rawScore
	}
	if c.h.Len() < c.k {
		heap.Push(&c.h, heapEntry{chunkID: chunkID, rawScore: rawScore, key: key})
		return
	}
	if c.h.Len() > 0 && key > c.h[0].key {
		heap.Pop(&c.h)
		heap.Push(&c.h, heapEntry{chunkID: chunkID, rawScore: rawScore, key: key})
	}
}

// results drains the heap into a slice sorted by decreasing preference.
func (c *topKCollector) results() []Result {
	n := c.h.Len()
	out := make([]Result, n)
	for i := n - 1; i >= 0; i-- {
		e := heap.Pop(&c.h).(heapEntry)
		out[i] = Result{ChunkID: e.chunkID, Score: e.rawScore}
	}
	return out
}
