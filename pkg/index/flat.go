package index

import (
	"sync"

	"github.com/liliang-cn/vectordb/internal/apperr"
	"github.com/liliang-cn/vectordb/internal/metric"
	"github.com/liliang-cn/vectordb/internal/model"
)

// Flat is a brute-force exact-search index: O(1) insert, O(n*d + n*log k)
// query. It keeps chunk_id -> vector (unit-normalized when the metric
// requires it) and scores every stored vector on each search.
type Flat struct {
	mu       sync.RWMutex
	dims     int
	metricFn metric.Metric
	vectors  map[string][]float32
}

// NewFlat builds a Flat index for the given dimension, scored by m.
// Vectors are normalized at insertion when m.RequiresUnitNorm().
func NewFlat(dims int, m metric.Metric) *Flat {
	return &Flat{
		dims:     dims,
		metricFn: m,
		vectors:  make(map[string][]float32),
	}
}

// NewFlatCosine builds a Flat index fixed to cosine similarity, matching
// the registry's "flat" constructor signature.
func NewFlatCosine(dims int) Index {
	return NewFlat(dims, metric.Cosine)
}

func (f *Flat) Dimension() int { return f.dims }

func (f *Flat) prepare(v []float32) []float32 {
	if f.metricFn.RequiresUnitNorm() {
		return metric.Normalize(v)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func (f *Flat) AddChunk(chunk model.Chunk) error {
	if len(chunk.Embedding) != f.dims {
		return apperr.New("Flat.AddChunk", apperr.KindDimensionMismatch, nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors[chunk.ID] = f.prepare(chunk.Embedding)
	return nil
}

func (f *Flat) UpdateChunk(chunkID string, newChunk model.Chunk) (bool, error) {
	if len(newChunk.Embedding) != f.dims {
		return false, apperr.New("Flat.UpdateChunk", apperr.KindDimensionMismatch, nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, existed := f.vectors[chunkID]
	f.vectors[chunkID] = f.prepare(newChunk.Embedding)
	return existed, nil
}

func (f *Flat) RemoveChunk(chunkID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vectors[chunkID]; !ok {
		return false
	}
	delete(f.vectors, chunkID)
	return true
}

func (f *Flat) Search(query []float32, k int, _ map[string]string) ([]Result, error) {
	if k <= 0 {
		return []Result{}, nil
	}
	if len(query) != f.dims {
		return nil, apperr.New("Flat.Search", apperr.KindDimensionMismatch, nil)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.vectors) == 0 {
		return []Result{}, nil
	}

	q := query
	if f.metricFn.RequiresUnitNorm() {
		q = metric.Normalize(query)
	}

	collector := newTopKCollector(k, f.metricFn)
	for id, v := range f.vectors {
		collector.offer(id, f.metricFn.Compute(q, v))
	}
	return collector.results(), nil
}

// Train is a no-op: Flat requires no training phase.
func (f *Flat) Train([][]float32) error { return nil }

func (f *Flat) Stats() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return map[string]any{
		"type":      "flat",
		"size":      len(f.vectors),
		"dimension": f.dims,
		"metric":    f.metricFn.Name(),
	}
}
