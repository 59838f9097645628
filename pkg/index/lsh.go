// Package index provides various indexing implementations for vector search.
package index

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/liliang-cn/vectordb/internal/apperr"
	"github.com/liliang-cn/vectordb/internal/metric"
	"github.com/liliang-cn/vectordb/internal/model"
)

// SimHashLSHOptions configures a SimHashLSH index's hashing scheme.
type SimHashLSHOptions struct {
	NBits   int
	NTables int
	RNGSeed int64
}

// simHashEntry caches a stored vector alongside the per-table keys it
// was filed under, so Update/Remove can find its buckets without
// recomputing hashes.
type simHashEntry struct {
	vector []float32
	keys   []uint64
}

// SimHashLSH implements multi-band SimHash locality-sensitive hashing
// for approximate cosine search, per spec.md §4.5.
type SimHashLSH struct {
	mu sync.RWMutex

	dims    int
	nBits   int
	nTables int

	hyperplanes [][][]float32 // [table][bit][dim], each row unit-normalized
	bitWeights  []uint64      // [1, 2, 4, ..., 2^(nBits-1)]
	buckets     []map[uint64]map[string]struct{}
	entries     map[string]simHashEntry
}

// NewSimHashLSH builds a SimHashLSH index, rejecting invalid
// configuration per spec.md §4.5.
func NewSimHashLSH(dims int, opts SimHashLSHOptions) (*SimHashLSH, error) {
	if opts.NBits <= 0 || opts.NBits > 64 {
		return nil, fmt.Errorf("simhash: n_bits must be in [1, 64], got %d", opts.NBits)
	}
	if opts.NTables <= 0 {
		return nil, fmt.Errorf("simhash: n_tables must be >= 1, got %d", opts.NTables)
	}

	rng := rand.New(rand.NewSource(opts.RNGSeed))

	hyperplanes := make([][][]float32, opts.NTables)
	for t := 0; t < opts.NTables; t++ {
		hyperplanes[t] = make([][]float32, opts.NBits)
		for b := 0; b < opts.NBits; b++ {
			row := make([]float32, dims)
			for d := 0; d < dims; d++ {
				row[d] = float32(rng.NormFloat64())
			}
			hyperplanes[t][b] = metric.Normalize(row)
		}
	}

	bitWeights := make([]uint64, opts.NBits)
	for i := range bitWeights {
		bitWeights[i] = uint64(1) << uint(i)
	}

	buckets := make([]map[uint64]map[string]struct{}, opts.NTables)
	for i := range buckets {
		buckets[i] = make(map[uint64]map[string]struct{})
	}

	return &SimHashLSH{
		dims:        dims,
		nBits:       opts.NBits,
		nTables:     opts.NTables,
		hyperplanes: hyperplanes,
		bitWeights:  bitWeights,
		buckets:     buckets,
		entries:     make(map[string]simHashEntry),
	}, nil
}

// NewSimHashLSHConstructor returns a Constructor that builds SimHashLSH
// indexes with opts, for registration under a name such as
// "lsh_simhash". Invalid opts cause the returned constructor to panic
// lazily, on first construction rather than at registration, so callers
// validate opts before registering them (cmd/vectordbd relies on
// config.FromEnv's range checks for this).
func NewSimHashLSHConstructor(opts SimHashLSHOptions) Constructor {
	return func(dims int) Index {
		idx, err := NewSimHashLSH(dims, opts)
		if err != nil {
			panic(err)
		}
		return idx
	}
}

func (l *SimHashLSH) Dimension() int { return l.dims }

// keysFor computes the per-table fold of the unit-normalized vector v.
func (l *SimHashLSH) keysFor(v []float32) []uint64 {
	keys := make([]uint64, l.nTables)
	for t := 0; t < l.nTables; t++ {
		var key uint64
		for b := 0; b < l.nBits; b++ {
			if dot(v, l.hyperplanes[t][b]) >= 0 {
				key |= l.bitWeights[b]
			}
		}
		keys[t] = key
	}
	return keys
}

func (l *SimHashLSH) insertLocked(id string, v []float32, keys []uint64) {
	for t, key := range keys {
		bucket, ok := l.buckets[t][key]
		if !ok {
			bucket = make(map[string]struct{})
			l.buckets[t][key] = bucket
		}
		bucket[id] = struct{}{}
	}
	l.entries[id] = simHashEntry{vector: v, keys: keys}
}

func (l *SimHashLSH) removeFromBucketsLocked(id string, keys []uint64) {
	for t, key := range keys {
		bucket, ok := l.buckets[t][key]
		if !ok {
			continue
		}
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(l.buckets[t], key)
		}
	}
}

func (l *SimHashLSH) AddChunk(chunk model.Chunk) error {
	if len(chunk.Embedding) != l.dims {
		return apperr.New("SimHashLSH.AddChunk", apperr.KindDimensionMismatch, nil)
	}
	v := metric.Normalize(chunk.Embedding)
	keys := l.keysFor(v)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.insertLocked(chunk.ID, v, keys)
	return nil
}

func (l *SimHashLSH) UpdateChunk(chunkID string, newChunk model.Chunk) (bool, error) {
	if len(newChunk.Embedding) != l.dims {
		return false, apperr.New("SimHashLSH.UpdateChunk", apperr.KindDimensionMismatch, nil)
	}
	v := metric.Normalize(newChunk.Embedding)
	keys := l.keysFor(v)

	l.mu.Lock()
	defer l.mu.Unlock()
	old, existed := l.entries[chunkID]
	if existed {
		l.removeFromBucketsLocked(chunkID, old.keys)
	}
	l.insertLocked(chunkID, v, keys)
	return existed, nil
}

func (l *SimHashLSH) RemoveChunk(chunkID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[chunkID]
	if !ok {
		return false
	}
	l.removeFromBucketsLocked(chunkID, entry.keys)
	delete(l.entries, chunkID)
	return true
}

func (l *SimHashLSH) Search(query []float32, k int, _ map[string]string) ([]Result, error) {
	if k <= 0 {
		return []Result{}, nil
	}
	if len(query) != l.dims {
		return nil, apperr.New("SimHashLSH.Search", apperr.KindDimensionMismatch, nil)
	}

	q := metric.Normalize(query)
	keys := l.keysFor(q)

	l.mu.RLock()
	defer l.mu.RUnlock()

	candidates := make(map[string]struct{})
	for t, key := range keys {
		for id := range l.buckets[t][key] {
			candidates[id] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	collector := newTopKCollector(k, metric.Cosine)
	for id := range candidates {
		collector.offer(id, dot(q, l.entries[id].vector))
	}
	return collector.results(), nil
}

// Train is a no-op: SimHashLSH's hyperplanes are fixed at construction.
func (l *SimHashLSH) Train([][]float32) error { return nil }

func (l *SimHashLSH) Stats() map[string]any {
	l.mu.RLock()
	defer l.mu.RUnlock()

	totalBuckets := 0
	for _, b := range l.buckets {
		totalBuckets += len(b)
	}

	return map[string]any{
		"type":          "lsh_simhash",
		"dimension":     l.dims,
		"size":          len(l.entries),
		"n_bits":        l.nBits,
		"n_tables":      l.nTables,
		"total_buckets": totalBuckets,
	}
}
