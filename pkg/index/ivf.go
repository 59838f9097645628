// Package index provides advanced indexing structures for vector search.
package index

import (
	"math"
	"math/rand"
	"sync"

	"github.com/liliang-cn/vectordb/internal/apperr"
	"github.com/liliang-cn/vectordb/internal/metric"
	"github.com/liliang-cn/vectordb/internal/model"
)

// IVFOptions configures an IVF index's clustering behavior.
type IVFOptions struct {
	NClusters  int
	NProbes    int
	TrainIters int
	RNGSeed    int64
}

// DefaultIVFOptions returns sensible defaults: one cluster, one probe,
// twenty k-means iterations, seed zero.
func DefaultIVFOptions() IVFOptions {
	return IVFOptions{NClusters: 1, NProbes: 1, TrainIters: 20, RNGSeed: 0}
}

func (o IVFOptions) normalized() IVFOptions {
	if o.NClusters < 1 {
		o.NClusters = 1
	}
	if o.NProbes < 1 {
		o.NProbes = 1
	}
	if o.TrainIters < 1 {
		o.TrainIters = 20
	}
	return o
}

// IVF is an inverted-file index over cosine-unit-normalized vectors. It
// is a two-phase state machine (spec.md §4.4, §9): while initializing it
// only caches vectors; after the first successful Train it routes
// mutations through the trained centroids and serves search.
type IVF struct {
	mu sync.RWMutex

	dims    int
	opts    IVFOptions
	metric  metric.Metric
	rng     *rand.Rand

	centroids    [][]float32
	invLists     []map[string]struct{}
	vectors      map[string][]float32
	clusterOf    map[string]int
	initializing bool
}

// NewIVF builds an IVF index for the given dimension and options.
func NewIVF(dims int, opts IVFOptions) *IVF {
	opts = opts.normalized()
	return &IVF{
		dims:         dims,
		opts:         opts,
		metric:       metric.Cosine,
		rng:          rand.New(rand.NewSource(opts.RNGSeed)),
		vectors:      make(map[string][]float32),
		clusterOf:    make(map[string]int),
		initializing: true,
	}
}

// NewIVFConstructor returns a Constructor that builds IVF indexes with
// opts, for registration in a Registry under a name such as "ivf".
func NewIVFConstructor(opts IVFOptions) Constructor {
	return func(dims int) Index {
		return NewIVF(dims, opts)
	}
}

func (ivf *IVF) Dimension() int { return ivf.dims }

func (ivf *IVF) AddChunk(chunk model.Chunk) error {
	if len(chunk.Embedding) != ivf.dims {
		return apperr.New("IVF.AddChunk", apperr.KindDimensionMismatch, nil)
	}
	ivf.mu.Lock()
	defer ivf.mu.Unlock()

	v := metric.Normalize(chunk.Embedding)
	ivf.vectors[chunk.ID] = v

	if ivf.initializing {
		return nil
	}
	return ivf.assignLocked(chunk.ID, v)
}

func (ivf *IVF) UpdateChunk(chunkID string, newChunk model.Chunk) (bool, error) {
	if len(newChunk.Embedding) != ivf.dims {
		return false, apperr.New("IVF.UpdateChunk", apperr.KindDimensionMismatch, nil)
	}
	ivf.mu.Lock()
	defer ivf.mu.Unlock()

	_, existed := ivf.vectors[chunkID]
	if existed {
		ivf.removeFromInvertedListLocked(chunkID)
	}

	v := metric.Normalize(newChunk.Embedding)
	ivf.vectors[chunkID] = v

	if ivf.initializing {
		return existed, nil
	}
	if err := ivf.assignLocked(chunkID, v); err != nil {
		return existed, err
	}
	return existed, nil
}

func (ivf *IVF) RemoveChunk(chunkID string) bool {
	ivf.mu.Lock()
	defer ivf.mu.Unlock()
	if _, ok := ivf.vectors[chunkID]; !ok {
		return false
	}
	ivf.removeFromInvertedListLocked(chunkID)
	delete(ivf.vectors, chunkID)
	return true
}

// removeFromInvertedListLocked drops chunkID from its inverted list and
// the reverse map, if it has one. Caller holds the write lock.
func (ivf *IVF) removeFromInvertedListLocked(chunkID string) {
	if cluster, ok := ivf.clusterOf[chunkID]; ok {
		delete(ivf.invLists[cluster], chunkID)
		delete(ivf.clusterOf, chunkID)
	}
}

// assignLocked assigns chunkID's vector to its nearest centroid's
// inverted list. Caller holds the write lock and has already verified
// or doesn't care about the initializing flag.
func (ivf *IVF) assignLocked(chunkID string, v []float32) error {
	if len(ivf.centroids) == 0 {
		return apperr.New("IVF.assign", apperr.KindNotTrained, nil)
	}
	cluster := ivf.nearestCentroidLocked(v)
	ivf.invLists[cluster][chunkID] = struct{}{}
	ivf.clusterOf[chunkID] = cluster
	return nil
}

func (ivf *IVF) nearestCentroidLocked(v []float32) int {
	best := 0
	bestScore := math.Inf(-1)
	for i, c := range ivf.centroids {
		score := dot(v, c)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

// Train runs cosine k-means over sample (or, if sample is nil/empty, the
// index's currently cached vectors), per spec.md §4.4.
func (ivf *IVF) Train(sample [][]float32) error {
	ivf.mu.Lock()
	defer ivf.mu.Unlock()

	trainSet := sample
	if len(trainSet) == 0 {
		trainSet = make([][]float32, 0, len(ivf.vectors))
		for _, v := range ivf.vectors {
			trainSet = append(trainSet, v)
		}
	}
	if len(trainSet) == 0 {
		return nil
	}

	normalized := make([][]float32, len(trainSet))
	for i, v := range trainSet {
		normalized[i] = metric.Normalize(v)
	}

	ka := ivf.opts.NClusters
	if ka > len(normalized) {
		ka = len(normalized)
	}

	centroids := ivf.kmeansLocked(normalized, ka)
	ivf.centroids = centroids

	// Rebuild all inverted lists from scratch against the cached vectors.
	ivf.invLists = make([]map[string]struct{}, len(centroids))
	for i := range ivf.invLists {
		ivf.invLists[i] = make(map[string]struct{})
	}
	ivf.clusterOf = make(map[string]int, len(ivf.vectors))
	for id, v := range ivf.vectors {
		cluster := ivf.nearestCentroidLocked(v)
		ivf.invLists[cluster][id] = struct{}{}
		ivf.clusterOf[id] = cluster
	}

	ivf.initializing = false
	return nil
}

// kmeansLocked runs cosine k-means with a seeded RNG: k initial centers
// chosen uniformly without replacement, then up to opts.TrainIters
// assign/update rounds with empty-cluster reseeding and early stopping
// on near-convergence (rtol 1e-5, atol 1e-7). Caller holds the lock.
func (ivf *IVF) kmeansLocked(points [][]float32, k int) [][]float32 {
	dims := len(points[0])
	centroids := make([][]float32, k)
	perm := ivf.rng.Perm(len(points))
	for i := 0; i < k; i++ {
		centroids[i] = append([]float32(nil), points[perm[i]]...)
	}

	for iter := 0; iter < ivf.opts.TrainIters; iter++ {
		assignments := make([]int, len(points))
		for i, p := range points {
			best := 0
			bestScore := math.Inf(-1)
			for c, centroid := range centroids {
				score := dot(p, centroid)
				if score > bestScore {
					bestScore = score
					best = c
				}
			}
			assignments[i] = best
		}

		newCentroids := make([][]float32, k)
		counts := make([]int, k)
		for i := range newCentroids {
			newCentroids[i] = make([]float32, dims)
		}
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			for d := 0; d < dims; d++ {
				newCentroids[c][d] += p[d]
			}
		}
		for c := range newCentroids {
			if counts[c] == 0 {
				newCentroids[c] = metric.Normalize(append([]float32(nil), points[ivf.rng.Intn(len(points))]...))
				continue
			}
			for d := 0; d < dims; d++ {
				newCentroids[c][d] /= float32(counts[c])
			}
			newCentroids[c] = metric.Normalize(newCentroids[c])
		}

		converged := allCentroidsClose(centroids, newCentroids, 1e-5, 1e-7)
		centroids = newCentroids
		if converged {
			break
		}
	}

	return centroids
}

func allCentroidsClose(a, b [][]float32, rtol, atol float64) bool {
	for i := range a {
		for d := range a[i] {
			diff := math.Abs(float64(a[i][d]) - float64(b[i][d]))
			if diff > atol+rtol*math.Abs(float64(b[i][d])) {
				return false
			}
		}
	}
	return true
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func (ivf *IVF) Search(query []float32, k int, _ map[string]string) ([]Result, error) {
	if k <= 0 {
		return []Result{}, nil
	}
	if len(query) != ivf.dims {
		return nil, apperr.New("IVF.Search", apperr.KindDimensionMismatch, nil)
	}

	ivf.mu.RLock()
	defer ivf.mu.RUnlock()

	if ivf.initializing {
		return nil, apperr.New("IVF.Search", apperr.KindNotTrained, nil)
	}

	q := metric.Normalize(query)

	type probe struct {
		idx   int
		score float64
	}
	probes := make([]probe, len(ivf.centroids))
	for i, c := range ivf.centroids {
		probes[i] = probe{idx: i, score: dot(q, c)}
	}
	// Selection by decreasing centroid score; simple insertion sort is
	// fine since NClusters is small in practice.
	for i := 1; i < len(probes); i++ {
		for j := i; j > 0 && probes[j].score > probes[j-1].score; j-- {
			probes[j], probes[j-1] = probes[j-1], probes[j]
		}
	}

	nProbes := ivf.opts.NProbes
	if nProbes > len(probes) {
		nProbes = len(probes)
	}

	candidates := make(map[string]struct{})
	for i := 0; i < nProbes; i++ {
		for id := range ivf.invLists[probes[i].idx] {
			candidates[id] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	collector := newTopKCollector(k, ivf.metric)
	for id := range candidates {
		collector.offer(id, dot(q, ivf.vectors[id]))
	}
	return collector.results(), nil
}

func (ivf *IVF) Stats() map[string]any {
	ivf.mu.RLock()
	defer ivf.mu.RUnlock()

	clusterSizes := make([]int, len(ivf.invLists))
	for i, l := range ivf.invLists {
		clusterSizes[i] = len(l)
	}

	return map[string]any{
		"type":          "ivf",
		"dimension":     ivf.dims,
		"size":          len(ivf.vectors),
		"n_clusters":    ivf.opts.NClusters,
		"n_probes":      ivf.opts.NProbes,
		"initializing":  ivf.initializing,
		"cluster_sizes": clusterSizes,
	}
}
