package bbq

import (
	"container/heap"
	"sort"

	"github.com/therealutkarshpriyadarshi/bbq/internal/quantization"
)

// resultHeap is a min-heap of Result keyed by Score, used to keep the K
// best-scoring candidates while scanning the index without sorting the
// entire candidate set.
type resultHeap []Result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// quantizedQuery holds a prepared query ready to be dot-producted against
// the index arena: its packed/transposed code and its Corrections.
type quantizedQuery struct {
	packed      []byte
	corrections Corrections
}

func (idx *Index) prepareQuery(query []float32) (quantizedQuery, error) {
	if len(query) != idx.dim {
		return quantizedQuery{}, newError(ErrDimensionMismatch, "query has dimension %d, want %d", len(query), idx.dim)
	}
	if err := checkFinite(query); err != nil {
		return quantizedQuery{}, err
	}

	v := query
	if idx.similarity == Cosine {
		v = quantization.Normalize(query)
	}

	x := quantization.Center(v, idx.centroid)

	queryBits := idx.config.QueryBits
	if queryBits != 1 && queryBits != 4 {
		queryBits = 4
	}

	params := quantization.OSQParams{Bits: queryBits, Lambda: idx.config.Lambda, Iterations: idx.config.Iters}
	r := quantization.OptimizedScalarQuantizer(x, params)

	var additional float32
	switch idx.similarity {
	case Euclidean:
		additional = quantization.NormL2Squared(x)
	case Cosine, MaximumInnerProduct:
		additional = quantization.DotProductFloat32(x, idx.centroid)
	}

	corrections := Corrections{
		Lower:                r.Lower,
		Upper:                r.Upper,
		AdditionalCorrection: additional,
		Sum:                  int32(r.Sum),
	}

	raw := int32ToByte(r.Quantized)
	var packed []byte
	if queryBits == 4 {
		packed = quantization.TransposeHalfByte(raw, idx.dim)
	} else {
		packed = quantization.PackAsBinary(raw, idx.dim)
	}

	return quantizedQuery{packed: packed, corrections: corrections}, nil
}

// Search returns the k highest-scoring stored vectors against query,
// sorted by descending score. An empty index returns an empty slice for
// any query and any k. Dimension mismatch and non-finite input are fatal.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if idx.Size() == 0 {
		return []Result{}, nil
	}
	if k == 0 {
		return []Result{}, nil
	}

	q, err := idx.prepareQuery(query)
	if err != nil {
		return nil, err
	}

	queryBits := idx.config.QueryBits
	if queryBits != 1 && queryBits != 4 {
		queryBits = 4
	}

	batchSize := idx.config.BatchSize
	if batchSize <= 0 {
		batchSize = 1024
	}

	n := idx.Size()
	h := &resultHeap{}
	heap.Init(h)

	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		count := end - start
		offset := start * idx.stride
		buf := idx.codes[offset : offset+count*idx.stride]

		var dists []int
		if queryBits == 4 {
			dists = quantization.Batch4BitDirectPacked(q.packed, buf, count, idx.dim)
		} else {
			dists = quantization.Batch1BitDirectPackedUnrolled8(q.packed, buf, count, idx.dim)
		}

		for i := 0; i < count; i++ {
			ordinal := start + i
			s := score(idx.similarity, dists[i], idx.dim, idx.corrections[ordinal], q.corrections, queryBits, idx.centroidDotCentroid)
			res := Result{Ordinal: uint32(ordinal), Score: s}

			if h.Len() < k {
				heap.Push(h, res)
			} else if h.Len() > 0 && res.Score > (*h)[0].Score {
				heap.Pop(h)
				heap.Push(h, res)
			}
		}
	}

	results := make([]Result, h.Len())
	copy(results, *h)
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	return results, nil
}
