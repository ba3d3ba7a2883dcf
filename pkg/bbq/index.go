package bbq

import (
	"math"

	"github.com/therealutkarshpriyadarshi/bbq/internal/quantization"
)

// Corrections is the 4-tuple of scalars recorded per quantized vector,
// needed to reconstruct an approximate similarity score from an integer
// bit-dot product.
type Corrections struct {
	Lower                float32 // a: lower quantization bound
	Upper                float32 // b: upper quantization bound
	AdditionalCorrection float32 // c: ||x||^2 (Euclidean) or <x, centroid> (Cosine/MIP)
	Sum                  int32   // S: sum of quantized components
}

// Index is an immutable binary-quantized vector index. It is built once via
// Build and never mutated afterward; all post-build state is read-only, so
// multiple Search calls may run concurrently against the same Index.
type Index struct {
	dim                  int
	stride               int
	codes                []byte
	corrections          []Corrections
	centroid             []float32
	centroidDotCentroid  float32
	similarity           Similarity
	config               Config
}

// Build quantizes vectors to 1 bit per dimension and assembles an Index.
// Vector i's original position is preserved as its ordinal in Search results.
//
// Steps (in order): normalize inputs if similarity is Cosine; compute the
// centroid; quantize each centered vector with the optimized scalar
// quantizer at 1 bit per component (config.IndexBits is not consulted);
// pack to 1-bit codes; record Corrections;
// store the centroid and its self dot product.
func Build(vectors [][]float32, similarity Similarity, config Config) (*Index, error) {
	if len(vectors) == 0 {
		return nil, newError(ErrEmptyInput, "Build requires at least one vector")
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, newError(ErrDimensionMismatch, "vectors must have nonzero dimension")
	}

	prepared := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, newError(ErrDimensionMismatch, "vector %d has dimension %d, want %d", i, len(v), dim)
		}
		if err := checkFinite(v); err != nil {
			return nil, err
		}
		if similarity == Cosine {
			prepared[i] = quantization.Normalize(v)
		} else {
			prepared[i] = v
		}
	}

	centroid := quantization.Centroid(prepared, dim)

	stride := quantization.Stride(dim)
	n := len(prepared)
	codes := make([]byte, n*stride)
	corrections := make([]Corrections, n)

	params := quantization.OSQParams{Bits: 1, Lambda: config.Lambda, Iterations: config.Iters}

	for i, v := range prepared {
		x := quantization.Center(v, centroid)
		r := quantization.OptimizedScalarQuantizer(x, params)

		quantization.PackAsBinaryInto(int32ToByte(r.Quantized), dim, codes[i*stride:(i+1)*stride])

		var additional float32
		switch similarity {
		case Euclidean:
			additional = quantization.NormL2Squared(x)
		case Cosine, MaximumInnerProduct:
			additional = quantization.DotProductFloat32(x, centroid)
		}

		corrections[i] = Corrections{
			Lower:                r.Lower,
			Upper:                r.Upper,
			AdditionalCorrection: additional,
			Sum:                  int32(r.Sum),
		}
	}

	return &Index{
		dim:                 dim,
		stride:              stride,
		codes:               codes,
		corrections:         corrections,
		centroid:            centroid,
		centroidDotCentroid: quantization.DotProductFloat32(centroid, centroid),
		similarity:          similarity,
		config:              config,
	}, nil
}

func checkFinite(v []float32) error {
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return newError(ErrNonFiniteInput, "component %d is NaN or Inf", i)
		}
	}
	return nil
}

func int32ToByte(q []int32) []byte {
	out := make([]byte, len(q))
	for i, v := range q {
		out[i] = byte(v)
	}
	return out
}

// Dimension returns D, the fixed vector dimension of this index.
func (idx *Index) Dimension() int { return idx.dim }

// Size returns N, the number of vectors stored in this index.
func (idx *Index) Size() int { return len(idx.corrections) }

// Centroid returns the index's mean vector. Callers must not mutate it.
func (idx *Index) Centroid() []float32 { return idx.centroid }

// Similarity returns the similarity function this index was built for.
func (idx *Index) Similarity() Similarity { return idx.similarity }

// PackedCode returns the raw packed 1-bit code for vector i, a test and
// diagnostics accessor. Callers must not mutate the returned slice.
func (idx *Index) PackedCode(i int) []byte {
	return idx.codes[i*idx.stride : (i+1)*idx.stride]
}

// CorrectionsAt returns the stored Corrections tuple for vector i, a test and
// diagnostics accessor.
func (idx *Index) CorrectionsAt(i int) Corrections {
	return idx.corrections[i]
}
