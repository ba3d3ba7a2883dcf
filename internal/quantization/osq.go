package quantization

import "math"

// osqSeedGrid holds the lower/upper MSE-optimal interval endpoints for a
// standard-normal source, indexed by bits-per-component (1..8). These seed
// the coordinate descent below; they come from the same grid family Lucene's
// OptimizedScalarQuantizer uses to initialize (a,b) before refinement.
var osqSeedGrid = map[int][2]float32{
	1: {-0.798, 0.798},
	2: {-1.493, 1.493},
	3: {-2.051, 2.051},
	4: {-2.514, 2.514},
	5: {-2.916, 2.916},
	6: {-3.278, 3.278},
	7: {-3.611, 3.611},
	8: {-3.922, 3.922},
}

// OSQParams configures OptimizedScalarQuantizer.
type OSQParams struct {
	Bits       int     // components are quantized to [0, 2^Bits - 1]
	Lambda     float32 // anisotropic loss mixing weight in [0, 1]
	Iterations int     // coordinate descent rounds
}

// OSQResult holds the per-vector output of OptimizedScalarQuantizer: the
// quantized integer components plus the scalar corrections needed to
// reconstruct similarity scores from the quantized codes.
type OSQResult struct {
	Quantized []int32
	Lower     float32 // a
	Upper     float32 // b
	Sum       int64   // sum of Quantized, needed by the scorer
}

// OptimizedScalarQuantizer quantizes a centered residual vector x = v -
// centroid into integer components in [0, 2^bits-1], choosing the pair of
// interval endpoints (a, b) that minimizes the anisotropic loss
//
//	L(a,b) = (1-lambda) * ||x - xhat||^2 + lambda * (<x-xhat, x>)^2 / ||x||^2
//
// via coordinate descent: each round re-quantizes every component against
// the current (a,b), then solves the 2x2 normal-equations system for the
// (a,b) that is optimal given that fixed assignment. Equivalent to OSQ/RaBitQ
// anisotropic scalar quantization restricted to a uniform per-vector grid.
func OptimizedScalarQuantizer(x []float32, params OSQParams) OSQResult {
	bits := params.Bits
	if bits < 1 {
		bits = 1
	}
	levels := float32(int(1)<<uint(bits) - 1)

	dim := len(x)
	quantized := make([]int32, dim)

	normSq := NormL2Squared(x)
	if normSq == 0 {
		return OSQResult{Quantized: quantized, Lower: 0, Upper: 0, Sum: 0}
	}

	mean, std := VectorMeanStd(x)
	seed, ok := osqSeedGrid[bits]
	if !ok {
		seed = osqSeedGrid[8]
	}
	a, b := mean+seed[0]*std, mean+seed[1]*std
	if std == 0 || a >= b {
		min, max := MinMax(x)
		a, b = min, max
		if a >= b {
			b = a + 1
		}
	}

	lambda := params.Lambda
	iters := params.Iterations
	if iters <= 0 {
		iters = 1
	}

	for iter := 0; iter < iters; iter++ {
		quantizeComponents(x, a, b, levels, quantized)

		var daa, dab, dbb, dax, dbx float64
		for i, xi := range x {
			alpha := 1 - float64(quantized[i])/float64(levels)
			beta := float64(quantized[i]) / float64(levels)
			daa += alpha * alpha
			dab += alpha * beta
			dbb += beta * beta
			dax += alpha * float64(xi)
			dbx += beta * float64(xi)
		}

		l := float64(lambda)
		nsq := float64(normSq)

		m11 := (1-l)*daa + (l/nsq)*dax*dax
		m12 := (1-l)*dab + (l/nsq)*dax*dbx
		m22 := (1-l)*dbb + (l/nsq)*dbx*dbx
		rhs1, rhs2 := dax, dbx

		det := m11*m22 - m12*m12
		if det <= 0 || math.IsNaN(det) || math.IsInf(det, 0) {
			// Degenerate normal-equations system (e.g. every component
			// quantized to the same level): keep the previous interval.
			continue
		}

		newA := (rhs1*m22 - rhs2*m12) / det
		newB := (m11*rhs2 - m12*rhs1) / det
		if math.IsNaN(newA) || math.IsNaN(newB) || newA >= newB {
			continue
		}

		a, b = float32(newA), float32(newB)
	}

	quantizeComponents(x, a, b, levels, quantized)

	var sum int64
	for _, q := range quantized {
		sum += int64(q)
	}

	return OSQResult{Quantized: quantized, Lower: a, Upper: b, Sum: sum}
}

// quantizeComponents assigns each x[i] to the nearest of levels+1 uniformly
// spaced grid points between a and b, clamped to [0, levels].
func quantizeComponents(x []float32, a, b, levels float32, out []int32) {
	span := b - a
	for i, xi := range x {
		var level float32
		if span != 0 {
			level = (xi - a) / span * levels
		}
		q := int32(math.Round(float64(level)))
		if q < 0 {
			q = 0
		}
		if q > int32(levels) {
			q = int32(levels)
		}
		out[i] = q
	}
}
