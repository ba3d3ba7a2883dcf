package quantization

import "math"

// DotProductFloat32 computes the dot product between two vectors of equal length.
func DotProductFloat32(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// NormL2 computes the L2 norm of a vector.
func NormL2(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return float32(math.Sqrt(float64(sum)))
}

// NormL2Squared computes the squared L2 norm, avoiding the sqrt when only
// the squared magnitude is needed (e.g. the Euclidean additional_correction).
func NormL2Squared(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return sum
}

// Normalize returns a unit-length copy of v. The zero vector is returned
// unchanged since it has no direction to normalize to.
func Normalize(v []float32) []float32 {
	norm := NormL2(v)
	if norm == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Center subtracts the centroid from v, returning a new vector x = v - c.
func Center(v, centroid []float32) []float32 {
	x := make([]float32, len(v))
	for i := range v {
		x[i] = v[i] - centroid[i]
	}
	return x
}

// Centroid computes the component-wise mean of a set of equal-dimension
// vectors. Returns a zero vector of the given dimension if vectors is empty.
func Centroid(vectors [][]float32, dim int) []float32 {
	c := make([]float32, dim)
	if len(vectors) == 0 {
		return c
	}

	for _, v := range vectors {
		for d := 0; d < dim; d++ {
			c[d] += v[d]
		}
	}
	inv := 1.0 / float32(len(vectors))
	for d := 0; d < dim; d++ {
		c[d] *= inv
	}
	return c
}

// VectorMeanStd computes the mean and (population) standard deviation of a
// single vector's components, used to seed the quantization interval.
func VectorMeanStd(x []float32) (mean, std float32) {
	if len(x) == 0 {
		return 0, 0
	}

	var sum float32
	for _, v := range x {
		sum += v
	}
	mean = sum / float32(len(x))

	var variance float32
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= float32(len(x))

	return mean, float32(math.Sqrt(float64(variance)))
}

// MinMax returns the smallest and largest components of x.
func MinMax(x []float32) (min, max float32) {
	if len(x) == 0 {
		return 0, 0
	}
	min, max = x[0], x[0]
	for _, v := range x[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// ComputeRecall computes recall@k for approximate search results against
// ground-truth neighbor lists, averaged across queries.
func ComputeRecall(groundTruth [][]int, results [][]int, k int) float32 {
	if len(groundTruth) != len(results) || len(groundTruth) == 0 {
		return 0
	}

	var totalRecall float32
	for i := range groundTruth {
		gt := groundTruth[i]
		res := results[i]

		if len(gt) == 0 {
			continue
		}
		if len(gt) > k {
			gt = gt[:k]
		}
		if len(res) > k {
			res = res[:k]
		}

		gtSet := make(map[int]bool, len(gt))
		for _, id := range gt {
			gtSet[id] = true
		}

		var matches int
		for _, id := range res {
			if gtSet[id] {
				matches++
			}
		}

		totalRecall += float32(matches) / float32(len(gt))
	}

	return totalRecall / float32(len(groundTruth))
}
