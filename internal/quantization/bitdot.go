package quantization

// Int1BitDot computes the 1-bit x 1-bit dot product between two packed
// binary codes of equal length: the number of dimensions where both
// operands have a set bit, i.e. popcount(q[i] & d[i]) summed over i.
func Int1BitDot(q, d []byte) int {
	return PopCountAnd(q, d)
}

// Int4BitDot computes the 4-bit (transposed, asymmetric) x 1-bit dot
// product. q is a transposed 4-bit query produced by TransposeHalfByte
// (length 4*stride); d is a packed 1-bit code (length stride). It accumulates
// one popcount-AND pass per bit-plane and combines them with binary weights,
// reproducing Sum(q4_i * d_i) for q4_i in [0,15].
func Int4BitDot(q, d []byte) int {
	stride := len(d)

	s0 := PopCountAnd(q[0*stride:1*stride], d)
	s1 := PopCountAnd(q[1*stride:2*stride], d)
	s2 := PopCountAnd(q[2*stride:3*stride], d)
	s3 := PopCountAnd(q[3*stride:4*stride], d)

	return s0 + 2*s1 + 4*s2 + 8*s3
}
