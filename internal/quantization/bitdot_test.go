package quantization

import "testing"

func TestInt1BitDot(t *testing.T) {
	q := []byte{0xFF, 0x0F}
	d := []byte{0x0F, 0xFF}
	want := PopCountByte(0xFF&0x0F) + PopCountByte(0x0F&0xFF)
	if got := Int1BitDot(q, d); got != want {
		t.Errorf("Int1BitDot = %d, want %d", got, want)
	}
}

// TestInt4BitDotFixed reproduces scenario S2: an 8-dimensional query with
// every component quantized to 15 (the maximum 4-bit level) against an
// index code with every bit set. Each plane contributes a full popcount of
// 8, so the weighted sum is 8*(1+2+4+8) = 120.
func TestInt4BitDotFixed(t *testing.T) {
	dim := 8
	q := make([]byte, dim)
	for i := range q {
		q[i] = 15
	}
	transposed := TransposeHalfByte(q, dim)

	d := []byte{0xFF}

	want := 120
	if got := Int4BitDot(transposed, d); got != want {
		t.Fatalf("Int4BitDot = %d, want %d", got, want)
	}
}

// TestInt4BitDotWeightedIdentity checks testable property #2: Int4BitDot
// equals the plain scalar dot product Sum(q4_i * d_i) for q4_i in [0,15]
// and d_i in {0,1}, computed independently component-by-component.
func TestInt4BitDotWeightedIdentity(t *testing.T) {
	dim := 13
	q := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 15}
	d01 := []byte{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 0, 1, 1}

	var want int
	for i := 0; i < dim; i++ {
		want += int(q[i]) * int(d01[i])
	}

	transposed := TransposeHalfByte(q, dim)
	packed := PackAsBinary(d01, dim)

	if got := Int4BitDot(transposed, packed); got != want {
		t.Fatalf("Int4BitDot = %d, want %d", got, want)
	}
}

func BenchmarkInt1BitDot(b *testing.B) {
	q := make([]byte, 96)
	d := make([]byte, 96)
	for i := range q {
		q[i] = byte(i * 3)
		d[i] = byte(i * 5)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Int1BitDot(q, d)
	}
}

func BenchmarkInt4BitDot(b *testing.B) {
	dim := 768
	q := make([]byte, dim)
	for i := range q {
		q[i] = byte(i % 16)
	}
	transposed := TransposeHalfByte(q, dim)
	d := make([]byte, Stride(dim))
	for i := range d {
		d[i] = byte(i * 11)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Int4BitDot(transposed, d)
	}
}
