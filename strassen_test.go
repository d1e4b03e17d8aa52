package matmul

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStrassenBaseCase checks that small inputs take the naive path exactly.
func TestStrassenBaseCase(t *testing.T) {
	for _, size := range []int{1, 2, 16, 33, 64} {
		t.Run(fmt.Sprintf("Size%d", size), func(t *testing.T) {
			a := NewRandom(size, size, 11)
			b := NewRandom(size, size, 12)

			reference, err := MultiplyNaive(a, b)
			require.NoError(t, err)
			result, err := Strassen(a, b)
			require.NoError(t, err)
			require.Equal(t, reference.Data, result.Data)
		})
	}
}

// TestStrassenRecursive tests Strassen's algorithm above the threshold.
func TestStrassenRecursive(t *testing.T) {
	for _, size := range []int{128, 256} {
		t.Run(fmt.Sprintf("Size%d", size), func(t *testing.T) {
			a := NewRandom(size, size, 21)
			b := NewRandom(size, size, 22)

			reference, err := MultiplyNaive(a, b)
			require.NoError(t, err)
			result, err := Strassen(a, b)
			require.NoError(t, err)

			// Strassen has slightly lower precision due to more operations
			require.Truef(t, result.Equal(reference, 1e-6), "max diff %g", result.MaxAbsDiff(reference))
		})
	}
}

// TestStrassenNonPowerOfTwo falls back to the naive result.
func TestStrassenNonPowerOfTwo(t *testing.T) {
	for _, size := range []int{100, 200} {
		a := NewRandom(size, size, 31)
		b := NewRandom(size, size, 32)

		reference, err := MultiplyNaive(a, b)
		require.NoError(t, err)
		result, err := Strassen(a, b)
		require.NoError(t, err)
		require.Equal(t, reference.Data, result.Data)
	}
}

func TestStrassenRejectsNonSquare(t *testing.T) {
	_, err := Strassen(NewMatrix(2, 3), NewMatrix(3, 3))
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Strassen(NewMatrix(3, 3), NewMatrix(3, 2))
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Strassen(NewMatrix(4, 4), NewMatrix(8, 8))
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestStrassenDoesNotMutateOperands(t *testing.T) {
	a := NewRandom(128, 128, 41)
	b := NewRandom(128, 128, 42)
	aCopy, bCopy := a.Clone(), b.Clone()

	_, err := Strassen(a, b)
	require.NoError(t, err)
	require.Equal(t, aCopy.Data, a.Data)
	require.Equal(t, bCopy.Data, b.Data)
}

func TestStrassenPadded(t *testing.T) {
	testCases := []struct{ m, k, n int }{
		{2, 3, 2},
		{5, 7, 3},
		{70, 90, 100},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%dx%dx%d", tc.m, tc.k, tc.n), func(t *testing.T) {
			a := NewRandom(tc.m, tc.k, 51)
			b := NewRandom(tc.k, tc.n, 52)

			reference, err := MultiplyNaive(a, b)
			require.NoError(t, err)
			result, err := StrassenPadded(a, b)
			require.NoError(t, err)
			require.Equal(t, tc.m, result.Rows)
			require.Equal(t, tc.n, result.Cols)
			require.True(t, result.Equal(reference, 1e-6))
		})
	}

	_, err := StrassenPadded(NewMatrix(2, 3), NewMatrix(2, 3))
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestQuadrantRoundTrip(t *testing.T) {
	m := NewRandom(8, 8, 61)
	q11, q12, q21, q22 := splitQuadrants(m, 4)
	require.Equal(t, m.At(0, 4), q12.At(0, 0))
	require.Equal(t, m.At(4, 0), q21.At(0, 0))
	require.Equal(t, m.At(7, 7), q22.At(3, 3))
	require.Equal(t, m.Data, combineQuadrants(q11, q12, q21, q22).Data)
}

func TestNextPowerOf2(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 64: 64, 65: 128, 100: 128} {
		require.Equalf(t, want, nextPowerOf2(in), "nextPowerOf2(%d)", in)
	}
	require.True(t, isPowerOf2(256))
	require.False(t, isPowerOf2(0))
	require.False(t, isPowerOf2(96))
}
