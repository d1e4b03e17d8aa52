package matmul

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tektwister/ai_engineering/matmul_bench/internal/parallel"
)

const tol = 1e-9

var productKernels = []Kernel{Naive, ParallelRows, Blocked, ParallelBlocked, NaiveIKJ, TransposedB}

// TestNaiveMultiplication tests the naive O(n³) multiplication.
func TestNaiveMultiplication(t *testing.T) {
	a := NewMatrixFromSlice([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	b := NewMatrixFromSlice([][]float64{
		{7, 8},
		{9, 10},
		{11, 12},
	})

	result, err := MultiplyNaive(a, b)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{58, 64}, {139, 154}}, result.To2D())
}

// TestAllKernels verifies that all kernels produce the same result.
func TestAllKernels(t *testing.T) {
	ctx := context.Background()
	for _, size := range []int{1, 16, 33, 64, 100} {
		t.Run(fmt.Sprintf("Size%d", size), func(t *testing.T) {
			a := NewRandom(size, size, 1)
			b := NewRandom(size, size, 2)

			reference, err := MultiplyNaive(a, b)
			require.NoError(t, err)

			for _, kernel := range append(productKernels[1:], StrassenKernel) {
				t.Run(kernel.String(), func(t *testing.T) {
					result, err := Multiply(ctx, a, b, kernel, WithBlockSize(16), WithPool(parallel.New(4)))
					require.NoError(t, err)
					require.Truef(t, result.Equal(reference, tol),
						"kernel %s max diff %g", kernel, result.MaxAbsDiff(reference))
				})
			}
		})
	}
}

// TestNonSquareMatrices tests multiplication of non-square matrices.
func TestNonSquareMatrices(t *testing.T) {
	testCases := []struct {
		aRows, aCols int
		bRows, bCols int
	}{
		{2, 3, 3, 4},
		{1, 5, 5, 1},
		{10, 20, 20, 15},
		{7, 11, 11, 13},
		{65, 3, 3, 70},
	}

	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%dx%d_x_%dx%d", tc.aRows, tc.aCols, tc.bRows, tc.bCols), func(t *testing.T) {
			a := NewRandom(tc.aRows, tc.aCols, 3)
			b := NewRandom(tc.bRows, tc.bCols, 4)

			reference, err := MultiplyNaive(a, b)
			require.NoError(t, err)

			for _, kernel := range productKernels[1:] {
				result, err := Multiply(ctx, a, b, kernel, WithBlockSize(4), WithPool(parallel.New(3)))
				require.NoError(t, err)
				require.Equal(t, tc.aRows, result.Rows, kernel.String())
				require.Equal(t, tc.bCols, result.Cols, kernel.String())
				require.Truef(t, result.Equal(reference, tol), "kernel %s", kernel)
			}
		})
	}
}

// TestBlockedInvariantToBlockSize exercises the boundary clamp on sizes that
// are not multiples of the block size.
func TestBlockedInvariantToBlockSize(t *testing.T) {
	ctx := context.Background()
	a := NewRandom(50, 37, 5)
	b := NewRandom(37, 43, 6)
	reference, err := MultiplyNaive(a, b)
	require.NoError(t, err)

	for _, bs := range []int{1, 7, 16, 50, 64} {
		t.Run(fmt.Sprintf("Block%d", bs), func(t *testing.T) {
			blocked, err := MultiplyBlocked(a, b, bs)
			require.NoError(t, err)
			require.True(t, blocked.Equal(reference, tol))

			pb, err := MultiplyParallelBlocked(ctx, a, b, bs, parallel.New(4))
			require.NoError(t, err)
			require.True(t, pb.Equal(reference, tol))
		})
	}
}

// TestBlockedKeepsNaiveSummationOrder relies on each cell accumulating its
// k terms in increasing order, which makes the blocked results bit-exact.
func TestBlockedKeepsNaiveSummationOrder(t *testing.T) {
	a := NewRandom(31, 29, 7)
	b := NewRandom(29, 23, 8)
	reference, err := MultiplyNaive(a, b)
	require.NoError(t, err)

	blocked, err := MultiplyBlocked(a, b, 8)
	require.NoError(t, err)
	require.Equal(t, reference.Data, blocked.Data)

	pb, err := MultiplyParallelBlocked(context.Background(), a, b, 8, parallel.New(3))
	require.NoError(t, err)
	require.Equal(t, reference.Data, pb.Data)
}

// TestDimensionMismatch tests that incompatible dimensions produce an error.
func TestDimensionMismatch(t *testing.T) {
	a := NewMatrix(2, 3)
	b := NewMatrix(4, 2) // 3 != 4, should fail

	for _, kernel := range AllKernels() {
		t.Run(kernel.String(), func(t *testing.T) {
			_, err := Multiply(context.Background(), a, b, kernel)
			require.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}

	_, err := MultiplyNaive(a, b)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = MultiplyParallelRows(context.Background(), a, b, parallel.New(2))
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = MultiplyBlocked(a, b, 2)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = MultiplyParallelBlocked(context.Background(), a, b, 2, parallel.New(2))
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Strassen(a, b)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestInvalidBlockSize(t *testing.T) {
	a, b := Eye(4), Eye(4)
	_, err := MultiplyBlocked(a, b, 0)
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = MultiplyParallelBlocked(context.Background(), a, b, -1, parallel.New(2))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestUnknownKernel(t *testing.T) {
	_, err := Multiply(context.Background(), Eye(2), Eye(2), Kernel(99))
	require.ErrorIs(t, err, ErrInvalidParameter)
	require.Equal(t, "Unknown", Kernel(99).String())
}

// TestIdentityEndToEnd multiplies [[1,0],[0,1]] by [[5,6],[7,8]] with every kernel.
func TestIdentityEndToEnd(t *testing.T) {
	a := NewMatrixFromSlice([][]float64{{1, 0}, {0, 1}})
	b := NewMatrixFromSlice([][]float64{{5, 6}, {7, 8}})

	for _, kernel := range AllKernels() {
		t.Run(kernel.String(), func(t *testing.T) {
			result, err := Multiply(context.Background(), a, b, kernel, WithBlockSize(1))
			require.NoError(t, err)
			require.Equal(t, [][]float64{{5, 6}, {7, 8}}, result.To2D())
		})
	}
}

// TestIdentityMultiplication tests that A × I = A.
func TestIdentityMultiplication(t *testing.T) {
	for _, size := range []int{10, 50, 100} {
		t.Run(fmt.Sprintf("Size%d", size), func(t *testing.T) {
			a := NewRandom(size, size, int64(size))
			result, err := Multiply(context.Background(), a, Eye(size), ParallelBlocked)
			require.NoError(t, err)
			require.True(t, result.Equal(a, tol), "A × I != A")
		})
	}
}

func TestEmptyInnerDimension(t *testing.T) {
	a := NewMatrix(3, 0)
	b := NewMatrix(0, 2)
	for _, kernel := range productKernels {
		result, err := Multiply(context.Background(), a, b, kernel)
		require.NoError(t, err)
		require.Equal(t, []float64{0, 0, 0, 0, 0, 0}, result.Data)
	}
}

func TestMultiplyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewRandom(40, 40, 1)
	_, err := MultiplyParallelRows(ctx, a, a, parallel.New(4))
	require.ErrorIs(t, err, context.Canceled)
	_, err = MultiplyParallelBlocked(ctx, a, a, 8, parallel.New(4))
	require.ErrorIs(t, err, context.Canceled)
}

func TestTileBandsPartitionRows(t *testing.T) {
	for _, tc := range []struct{ rows, bs int }{{10, 3}, {9, 3}, {1, 64}, {130, 64}} {
		bands := tileBands(tc.rows, tc.bs)
		next := 0
		for _, band := range bands {
			require.Equal(t, next, band.Start)
			require.LessOrEqual(t, band.Len(), tc.bs)
			next = band.End
		}
		require.Equal(t, tc.rows, next)
	}
}

func TestParallelBlockedScratchFitsTile(t *testing.T) {
	a := NewRandom(2, 3, 61)
	b := NewRandom(3, 2, 62)
	want, err := MultiplyNaive(a, b)
	require.NoError(t, err)

	// One worker runs the task inline, so the only allocations are ours.
	pool := parallel.New(1)
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	got, err := MultiplyParallelBlocked(context.Background(), a, b, 1<<24, pool)
	runtime.ReadMemStats(&after)
	require.NoError(t, err)
	require.Equal(t, want.Data, got.Data)
	require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestNegativeDimensions(t *testing.T) {
	bad := &Matrix{Rows: -3, Cols: -3, Data: make([]float64, 9)}
	for _, kernel := range AllKernels() {
		_, err := Multiply(context.Background(), bad, bad, kernel)
		require.ErrorIsf(t, err, ErrInvalidParameter, "kernel %s", kernel)
	}
}
