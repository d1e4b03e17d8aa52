package matmul

import (
	"context"
	"fmt"

	"github.com/tektwister/ai_engineering/matmul_bench/internal/parallel"
)

// DefaultBlockSize is the default block size for tiled matrix multiplication.
// Chosen to fit in L1 cache (typically 32KB). For 64-bit floats:
// 3 blocks of 64x64 ≈ 24KB which fits well in L1 cache.
const DefaultBlockSize = 64

// Kernel represents a matrix multiplication strategy.
type Kernel int

const (
	// Naive - Simple O(n³) algorithm with i,j,k loop order. The reference.
	Naive Kernel = iota
	// ParallelRows - Naive inner product with output rows split across workers.
	ParallelRows
	// Blocked - Tiled/blocked algorithm for better cache utilization.
	Blocked
	// ParallelBlocked - Tile rows distributed across workers.
	ParallelBlocked
	// StrassenKernel - Recursive Strassen for power-of-two square inputs.
	StrassenKernel
	// NaiveIKJ - O(n³) with i,k,j loop order (better cache locality for row-major).
	NaiveIKJ
	// TransposedB - Pre-transpose B for better memory access pattern.
	TransposedB
)

var kernelNames = []string{"Naive", "ParallelRows", "Blocked", "ParallelBlocked", "Strassen", "NaiveIKJ", "TransposedB"}

// String returns the name of the kernel.
func (k Kernel) String() string {
	if k >= 0 && int(k) < len(kernelNames) {
		return kernelNames[k]
	}
	return "Unknown"
}

// AllKernels lists every kernel in declaration order.
func AllKernels() []Kernel {
	return []Kernel{Naive, ParallelRows, Blocked, ParallelBlocked, StrassenKernel, NaiveIKJ, TransposedB}
}

// Options carries the tuning knobs shared by all kernels.
type Options struct {
	blockSize int
	pool      *parallel.Pool
}

// Option mutates Options.
type Option func(*Options)

// WithBlockSize sets the tile edge used by the blocked kernels.
func WithBlockSize(bs int) Option {
	return func(o *Options) { o.blockSize = bs }
}

// WithPool sets the worker pool used by the parallel kernels.
func WithPool(p *parallel.Pool) Option {
	return func(o *Options) { o.pool = p }
}

func gatherOptions(opts []Option) Options {
	o := Options{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pool == nil {
		o.pool = parallel.New(0)
	}
	return o
}

// Multiply performs matrix multiplication C = A × B using the specified kernel.
// Shapes are checked before any work starts.
func Multiply(ctx context.Context, a, b *Matrix, kernel Kernel, opts ...Option) (*Matrix, error) {
	if err := validateMulShape(a, b); err != nil {
		return nil, fmt.Errorf("%s: %w", kernel, err)
	}
	o := gatherOptions(opts)

	switch kernel {
	case Naive:
		return MultiplyNaive(a, b)
	case ParallelRows:
		return MultiplyParallelRows(ctx, a, b, o.pool)
	case Blocked:
		return MultiplyBlocked(a, b, o.blockSize)
	case ParallelBlocked:
		return MultiplyParallelBlocked(ctx, a, b, o.blockSize, o.pool)
	case StrassenKernel:
		return Strassen(a, b)
	case NaiveIKJ:
		return multiplyNaiveIKJ(a, b), nil
	case TransposedB:
		return multiplyTransposedB(a, b), nil
	default:
		return nil, fmt.Errorf("%w: unknown kernel %d", ErrInvalidParameter, int(kernel))
	}
}

// MultiplyNaive implements the standard O(n³) matrix multiplication.
// Loop order: i, j, k with a scalar accumulator reset per output cell.
// Every other kernel is checked against this one.
func MultiplyNaive(a, b *Matrix) (*Matrix, error) {
	if err := validateMulShape(a, b); err != nil {
		return nil, fmt.Errorf("naive: %w", err)
	}
	c := NewMatrix(a.Rows, b.Cols)
	naiveRows(a, b, c.Data, 0, a.Rows)
	return c, nil
}

// naiveRows computes output rows [start, end) into dst, which holds exactly
// those rows.
func naiveRows(a, b *Matrix, dst []float64, start, end int) {
	n, k := b.Cols, a.Cols
	for i := start; i < end; i++ {
		aRow := a.Data[i*k : (i+1)*k]
		out := dst[(i-start)*n : (i-start+1)*n]
		for j := 0; j < n; j++ {
			sum := 0.0
			for l := 0; l < k; l++ {
				sum += aRow[l] * b.Data[l*n+j]
			}
			out[j] = sum
		}
	}
}

// MultiplyParallelRows splits the output rows into contiguous chunks, one per
// worker. Each worker owns only its chunk of the result; A and B are shared
// read-only.
func MultiplyParallelRows(ctx context.Context, a, b *Matrix, pool *parallel.Pool) (*Matrix, error) {
	if err := validateMulShape(a, b); err != nil {
		return nil, fmt.Errorf("parallel rows: %w", err)
	}
	c := NewMatrix(a.Rows, b.Cols)
	err := pool.ForRanges(ctx, a.Rows, func(start, end int) error {
		naiveRows(a, b, c.RowRange(start, end), start, end)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parallel rows: %w", err)
	}
	return c, nil
}

// MultiplyBlocked implements tiled/blocked matrix multiplication.
// The matrix is divided into blocks that fit in cache, reducing cache misses.
//
// For matrices A (M×K) and B (K×N), tile origins (ii, jj, kk) step by
// blockSize and every tile edge is clamped with min(origin+blockSize, dim),
// so sizes that are not a multiple of blockSize are handled. Each output cell
// is visited once per kk tile and accumulates that tile's partial sum on top
// of the value already stored.
func MultiplyBlocked(a, b *Matrix, blockSize int) (*Matrix, error) {
	if err := validateMulShape(a, b); err != nil {
		return nil, fmt.Errorf("blocked: %w", err)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidParameter, blockSize)
	}
	m, n, k := a.Rows, b.Cols, a.Cols
	c := NewMatrix(m, n)

	for ii := 0; ii < m; ii += blockSize {
		iEnd := min(ii+blockSize, m)
		for jj := 0; jj < n; jj += blockSize {
			jEnd := min(jj+blockSize, n)
			for kk := 0; kk < k; kk += blockSize {
				kEnd := min(kk+blockSize, k)

				for i := ii; i < iEnd; i++ {
					for j := jj; j < jEnd; j++ {
						sum := c.Data[i*n+j]
						for l := kk; l < kEnd; l++ {
							sum += a.Data[i*k+l] * b.Data[l*n+j]
						}
						c.Data[i*n+j] = sum
					}
				}
			}
		}
	}
	return c, nil
}

// MultiplyParallelBlocked is a parallel version of blocked matrix multiplication.
// One task per tile row: the band of rows [ii, min(ii+blockSize, M)) is owned
// by exactly one task, which sums every kk contribution of an (ii, jj) tile in
// a local blockSize×blockSize buffer before copying the finished tile into its
// band. Bands never overlap, so the write-back needs no lock.
func MultiplyParallelBlocked(ctx context.Context, a, b *Matrix, blockSize int, pool *parallel.Pool) (*Matrix, error) {
	if err := validateMulShape(a, b); err != nil {
		return nil, fmt.Errorf("parallel blocked: %w", err)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidParameter, blockSize)
	}
	m, n, k := a.Rows, b.Cols, a.Cols
	c := NewMatrix(m, n)

	// Tile stride: never wider than the output.
	bw := min(blockSize, n)
	bands := tileBands(m, blockSize)
	err := pool.ForEach(ctx, len(bands), func(t int) error {
		ii, iEnd := bands[t].Start, bands[t].End
		dst := c.RowRange(ii, iEnd)
		local := make([]float64, (iEnd-ii)*bw)

		for jj := 0; jj < n; jj += blockSize {
			jEnd := min(jj+blockSize, n)
			clear(local)

			for kk := 0; kk < k; kk += blockSize {
				kEnd := min(kk+blockSize, k)
				for i := ii; i < iEnd; i++ {
					for j := jj; j < jEnd; j++ {
						idx := (i-ii)*bw + (j - jj)
						sum := local[idx]
						for l := kk; l < kEnd; l++ {
							sum += a.Data[i*k+l] * b.Data[l*n+j]
						}
						local[idx] = sum
					}
				}
			}

			for i := ii; i < iEnd; i++ {
				copy(dst[(i-ii)*n+jj:(i-ii)*n+jEnd], local[(i-ii)*bw:(i-ii)*bw+(jEnd-jj)])
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parallel blocked: %w", err)
	}
	return c, nil
}

// tileBands returns the row bands [ii, min(ii+blockSize, rows)) in order.
// The bands partition [0, rows) exactly, including a short trailing band.
func tileBands(rows, blockSize int) []parallel.Range {
	bands := make([]parallel.Range, 0, (rows+blockSize-1)/blockSize)
	for ii := 0; ii < rows; ii += blockSize {
		bands = append(bands, parallel.Range{Start: ii, End: min(ii+blockSize, rows)})
	}
	return bands
}

// multiplyNaiveIKJ uses i,k,j loop ordering for better cache locality.
// In row-major storage, accessing b(k, j) with varying j utilizes
// spatial locality since consecutive j values are adjacent in memory.
func multiplyNaiveIKJ(a, b *Matrix) *Matrix {
	m, n, k := a.Rows, b.Cols, a.Cols
	c := NewMatrix(m, n)

	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			aik := a.Data[i*k+l]
			for j := 0; j < n; j++ {
				c.Data[i*n+j] += aik * b.Data[l*n+j]
			}
		}
	}
	return c
}

// multiplyTransposedB pre-transposes matrix B for better memory access.
// When B is transposed, both A and B^T can be accessed row-by-row,
// maximizing cache line utilization.
func multiplyTransposedB(a, b *Matrix) *Matrix {
	m, n, k := a.Rows, b.Cols, a.Cols
	c := NewMatrix(m, n)
	bT := b.Transpose()

	for i := 0; i < m; i++ {
		aRowBase := i * k
		for j := 0; j < n; j++ {
			bTRowBase := j * k
			sum := 0.0
			for l := 0; l < k; l++ {
				sum += a.Data[aRowBase+l] * bT.Data[bTRowBase+l]
			}
			c.Data[i*n+j] = sum
		}
	}
	return c
}
