// Package matmul benchmarks dense matrix multiplication strategies.
// It implements the naive O(n³) reference, row-parallel, cache-blocked,
// parallel-blocked and Strassen multiplications together with a timing
// harness that reports throughput and speedup across strategies and sizes.
package matmul

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Matrix represents a 2D matrix stored in row-major order.
// The element at (r, c) lives at Data[r*Cols+c] and len(Data) == Rows*Cols.
type Matrix struct {
	Data []float64
	Rows int
	Cols int
}

// NewMatrix creates a new matrix with the specified dimensions.
// All elements are initialized to zero.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Data: make([]float64, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// NewMatrixFromSlice creates a matrix from a 2D slice.
// All rows must have the length of the first row.
func NewMatrixFromSlice(data [][]float64) *Matrix {
	if len(data) == 0 {
		return NewMatrix(0, 0)
	}
	rows := len(data)
	cols := len(data[0])
	m := NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		if len(data[i]) != cols {
			panic(fmt.Sprintf("matmul: ragged input, row %d has %d columns, want %d", i, len(data[i]), cols))
		}
		copy(m.Data[i*cols:(i+1)*cols], data[i])
	}
	return m
}

// NewMatrixFromFlat creates a matrix from a flat row-major slice.
// The data is copied.
func NewMatrixFromFlat(data []float64, rows, cols int) *Matrix {
	if len(data) != rows*cols {
		panic(fmt.Sprintf("matmul: data length %d doesn't match dimensions %dx%d", len(data), rows, cols))
	}
	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)
	return &Matrix{
		Data: dataCopy,
		Rows: rows,
		Cols: cols,
	}
}

// NewRandom creates a rows×cols matrix filled with values drawn uniformly
// from [-1, 1) by a generator seeded with seed. The same seed always
// produces the same matrix.
func NewRandom(rows, cols int, seed int64) *Matrix {
	rng := rand.New(rand.NewSource(seed))
	m := NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = rng.Float64()*2 - 1
	}
	return m
}

// Index returns the flat index for the given row and column.
// It panics with ErrOutOfRange if either index is outside the shape.
func (m *Matrix) Index(row, col int) int {
	if row < 0 || row >= m.Rows || col < 0 || col >= m.Cols {
		panic(fmt.Errorf("%w: (%d,%d) in %dx%d matrix", ErrOutOfRange, row, col, m.Rows, m.Cols))
	}
	return row*m.Cols + col
}

// At returns the element at position (row, col).
func (m *Matrix) At(row, col int) float64 {
	return m.Data[m.Index(row, col)]
}

// Set sets the element at position (row, col).
func (m *Matrix) Set(row, col int, value float64) {
	m.Data[m.Index(row, col)] = value
}

// RowRange returns the backing storage of rows [start, end) as a slice
// whose capacity ends at row end, so appending to it can never reach
// into rows owned by someone else.
func (m *Matrix) RowRange(start, end int) []float64 {
	if start < 0 || end > m.Rows || start > end {
		panic(fmt.Errorf("%w: rows [%d,%d) in %dx%d matrix", ErrOutOfRange, start, end, m.Rows, m.Cols))
	}
	lo, hi := start*m.Cols, end*m.Cols
	return m.Data[lo:hi:hi]
}

// Clone creates a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	return NewMatrixFromFlat(m.Data, m.Rows, m.Cols)
}

// Shape returns the dimensions of the matrix.
func (m *Matrix) Shape() (int, int) {
	return m.Rows, m.Cols
}

// IsSquare reports whether Rows == Cols.
func (m *Matrix) IsSquare() bool {
	return m.Rows == m.Cols
}

// To2D converts the matrix to a 2D slice representation.
func (m *Matrix) To2D() [][]float64 {
	result := make([][]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		result[i] = make([]float64, m.Cols)
		copy(result[i], m.Data[i*m.Cols:(i+1)*m.Cols])
	}
	return result
}

// Transpose returns the transpose of the matrix.
func (m *Matrix) Transpose() *Matrix {
	result := NewMatrix(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			result.Data[j*m.Rows+i] = m.Data[i*m.Cols+j]
		}
	}
	return result
}

// String returns a string representation of the matrix.
func (m *Matrix) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Matrix(%dx%d):\n", m.Rows, m.Cols)
	for i := 0; i < m.Rows; i++ {
		sb.WriteString("[")
		for j := 0; j < m.Cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%.4f", m.Data[i*m.Cols+j])
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}

// Equal checks if two matrices have the same shape and every pair of
// elements differs by at most tolerance. A NaN element never compares equal.
func (m *Matrix) Equal(other *Matrix, tolerance float64) bool {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return false
	}
	for i := range m.Data {
		// written as !(diff <= tol) so NaN fails
		if !(math.Abs(m.Data[i]-other.Data[i]) <= tolerance) {
			return false
		}
	}
	return true
}

// MaxAbsDiff returns the largest absolute elementwise difference between
// m and other. Shape mismatch yields +Inf and any NaN difference yields NaN.
func (m *Matrix) MaxAbsDiff(other *Matrix) float64 {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return math.Inf(1)
	}
	maxDiff := 0.0
	for i := range m.Data {
		diff := math.Abs(m.Data[i] - other.Data[i])
		if math.IsNaN(diff) {
			return math.NaN()
		}
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	return maxDiff
}

// Ones creates a matrix filled with ones.
func Ones(rows, cols int) *Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = 1.0
	}
	return m
}

// Eye creates an identity matrix.
func Eye(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.Data[i*n+i] = 1.0
	}
	return m
}
